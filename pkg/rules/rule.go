// Package rules 实现规则目录、豁免管理和分配强制执行
package rules

import (
	"github.com/zhiban/zhiban/pkg/conflict"
)

// 内置规则ID
const (
	RulePreventDoubleBooking = "PREVENT_DOUBLE_BOOKING"
	RuleLocationConsistency  = "LOCATION_CONSISTENCY"
	RuleRestPeriod           = "REST_PERIOD"
)

// Rule 排班规则
// 每条规则声明一组冲突代码，任一代码出现即视为违反该规则
type Rule struct {
	ID            string            `json:"id"`
	Name          string            `json:"name"`
	Description   string            `json:"description"`
	Severity      conflict.Severity `json:"severity"`
	ConflictCodes []conflict.Code   `json:"conflict_codes"`
	Overridable   bool              `json:"overridable"`
}

// IsBlocking 检查规则是否为拦截级
func (r *Rule) IsBlocking() bool {
	return r.Severity == conflict.SeverityBlocking
}

// Matches 返回 codes 中被本规则声明的子集，保持输入顺序
func (r *Rule) Matches(codes []conflict.Code) []conflict.Code {
	declared := make(map[conflict.Code]bool, len(r.ConflictCodes))
	for _, c := range r.ConflictCodes {
		declared[c] = true
	}
	matched := make([]conflict.Code, 0)
	for _, c := range codes {
		if declared[c] {
			matched = append(matched, c)
		}
	}
	return matched
}

// DefaultCatalog 返回内置规则目录，按固定顺序排列
// 目录是进程级不可变配置，通过构造函数注入引擎
func DefaultCatalog() []*Rule {
	return []*Rule{
		{
			ID:          RulePreventDoubleBooking,
			Name:        "禁止重复排班",
			Description: "存在时间重叠的班次时不允许指派",
			Severity:    conflict.SeverityBlocking,
			ConflictCodes: []conflict.Code{
				conflict.CodeAssignmentCollision,
				conflict.CodeTimeOverlap,
			},
			Overridable: true,
		},
		{
			ID:          RuleLocationConsistency,
			Name:        "工作地点一致性",
			Description: "同一人重叠时段的班次应在同一工作地点",
			Severity:    conflict.SeverityWarning,
			ConflictCodes: []conflict.Code{
				conflict.CodeLocationMismatch,
			},
			Overridable: true,
		},
		{
			ID:          RuleRestPeriod,
			Name:        "班次间休息",
			Description: "同一人相邻班次之间应保证最小休息时间",
			Severity:    conflict.SeverityWarning,
			ConflictCodes: []conflict.Code{
				conflict.CodeShortTurnaround,
			},
			Overridable: true,
		},
	}
}
