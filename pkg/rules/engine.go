package rules

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/zhiban/zhiban/pkg/audit"
	"github.com/zhiban/zhiban/pkg/conflict"
	"github.com/zhiban/zhiban/pkg/errors"
	"github.com/zhiban/zhiban/pkg/logger"
	"github.com/zhiban/zhiban/pkg/model"
)

// Violation 规则违反记录
// Conflicts 是冲突代码中被该规则声明的子集
type Violation struct {
	RuleID      string            `json:"rule_id"`
	RuleName    string            `json:"rule_name"`
	Conflicts   []conflict.Code   `json:"conflicts"`
	Severity    conflict.Severity `json:"severity"`
	Blocking    bool              `json:"is_blocking"`
	Message     string            `json:"message"`
	Overridable bool              `json:"can_override"`
	Overridden  bool              `json:"overridden"`
	OverrideID  *uuid.UUID        `json:"override_id,omitempty"`
}

// ValidationResult 规则评估结果
// 每次调用重新计算，不持久化
type ValidationResult struct {
	ShiftID    uuid.UUID       `json:"shift_id"`
	Conflicts  []conflict.Code `json:"conflicts"`
	Blocking   []conflict.Code `json:"blocking"`
	Warnings   []conflict.Code `json:"warnings"`
	Violations []*Violation    `json:"violations"`
	Overrides  []*Override     `json:"overrides"`
	CanAssign  bool            `json:"can_assign"`
}

// EnforcementResult 强制执行结果
// 阻止以结构化结果返回而非错误，调用方根据 Blocked 分支
type EnforcementResult struct {
	*ValidationResult
	Blocked   bool     `json:"blocked"`
	Message   string   `json:"message,omitempty"`
	BlockedBy []string `json:"blocked_by,omitempty"`
}

// OverrideInput 创建豁免的输入
// Approver/ApproverRole 缺省时取操作人身份
type OverrideInput struct {
	ShiftID      uuid.UUID              `json:"shift_id"`
	RuleID       string                 `json:"rule_id"`
	Actor        Actor                  `json:"actor"`
	Reason       string                 `json:"reason"`
	Approver     string                 `json:"approver,omitempty"`
	ApproverRole string                 `json:"approver_role,omitempty"`
	Metadata     map[string]interface{} `json:"metadata,omitempty"`
}

// EnforceOptions 强制执行选项
type EnforceOptions struct {
	Actor       Actor `json:"actor"`
	ForceAssign bool  `json:"force_assign"`
}

// Engine 规则引擎
// 把冲突代码映射到规则目录，结合豁免存储决定分配能否继续
type Engine struct {
	catalog    []*Rule
	index      map[string]*Rule
	classifier *conflict.Classifier
	store      Store
	sink       audit.Sink
	log        *logger.RuleLogger
}

// NewEngine 创建规则引擎
// catalog 为 nil 时使用内置规则目录，不同目录的引擎可以共存；
// store 和 sink 为 nil 时使用内存实现
func NewEngine(classifier *conflict.Classifier, catalog []*Rule, store Store, sink audit.Sink) *Engine {
	if classifier == nil {
		classifier = conflict.NewClassifier(nil, nil)
	}
	if len(catalog) == 0 {
		catalog = DefaultCatalog()
	}
	if store == nil {
		store = NewMemoryStore()
	}
	if sink == nil {
		sink = audit.NewMemorySink(0)
	}

	index := make(map[string]*Rule, len(catalog))
	for _, r := range catalog {
		index[r.ID] = r
	}

	return &Engine{
		catalog:    catalog,
		index:      index,
		classifier: classifier,
		store:      store,
		sink:       sink,
		log:        logger.NewRuleLogger(),
	}
}

// Rules 返回规则目录的副本，调用方的修改不影响引擎
func (e *Engine) Rules() []*Rule {
	result := make([]*Rule, 0, len(e.catalog))
	for _, r := range e.catalog {
		c := *r
		c.ConflictCodes = append([]conflict.Code(nil), r.ConflictCodes...)
		result = append(result, &c)
	}
	return result
}

// Rule 按ID查找规则
func (e *Engine) Rule(id string) (*Rule, bool) {
	r, ok := e.index[id]
	return r, ok
}

// Evaluate 对目标班次评估全部冲突和规则违反
//
// 逐条目录规则取冲突代码的交集，非空即记一条违反；
// CanAssign 为真当且仅当不存在未被豁免的拦截级违反
func (e *Engine) Evaluate(target *model.Shift, others []*model.Shift, applications []*model.Application) *ValidationResult {
	return e.evaluate(target, others, applications, Actor{Name: "system"})
}

func (e *Engine) evaluate(target *model.Shift, others []*model.Shift, applications []*model.Application, actor Actor) *ValidationResult {
	// 残缺输入降级为无冲突，不在评估路径上失败
	if target == nil {
		return &ValidationResult{
			Conflicts:  []conflict.Code{},
			Blocking:   []conflict.Code{},
			Warnings:   []conflict.Code{},
			Violations: []*Violation{},
			Overrides:  []*Override{},
			CanAssign:  true,
		}
	}

	codes := e.classifier.Classify(target, others, applications)
	categorized := conflict.Categorize(codes)

	violations := make([]*Violation, 0)
	overrides := make([]*Override, 0)
	canAssign := true
	for _, rule := range e.catalog {
		matched := rule.Matches(codes)
		if len(matched) == 0 {
			continue
		}
		v := &Violation{
			RuleID:      rule.ID,
			RuleName:    rule.Name,
			Conflicts:   matched,
			Severity:    rule.Severity,
			Blocking:    rule.IsBlocking(),
			Message:     rule.Description,
			Overridable: rule.Overridable,
		}
		if o, ok := e.store.Get(target.ID, rule.ID); ok && o.Active {
			v.Overridden = true
			id := o.ID
			v.OverrideID = &id
			overrides = append(overrides, o)
		}
		if v.Blocking && !v.Overridden {
			canAssign = false
		}
		violations = append(violations, v)
	}

	result := &ValidationResult{
		ShiftID:    target.ID,
		Conflicts:  codes,
		Blocking:   categorized.Blocking,
		Warnings:   categorized.Warnings,
		Violations: violations,
		Overrides:  overrides,
		CanAssign:  canAssign,
	}

	e.emit(audit.ActionRuleEvaluation, actor.Name, actor.Role, map[string]interface{}{
		"shift_id":   target.ID.String(),
		"conflicts":  codeStrings(codes),
		"violations": len(violations),
		"overrides":  len(overrides),
		"can_assign": canAssign,
	}, len(codes))
	e.log.Evaluation(target.ID.String(), len(codes), len(violations), canAssign)

	return result
}

// Enforce 在分配前强制执行规则
//
// 未被豁免的拦截级违反会阻止指派，除非显式要求强制通过；
// 放行且有生效豁免时追加一条豁免应用的审计记录
func (e *Engine) Enforce(target *model.Shift, others []*model.Shift, applications []*model.Application, opts EnforceOptions) *EnforcementResult {
	actor := opts.Actor
	if actor.Name == "" {
		actor.Name = "system"
	}
	validation := e.evaluate(target, others, applications, actor)

	if !validation.CanAssign && !opts.ForceAssign {
		blockedBy := make([]string, 0)
		names := make([]string, 0)
		for _, v := range validation.Violations {
			if v.Blocking && !v.Overridden {
				blockedBy = append(blockedBy, v.RuleID)
				names = append(names, v.RuleName)
			}
		}
		e.log.Blocked(target.ID.String(), blockedBy)
		return &EnforcementResult{
			ValidationResult: validation,
			Blocked:          true,
			Message:          fmt.Sprintf("指派被以下规则阻止: %s", strings.Join(names, "、")),
			BlockedBy:        blockedBy,
		}
	}

	if len(validation.Overrides) > 0 {
		applied := make([]map[string]interface{}, 0, len(validation.Overrides))
		for _, o := range validation.Overrides {
			applied = append(applied, map[string]interface{}{
				"rule_id":  o.RuleID,
				"reason":   o.Reason,
				"approver": o.Approver,
			})
		}
		e.emit(audit.ActionOverrideApplied, opts.Actor.Name, opts.Actor.Role, map[string]interface{}{
			"shift_id":  target.ID.String(),
			"overrides": applied,
		}, len(applied))
	}

	return &EnforcementResult{
		ValidationResult: validation,
		Blocked:          false,
	}
}

// CreateOverride 创建规则豁免
// 规则必须存在且允许豁免；同键重复创建时后写覆盖前写
func (e *Engine) CreateOverride(input OverrideInput) (*Override, error) {
	rule, ok := e.index[input.RuleID]
	if !ok {
		return nil, errors.RuleNotFound(input.RuleID)
	}
	if !rule.Overridable {
		return nil, errors.OverrideNotAllowed(input.RuleID)
	}
	if input.Actor.Name == "" {
		return nil, errors.InvalidInput("actor", "豁免必须记录审批人")
	}

	approver := input.Approver
	if approver == "" {
		approver = input.Actor.Name
	}
	approverRole := input.ApproverRole
	if approverRole == "" {
		approverRole = input.Actor.Role
	}

	o := &Override{
		ID:           uuid.New(),
		ShiftID:      input.ShiftID,
		RuleID:       input.RuleID,
		Reason:       input.Reason,
		Approver:     approver,
		ApproverRole: approverRole,
		CreatedBy:    input.Actor.Name,
		CreatedAt:    time.Now(),
		Active:       true,
		Metadata:     input.Metadata,
	}
	if err := e.store.Put(o); err != nil {
		return nil, errors.Wrap(err, errors.CodeInternal, "豁免写入失败")
	}

	e.emit(audit.ActionOverrideCreated, input.Actor.Name, input.Actor.Role, map[string]interface{}{
		"shift_id":    input.ShiftID.String(),
		"rule_id":     input.RuleID,
		"override_id": o.ID.String(),
		"reason":      input.Reason,
		"approver":    approver,
	}, 1)
	e.log.OverrideCreated(input.ShiftID.String(), input.RuleID, input.Actor.Name)

	return o, nil
}

// RemoveOverride 删除规则豁免
// 不存在时返回 OverrideNotFound，属于非致命错误
func (e *Engine) RemoveOverride(id uuid.UUID, actor Actor) (*Override, error) {
	o, ok := e.store.DeleteByID(id)
	if !ok {
		return nil, errors.New(errors.CodeOverrideNotFound, fmt.Sprintf("豁免 '%s' 不存在", id))
	}

	e.emit(audit.ActionOverrideRemoved, actor.Name, actor.Role, map[string]interface{}{
		"shift_id":    o.ShiftID.String(),
		"rule_id":     o.RuleID,
		"override_id": o.ID.String(),
	}, 1)

	return o, nil
}

// ListActiveOverrides 列出全部生效豁免
func (e *Engine) ListActiveOverrides() []*Override {
	return e.store.All()
}

// ListOverridesForShift 列出某班次的全部生效豁免
func (e *Engine) ListOverridesForShift(shiftID uuid.UUID) []*Override {
	return e.store.List(shiftID)
}

// emit 写入审计记录；失败只记日志，决策照常返回
func (e *Engine) emit(action, actor, role string, details map[string]interface{}, count int) {
	if _, err := e.sink.Append(action, actor, role, details, count); err != nil {
		e.log.AuditFailure(action, err)
	}
}

// codeStrings 冲突代码转字符串列表，用于审计详情
func codeStrings(codes []conflict.Code) []string {
	result := make([]string, 0, len(codes))
	for _, c := range codes {
		result = append(result, string(c))
	}
	return result
}
