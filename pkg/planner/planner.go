// Package planner 实现开放班次的轮转自动指派
package planner

import (
	"github.com/google/uuid"
	"github.com/zhiban/zhiban/pkg/model"
)

// Proposal 指派提案
// 提案只是建议，不修改任何班次；冲突配对照常产出并打标
type Proposal struct {
	ShiftID         uuid.UUID `json:"shift_id"`
	PersonID        uuid.UUID `json:"person_id"`
	PersonName      string    `json:"person_name"`
	HasConflicts    bool      `json:"has_conflicts"`
	ConflictReasons []string  `json:"conflict_reasons,omitempty"`
}

// AssignFunc 执行单个指派的回调
type AssignFunc func(shiftID, personID uuid.UUID) error

// ExecuteError 执行失败的提案
type ExecuteError struct {
	ShiftID  uuid.UUID `json:"shift_id"`
	PersonID uuid.UUID `json:"person_id"`
	Error    string    `json:"error"`
}

// ExecuteResult 计划执行结果
type ExecuteResult struct {
	SuccessCount int             `json:"success_count"`
	ErrorCount   int             `json:"error_count"`
	Errors       []*ExecuteError `json:"errors"`
}

// Planner 轮转排班器
type Planner struct{}

// NewPlanner 创建排班器
func NewPlanner() *Planner {
	return &Planner{}
}

// Plan 为开放班次生成轮转指派提案
//
// 第 i 个开放班次配第 i mod n 个可用人员，按输入顺序配对，
// 同一人可以连续出现，不考虑工作量均衡。每个配对跑一次窄化
// 冲突检查并打标，完整的规则评估留给执行路径上的强制检查
func (p *Planner) Plan(shifts []*model.Shift, people []*model.Person) []*Proposal {
	open := make([]*model.Shift, 0, len(shifts))
	for _, s := range shifts {
		if s != nil && s.Status == model.ShiftStatusOpen {
			open = append(open, s)
		}
	}
	available := make([]*model.Person, 0, len(people))
	for _, person := range people {
		if person != nil && person.IsAvailable() {
			available = append(available, person)
		}
	}
	if len(open) == 0 || len(available) == 0 {
		return []*Proposal{}
	}

	proposals := make([]*Proposal, 0, len(open))
	for i, shift := range open {
		person := available[i%len(available)]
		reasons := quickConflicts(shift, person, shifts)
		proposals = append(proposals, &Proposal{
			ShiftID:         shift.ID,
			PersonID:        person.ID,
			PersonName:      person.Name,
			HasConflicts:    len(reasons) > 0,
			ConflictReasons: reasons,
		})
	}
	return proposals
}

// quickConflicts 窄化的可指派检查，刻意比完整规则评估窄：
// 只看班次是否已指派他人，以及该人同一日历日是否已有班次。
// 地点、休息时间和豁免逻辑均不在此检查范围内
func quickConflicts(shift *model.Shift, person *model.Person, all []*model.Shift) []string {
	reasons := make([]string, 0)
	if shift.AssignedTo != nil && *shift.AssignedTo != person.ID {
		reasons = append(reasons, "班次已指派给他人")
	}
	for _, other := range all {
		if other == nil || other.ID == shift.ID {
			continue
		}
		if other.AssignedTo != nil && *other.AssignedTo == person.ID && other.Date == shift.Date {
			reasons = append(reasons, "该人员当日已有班次")
			break
		}
	}
	return reasons
}

// Execute 按顺序执行提案
// 单个提案失败不中断整批，失败项收集在结果中返回
func (p *Planner) Execute(proposals []*Proposal, assign AssignFunc) *ExecuteResult {
	result := &ExecuteResult{
		Errors: make([]*ExecuteError, 0),
	}
	for _, proposal := range proposals {
		if err := assign(proposal.ShiftID, proposal.PersonID); err != nil {
			result.ErrorCount++
			result.Errors = append(result.Errors, &ExecuteError{
				ShiftID:  proposal.ShiftID,
				PersonID: proposal.PersonID,
				Error:    err.Error(),
			})
			continue
		}
		result.SuccessCount++
	}
	return result
}
