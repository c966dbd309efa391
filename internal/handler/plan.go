package handler

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/zhiban/zhiban/internal/metrics"
	"github.com/zhiban/zhiban/internal/repository"
	apperrors "github.com/zhiban/zhiban/pkg/errors"
	"github.com/zhiban/zhiban/pkg/model"
	"github.com/zhiban/zhiban/pkg/planner"
	"github.com/zhiban/zhiban/pkg/rules"
)

// PlanHandler 自动排班处理器
type PlanHandler struct {
	planner *planner.Planner
	engine  *rules.Engine
	shifts  *repository.ShiftRepository // 可选，存在时落库持久化指派
}

// NewPlanHandler 创建自动排班处理器
// shifts 为 nil 时指派只回写到请求内的班次
func NewPlanHandler(p *planner.Planner, engine *rules.Engine, shifts *repository.ShiftRepository) *PlanHandler {
	return &PlanHandler{planner: p, engine: engine, shifts: shifts}
}

// PlanRequest 排班计划请求
type PlanRequest struct {
	Shifts []*model.Shift  `json:"shifts"`
	People []*model.Person `json:"people"`
	Actor  rules.Actor     `json:"actor,omitempty"`
}

// Generate 生成轮转指派提案，不修改任何班次
// POST /api/v1/plan/generate
func (h *PlanHandler) Generate(w http.ResponseWriter, r *http.Request) {
	if !requirePost(w, r) {
		return
	}

	var req PlanRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, err)
		return
	}
	if err := h.validateShifts(req.Shifts); err != nil {
		respondError(w, err)
		return
	}

	proposals := h.planner.Plan(req.Shifts, req.People)
	metrics.IncPlanGenerated()

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"proposals": proposals,
		"total":     len(proposals),
	})
}

// Execute 生成提案并顺序执行，每个提案在落地前经过完整的规则强制检查
// POST /api/v1/plan/execute
func (h *PlanHandler) Execute(w http.ResponseWriter, r *http.Request) {
	if !requirePost(w, r) {
		return
	}

	var req PlanRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, err)
		return
	}
	if err := h.validateShifts(req.Shifts); err != nil {
		respondError(w, err)
		return
	}

	proposals := h.planner.Plan(req.Shifts, req.People)
	metrics.IncPlanGenerated()

	byID := make(map[uuid.UUID]*model.Shift, len(req.Shifts))
	for _, s := range req.Shifts {
		if s != nil {
			byID[s.ID] = s
		}
	}

	result := h.planner.Execute(proposals, func(shiftID, personID uuid.UUID) error {
		target, ok := byID[shiftID]
		if !ok {
			return apperrors.NotFound("班次", shiftID.String())
		}

		// 以候选指派状态做完整规则检查
		candidate := *target
		pid := personID
		candidate.AssignedTo = &pid
		candidate.Status = model.ShiftStatusAssigned

		others := make([]*model.Shift, 0, len(req.Shifts))
		for _, s := range req.Shifts {
			if s != nil && s.ID != shiftID {
				others = append(others, s)
			}
		}

		enforcement := h.engine.Enforce(&candidate, others, nil, rules.EnforceOptions{Actor: req.Actor})
		if enforcement.Blocked {
			return apperrors.New(apperrors.CodeAssignmentBlocked, enforcement.Message)
		}

		target.AssignedTo = &pid
		target.Status = model.ShiftStatusAssigned

		if h.shifts != nil {
			if err := h.shifts.Save(r.Context(), target); err != nil {
				return err
			}
		}
		return nil
	})

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"result": result,
		"shifts": req.Shifts,
	})
}

// validateShifts 校验计划请求中的全部班次
func (h *PlanHandler) validateShifts(shifts []*model.Shift) error {
	if len(shifts) == 0 {
		return apperrors.InvalidInput("shifts", "班次列表不能为空")
	}
	for _, s := range shifts {
		if err := validateShift(s); err != nil {
			return err
		}
	}
	return nil
}
