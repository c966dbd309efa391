package handler

import (
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/zhiban/zhiban/internal/metrics"
	apperrors "github.com/zhiban/zhiban/pkg/errors"
	"github.com/zhiban/zhiban/pkg/model"
	"github.com/zhiban/zhiban/pkg/rules"
)

// RuleHandler 规则引擎处理器
type RuleHandler struct {
	engine *rules.Engine
}

// NewRuleHandler 创建规则引擎处理器
func NewRuleHandler(engine *rules.Engine) *RuleHandler {
	return &RuleHandler{engine: engine}
}

// EvaluateRequest 规则评估请求
type EvaluateRequest struct {
	Shift        *model.Shift         `json:"shift"`
	Others       []*model.Shift       `json:"others"`
	Applications []*model.Application `json:"applications,omitempty"`
	Actor        rules.Actor          `json:"actor,omitempty"`
	ForceAssign  bool                 `json:"force_assign,omitempty"`
}

// Evaluate 评估目标班次的冲突和规则违反
// POST /api/v1/rules/evaluate
func (h *RuleHandler) Evaluate(w http.ResponseWriter, r *http.Request) {
	if !requirePost(w, r) {
		return
	}

	var req EvaluateRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, err)
		return
	}
	if err := h.validateRequest(&req); err != nil {
		respondError(w, err)
		return
	}

	result := h.engine.Evaluate(req.Shift, req.Others, req.Applications)

	metrics.IncEvaluation(result.CanAssign)
	for _, code := range result.Conflicts {
		metrics.IncConflict(string(code))
	}

	respondJSON(w, http.StatusOK, result)
}

// Enforce 在分配前强制执行规则
// POST /api/v1/rules/enforce
func (h *RuleHandler) Enforce(w http.ResponseWriter, r *http.Request) {
	if !requirePost(w, r) {
		return
	}

	var req EvaluateRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, err)
		return
	}
	if err := h.validateRequest(&req); err != nil {
		respondError(w, err)
		return
	}

	result := h.engine.Enforce(req.Shift, req.Others, req.Applications, rules.EnforceOptions{
		Actor:       req.Actor,
		ForceAssign: req.ForceAssign,
	})

	metrics.IncEvaluation(!result.Blocked)
	for _, code := range result.Conflicts {
		metrics.IncConflict(string(code))
	}

	status := http.StatusOK
	if result.Blocked {
		status = http.StatusUnprocessableEntity
	}
	respondJSON(w, status, result)
}

// ListRules 返回规则目录
// GET /api/v1/rules
func (h *RuleHandler) ListRules(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		respondError(w, apperrors.New(apperrors.CodeInvalidInput, "仅支持GET方法"))
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"rules": h.engine.Rules(),
	})
}

// validateRequest 校验评估请求中的全部班次
func (h *RuleHandler) validateRequest(req *EvaluateRequest) error {
	if err := validateShift(req.Shift); err != nil {
		return err
	}
	for _, other := range req.Others {
		if err := validateShift(other); err != nil {
			return err
		}
	}
	return nil
}

// CreateOverrideRequest 创建豁免请求
type CreateOverrideRequest struct {
	ShiftID      string                 `json:"shift_id"`
	RuleID       string                 `json:"rule_id"`
	Actor        rules.Actor            `json:"actor"`
	Reason       string                 `json:"reason"`
	Approver     string                 `json:"approver,omitempty"`
	ApproverRole string                 `json:"approver_role,omitempty"`
	Metadata     map[string]interface{} `json:"metadata,omitempty"`
}

// Overrides 豁免集合端点
// POST /api/v1/overrides 创建豁免
// GET  /api/v1/overrides?shift_id= 列出豁免，不带参数时返回全部
func (h *RuleHandler) Overrides(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		h.createOverride(w, r)
	case http.MethodGet:
		h.listOverrides(w, r)
	default:
		respondError(w, apperrors.New(apperrors.CodeInvalidInput, "仅支持GET/POST方法"))
	}
}

func (h *RuleHandler) createOverride(w http.ResponseWriter, r *http.Request) {
	var req CreateOverrideRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, err)
		return
	}

	shiftID, err := uuid.Parse(req.ShiftID)
	if err != nil {
		respondError(w, apperrors.InvalidInput("shift_id", "无效的班次ID格式"))
		return
	}

	o, err := h.engine.CreateOverride(rules.OverrideInput{
		ShiftID:      shiftID,
		RuleID:       req.RuleID,
		Actor:        req.Actor,
		Reason:       req.Reason,
		Approver:     req.Approver,
		ApproverRole: req.ApproverRole,
		Metadata:     req.Metadata,
	})
	if err != nil {
		respondError(w, err)
		return
	}

	metrics.IncOverrideCreated(req.RuleID)
	respondJSON(w, http.StatusCreated, o)
}

func (h *RuleHandler) listOverrides(w http.ResponseWriter, r *http.Request) {
	raw := r.URL.Query().Get("shift_id")
	if raw == "" {
		respondJSON(w, http.StatusOK, map[string]interface{}{
			"overrides": h.engine.ListActiveOverrides(),
		})
		return
	}

	shiftID, err := uuid.Parse(raw)
	if err != nil {
		respondError(w, apperrors.InvalidInput("shift_id", "无效的班次ID格式"))
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"overrides": h.engine.ListOverridesForShift(shiftID),
	})
}

// OverrideByID 单个豁免端点
// DELETE /api/v1/overrides/{id} 删除豁免
func (h *RuleHandler) OverrideByID(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodDelete {
		respondError(w, apperrors.New(apperrors.CodeInvalidInput, "仅支持DELETE方法"))
		return
	}

	idStr := strings.TrimPrefix(r.URL.Path, "/api/v1/overrides/")
	id, err := uuid.Parse(idStr)
	if err != nil {
		respondError(w, apperrors.InvalidInput("id", "无效的豁免ID格式"))
		return
	}

	actor := rules.Actor{
		Name: r.Header.Get("X-Actor"),
		Role: r.Header.Get("X-Actor-Role"),
	}
	o, err := h.engine.RemoveOverride(id, actor)
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"removed": o,
	})
}
