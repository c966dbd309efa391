package handler

import (
	"net/http"
	"strconv"

	"github.com/zhiban/zhiban/pkg/audit"
	apperrors "github.com/zhiban/zhiban/pkg/errors"
)

// AuditHandler 审计查询处理器
type AuditHandler struct {
	sink audit.Sink
}

// NewAuditHandler 创建审计查询处理器
func NewAuditHandler(sink audit.Sink) *AuditHandler {
	return &AuditHandler{sink: sink}
}

// Recent 按时间倒序返回最近的审计记录
// GET /api/v1/audit?limit=
func (h *AuditHandler) Recent(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		respondError(w, apperrors.New(apperrors.CodeInvalidInput, "仅支持GET方法"))
		return
	}

	limit := 100
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			respondError(w, apperrors.InvalidInput("limit", "必须是正整数"))
			return
		}
		limit = n
	}

	entries := h.sink.Recent(limit)
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"entries": entries,
		"total":   len(entries),
	})
}
