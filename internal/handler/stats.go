package handler

import (
	"net/http"

	"github.com/zhiban/zhiban/pkg/model"
	"github.com/zhiban/zhiban/pkg/stats"
)

// StatsHandler 统计分析处理器
type StatsHandler struct {
	workload *stats.WorkloadAnalyzer
	coverage *stats.CoverageAnalyzer
}

// NewStatsHandler 创建统计分析处理器
func NewStatsHandler() *StatsHandler {
	return &StatsHandler{
		workload: stats.NewWorkloadAnalyzer(),
		coverage: stats.NewCoverageAnalyzer(),
	}
}

// StatsRequest 统计分析请求
type StatsRequest struct {
	Shifts []*model.Shift  `json:"shifts"`
	People []*model.Person `json:"people,omitempty"`
}

// Workload 工作量统计
// POST /api/v1/stats/workload
func (h *StatsHandler) Workload(w http.ResponseWriter, r *http.Request) {
	if !requirePost(w, r) {
		return
	}

	var req StatsRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, h.workload.Analyze(req.Shifts, req.People))
}

// Coverage 覆盖率统计
// POST /api/v1/stats/coverage
func (h *StatsHandler) Coverage(w http.ResponseWriter, r *http.Request) {
	if !requirePost(w, r) {
		return
	}

	var req StatsRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, h.coverage.Analyze(req.Shifts))
}
