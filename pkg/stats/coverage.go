package stats

import (
	"sort"

	"github.com/zhiban/zhiban/pkg/model"
)

// DayCoverage 每日覆盖情况
type DayCoverage struct {
	Date         string  `json:"date"`
	TotalShifts  int     `json:"total_shifts"`
	Assigned     int     `json:"assigned"`
	Open         int     `json:"open"`
	CoverageRate float64 `json:"coverage_rate"`
	TotalHours   float64 `json:"total_hours"`
}

// UncoveredShift 未覆盖班次
type UncoveredShift struct {
	ShiftID   string `json:"shift_id"`
	Date      string `json:"date"`
	StartTime string `json:"start_time"`
	EndTime   string `json:"end_time"`
	Location  string `json:"location,omitempty"`
}

// CoverageReport 覆盖率报告
type CoverageReport struct {
	TotalShifts     int              `json:"total_shifts"`
	AssignedShifts  int              `json:"assigned_shifts"`
	OverallCoverage float64          `json:"overall_coverage"` // 百分比
	DailyCoverage   []DayCoverage    `json:"daily_coverage"`
	Uncovered       []UncoveredShift `json:"uncovered"`
}

// CoverageAnalyzer 覆盖率分析器
type CoverageAnalyzer struct{}

// NewCoverageAnalyzer 创建覆盖率分析器
func NewCoverageAnalyzer() *CoverageAnalyzer {
	return &CoverageAnalyzer{}
}

// Analyze 分析班次覆盖率，已取消的班次不计入
func (c *CoverageAnalyzer) Analyze(shifts []*model.Shift) *CoverageReport {
	dailyStats := make(map[string]*DayCoverage)
	uncovered := make([]UncoveredShift, 0)
	total := 0
	assigned := 0

	for _, s := range shifts {
		if s == nil || s.Status == model.ShiftStatusCancelled {
			continue
		}
		total++

		day, exists := dailyStats[s.Date]
		if !exists {
			day = &DayCoverage{Date: s.Date}
			dailyStats[s.Date] = day
		}
		day.TotalShifts++

		if s.AssignedTo != nil {
			assigned++
			day.Assigned++
			day.TotalHours += float64(s.DurationMinutes()) / 60
		} else {
			day.Open++
			uncovered = append(uncovered, UncoveredShift{
				ShiftID:   s.ID.String(),
				Date:      s.Date,
				StartTime: s.StartTime,
				EndTime:   s.EndTime,
				Location:  s.WorkLocation,
			})
		}
	}

	daily := make([]DayCoverage, 0, len(dailyStats))
	for _, day := range dailyStats {
		if day.TotalShifts > 0 {
			day.CoverageRate = float64(day.Assigned) / float64(day.TotalShifts) * 100
		}
		daily = append(daily, *day)
	}
	sort.Slice(daily, func(i, j int) bool {
		return daily[i].Date < daily[j].Date
	})

	overall := 0.0
	if total > 0 {
		overall = float64(assigned) / float64(total) * 100
	} else {
		overall = 100
	}

	return &CoverageReport{
		TotalShifts:     total,
		AssignedShifts:  assigned,
		OverallCoverage: overall,
		DailyCoverage:   daily,
		Uncovered:       uncovered,
	}
}
