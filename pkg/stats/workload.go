// Package stats 提供排班统计分析功能
package stats

import (
	"math"
	"sort"

	"github.com/google/uuid"
	"github.com/zhiban/zhiban/pkg/model"
)

// PersonWorkload 单人工作量统计
type PersonWorkload struct {
	PersonID       uuid.UUID `json:"person_id"`
	PersonName     string    `json:"person_name"`
	ShiftCount     int       `json:"shift_count"`
	TotalMinutes   int       `json:"total_minutes"`
	TotalHours     float64   `json:"total_hours"`
	OvernightCount int       `json:"overnight_count"`
	Deviation      float64   `json:"deviation"` // 与人均工时的偏差百分比
}

// WorkloadReport 工作量报告
type WorkloadReport struct {
	People          []PersonWorkload `json:"people"`
	AvgHours        float64          `json:"avg_hours"`
	MaxHours        float64          `json:"max_hours"`
	MinHours        float64          `json:"min_hours"`
	WorkloadStdDev  float64          `json:"workload_std_dev"`
	AssignedShifts  int              `json:"assigned_shifts"`
	TotalShifts     int              `json:"total_shifts"`
}

// WorkloadAnalyzer 工作量分析器
type WorkloadAnalyzer struct{}

// NewWorkloadAnalyzer 创建工作量分析器
func NewWorkloadAnalyzer() *WorkloadAnalyzer {
	return &WorkloadAnalyzer{}
}

// Analyze 统计每人的班次数和工时
func (w *WorkloadAnalyzer) Analyze(shifts []*model.Shift, people []*model.Person) *WorkloadReport {
	nameByID := make(map[uuid.UUID]string, len(people))
	for _, p := range people {
		if p != nil {
			nameByID[p.ID] = p.Name
		}
	}

	statMap := make(map[uuid.UUID]*PersonWorkload)
	assigned := 0
	total := 0
	for _, s := range shifts {
		if s == nil || s.Status == model.ShiftStatusCancelled {
			continue
		}
		total++
		if s.AssignedTo == nil {
			continue
		}
		assigned++

		stat, exists := statMap[*s.AssignedTo]
		if !exists {
			stat = &PersonWorkload{
				PersonID:   *s.AssignedTo,
				PersonName: nameByID[*s.AssignedTo],
			}
			statMap[*s.AssignedTo] = stat
		}
		stat.ShiftCount++
		stat.TotalMinutes += s.DurationMinutes()
		if s.IsOvernight() {
			stat.OvernightCount++
		}
	}

	result := make([]PersonWorkload, 0, len(statMap))
	hours := make([]float64, 0, len(statMap))
	for _, stat := range statMap {
		stat.TotalHours = float64(stat.TotalMinutes) / 60
		result = append(result, *stat)
		hours = append(hours, stat.TotalHours)
	}

	avg := mean(hours)
	for i := range result {
		if avg > 0 {
			result[i].Deviation = (result[i].TotalHours - avg) / avg * 100
		}
	}

	// 按工时降序
	sort.Slice(result, func(i, j int) bool {
		if result[i].TotalHours != result[j].TotalHours {
			return result[i].TotalHours > result[j].TotalHours
		}
		return result[i].PersonID.String() < result[j].PersonID.String()
	})

	maxH, minH := extremes(hours)
	return &WorkloadReport{
		People:         result,
		AvgHours:       avg,
		MaxHours:       maxH,
		MinHours:       minH,
		WorkloadStdDev: stdDev(hours, avg),
		AssignedShifts: assigned,
		TotalShifts:    total,
	}
}

// mean 计算平均值
func mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sum := 0.0
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

// stdDev 计算标准差
func stdDev(values []float64, avg float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sumSquares := 0.0
	for _, v := range values {
		diff := v - avg
		sumSquares += diff * diff
	}
	return math.Sqrt(sumSquares / float64(len(values)))
}

// extremes 计算极值
func extremes(values []float64) (max, min float64) {
	if len(values) == 0 {
		return 0, 0
	}
	max, min = values[0], values[0]
	for _, v := range values[1:] {
		if v > max {
			max = v
		}
		if v < min {
			min = v
		}
	}
	return
}
