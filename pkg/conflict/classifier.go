package conflict

import (
	"time"

	"github.com/google/uuid"
	"github.com/zhiban/zhiban/pkg/clock"
	"github.com/zhiban/zhiban/pkg/model"
)

// Code 冲突代码
type Code string

const (
	CodeTimeOverlap         Code = "TIME_OVERLAP"         // 时间重叠
	CodeAssignmentCollision Code = "ASSIGNMENT_COLLISION" // 同一人重复指派
	CodeLocationMismatch    Code = "LOCATION_MISMATCH"    // 工作地点不一致
	CodeShortTurnaround     Code = "SHORT_TURNAROUND"     // 班次间休息不足
	CodeDoubleApplication   Code = "DOUBLE_APPLICATION"   // 重复申请
)

// Severity 冲突严重度
type Severity string

const (
	SeverityBlocking Severity = "blocking"
	SeverityWarning  Severity = "warning"
)

// SeverityOf 返回冲突代码对应的严重度
// 严重度是代码的纯函数；未知代码一律按警告处理
func SeverityOf(c Code) Severity {
	switch c {
	case CodeTimeOverlap, CodeAssignmentCollision:
		return SeverityBlocking
	default:
		return SeverityWarning
	}
}

// DefaultRestThresholdMinutes 默认的班次间最小休息时间（分钟）
const DefaultRestThresholdMinutes = 480

// ClassifierConfig 分类器配置
type ClassifierConfig struct {
	RestThresholdMinutes int `yaml:"rest_threshold_minutes" json:"rest_threshold_minutes"`
}

// DefaultClassifierConfig 返回默认配置
func DefaultClassifierConfig() *ClassifierConfig {
	return &ClassifierConfig{
		RestThresholdMinutes: DefaultRestThresholdMinutes,
	}
}

// Classifier 冲突分类器
type Classifier struct {
	detector *Detector
	config   *ClassifierConfig
}

// NewClassifier 创建冲突分类器
func NewClassifier(detector *Detector, config *ClassifierConfig) *Classifier {
	if detector == nil {
		detector = NewDetector(time.Local)
	}
	if config == nil {
		config = DefaultClassifierConfig()
	}
	if config.RestThresholdMinutes <= 0 {
		config.RestThresholdMinutes = DefaultRestThresholdMinutes
	}
	return &Classifier{detector: detector, config: config}
}

// Classify 对目标班次运行全部冲突检查，返回有序的冲突代码列表
//
// 评估顺序固定：TIME_OVERLAP → ASSIGNMENT_COLLISION → LOCATION_MISMATCH →
// SHORT_TURNAROUND → DOUBLE_APPLICATION，下游的规则映射依赖此顺序确定
func (c *Classifier) Classify(target *model.Shift, others []*model.Shift, applications []*model.Application) []Code {
	var codes []Code
	if target == nil {
		return codes
	}

	// 1. 时间重叠
	overlapping := make([]*model.Shift, 0)
	for _, other := range others {
		if other == nil || other.ID == target.ID {
			continue
		}
		if c.detector.Detect(target, other) {
			overlapping = append(overlapping, other)
		}
	}
	if len(overlapping) > 0 {
		codes = append(codes, CodeTimeOverlap)
	}

	// 2. 同人重复指派 + 地点不一致
	if target.AssignedTo != nil {
		collision := false
		locationMismatch := false
		for _, other := range overlapping {
			if !target.SameAssignee(other) {
				continue
			}
			collision = true
			if other.WorkLocation != "" && other.WorkLocation != target.WorkLocation {
				locationMismatch = true
			}
		}
		if collision {
			codes = append(codes, CodeAssignmentCollision)
		}
		if locationMismatch {
			codes = append(codes, CodeLocationMismatch)
		}
	}

	// 3. 班次间休息不足（仅针对已确认指派的班次）
	if target.AssignedTo != nil && target.Status == model.ShiftStatusAssigned {
		for _, other := range others {
			if other == nil || other.ID == target.ID {
				continue
			}
			if !target.SameAssignee(other) || other.Status != model.ShiftStatusAssigned {
				continue
			}
			gap := c.turnaroundGap(target, other)
			if gap >= 0 && gap < c.config.RestThresholdMinutes {
				codes = append(codes, CodeShortTurnaround)
				break
			}
		}
	}

	// 4. 重复申请：同一用户同时申请了目标班次和与之重叠的班次
	if len(applications) > 0 && len(overlapping) > 0 {
		applicants := make(map[uuid.UUID]bool)
		for _, app := range applications {
			if app != nil && app.ShiftID == target.ID {
				applicants[app.UserID] = true
			}
		}
		overlapIDs := make(map[uuid.UUID]bool, len(overlapping))
		for _, o := range overlapping {
			overlapIDs[o.ID] = true
		}
		for _, app := range applications {
			if app == nil {
				continue
			}
			if overlapIDs[app.ShiftID] && applicants[app.UserID] {
				codes = append(codes, CodeDoubleApplication)
				break
			}
		}
	}

	return codes
}

// turnaroundGap 计算两个班次之间的休息间隔（分钟）
// 重叠或无法解析时返回 -1，不贡献冲突
func (c *Classifier) turnaroundGap(a, b *model.Shift) int {
	// 两端都有已解析时刻：时刻差（夏令时安全）
	if a.Span != nil && b.Span != nil {
		return instantGap(a.Span, b.Span)
	}

	// 同日：墙钟相减
	if a.Date == b.Date {
		aStart, err := clock.MinuteOfDay(a.StartTime)
		if err != nil {
			return -1
		}
		aEnd, err := clock.MinuteOfDay(a.EndTime)
		if err != nil {
			return -1
		}
		bStart, err := clock.MinuteOfDay(b.StartTime)
		if err != nil {
			return -1
		}
		bEnd, err := clock.MinuteOfDay(b.EndTime)
		if err != nil {
			return -1
		}
		if bStart >= aEnd {
			return bStart - aEnd
		}
		if aStart >= bEnd {
			return aStart - bEnd
		}
		return -1
	}

	// 跨日回退：即时解析时刻
	spanA, err := clock.ResolveSpan(a.Date, a.StartTime, a.EndTime, c.detector.Location())
	if err != nil {
		return -1
	}
	spanB, err := clock.ResolveSpan(b.Date, b.StartTime, b.EndTime, c.detector.Location())
	if err != nil {
		return -1
	}
	return instantGap(spanA, spanB)
}

// instantGap 基于时刻区间计算间隔；重叠返回 -1
func instantGap(a, b *clock.ShiftSpan) int {
	if !b.Start.UTC.Before(a.End.UTC) {
		return clock.DurationMinutes(a.End, b.Start)
	}
	if !a.Start.UTC.Before(b.End.UTC) {
		return clock.DurationMinutes(b.End, a.Start)
	}
	return -1
}

// Categorized 按严重度划分的冲突代码
type Categorized struct {
	Blocking []Code `json:"blocking"`
	Warnings []Code `json:"warnings"`
}

// Categorize 按严重度划分冲突代码，分区内保持输入顺序
func Categorize(codes []Code) Categorized {
	result := Categorized{
		Blocking: make([]Code, 0),
		Warnings: make([]Code, 0),
	}
	for _, code := range codes {
		if SeverityOf(code) == SeverityBlocking {
			result.Blocking = append(result.Blocking, code)
		} else {
			result.Warnings = append(result.Warnings, code)
		}
	}
	return result
}
