// Package conflict 提供班次冲突检测与分类功能
package conflict

import (
	"time"

	"github.com/zhiban/zhiban/pkg/clock"
	"github.com/zhiban/zhiban/pkg/model"
)

// Detector 重叠检测器
type Detector struct {
	loc *time.Location
}

// NewDetector 创建重叠检测器
func NewDetector(loc *time.Location) *Detector {
	if loc == nil {
		loc = time.Local
	}
	return &Detector{loc: loc}
}

// Detect 判断两个班次的时间段是否相交
//
// 三级路径，顺序不可调整：
//  1. 两个班次都带已解析时刻 → 直接比较时刻（正确处理跨日和夏令时）
//  2. 同一日历日 → 墙钟区间比较
//  3. 其余情况 → 即时解析两端时刻再比较
//
// 同日墙钟路径与时刻路径在夏令时边界附近可能得出不同结论，这是有意保留的行为
func (d *Detector) Detect(a, b *model.Shift) bool {
	if a == nil || b == nil {
		return false
	}

	if a.Span != nil && b.Span != nil {
		return a.Span.Overlaps(b.Span)
	}

	if a.Date == b.Date {
		return clock.Overlaps(a.StartTime, a.EndTime, b.StartTime, b.EndTime)
	}

	spanA, err := clock.ResolveSpan(a.Date, a.StartTime, a.EndTime, d.loc)
	if err != nil {
		return false
	}
	spanB, err := clock.ResolveSpan(b.Date, b.StartTime, b.EndTime, d.loc)
	if err != nil {
		return false
	}
	return spanA.Overlaps(spanB)
}

// Location 返回检测器使用的时区
func (d *Detector) Location() *time.Location {
	return d.loc
}
