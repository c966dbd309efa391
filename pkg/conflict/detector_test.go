package conflict

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/zhiban/zhiban/pkg/model"
)

func mustZone(t *testing.T, name string) *time.Location {
	t.Helper()
	loc, err := time.LoadLocation(name)
	if err != nil {
		t.Fatalf("加载时区失败: %v", err)
	}
	return loc
}

func newShift(date, start, end string) *model.Shift {
	return &model.Shift{
		ID:        uuid.New(),
		Date:      date,
		StartTime: start,
		EndTime:   end,
		Status:    model.ShiftStatusOpen,
	}
}

func TestDetector_SameDay(t *testing.T) {
	detector := NewDetector(mustZone(t, "Asia/Shanghai"))

	a := newShift("2024-06-01", "09:00", "17:00")
	b := newShift("2024-06-01", "16:00", "20:00")
	c := newShift("2024-06-01", "17:00", "20:00")

	if !detector.Detect(a, b) {
		t.Error("相交的同日班次应该检出重叠")
	}
	if detector.Detect(a, c) {
		t.Error("首尾相接的班次不应该检出重叠")
	}
}

func TestDetector_CrossDate(t *testing.T) {
	detector := NewDetector(mustZone(t, "Asia/Shanghai"))

	// 夜班延伸到次日凌晨，与次日早班相交
	night := newShift("2024-06-01", "22:00", "06:00")
	morning := newShift("2024-06-02", "05:00", "09:00")
	afternoon := newShift("2024-06-02", "10:00", "18:00")

	if !detector.Detect(night, morning) {
		t.Error("跨日夜班应该与次日凌晨班次重叠")
	}
	if !detector.Detect(morning, night) {
		t.Error("重叠检测应该对称")
	}
	if detector.Detect(night, afternoon) {
		t.Error("夜班不应该与次日下午班次重叠")
	}
}

func TestDetector_ResolvedSpans(t *testing.T) {
	loc := mustZone(t, "Asia/Shanghai")
	detector := NewDetector(loc)

	a := newShift("2024-06-01", "22:00", "06:00")
	b := newShift("2024-06-02", "05:00", "09:00")
	if err := a.Resolve(loc); err != nil {
		t.Fatalf("班次解析失败: %v", err)
	}
	if err := b.Resolve(loc); err != nil {
		t.Fatalf("班次解析失败: %v", err)
	}

	// 两端都已解析时走时刻路径
	if !detector.Detect(a, b) {
		t.Error("已解析班次应该检出重叠")
	}
}

func TestDetector_InvalidInput(t *testing.T) {
	detector := NewDetector(nil)

	bad := newShift("2024-06-01", "24:00", "08:00")
	good := newShift("2024-06-01", "09:00", "17:00")

	if detector.Detect(bad, good) {
		t.Error("无法解析的班次不应该检出重叠")
	}
	if detector.Detect(nil, good) {
		t.Error("nil班次不应该检出重叠")
	}
}
