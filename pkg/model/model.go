// Package model 定义冲突检测引擎的核心数据模型
package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/zhiban/zhiban/pkg/clock"
)

// 班次状态
const (
	ShiftStatusOpen      = "open"
	ShiftStatusAssigned  = "assigned"
	ShiftStatusCancelled = "cancelled"
)

// 申请状态
const (
	ApplicationStatusPending   = "pending"
	ApplicationStatusApproved  = "approved"
	ApplicationStatusRejected  = "rejected"
	ApplicationStatusWithdrawn = "withdrawn"
)

// 人员可用性
const (
	PersonAvailable   = "available"
	PersonUnavailable = "unavailable"
)

// Shift 班次
type Shift struct {
	ID           uuid.UUID  `json:"id" db:"id"`
	Date         string     `json:"date" db:"date"`             // YYYY-MM-DD
	StartTime    string     `json:"start_time" db:"start_time"` // HH:MM
	EndTime      string     `json:"end_time" db:"end_time"`     // HH:MM
	AssignedTo   *uuid.UUID `json:"assigned_to,omitempty" db:"assigned_to"`
	WorkLocation string     `json:"work_location,omitempty" db:"work_location"`
	Status       string     `json:"status" db:"status"` // open/assigned/cancelled

	// 可选的已解析时刻区间；存在时重叠和时长计算优先走时刻路径
	Span *clock.ShiftSpan `json:"span,omitempty" db:"-"`
}

// Application 班次申请
type Application struct {
	ID        uuid.UUID `json:"id" db:"id"`
	ShiftID   uuid.UUID `json:"shift_id" db:"shift_id"`
	UserID    uuid.UUID `json:"user_id" db:"user_id"`
	AppliedAt time.Time `json:"applied_at" db:"applied_at"`
	Status    string    `json:"status" db:"status"` // pending/approved/rejected/withdrawn
}

// Person 可排班人员
type Person struct {
	ID           uuid.UUID `json:"id" db:"id"`
	Name         string    `json:"name" db:"name"`
	Availability string    `json:"availability" db:"availability"` // available/unavailable
}

// IsAssigned 检查班次是否已有指派人
func (s *Shift) IsAssigned() bool {
	return s.AssignedTo != nil
}

// SameAssignee 检查两个班次是否指派给同一人
func (s *Shift) SameAssignee(other *Shift) bool {
	return s.AssignedTo != nil && other.AssignedTo != nil && *s.AssignedTo == *other.AssignedTo
}

// IsOvernight 检查班次是否跨越午夜
func (s *Shift) IsOvernight() bool {
	if s.Span != nil {
		return s.Span.CrossesMidnight
	}
	return clock.IsOvernight(s.StartTime, s.EndTime)
}

// DurationMinutes 返回班次时长（分钟）
// 已解析时刻时走夏令时安全的时刻差，否则退回 mod-1440 墙钟计算
func (s *Shift) DurationMinutes() int {
	if s.Span != nil {
		return s.Span.SpanDuration()
	}
	return clock.Duration(s.StartTime, s.EndTime)
}

// Resolve 在指定时区下解析班次两端时刻并缓存到 Span
func (s *Shift) Resolve(loc *time.Location) error {
	span, err := clock.ResolveSpan(s.Date, s.StartTime, s.EndTime, loc)
	if err != nil {
		return err
	}
	s.Span = span
	return nil
}

// IsAvailable 检查人员是否可排班
func (p *Person) IsAvailable() bool {
	return p.Availability == PersonAvailable
}
