// Package audit 提供规则决策的审计追踪
package audit

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// 审计动作
const (
	ActionRuleEvaluation  = "rule_evaluation"
	ActionOverrideCreated = "rule_override_created"
	ActionOverrideApplied = "rule_override_applied"
	ActionOverrideRemoved = "rule_override_removed"
)

// Entry 审计记录
type Entry struct {
	ID        uuid.UUID              `json:"id" db:"id"`
	Timestamp time.Time              `json:"timestamp" db:"timestamp"`
	Action    string                 `json:"action" db:"action"`
	Actor     string                 `json:"actor" db:"actor"`
	Role      string                 `json:"role,omitempty" db:"role"`
	Details   map[string]interface{} `json:"details,omitempty" db:"details"`
	Count     int                    `json:"count" db:"count"`
}

// Sink 审计写入端
// 写入失败不得影响调用方的决策结果，调用方记录日志后继续
// count 记录本次动作涉及的对象数量（冲突数、豁免数等）
type Sink interface {
	Append(action, actor, role string, details map[string]interface{}, count int) (*Entry, error)
	Recent(limit int) []*Entry
}

// MemorySink 内存环形缓冲审计端
// 容量固定，写满后覆盖最旧记录
type MemorySink struct {
	mu       sync.RWMutex
	entries  []*Entry
	capacity int
	next     int
	size     int
}

// DefaultCapacity 默认审计缓冲容量
const DefaultCapacity = 1000

// NewMemorySink 创建内存审计端
func NewMemorySink(capacity int) *MemorySink {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &MemorySink{
		entries:  make([]*Entry, capacity),
		capacity: capacity,
	}
}

// Append 追加审计记录
func (s *MemorySink) Append(action, actor, role string, details map[string]interface{}, count int) (*Entry, error) {
	entry := &Entry{
		ID:        uuid.New(),
		Timestamp: time.Now(),
		Action:    action,
		Actor:     actor,
		Role:      role,
		Details:   details,
		Count:     count,
	}

	s.mu.Lock()
	s.entries[s.next] = entry
	s.next = (s.next + 1) % s.capacity
	if s.size < s.capacity {
		s.size++
	}
	s.mu.Unlock()

	return entry, nil
}

// Recent 按时间倒序返回最近的审计记录
func (s *MemorySink) Recent(limit int) []*Entry {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if limit <= 0 || limit > s.size {
		limit = s.size
	}
	result := make([]*Entry, 0, limit)
	for i := 0; i < limit; i++ {
		idx := (s.next - 1 - i + s.capacity) % s.capacity
		result = append(result, s.entries[idx])
	}
	return result
}

// Size 返回当前记录数
func (s *MemorySink) Size() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.size
}

// Capacity 返回缓冲容量
func (s *MemorySink) Capacity() int {
	return s.capacity
}
