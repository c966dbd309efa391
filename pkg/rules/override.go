package rules

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// Actor 豁免操作人
type Actor struct {
	Name string `json:"name"`
	Role string `json:"role,omitempty"`
}

// Override 规则豁免
// 按 (班次, 规则) 键生效；同键重复创建时后写覆盖前写
type Override struct {
	ID           uuid.UUID              `json:"id" db:"id"`
	ShiftID      uuid.UUID              `json:"shift_id" db:"shift_id"`
	RuleID       string                 `json:"rule_id" db:"rule_id"`
	Reason       string                 `json:"reason" db:"reason"`
	Approver     string                 `json:"approver" db:"approver"`
	ApproverRole string                 `json:"approver_role,omitempty" db:"approver_role"`
	CreatedBy    string                 `json:"created_by" db:"created_by"`
	CreatedAt    time.Time              `json:"created_at" db:"created_at"`
	Active       bool                   `json:"is_active" db:"is_active"`
	Metadata     map[string]interface{} `json:"metadata,omitempty" db:"metadata"`
}

// Store 豁免存储
type Store interface {
	// Get 按 (班次, 规则) 键查询生效的豁免
	Get(shiftID uuid.UUID, ruleID string) (*Override, bool)
	// Put 写入豁免，同键覆盖
	Put(o *Override) error
	// DeleteByID 按豁免ID删除，返回被删除的记录
	DeleteByID(id uuid.UUID) (*Override, bool)
	// List 列出某班次的全部生效豁免
	List(shiftID uuid.UUID) []*Override
	// All 列出全部生效豁免
	All() []*Override
}

type overrideKey struct {
	shiftID uuid.UUID
	ruleID  string
}

// MemoryStore 内存豁免存储
type MemoryStore struct {
	mu        sync.RWMutex
	overrides map[overrideKey]*Override
}

// NewMemoryStore 创建内存豁免存储
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		overrides: make(map[overrideKey]*Override),
	}
}

// Get 按键查询
func (s *MemoryStore) Get(shiftID uuid.UUID, ruleID string) (*Override, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	o, ok := s.overrides[overrideKey{shiftID, ruleID}]
	return o, ok
}

// Put 写入，同键覆盖
func (s *MemoryStore) Put(o *Override) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.overrides[overrideKey{o.ShiftID, o.RuleID}] = o
	return nil
}

// DeleteByID 按ID删除
func (s *MemoryStore) DeleteByID(id uuid.UUID) (*Override, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for key, o := range s.overrides {
		if o.ID == id {
			delete(s.overrides, key)
			return o, true
		}
	}
	return nil, false
}

// List 列出某班次的豁免
func (s *MemoryStore) List(shiftID uuid.UUID) []*Override {
	s.mu.RLock()
	defer s.mu.RUnlock()
	result := make([]*Override, 0)
	for key, o := range s.overrides {
		if key.shiftID == shiftID {
			result = append(result, o)
		}
	}
	return result
}

// All 列出全部豁免
func (s *MemoryStore) All() []*Override {
	s.mu.RLock()
	defer s.mu.RUnlock()
	result := make([]*Override, 0, len(s.overrides))
	for _, o := range s.overrides {
		result = append(result, o)
	}
	return result
}
