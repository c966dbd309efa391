package repository

import (
	"database/sql"
	"encoding/json"

	"github.com/google/uuid"
	"github.com/zhiban/zhiban/pkg/logger"
	"github.com/zhiban/zhiban/pkg/rules"
)

// OverrideStore 基于PostgreSQL的豁免存储
// (shift_id, rule_id) 为主键，重复写入覆盖旧记录
type OverrideStore struct {
	db DB
}

// NewOverrideStore 创建PostgreSQL豁免存储
func NewOverrideStore(db DB) *OverrideStore {
	return &OverrideStore{db: db}
}

const overrideColumns = `id, shift_id, rule_id, reason, approver, approver_role, created_by, created_at, is_active, metadata`

// Get 按 (班次, 规则) 键查询生效的豁免
func (s *OverrideStore) Get(shiftID uuid.UUID, ruleID string) (*rules.Override, bool) {
	ctx, cancel := withTimeout()
	defer cancel()

	row := s.db.QueryRowContext(ctx, `
		SELECT `+overrideColumns+`
		FROM rule_overrides
		WHERE shift_id = $1 AND rule_id = $2 AND is_active`,
		shiftID, ruleID,
	)
	o, err := scanOverride(row)
	if err != nil {
		if err != sql.ErrNoRows {
			logger.WithError(err).Msg("豁免查询失败")
		}
		return nil, false
	}
	return o, true
}

// Put 写入豁免，同键覆盖
func (s *OverrideStore) Put(o *rules.Override) error {
	ctx, cancel := withTimeout()
	defer cancel()

	metadata, err := json.Marshal(o.Metadata)
	if err != nil {
		return err
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO rule_overrides (`+overrideColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (shift_id, rule_id) DO UPDATE SET
			id = EXCLUDED.id,
			reason = EXCLUDED.reason,
			approver = EXCLUDED.approver,
			approver_role = EXCLUDED.approver_role,
			created_by = EXCLUDED.created_by,
			created_at = EXCLUDED.created_at,
			is_active = EXCLUDED.is_active,
			metadata = EXCLUDED.metadata`,
		o.ID, o.ShiftID, o.RuleID, o.Reason, o.Approver, o.ApproverRole,
		o.CreatedBy, o.CreatedAt, o.Active, metadata,
	)
	return err
}

// DeleteByID 按豁免ID删除
func (s *OverrideStore) DeleteByID(id uuid.UUID) (*rules.Override, bool) {
	ctx, cancel := withTimeout()
	defer cancel()

	row := s.db.QueryRowContext(ctx, `
		DELETE FROM rule_overrides
		WHERE id = $1
		RETURNING `+overrideColumns,
		id,
	)
	o, err := scanOverride(row)
	if err != nil {
		if err != sql.ErrNoRows {
			logger.WithError(err).Msg("豁免删除失败")
		}
		return nil, false
	}
	return o, true
}

// List 列出某班次的全部生效豁免
func (s *OverrideStore) List(shiftID uuid.UUID) []*rules.Override {
	return s.query(`
		SELECT `+overrideColumns+`
		FROM rule_overrides
		WHERE shift_id = $1 AND is_active
		ORDER BY created_at`,
		shiftID,
	)
}

// All 列出全部生效豁免
func (s *OverrideStore) All() []*rules.Override {
	return s.query(`
		SELECT ` + overrideColumns + `
		FROM rule_overrides
		WHERE is_active
		ORDER BY created_at`)
}

func (s *OverrideStore) query(query string, args ...interface{}) []*rules.Override {
	ctx, cancel := withTimeout()
	defer cancel()

	result := make([]*rules.Override, 0)
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		logger.WithError(err).Msg("豁免列表查询失败")
		return result
	}
	defer rows.Close()

	for rows.Next() {
		o, err := scanOverride(rows)
		if err != nil {
			logger.WithError(err).Msg("豁免记录扫描失败")
			continue
		}
		result = append(result, o)
	}
	return result
}

// scanOverride 扫描单条豁免记录
func scanOverride(s Scanner) (*rules.Override, error) {
	o := &rules.Override{}
	var metadata []byte
	err := s.Scan(&o.ID, &o.ShiftID, &o.RuleID, &o.Reason, &o.Approver,
		&o.ApproverRole, &o.CreatedBy, &o.CreatedAt, &o.Active, &metadata)
	if err != nil {
		return nil, err
	}
	if len(metadata) > 0 {
		if err := json.Unmarshal(metadata, &o.Metadata); err != nil {
			logger.WithError(err).Msg("豁免元数据解析失败")
		}
	}
	return o, nil
}
