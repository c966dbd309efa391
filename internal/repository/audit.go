package repository

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/zhiban/zhiban/pkg/audit"
	"github.com/zhiban/zhiban/pkg/logger"
)

// AuditSink 基于PostgreSQL的审计写入端
type AuditSink struct {
	db DB
}

// NewAuditSink 创建PostgreSQL审计端
func NewAuditSink(db DB) *AuditSink {
	return &AuditSink{db: db}
}

// Append 追加审计记录
func (s *AuditSink) Append(action, actor, role string, details map[string]interface{}, count int) (*audit.Entry, error) {
	entry := &audit.Entry{
		ID:        uuid.New(),
		Timestamp: time.Now(),
		Action:    action,
		Actor:     actor,
		Role:      role,
		Details:   details,
		Count:     count,
	}

	payload, err := json.Marshal(details)
	if err != nil {
		return nil, err
	}

	ctx, cancel := withTimeout()
	defer cancel()

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO audit_entries (id, ts, action, actor, role, details, count)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		entry.ID, entry.Timestamp, entry.Action, entry.Actor, entry.Role, payload, entry.Count,
	)
	if err != nil {
		return nil, err
	}
	return entry, nil
}

// Recent 按时间倒序返回最近的审计记录
func (s *AuditSink) Recent(limit int) []*audit.Entry {
	if limit <= 0 {
		limit = 100
	}

	ctx, cancel := withTimeout()
	defer cancel()

	result := make([]*audit.Entry, 0)
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, ts, action, actor, role, details, count
		FROM audit_entries
		ORDER BY ts DESC
		LIMIT $1`,
		limit,
	)
	if err != nil {
		logger.WithError(err).Msg("审计记录查询失败")
		return result
	}
	defer rows.Close()

	for rows.Next() {
		entry := &audit.Entry{}
		var payload []byte
		if err := rows.Scan(&entry.ID, &entry.Timestamp, &entry.Action, &entry.Actor, &entry.Role, &payload, &entry.Count); err != nil {
			logger.WithError(err).Msg("审计记录扫描失败")
			continue
		}
		if len(payload) > 0 {
			if err := json.Unmarshal(payload, &entry.Details); err != nil {
				logger.WithError(err).Msg("审计详情解析失败")
			}
		}
		result = append(result, entry)
	}
	return result
}
