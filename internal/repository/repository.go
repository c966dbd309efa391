// Package repository 提供数据访问层
package repository

import (
	"context"
	"database/sql"
	"time"
)

// DB 数据库接口
type DB interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
}

// Scanner 行扫描接口
type Scanner interface {
	Scan(dest ...interface{}) error
}

// queryTimeout 单条语句的默认超时
const queryTimeout = 5 * time.Second

func withTimeout() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), queryTimeout)
}

// EnsureSchema 创建缺失的表
func EnsureSchema(ctx context.Context, db DB) error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS shifts (
			id UUID PRIMARY KEY,
			date VARCHAR(10) NOT NULL,
			start_time VARCHAR(5) NOT NULL,
			end_time VARCHAR(5) NOT NULL,
			assigned_to UUID,
			work_location VARCHAR(255) NOT NULL DEFAULT '',
			status VARCHAR(20) NOT NULL DEFAULT 'open'
		)`,
		`CREATE TABLE IF NOT EXISTS rule_overrides (
			id UUID NOT NULL,
			shift_id UUID NOT NULL,
			rule_id VARCHAR(64) NOT NULL,
			reason TEXT NOT NULL DEFAULT '',
			approver VARCHAR(255) NOT NULL,
			approver_role VARCHAR(64) NOT NULL DEFAULT '',
			created_by VARCHAR(255) NOT NULL DEFAULT '',
			created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
			is_active BOOLEAN NOT NULL DEFAULT TRUE,
			metadata JSONB,
			PRIMARY KEY (shift_id, rule_id)
		)`,
		`CREATE TABLE IF NOT EXISTS audit_entries (
			id UUID PRIMARY KEY,
			ts TIMESTAMPTZ NOT NULL,
			action VARCHAR(64) NOT NULL,
			actor VARCHAR(255) NOT NULL,
			role VARCHAR(64) NOT NULL DEFAULT '',
			details JSONB,
			count INTEGER NOT NULL DEFAULT 0
		)`,
		`CREATE INDEX IF NOT EXISTS idx_shifts_date ON shifts(date)`,
		`CREATE INDEX IF NOT EXISTS idx_audit_entries_ts ON audit_entries(ts DESC)`,
	}
	for _, stmt := range statements {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}
