package repository

import (
	"context"
	"database/sql"

	"github.com/google/uuid"
	"github.com/zhiban/zhiban/pkg/errors"
	"github.com/zhiban/zhiban/pkg/model"
)

// ShiftRepository 班次仓储
type ShiftRepository struct {
	db DB
}

// NewShiftRepository 创建班次仓储
func NewShiftRepository(db DB) *ShiftRepository {
	return &ShiftRepository{db: db}
}

// Save 写入或更新班次
func (r *ShiftRepository) Save(ctx context.Context, s *model.Shift) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO shifts (id, date, start_time, end_time, assigned_to, work_location, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (id) DO UPDATE SET
			date = EXCLUDED.date,
			start_time = EXCLUDED.start_time,
			end_time = EXCLUDED.end_time,
			assigned_to = EXCLUDED.assigned_to,
			work_location = EXCLUDED.work_location,
			status = EXCLUDED.status`,
		s.ID, s.Date, s.StartTime, s.EndTime, s.AssignedTo, s.WorkLocation, s.Status,
	)
	if err != nil {
		return errors.Wrap(err, errors.CodeDatabaseError, "班次写入失败")
	}
	return nil
}

// GetByID 按ID查询班次
func (r *ShiftRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Shift, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, date, start_time, end_time, assigned_to, work_location, status
		FROM shifts
		WHERE id = $1`,
		id,
	)
	s, err := scanShift(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, errors.NotFound("班次", id.String())
		}
		return nil, errors.Wrap(err, errors.CodeDatabaseError, "班次查询失败")
	}
	return s, nil
}

// ListByDateRange 按日期区间查询班次（闭区间）
func (r *ShiftRepository) ListByDateRange(ctx context.Context, startDate, endDate string) ([]*model.Shift, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, date, start_time, end_time, assigned_to, work_location, status
		FROM shifts
		WHERE date >= $1 AND date <= $2
		ORDER BY date, start_time`,
		startDate, endDate,
	)
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeDatabaseError, "班次列表查询失败")
	}
	defer rows.Close()

	result := make([]*model.Shift, 0)
	for rows.Next() {
		s, err := scanShift(rows)
		if err != nil {
			return nil, errors.Wrap(err, errors.CodeDatabaseError, "班次记录扫描失败")
		}
		result = append(result, s)
	}
	return result, rows.Err()
}

// Assign 把班次指派给某人并置为已分配状态
func (r *ShiftRepository) Assign(ctx context.Context, shiftID, personID uuid.UUID) error {
	result, err := r.db.ExecContext(ctx, `
		UPDATE shifts
		SET assigned_to = $2, status = $3
		WHERE id = $1 AND status = $4`,
		shiftID, personID, model.ShiftStatusAssigned, model.ShiftStatusOpen,
	)
	if err != nil {
		return errors.Wrap(err, errors.CodeDatabaseError, "班次指派失败")
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return errors.Wrap(err, errors.CodeDatabaseError, "班次指派失败")
	}
	if affected == 0 {
		return errors.NotFound("开放班次", shiftID.String())
	}
	return nil
}

// scanShift 扫描单条班次记录
func scanShift(s Scanner) (*model.Shift, error) {
	shift := &model.Shift{}
	var assignedTo sql.NullString
	err := s.Scan(&shift.ID, &shift.Date, &shift.StartTime, &shift.EndTime, &assignedTo, &shift.WorkLocation, &shift.Status)
	if err != nil {
		return nil, err
	}
	if assignedTo.Valid {
		id, err := uuid.Parse(assignedTo.String)
		if err != nil {
			return nil, err
		}
		shift.AssignedTo = &id
	}
	return shift, nil
}
