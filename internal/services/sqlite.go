// internal/services/sqlite.go
package services

import (
	"agv-simulator/internal/interfaces"
	"agv-simulator/internal/models"
	"context"
	"database/sql"
	"time"
)

// sqliteTime 문자열 정렬이 시간순과 같도록 고정 폭 UTC
const sqliteTime = "2006-01-02T15:04:05.000000000Z"

// SQLiteDatabaseService 로컬 파일 이력 저장소
type SQLiteDatabaseService struct {
	db  *sql.DB
	now func() time.Time
}

func NewSQLiteDatabaseService(db *sql.DB) interfaces.DatabaseService {
	return &SQLiteDatabaseService{db: db, now: time.Now}
}

func (s *SQLiteDatabaseService) RecordOrder(ctx context.Context, r *models.OrderRecord) error {
	now := s.now()
	res, err := s.db.ExecContext(ctx, `INSERT INTO order_history
		(serial_number, order_id, order_update_id, status, last_node_id, error_count, action_count, completed_at, created_at)
		VALUES (?,?,?,?,?,?,?,?,?)`,
		r.SerialNumber, r.OrderID, r.OrderUpdateID, r.Status, r.LastNodeID, r.ErrorCount, r.ActionCount,
		formatTime(r.CompletedAt), formatTime(now))
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	r.ID = uint(id)
	r.CreatedAt, r.UpdatedAt = now, now
	return nil
}

func (s *SQLiteDatabaseService) RecordAction(ctx context.Context, r *models.ActionRecord) error {
	now := s.now()
	res, err := s.db.ExecContext(ctx, `INSERT INTO action_history
		(serial_number, order_id, action_id, action_type, status, result_description, completed_at, created_at)
		VALUES (?,?,?,?,?,?,?,?)`,
		r.SerialNumber, r.OrderID, r.ActionID, r.ActionType, r.Status, r.ResultDescription,
		formatTime(r.CompletedAt), formatTime(now))
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	r.ID = uint(id)
	r.CreatedAt, r.UpdatedAt = now, now
	return nil
}

func (s *SQLiteDatabaseService) RecentOrders(ctx context.Context, serialNumber string, limit int) ([]models.OrderRecord, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, serial_number, order_id, order_update_id, status, last_node_id,
		error_count, action_count, completed_at, created_at
		FROM order_history WHERE serial_number=? ORDER BY completed_at DESC, id DESC LIMIT ?`,
		serialNumber, clampLimit(limit))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.OrderRecord
	for rows.Next() {
		var r models.OrderRecord
		var completed, created string
		if err := rows.Scan(&r.ID, &r.SerialNumber, &r.OrderID, &r.OrderUpdateID, &r.Status, &r.LastNodeID,
			&r.ErrorCount, &r.ActionCount, &completed, &created); err != nil {
			return nil, err
		}
		r.CompletedAt = parseTime(completed)
		r.CreatedAt = parseTime(created)
		r.UpdatedAt = r.CreatedAt
		out = append(out, r)
	}
	return out, rows.Err()
}

func (s *SQLiteDatabaseService) RecentActions(ctx context.Context, serialNumber string, limit int) ([]models.ActionRecord, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, serial_number, order_id, action_id, action_type, status,
		result_description, completed_at, created_at
		FROM action_history WHERE serial_number=? ORDER BY completed_at DESC, id DESC LIMIT ?`,
		serialNumber, clampLimit(limit))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.ActionRecord
	for rows.Next() {
		var r models.ActionRecord
		var completed, created string
		if err := rows.Scan(&r.ID, &r.SerialNumber, &r.OrderID, &r.ActionID, &r.ActionType, &r.Status,
			&r.ResultDescription, &completed, &created); err != nil {
			return nil, err
		}
		r.CompletedAt = parseTime(completed)
		r.CreatedAt = parseTime(created)
		r.UpdatedAt = r.CreatedAt
		out = append(out, r)
	}
	return out, rows.Err()
}

func (s *SQLiteDatabaseService) Close() error {
	return s.db.Close()
}

func formatTime(t time.Time) string {
	return t.UTC().Format(sqliteTime)
}

func parseTime(s string) time.Time {
	t, _ := time.Parse(sqliteTime, s)
	return t
}
