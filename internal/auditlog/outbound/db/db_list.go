package db

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5/pgtype"
	"github.com/shandysiswandi/medicore/internal/auditlog/entity"
)

const logWhere = ` WHERE ($1::BIGINT = 0 OR actor_id = $1)
	AND ($2::TEXT = '' OR action = $2)
	AND ($3::TEXT = '' OR outcome = $3)
	AND ($4::TIMESTAMPTZ IS NULL OR created_at >= $4)
	AND ($5::TIMESTAMPTZ IS NULL OR created_at <= $5)`

// ListLogs returns one page of logs, newest first, plus the total number of
// rows matching the filter.
func (s *DB) ListLogs(ctx context.Context, f entity.LogFilter) (_ []entity.Log, _ int64, err error) {
	ctx, span := s.startSpan(ctx, "ListLogs")
	defer func() { s.endSpan(span, err) }()

	dateFrom := pgtype.Timestamptz{Time: f.DateFrom, Valid: !f.DateFrom.IsZero()}
	dateTo := pgtype.Timestamptz{Time: f.DateTo, Valid: !f.DateTo.IsZero()}

	query := `SELECT id, actor_id, action, resource_type, resource_id, ip, user_agent, outcome, details, created_at
		FROM audit_logs` + logWhere + `
		ORDER BY created_at DESC, id DESC
		LIMIT $6 OFFSET $7`

	rows, err := s.conn.Query(ctx, query, f.ActorID, f.Action, f.Outcome, dateFrom, dateTo, f.Limit, f.Offset)
	if err != nil {
		return nil, 0, s.mapError(err)
	}
	defer rows.Close()

	logs := make([]entity.Log, 0, f.Limit)
	for rows.Next() {
		var (
			l          entity.Log
			resourceID pgtype.Text
			details    []byte
		)
		if err := rows.Scan(
			&l.ID,
			&l.ActorID,
			&l.Action,
			&l.ResourceType,
			&resourceID,
			&l.IP,
			&l.UserAgent,
			&l.Outcome,
			&details,
			&l.CreatedAt,
		); err != nil {
			return nil, 0, err
		}

		l.ResourceID = resourceID.String
		if len(details) > 0 {
			if err := json.Unmarshal(details, &l.Details); err != nil {
				return nil, 0, fmt.Errorf("audit log %d details: %w", l.ID, err)
			}
		}

		logs = append(logs, l)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}

	var total int64
	err = s.conn.QueryRow(ctx, "SELECT COUNT(*) FROM audit_logs"+logWhere,
		f.ActorID, f.Action, f.Outcome, dateFrom, dateTo).Scan(&total)
	if err != nil {
		return nil, 0, s.mapError(err)
	}

	return logs, total, nil
}
