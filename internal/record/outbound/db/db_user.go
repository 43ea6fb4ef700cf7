package db

import (
	"context"

	"github.com/shandysiswandi/medicore/internal/record/entity"
)

// GetParty returns the id and role of a user.
func (s *DB) GetParty(ctx context.Context, id int64) (_ *entity.Party, err error) {
	ctx, span := s.startSpan(ctx, "GetParty")
	defer func() { s.endSpan(span, err) }()

	var p entity.Party
	if err := s.conn.QueryRow(ctx, "SELECT id, role FROM users WHERE id = $1", id).Scan(&p.ID, &p.Role); err != nil {
		return nil, s.mapError(err)
	}

	return &p, nil
}
