// Package audit is the append-only audit trail contract shared by modules.
//
// Writes that must be atomic with a business change go through Insert inside
// the caller's transaction. Everything else goes through Recorder, which
// writes in the background and only logs failures.
package audit

import (
	"context"
	"encoding/json"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
)

// Outcome of the audited action.
type Outcome string

const (
	OutcomeSuccess      Outcome = "success"
	OutcomeFailure      Outcome = "failure"
	OutcomeUnauthorized Outcome = "unauthorized"
)

// Actions.
const (
	ActionCreate               = "create"
	ActionRead                 = "read"
	ActionLogin                = "login"
	ActionLogin2FA             = "login_2fa"
	ActionLogout               = "logout"
	ActionTokenRefresh         = "token_refresh"
	ActionTwoFactorEnable      = "2fa_enable"
	ActionTwoFactorDisable     = "2fa_disable"
	ActionPasswordResetRequest = "password_reset_request"
	ActionPasswordReset        = "password_reset"
)

// Resource types.
const (
	ResourceUser         = "user"
	ResourceRecord       = "medical_record"
	ResourceConsultation = "consultation"
)

// Origin is where a request came from.
type Origin struct {
	IP        string
	UserAgent string
}

// Entry is one row of audit_logs.
type Entry struct {
	ID           int64
	ActorID      *int64
	Action       string
	ResourceType string
	ResourceID   string
	Origin       Origin
	Outcome      Outcome
	Details      map[string]any
	CreatedAt    time.Time
}

// Execer is satisfied by *pgxpool.Pool and pgx.Tx.
type Execer interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
}

const insertSQL = `INSERT INTO audit_logs
	(id, actor_id, action, resource_type, resource_id, ip, user_agent, outcome, details, created_at)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`

// Insert writes e using db.
func Insert(ctx context.Context, db Execer, e Entry) error {
	var details []byte
	if len(e.Details) > 0 {
		b, err := json.Marshal(e.Details)
		if err != nil {
			return err
		}
		details = b
	}

	_, err := db.Exec(ctx, insertSQL,
		e.ID,
		e.ActorID,
		e.Action,
		e.ResourceType,
		pgtype.Text{String: e.ResourceID, Valid: e.ResourceID != ""},
		e.Origin.IP,
		e.Origin.UserAgent,
		string(e.Outcome),
		details,
		e.CreatedAt,
	)
	return err
}

// Actor returns a pointer to id, or nil when id is zero.
func Actor(id int64) *int64 {
	if id == 0 {
		return nil
	}
	return &id
}
