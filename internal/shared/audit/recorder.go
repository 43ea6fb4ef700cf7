package audit

import (
	"context"
	"log/slog"

	"github.com/shandysiswandi/medicore/internal/pkg/clock"
	"github.com/shandysiswandi/medicore/internal/pkg/uid"
)

type detacher interface {
	Detached(ctx context.Context, name string, f func(ctx context.Context) error)
}

// Recorder writes entries in the background. A failed write is logged and
// dropped; it never fails the request that produced it.
type Recorder struct {
	db    Execer
	gm    detacher
	uid   uid.NumberID
	clock clock.Clocker
}

// NewRecorder builds a Recorder.
func NewRecorder(db Execer, gm detacher, id uid.NumberID, clk clock.Clocker) *Recorder {
	return &Recorder{db: db, gm: gm, uid: id, clock: clk}
}

// Stamp fills ID and CreatedAt when they are unset.
func (r *Recorder) Stamp(e Entry) Entry {
	if e.ID == 0 {
		e.ID = r.uid.Generate()
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = r.clock.Now()
	}
	return e
}

// Record schedules e to be written.
func (r *Recorder) Record(ctx context.Context, e Entry) {
	e = r.Stamp(e)
	r.gm.Detached(ctx, "audit."+e.Action, func(ctx context.Context) error {
		if err := Insert(ctx, r.db, e); err != nil {
			slog.ErrorContext(ctx, "failed to write audit entry",
				"action", e.Action,
				"resource_type", e.ResourceType,
				"outcome", e.Outcome,
				"error", err,
			)
		}
		return nil
	})
}
