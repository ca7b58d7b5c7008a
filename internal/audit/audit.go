// Package audit appends a Log row for every catalog change.
package audit

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/NickLinnik/LocalLibrary/internal/domain"
)

// Writer persists audit rows. The sqlite store implements it; when ctx
// carries a transaction the row joins it.
type Writer interface {
	CreateLog(ctx context.Context, l *domain.Log) error
}

// Recorder writes audit rows.
type Recorder struct {
	w      Writer
	logger *slog.Logger
}

// NewRecorder creates a Recorder.
func NewRecorder(w Writer, logger *slog.Logger) *Recorder {
	if logger == nil {
		logger = slog.Default()
	}
	return &Recorder{w: w, logger: logger}
}

// Record appends one Log row naming the model, the acting user and the
// operation. A failed write is returned so the caller's transaction rolls back.
func (r *Recorder) Record(ctx context.Context, kind domain.Kind, actorID string, op domain.Operation, at time.Time) error {
	entry := &domain.Log{
		Model:     kind,
		UserID:    actorID,
		Date:      at,
		Operation: op,
	}
	if err := r.w.CreateLog(ctx, entry); err != nil {
		return fmt.Errorf("record %s %s: %w", op, kind, err)
	}
	r.logger.Debug("audit recorded", "model", kind, "operation", op, "user_id", actorID)
	return nil
}
