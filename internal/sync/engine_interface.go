package sync

import (
	"context"

	"github.com/voxnote/voxnote/backend/internal/models"
)

// Reconciler is the engine surface the refresh coordinator depends on.
// It allows mocking in tests and alternative implementations.
type Reconciler interface {
	// Eligible reports whether sync preconditions currently hold.
	Eligible() bool

	// PushRecord pushes a single record to the remote collection.
	PushRecord(ctx context.Context, rec *models.TranscriptionRecord) error

	// PushAll pushes every unsynced local record.
	PushAll(ctx context.Context) (int, error)

	// Pull imports remote documents lacking a local counterpart.
	Pull(ctx context.Context) (int, error)

	// InitialSync runs the one-shot bidirectional pass for the current
	// owner, at most once per owner.
	InitialSync(ctx context.Context) error
}

var _ Reconciler = (*Engine)(nil)
