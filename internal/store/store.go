// Package store provides access to the on-device transcription record
// collection.
package store

import (
	"context"

	"github.com/voxnote/voxnote/backend/internal/models"
)

// Pager is the read subset the paginated cache consumes.
type Pager interface {
	// ListPage returns up to limit records starting at offset, newest
	// first, filtered by searchQuery when non-empty.
	ListPage(ctx context.Context, limit, offset int, searchQuery string) ([]*models.TranscriptionRecord, error)

	// Count returns the number of records matching searchQuery.
	Count(ctx context.Context, searchQuery string) (int, error)
}

// Store defines the full command interface over the local record
// collection. Content fields are written by the transcription pipeline;
// this interface only reads them and manages sync bookkeeping.
type Store interface {
	Pager

	// ListAll returns the complete unfiltered record set, newest first.
	ListAll(ctx context.Context) ([]*models.TranscriptionRecord, error)

	// Get returns the record with the given id.
	Get(ctx context.Context, id string) (*models.TranscriptionRecord, error)

	// Delete removes the record with the given id.
	Delete(ctx context.Context, id string) error

	// DeleteAll removes every record.
	DeleteAll(ctx context.Context) error

	// MarkSynced flips the record's synced flag to true.
	MarkSynced(ctx context.Context, id string) error

	// ImportIfAbsent inserts the record unless one with the same id
	// already exists. Reports whether a row was inserted.
	ImportIfAbsent(ctx context.Context, rec *models.TranscriptionRecord) (bool, error)

	// Retry resets a failed record for re-transcription by the pipeline
	// and clears its synced flag.
	Retry(ctx context.Context, id string) error
}
