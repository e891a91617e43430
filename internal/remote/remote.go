// Package remote provides access to the cloud document collection used
// for cross-device transcription history.
package remote

import (
	"context"

	"github.com/voxnote/voxnote/backend/internal/models"
)

// Store defines the query interface over the remote document collection.
// Implementations return (nil, nil) from FindByOwnerAndLocalID when no
// matching document exists; absence is not an error.
type Store interface {
	// ListByOwner returns up to limit non-deleted documents belonging to
	// ownerID, starting at offset, oldest first. A short page signals the
	// end of the collection.
	ListByOwner(ctx context.Context, ownerID string, limit, offset int) ([]*models.RemoteDocument, error)

	// FindByOwnerAndLocalID returns the single non-deleted document for
	// the (ownerID, localID) pair, or nil when none exists.
	FindByOwnerAndLocalID(ctx context.Context, ownerID, localID string) (*models.RemoteDocument, error)

	// Create inserts a new document and returns it with its remote id.
	Create(ctx context.Context, input *models.RemoteDocumentInput) (*models.RemoteDocument, error)

	// Update replaces the content of the document with the given remote id.
	Update(ctx context.Context, id string, input *models.RemoteDocumentInput) (*models.RemoteDocument, error)

	// SoftDelete marks the document deleted. Deleted documents are
	// excluded from listings but remain addressable for idempotent updates.
	SoftDelete(ctx context.Context, id string) error
}
