package remote

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/supabase-community/postgrest-go"

	apperrors "github.com/voxnote/voxnote/backend/internal/errors"
	"github.com/voxnote/voxnote/backend/internal/models"
)

// DefaultTable is the remote collection holding transcription documents.
const DefaultTable = "transcriptions"

// PostgrestStore is a Store backed by a PostgREST endpoint.
type PostgrestStore struct {
	client *postgrest.Client
	table  string
}

var _ Store = (*PostgrestStore)(nil)

// NewPostgrestStore creates a Store against the given PostgREST endpoint.
// apiKey is sent as both the apikey header and a bearer token.
func NewPostgrestStore(rawURL, apiKey, table string) *PostgrestStore {
	if table == "" {
		table = DefaultTable
	}
	headers := map[string]string{
		"apikey":        apiKey,
		"Authorization": "Bearer " + apiKey,
	}
	return &PostgrestStore{
		client: postgrest.NewClient(rawURL, "", headers),
		table:  table,
	}
}

// ListByOwner returns up to limit non-deleted documents for ownerID
// starting at offset, oldest first.
func (s *PostgrestStore) ListByOwner(ctx context.Context, ownerID string, limit, offset int) ([]*models.RemoteDocument, error) {
	if limit <= 0 {
		return nil, apperrors.New(apperrors.ErrInvalid, "limit must be positive")
	}

	body, _, err := s.client.From(s.table).
		Select("*", "", false).
		Eq("user_id", ownerID).
		Eq("is_deleted", "false").
		Order("timestamp", &postgrest.OrderOpts{Ascending: true}).
		Range(offset, offset+limit-1, "").
		ExecuteWithContext(ctx)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrRemote, "list by owner failed", err)
	}

	return decodeDocuments(body)
}

// FindByOwnerAndLocalID returns the non-deleted document for the
// (ownerID, localID) pair, or nil when none exists.
func (s *PostgrestStore) FindByOwnerAndLocalID(ctx context.Context, ownerID, localID string) (*models.RemoteDocument, error) {
	body, _, err := s.client.From(s.table).
		Select("*", "", false).
		Eq("user_id", ownerID).
		Eq("local_id", localID).
		Eq("is_deleted", "false").
		Limit(1, "").
		ExecuteWithContext(ctx)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrRemote, "find by local id failed", err)
	}

	docs, err := decodeDocuments(body)
	if err != nil {
		return nil, err
	}
	if len(docs) == 0 {
		return nil, nil
	}
	return docs[0], nil
}

// Create inserts a new document and returns the stored representation.
func (s *PostgrestStore) Create(ctx context.Context, input *models.RemoteDocumentInput) (*models.RemoteDocument, error) {
	body, _, err := s.client.From(s.table).
		Insert(input, false, "", "representation", "").
		ExecuteWithContext(ctx)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrRemote, "create failed", err)
	}

	return decodeSingle(body)
}

// Update replaces the content of the document with the given remote id.
func (s *PostgrestStore) Update(ctx context.Context, id string, input *models.RemoteDocumentInput) (*models.RemoteDocument, error) {
	body, _, err := s.client.From(s.table).
		Update(input, "representation", "").
		Eq("id", id).
		ExecuteWithContext(ctx)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrRemote, "update failed", err)
	}

	return decodeSingle(body)
}

// SoftDelete marks the document deleted without removing it.
func (s *PostgrestStore) SoftDelete(ctx context.Context, id string) error {
	_, _, err := s.client.From(s.table).
		Update(map[string]interface{}{"is_deleted": true}, "", "").
		Eq("id", id).
		ExecuteWithContext(ctx)
	if err != nil {
		return apperrors.Wrap(apperrors.ErrRemote, "soft delete failed", err)
	}
	return nil
}

func decodeDocuments(body []byte) ([]*models.RemoteDocument, error) {
	var docs []*models.RemoteDocument
	if err := json.Unmarshal(body, &docs); err != nil {
		return nil, apperrors.Wrap(apperrors.ErrRemoteDecode,
			fmt.Sprintf("could not decode document list: %s", truncate(body)), err)
	}
	return docs, nil
}

func decodeSingle(body []byte) (*models.RemoteDocument, error) {
	docs, err := decodeDocuments(body)
	if err != nil {
		return nil, err
	}
	if len(docs) == 0 {
		return nil, apperrors.New(apperrors.ErrRemoteNotFound, "remote returned no representation")
	}
	return docs[0], nil
}

func truncate(body []byte) string {
	const max = 200
	if len(body) > max {
		return string(body[:max]) + "..."
	}
	return string(body)
}
