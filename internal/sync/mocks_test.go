package sync

import (
	"context"
	"fmt"
	stdsync "sync"

	apperrors "github.com/voxnote/voxnote/backend/internal/errors"
	"github.com/voxnote/voxnote/backend/internal/models"
)

// mockLocalStore is an in-memory store.Store implementation.
type mockLocalStore struct {
	mu      stdsync.Mutex
	records map[string]*models.TranscriptionRecord
	order   []string // insertion order, newest-first semantics not needed here

	listErr    error
	deleteErr  error
	importErr  error
	markErr    error
	markCalls  []string
	importArgs []*models.TranscriptionRecord
}

func newMockLocalStore(records ...*models.TranscriptionRecord) *mockLocalStore {
	m := &mockLocalStore{records: make(map[string]*models.TranscriptionRecord)}
	for _, rec := range records {
		clone := *rec
		m.records[string(rec.ID)] = &clone
		m.order = append(m.order, string(rec.ID))
	}
	return m
}

func (m *mockLocalStore) ListPage(ctx context.Context, limit, offset int, searchQuery string) ([]*models.TranscriptionRecord, error) {
	all, err := m.ListAll(ctx)
	if err != nil {
		return nil, err
	}
	if offset >= len(all) {
		return nil, nil
	}
	end := offset + limit
	if end > len(all) {
		end = len(all)
	}
	return all[offset:end], nil
}

func (m *mockLocalStore) Count(ctx context.Context, searchQuery string) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.records), nil
}

func (m *mockLocalStore) ListAll(ctx context.Context) ([]*models.TranscriptionRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.listErr != nil {
		return nil, m.listErr
	}
	out := make([]*models.TranscriptionRecord, 0, len(m.order))
	for _, id := range m.order {
		out = append(out, m.records[id])
	}
	return out, nil
}

func (m *mockLocalStore) Get(ctx context.Context, id string) (*models.TranscriptionRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	rec, ok := m.records[id]
	if !ok {
		return nil, apperrors.New(apperrors.ErrNotFound, fmt.Sprintf("record %s not found", id))
	}
	return rec, nil
}

func (m *mockLocalStore) Delete(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.deleteErr != nil {
		return m.deleteErr
	}
	if _, ok := m.records[id]; !ok {
		return apperrors.New(apperrors.ErrNotFound, fmt.Sprintf("record %s not found", id))
	}
	delete(m.records, id)
	for i, existing := range m.order {
		if existing == id {
			m.order = append(m.order[:i], m.order[i+1:]...)
			break
		}
	}
	return nil
}

func (m *mockLocalStore) DeleteAll(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.records = make(map[string]*models.TranscriptionRecord)
	m.order = nil
	return nil
}

func (m *mockLocalStore) MarkSynced(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.markCalls = append(m.markCalls, id)
	if m.markErr != nil {
		return m.markErr
	}
	rec, ok := m.records[id]
	if !ok {
		return apperrors.New(apperrors.ErrNotFound, fmt.Sprintf("record %s not found", id))
	}
	rec.Synced = true
	return nil
}

func (m *mockLocalStore) ImportIfAbsent(ctx context.Context, rec *models.TranscriptionRecord) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.importArgs = append(m.importArgs, rec)
	if m.importErr != nil {
		return false, m.importErr
	}
	if _, ok := m.records[string(rec.ID)]; ok {
		return false, nil
	}
	clone := *rec
	m.records[string(rec.ID)] = &clone
	m.order = append(m.order, string(rec.ID))
	return true, nil
}

func (m *mockLocalStore) Retry(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	rec, ok := m.records[id]
	if !ok || rec.Status != models.StatusError {
		return apperrors.New(apperrors.ErrNotFound, fmt.Sprintf("failed record %s not found", id))
	}
	rec.ErrorMessage = ""
	rec.Synced = false
	return nil
}

func (m *mockLocalStore) get(id string) *models.TranscriptionRecord {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.records[id]
}

func (m *mockLocalStore) size() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.records)
}

// mockRemoteStore is an in-memory remote.Store implementation.
type mockRemoteStore struct {
	mu     stdsync.Mutex
	nextID int
	docs   map[string]*models.RemoteDocument // remote id → document

	findErr error
	// createErrTimes fails the next N create calls, then recovers.
	createErrTimes int
	updateErr      error
	listErr        error
	listErrOnce    bool
	createCalls    int
	updateCalls    int
	listCalls      int
}

func newMockRemoteStore(docs ...*models.RemoteDocument) *mockRemoteStore {
	m := &mockRemoteStore{docs: make(map[string]*models.RemoteDocument)}
	for _, doc := range docs {
		clone := *doc
		m.docs[doc.ID] = &clone
	}
	return m
}

func (m *mockRemoteStore) ListByOwner(ctx context.Context, ownerID string, limit, offset int) ([]*models.RemoteDocument, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.listCalls++
	if m.listErr != nil {
		err := m.listErr
		if m.listErrOnce {
			m.listErr = nil
		}
		return nil, err
	}

	var owned []*models.RemoteDocument
	for _, doc := range m.docs {
		if doc.OwnerID == ownerID && !doc.IsDeleted {
			owned = append(owned, doc)
		}
	}
	// Stable oldest-first ordering, matching the remote contract.
	for i := 0; i < len(owned); i++ {
		for j := i + 1; j < len(owned); j++ {
			if owned[j].Timestamp < owned[i].Timestamp {
				owned[i], owned[j] = owned[j], owned[i]
			}
		}
	}

	if offset >= len(owned) {
		return nil, nil
	}
	end := offset + limit
	if end > len(owned) {
		end = len(owned)
	}
	return owned[offset:end], nil
}

func (m *mockRemoteStore) FindByOwnerAndLocalID(ctx context.Context, ownerID, localID string) (*models.RemoteDocument, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.findErr != nil {
		return nil, m.findErr
	}
	for _, doc := range m.docs {
		if doc.OwnerID == ownerID && doc.LocalID == localID && !doc.IsDeleted {
			return doc, nil
		}
	}
	return nil, nil
}

func (m *mockRemoteStore) Create(ctx context.Context, input *models.RemoteDocumentInput) (*models.RemoteDocument, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.createCalls++
	if m.createErrTimes > 0 {
		m.createErrTimes--
		return nil, fmt.Errorf("simulated create failure")
	}
	m.nextID++
	doc := docFromInput(fmt.Sprintf("remote-%03d", m.nextID), input)
	m.docs[doc.ID] = doc
	return doc, nil
}

func (m *mockRemoteStore) Update(ctx context.Context, id string, input *models.RemoteDocumentInput) (*models.RemoteDocument, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.updateCalls++
	if m.updateErr != nil {
		return nil, m.updateErr
	}
	if _, ok := m.docs[id]; !ok {
		return nil, apperrors.New(apperrors.ErrRemoteNotFound, fmt.Sprintf("document %s not found", id))
	}
	doc := docFromInput(id, input)
	m.docs[id] = doc
	return doc, nil
}

func (m *mockRemoteStore) SoftDelete(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	doc, ok := m.docs[id]
	if !ok {
		return apperrors.New(apperrors.ErrRemoteNotFound, fmt.Sprintf("document %s not found", id))
	}
	doc.IsDeleted = true
	return nil
}

func (m *mockRemoteStore) docsByLocalID(localID string) []*models.RemoteDocument {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*models.RemoteDocument
	for _, doc := range m.docs {
		if doc.LocalID == localID {
			out = append(out, doc)
		}
	}
	return out
}

func docFromInput(id string, input *models.RemoteDocumentInput) *models.RemoteDocument {
	return &models.RemoteDocument{
		ID:           id,
		LocalID:      input.LocalID,
		OwnerID:      input.OwnerID,
		IsDeleted:    input.IsDeleted,
		Timestamp:    input.Timestamp,
		Text:         input.Text,
		RawText:      input.RawText,
		Status:       input.Status,
		ErrorMessage: input.ErrorMessage,
		SpeechModel:  input.SpeechModel,
		LLMModel:     input.LLMModel,
		WordCount:    input.WordCount,
		AudioSeconds: input.AudioSeconds,
	}
}

// fakeSession is a canned eligibility gate.
type fakeSession struct {
	owner       string
	entitled    bool
	syncEnabled bool
}

func (s *fakeSession) OwnerID() string   { return s.owner }
func (s *fakeSession) SyncEnabled() bool { return s.syncEnabled }
func (s *fakeSession) Entitled() bool    { return s.entitled }

func eligibleSession() *fakeSession {
	return &fakeSession{owner: "user-1", entitled: true, syncEnabled: true}
}
