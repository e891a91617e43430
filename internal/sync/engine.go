// Package sync reconciles the local transcription record store with the
// remote document collection used for cross-device history.
package sync

import (
	"context"
	stdsync "sync"
	"time"

	"github.com/voxnote/voxnote/backend/internal/cache"
	apperrors "github.com/voxnote/voxnote/backend/internal/errors"
	"github.com/voxnote/voxnote/backend/internal/logging"
	"github.com/voxnote/voxnote/backend/internal/models"
	"github.com/voxnote/voxnote/backend/internal/remote"
	"github.com/voxnote/voxnote/backend/internal/retry"
	"github.com/voxnote/voxnote/backend/internal/store"
)

// PullPageSize is the fixed page size when paging remote documents.
const PullPageSize = 100

// Session is the eligibility gate for all sync activity. Sync runs only
// when an owner is signed in, the user has enabled cloud sync, and the
// owner's plan is entitled to it.
type Session interface {
	OwnerID() string
	SyncEnabled() bool
	Entitled() bool
}

// Engine orchestrates push (local to remote) and pull (remote to local)
// reconciliation passes. When any eligibility precondition is missing,
// every operation degrades to a no-op, never an error.
type Engine struct {
	local   store.Store
	remote  remote.Store
	cache   *cache.Cache
	session Session
	retry   retry.Policy

	mu               stdsync.Mutex
	initialSyncOwner string // owner whose one-shot bidirectional sync has started
	lastSync         *time.Time
	lastErr          error
}

// NewEngine creates an Engine. cache may be nil when no UI view needs
// invalidation (e.g. headless tests).
func NewEngine(local store.Store, rem remote.Store, c *cache.Cache, session Session, policy retry.Policy) *Engine {
	return &Engine{
		local:   local,
		remote:  rem,
		cache:   c,
		session: session,
		retry:   policy,
	}
}

// Eligible reports whether sync preconditions currently hold.
func (e *Engine) Eligible() bool {
	_, ok := e.eligibleOwner()
	return ok
}

func (e *Engine) eligibleOwner() (string, bool) {
	owner := e.session.OwnerID()
	if owner == "" || !e.session.SyncEnabled() || !e.session.Entitled() {
		return "", false
	}
	return owner, true
}

// LastSync returns when the last successful pull completed.
func (e *Engine) LastSync() *time.Time {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.lastSync
}

// LastError returns the most recent sync failure, if any.
func (e *Engine) LastError() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.lastErr
}

func (e *Engine) recordOutcome(err error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.lastErr = err
	if err == nil {
		now := time.Now()
		e.lastSync = &now
	}
}

// PushRecord upserts a single record into the remote collection, keyed on
// (owner, local id) so a repeated push updates rather than duplicates. On
// success the local record is marked synced. A no-op when ineligible.
func (e *Engine) PushRecord(ctx context.Context, rec *models.TranscriptionRecord) error {
	owner, ok := e.eligibleOwner()
	if !ok {
		return nil
	}

	existing, err := retry.Do(ctx, e.retry, func(ctx context.Context) (*models.RemoteDocument, error) {
		return e.remote.FindByOwnerAndLocalID(ctx, owner, string(rec.ID))
	})
	if err != nil {
		return apperrors.Wrap(apperrors.ErrPushFailed, "remote lookup failed", err)
	}

	input := models.InputFromRecord(rec, owner)
	if existing != nil {
		_, err = retry.Do(ctx, e.retry, func(ctx context.Context) (*models.RemoteDocument, error) {
			return e.remote.Update(ctx, existing.ID, input)
		})
	} else {
		_, err = retry.Do(ctx, e.retry, func(ctx context.Context) (*models.RemoteDocument, error) {
			return e.remote.Create(ctx, input)
		})
	}
	if err != nil {
		// The record stays synced=false and is retried on the next pass.
		return apperrors.Wrap(apperrors.ErrPushFailed, "remote upsert failed", err)
	}

	if err := e.local.MarkSynced(ctx, string(rec.ID)); err != nil {
		return err
	}
	rec.Synced = true
	return nil
}

// PushAll pushes every unsynced local record, sequentially. A failure on
// one record is logged and does not abort the batch. Returns the number
// of records pushed. A no-op when ineligible.
func (e *Engine) PushAll(ctx context.Context) (int, error) {
	if _, ok := e.eligibleOwner(); !ok {
		return 0, nil
	}

	records, err := e.local.ListAll(ctx)
	if err != nil {
		return 0, err
	}

	pushed := 0
	for _, rec := range records {
		if rec.Synced {
			continue
		}
		if err := ctx.Err(); err != nil {
			return pushed, err
		}
		if err := e.PushRecord(ctx, rec); err != nil {
			logging.ErrorWithCode("push failed, continuing batch",
				string(apperrors.ErrPushFailed), err,
				logging.Fields{"record_id": rec.ID})
			continue
		}
		pushed++
	}
	return pushed, nil
}

// Pull imports remote documents that have no local counterpart. A
// document is skipped when a local record already exists with its target
// id or with an exact timestamp match (records created before local-id
// linkage existed). Imported records are marked synced. Returns the
// number of records imported. A no-op when ineligible.
func (e *Engine) Pull(ctx context.Context) (int, error) {
	owner, ok := e.eligibleOwner()
	if !ok {
		return 0, nil
	}

	locals, err := e.local.ListAll(ctx)
	if err != nil {
		return 0, err
	}

	byID := make(map[string]struct{}, len(locals))
	byTimestamp := make(map[int64]struct{}, len(locals))
	for _, rec := range locals {
		byID[string(rec.ID)] = struct{}{}
		byTimestamp[rec.Timestamp] = struct{}{}
	}

	imported := 0
	for offset := 0; ; offset += PullPageSize {
		docs, err := retry.Do(ctx, e.retry, func(ctx context.Context) ([]*models.RemoteDocument, error) {
			return e.remote.ListByOwner(ctx, owner, PullPageSize, offset)
		})
		if err != nil {
			e.recordOutcome(err)
			return imported, apperrors.Wrap(apperrors.ErrPullFailed, "remote page fetch failed", err)
		}

		for _, doc := range docs {
			if doc.Malformed() {
				logging.Debug("skipping malformed remote document",
					logging.Fields{"remote_id": doc.ID})
				continue
			}

			targetID := doc.TargetLocalID()
			if _, exists := byID[targetID]; exists {
				continue
			}
			if _, exists := byTimestamp[doc.Timestamp]; exists {
				continue
			}

			rec := doc.ToRecord()
			inserted, err := e.local.ImportIfAbsent(ctx, rec)
			if err != nil {
				logging.ErrorWithCode("import failed, continuing pull",
					string(apperrors.ErrPullFailed), err,
					logging.Fields{"record_id": targetID})
				continue
			}
			if inserted {
				imported++
			}
			byID[targetID] = struct{}{}
			byTimestamp[doc.Timestamp] = struct{}{}
		}

		// A short page signals the end of the collection.
		if len(docs) < PullPageSize {
			break
		}
	}

	e.recordOutcome(nil)

	if imported > 0 && e.cache != nil {
		if err := e.cache.Invalidate(ctx); err != nil {
			logging.Error("cache invalidation after pull failed", err, nil)
		}
	}
	return imported, nil
}

// InitialSync runs the one-shot bidirectional pass (pull, then push-all)
// for the current owner. The started marker is set before any async work,
// so a second concurrent trigger cannot double-start it; it re-arms when
// a different owner signs in.
func (e *Engine) InitialSync(ctx context.Context) error {
	owner, ok := e.eligibleOwner()
	if !ok {
		return nil
	}

	e.mu.Lock()
	if e.initialSyncOwner == owner {
		e.mu.Unlock()
		return nil
	}
	e.initialSyncOwner = owner
	e.mu.Unlock()

	imported, err := e.Pull(ctx)
	if err != nil {
		return err
	}
	pushed, err := e.PushAll(ctx)
	if err != nil {
		return err
	}

	logging.Info("initial sync completed", logging.Fields{
		"owner":    owner,
		"imported": imported,
		"pushed":   pushed,
	})
	return nil
}

// DeleteRecord removes a record locally and, when eligible, soft-deletes
// its remote counterpart. The local delete is a user-initiated command
// and propagates failure; the remote mirror is best-effort, and a missing
// counterpart is not an error (the record may never have synced).
func (e *Engine) DeleteRecord(ctx context.Context, id string) error {
	if err := e.local.Delete(ctx, id); err != nil {
		return err
	}

	if e.cache != nil {
		if err := e.cache.Invalidate(ctx); err != nil {
			logging.Error("cache invalidation after delete failed", err,
				logging.Fields{"record_id": id})
		}
	}

	owner, ok := e.eligibleOwner()
	if !ok {
		return nil
	}

	doc, err := retry.Do(ctx, e.retry, func(ctx context.Context) (*models.RemoteDocument, error) {
		return e.remote.FindByOwnerAndLocalID(ctx, owner, id)
	})
	if err != nil {
		logging.ErrorWithCode("remote lookup for delete failed",
			string(apperrors.ErrSyncFailed), err,
			logging.Fields{"record_id": id})
		return nil
	}
	if doc == nil {
		return nil
	}

	if err := retry.Void(ctx, e.retry, func(ctx context.Context) error {
		return e.remote.SoftDelete(ctx, doc.ID)
	}); err != nil {
		logging.ErrorWithCode("remote soft delete failed",
			string(apperrors.ErrSyncFailed), err,
			logging.Fields{"record_id": id, "remote_id": doc.ID})
	}
	return nil
}

// DeleteAllRecords wipes the local store and reloads the cache. The
// remote collection is left untouched; a later pull re-imports it.
func (e *Engine) DeleteAllRecords(ctx context.Context) error {
	if err := e.local.DeleteAll(ctx); err != nil {
		return err
	}
	if e.cache != nil {
		if err := e.cache.Invalidate(ctx); err != nil {
			logging.Error("cache invalidation after delete all failed", err, nil)
		}
	}
	return nil
}

// RetryRecord resets a failed record for re-transcription and reloads the
// cache. User-initiated: failures propagate.
func (e *Engine) RetryRecord(ctx context.Context, id string) error {
	if err := e.local.Retry(ctx, id); err != nil {
		return err
	}
	if e.cache != nil {
		if err := e.cache.Invalidate(ctx); err != nil {
			logging.Error("cache invalidation after retry failed", err,
				logging.Fields{"record_id": id})
		}
	}
	return nil
}
