// Package coordinator turns heterogeneous external triggers (domain
// events, focus/visibility resumption, preference changes, interval
// timers) into a bounded number of cache-reload and reconciliation
// passes.
package coordinator

import (
	"context"
	"fmt"
	stdsync "sync"
	"time"

	"github.com/voxnote/voxnote/backend/internal/bus"
	"github.com/voxnote/voxnote/backend/internal/cache"
	apperrors "github.com/voxnote/voxnote/backend/internal/errors"
	"github.com/voxnote/voxnote/backend/internal/logging"
	"github.com/voxnote/voxnote/backend/internal/models"
	syncpkg "github.com/voxnote/voxnote/backend/internal/sync"
)

// State is the coordinator lifecycle state. Terminal state is Disposed;
// re-entry requires a fresh coordinator instance.
type State int

const (
	StateIdle State = iota
	StateSubscribing
	StateActive
	StateDisposing
	StateDisposed
)

// String returns a human-readable representation of the state.
func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateSubscribing:
		return "subscribing"
	case StateActive:
		return "active"
	case StateDisposing:
		return "disposing"
	case StateDisposed:
		return "disposed"
	default:
		return "unknown"
	}
}

// RecordGetter fetches a single local record, used to push a newly
// completed transcription individually.
type RecordGetter interface {
	Get(ctx context.Context, id string) (*models.TranscriptionRecord, error)
}

// CredentialRefresher rotates short-lived credentials. It must not
// trigger any sync work of its own.
type CredentialRefresher interface {
	RefreshCredentials(ctx context.Context) error
}

// FlagSource reads the persisted cloud-sync-enabled preference.
type FlagSource interface {
	CloudSyncEnabled() bool
}

// FlagSink receives cloud-sync-enabled updates.
type FlagSink interface {
	SetSyncEnabled(enabled bool)
}

// Config holds the coordinator's collaborators and tuning.
type Config struct {
	Cache     *cache.Cache
	Engine    syncpkg.Reconciler
	Records   RecordGetter
	Bus       bus.Bus
	Flags     FlagSource
	FlagSink  FlagSink
	Refresher CredentialRefresher

	// CredentialInterval is the credential-rotation timer period
	// (default 10 minutes). The timer never triggers a full sync.
	CredentialInterval time.Duration
}

// Coordinator subscribes to record-affecting triggers and drives cache
// reloads and reconciliation passes, suppressing overlapping work. Any
// trigger arriving while disposing or disposed is ignored.
type Coordinator struct {
	cfg Config

	mu    stdsync.Mutex
	state State
	subs  []bus.Subscription

	ctx    context.Context
	cancel context.CancelFunc
	done   chan struct{}
	wg     stdsync.WaitGroup
}

// New creates an idle coordinator.
func New(cfg Config) *Coordinator {
	if cfg.CredentialInterval <= 0 {
		cfg.CredentialInterval = 10 * time.Minute
	}
	return &Coordinator{cfg: cfg, state: StateIdle, done: make(chan struct{})}
}

// State returns the current lifecycle state.
func (c *Coordinator) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Start subscribes to the event bus topics and starts the credential
// timer. Subscription setup is asynchronous: a subscribe call that
// resolves after Stop has begun is unsubscribed immediately instead of
// registering a live handler.
func (c *Coordinator) Start(ctx context.Context) error {
	c.mu.Lock()
	if c.state != StateIdle {
		state := c.state
		c.mu.Unlock()
		return apperrors.New(apperrors.ErrInvalid,
			fmt.Sprintf("coordinator cannot start from state %s", state))
	}
	c.state = StateSubscribing
	c.ctx, c.cancel = context.WithCancel(ctx)
	c.mu.Unlock()

	topics := map[string]bus.Handler{
		bus.TopicTranscriptionComplete: func(e bus.Event) { c.onRecordComplete(e.RecordID) },
		bus.TopicTranscriptionError:    func(e bus.Event) { c.onRecordError() },
		bus.TopicAuthChanged:           func(e bus.Event) { c.onAuthChanged() },
	}

	var setup stdsync.WaitGroup
	for topic, handler := range topics {
		setup.Add(1)
		c.wg.Add(1)
		go func(topic string, handler bus.Handler) {
			defer setup.Done()
			defer c.wg.Done()
			c.subscribe(topic, handler)
		}(topic, handler)
	}

	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		setup.Wait()

		c.mu.Lock()
		if c.state != StateSubscribing {
			c.mu.Unlock()
			return
		}
		c.state = StateActive
		c.mu.Unlock()

		// A session restored before Start (e.g. the daemon reloading a
		// persisted identity) is already eligible and gets no auth or
		// flag trigger; give the one-shot sync its first opportunity here.
		c.maybeInitialSync()
	}()

	c.wg.Add(1)
	go c.credentialLoop()

	return nil
}

// subscribe registers a handler, guarding against the setup-after-
// teardown race: if the coordinator was disposed while the subscribe
// call was in flight, the fresh subscription is torn down immediately.
func (c *Coordinator) subscribe(topic string, handler bus.Handler) {
	sub, err := c.cfg.Bus.Subscribe(c.ctx, topic, handler)
	if err != nil {
		logging.ErrorWithCode("event subscription failed",
			string(apperrors.ErrSubscribeFailed), err,
			logging.Fields{"topic": topic})
		return
	}

	c.mu.Lock()
	if c.state == StateDisposing || c.state == StateDisposed {
		c.mu.Unlock()
		sub.Unsubscribe()
		return
	}
	c.subs = append(c.subs, sub)
	c.mu.Unlock()
}

// Stop tears the coordinator down. All subscriptions are removed, the
// credential timer stops, and in-flight background work is awaited. The
// coordinator ends Disposed and cannot be restarted.
func (c *Coordinator) Stop() {
	c.mu.Lock()
	if c.state == StateDisposing || c.state == StateDisposed {
		c.mu.Unlock()
		return
	}
	c.state = StateDisposing
	subs := c.subs
	c.subs = nil
	c.mu.Unlock()

	for _, sub := range subs {
		sub.Unsubscribe()
	}
	close(c.done)
	if c.cancel != nil {
		c.cancel()
	}
	c.wg.Wait()

	c.mu.Lock()
	c.state = StateDisposed
	c.mu.Unlock()
}

// active reports whether triggers should be honored.
func (c *Coordinator) active() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state == StateSubscribing || c.state == StateActive
}

// spawn runs fn on a tracked goroutine. The WaitGroup add happens under
// the state lock so it cannot race Stop's Wait: once Stop has marked the
// coordinator Disposing, no new work can be registered.
func (c *Coordinator) spawn(fn func()) {
	c.mu.Lock()
	if c.state != StateSubscribing && c.state != StateActive {
		c.mu.Unlock()
		return
	}
	c.wg.Add(1)
	c.mu.Unlock()

	go func() {
		defer c.wg.Done()
		fn()
	}()
}

// onRecordComplete reloads the cache and pushes the completed record in
// the background. Push failure is logged, never surfaced to the UI path.
func (c *Coordinator) onRecordComplete(recordID string) {
	if !c.active() {
		return
	}

	if err := c.cfg.Cache.Invalidate(c.ctx); err != nil {
		logging.Error("cache reload after record completion failed", err,
			logging.Fields{"record_id": recordID})
	}

	if !c.cfg.Engine.Eligible() || recordID == "" {
		return
	}

	c.spawn(func() {
		rec, err := c.cfg.Records.Get(c.ctx, recordID)
		if err != nil {
			logging.Error("completed record not found for push", err,
				logging.Fields{"record_id": recordID})
			return
		}
		if err := c.cfg.Engine.PushRecord(c.ctx, rec); err != nil {
			logging.ErrorWithCode("background push failed",
				string(apperrors.ErrPushFailed), err,
				logging.Fields{"record_id": recordID})
		}
	})
}

// onRecordError reloads the cache so the error placeholder surfaces.
func (c *Coordinator) onRecordError() {
	if !c.active() {
		return
	}
	if err := c.cfg.Cache.Invalidate(c.ctx); err != nil {
		logging.Error("cache reload after record error failed", err, nil)
	}
}

// onAuthChanged kicks the one-shot bidirectional sync if the session just
// became eligible. The engine's own gate prevents double starts.
func (c *Coordinator) onAuthChanged() {
	if !c.active() {
		return
	}
	c.maybeInitialSync()
}

// OnResume handles connectivity, focus, or visibility resumption: the
// persisted sync flag is re-read (it may have changed while suspended)
// and the one-shot sync gets another opportunity to run.
func (c *Coordinator) OnResume() {
	if !c.active() {
		return
	}

	if c.cfg.Flags != nil && c.cfg.FlagSink != nil {
		c.cfg.FlagSink.SetSyncEnabled(c.cfg.Flags.CloudSyncEnabled())
	}

	if err := c.cfg.Cache.Invalidate(c.ctx); err != nil {
		logging.Error("cache reload on resume failed", err, nil)
	}
	c.maybeInitialSync()
}

// OnSyncFlagChanged handles an external write to the cloud-sync-enabled
// preference.
func (c *Coordinator) OnSyncFlagChanged(enabled bool) {
	if !c.active() {
		return
	}
	if c.cfg.FlagSink != nil {
		c.cfg.FlagSink.SetSyncEnabled(enabled)
	}
	if enabled {
		c.maybeInitialSync()
	}
}

func (c *Coordinator) maybeInitialSync() {
	if !c.cfg.Engine.Eligible() {
		return
	}
	c.spawn(func() {
		if err := c.cfg.Engine.InitialSync(c.ctx); err != nil {
			logging.ErrorWithCode("initial sync failed",
				string(apperrors.ErrSyncFailed), err, nil)
		}
	})
}

// credentialLoop rotates credentials on an interval. Credential rotation
// never triggers a sync pass.
func (c *Coordinator) credentialLoop() {
	defer c.wg.Done()

	if c.cfg.Refresher == nil {
		return
	}

	ticker := time.NewTicker(c.cfg.CredentialInterval)
	defer ticker.Stop()

	for {
		select {
		case <-c.done:
			return
		case <-c.ctx.Done():
			return
		case <-ticker.C:
			if err := c.cfg.Refresher.RefreshCredentials(c.ctx); err != nil {
				logging.Error("credential refresh failed", err, nil)
			}
		}
	}
}
