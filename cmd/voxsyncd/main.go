// voxsyncd is the VoxNote record-store daemon: it owns the local
// transcription database, the paginated view the UI reads, and the
// reconciliation engine keeping local records and the cloud history in
// sync.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/voxnote/voxnote/backend/internal/bus"
	"github.com/voxnote/voxnote/backend/internal/cache"
	"github.com/voxnote/voxnote/backend/internal/config"
	"github.com/voxnote/voxnote/backend/internal/logging"
	"github.com/voxnote/voxnote/backend/internal/prefs"
	"github.com/voxnote/voxnote/backend/internal/remote"
	"github.com/voxnote/voxnote/backend/internal/retry"
	"github.com/voxnote/voxnote/backend/internal/session"
	"github.com/voxnote/voxnote/backend/internal/store"
	syncpkg "github.com/voxnote/voxnote/backend/internal/sync"
	"github.com/voxnote/voxnote/backend/internal/sync/coordinator"
	"github.com/voxnote/voxnote/backend/internal/uuid"
)

// Version is set at build time.
var Version = "0.1.0"

func main() {
	configPath := flag.String("config", "", "path to config file")
	flag.Parse()

	if err := run(*configPath); err != nil {
		fmt.Fprintf(os.Stderr, "voxsyncd: %v\n", err)
		os.Exit(1)
	}
}

func run(configPath string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	logging.Init(logging.Options{
		Level:      cfg.Log.Level,
		File:       cfg.Log.File,
		MaxSizeMB:  cfg.Log.MaxSizeMB,
		MaxBackups: cfg.Log.MaxBackups,
	})
	// Instance id correlates log streams across daemon restarts.
	logging.Info("voxsyncd starting", logging.Fields{
		"version":     Version,
		"instance_id": uuid.New(),
	})

	localStore, err := store.Open(cfg.DataDir)
	if err != nil {
		return err
	}
	defer localStore.Close()

	prefFile, err := prefs.Load(cfg.PrefsPath())
	if err != nil {
		return err
	}
	defer prefFile.Close()

	sess := session.New()
	sess.SetSyncEnabled(prefFile.CloudSyncEnabled())

	// Restore the previous sign-in so a daemon restart does not force a
	// fresh authentication.
	identityFile := session.NewIdentityFile(cfg.DataDir)
	identity, err := identityFile.Load()
	if err != nil {
		logging.Warn("stored identity unreadable, starting signed out",
			logging.Fields{"error": err.Error()})
	} else if identity.OwnerID != "" {
		sess.SetIdentity(identity.OwnerID, identity.Entitled)
	}

	apiKey := cfg.Remote.APIKey
	if identity.AccessToken != "" {
		apiKey = identity.AccessToken
	}
	remoteStore := remote.NewPostgrestStore(cfg.Remote.URL, apiKey, cfg.Remote.Table)

	recordCache := cache.New(localStore, cfg.PageSize)
	engine := syncpkg.NewEngine(localStore, remoteStore, recordCache, sess, retry.DefaultPolicy())

	eventBus := bus.NewMemBus()

	coord := coordinator.New(coordinator.Config{
		Cache:              recordCache,
		Engine:             engine,
		Records:            localStore,
		Bus:                eventBus,
		Flags:              prefFile,
		FlagSink:           sess,
		Refresher:          sess,
		CredentialInterval: cfg.CredentialInterval,
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := recordCache.SetSearchQuery(ctx, ""); err != nil {
		logging.Error("initial cache load failed", err, nil)
	}

	if err := coord.Start(ctx); err != nil {
		return err
	}

	if err := prefFile.Watch(func(p prefs.Prefs) {
		coord.OnSyncFlagChanged(p.CloudSyncEnabled)
	}); err != nil {
		coord.Stop()
		return err
	}

	logging.Info("voxsyncd ready", logging.Fields{
		"data_dir":  cfg.DataDir,
		"page_size": recordCache.PageSize(),
	})

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigCh

	logging.Info("shutting down", logging.Fields{"signal": sig.String()})
	coord.Stop()

	fields := logging.Fields{}
	if ts := engine.LastSync(); ts != nil {
		fields["last_sync"] = ts.UTC().Format(time.RFC3339)
	}
	if err := engine.LastError(); err != nil {
		fields["last_error"] = err.Error()
	}
	logging.Info("sync state at shutdown", fields)
	return nil
}
