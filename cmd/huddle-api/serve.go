package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/PabloGalante/huddle/internal/adapters/calendar"
	"github.com/PabloGalante/huddle/internal/adapters/clock"
	httpadapter "github.com/PabloGalante/huddle/internal/adapters/http"
	"github.com/PabloGalante/huddle/internal/adapters/llm"
	"github.com/PabloGalante/huddle/internal/adapters/mail"
	firestorestore "github.com/PabloGalante/huddle/internal/adapters/storage/firestore"
	memstore "github.com/PabloGalante/huddle/internal/adapters/storage/memory"
	sqlitestore "github.com/PabloGalante/huddle/internal/adapters/storage/sqlite"
	"github.com/PabloGalante/huddle/internal/app/agentflow"
	"github.com/PabloGalante/huddle/internal/app/history"
	"github.com/PabloGalante/huddle/internal/app/thread"
	"github.com/PabloGalante/huddle/internal/app/tools"
	"github.com/PabloGalante/huddle/internal/config"
	"github.com/PabloGalante/huddle/internal/domain"
	"github.com/PabloGalante/huddle/internal/observability"
)

const shutdownTimeout = 10 * time.Second

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP server",
	RunE:  runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

// storage bundles the ports a backend provides. Backends that keep
// threads and audit entries in one place fill every field from one value.
type storage struct {
	threads domain.ThreadStore
	audit   domain.AuditLog
	reader  domain.AuditReader
	closer  io.Closer
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return err
	}
	if port != "" {
		cfg.Port = port
	}

	if err := observability.Configure(os.Stderr, cfg.LogLevel, cfg.LogFormat); err != nil {
		return err
	}
	log := observability.Logger()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, err := openStorage(ctx, cfg)
	if err != nil {
		return err
	}
	if store.closer != nil {
		defer store.closer.Close()
	}

	llmClient, err := newLLM(ctx, cfg)
	if err != nil {
		return err
	}

	cal := calendar.NewMemoryCalendar()
	if cfg.CalendarFixtures != "" {
		if err := cal.LoadFixtures(cfg.CalendarFixtures); err != nil {
			return err
		}
		log.Info("calendar fixtures loaded", "path", cfg.CalendarFixtures)
	}

	clk := clock.System{}
	agents := agentflow.NewDefaultOrchestrator(cal, clk, llmClient)
	toolbox := tools.NewDefaultToolbox(mail.NewOutbox(), cal)

	threads := thread.NewService(store.threads, store.audit, clk, agents, toolbox)
	hist := history.NewService(store.threads, store.reader)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           httpadapter.NewServer(threads, hist),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("huddle api listening", "addr", srv.Addr, "version", version)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func openStorage(ctx context.Context, cfg *config.Config) (storage, error) {
	log := observability.Logger()

	switch cfg.StorageBackend {
	case config.StorageFirestore:
		log.Info("using firestore storage", "project", cfg.GCPProjectID)
		fs, err := firestorestore.NewStore(ctx, cfg.GCPProjectID)
		if err != nil {
			return storage{}, fmt.Errorf("init firestore store: %w", err)
		}
		return storage{threads: fs, audit: fs, reader: fs, closer: fs}, nil

	case config.StorageSQLite:
		log.Info("using sqlite storage", "path", cfg.SQLitePath)
		db, err := sqlitestore.Open(cfg.SQLitePath)
		if err != nil {
			return storage{}, fmt.Errorf("init sqlite store: %w", err)
		}
		return storage{threads: db, audit: db, reader: db, closer: db}, nil

	default:
		log.Info("using in-memory storage")
		audit := memstore.NewAuditLog()
		return storage{threads: memstore.NewThreadStore(), audit: audit, reader: audit}, nil
	}
}

// newLLM returns nil for the "none" backend; agents then use fixed text.
func newLLM(ctx context.Context, cfg *config.Config) (domain.LLMClient, error) {
	log := observability.Logger()

	switch cfg.LLMBackend {
	case config.LLMVertex:
		log.Info("using vertex llm", "project", cfg.GCPProjectID, "model", cfg.ModelName)
		client, err := llm.NewVertexClient(ctx, cfg.GCPProjectID, cfg.GCPLocation, cfg.ModelName)
		if err != nil {
			return nil, fmt.Errorf("init vertex llm: %w", err)
		}
		return client, nil
	case config.LLMMock:
		log.Info("using mock llm")
		return llm.NewMockLLM(), nil
	default:
		return nil, nil
	}
}
