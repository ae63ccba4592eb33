// Package app wires all kotoba subsystems into a running server.
//
// The App struct owns the full lifecycle: New creates and connects all
// subsystems, Run serves HTTP until the context is cancelled, and
// Shutdown tears everything down in order.
//
// For testing, inject mock implementations via functional options
// (WithStore). When an option is not provided, New creates real
// implementations from the config.
package app

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	pgxvec "github.com/pgvector/pgvector-go/pgx"
	"golang.org/x/sync/errgroup"

	"github.com/kotoba-app/kotoba/internal/api"
	"github.com/kotoba-app/kotoba/internal/config"
	"github.com/kotoba-app/kotoba/internal/health"
	"github.com/kotoba-app/kotoba/internal/journal"
	"github.com/kotoba-app/kotoba/internal/resilience"
	"github.com/kotoba-app/kotoba/internal/segment"
	"github.com/kotoba-app/kotoba/internal/tutor"
	"github.com/kotoba-app/kotoba/pkg/provider/embeddings"
	"github.com/kotoba-app/kotoba/pkg/provider/llm"
	"github.com/kotoba-app/kotoba/pkg/provider/tts"
)

// defaultEmbeddingDimensions matches OpenAI text-embedding-3-small.
const defaultEmbeddingDimensions = 1536

// shutdownGrace bounds how long Run waits for in-flight requests after
// the context is cancelled.
const shutdownGrace = 10 * time.Second

// Providers holds one interface value per provider slot. Nil means the
// provider is not configured. Populated by main.go via the config registry.
type Providers struct {
	LLM        llm.Provider
	TTS        tts.Provider
	Embeddings embeddings.Provider
}

// App owns all subsystem lifetimes and serves the kotoba HTTP API.
type App struct {
	cfg       *config.Config
	providers *Providers

	// Subsystems — initialised in New, torn down in Shutdown.
	store      journal.Store
	annotators map[string]segment.Annotator
	voices     map[string]string
	pipeline   *tutor.Pipeline
	server     *http.Server

	// closers are called in order during Shutdown.
	closers []func() error

	// stopOnce guards the Shutdown path.
	stopOnce sync.Once
}

// Option is a functional option for New. Use these to inject test doubles.
type Option func(*App)

// WithStore injects a journal store instead of creating one from config.
func WithStore(s journal.Store) Option {
	return func(a *App) { a.store = s }
}

// New creates an App by wiring all subsystems together. The providers struct
// comes from main.go (populated via the config registry). Use Option functions
// to inject test doubles.
//
// New performs all initialisation synchronously: store connection and
// migration, per-language annotator construction, pipeline assembly, and
// HTTP server setup.
func New(ctx context.Context, cfg *config.Config, providers *Providers, opts ...Option) (*App, error) {
	a := &App{
		cfg:       cfg,
		providers: providers,
	}
	for _, o := range opts {
		o(a)
	}

	a.wrapProviders()

	if err := a.initStore(ctx); err != nil {
		return nil, fmt.Errorf("app: init store: %w", err)
	}

	if err := a.initLanguages(); err != nil {
		return nil, fmt.Errorf("app: init languages: %w", err)
	}

	a.initPipeline()
	a.initServer()

	return a, nil
}

// wrapProviders puts a circuit breaker in front of each remote provider so a
// failing backend degrades entries quickly instead of stalling every write.
func (a *App) wrapProviders() {
	if a.providers.LLM != nil {
		a.providers.LLM = resilience.NewLLMFallback(
			a.providers.LLM, a.cfg.Providers.LLM.Name, resilience.FallbackConfig{})
	}
	if a.providers.TTS != nil {
		a.providers.TTS = resilience.NewTTSFallback(
			a.providers.TTS, a.cfg.Providers.TTS.Name, resilience.FallbackConfig{})
	}
}

// initStore connects the PostgreSQL entry store, or falls back to an
// in-memory store when no DSN is configured.
func (a *App) initStore(ctx context.Context) error {
	if a.store == nil {
		dsn := a.cfg.Database.PostgresDSN
		if dsn == "" {
			slog.Warn("no postgres_dsn configured, entries are kept in memory and lost on restart")
			a.store = journal.NewMemStore()
		} else {
			store, err := a.connectPostgres(ctx, dsn)
			if err != nil {
				return err
			}
			a.store = store
		}
	}

	if err := a.store.Migrate(ctx); err != nil {
		return err
	}
	return nil
}

func (a *App) connectPostgres(ctx context.Context, dsn string) (*journal.PostgresStore, error) {
	poolCfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse dsn: %w", err)
	}

	// Register pgvector types on every new connection so that the embedding
	// column accepts pgvector.Vector values.
	poolCfg.AfterConnect = func(ctx context.Context, conn *pgx.Conn) error {
		return pgxvec.RegisterTypes(ctx, conn)
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("create pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping: %w", err)
	}

	a.closers = append(a.closers, func() error {
		pool.Close()
		return nil
	})

	dims := a.cfg.Database.EmbeddingDimensions
	if dims == 0 {
		dims = defaultEmbeddingDimensions
	}
	return journal.NewPostgresStore(pool, dims), nil
}

// initLanguages builds one annotator per configured language and collects
// the TTS voice map.
func (a *App) initLanguages() error {
	a.annotators = make(map[string]segment.Annotator)
	a.voices = make(map[string]string)

	for _, lang := range a.cfg.Languages {
		ann, err := segment.New(lang.Segmenter)
		if err != nil {
			return fmt.Errorf("language %q: %w", lang.Code, err)
		}
		a.annotators[lang.Code] = ann
		if lang.VoiceID != "" {
			a.voices[lang.Code] = lang.VoiceID
		}
		slog.Info("configured language", "code", lang.Code, "segmenter", lang.Segmenter)
	}
	return nil
}

// initPipeline assembles the correction pipeline. Without an LLM provider
// the pipeline runs in degraded mode and entries pass through uncorrected.
func (a *App) initPipeline() {
	var corrector *tutor.Corrector
	if a.providers.LLM != nil {
		corrector = tutor.NewCorrector(a.providers.LLM)
	} else {
		slog.Warn("no LLM provider configured, entries will not be corrected")
	}

	pipelineOpts := []tutor.PipelineOption{
		tutor.WithCache(tutor.NewCache(256)),
	}
	for code, ann := range a.annotators {
		pipelineOpts = append(pipelineOpts, tutor.WithAnnotator(code, ann))
	}
	a.pipeline = tutor.NewPipeline(corrector, pipelineOpts...)
}

// initServer builds the HTTP API server around the assembled subsystems.
func (a *App) initServer() {
	apiOpts := []api.Option{
		api.WithHealth(health.New(health.StoreChecker(a.store))),
	}
	if a.providers.Embeddings != nil {
		apiOpts = append(apiOpts, api.WithEmbeddings(a.providers.Embeddings))
	}
	if a.providers.TTS != nil {
		apiOpts = append(apiOpts, api.WithTTS(a.providers.TTS, a.voices))
	}
	for code, ann := range a.annotators {
		apiOpts = append(apiOpts, api.WithAnnotator(code, ann))
	}

	srv := api.New(a.store, a.pipeline, apiOpts...)
	a.server = &http.Server{
		Addr:              a.cfg.Server.ListenAddr,
		Handler:           srv.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
}

// Run serves the HTTP API and blocks until ctx is cancelled or the listener
// fails. On cancellation, in-flight requests get a grace period before the
// server is forced closed.
func (a *App) Run(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		var err error
		if tlsCfg := a.cfg.Server.TLS; tlsCfg != nil {
			slog.Info("serving HTTPS", "addr", a.server.Addr)
			err = a.server.ListenAndServeTLS(tlsCfg.CertFile, tlsCfg.KeyFile)
		} else {
			slog.Info("serving HTTP", "addr", a.server.Addr)
			err = a.server.ListenAndServe()
		}
		if err == http.ErrServerClosed {
			return nil
		}
		return err
	})

	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
		defer cancel()
		if err := a.server.Shutdown(shutdownCtx); err != nil {
			slog.Warn("server shutdown error", "err", err)
			a.server.Close()
		}
		return ctx.Err()
	})

	return g.Wait()
}

// Shutdown tears down all subsystems in order. It respects the context
// deadline: if ctx expires before all closers finish, remaining closers are
// skipped and the context error is returned.
func (a *App) Shutdown(ctx context.Context) error {
	var shutdownErr error
	a.stopOnce.Do(func() {
		slog.Info("shutting down", "closers", len(a.closers))

		for i, closer := range a.closers {
			select {
			case <-ctx.Done():
				slog.Warn("shutdown deadline exceeded", "remaining", len(a.closers)-i)
				shutdownErr = ctx.Err()
				return
			default:
			}
			if err := closer(); err != nil {
				slog.Warn("closer error", "index", i, "err", err)
			}
		}

		slog.Info("shutdown complete")
	})
	return shutdownErr
}
