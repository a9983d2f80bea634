package cli

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/aretw0/scriptor"
	"github.com/aretw0/scriptor/internal/config"
	"github.com/aretw0/scriptor/internal/logging"
	"github.com/aretw0/scriptor/pkg/adapters/file"
	loamAdapter "github.com/aretw0/scriptor/pkg/adapters/loam"
	"github.com/aretw0/scriptor/pkg/adapters/memory"
	"github.com/aretw0/scriptor/pkg/adapters/process"
	redisAdapter "github.com/aretw0/scriptor/pkg/adapters/redis"
	"github.com/aretw0/scriptor/pkg/domain"
	"github.com/aretw0/scriptor/pkg/observability"
	"github.com/aretw0/scriptor/pkg/persistence/middleware"
	"github.com/aretw0/scriptor/pkg/ports"
	"github.com/aretw0/scriptor/pkg/session"
	"github.com/prometheus/client_golang/prometheus"
)

// Options are the process-wide CLI settings.
type Options struct {
	ConfigPath string
	Debug      bool
	// LogWriter receives structured logs. Defaults to os.Stderr.
	LogWriter io.Writer
	// Hooks are combined with the metrics hooks.
	Hooks []domain.LifecycleHooks
}

// App is a configured engine with its profile store and metrics.
type App struct {
	Config   *config.Config
	Engine   *scriptor.Engine
	Sessions *session.Manager
	Metrics  *observability.Metrics
	Registry *prometheus.Registry
	Logger   *slog.Logger

	closers []func() error
}

// Open builds an App from the configuration file named in opts.
func Open(opts Options) (*App, error) {
	path := opts.ConfigPath
	if path == "" {
		path = config.DefaultPath
	}
	cfg, err := config.LoadOrDefault(path)
	if err != nil {
		return nil, err
	}
	return OpenConfig(cfg, opts)
}

// OpenConfig builds an App from cfg.
func OpenConfig(cfg *config.Config, opts Options) (*App, error) {
	app := &App{Config: cfg, Registry: prometheus.NewRegistry()}
	logger, err := app.createLogger(opts)
	if err != nil {
		_ = app.Close()
		return nil, err
	}
	app.Logger = logger

	store, locker, err := app.createStore()
	if err != nil {
		_ = app.Close()
		return nil, err
	}
	sessionOpts := []session.Option{session.WithLogger(logger)}
	if locker != nil {
		sessionOpts = append(sessionOpts, session.WithLocker(locker))
	}
	app.Sessions = session.NewManager(store, sessionOpts...)

	app.Metrics, err = observability.NewMetrics(app.Registry)
	if err != nil {
		return nil, err
	}
	hooks := append([]domain.LifecycleHooks{app.Metrics.Hooks()}, opts.Hooks...)
	if opts.Debug {
		hooks = append(hooks, observability.LogHooks(logger))
	}

	loader, err := createLoader(cfg)
	if err != nil {
		_ = app.Close()
		return nil, err
	}

	tools, err := process.LoadTools(cfg.ToolsFile())
	if err != nil {
		_ = app.Close()
		return nil, fmt.Errorf("failed to load tools: %w", err)
	}

	app.Engine, err = scriptor.New(cfg.ScriptsDir(),
		scriptor.WithLoader(loader),
		scriptor.WithLogger(logger),
		scriptor.WithLifecycleHooks(observability.Combine(hooks...)),
		scriptor.WithProcessRunner(process.NewRunner(process.WithRegistry(tools), process.WithBaseDir(cfg.Dir()))),
		scriptor.WithMaxCallDepth(cfg.MaxCallDepth),
	)
	if err != nil {
		_ = app.Close()
		return nil, fmt.Errorf("error initializing engine: %w", err)
	}
	return app, nil
}

// Close releases the store connections.
func (a *App) Close() error {
	var errs []error
	for _, c := range a.closers {
		errs = append(errs, c())
	}
	a.closers = nil
	return errors.Join(errs...)
}

// createLogger writes to opts.LogWriter and, once the log directory has
// been bootstrapped, also appends to the log file inside it.
func (a *App) createLogger(opts Options) (*slog.Logger, error) {
	level := slog.LevelDebug
	if !opts.Debug {
		var err error
		if level, err = logging.ParseLevel(a.Config.LogLevel); err != nil {
			return nil, err
		}
	}

	w := opts.LogWriter
	if w == nil {
		w = os.Stderr
	}
	if info, err := os.Stat(a.Config.LogDir()); err == nil && info.IsDir() {
		f, err := os.OpenFile(a.Config.LogFile(), os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
		if err != nil {
			return nil, fmt.Errorf("failed to open log file: %w", err)
		}
		a.closers = append(a.closers, f.Close)
		w = io.MultiWriter(w, f)
	}
	return logging.NewWithWriter(w, level), nil
}

// createStore builds the configured profile store wrapped in its
// middlewares. The locker is only set for drivers shared across processes.
func (a *App) createStore() (ports.ProfileStore, ports.DistributedLocker, error) {
	var (
		store  ports.ProfileStore
		locker ports.DistributedLocker
	)
	switch a.Config.Store.Driver {
	case config.DriverMemory:
		store = memory.NewStore()
	case config.DriverRedis:
		rc := a.Config.Store.Redis
		rs := redisAdapter.New(rc.Addr, rc.Password, rc.DB,
			redisAdapter.WithPrefix(rc.Prefix),
			redisAdapter.WithTTL(rc.TTL.Std()),
		)
		a.closers = append(a.closers, rs.Close)
		store = rs
		prefix := rc.Prefix
		if prefix == "" {
			prefix = redisAdapter.DefaultPrefix
		}
		locker = redisAdapter.NewLocker(rs.Client(), prefix)
	default:
		store = file.NewStore(a.Config.StorageDir())
	}

	var mws []middleware.Middleware
	if a.Config.ProfileSchema != nil {
		mws = append(mws, middleware.NewSchemaMiddleware(a.Config.ProfileSchema))
	}
	if a.Config.EncryptionKey != "" {
		key, err := middleware.ParseKey(a.Config.EncryptionKey)
		if err != nil {
			return nil, nil, err
		}
		enc, err := middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{ActiveKey: key})
		if err != nil {
			return nil, nil, err
		}
		mws = append(mws, enc)
	}
	return middleware.Chain(store, mws...), locker, nil
}

func createLoader(cfg *config.Config) (ports.ScriptLoader, error) {
	if cfg.Loader == config.LoaderLoam {
		return loamAdapter.Open(cfg.ScriptsDir())
	}
	return file.NewLoader(cfg.ScriptsDir()), nil
}
