package engine

import (
	"context"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"redraft/engine/internal/anthropic"
	"redraft/engine/internal/appdirs"
	"redraft/engine/internal/envutil"
	"redraft/engine/internal/errinfo"
	"redraft/engine/internal/groq"
	"redraft/engine/internal/hf"
	"redraft/engine/internal/llm"
	"redraft/engine/internal/logging"
	"redraft/engine/internal/openai"
	"redraft/engine/internal/secrets"
	"redraft/engine/internal/settings"
	"redraft/engine/internal/sim"
	docsync "redraft/engine/internal/sync"
)

const (
	EngineVersion = "0.1.0"
	APIVersion    = "1"
)

type Notifier func(method string, params any)

// LLMClient is the engine-side view of a provider adapter. The simulation
// provider satisfies it too, so the selection chain can treat every provider
// alike.
type LLMClient interface {
	ValidateKey(ctx context.Context, apiKey string) error
	Complete(ctx context.Context, apiKey, model string, bundle llm.PromptBundle) (llm.Turn, error)
}

type Engine struct {
	dataDir   string
	settings  *settings.Store
	secrets   *secrets.Store
	providers map[string]LLMClient
	sim       *sim.Provider
	notify    Notifier
	logger    *slog.Logger
	now       func() time.Time

	scoreMu sync.Mutex
	scores  map[string]*providerScore
	active  string

	syncMu      sync.Mutex
	syncChannel *docsync.Channel
	newChannel  func(url string, queueSize int) *docsync.Channel
}

type Option func(*Engine)

func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// WithSimulation replaces the built-in simulated assistant. Tests inject one
// with the artificial delay disabled.
func WithSimulation(provider *sim.Provider) Option {
	return func(e *Engine) {
		if provider != nil {
			e.sim = provider
		}
	}
}

func New(opts ...Option) (*Engine, error) {
	engine := &Engine{logger: logging.Nop()}
	for _, opt := range opts {
		opt(engine)
	}
	dataDir, err := appdirs.DataDir()
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return nil, err
	}
	settingsPath := filepath.Join(dataDir, "settings.json")
	secretsPath := filepath.Join(dataDir, "secrets.enc")
	masterKeyPath := filepath.Join(dataDir, "master.key")
	if engine.sim == nil {
		engine.sim = sim.New()
	}
	providers := map[string]LLMClient{
		ProviderOpenAI:      openai.NewClient(),
		ProviderAnthropic:   anthropic.NewClient(),
		ProviderGroq:        groq.NewClient(),
		ProviderHuggingFace: hf.NewClient(),
		ProviderSimulation:  engine.sim,
	}
	for providerID := range providers {
		if providerID == ProviderSimulation {
			continue
		}
		if envutil.Bool(fakeEnvVar(providerID)) {
			providers[providerID] = newFakeClient(providerID)
		}
	}
	engine.dataDir = dataDir
	engine.settings = settings.NewStore(settingsPath)
	engine.secrets = secrets.NewStore(secretsPath, masterKeyPath)
	engine.providers = providers
	engine.scores = make(map[string]*providerScore)
	engine.now = time.Now
	engine.newChannel = func(url string, queueSize int) *docsync.Channel {
		return docsync.New(url,
			docsync.WithLogger(engine.logger.With("component", "sync")),
			docsync.WithQueueSize(queueSize))
	}
	engine.logger.Debug("engine.init", "data_dir", dataDir)
	return engine, nil
}

func (e *Engine) SetNotifier(notify Notifier) {
	e.notify = notify
}

// Close tears down the sync channel. Provider clients hold no state that
// needs shutdown.
func (e *Engine) Close() {
	e.syncMu.Lock()
	channel := e.syncChannel
	e.syncChannel = nil
	e.syncMu.Unlock()
	if channel != nil {
		channel.Close()
	}
}

func (e *Engine) emit(method string, params any) {
	if e.notify != nil {
		e.notify(method, params)
	}
}

func (e *Engine) EngineDescribe(ctx context.Context, _ json.RawMessage) (any, *errinfo.ErrorInfo) {
	return map[string]any{
		"engine_version":  EngineVersion,
		"api_version":     APIVersion,
		"active_provider": e.activeProvider(),
	}, nil
}

func fakeEnvVar(providerID string) string {
	return "REDRAFT_FAKE_" + strings.ToUpper(providerID)
}
