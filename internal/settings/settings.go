package settings

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sync"
)

const schemaVersion = 1

const (
	providerOpenAI      = "openai"
	providerAnthropic   = "anthropic"
	providerGroq        = "groq"
	providerHuggingFace = "huggingface"
)

const defaultSyncQueueSize = 32

type ProviderSettings struct {
	Enabled bool `json:"enabled"`
	// Model overrides the registry default when non-empty.
	Model string `json:"model,omitempty"`
}

type SyncSettings struct {
	URL       string `json:"url,omitempty"`
	QueueSize int    `json:"queue_size"`
}

type Settings struct {
	SchemaVersion int                         `json:"schema_version"`
	Providers     map[string]ProviderSettings `json:"providers"`
	Sync          SyncSettings                `json:"sync"`
}

type Store struct {
	path string
	mu   sync.Mutex
}

func NewStore(path string) *Store {
	return &Store{path: path}
}

func (s *Store) Load() (*Settings, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return defaultSettings(), nil
		}
		return nil, err
	}
	var settings Settings
	if err := json.Unmarshal(data, &settings); err != nil {
		return nil, err
	}
	backfillSettings(&settings)
	return &settings, nil
}

func (s *Store) Save(settings *Settings) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	backfillSettings(settings)
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return err
	}
	data, err := json.MarshalIndent(settings, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(s.path, data, 0o600)
}

func (s *Store) Update(fn func(*Settings)) (*Settings, error) {
	settings, err := s.Load()
	if err != nil {
		return nil, err
	}
	fn(settings)
	return settings, s.Save(settings)
}

func defaultSettings() *Settings {
	return &Settings{
		SchemaVersion: schemaVersion,
		Providers: map[string]ProviderSettings{
			providerOpenAI:      {Enabled: true},
			providerAnthropic:   {Enabled: true},
			providerGroq:        {Enabled: true},
			providerHuggingFace: {Enabled: true},
		},
		Sync: SyncSettings{QueueSize: defaultSyncQueueSize},
	}
}

func backfillSettings(settings *Settings) {
	if settings.SchemaVersion == 0 {
		settings.SchemaVersion = schemaVersion
	}
	if settings.Providers == nil {
		settings.Providers = map[string]ProviderSettings{}
	}
	backfillProvider(settings.Providers, providerOpenAI)
	backfillProvider(settings.Providers, providerAnthropic)
	backfillProvider(settings.Providers, providerGroq)
	backfillProvider(settings.Providers, providerHuggingFace)
	if settings.Sync.QueueSize <= 0 {
		settings.Sync.QueueSize = defaultSyncQueueSize
	}
}

func backfillProvider(providers map[string]ProviderSettings, providerID string) {
	if _, ok := providers[providerID]; !ok {
		providers[providerID] = ProviderSettings{Enabled: true}
	}
}
