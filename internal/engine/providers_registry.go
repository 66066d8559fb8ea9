package engine

const (
	ProviderOpenAI      = "openai"
	ProviderAnthropic   = "anthropic"
	ProviderGroq        = "groq"
	ProviderHuggingFace = "huggingface"
	ProviderSimulation  = "simulation"
)

type ProviderInfo struct {
	ProviderID   string `json:"provider_id"`
	DisplayName  string `json:"display_name"`
	Priority     int    `json:"priority"`
	DefaultModel string `json:"default_model,omitempty"`
	EnvVar       string `json:"-"`
	RequiresKey  bool   `json:"requires_key"`
}

var providerRegistry = map[string]ProviderInfo{
	ProviderOpenAI: {
		ProviderID:   ProviderOpenAI,
		DisplayName:  "OpenAI",
		Priority:     1,
		DefaultModel: "gpt-4o-mini",
		EnvVar:       "OPENAI_API_KEY",
		RequiresKey:  true,
	},
	ProviderAnthropic: {
		ProviderID:   ProviderAnthropic,
		DisplayName:  "Anthropic",
		Priority:     2,
		DefaultModel: "claude-3-5-sonnet-latest",
		EnvVar:       "ANTHROPIC_API_KEY",
		RequiresKey:  true,
	},
	ProviderGroq: {
		ProviderID:   ProviderGroq,
		DisplayName:  "Groq",
		Priority:     3,
		DefaultModel: "llama-3.3-70b-versatile",
		EnvVar:       "GROQ_API_KEY",
		RequiresKey:  true,
	},
	ProviderHuggingFace: {
		ProviderID:   ProviderHuggingFace,
		DisplayName:  "Hugging Face",
		Priority:     4,
		DefaultModel: "mistralai/Mistral-7B-Instruct-v0.3",
		EnvVar:       "HF_API_KEY",
		RequiresKey:  true,
	},
	ProviderSimulation: {
		ProviderID:  ProviderSimulation,
		DisplayName: "Simulated Assistant",
		Priority:    5,
		RequiresKey: false,
	},
}

// rankedProviders lists every provider in selection order. The simulation is
// last and needs no credential, so a scan always terminates on a usable
// provider.
func rankedProviders() []ProviderInfo {
	return []ProviderInfo{
		providerRegistry[ProviderOpenAI],
		providerRegistry[ProviderAnthropic],
		providerRegistry[ProviderGroq],
		providerRegistry[ProviderHuggingFace],
		providerRegistry[ProviderSimulation],
	}
}

func getProvider(providerID string) (ProviderInfo, bool) {
	info, ok := providerRegistry[providerID]
	return info, ok
}
