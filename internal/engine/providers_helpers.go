package engine

import (
	"context"
	"os"
	"strings"

	"redraft/engine/internal/errinfo"
)

func withProviderID(info *errinfo.ErrorInfo, providerID string) *errinfo.ErrorInfo {
	if info == nil {
		return nil
	}
	copied := *info
	copied.ProviderID = providerID
	return &copied
}

func (e *Engine) clientForProvider(providerID string) (LLMClient, *errinfo.ErrorInfo) {
	client, ok := e.providers[providerID]
	if !ok {
		return nil, withProviderID(errinfo.ValidationFailed(errinfo.PhaseProviders, "unsupported provider"), providerID)
	}
	return client, nil
}

// providerKey resolves the credential for a provider: the environment variable
// wins, then the encrypted secrets store. An empty result means the provider
// is not configured, which is not an error here.
func (e *Engine) providerKey(providerID string) (string, *errinfo.ErrorInfo) {
	info, ok := providerRegistry[providerID]
	if !ok {
		return "", withProviderID(errinfo.ValidationFailed(errinfo.PhaseProviders, "unsupported provider"), providerID)
	}
	if !info.RequiresKey {
		return "", nil
	}
	if key := strings.TrimSpace(os.Getenv(info.EnvVar)); key != "" {
		return key, nil
	}
	key, err := e.secrets.ProviderKey(providerID)
	if err != nil {
		return "", withProviderID(errinfo.FileReadFailed(errinfo.PhaseProviders, err.Error()), providerID)
	}
	return key, nil
}

func (e *Engine) setProviderKey(providerID, apiKey string) *errinfo.ErrorInfo {
	if info, ok := providerRegistry[providerID]; !ok || !info.RequiresKey {
		return withProviderID(errinfo.ValidationFailed(errinfo.PhaseSettings, "unsupported provider"), providerID)
	}
	if err := e.secrets.SetProviderKey(providerID, strings.TrimSpace(apiKey)); err != nil {
		return withProviderID(errinfo.FileWriteFailed(errinfo.PhaseSettings, err.Error()), providerID)
	}
	return nil
}

func (e *Engine) clearProviderKey(providerID string) *errinfo.ErrorInfo {
	if info, ok := providerRegistry[providerID]; !ok || !info.RequiresKey {
		return withProviderID(errinfo.ValidationFailed(errinfo.PhaseSettings, "unsupported provider"), providerID)
	}
	if err := e.secrets.ClearProviderKey(providerID); err != nil {
		return withProviderID(errinfo.FileWriteFailed(errinfo.PhaseSettings, err.Error()), providerID)
	}
	return nil
}

func (e *Engine) providerEnabled(providerID string) (bool, *errinfo.ErrorInfo) {
	if providerID == ProviderSimulation {
		return true, nil
	}
	settingsData, err := e.settings.Load()
	if err != nil {
		return false, withProviderID(errinfo.FileReadFailed(errinfo.PhaseProviders, err.Error()), providerID)
	}
	entry, ok := settingsData.Providers[providerID]
	if !ok {
		return false, nil
	}
	return entry.Enabled, nil
}

// modelForProvider applies the settings override on top of the registry
// default.
func (e *Engine) modelForProvider(providerID string) string {
	info := providerRegistry[providerID]
	settingsData, err := e.settings.Load()
	if err != nil {
		e.logger.Warn("providers.model_lookup_failed", "provider_id", providerID, "error", err.Error())
		return info.DefaultModel
	}
	if entry, ok := settingsData.Providers[providerID]; ok && strings.TrimSpace(entry.Model) != "" {
		return strings.TrimSpace(entry.Model)
	}
	return info.DefaultModel
}

func (e *Engine) validateProviderKey(ctx context.Context, providerID string) *errinfo.ErrorInfo {
	if providerID == ProviderSimulation {
		return nil
	}
	key, errInfo := e.providerKey(providerID)
	if errInfo != nil {
		return errInfo
	}
	if strings.TrimSpace(key) == "" {
		return withProviderID(errinfo.ProviderNotConfigured(errinfo.PhaseProviders), providerID)
	}
	client, errInfo := e.clientForProvider(providerID)
	if errInfo != nil {
		return errInfo
	}
	if err := client.ValidateKey(ctx, key); err != nil {
		return mapLLMError(errinfo.PhaseProviders, providerID, err)
	}
	return nil
}
