package engine

import (
	"context"
	"encoding/json"
	"strings"

	"redraft/engine/internal/errinfo"
	"redraft/engine/internal/logging"
	"redraft/engine/internal/settings"
)

func (e *Engine) SettingsGet(ctx context.Context, _ json.RawMessage) (any, *errinfo.ErrorInfo) {
	settingsData, err := e.settings.Load()
	if err != nil {
		return nil, errinfo.FileReadFailed(errinfo.PhaseSettings, err.Error())
	}
	return settingsData, nil
}

// SettingsUpdate patches the settings document: only fields present in the
// request change. The simulation provider has no settings row and cannot be
// disabled.
func (e *Engine) SettingsUpdate(ctx context.Context, params json.RawMessage) (any, *errinfo.ErrorInfo) {
	var req struct {
		Providers map[string]struct {
			Enabled *bool   `json:"enabled"`
			Model   *string `json:"model"`
		} `json:"providers"`
		Sync *struct {
			URL       *string `json:"url"`
			QueueSize *int    `json:"queue_size"`
		} `json:"sync"`
	}
	if err := json.Unmarshal(params, &req); err != nil {
		return nil, errinfo.ValidationFailed(errinfo.PhaseSettings, "invalid params")
	}
	for providerID := range req.Providers {
		info, ok := getProvider(providerID)
		if !ok || !info.RequiresKey {
			return nil, withProviderID(errinfo.ValidationFailed(errinfo.PhaseSettings, "unsupported provider"), providerID)
		}
	}
	updated, err := e.settings.Update(func(s *settings.Settings) {
		for providerID, patch := range req.Providers {
			entry := s.Providers[providerID]
			if patch.Enabled != nil {
				entry.Enabled = *patch.Enabled
			}
			if patch.Model != nil {
				entry.Model = strings.TrimSpace(*patch.Model)
			}
			s.Providers[providerID] = entry
		}
		if req.Sync != nil {
			if req.Sync.URL != nil {
				s.Sync.URL = strings.TrimSpace(*req.Sync.URL)
			}
			if req.Sync.QueueSize != nil && *req.Sync.QueueSize > 0 {
				s.Sync.QueueSize = *req.Sync.QueueSize
			}
		}
	})
	if err != nil {
		return nil, errinfo.FileWriteFailed(errinfo.PhaseSettings, err.Error())
	}
	e.logger.Info("settings.updated")
	return updated, nil
}

func (e *Engine) SecretsSetProviderKey(ctx context.Context, params json.RawMessage) (any, *errinfo.ErrorInfo) {
	var req struct {
		ProviderID string `json:"provider_id"`
		APIKey     string `json:"api_key"`
	}
	if err := json.Unmarshal(params, &req); err != nil {
		return nil, errinfo.ValidationFailed(errinfo.PhaseSettings, "invalid params")
	}
	e.logger.Debug("secrets.set_provider_key", "provider_id", req.ProviderID, "api_key", logging.RedactValue(req.APIKey))
	if errInfo := e.setProviderKey(req.ProviderID, req.APIKey); errInfo != nil {
		return nil, errInfo
	}
	return map[string]any{}, nil
}

func (e *Engine) SecretsClearProviderKey(ctx context.Context, params json.RawMessage) (any, *errinfo.ErrorInfo) {
	var req struct {
		ProviderID string `json:"provider_id"`
	}
	if err := json.Unmarshal(params, &req); err != nil {
		return nil, errinfo.ValidationFailed(errinfo.PhaseSettings, "invalid params")
	}
	e.logger.Info("secrets.clear_provider_key", "provider_id", req.ProviderID)
	if errInfo := e.clearProviderKey(req.ProviderID); errInfo != nil {
		return nil, errInfo
	}
	return map[string]any{}, nil
}
