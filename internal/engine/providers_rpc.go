package engine

import (
	"context"
	"encoding/json"
	"strings"

	"redraft/engine/internal/errinfo"
)

func (e *Engine) ProvidersList(ctx context.Context, _ json.RawMessage) (any, *errinfo.ErrorInfo) {
	settingsData, err := e.settings.Load()
	if err != nil {
		return nil, errinfo.FileReadFailed(errinfo.PhaseProviders, err.Error())
	}
	active := e.activeProvider()
	providers := []map[string]any{}
	for _, info := range rankedProviders() {
		enabled := true
		configured := true
		if info.RequiresKey {
			entry, ok := settingsData.Providers[info.ProviderID]
			enabled = ok && entry.Enabled
			key, errInfo := e.providerKey(info.ProviderID)
			if errInfo != nil {
				return nil, errInfo
			}
			configured = strings.TrimSpace(key) != ""
		}
		successes, failures, consecutive := e.scoreSnapshot(info.ProviderID)
		providers = append(providers, map[string]any{
			"provider_id":          info.ProviderID,
			"display_name":         info.DisplayName,
			"priority":             info.Priority,
			"enabled":              enabled,
			"configured":           configured,
			"available":            enabled && configured,
			"active":               info.ProviderID == active,
			"in_cooldown":          e.inCooldown(info.ProviderID),
			"model":                e.modelForProvider(info.ProviderID),
			"successes":            successes,
			"failures":             failures,
			"consecutive_failures": consecutive,
		})
	}
	return map[string]any{"providers": providers, "active_provider": active}, nil
}

func (e *Engine) ProvidersValidate(ctx context.Context, params json.RawMessage) (any, *errinfo.ErrorInfo) {
	var req struct {
		ProviderID string `json:"provider_id"`
	}
	if err := json.Unmarshal(params, &req); err != nil {
		return nil, errinfo.ValidationFailed(errinfo.PhaseProviders, "invalid params")
	}
	e.logger.Debug("providers.validate", "provider_id", req.ProviderID)
	if errInfo := e.validateProviderKey(ctx, req.ProviderID); errInfo != nil {
		return nil, errInfo
	}
	return map[string]any{"ok": true}, nil
}
