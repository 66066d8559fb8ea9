package engine

import (
	"context"
	"errors"
	"testing"
	"time"

	"redraft/engine/internal/llm"
)

func TestSelectorPrefersConfiguredPriorityOrder(t *testing.T) {
	ctx := context.Background()
	eng := newTestEngine(t)
	if _, errInfo := eng.SecretsSetProviderKey(ctx, mustJSON(t, map[string]any{"provider_id": "groq", "api_key": "gsk-test"})); errInfo != nil {
		t.Fatalf("set groq key: %v", errInfo)
	}
	if _, errInfo := eng.SecretsSetProviderKey(ctx, mustJSON(t, map[string]any{"provider_id": "anthropic", "api_key": "sk-ant-test"})); errInfo != nil {
		t.Fatalf("set anthropic key: %v", errInfo)
	}

	sel := eng.selectProvider()
	if sel.providerID != ProviderAnthropic {
		t.Fatalf("expected anthropic, got %q", sel.providerID)
	}
	if sel.apiKey != "sk-ant-test" || sel.model != "claude-3-5-sonnet-latest" {
		t.Fatalf("unexpected selection: key=%q model=%q", sel.apiKey, sel.model)
	}
}

func TestSelectorFallsBackToSimulationWithoutCredentials(t *testing.T) {
	eng := newTestEngine(t)
	sel := eng.selectProvider()
	if sel.providerID != ProviderSimulation {
		t.Fatalf("expected simulation, got %q", sel.providerID)
	}
	if sel.client == nil {
		t.Fatalf("simulation selection must carry a client")
	}
	if eng.activeProvider() != ProviderSimulation {
		t.Fatalf("active provider not recorded, got %q", eng.activeProvider())
	}
}

func TestSelectorSkipsDisabledProvider(t *testing.T) {
	ctx := context.Background()
	eng := newTestEngine(t)
	if _, errInfo := eng.SecretsSetProviderKey(ctx, mustJSON(t, map[string]any{"provider_id": "openai", "api_key": "sk-test"})); errInfo != nil {
		t.Fatalf("set openai key: %v", errInfo)
	}
	if _, errInfo := eng.SecretsSetProviderKey(ctx, mustJSON(t, map[string]any{"provider_id": "anthropic", "api_key": "sk-ant-test"})); errInfo != nil {
		t.Fatalf("set anthropic key: %v", errInfo)
	}
	if _, errInfo := eng.SettingsUpdate(ctx, mustJSON(t, map[string]any{
		"providers": map[string]any{"openai": map[string]any{"enabled": false}},
	})); errInfo != nil {
		t.Fatalf("disable openai: %v", errInfo)
	}

	if sel := eng.selectProvider(); sel.providerID != ProviderAnthropic {
		t.Fatalf("expected anthropic, got %q", sel.providerID)
	}
}

func TestSelectorHonorsEnvKeyAndModelOverride(t *testing.T) {
	ctx := context.Background()
	eng := newTestEngine(t)
	t.Setenv("GROQ_API_KEY", "gsk-env")
	if _, errInfo := eng.SettingsUpdate(ctx, mustJSON(t, map[string]any{
		"providers": map[string]any{"groq": map[string]any{"model": "llama-3.1-8b-instant"}},
	})); errInfo != nil {
		t.Fatalf("override model: %v", errInfo)
	}

	sel := eng.selectProvider()
	if sel.providerID != ProviderGroq {
		t.Fatalf("expected groq, got %q", sel.providerID)
	}
	if sel.apiKey != "gsk-env" {
		t.Fatalf("env key must win, got %q", sel.apiKey)
	}
	if sel.model != "llama-3.1-8b-instant" {
		t.Fatalf("model override not applied, got %q", sel.model)
	}
}

func TestCooldownBenchesProviderAfterRepeatedFailures(t *testing.T) {
	ctx := context.Background()
	eng := newTestEngine(t)
	failing := &scriptedClient{err: errors.New("connection reset")}
	eng.providers[ProviderOpenAI] = failing
	if _, errInfo := eng.SecretsSetProviderKey(ctx, mustJSON(t, map[string]any{"provider_id": "openai", "api_key": "sk-test"})); errInfo != nil {
		t.Fatalf("set key: %v", errInfo)
	}

	for i := 0; i < cooldownThreshold; i++ {
		if _, errInfo := eng.ChatRespond(ctx, mustJSON(t, map[string]any{"message": "hello there"})); errInfo != nil {
			t.Fatalf("chat %d: %v", i, errInfo)
		}
	}
	if failing.calls != cooldownThreshold {
		t.Fatalf("expected %d attempts, got %d", cooldownThreshold, failing.calls)
	}
	if !eng.inCooldown(ProviderOpenAI) {
		t.Fatalf("provider should be benched")
	}

	if _, errInfo := eng.ChatRespond(ctx, mustJSON(t, map[string]any{"message": "hello again"})); errInfo != nil {
		t.Fatalf("chat while benched: %v", errInfo)
	}
	if failing.calls != cooldownThreshold {
		t.Fatalf("benched provider was still called: %d", failing.calls)
	}
	if eng.activeProvider() != ProviderSimulation {
		t.Fatalf("expected simulation while benched, got %q", eng.activeProvider())
	}

	eng.now = func() time.Time { return time.Now().Add(cooldownWindow + time.Second) }
	failing.err = nil
	failing.turn = llm.Turn{Action: llm.ActionChat, Message: "Back online."}
	resp, errInfo := eng.ChatRespond(ctx, mustJSON(t, map[string]any{"message": "hello once more"}))
	if errInfo != nil {
		t.Fatalf("chat after window: %v", errInfo)
	}
	if turn := resp.(llm.Turn); turn.Message != "Back online." {
		t.Fatalf("expected provider reply after cooldown, got %+v", turn)
	}
	if failing.calls != cooldownThreshold+1 {
		t.Fatalf("expected retry after window, got %d calls", failing.calls)
	}
	if _, _, consecutive := eng.scoreSnapshot(ProviderOpenAI); consecutive != 0 {
		t.Fatalf("success must reset the streak, got %d", consecutive)
	}
}

func TestActiveProviderChangeIsNotified(t *testing.T) {
	ctx := context.Background()
	eng := newTestEngine(t)
	eng.providers[ProviderOpenAI] = &scriptedClient{turn: llm.Turn{Action: llm.ActionChat, Message: "Hi."}}
	if _, errInfo := eng.SecretsSetProviderKey(ctx, mustJSON(t, map[string]any{"provider_id": "openai", "api_key": "sk-test"})); errInfo != nil {
		t.Fatalf("set key: %v", errInfo)
	}

	type event struct {
		method     string
		providerID string
	}
	events := []event{}
	eng.SetNotifier(func(method string, params any) {
		ev := event{method: method}
		if fields, ok := params.(map[string]any); ok {
			if id, ok := fields["provider_id"].(string); ok {
				ev.providerID = id
			}
		}
		events = append(events, ev)
	})

	if _, errInfo := eng.ChatRespond(ctx, mustJSON(t, map[string]any{"message": "hello"})); errInfo != nil {
		t.Fatalf("chat: %v", errInfo)
	}
	if _, errInfo := eng.SecretsClearProviderKey(ctx, mustJSON(t, map[string]any{"provider_id": "openai"})); errInfo != nil {
		t.Fatalf("clear key: %v", errInfo)
	}
	if _, errInfo := eng.ChatRespond(ctx, mustJSON(t, map[string]any{"message": "hello again"})); errInfo != nil {
		t.Fatalf("chat without key: %v", errInfo)
	}

	if len(events) != 2 {
		t.Fatalf("expected two active changes, got %v", events)
	}
	if events[0].method != "providers.active_changed" || events[0].providerID != ProviderOpenAI {
		t.Fatalf("unexpected first event: %+v", events[0])
	}
	if events[1].method != "providers.active_changed" || events[1].providerID != ProviderSimulation {
		t.Fatalf("unexpected second event: %+v", events[1])
	}
}
