package engine

import (
	"strings"
	"time"
)

const (
	// cooldownThreshold is the consecutive-failure count that benches a
	// provider; cooldownWindow is how long it stays benched.
	cooldownThreshold = 3
	cooldownWindow    = 30 * time.Second
)

type providerScore struct {
	successes   int
	failures    int
	consecutive int
	lastFailure time.Time
}

// selection carries everything a call needs so the credential and model are
// resolved exactly once per operation.
type selection struct {
	providerID string
	client     LLMClient
	apiKey     string
	model      string
}

// scoreFor returns the live score row. Callers hold scoreMu.
func (e *Engine) scoreFor(providerID string) *providerScore {
	score, ok := e.scores[providerID]
	if !ok {
		score = &providerScore{}
		e.scores[providerID] = score
	}
	return score
}

func (e *Engine) recordSuccess(providerID string) {
	e.scoreMu.Lock()
	defer e.scoreMu.Unlock()
	score := e.scoreFor(providerID)
	score.successes++
	score.consecutive = 0
}

func (e *Engine) recordFailure(providerID string) {
	e.scoreMu.Lock()
	score := e.scoreFor(providerID)
	score.failures++
	score.consecutive++
	score.lastFailure = e.now()
	consecutive := score.consecutive
	e.scoreMu.Unlock()
	if consecutive == cooldownThreshold {
		e.logger.Warn("providers.cooldown",
			"provider_id", providerID,
			"consecutive_failures", consecutive,
			"window", cooldownWindow.String())
	}
}

func (e *Engine) scoreSnapshot(providerID string) (successes, failures, consecutive int) {
	e.scoreMu.Lock()
	defer e.scoreMu.Unlock()
	score, ok := e.scores[providerID]
	if !ok {
		return 0, 0, 0
	}
	return score.successes, score.failures, score.consecutive
}

// inCooldown reports whether repeated consecutive failures have benched the
// provider. The simulation never cools down.
func (e *Engine) inCooldown(providerID string) bool {
	if providerID == ProviderSimulation {
		return false
	}
	e.scoreMu.Lock()
	defer e.scoreMu.Unlock()
	score, ok := e.scores[providerID]
	if !ok {
		return false
	}
	if score.consecutive < cooldownThreshold {
		return false
	}
	return e.now().Sub(score.lastFailure) < cooldownWindow
}

// selectProvider re-evaluates the ranked list on every call: enabled, with a
// resolvable credential, and not benched. The simulation is the terminal
// fallback, so a usable selection always exists.
func (e *Engine) selectProvider() selection {
	for _, info := range rankedProviders() {
		if !info.RequiresKey {
			break
		}
		if e.inCooldown(info.ProviderID) {
			continue
		}
		enabled, errInfo := e.providerEnabled(info.ProviderID)
		if errInfo != nil || !enabled {
			continue
		}
		key, errInfo := e.providerKey(info.ProviderID)
		if errInfo != nil || strings.TrimSpace(key) == "" {
			continue
		}
		client, ok := e.providers[info.ProviderID]
		if !ok {
			continue
		}
		return e.activate(selection{
			providerID: info.ProviderID,
			client:     client,
			apiKey:     key,
			model:      e.modelForProvider(info.ProviderID),
		})
	}
	return e.activate(selection{
		providerID: ProviderSimulation,
		client:     e.providers[ProviderSimulation],
	})
}

// activate records the selection and announces a change of active provider.
func (e *Engine) activate(sel selection) selection {
	e.scoreMu.Lock()
	changed := e.active != sel.providerID
	e.active = sel.providerID
	e.scoreMu.Unlock()
	if changed {
		e.logger.Info("providers.active_changed", "provider_id", sel.providerID)
		e.emit("providers.active_changed", map[string]any{"provider_id": sel.providerID})
	}
	return sel
}

func (e *Engine) activeProvider() string {
	e.scoreMu.Lock()
	defer e.scoreMu.Unlock()
	return e.active
}
