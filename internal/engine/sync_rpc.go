package engine

import (
	"context"
	"encoding/json"
	"strings"

	"redraft/engine/internal/errinfo"
	docsync "redraft/engine/internal/sync"
)

// ensureChannel builds the sync channel on first use and wires its callbacks
// into engine notifications.
func (e *Engine) ensureChannel(url string, queueSize int) *docsync.Channel {
	e.syncMu.Lock()
	defer e.syncMu.Unlock()
	if e.syncChannel != nil {
		return e.syncChannel
	}
	channel := e.newChannel(url, queueSize)
	channel.OnState(func(state docsync.State, detail string) {
		e.logger.Info("sync.state_changed", "state", string(state), "detail", detail)
		e.emit("sync.state_changed", map[string]any{"state": string(state), "detail": detail})
	})
	channel.OnDocument(func(snapshot string) {
		e.logger.Debug("sync.document_updated", "bytes", len(snapshot))
		e.emit("sync.document_updated", map[string]any{"snapshot": snapshot})
	})
	e.syncChannel = channel
	return channel
}

// SyncConnect opens the document channel. The URL comes from the request or
// falls back to settings; connecting to a different URL replaces the channel.
func (e *Engine) SyncConnect(ctx context.Context, params json.RawMessage) (any, *errinfo.ErrorInfo) {
	var req struct {
		URL string `json:"url"`
	}
	if len(params) > 0 {
		if err := json.Unmarshal(params, &req); err != nil {
			return nil, errinfo.ValidationFailed(errinfo.PhaseSync, "invalid params")
		}
	}
	settingsData, err := e.settings.Load()
	if err != nil {
		return nil, errinfo.FileReadFailed(errinfo.PhaseSync, err.Error())
	}
	url := strings.TrimSpace(req.URL)
	if url == "" {
		url = strings.TrimSpace(settingsData.Sync.URL)
	}
	if url == "" {
		return nil, errinfo.ValidationFailed(errinfo.PhaseSync, "no sync url configured")
	}
	e.syncMu.Lock()
	existing := e.syncChannel
	e.syncMu.Unlock()
	if existing != nil && existing.URL() != url {
		existing.Close()
		e.syncMu.Lock()
		e.syncChannel = nil
		e.syncMu.Unlock()
	}
	channel := e.ensureChannel(url, settingsData.Sync.QueueSize)
	channel.Connect()
	e.logger.Info("sync.connect", "url", url)
	return map[string]any{"state": string(channel.State())}, nil
}

// SyncDisconnect stops the channel deliberately. Queued snapshots survive for
// a later reconnect.
func (e *Engine) SyncDisconnect(ctx context.Context, _ json.RawMessage) (any, *errinfo.ErrorInfo) {
	e.syncMu.Lock()
	channel := e.syncChannel
	e.syncMu.Unlock()
	if channel != nil {
		channel.Close()
		e.logger.Info("sync.disconnect")
	}
	return map[string]any{}, nil
}

// SyncSendUpdate transmits a full-document snapshot, fire and forget. While
// the channel is down the snapshot queues; without a channel it is an error.
func (e *Engine) SyncSendUpdate(ctx context.Context, params json.RawMessage) (any, *errinfo.ErrorInfo) {
	var req struct {
		Snapshot string `json:"snapshot"`
	}
	if err := json.Unmarshal(params, &req); err != nil {
		return nil, errinfo.ValidationFailed(errinfo.PhaseSync, "invalid params")
	}
	e.syncMu.Lock()
	channel := e.syncChannel
	e.syncMu.Unlock()
	if channel == nil {
		return nil, errinfo.SyncNotConnected(errinfo.PhaseSync)
	}
	channel.Send(req.Snapshot)
	return map[string]any{}, nil
}

func (e *Engine) SyncStatus(ctx context.Context, _ json.RawMessage) (any, *errinfo.ErrorInfo) {
	e.syncMu.Lock()
	channel := e.syncChannel
	e.syncMu.Unlock()
	if channel == nil {
		return map[string]any{"state": string(docsync.StateDisconnected), "queued": 0}, nil
	}
	status := channel.Status()
	return map[string]any{"state": string(status.State), "url": status.URL, "queued": status.Queued}, nil
}
