package main

import (
	"context"
	"encoding/json"
	"log"
	"os"
	"strings"

	"redraft/engine/internal/appdirs"
	"redraft/engine/internal/engine"
	"redraft/engine/internal/envfile"
	"redraft/engine/internal/envutil"
	"redraft/engine/internal/errinfo"
	"redraft/engine/internal/logging"
	"redraft/engine/internal/rpc"
)

func main() {
	envResult := envfile.Load()
	debug := envutil.Bool("REDRAFT_DEBUG")
	dataDir, err := appdirs.DataDir()
	if err != nil {
		log.Fatalf("engine init failed: %v", err)
	}
	logSetup, logErr := logging.NewFileLogger(dataDir, debug)
	logger := logSetup.Logger
	if logger == nil {
		logger = logging.Nop()
	}
	logger = logger.With("component", "engine")
	if logSetup.Enabled {
		logger.Info("engine.logging_enabled", "path", logSetup.Path)
	}
	if envResult.Loaded {
		logger.Debug("engine.env_loaded", "path", envResult.Path, "keys", envResult.Keys)
	}
	if envResult.Err != nil {
		logger.Warn("engine.env_load_failed", "path", envResult.Path, "error", envResult.Err.Error())
	}
	if logErr != nil {
		logger.Warn("engine.log_setup_failed", "error", logErr.Error())
	}
	if logSetup.Close != nil {
		defer logSetup.Close()
	}

	eng, err := engine.New(engine.WithLogger(logger))
	if err != nil {
		logger.Error("engine.init_failed", "error", err.Error())
		log.Fatalf("engine init failed: %v", err)
	}
	defer eng.Close()
	server := rpc.NewServer(engine.APIVersion, os.Stdin, os.Stdout, logger)
	eng.SetNotifier(server.Notify)

	register := func(method string, fn func(context.Context, json.RawMessage) (any, *errinfo.ErrorInfo)) {
		server.Register(method, func(ctx context.Context, params json.RawMessage) (any, *rpc.Error) {
			result, errInfo := fn(ctx, params)
			if errInfo != nil {
				msg := errInfo.ErrorCode
				if errInfo.Detail != "" {
					msg = errInfo.Detail
				}
				return nil, &rpc.Error{Message: msg, Data: errInfo}
			}
			return result, nil
		})
	}

	register("engine.describe", eng.EngineDescribe)

	register("chat.respond", eng.ChatRespond)
	register("edit.selection", eng.EditSelection)
	register("transform.apply", eng.TransformApply)

	register("providers.list", eng.ProvidersList)
	register("providers.validate", eng.ProvidersValidate)

	register("settings.get", eng.SettingsGet)
	register("settings.update", eng.SettingsUpdate)
	register("secrets.set_provider_key", eng.SecretsSetProviderKey)
	register("secrets.clear_provider_key", eng.SecretsClearProviderKey)

	register("sync.connect", eng.SyncConnect)
	register("sync.disconnect", eng.SyncDisconnect)
	register("sync.send_update", eng.SyncSendUpdate)
	register("sync.status", eng.SyncStatus)

	if syncURL := strings.TrimSpace(os.Getenv("REDRAFT_SYNC_URL")); syncURL != "" {
		params, _ := json.Marshal(map[string]string{"url": syncURL})
		if _, errInfo := eng.SyncConnect(context.Background(), params); errInfo != nil {
			logger.Warn("sync.autoconnect_failed", "url", syncURL, "error", errInfo.ErrorCode)
		}
	}

	if err := server.Serve(context.Background()); err != nil {
		logger.Error("rpc.server_error", "error", err.Error())
		log.Fatalf("rpc server error: %v", err)
	}
}
