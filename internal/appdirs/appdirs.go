// Package appdirs resolves where the binaries keep their state on disk.
package appdirs

import (
	"os"
	"path/filepath"
)

const appDirName = "redraft"

// DataDir returns the root state directory: REDRAFT_DATA_DIR when set,
// otherwise the app directory under the user config dir. Settings, secrets,
// logs, and the store database all live beneath it.
func DataDir() (string, error) {
	if override := os.Getenv("REDRAFT_DATA_DIR"); override != "" {
		return override, nil
	}
	base, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(base, appDirName), nil
}

// DocumentsDir is where the mirror keeps local copies of synced documents.
func DocumentsDir(dataDir string) string {
	return filepath.Join(dataDir, "documents")
}
