// Package envfile loads a dotenv file into the process environment before
// configuration is read. Variables already present in the environment always
// win; the file only fills gaps.
package envfile

import (
	"bufio"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// Entry is one KEY=VALUE pair parsed from a dotenv file, in file order.
type Entry struct {
	Key   string
	Value string
}

// Result reports what Load did, for the startup log line.
type Result struct {
	Path   string
	Loaded bool
	Keys   int
	Err    error
}

// Load resolves the dotenv path and applies it. REDRAFT_ENV_PATH overrides
// discovery; otherwise the nearest .env walking up from the working
// directory is used. A missing file is not an error, only an empty Result.
func Load() Result {
	if override := strings.TrimSpace(os.Getenv("REDRAFT_ENV_PATH")); override != "" {
		return LoadPath(override)
	}
	cwd, err := os.Getwd()
	if err != nil {
		return Result{Err: err}
	}
	path := findUpwards(cwd, ".env")
	if path == "" {
		return Result{}
	}
	return LoadPath(path)
}

// LoadPath parses the file at path and sets every key that is not already in
// the environment.
func LoadPath(path string) Result {
	res := Result{Path: path}
	file, err := os.Open(path)
	if err != nil {
		res.Err = err
		return res
	}
	defer file.Close()
	res.Loaded = true

	entries, err := Parse(file)
	if err != nil {
		res.Err = err
		return res
	}
	for _, entry := range entries {
		if _, exists := os.LookupEnv(entry.Key); exists {
			continue
		}
		if err := os.Setenv(entry.Key, entry.Value); err != nil {
			res.Err = err
			return res
		}
		res.Keys++
	}
	return res
}

// Parse reads dotenv syntax: KEY=VALUE lines, # comments, optional "export "
// prefixes, and single- or double-quoted values. Lines that do not parse are
// skipped rather than failing the whole file.
func Parse(r io.Reader) ([]Entry, error) {
	var entries []Entry
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		line = strings.TrimSpace(strings.TrimPrefix(line, "export "))
		key, value, ok := splitAssignment(line)
		if !ok {
			continue
		}
		entries = append(entries, Entry{Key: key, Value: value})
	}
	if err := scanner.Err(); err != nil {
		return entries, err
	}
	return entries, nil
}

func splitAssignment(line string) (string, string, bool) {
	key, value, found := strings.Cut(line, "=")
	if !found {
		return "", "", false
	}
	key = strings.TrimSpace(key)
	if key == "" {
		return "", "", false
	}
	return key, unquote(strings.TrimSpace(value)), true
}

func unquote(value string) string {
	if len(value) < 2 {
		return value
	}
	first, last := value[0], value[len(value)-1]
	if (first == '"' && last == '"') || (first == '\'' && last == '\'') {
		return value[1 : len(value)-1]
	}
	return value
}

func findUpwards(start, filename string) string {
	for dir := start; ; dir = filepath.Dir(dir) {
		candidate := filepath.Join(dir, filename)
		if _, err := os.Stat(candidate); err == nil {
			return candidate
		}
		if filepath.Dir(dir) == dir {
			return ""
		}
	}
}
