package logging

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Fields that carry credentials, by exact name or suffix. Suffix matching
// keeps new provider key fields covered without touching this file.
var secretFields = map[string]struct{}{
	"api_key":       {},
	"apikey":        {},
	"authorization": {},
	"token":         {},
	"secret":        {},
}

var secretSuffixes = []string{"_api_key", "_token", "_secret"}

const maskKeep = 4

// RedactValue masks a credential, keeping the last few characters so log
// lines can still distinguish keys. A Bearer prefix survives the masking.
func RedactValue(value string) string {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return ""
	}
	if rest, ok := strings.CutPrefix(trimmed, "Bearer "); ok {
		return "Bearer " + mask(rest)
	}
	if rest, ok := strings.CutPrefix(trimmed, "bearer "); ok {
		return "Bearer " + mask(rest)
	}
	return mask(trimmed)
}

// RedactAny walks a decoded JSON value and masks every field whose name
// marks it as a credential. Non-container values pass through untouched.
func RedactAny(value any) any {
	switch typed := value.(type) {
	case map[string]any:
		out := make(map[string]any, len(typed))
		for key, val := range typed {
			out[key] = redactField(key, val)
		}
		return out
	case map[string]string:
		out := make(map[string]string, len(typed))
		for key, val := range typed {
			if isSecretField(key) {
				out[key] = RedactValue(val)
			} else {
				out[key] = val
			}
		}
		return out
	case []any:
		out := make([]any, len(typed))
		for i, val := range typed {
			out[i] = RedactAny(val)
		}
		return out
	default:
		return value
	}
}

// RedactJSON decodes raw params and redacts them for logging. Bytes that do
// not decode are logged as-is; they cannot be keyed fields.
func RedactJSON(raw json.RawMessage) any {
	if len(raw) == 0 {
		return nil
	}
	var payload any
	if err := json.Unmarshal(raw, &payload); err != nil {
		return strings.TrimSpace(string(raw))
	}
	return RedactAny(payload)
}

func redactField(key string, val any) any {
	if isSecretField(key) {
		return RedactValue(fmt.Sprint(val))
	}
	return RedactAny(val)
}

func isSecretField(key string) bool {
	k := strings.ToLower(strings.TrimSpace(key))
	if _, ok := secretFields[k]; ok {
		return true
	}
	for _, suffix := range secretSuffixes {
		if strings.HasSuffix(k, suffix) {
			return true
		}
	}
	return false
}

func mask(value string) string {
	if value == "" {
		return ""
	}
	if len(value) <= maskKeep {
		return "****"
	}
	return "****" + value[len(value)-maskKeep:]
}
