package errinfo

// ErrorInfo is the structured error payload returned over RPC.
type ErrorInfo struct {
	ErrorCode  string   `json:"error_code"`
	Phase      string   `json:"phase,omitempty"`
	Retryable  bool     `json:"retryable"`
	Actions    []string `json:"actions,omitempty"`
	ProviderID string   `json:"provider_id,omitempty"`
	Detail     string   `json:"detail,omitempty"`
}

const (
	CodeEgressBlocked         = "EGRESS_BLOCKED_BY_POLICY"
	CodeProviderNotConfigured = "PROVIDER_NOT_CONFIGURED"
	CodeProviderAuthFailed    = "PROVIDER_AUTH_FAILED"
	CodeProviderUnavailable   = "PROVIDER_UNAVAILABLE"
	CodeNetworkUnavailable    = "NETWORK_UNAVAILABLE"
	CodeRateLimited           = "RATE_LIMITED"
	CodeValidationFailed      = "VALIDATION_FAILED"
	CodeFileReadFailed        = "FILE_READ_FAILED"
	CodeFileWriteFailed       = "FILE_WRITE_FAILED"
	CodeSyncNotConnected      = "SYNC_NOT_CONNECTED"
)

const (
	ActionRetry        = "retry"
	ActionOpenSettings = "open_settings"
	ActionReconnect    = "reconnect"
)

const (
	PhaseChat      = "chat"
	PhaseEdit      = "edit"
	PhaseTransform = "transform"
	PhaseProviders = "providers"
	PhaseSettings  = "settings"
	PhaseSync      = "sync"
)

func ProviderNotConfigured(phase string) *ErrorInfo {
	return &ErrorInfo{
		ErrorCode: CodeProviderNotConfigured,
		Phase:     phase,
		Retryable: false,
		Actions:   []string{ActionOpenSettings},
	}
}

func ProviderAuthFailed(phase string) *ErrorInfo {
	return &ErrorInfo{
		ErrorCode: CodeProviderAuthFailed,
		Phase:     phase,
		Retryable: false,
		Actions:   []string{ActionOpenSettings},
	}
}

func ProviderUnavailable(phase, detail string) *ErrorInfo {
	return &ErrorInfo{
		ErrorCode: CodeProviderUnavailable,
		Phase:     phase,
		Retryable: true,
		Actions:   []string{ActionRetry},
		Detail:    detail,
	}
}

func NetworkUnavailable(phase, detail string) *ErrorInfo {
	return &ErrorInfo{
		ErrorCode: CodeNetworkUnavailable,
		Phase:     phase,
		Retryable: true,
		Actions:   []string{ActionRetry},
		Detail:    detail,
	}
}

func RateLimited(phase string) *ErrorInfo {
	return &ErrorInfo{
		ErrorCode: CodeRateLimited,
		Phase:     phase,
		Retryable: true,
		Actions:   []string{ActionRetry},
	}
}

func ValidationFailed(phase, detail string) *ErrorInfo {
	return &ErrorInfo{
		ErrorCode: CodeValidationFailed,
		Phase:     phase,
		Retryable: false,
		Detail:    detail,
	}
}

func FileReadFailed(phase, detail string) *ErrorInfo {
	return &ErrorInfo{
		ErrorCode: CodeFileReadFailed,
		Phase:     phase,
		Retryable: false,
		Detail:    detail,
	}
}

func FileWriteFailed(phase, detail string) *ErrorInfo {
	return &ErrorInfo{
		ErrorCode: CodeFileWriteFailed,
		Phase:     phase,
		Retryable: false,
		Detail:    detail,
	}
}

func EgressBlocked(phase, detail string) *ErrorInfo {
	return &ErrorInfo{
		ErrorCode: CodeEgressBlocked,
		Phase:     phase,
		Retryable: false,
		Detail:    detail,
	}
}

func SyncNotConnected(phase string) *ErrorInfo {
	return &ErrorInfo{
		ErrorCode: CodeSyncNotConnected,
		Phase:     phase,
		Retryable: true,
		Actions:   []string{ActionReconnect},
	}
}
