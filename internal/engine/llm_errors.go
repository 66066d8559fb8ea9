package engine

import (
	"context"
	"errors"
	"net"

	"redraft/engine/internal/errinfo"
	"redraft/engine/internal/llm"
)

// mapLLMError folds a provider call failure into the structured error shown
// for key validation. Chat and edit never use this path; they fall back to
// the simulation instead of surfacing provider errors.
func mapLLMError(phase, providerID string, err error) *errinfo.ErrorInfo {
	return withProviderID(errorInfoFor(phase, err), providerID)
}

func errorInfoFor(phase string, err error) *errinfo.ErrorInfo {
	switch {
	case errors.Is(err, llm.ErrUnauthorized):
		return errinfo.ProviderAuthFailed(phase)
	case errors.Is(err, llm.ErrEgressBlocked):
		return errinfo.EgressBlocked(phase, "provider endpoint not allowed")
	case errors.Is(err, llm.ErrRateLimited):
		return errinfo.RateLimited(phase)
	case errors.Is(err, llm.ErrUnavailable),
		errors.Is(err, llm.ErrMalformed),
		errors.Is(err, llm.ErrEmptyResponse):
		return errinfo.ProviderUnavailable(phase, err.Error())
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		return errinfo.NetworkUnavailable(phase, err.Error())
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return errinfo.NetworkUnavailable(phase, err.Error())
	}
	return errinfo.ValidationFailed(phase, err.Error())
}
