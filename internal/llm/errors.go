package llm

import "errors"

var (
	ErrUnauthorized  = errors.New("llm unauthorized")
	ErrUnavailable   = errors.New("llm unavailable")
	ErrEgressBlocked = errors.New("egress blocked")
	ErrRateLimited   = errors.New("llm rate limited")
	ErrMalformed     = errors.New("llm malformed response")
	ErrEmptyResponse = errors.New("llm empty response")
	ErrUnusableTurn  = errors.New("llm unusable turn")
)

// Kind folds any provider error into the three failure classes the
// orchestrator cares about. Every kind triggers the same fallback; the kind
// only drives logging and provider scoring.
type Kind int

const (
	// KindNetwork covers transport failures, blocked egress, auth
	// rejections, rate limits, and provider-side outages.
	KindNetwork Kind = iota
	// KindDecode covers responses that arrived but could not be decoded or
	// carried no usable content field.
	KindDecode
	// KindLogic covers decoded responses whose action is unusable, such as a
	// modification without replacement content.
	KindLogic
)

func (k Kind) String() string {
	switch k {
	case KindDecode:
		return "decode"
	case KindLogic:
		return "logic"
	default:
		return "network"
	}
}

// Classify maps an adapter error onto its failure kind. Errors this layer
// did not mint itself are transport failures, so network is the default.
func Classify(err error) Kind {
	switch {
	case errors.Is(err, ErrMalformed), errors.Is(err, ErrEmptyResponse):
		return KindDecode
	case errors.Is(err, ErrUnusableTurn):
		return KindLogic
	default:
		return KindNetwork
	}
}
