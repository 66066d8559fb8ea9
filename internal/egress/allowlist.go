// Package egress pins outbound provider traffic to a fixed set of API hosts.
// Anything else, including plain HTTP and raw IP addresses, is refused before
// a connection is attempted.
package egress

import (
	"fmt"
	"net"
	"net/http"
	"net/url"
	"strings"

	"redraft/engine/internal/llm"
)

// AllowlistRoundTripper wraps a transport and rejects any request whose
// destination falls outside the allowlist. Denials wrap llm.ErrEgressBlocked
// so callers can classify them with errors.Is.
type AllowlistRoundTripper struct {
	Base  http.RoundTripper
	hosts map[string]struct{}
}

// NewAllowlistRoundTripper builds a transport restricted to the given
// hostnames. Matching is case-insensitive and exact; subdomains are not
// implied.
func NewAllowlistRoundTripper(base http.RoundTripper, hosts []string) *AllowlistRoundTripper {
	allowed := make(map[string]struct{}, len(hosts))
	for _, host := range hosts {
		allowed[strings.ToLower(host)] = struct{}{}
	}
	return &AllowlistRoundTripper{Base: base, hosts: allowed}
}

func (rt *AllowlistRoundTripper) RoundTrip(req *http.Request) (*http.Response, error) {
	if err := rt.check(req.URL); err != nil {
		return nil, err
	}
	base := rt.Base
	if base == nil {
		base = http.DefaultTransport
	}
	return base.RoundTrip(req)
}

func (rt *AllowlistRoundTripper) check(u *url.URL) error {
	if u == nil {
		return fmt.Errorf("%w: request without url", llm.ErrEgressBlocked)
	}
	if u.Scheme != "https" {
		return fmt.Errorf("%w: scheme %q", llm.ErrEgressBlocked, u.Scheme)
	}
	host := u.Hostname()
	if host == "" {
		return fmt.Errorf("%w: empty host", llm.ErrEgressBlocked)
	}
	if net.ParseIP(host) != nil {
		return fmt.Errorf("%w: ip literal %s", llm.ErrEgressBlocked, host)
	}
	if _, ok := rt.hosts[strings.ToLower(host)]; !ok {
		return fmt.Errorf("%w: host %q", llm.ErrEgressBlocked, host)
	}
	return nil
}
