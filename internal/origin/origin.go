// Package origin derives the identifier that keys brute-force guard state:
// the client IP when one can be determined, otherwise a generated
// pseudo-unique fallback token so the guard still functions.
package origin

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
)

const fallbackPrefix = "user_"

// Fallback returns a generated origin identifier. It is not stable across
// processes, which is accepted: the guard degrades to per-process tracking
// when no address is available.
func Fallback() string {
	return fallbackPrefix + uuid.NewString()
}

// IsFallback reports whether key was produced by Fallback.
func IsFallback(key string) bool {
	return strings.HasPrefix(key, fallbackPrefix)
}

// KeyFromRequest extracts the client address from the request, honoring
// X-Forwarded-For (first hop) and X-Real-IP before the socket address.
// Returns "" when nothing usable is present.
func KeyFromRequest(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		parts := strings.Split(xff, ",")
		if ip := strings.TrimSpace(parts[0]); ip != "" {
			return ip
		}
	}
	if rip := strings.TrimSpace(r.Header.Get("X-Real-IP")); rip != "" {
		return rip
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return strings.TrimSpace(r.RemoteAddr)
	}
	return host
}

// Resolver queries an external ip-echo service for the caller's public
// address. Used where no inbound request supplies one.
type Resolver struct {
	endpoint string
	client   *http.Client
}

// NewResolver constructs a Resolver against the given echo endpoint. The
// endpoint is expected to answer GET with {"ip":"..."}.
func NewResolver(endpoint string, timeout time.Duration) *Resolver {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &Resolver{
		endpoint: endpoint,
		client:   &http.Client{Timeout: timeout},
	}
}

// Resolve returns the public address, or an error when the echo service is
// unreachable or answers garbage. Callers substitute Fallback on error.
func (r *Resolver) Resolve(ctx context.Context) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, r.endpoint, nil)
	if err != nil {
		return "", err
	}
	resp, err := r.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("ip echo status %d", resp.StatusCode)
	}
	var payload struct {
		IP string `json:"ip"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return "", err
	}
	ip := strings.TrimSpace(payload.IP)
	if ip == "" {
		return "", fmt.Errorf("ip echo returned empty address")
	}
	return ip, nil
}
