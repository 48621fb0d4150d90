// Package asset defines how raw asset references become publicly fetchable URLs.
package asset

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/netip"
	"net/url"
	"strings"
)

var (
	// ErrUnresolvable is the sentinel wrapped by every ResolutionFailure.
	ErrUnresolvable = errors.New("asset url not publicly resolvable")

	// ErrNotHandled is returned by a resolver for references outside its scheme.
	ErrNotHandled = errors.New("reference not handled by resolver")
)

// Kind names what an asset is used for. It is only carried for logging.
type Kind string

const (
	KindScene     Kind = "scene"
	KindLogo      Kind = "logo"
	KindWatermark Kind = "watermark"
	KindOutroLogo Kind = "outro-logo"
	KindSceneLogo Kind = "scene-logo"
	KindSFX       Kind = "sfx"
	KindVoiceover Kind = "voiceover"
	KindMusic     Kind = "music"
	KindOverride  Kind = "override"
)

// Resolver turns a raw reference into a public URL.
// A nil error always comes with a non-empty absolute http(s) URL.
type Resolver interface {
	Resolve(ctx context.Context, raw string) (string, error)
}

// ResolutionFailure explains why a reference could not be resolved.
type ResolutionFailure struct {
	RawURL string
	Reason string
}

func (e *ResolutionFailure) Error() string {
	return fmt.Sprintf("resolve %q: %s", e.RawURL, e.Reason)
}

func (e *ResolutionFailure) Unwrap() error {
	return ErrUnresolvable
}

// Unresolvable builds a ResolutionFailure.
func Unresolvable(raw, reason string) error {
	return &ResolutionFailure{RawURL: raw, Reason: reason}
}

// Reason extracts the failure reason from err, falling back to err.Error().
func Reason(err error) string {
	var rf *ResolutionFailure
	if errors.As(err, &rf) {
		return rf.Reason
	}
	if err == nil {
		return ""
	}
	return err.Error()
}

// PublicResolver accepts absolute http(s) URLs on public hosts and rejects
// relative paths, loopback, private and link-local addresses.
type PublicResolver struct {
	allowHTTP bool
}

// NewPublicResolver creates a resolver. When allowHTTP is false only https is accepted.
func NewPublicResolver(allowHTTP bool) *PublicResolver {
	return &PublicResolver{allowHTTP: allowHTTP}
}

var internalSuffixes = []string{".internal", ".local", ".localhost", ".lan", ".svc", ".cluster.local"}

func (r *PublicResolver) Resolve(_ context.Context, raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", Unresolvable(raw, "empty reference")
	}

	u, err := url.Parse(raw)
	if err != nil {
		return "", Unresolvable(raw, "malformed url")
	}
	if !u.IsAbs() || u.Host == "" {
		return "", Unresolvable(raw, "relative reference")
	}

	switch strings.ToLower(u.Scheme) {
	case "https":
	case "http":
		if !r.allowHTTP {
			return "", Unresolvable(raw, "plain http not allowed")
		}
	default:
		return "", fmt.Errorf("%w: scheme %s", ErrNotHandled, u.Scheme)
	}

	host := strings.ToLower(u.Hostname())
	if host == "localhost" {
		return "", Unresolvable(raw, "loopback host")
	}
	for _, suffix := range internalSuffixes {
		if strings.HasSuffix(host, suffix) {
			return "", Unresolvable(raw, "internal host")
		}
	}
	if addr, err := netip.ParseAddr(host); err == nil {
		if !isPublicAddr(addr) {
			return "", Unresolvable(raw, "non-public address")
		}
	} else if !strings.Contains(host, ".") {
		return "", Unresolvable(raw, "unqualified host")
	}

	return u.String(), nil
}

func isPublicAddr(addr netip.Addr) bool {
	ip := net.IP(addr.AsSlice())
	return !(ip.IsLoopback() || ip.IsPrivate() || ip.IsUnspecified() ||
		ip.IsLinkLocalUnicast() || ip.IsLinkLocalMulticast() || ip.IsMulticast())
}

// ChainResolver tries each resolver in order and returns the first success.
// Resolvers answering ErrNotHandled are skipped; the first real failure is reported.
type ChainResolver struct {
	resolvers []Resolver
}

// NewChainResolver creates a chain; nil entries are skipped.
func NewChainResolver(resolvers ...Resolver) *ChainResolver {
	c := &ChainResolver{}
	for _, r := range resolvers {
		if r != nil {
			c.resolvers = append(c.resolvers, r)
		}
	}
	return c
}

func (c *ChainResolver) Resolve(ctx context.Context, raw string) (string, error) {
	if len(c.resolvers) == 0 {
		return "", Unresolvable(raw, "no resolver configured")
	}

	var first error
	for _, r := range c.resolvers {
		resolved, err := r.Resolve(ctx, raw)
		if err == nil {
			return resolved, nil
		}
		if errors.Is(err, ErrNotHandled) {
			continue
		}
		if first == nil {
			first = err
		}
	}
	if first == nil {
		return "", Unresolvable(raw, "no resolver handles this reference")
	}
	return "", first
}

var (
	_ Resolver = (*PublicResolver)(nil)
	_ Resolver = (*ChainResolver)(nil)
)
