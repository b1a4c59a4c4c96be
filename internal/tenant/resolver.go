package tenant

import (
	"net/http"
	"strings"

	"golang.org/x/net/idna"
)

const (
	DefaultKey       = "d2d"
	DefaultFallback  = "default"
	DefaultLocal     = "localhost"
	DefaultCanonical = "barber-site-pi.vercel.app"
)

// Options configures a Resolver.
type Options struct {
	// DefaultKey is returned for empty, local and canonical hosts.
	DefaultKey string
	// LocalMarker routes any host containing it to the default key.
	LocalMarker string
	// CanonicalHosts are bare deployment hostnames served as the default key.
	CanonicalHosts []string
	// FallbackKey is returned when the host has no usable first label.
	FallbackKey string
	// Mappings route exact hostnames to a tenant key.
	Mappings map[string]string
}

// DefaultOptions returns the settings of the single tenant d2d deployment.
func DefaultOptions() Options {
	return Options{
		DefaultKey:     DefaultKey,
		LocalMarker:    DefaultLocal,
		CanonicalHosts: []string{DefaultCanonical},
		FallbackKey:    DefaultFallback,
	}
}

// Host is an inbound host value prepared for rule matching.
type Host struct {
	// Raw is the value as received.
	Raw string
	// Clean has any http:// or https:// prefix removed and is normalised to
	// lower case ASCII.
	Clean string
	// Labels is Clean split on ".".
	Labels []string
}

// ParseHost prepares a raw host header value.
func ParseHost(raw string) Host {
	clean := raw
	for _, scheme := range []string{"https://", "http://"} {
		if strings.HasPrefix(strings.ToLower(clean), scheme) {
			clean = clean[len(scheme):]
			break
		}
	}
	clean = normalise(clean)

	return Host{
		Raw:    raw,
		Clean:  clean,
		Labels: strings.Split(clean, "."),
	}
}

func normalise(host string) string {
	if host == "" {
		return ""
	}
	if ascii, err := idna.Lookup.ToASCII(host); err == nil {
		return ascii
	}
	return strings.ToLower(host)
}

// Resolution records which rule produced a tenant key.
type Resolution struct {
	Key  string
	Rule string
	Host Host
}

// Resolver maps request hosts to tenant keys by evaluating an ordered rule
// table. The first rule that matches wins.
type Resolver struct {
	rules []Rule
}

// NewResolver builds the standard rule table from opts.
func NewResolver(opts Options) *Resolver {
	if opts.DefaultKey == "" {
		opts.DefaultKey = DefaultKey
	}
	if opts.FallbackKey == "" {
		opts.FallbackKey = DefaultFallback
	}

	rules := []Rule{EmptyHost(opts.DefaultKey)}
	if opts.LocalMarker != "" {
		rules = append(rules, Contains(opts.LocalMarker, opts.DefaultKey))
	}
	if len(opts.Mappings) > 0 {
		rules = append(rules, Exact(opts.Mappings))
	}
	if len(opts.CanonicalHosts) > 0 {
		mappings := make(map[string]string, len(opts.CanonicalHosts))
		for _, h := range opts.CanonicalHosts {
			mappings[h] = opts.DefaultKey
		}
		rules = append(rules, Canonical(mappings))
	}
	rules = append(rules, Subdomain(), WWWSubdomain(), FirstLabel(opts.FallbackKey))

	return NewResolverWithRules(rules...)
}

// NewResolverWithRules builds a resolver from an explicit rule table. The last
// rule should always match, otherwise Resolve falls back to "default".
func NewResolverWithRules(rules ...Rule) *Resolver {
	return &Resolver{rules: rules}
}

// Resolve returns the tenant key for host. It never fails.
func (r *Resolver) Resolve(host string) string {
	return r.ResolveRule(host).Key
}

// ResolveRule returns the tenant key and the name of the rule that chose it.
func (r *Resolver) ResolveRule(host string) Resolution {
	h := ParseHost(host)
	for _, rule := range r.rules {
		if key, ok := rule.Match(h); ok {
			return Resolution{Key: key, Rule: rule.Name, Host: h}
		}
	}
	return Resolution{Key: DefaultFallback, Rule: "none", Host: h}
}

// Rules returns the rule names in evaluation order.
func (r *Resolver) Rules() []string {
	names := make([]string, len(r.rules))
	for i, rule := range r.rules {
		names[i] = rule.Name
	}
	return names
}

// HostFromRequest returns the host a request was addressed to, preferring
// the first X-Forwarded-Host value set by a proxy.
func HostFromRequest(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-Host"); fwd != "" {
		first, _, _ := strings.Cut(fwd, ",")
		if first = strings.TrimSpace(first); first != "" {
			return first
		}
	}
	return r.Host
}
