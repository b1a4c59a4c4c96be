package tenant

import "strings"

// Rule is one entry of the resolver's rule table. Match reports the tenant key
// when the rule applies to the host.
type Rule struct {
	Name  string
	Match func(Host) (string, bool)
}

// EmptyHost matches a missing host header.
func EmptyHost(key string) Rule {
	return Rule{
		Name: "empty-host",
		Match: func(h Host) (string, bool) {
			return key, strings.TrimSpace(h.Raw) == ""
		},
	}
}

// Contains matches any host containing marker, used for local development.
func Contains(marker, key string) Rule {
	marker = strings.ToLower(marker)
	return Rule{
		Name: "local",
		Match: func(h Host) (string, bool) {
			return key, strings.Contains(h.Clean, marker)
		},
	}
}

// Exact matches configured hostnames.
func Exact(mappings map[string]string) Rule {
	return exact("host-mapping", mappings)
}

// Canonical matches the bare production hostnames.
func Canonical(mappings map[string]string) Rule {
	return exact("canonical", mappings)
}

func exact(name string, mappings map[string]string) Rule {
	normalised := make(map[string]string, len(mappings))
	for host, key := range mappings {
		normalised[ParseHost(host).Clean] = key
	}
	return Rule{
		Name: name,
		Match: func(h Host) (string, bool) {
			key, ok := normalised[h.Clean]
			return key, ok
		},
	}
}

// Subdomain matches hosts with more than two labels whose first label is not
// "www", returning the first label.
func Subdomain() Rule {
	return Rule{
		Name: "subdomain",
		Match: func(h Host) (string, bool) {
			if len(h.Labels) > 2 && h.Labels[0] != "www" {
				return h.Labels[0], true
			}
			return "", false
		},
	}
}

// WWWSubdomain matches hosts of the form www.<key>.<domain>.<tld>.
func WWWSubdomain() Rule {
	return Rule{
		Name: "www-subdomain",
		Match: func(h Host) (string, bool) {
			if len(h.Labels) > 3 && h.Labels[0] == "www" && h.Labels[1] != "" {
				return h.Labels[1], true
			}
			return "", false
		},
	}
}

// FirstLabel always matches, returning the first label or fallback when it is
// empty.
func FirstLabel(fallback string) Rule {
	return Rule{
		Name: "first-label",
		Match: func(h Host) (string, bool) {
			if len(h.Labels) > 0 && h.Labels[0] != "" {
				return h.Labels[0], true
			}
			return fallback, true
		},
	}
}
