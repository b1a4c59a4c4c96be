package tenant

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Flags holds the resolver settings exposed on the command line.
type Flags struct {
	DefaultTenant  string   `help:"tenant key served for empty, local and canonical hosts" default:"d2d" env:"SITEFRONT_DEFAULT_TENANT"`
	CanonicalHost  []string `help:"bare production hostnames mapped to the default tenant" default:"barber-site-pi.vercel.app" env:"SITEFRONT_CANONICAL_HOST"`
	LocalMarker    string   `help:"hosts containing this marker resolve to the default tenant" default:"localhost" env:"SITEFRONT_LOCAL_MARKER"`
	FallbackTenant string   `help:"tenant key used when the host has no usable label" default:"default" env:"SITEFRONT_FALLBACK_TENANT"`
	DevHostAlias   []string `help:"tenant keys that skip the subdomain check in development" default:"localhost:3000,localhost:3001" env:"SITEFRONT_DEV_HOST_ALIAS"`
	HostRules      string   `help:"optional YAML file of exact host to tenant mappings" default:"" env:"SITEFRONT_HOST_RULES" type:"path"`
}

// Options converts the flags into resolver options, loading the host rules
// file when one is configured.
func (f *Flags) Options() (Options, error) {
	opts := Options{
		DefaultKey:     f.DefaultTenant,
		LocalMarker:    f.LocalMarker,
		CanonicalHosts: f.CanonicalHost,
		FallbackKey:    f.FallbackTenant,
	}
	if f.HostRules == "" {
		return opts, nil
	}

	mappings, err := LoadRules(f.HostRules)
	if err != nil {
		return Options{}, err
	}
	opts.Mappings = mappings
	return opts, nil
}

// RulesFile is the on-disk layout of the host rules file:
//
//	hosts:
//	  - host: shop.example.com
//	    tenant: d2d
type RulesFile struct {
	Hosts []HostMapping `yaml:"hosts"`
}

// HostMapping routes one exact hostname to a tenant key.
type HostMapping struct {
	Host   string `yaml:"host"`
	Tenant string `yaml:"tenant"`
}

// LoadRules reads a host rules file into a hostname to tenant key map.
func LoadRules(path string) (map[string]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read host rules: %w", err)
	}
	return ParseRules(data)
}

// ParseRules decodes host rules, rejecting incomplete and duplicate entries.
func ParseRules(data []byte) (map[string]string, error) {
	var file RulesFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse host rules: %w", err)
	}

	mappings := make(map[string]string, len(file.Hosts))
	for i, m := range file.Hosts {
		host := strings.TrimSpace(m.Host)
		if host == "" || strings.TrimSpace(m.Tenant) == "" {
			return nil, fmt.Errorf("host rule %d: host and tenant are required", i)
		}
		clean := ParseHost(host).Clean
		if _, ok := mappings[clean]; ok {
			return nil, fmt.Errorf("host rule %d: %w: %s", i, ErrDuplicateHost, host)
		}
		mappings[clean] = strings.TrimSpace(m.Tenant)
	}

	return mappings, nil
}

// ErrDuplicateHost is returned when a host appears twice in the rules file.
var ErrDuplicateHost = errors.New("duplicate host rule")
