package oauth

import (
	"fmt"
	"os"

	"golang.org/x/oauth2"
)

// CredentialSource supplies provider client credentials by key.
type CredentialSource interface {
	Lookup(key string) string
}

// EnvSource reads the process environment on every lookup.
type EnvSource struct{}

func (EnvSource) Lookup(key string) string { return os.Getenv(key) }

// MapSource is a fixed credential set, used in tests.
type MapSource map[string]string

func (m MapSource) Lookup(key string) string { return m[key] }

// Config is a descriptor with its resolved client credentials.
type Config struct {
	Descriptor
	ClientID     string
	ClientSecret string
}

// OAuth2 renders cfg as an x/oauth2 config for redirectURI. The scope string
// is passed through unchanged since providers differ on the separator.
func (c Config) OAuth2(redirectURI string) *oauth2.Config {
	return &oauth2.Config{
		ClientID:     c.ClientID,
		ClientSecret: c.ClientSecret,
		RedirectURL:  redirectURI,
		Scopes:       []string{c.Scope},
		Endpoint: oauth2.Endpoint{
			AuthURL:   c.AuthURL,
			TokenURL:  c.TokenURL,
			AuthStyle: oauth2.AuthStyleInParams,
		},
	}
}

// ProviderInfo is the public listing entry for a configured provider.
type ProviderInfo struct {
	Name  string `json:"name"`
	Scope string `json:"scope"`
}

// Resolver turns provider names into credentialed configs. Credentials are
// read on every call.
type Resolver struct {
	registry *Registry
	source   CredentialSource
}

// NewResolver creates a resolver over registry and source.
func NewResolver(registry *Registry, source CredentialSource) *Resolver {
	return &Resolver{registry: registry, source: source}
}

// Resolve fails with ErrUnsupportedProvider or ErrMissingCredentials.
func (r *Resolver) Resolve(name string) (Config, error) {
	d, err := r.registry.Descriptor(name)
	if err != nil {
		return Config{}, err
	}

	id := r.source.Lookup(d.ClientIDKey)
	secret := r.source.Lookup(d.ClientSecretKey)
	if id == "" || secret == "" {
		return Config{}, fmt.Errorf("%w: %s", ErrMissingCredentials, name)
	}

	return Config{Descriptor: d, ClientID: id, ClientSecret: secret}, nil
}

// Available lists providers whose credentials are both set.
func (r *Resolver) Available() []ProviderInfo {
	out := []ProviderInfo{}
	for _, d := range r.registry.Descriptors() {
		if _, err := r.Resolve(d.Name()); err != nil {
			continue
		}
		out = append(out, ProviderInfo{Name: d.Name(), Scope: d.Scope})
	}
	return out
}
