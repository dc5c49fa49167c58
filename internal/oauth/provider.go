// Package oauth implements the OAuth2 authorization-code login flow for the
// supported external identity providers.
package oauth

import (
	"fmt"

	"golang.org/x/oauth2/github"
)

// Provider is the closed set of supported identity providers.
type Provider int

const (
	Google Provider = iota + 1
	GitHub
	Facebook
)

func (p Provider) String() string {
	switch p {
	case Google:
		return "google"
	case GitHub:
		return "github"
	case Facebook:
		return "facebook"
	default:
		return fmt.Sprintf("provider(%d)", int(p))
	}
}

// valid reports whether p is one of the known providers.
func (p Provider) valid() bool {
	return p == Google || p == GitHub || p == Facebook
}

// Descriptor is the static configuration of a provider.
type Descriptor struct {
	Provider        Provider
	AuthURL         string
	TokenURL        string
	UserInfoURL     string
	EmailsURL       string // github only
	Scope           string
	ClientIDKey     string
	ClientSecretKey string
}

// Name is the wire name of the provider.
func (d Descriptor) Name() string {
	return d.Provider.String()
}

// Registry is an immutable set of provider descriptors.
type Registry struct {
	byName map[string]Descriptor
	order  []string
}

// NewRegistry builds a registry. Descriptors keep their given order.
func NewRegistry(descs ...Descriptor) (*Registry, error) {
	r := &Registry{byName: make(map[string]Descriptor, len(descs))}
	for _, d := range descs {
		if !d.Provider.valid() {
			return nil, fmt.Errorf("%w: %s", ErrUnsupportedProvider, d.Provider)
		}
		if d.AuthURL == "" || d.TokenURL == "" || d.UserInfoURL == "" || d.Scope == "" {
			return nil, fmt.Errorf("descriptor %s: endpoints and scope are required", d.Name())
		}
		if d.ClientIDKey == "" || d.ClientSecretKey == "" {
			return nil, fmt.Errorf("descriptor %s: credential keys are required", d.Name())
		}
		if _, dup := r.byName[d.Name()]; dup {
			return nil, fmt.Errorf("descriptor %s: duplicate provider", d.Name())
		}
		r.byName[d.Name()] = d
		r.order = append(r.order, d.Name())
	}
	return r, nil
}

// DefaultRegistry returns google, github and facebook.
func DefaultRegistry() *Registry {
	r, err := NewRegistry(
		Descriptor{
			Provider:        Google,
			AuthURL:         "https://accounts.google.com/o/oauth2/v2/auth",
			TokenURL:        "https://oauth2.googleapis.com/token",
			UserInfoURL:     "https://www.googleapis.com/oauth2/v2/userinfo",
			Scope:           "openid email profile",
			ClientIDKey:     "GOOGLE_OAUTH2_CLIENT_ID",
			ClientSecretKey: "GOOGLE_OAUTH2_CLIENT_SECRET",
		},
		Descriptor{
			Provider:        GitHub,
			AuthURL:         github.Endpoint.AuthURL,
			TokenURL:        github.Endpoint.TokenURL,
			UserInfoURL:     "https://api.github.com/user",
			EmailsURL:       "https://api.github.com/user/emails",
			Scope:           "user:email",
			ClientIDKey:     "GITHUB_OAUTH2_CLIENT_ID",
			ClientSecretKey: "GITHUB_OAUTH2_CLIENT_SECRET",
		},
		Descriptor{
			Provider:        Facebook,
			AuthURL:         "https://www.facebook.com/v18.0/dialog/oauth",
			TokenURL:        "https://graph.facebook.com/v18.0/oauth/access_token",
			UserInfoURL:     "https://graph.facebook.com/v18.0/me",
			Scope:           "email,public_profile",
			ClientIDKey:     "FACEBOOK_OAUTH2_CLIENT_ID",
			ClientSecretKey: "FACEBOOK_OAUTH2_CLIENT_SECRET",
		},
	)
	if err != nil {
		panic(err)
	}
	return r
}

// Descriptor looks up a provider by wire name.
func (r *Registry) Descriptor(name string) (Descriptor, error) {
	d, ok := r.byName[name]
	if !ok {
		return Descriptor{}, fmt.Errorf("%w: %q", ErrUnsupportedProvider, name)
	}
	return d, nil
}

// Descriptors returns all descriptors in registry order.
func (r *Registry) Descriptors() []Descriptor {
	out := make([]Descriptor, 0, len(r.order))
	for _, name := range r.order {
		out = append(out, r.byName[name])
	}
	return out
}
