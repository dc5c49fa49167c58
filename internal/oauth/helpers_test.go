package oauth

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

// fakeProvider serves token, user-info and emails endpoints for every
// provider under /<name>/... and records what it received.
type fakeProvider struct {
	t      *testing.T
	server *httptest.Server

	mu          sync.Mutex
	tokenStatus int
	tokenBody   interface{}
	infoStatus  int
	profile     map[string]interface{}
	emailStatus int
	emails      interface{}

	tokenForms []url.Values
	infoAuth   []string
	infoQuery  []url.Values
	emailAuth  []string
}

func newFakeProvider(t *testing.T) *fakeProvider {
	t.Helper()

	f := &fakeProvider{
		t:           t,
		tokenStatus: http.StatusOK,
		tokenBody:   map[string]interface{}{"access_token": "T", "token_type": "bearer"},
		infoStatus:  http.StatusOK,
		profile:     map[string]interface{}{},
		emailStatus: http.StatusOK,
		emails:      []interface{}{},
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/token", func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		f.mu.Lock()
		f.tokenForms = append(f.tokenForms, r.PostForm)
		status, body := f.tokenStatus, f.tokenBody
		f.mu.Unlock()

		if r.Header.Get("Accept") != "application/json" {
			w.WriteHeader(http.StatusNotAcceptable)
			return
		}
		writeFakeJSON(w, status, body)
	})
	mux.HandleFunc("/userinfo", func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		f.infoAuth = append(f.infoAuth, r.Header.Get("Authorization"))
		f.infoQuery = append(f.infoQuery, r.URL.Query())
		status, body := f.infoStatus, f.profile
		f.mu.Unlock()
		writeFakeJSON(w, status, body)
	})
	mux.HandleFunc("/emails", func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		f.emailAuth = append(f.emailAuth, r.Header.Get("Authorization"))
		status, body := f.emailStatus, f.emails
		f.mu.Unlock()
		writeFakeJSON(w, status, body)
	})

	f.server = httptest.NewServer(mux)
	t.Cleanup(f.server.Close)
	return f
}

func writeFakeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func (f *fakeProvider) registry() *Registry {
	f.t.Helper()

	base := f.server.URL
	descs := []Descriptor{
		{Provider: Google, Scope: "openid email profile", ClientIDKey: "GOOGLE_OAUTH2_CLIENT_ID", ClientSecretKey: "GOOGLE_OAUTH2_CLIENT_SECRET"},
		{Provider: GitHub, Scope: "user:email", ClientIDKey: "GITHUB_OAUTH2_CLIENT_ID", ClientSecretKey: "GITHUB_OAUTH2_CLIENT_SECRET", EmailsURL: base + "/emails"},
		{Provider: Facebook, Scope: "email,public_profile", ClientIDKey: "FACEBOOK_OAUTH2_CLIENT_ID", ClientSecretKey: "FACEBOOK_OAUTH2_CLIENT_SECRET"},
	}
	for i := range descs {
		descs[i].AuthURL = "https://auth.example/" + descs[i].Name()
		descs[i].TokenURL = base + "/token"
		descs[i].UserInfoURL = base + "/userinfo"
	}

	r, err := NewRegistry(descs...)
	require.NoError(f.t, err)
	return r
}

func (f *fakeProvider) config(p Provider) Config {
	f.t.Helper()

	resolver := NewResolver(f.registry(), allCredentials())
	cfg, err := resolver.Resolve(p.String())
	require.NoError(f.t, err)
	return cfg
}

func (f *fakeProvider) set(fn func(f *fakeProvider)) {
	f.mu.Lock()
	defer f.mu.Unlock()
	fn(f)
}

func (f *fakeProvider) forms() []url.Values {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]url.Values(nil), f.tokenForms...)
}

func (f *fakeProvider) userInfoCalls() (auth []string, query []url.Values) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.infoAuth...), append([]url.Values(nil), f.infoQuery...)
}

func (f *fakeProvider) emailCalls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.emailAuth...)
}

func allCredentials() MapSource {
	return MapSource{
		"GOOGLE_OAUTH2_CLIENT_ID":       "google-id",
		"GOOGLE_OAUTH2_CLIENT_SECRET":   "google-secret",
		"GITHUB_OAUTH2_CLIENT_ID":       "github-id",
		"GITHUB_OAUTH2_CLIENT_SECRET":   "github-secret",
		"FACEBOOK_OAUTH2_CLIENT_ID":     "facebook-id",
		"FACEBOOK_OAUTH2_CLIENT_SECRET": "facebook-secret",
	}
}
