package oauth

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/oauth2"
)

// maxBodyBytes caps how much of a provider response is read.
const maxBodyBytes = 1 << 20

// Client talks to provider token and profile endpoints.
type Client struct {
	httpClient *http.Client
	logger     zerolog.Logger
}

// NewClient wraps httpClient. A nil client gets a 10s timeout default.
func NewClient(httpClient *http.Client, logger zerolog.Logger) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 10 * time.Second}
	}
	return &Client{httpClient: httpClient, logger: logger}
}

// TokenResponse is the provider's token endpoint JSON body, unmodified.
type TokenResponse map[string]interface{}

// AccessToken returns the access_token field, or "".
func (t TokenResponse) AccessToken() string {
	s, _ := t["access_token"].(string)
	return s
}

// Profile is a raw provider user-info document.
type Profile map[string]interface{}

// Exchange trades an authorization code for a token response. grant_type is
// sent only to google.
func (c *Client) Exchange(ctx context.Context, cfg Config, code, redirectURI string) (TokenResponse, error) {
	form := url.Values{
		"client_id":     {cfg.ClientID},
		"client_secret": {cfg.ClientSecret},
		"code":          {code},
		"redirect_uri":  {redirectURI},
	}
	if cfg.Provider == Google {
		form.Set("grant_type", "authorization_code")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, cfg.TokenURL, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("create token request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	var out TokenResponse
	if err := c.do(c.httpClient, req, cfg, ErrTokenExchangeFailed, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// FetchUserInfo reads the user-info document with a bearer token.
func (c *Client) FetchUserInfo(ctx context.Context, cfg Config, accessToken string) (Profile, error) {
	endpoint := cfg.UserInfoURL
	if cfg.Provider == Facebook {
		endpoint = withQuery(endpoint, url.Values{"fields": {"id,email,first_name,last_name,name"}})
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("create user info request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	var out Profile
	if err := c.do(c.bearer(ctx, accessToken), req, cfg, ErrUserInfoFetchFailed, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// bearer returns a client that sets Authorization: Bearer accessToken on
// top of the configured transport.
func (c *Client) bearer(ctx context.Context, accessToken string) *http.Client {
	ctx = context.WithValue(ctx, oauth2.HTTPClient, c.httpClient)
	hc := oauth2.NewClient(ctx, oauth2.StaticTokenSource(&oauth2.Token{
		AccessToken: accessToken,
		TokenType:   "Bearer",
	}))
	hc.Timeout = c.httpClient.Timeout
	return hc
}

func (c *Client) do(hc *http.Client, req *http.Request, cfg Config, kind error, out interface{}) error {
	resp, err := hc.Do(req)
	if err != nil {
		return &UpstreamError{Kind: kind, Provider: cfg.Name(), URL: req.URL.Redacted(), Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return &UpstreamError{Kind: kind, Provider: cfg.Name(), URL: req.URL.Redacted(), StatusCode: resp.StatusCode, Err: err}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		c.logger.Warn().
			Str("provider", cfg.Name()).
			Int("status", resp.StatusCode).
			Str("body", string(body)).
			Msg("provider returned error response")
		return &UpstreamError{Kind: kind, Provider: cfg.Name(), URL: req.URL.Redacted(), StatusCode: resp.StatusCode, Body: string(body)}
	}

	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()
	if err := dec.Decode(out); err != nil {
		return &UpstreamError{
			Kind:       kind,
			Provider:   cfg.Name(),
			URL:        req.URL.Redacted(),
			StatusCode: resp.StatusCode,
			Body:       string(body),
			Err:        fmt.Errorf("decode response: %w", err),
		}
	}
	return nil
}

func withQuery(endpoint string, params url.Values) string {
	u, err := url.Parse(endpoint)
	if err != nil {
		return endpoint
	}
	q := u.Query()
	for k, vs := range params {
		for _, v := range vs {
			q.Add(k, v)
		}
	}
	u.RawQuery = q.Encode()
	return u.String()
}
