package oauth

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/gokatarajesh/accounts-service/internal/auth"
)

// NormalizedUser is a provider profile in canonical form. An empty Email
// means the provider did not disclose one.
type NormalizedUser struct {
	Email      string `json:"email"`
	FirstName  string `json:"first_name"`
	LastName   string `json:"last_name"`
	Username   string `json:"username"`
	ProviderID string `json:"provider_id"`
}

// Identity converts u for user resolution.
func (u NormalizedUser) Identity() auth.Identity {
	return auth.Identity{
		Email:     u.Email,
		FirstName: u.FirstName,
		LastName:  u.LastName,
		Username:  u.Username,
	}
}

// Normalize maps profile into canonical form. For github without a public
// email, accessToken is used to query the emails endpoint; failures there
// leave Email empty.
func (c *Client) Normalize(ctx context.Context, cfg Config, profile Profile, accessToken string) (NormalizedUser, error) {
	switch cfg.Provider {
	case Google:
		email := profile.str("email")
		return NormalizedUser{
			Email:      email,
			FirstName:  profile.str("given_name"),
			LastName:   profile.str("family_name"),
			Username:   localPart(email),
			ProviderID: profile.str("id"),
		}, nil

	case GitHub:
		email := profile.str("email")
		if email == "" && accessToken != "" {
			email = c.githubEmail(ctx, cfg, accessToken)
		}
		first, last := splitName(profile.str("name"))
		return NormalizedUser{
			Email:      email,
			FirstName:  first,
			LastName:   last,
			Username:   profile.str("login"),
			ProviderID: profile.str("id"),
		}, nil

	case Facebook:
		email := profile.str("email")
		return NormalizedUser{
			Email:      email,
			FirstName:  profile.str("first_name"),
			LastName:   profile.str("last_name"),
			Username:   localPart(email),
			ProviderID: profile.str("id"),
		}, nil

	default:
		return NormalizedUser{}, fmt.Errorf("normalize: %w: %s", ErrUnsupportedProvider, cfg.Provider)
	}
}

type githubEmailEntry struct {
	Email   string `json:"email"`
	Primary bool   `json:"primary"`
}

// githubEmail picks the primary address, else the first one, else "".
func (c *Client) githubEmail(ctx context.Context, cfg Config, accessToken string) string {
	if cfg.EmailsURL == "" {
		return ""
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, cfg.EmailsURL, nil)
	if err != nil {
		return ""
	}
	req.Header.Set("Accept", "application/json")

	var raw json.RawMessage
	if err := c.do(c.bearer(ctx, accessToken), req, cfg, ErrUserInfoFetchFailed, &raw); err != nil {
		c.logger.Warn().Err(err).Msg("github email lookup failed")
		return ""
	}

	var emails []githubEmailEntry
	if err := json.Unmarshal(raw, &emails); err != nil {
		c.logger.Warn().Err(err).Msg("github email lookup returned unexpected body")
		return ""
	}

	for _, e := range emails {
		if e.Primary && e.Email != "" {
			return e.Email
		}
	}
	if len(emails) > 0 {
		return emails[0].Email
	}
	return ""
}

// str reads key as a string. Numbers keep their literal form.
func (p Profile) str(key string) string {
	switch v := p[key].(type) {
	case nil:
		return ""
	case string:
		return v
	case json.Number:
		return v.String()
	default:
		return fmt.Sprint(v)
	}
}

func localPart(email string) string {
	if email == "" {
		return ""
	}
	local, _, _ := strings.Cut(email, "@")
	return local
}

func splitName(name string) (first, last string) {
	parts := strings.Fields(name)
	if len(parts) == 0 {
		return "", ""
	}
	return parts[0], strings.Join(parts[1:], " ")
}
