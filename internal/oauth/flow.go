package oauth

import (
	"context"
	"fmt"
	"net/http"

	"github.com/rs/zerolog"
	"golang.org/x/oauth2"

	"github.com/gokatarajesh/accounts-service/internal/auth"
	httperrors "github.com/gokatarajesh/accounts-service/pkg/http/errors"
)

// Stage is a step of the login flow. Failures record the stage they left.
type Stage int

const (
	StageIdle Stage = iota
	StageAuthorizationRequested
	StageAwaitingCallback
	StageExchanging
	StageFetchingProfile
	StageResolvingUser
	StageIssuingTokens
	StageComplete
)

func (s Stage) String() string {
	switch s {
	case StageIdle:
		return "idle"
	case StageAuthorizationRequested:
		return "authorization_requested"
	case StageAwaitingCallback:
		return "awaiting_callback"
	case StageExchanging:
		return "exchanging"
	case StageFetchingProfile:
		return "fetching_profile"
	case StageResolvingUser:
		return "resolving_user"
	case StageIssuingTokens:
		return "issuing_tokens"
	case StageComplete:
		return "complete"
	default:
		return fmt.Sprintf("stage(%d)", int(s))
	}
}

// Accounts resolves external identities to application users.
type Accounts interface {
	FindOrCreateByEmail(ctx context.Context, identity auth.Identity) (*auth.User, error)
	IssueTokens(user auth.User) (*auth.TokenPair, error)
}

// AuthorizeRequest starts a login.
type AuthorizeRequest struct {
	Provider    string `json:"provider"`
	RedirectURI string `json:"redirect_uri"`
	State       string `json:"state,omitempty"`
}

// AuthorizeResponse carries the URL the client should send the user to.
type AuthorizeResponse struct {
	AuthorizationURL string `json:"authorization_url"`
	State            string `json:"state"`
}

// CallbackRequest completes a login.
type CallbackRequest struct {
	Provider    string `json:"provider"`
	Code        string `json:"code"`
	State       string `json:"state,omitempty"`
	RedirectURI string `json:"redirect_uri"`
}

// CallbackResponse is the JWT pair and the resolved user.
type CallbackResponse struct {
	Access  string            `json:"access"`
	Refresh string            `json:"refresh"`
	User    auth.UserResponse `json:"user"`
}

// FlowOptions tunes the flow.
type FlowOptions struct {
	// RequireState rejects callbacks that carry no state.
	RequireState bool
	Metrics      *Metrics
}

// Flow orchestrates authorize and callback.
type Flow struct {
	resolver     *Resolver
	client       *Client
	states       *StateStore
	accounts     Accounts
	requireState bool
	metrics      *Metrics
	logger       zerolog.Logger
}

// NewFlow wires the flow collaborators.
func NewFlow(resolver *Resolver, client *Client, states *StateStore, accounts Accounts, opts FlowOptions, logger zerolog.Logger) *Flow {
	return &Flow{
		resolver:     resolver,
		client:       client,
		states:       states,
		accounts:     accounts,
		requireState: opts.RequireState,
		metrics:      opts.Metrics,
		logger:       logger,
	}
}

// Providers lists the configured providers.
func (f *Flow) Providers() []ProviderInfo {
	return f.resolver.Available()
}

// Authorize issues a state and builds the provider authorization URL.
// Nothing is stored when the provider cannot be resolved.
func (f *Flow) Authorize(ctx context.Context, req AuthorizeRequest) (*AuthorizeResponse, error) {
	stage := StageAuthorizationRequested

	cfg, err := f.resolver.Resolve(req.Provider)
	if err != nil {
		f.metrics.authorize(f.label(req.Provider), httperrors.ErrCodeInvalidProvider)
		return nil, classify(stage, err)
	}

	state, err := f.states.Issue(ctx, cfg.Name(), req.RedirectURI, req.State)
	if err != nil {
		f.logger.Error().Err(err).Str("provider", cfg.Name()).Msg("failed to store oauth2 state")
		f.metrics.authorize(cfg.Name(), httperrors.ErrCodeUnexpectedError)
		return nil, classify(stage, err)
	}

	var opts []oauth2.AuthCodeOption
	if cfg.Provider == Google {
		opts = append(opts, oauth2.AccessTypeOffline, oauth2.ApprovalForce)
	}

	f.metrics.authorize(cfg.Name(), "success")
	return &AuthorizeResponse{
		AuthorizationURL: cfg.OAuth2(req.RedirectURI).AuthCodeURL(state, opts...),
		State:            state,
	}, nil
}

// Callback verifies state, exchanges the code, resolves the user and issues
// tokens. Every failure, including a panic, is returned as a *FlowError.
func (f *Flow) Callback(ctx context.Context, req CallbackRequest) (resp *CallbackResponse, err error) {
	stage := StageAwaitingCallback
	logger := f.logger.With().Str("provider", req.Provider).Logger()

	defer func() {
		if r := recover(); r != nil {
			err = flowError(stage, httperrors.ErrCodeUnexpectedError, http.StatusBadRequest,
				"An unexpected error occurred during authentication", fmt.Errorf("panic: %v", r))
			resp = nil
		}
		if err == nil {
			f.metrics.callback(f.label(req.Provider), "success")
			return
		}
		fe := classify(stage, err)
		ev := logger.Warn()
		if fe.Code == httperrors.ErrCodeUnexpectedError {
			ev = logger.Error()
		}
		ev.Err(fe.Err).Str("stage", fe.Stage.String()).Str("code", fe.Code).Msg("oauth2 callback failed")
		f.metrics.callback(f.label(req.Provider), fe.Code)
		err = fe
	}()

	if req.State != "" {
		entry, err := f.states.Consume(ctx, req.State)
		if err != nil {
			return nil, err
		}
		if entry.Provider != req.Provider || entry.RedirectURI != req.RedirectURI {
			return nil, ErrStateMismatch
		}
	} else if f.requireState {
		return nil, ErrStateNotFound
	}

	stage = StageExchanging
	cfg, err := f.resolver.Resolve(req.Provider)
	if err != nil {
		return nil, err
	}
	tokens, err := f.client.Exchange(ctx, cfg, req.Code, req.RedirectURI)
	if err != nil {
		return nil, err
	}
	accessToken := tokens.AccessToken()
	if accessToken == "" {
		return nil, flowError(stage, httperrors.ErrCodeTokenExchangeFailed, http.StatusBadRequest,
			"Failed to obtain access token", ErrTokenExchangeFailed)
	}

	stage = StageFetchingProfile
	profile, err := f.client.FetchUserInfo(ctx, cfg, accessToken)
	if err != nil {
		return nil, err
	}
	normalized, err := f.client.Normalize(ctx, cfg, profile, accessToken)
	if err != nil {
		return nil, err
	}
	if normalized.Email == "" {
		return nil, ErrNoEmail
	}

	stage = StageResolvingUser
	user, err := f.accounts.FindOrCreateByEmail(ctx, normalized.Identity())
	if err != nil {
		return nil, err
	}
	f.metrics.userResolved(cfg.Name())

	stage = StageIssuingTokens
	pair, err := f.accounts.IssueTokens(*user)
	if err != nil {
		return nil, err
	}

	stage = StageComplete
	logger.Info().Int64("user_id", user.ID).Str("provider_id", normalized.ProviderID).Msg("oauth2 login completed")
	return &CallbackResponse{
		Access:  pair.Access,
		Refresh: pair.Refresh,
		User:    user.Response(),
	}, nil
}

// label bounds metric cardinality to known provider names.
func (f *Flow) label(name string) string {
	if _, err := f.resolver.registry.Descriptor(name); err != nil {
		return "unknown"
	}
	return name
}
