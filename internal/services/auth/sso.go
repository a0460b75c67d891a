package auth

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/oauth2"

	"github.com/LeXarDev/Server-Monitoring/internal/config"
)

const (
	userInfoBodyLimit = 1 << 20
	stateTTL          = 10 * time.Minute
)

// StateStore remembers states minted by StartURL until the callback returns
// them. Consume is single-use.
type StateStore interface {
	Save(ctx context.Context, state string, ttl time.Duration) error
	Consume(ctx context.Context, state string) (bool, error)
}

// SSOProvider drives the authorization-code flow against an external identity
// provider and maps its subject onto a local account.
type SSOProvider struct {
	oauth       *oauth2.Config
	userInfoURL string
	client      *http.Client
	states      StateStore
}

type ssoUserInfo struct {
	Subject           string `json:"sub"`
	Email             string `json:"email"`
	Name              string `json:"name"`
	PreferredUsername string `json:"preferred_username"`
}

func NewSSOProvider(cfg config.SSOConfig, client *http.Client, states StateStore) *SSOProvider {
	if client == nil {
		client = http.DefaultClient
	}

	return &SSOProvider{
		oauth: &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			RedirectURL:  cfg.RedirectURL,
			Scopes:       []string{"openid", "email", "profile"},
			Endpoint: oauth2.Endpoint{
				AuthURL:  cfg.AuthURL,
				TokenURL: cfg.TokenURL,
			},
		},
		userInfoURL: cfg.UserInfoURL,
		client:      client,
		states:      states,
	}
}

func (p *SSOProvider) Configured() bool {
	return p != nil && p.oauth.ClientID != "" && p.oauth.Endpoint.AuthURL != "" && p.oauth.Endpoint.TokenURL != ""
}

// StartURL builds the provider redirect for a fresh flow. The minted state is
// persisted and must come back unchanged on the callback.
func (p *SSOProvider) StartURL(ctx context.Context) (string, string, error) {
	state := uuid.NewString()
	if p.states != nil {
		if err := p.states.Save(ctx, state, stateTTL); err != nil {
			return "", "", fmt.Errorf("save sso state: %w", err)
		}
	}
	return p.oauth.AuthCodeURL(state), state, nil
}

// consumeState fails closed: without a store no state can have been minted,
// so every callback is rejected.
func (p *SSOProvider) consumeState(ctx context.Context, state string) (bool, error) {
	if p.states == nil {
		return false, nil
	}
	return p.states.Consume(ctx, state)
}

func (p *SSOProvider) fetchUserInfo(ctx context.Context, code string) (ssoUserInfo, error) {
	ctx = context.WithValue(ctx, oauth2.HTTPClient, p.client)

	token, err := p.oauth.Exchange(ctx, code)
	if err != nil {
		return ssoUserInfo{}, fmt.Errorf("exchange authorization code: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.userInfoURL, nil)
	if err != nil {
		return ssoUserInfo{}, fmt.Errorf("build userinfo request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token.AccessToken)

	resp, err := p.client.Do(req)
	if err != nil {
		return ssoUserInfo{}, fmt.Errorf("fetch userinfo: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return ssoUserInfo{}, fmt.Errorf("userinfo status %d", resp.StatusCode)
	}

	var info ssoUserInfo
	if err := json.NewDecoder(io.LimitReader(resp.Body, userInfoBodyLimit)).Decode(&info); err != nil {
		return ssoUserInfo{}, fmt.Errorf("decode userinfo: %w", err)
	}

	return info, nil
}

// LoginSSO completes the code flow: verifies the callback state against the
// states minted by StartURL, exchanges the code, resolves the provider
// identity and signs a local token for the matching account.
func (s *Service) LoginSSO(ctx context.Context, provider *SSOProvider, code, state, ip, userAgent string) (AuthResult, error) {
	if s.users == nil {
		return AuthResult{}, fmt.Errorf("user store is nil")
	}
	if provider == nil || !provider.Configured() {
		return AuthResult{}, fmt.Errorf("sso provider is not configured")
	}
	if strings.TrimSpace(code) == "" || strings.TrimSpace(state) == "" {
		return AuthResult{}, ErrInvalidInput
	}

	known, err := provider.consumeState(ctx, state)
	if err != nil {
		return AuthResult{}, fmt.Errorf("consume sso state: %w", err)
	}
	if !known {
		return AuthResult{}, ErrInvalidState
	}

	info, err := provider.fetchUserInfo(ctx, code)
	if err != nil {
		return AuthResult{}, err
	}
	if strings.TrimSpace(info.Subject) == "" || strings.TrimSpace(info.Email) == "" {
		return AuthResult{}, ErrUnauthorized
	}

	username := strings.TrimSpace(info.PreferredUsername)
	if username == "" {
		username = strings.TrimSpace(info.Name)
	}
	if username == "" {
		// Last resort: the local part of the provider email.
		username, _, _ = strings.Cut(info.Email, "@")
	}

	user, err := s.users.UpsertSSO(ctx, info.Subject, strings.ToLower(info.Email), username)
	if err != nil {
		return AuthResult{}, fmt.Errorf("upsert sso user: %w", err)
	}

	if s.logins != nil {
		if err := s.logins.Record(ctx, user.ID, ip, userAgent); err != nil {
			return AuthResult{}, fmt.Errorf("record login: %w", err)
		}
	}

	return s.issueForUser(user)
}
