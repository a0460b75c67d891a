package client

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"

	"go.uber.org/zap"

	"github.com/LeXarDev/Server-Monitoring/internal/pkg/sanitize"
	"github.com/LeXarDev/Server-Monitoring/internal/pkg/validate"
)

// SessionManager owns the authentication lifecycle: login, registration,
// logout and profile refresh. It keeps two identity snapshots: "cached" comes
// from the token store or a login response, "confirmed" from the most recent
// profile fetch; confirmed fields win when both are present.
type SessionManager struct {
	client     *Client
	guard      *Guard
	store      TokenStore
	signOutURL string
	log        *zap.Logger

	mu           sync.Mutex
	cached       Identity
	hasCached    bool
	confirmed    Identity
	hasConfirmed bool
}

type Credentials struct {
	Email    string
	Password string
}

type Registration struct {
	Username string
	Email    string
	Password string
}

// ProfileUpdate carries only the fields to change; nil fields stay untouched.
type ProfileUpdate struct {
	FullName *string `json:"full_name"`
	Bio      *string `json:"bio"`
	Phone    *string `json:"phone"`
	Location *string `json:"location"`
}

type authResponseBody struct {
	Token string `json:"token"`
	Me    struct {
		ID        int64  `json:"id"`
		Username  string `json:"username"`
		Email     string `json:"email"`
		AvatarURL string `json:"avatar_url"`
	} `json:"me"`
}

type profileResponseBody struct {
	UserID    int64  `json:"user_id"`
	Username  string `json:"username"`
	Email     string `json:"email"`
	FullName  string `json:"full_name"`
	AvatarURL string `json:"avatar_url"`
}

// NewSessionManager hydrates from the token store: a stored token plus cached
// identity optimistically marks the session authenticated. Callers may follow
// up with RefreshProfile to confirm it.
func NewSessionManager(apiClient *Client, guard *Guard, signOutURL string, log *zap.Logger) *SessionManager {
	if guard == nil {
		guard = NewGuard()
	}
	if log == nil {
		log = zap.NewNop()
	}

	m := &SessionManager{
		client:     apiClient,
		guard:      guard,
		store:      apiClient.Store(),
		signOutURL: signOutURL,
		log:        log,
	}

	if m.store.Token() != "" {
		if identity, ok := m.store.Identity(); ok {
			m.cached = identity
			m.hasCached = true
		}
	}

	return m
}

// Login exchanges credentials for a session. Credentials are checked locally
// and the guard runs before any network traffic.
func (m *SessionManager) Login(ctx context.Context, creds Credentials) (Identity, error) {
	email := sanitize.Clean(creds.Email)
	if !validate.IsValidEmail(email) {
		return Identity{}, fmt.Errorf("invalid email: %w", ErrValidation)
	}
	if creds.Password == "" {
		return Identity{}, fmt.Errorf("password is required: %w", ErrValidation)
	}

	if err := m.guard.CheckAndRecord(); err != nil {
		return Identity{}, err
	}

	var res authResponseBody
	err := m.client.do(ctx, http.MethodPost, "/auth/login", map[string]string{
		"email":    email,
		"password": creds.Password,
	}, false, &res)
	if err != nil {
		var retry *RetryAfterError
		if errors.As(err, &retry) {
			m.guard.ObserveServerRetry(retry.Seconds)
		}
		return Identity{}, err
	}

	m.adopt(res, false)

	// Best-effort enrichment with server-side profile fields.
	if err := m.RefreshProfile(ctx); err != nil {
		m.log.Debug("profile refresh after login failed", zap.Error(err))
	}

	current, _ := m.CurrentIdentity()
	return current, nil
}

// Register paces through the same guard as Login; registration attempts count
// toward the shared window. Text fields are sanitized, passwords are not.
func (m *SessionManager) Register(ctx context.Context, reg Registration) (Identity, error) {
	username := sanitize.Clean(reg.Username)
	email := sanitize.Clean(reg.Email)
	if !validate.Required(username) {
		return Identity{}, fmt.Errorf("username is required: %w", ErrValidation)
	}
	if !validate.IsValidEmail(email) {
		return Identity{}, fmt.Errorf("invalid email: %w", ErrValidation)
	}
	if !validate.IsStrongPassword(reg.Password) {
		return Identity{}, fmt.Errorf("weak password: %w", ErrValidation)
	}

	if err := m.guard.CheckAndRecord(); err != nil {
		return Identity{}, err
	}

	var res authResponseBody
	err := m.client.do(ctx, http.MethodPost, "/auth/register", map[string]string{
		"username": username,
		"email":    email,
		"password": reg.Password,
	}, false, &res)
	if err != nil {
		var retry *RetryAfterError
		if errors.As(err, &retry) {
			m.guard.ObserveServerRetry(retry.Seconds)
		}
		return Identity{}, err
	}

	return m.adopt(res, false), nil
}

// LoginSSO completes the provider's code flow via the backend exchange
// endpoint.
func (m *SessionManager) LoginSSO(ctx context.Context, code, state string) (Identity, error) {
	var res authResponseBody
	err := m.client.do(ctx, http.MethodPost, "/auth/sso", map[string]string{
		"code":  code,
		"state": state,
	}, false, &res)
	if err != nil {
		return Identity{}, err
	}

	return m.adopt(res, true), nil
}

// Logout clears the session unconditionally. For provider-backed sessions it
// returns the provider's sign-out URL so the caller can finish the redirect;
// otherwise the returned URL is empty.
func (m *SessionManager) Logout() string {
	m.mu.Lock()
	wasSSO := m.hasCached && m.cached.SSO
	m.cached = Identity{}
	m.confirmed = Identity{}
	m.hasCached = false
	m.hasConfirmed = false
	m.mu.Unlock()

	m.store.Clear()

	if wasSSO && m.signOutURL != "" {
		return m.signOutURL
	}
	return ""
}

// RefreshProfile fetches the canonical profile for the current identity. A
// failure leaves the optimistic cached state in place.
func (m *SessionManager) RefreshProfile(ctx context.Context) error {
	m.mu.Lock()
	if !m.hasCached {
		m.mu.Unlock()
		return ErrNoToken
	}
	userID := m.cached.ID
	m.mu.Unlock()

	var res profileResponseBody
	if err := m.client.do(ctx, http.MethodGet, fmt.Sprintf("/profile/%d", userID), nil, true, &res); err != nil {
		if errors.Is(err, ErrSessionExpired) {
			m.dropSession()
		}
		return err
	}

	m.mu.Lock()
	m.confirmed = Identity{
		ID:        res.UserID,
		Username:  res.Username,
		Email:     res.Email,
		FullName:  res.FullName,
		AvatarURL: res.AvatarURL,
		SSO:       m.cached.SSO,
	}
	m.hasConfirmed = true
	m.mu.Unlock()

	return nil
}

// UpdateIdentity applies a partial profile edit and folds the result into the
// confirmed identity.
func (m *SessionManager) UpdateIdentity(ctx context.Context, update ProfileUpdate) error {
	m.mu.Lock()
	if !m.hasCached {
		m.mu.Unlock()
		return ErrNoToken
	}
	userID := m.cached.ID
	m.mu.Unlock()

	cleanField(&update.FullName)
	cleanField(&update.Bio)
	cleanField(&update.Location)
	if update.Phone != nil {
		phone := sanitize.Clean(*update.Phone)
		if phone != "" && !validate.IsValidPhone(phone) {
			return fmt.Errorf("invalid phone: %w", ErrValidation)
		}
		update.Phone = &phone
	}

	var res profileResponseBody
	err := m.client.do(ctx, http.MethodPut, fmt.Sprintf("/profile/%d", userID), update, true, &res)
	if err != nil {
		if errors.Is(err, ErrSessionExpired) {
			m.dropSession()
		}
		return err
	}

	m.mu.Lock()
	m.confirmed = Identity{
		ID:        res.UserID,
		Username:  res.Username,
		Email:     res.Email,
		FullName:  res.FullName,
		AvatarURL: res.AvatarURL,
		SSO:       m.cached.SSO,
	}
	m.hasConfirmed = true
	m.mu.Unlock()

	return nil
}

// CurrentIdentity merges the confirmed identity over the cached one.
func (m *SessionManager) CurrentIdentity() (Identity, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.hasCached && !m.hasConfirmed {
		return Identity{}, false
	}
	if !m.hasConfirmed {
		return m.cached, true
	}

	merged := m.confirmed
	if merged.Username == "" {
		merged.Username = m.cached.Username
	}
	if merged.FullName == "" {
		merged.FullName = m.cached.FullName
	}
	if merged.AvatarURL == "" {
		merged.AvatarURL = m.cached.AvatarURL
	}
	return merged, true
}

func (m *SessionManager) adopt(res authResponseBody, sso bool) Identity {
	identity := Identity{
		ID:        res.Me.ID,
		Username:  res.Me.Username,
		Email:     res.Me.Email,
		AvatarURL: res.Me.AvatarURL,
		SSO:       sso,
	}

	m.store.SetToken(res.Token)
	m.store.SetIdentity(identity)

	m.mu.Lock()
	m.cached = identity
	m.hasCached = true
	m.confirmed = Identity{}
	m.hasConfirmed = false
	m.mu.Unlock()

	return identity
}

func cleanField(field **string) {
	if *field == nil {
		return
	}
	cleaned := sanitize.Clean(**field)
	*field = &cleaned
}

func (m *SessionManager) dropSession() {
	m.mu.Lock()
	m.cached = Identity{}
	m.confirmed = Identity{}
	m.hasCached = false
	m.hasConfirmed = false
	m.mu.Unlock()
}
