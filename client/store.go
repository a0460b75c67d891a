package client

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sync"

	"go.uber.org/zap"
)

// Identity is the user record as seen by the client.
type Identity struct {
	ID        int64  `json:"id"`
	Username  string `json:"username"`
	Email     string `json:"email"`
	FullName  string `json:"full_name,omitempty"`
	AvatarURL string `json:"avatar_url,omitempty"`
	// SSO marks identities that came from the external provider flow.
	SSO bool `json:"sso,omitempty"`
}

// TokenStore persists the bearer token and a cached identity snapshot.
// Implementations swallow storage failures so session code can always fall
// back to the unauthenticated path.
type TokenStore interface {
	SetToken(token string)
	Token() string
	SetIdentity(identity Identity)
	Identity() (Identity, bool)
	Clear()
}

type storedState struct {
	Token    string    `json:"token,omitempty"`
	Identity *Identity `json:"identity,omitempty"`
}

// FileStore keeps the session state in a single JSON file with 0600
// permissions. Writes go through a temp file and rename so readers never see
// partial state.
type FileStore struct {
	path string
	log  *zap.Logger

	mu    sync.Mutex
	state storedState
}

func NewFileStore(path string, log *zap.Logger) *FileStore {
	if log == nil {
		log = zap.NewNop()
	}

	s := &FileStore{path: path, log: log}
	s.load()
	return s
}

func (s *FileStore) SetToken(token string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.state.Token = token
	s.persist()
}

func (s *FileStore) Token() string {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.state.Token
}

func (s *FileStore) SetIdentity(identity Identity) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.state.Identity = &identity
	s.persist()
}

func (s *FileStore) Identity() (Identity, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state.Identity == nil {
		return Identity{}, false
	}
	return *s.state.Identity, true
}

// Clear drops the token and cached identity together.
func (s *FileStore) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.state = storedState{}
	s.persist()
}

func (s *FileStore) load() {
	raw, err := os.ReadFile(s.path)
	if err != nil {
		if !os.IsNotExist(err) {
			s.log.Warn("token store read failed", zap.Error(err))
		}
		return
	}

	var state storedState
	if err := json.Unmarshal(raw, &state); err != nil {
		s.log.Warn("token store is corrupt, starting empty", zap.Error(err))
		return
	}

	s.state = state
}

func (s *FileStore) persist() {
	raw, err := json.Marshal(s.state)
	if err != nil {
		s.log.Warn("token store marshal failed", zap.Error(err))
		return
	}

	tmp := s.path + ".tmp"
	if err := os.MkdirAll(filepath.Dir(s.path), 0o700); err != nil {
		s.log.Warn("token store mkdir failed", zap.Error(err))
		return
	}
	if err := os.WriteFile(tmp, raw, 0o600); err != nil {
		s.log.Warn("token store write failed", zap.Error(err))
		return
	}
	if err := os.Rename(tmp, s.path); err != nil {
		s.log.Warn("token store rename failed", zap.Error(err))
	}
}
