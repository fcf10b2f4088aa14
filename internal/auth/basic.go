package auth

import (
	"context"
	"errors"
	"net/http"
	"sync"

	"golang.org/x/crypto/bcrypt"

	"github.com/elpatron68/side-launcher/internal/config"
)

// Realm is the BasicAuth realm of the web UI.
const Realm = "side-launcher"

// LocalUser is the username attached to requests when no users are configured.
const LocalUser = "local"

type UserStore interface {
	HasUser(username string) bool
	CheckPassword(username, plain string) bool
	Len() int
}

type InMemoryUserStore struct {
	mu sync.RWMutex
	// username -> bcrypt hash
	hashes map[string][]byte
}

func NewInMemoryUserStore() *InMemoryUserStore {
	return &InMemoryUserStore{hashes: make(map[string][]byte)}
}

// NewStoreFromConfig loads the configured users. Entries without a name or
// hash are rejected.
func NewStoreFromConfig(users []config.UserConfig) (*InMemoryUserStore, error) {
	s := NewInMemoryUserStore()
	for _, u := range users {
		if err := s.AddUserHash(u.Username, []byte(u.PasswordHash)); err != nil {
			return nil, err
		}
	}
	return s, nil
}

func (s *InMemoryUserStore) HasUser(username string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.hashes[username]
	return ok
}

func (s *InMemoryUserStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.hashes)
}

func (s *InMemoryUserStore) AddUserPlain(username, password string) error {
	if username == "" {
		return errors.New("username empty")
	}
	if password == "" {
		return errors.New("password empty")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.hashes[username] = hash
	s.mu.Unlock()
	return nil
}

func (s *InMemoryUserStore) AddUserHash(username string, bcryptHash []byte) error {
	if username == "" {
		return errors.New("username empty")
	}
	if len(bcryptHash) == 0 {
		return errors.New("hash empty for user " + username)
	}
	if _, err := bcrypt.Cost(bcryptHash); err != nil {
		return errors.New("invalid bcrypt hash for user " + username)
	}
	s.mu.Lock()
	s.hashes[username] = bcryptHash
	s.mu.Unlock()
	return nil
}

func (s *InMemoryUserStore) CheckPassword(username, plain string) bool {
	s.mu.RLock()
	hash, ok := s.hashes[username]
	s.mu.RUnlock()
	if !ok {
		return false
	}
	return bcrypt.CompareHashAndPassword(hash, []byte(plain)) == nil
}

// HashPassword returns a bcrypt hash suitable for the users section of the
// config file.
func HashPassword(plain string) (string, error) {
	if plain == "" {
		return "", errors.New("password empty")
	}
	h, err := bcrypt.GenerateFromPassword([]byte(plain), bcrypt.DefaultCost)
	return string(h), err
}

// BasicAuthMiddleware guards next. A store without users lets every request
// through as LocalUser.
func BasicAuthMiddleware(store UserStore, realm string, next http.Handler) http.Handler {
	if realm == "" {
		realm = "Restricted"
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if store == nil || store.Len() == 0 {
			next.ServeHTTP(w, r.WithContext(WithUsername(r.Context(), LocalUser)))
			return
		}
		username, password, ok := r.BasicAuth()
		if !ok || !store.HasUser(username) || !store.CheckPassword(username, password) {
			unauthorized(w, realm)
			return
		}
		next.ServeHTTP(w, r.WithContext(WithUsername(r.Context(), username)))
	})
}

func unauthorized(w http.ResponseWriter, realm string) {
	w.Header().Set("WWW-Authenticate", "Basic realm=\""+realm+"\"")
	http.Error(w, http.StatusText(http.StatusUnauthorized), http.StatusUnauthorized)
}

type contextKey string

const userKey contextKey = "auth.user"

// WithUsername attaches username to ctx.
func WithUsername(ctx context.Context, username string) context.Context {
	return context.WithValue(ctx, userKey, username)
}

func UsernameFromRequest(r *http.Request) (string, bool) {
	v := r.Context().Value(userKey)
	s, ok := v.(string)
	return s, ok
}
