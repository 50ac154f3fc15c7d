package auth

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go-hospital/internal/user"

	"github.com/google/uuid"
)

// MaxSessionAge bounds a token regardless of activity.
const MaxSessionAge = 12 * time.Hour

// ErrInvalidCredentials covers unknown users, wrong passwords and
// disabled accounts alike.
var ErrInvalidCredentials = errors.New("invalid username or password")

// UserLookup is the slice of the identity store the gate needs.
type UserLookup interface {
	FindByUsername(ctx context.Context, username string) (*user.AppUser, error)
}

var (
	dummyHashOnce sync.Once
	dummyHash     string
)

// timingHash is compared against when the username is unknown so that
// both failure paths cost one bcrypt comparison.
func timingHash() string {
	dummyHashOnce.Do(func() {
		dummyHash, _ = user.HashPassword("not-a-real-password")
	})
	return dummyHash
}

type Authenticator struct {
	users       UserLookup
	sessions    SessionStore
	secret      string
	idleTimeout time.Duration
}

func NewAuthenticator(users UserLookup, sessions SessionStore, secret string, idleTimeout time.Duration) *Authenticator {
	return &Authenticator{users: users, sessions: sessions, secret: secret, idleTimeout: idleTimeout}
}

// Login checks the credentials and opens a new session, replacing any
// previous session of the same user.
func (a *Authenticator) Login(ctx context.Context, username, password string) (string, *user.AppUser, error) {
	u, err := a.users.FindByUsername(ctx, username)
	if err != nil {
		if !errors.Is(err, user.ErrUserNotFound) {
			return "", nil, fmt.Errorf("lookup user: %w", err)
		}
		_ = user.CheckPassword(timingHash(), password)
		return "", nil, ErrInvalidCredentials
	}
	if err := user.CheckPassword(u.Password, password); err != nil {
		return "", nil, ErrInvalidCredentials
	}
	if !u.Enabled {
		return "", nil, ErrInvalidCredentials
	}

	sessionID := uuid.NewString()
	token, err := GenerateJWT(a.secret, u.Username, sessionID, MaxSessionAge)
	if err != nil {
		return "", nil, fmt.Errorf("sign token: %w", err)
	}
	if err := a.sessions.Set(ctx, u.Username, sessionID, a.idleTimeout); err != nil {
		return "", nil, fmt.Errorf("store session: %w", err)
	}
	return token, u, nil
}

// Resolve maps a token to its enabled user, refreshing the idle timeout.
func (a *Authenticator) Resolve(ctx context.Context, token string) (*user.AppUser, error) {
	claims, err := ParseJWT(a.secret, token)
	if err != nil {
		return nil, err
	}
	current, err := a.sessions.Get(ctx, claims.Username)
	if err != nil {
		return nil, err
	}
	if current != claims.ID {
		return nil, ErrSessionNotFound
	}
	u, err := a.users.FindByUsername(ctx, claims.Username)
	if err != nil {
		return nil, err
	}
	if !u.Enabled {
		return nil, ErrInvalidCredentials
	}
	if err := a.sessions.Set(ctx, u.Username, claims.ID, a.idleTimeout); err != nil {
		return nil, fmt.Errorf("refresh session: %w", err)
	}
	return u, nil
}

func (a *Authenticator) Logout(ctx context.Context, username string) error {
	return a.sessions.Delete(ctx, username)
}
