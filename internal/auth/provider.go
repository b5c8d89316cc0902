// Package auth verifies local username/password credentials and serves the
// signup, login and logout pages.
package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"golang.org/x/crypto/bcrypt"

	"github.com/wanderlust-stays/wanderlust/internal/models"
	"github.com/wanderlust-stays/wanderlust/internal/store"
)

var (
	ErrAuthFailure   = errors.New("auth: invalid username or password")
	ErrUsernameTaken = errors.New("auth: username already taken")
	ErrMissingFields = errors.New("auth: username, email and password are required")
)

// Provider is the pluggable authentication strategy. Serialize and
// Deserialize map a user to and from the token kept in the session.
type Provider interface {
	Authenticate(ctx context.Context, username, password string) (*models.User, error)
	Serialize(u *models.User) string
	Deserialize(ctx context.Context, token string) (*models.User, error)
}

// Registrar creates new accounts.
type Registrar interface {
	Register(ctx context.Context, username, email, password string) (*models.User, error)
}

// LocalProvider checks bcrypt password hashes held in the user store.
type LocalProvider struct {
	Users store.Users
	Cost  int

	dummyOnce sync.Once
	dummyHash []byte
}

func NewLocalProvider(users store.Users) *LocalProvider {
	return &LocalProvider{Users: users, Cost: bcrypt.DefaultCost}
}

func (p *LocalProvider) cost() int {
	if p.Cost == 0 {
		return bcrypt.DefaultCost
	}
	return p.Cost
}

func (p *LocalProvider) Register(ctx context.Context, username, email, password string) (*models.User, error) {
	username = strings.TrimSpace(username)
	email = strings.TrimSpace(email)
	if username == "" || email == "" || password == "" {
		return nil, ErrMissingFields
	}

	if _, err := p.Users.UserByUsername(ctx, username); err == nil {
		return nil, ErrUsernameTaken
	} else if !errors.Is(err, store.ErrNotFound) {
		return nil, err
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(password), p.cost())
	if err != nil {
		return nil, fmt.Errorf("auth: hash password: %w", err)
	}

	u := &models.User{Username: username, Email: email, HashedPassword: string(hashed)}
	if err := p.Users.CreateUser(ctx, u); err != nil {
		if errors.Is(err, store.ErrDuplicate) {
			return nil, ErrUsernameTaken
		}
		return nil, err
	}
	return u, nil
}

// Authenticate returns ErrAuthFailure for an unknown user or a wrong
// password alike.
func (p *LocalProvider) Authenticate(ctx context.Context, username, password string) (*models.User, error) {
	u, err := p.Users.UserByUsername(ctx, strings.TrimSpace(username))
	if errors.Is(err, store.ErrNotFound) {
		// Spend the same bcrypt time as a real comparison.
		_ = bcrypt.CompareHashAndPassword(p.placeholderHash(), []byte(password))
		return nil, ErrAuthFailure
	}
	if err != nil {
		return nil, err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.HashedPassword), []byte(password)); err != nil {
		return nil, ErrAuthFailure
	}
	return u, nil
}

func (p *LocalProvider) placeholderHash() []byte {
	p.dummyOnce.Do(func() {
		p.dummyHash, _ = bcrypt.GenerateFromPassword([]byte("wanderlust-placeholder"), p.cost())
	})
	return p.dummyHash
}

func (p *LocalProvider) Serialize(u *models.User) string {
	return u.ID
}

// Deserialize returns nil without error when the user no longer exists.
func (p *LocalProvider) Deserialize(ctx context.Context, token string) (*models.User, error) {
	if token == "" {
		return nil, nil
	}
	u, err := p.Users.UserByID(ctx, token)
	if errors.Is(err, store.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return u, nil
}

var (
	_ Provider  = (*LocalProvider)(nil)
	_ Registrar = (*LocalProvider)(nil)
)
