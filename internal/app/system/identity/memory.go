// internal/app/system/identity/memory.go
package identity

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

// Memory is an in-process Provider for local development and tests. Accounts
// live in a map, passwords are bcrypt-hashed, and session tokens are signed
// HS256 JWTs checked against a per-subject revocation epoch.
type Memory struct {
	mu       sync.RWMutex
	byEmail  map[string]*memAccount // key: lowercased email
	bySubj   map[string]*memAccount
	signKey  []byte
	tokenTTL time.Duration
	now      func() time.Time

	// FailCreates forces CreateAccount to report ErrUnavailable; tests use
	// it to exercise the provisioning failure paths.
	FailCreates bool
}

type memAccount struct {
	subject     string
	email       string
	displayName string
	hash        []byte
	epoch       int64 // bumped on SignOut; tokens minted before it are dead
}

// NewMemory builds an empty in-memory provider signing tokens with key.
func NewMemory(key []byte) *Memory {
	return &Memory{
		byEmail:  make(map[string]*memAccount),
		bySubj:   make(map[string]*memAccount),
		signKey:  key,
		tokenTTL: time.Hour,
		now:      time.Now,
	}
}

// WithClock overrides the time source for token expiry tests.
func (m *Memory) WithClock(now func() time.Time) *Memory {
	m.now = now
	return m
}

func (m *Memory) CreateAccount(_ context.Context, email, password, displayName string) (Account, error) {
	if m.FailCreates {
		return Account{}, ErrUnavailable
	}
	key := strings.ToLower(strings.TrimSpace(email))

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.byEmail[key]; exists {
		return Account{}, ErrEmailExists
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return Account{}, err
	}
	acct := &memAccount{
		subject:     uuid.NewString(),
		email:       key,
		displayName: displayName,
		hash:        hash,
	}
	m.byEmail[key] = acct
	m.bySubj[acct.subject] = acct
	return acct.account(), nil
}

func (m *Memory) SignIn(_ context.Context, email, password string) (Session, error) {
	key := strings.ToLower(strings.TrimSpace(email))

	m.mu.RLock()
	acct, ok := m.byEmail[key]
	m.mu.RUnlock()

	if !ok {
		return Session{}, ErrInvalidCredentials
	}
	if bcrypt.CompareHashAndPassword(acct.hash, []byte(password)) != nil {
		return Session{}, ErrInvalidCredentials
	}

	now := m.now()
	claims := jwt.MapClaims{
		"sub":   acct.subject,
		"email": acct.email,
		"epoch": acct.epoch,
		"iat":   now.Unix(),
		"exp":   now.Add(m.tokenTTL).Unix(),
	}
	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.signKey)
	if err != nil {
		return Session{}, err
	}
	return Session{Account: acct.account(), Token: tok}, nil
}

func (m *Memory) SignOut(_ context.Context, subject string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	acct, ok := m.bySubj[subject]
	if !ok {
		return ErrAccountNotFound
	}
	acct.epoch++
	return nil
}

func (m *Memory) VerifyToken(_ context.Context, token string) (Account, error) {
	parsed, err := jwt.Parse(token, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidCredentials
		}
		return m.signKey, nil
	}, jwt.WithTimeFunc(func() time.Time { return m.now() }))
	if err != nil || !parsed.Valid {
		return Account{}, ErrInvalidCredentials
	}
	claims, ok := parsed.Claims.(jwt.MapClaims)
	if !ok {
		return Account{}, ErrInvalidCredentials
	}
	subject, _ := claims["sub"].(string)
	epoch, _ := claims["epoch"].(float64)

	m.mu.RLock()
	acct, found := m.bySubj[subject]
	m.mu.RUnlock()

	if !found || int64(epoch) != acct.epoch {
		return Account{}, ErrInvalidCredentials
	}
	return acct.account(), nil
}

func (m *Memory) UpdateDisplayName(_ context.Context, subject, displayName string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	acct, ok := m.bySubj[subject]
	if !ok {
		return ErrAccountNotFound
	}
	acct.displayName = displayName
	return nil
}

func (m *Memory) DeleteAccount(_ context.Context, subject string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	acct, ok := m.bySubj[subject]
	if !ok {
		return ErrAccountNotFound
	}
	delete(m.bySubj, subject)
	delete(m.byEmail, acct.email)
	return nil
}

// Secondary returns the provider itself: the in-memory store has no session
// state to isolate, and provisioning tests need writes to land in the same
// account map they assert against.
func (m *Memory) Secondary() Provider {
	return m
}

func (a *memAccount) account() Account {
	return Account{Subject: a.subject, Email: a.email, DisplayName: a.displayName}
}
