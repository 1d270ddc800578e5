// Package identity signs users in against a credential directory and keeps
// the signed-in session for terminal clients.
package identity

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"studentattendance/internal/apperr"
	"studentattendance/internal/docstore"
	"studentattendance/internal/model"
)

// accountNamespace derives account ids from normalized emails so that two
// registrations of one address collide in the store.
var accountNamespace = uuid.MustParse("5b0f6f55-9a0e-4a8f-9d55-3f3c3a1d7e21")

// Account is the identity of a signed-in user.
type Account struct {
	UserID string `json:"user_id"`
	Email  string `json:"email"`
}

// Service authenticates credentials.
type Service interface {
	SignIn(ctx context.Context, email, password string) (Account, error)
}

// Directory stores bcrypt credential hashes in the accounts collection.
type Directory struct {
	store docstore.Store
	log   *zap.Logger
}

// NewDirectory creates a directory backed by store.
func NewDirectory(store docstore.Store, logger *zap.Logger) *Directory {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Directory{store: store, log: logger}
}

// NormalizeEmail lower-cases and trims an address.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Register creates credentials and returns the new user id.
func (d *Directory) Register(ctx context.Context, email, password string) (string, error) {
	email = NormalizeEmail(email)
	if email == "" || password == "" {
		return "", apperr.Validation("Please enter email and password")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}

	id := uuid.NewSHA1(accountNamespace, []byte(email)).String()
	err = d.store.Create(ctx, model.CollAccounts, id, docstore.Doc{
		"email":        email,
		"passwordHash": string(hash),
		"createdAt":    model.Millis(time.Now()),
	})
	if errors.Is(err, docstore.ErrConflict) {
		return "", apperr.Validation("an account with this email already exists")
	}
	if err != nil {
		return "", apperr.Write(err, "Failed to create account")
	}
	d.log.Info("registered account", zap.String("userID", id), zap.String("email", email))
	return id, nil
}

// Unregister removes the credentials for userID. Missing accounts are ignored.
func (d *Directory) Unregister(ctx context.Context, userID string) error {
	err := d.store.Delete(ctx, model.CollAccounts, userID)
	if err != nil && !errors.Is(err, docstore.ErrNotFound) {
		return apperr.Write(err, "Failed to remove account")
	}
	d.log.Info("unregistered account", zap.String("userID", userID))
	return nil
}

// SignIn verifies credentials.
func (d *Directory) SignIn(ctx context.Context, email, password string) (Account, error) {
	email = NormalizeEmail(email)
	if email == "" || password == "" {
		return Account{}, apperr.Validation("Please enter email and password")
	}
	docs, err := d.store.Query(ctx, model.CollAccounts, docstore.Eq("email", email))
	if err != nil {
		return Account{}, &apperr.Error{Kind: apperr.KindAuth, Msg: "Sign in failed: " + err.Error(), Err: err}
	}
	if len(docs) == 0 {
		return Account{}, apperr.Auth("invalid email or password")
	}
	acct := docs[0]
	if err := bcrypt.CompareHashAndPassword([]byte(acct.Data.String("passwordHash")), []byte(password)); err != nil {
		d.log.Debug("password mismatch", zap.String("userID", acct.ID))
		return Account{}, apperr.Auth("invalid email or password")
	}
	return Account{UserID: acct.ID, Email: email}, nil
}

// Client caches the signed-in account. Safe for concurrent use.
type Client struct {
	svc Service

	mu      sync.RWMutex
	current *Account
}

// NewClient wraps an identity service.
func NewClient(svc Service) *Client {
	return &Client{svc: svc}
}

// SignIn authenticates and caches the session, returning the user id.
func (c *Client) SignIn(ctx context.Context, email, password string) (string, error) {
	acct, err := c.svc.SignIn(ctx, email, password)
	if err != nil {
		return "", err
	}
	c.mu.Lock()
	c.current = &acct
	c.mu.Unlock()
	return acct.UserID, nil
}

// SignOut clears the session. Safe to call repeatedly.
func (c *Client) SignOut() {
	c.mu.Lock()
	c.current = nil
	c.mu.Unlock()
}

// CurrentUserID reads the cached session.
func (c *Client) CurrentUserID() (string, bool) {
	acct, ok := c.Current()
	return acct.UserID, ok
}

// Current returns the cached account.
func (c *Client) Current() (Account, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.current == nil {
		return Account{}, false
	}
	return *c.current, true
}
