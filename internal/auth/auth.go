// Package auth resolves the bearer credential used for Indexing API calls.
// The notifier only sees CredentialProvider, so it can be tested without
// key files or real service-account material.
package auth

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"

	"github.com/notifyhub/indexnotify/internal/domain"
)

// IndexingScope is the OAuth scope required by the Indexing API.
const IndexingScope = "https://www.googleapis.com/auth/indexing"

// ErrNoCredentials is returned when neither a key file nor a token is configured.
var ErrNoCredentials = errors.New("no indexing credentials configured")

// Credential is a resolved bearer token.
type Credential struct {
	AccessToken string
	Expiry      time.Time
}

// CredentialProvider resolves a credential immediately before a request.
// Failures are returned as *domain.AuthenticationError.
type CredentialProvider interface {
	ResolveCredential(ctx context.Context) (Credential, error)
}

// Static returns the same token every time. Useful for short-lived tokens
// minted out-of-band and for tests.
type Static struct {
	Token string
}

func (s Static) ResolveCredential(_ context.Context) (Credential, error) {
	if strings.TrimSpace(s.Token) == "" {
		return Credential{}, &domain.AuthenticationError{Err: ErrNoCredentials}
	}
	return Credential{AccessToken: s.Token}, nil
}

// ServiceAccount exchanges a service-account JSON key for access tokens.
// The token source is built once and reused; oauth2 refreshes it on expiry.
type ServiceAccount struct {
	keyJSON []byte

	mu  sync.Mutex
	src oauth2.TokenSource
}

// NewServiceAccountFromFile reads the JSON key from path.
func NewServiceAccountFromFile(path string) (*ServiceAccount, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &domain.AuthenticationError{Err: fmt.Errorf("read service account key: %w", err)}
	}
	return NewServiceAccountFromJSON(data), nil
}

func NewServiceAccountFromJSON(data []byte) *ServiceAccount {
	return &ServiceAccount{keyJSON: data}
}

func (s *ServiceAccount) ResolveCredential(ctx context.Context) (Credential, error) {
	src, err := s.tokenSource(ctx)
	if err != nil {
		return Credential{}, err
	}
	tok, err := src.Token()
	if err != nil {
		return Credential{}, &domain.AuthenticationError{Err: fmt.Errorf("fetch token: %w", err)}
	}
	return Credential{AccessToken: tok.AccessToken, Expiry: tok.Expiry}, nil
}

func (s *ServiceAccount) tokenSource(ctx context.Context) (oauth2.TokenSource, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.src != nil {
		return s.src, nil
	}
	if len(s.keyJSON) == 0 {
		return nil, &domain.AuthenticationError{Err: ErrNoCredentials}
	}

	// The token source outlives this call, so it must not inherit a
	// request-scoped deadline.
	creds, err := google.CredentialsFromJSON(context.WithoutCancel(ctx), s.keyJSON, IndexingScope)
	if err != nil {
		return nil, &domain.AuthenticationError{Err: fmt.Errorf("parse service account key: %w", err)}
	}
	s.src = creds.TokenSource
	return s.src, nil
}

// FromConfig picks a provider: a key file wins over a static token.
// With neither configured, the returned provider fails every resolution
// with ErrNoCredentials so callers that never touch the Indexing API still start.
func FromConfig(keyFile, token string) (CredentialProvider, error) {
	switch {
	case keyFile != "":
		sa, err := NewServiceAccountFromFile(keyFile)
		if err != nil {
			return nil, err
		}
		return sa, nil
	default:
		return Static{Token: token}, nil
	}
}

var (
	_ CredentialProvider = Static{}
	_ CredentialProvider = (*ServiceAccount)(nil)
)
