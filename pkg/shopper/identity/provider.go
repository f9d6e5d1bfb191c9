package identity

import (
	"context"
	"strings"
	"sync"
)

// CredentialKey is where the bearer token is persisted.
const CredentialKey = "auth_token"

// Provider supplies the current credential and the identity derived from it.
type Provider interface {
	Token(ctx context.Context) (string, bool)
	Current(ctx context.Context) Identity
}

type pinnedTokenKey struct{}

// WithToken pins token to ctx. Mirror calls made with the returned context
// authenticate with it instead of whatever credential is stored when they run.
func WithToken(ctx context.Context, token string) context.Context {
	return context.WithValue(ctx, pinnedTokenKey{}, token)
}

// PinnedToken returns the token pinned by WithToken, if any.
func PinnedToken(ctx context.Context) (string, bool) {
	token, ok := ctx.Value(pinnedTokenKey{}).(string)
	return token, ok && token != ""
}

// KV is the slice of the partition backend the credential store needs.
type KV interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string) error
	Delete(ctx context.Context, key string) error
}

// Credentials persists the bearer token and resolves identity from it on
// every call, so a token change is observed by the very next operation.
type Credentials struct {
	kv KV
}

func NewCredentials(kv KV) *Credentials {
	return &Credentials{kv: kv}
}

// Token returns the stored credential. Storage errors count as absent.
func (c *Credentials) Token(ctx context.Context) (string, bool) {
	token, ok, err := c.kv.Get(ctx, CredentialKey)
	if err != nil || !ok {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}

func (c *Credentials) Current(ctx context.Context) Identity {
	token, ok := c.Token(ctx)
	if !ok {
		return Guest()
	}
	return Resolve(token)
}

func (c *Credentials) Store(ctx context.Context, token string) error {
	return c.kv.Set(ctx, CredentialKey, strings.TrimSpace(token))
}

func (c *Credentials) Clear(ctx context.Context) error {
	return c.kv.Delete(ctx, CredentialKey)
}

// Static is an in-process Provider, used by embedders that keep the token
// elsewhere and by tests.
type Static struct {
	mu    sync.RWMutex
	token string
}

func NewStatic(token string) *Static {
	return &Static{token: token}
}

func (s *Static) Set(token string) {
	s.mu.Lock()
	s.token = token
	s.mu.Unlock()
}

func (s *Static) Token(context.Context) (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token, s.token != ""
}

func (s *Static) Current(ctx context.Context) Identity {
	token, _ := s.Token(ctx)
	return Resolve(token)
}
