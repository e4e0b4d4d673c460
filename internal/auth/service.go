package auth

import (
	"context"
	"time"
)

const defaultAccessTTL = 15 * time.Minute

// Principal is the verified caller identity attached to request contexts.
type Principal struct {
	UserID      string
	Roles       []string
	Permissions map[string]struct{}
}

// HasPermission reports whether the principal holds the service permission.
func (p Principal) HasPermission(perm string) bool {
	_, ok := p.Permissions[perm]
	return ok
}

// Service verifies bearer tokens and mints development tokens.
type Service struct {
	accessTTL      time.Duration
	allowDevTokens bool
}

// ServiceOption configures Service behavior.
type ServiceOption func(*Service)

// WithAccessTTL overrides the default token lifetime.
func WithAccessTTL(ttl time.Duration) ServiceOption {
	return func(s *Service) {
		if ttl > 0 {
			s.accessTTL = ttl
		}
	}
}

// WithDevTokens enables the unauthenticated token-mint endpoint. Local
// development only; never turn this on for a reachable deployment.
func WithDevTokens(enabled bool) ServiceOption {
	return func(s *Service) { s.allowDevTokens = enabled }
}

// NewService builds the token service.
func NewService(opts ...ServiceOption) *Service {
	s := &Service{accessTTL: defaultAccessTTL}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// SupportsTokens reports whether a signing secret is configured.
func (s *Service) SupportsTokens() bool {
	return s != nil && SecretConfigured()
}

// AllowsDevTokens reports whether the dev mint endpoint is enabled.
func (s *Service) AllowsDevTokens() bool {
	return s != nil && s.allowDevTokens && s.SupportsTokens()
}

// IssueToken mints a signed token for the user with the given roles.
func (s *Service) IssueToken(userID string, roles []string) (string, time.Time, error) {
	expires := time.Now().UTC().Add(s.accessTTL)
	token, err := GenerateToken(userID, roles, s.accessTTL)
	if err != nil {
		return "", time.Time{}, err
	}
	return token, expires, nil
}

// AuthenticateToken verifies the bearer token and returns the principal.
func (s *Service) AuthenticateToken(_ context.Context, token string) (Principal, error) {
	claims, err := ParseAndValidate(token)
	if err != nil {
		return Principal{}, err
	}
	return Principal{
		UserID:      claims.Subject,
		Roles:       claims.Roles,
		Permissions: PermissionsForRoles(claims.Roles),
	}, nil
}
