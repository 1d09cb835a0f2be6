package auth

import (
	"context"
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/simp-lee/medibook/internal/domain"
)

// Claims is the JWT payload: the principal plus registered claims.
// The jti identifies the token in the revocation store.
type Claims struct {
	UserID uint        `json:"id"`
	Role   domain.Role `json:"role"`
	jwt.RegisteredClaims
}

// TokenConfig configures token signing.
type TokenConfig struct {
	Secret string
	TTL    time.Duration
	Issuer string
}

// tokenService implements domain.TokenService with HS256 JWTs.
type tokenService struct {
	secret []byte
	ttl    time.Duration
	issuer string
	store  RevocationStore
	now    func() time.Time
}

// NewTokenService creates a TokenService. A nil store falls back to an
// in-memory revocation list.
func NewTokenService(cfg TokenConfig, store RevocationStore) domain.TokenService {
	if store == nil {
		store = NewMemoryStore()
	}
	return &tokenService{
		secret: []byte(cfg.Secret),
		ttl:    cfg.TTL,
		issuer: cfg.Issuer,
		store:  store,
		now:    time.Now,
	}
}

// Issue signs a token for p that expires after the configured TTL.
func (s *tokenService) Issue(p domain.Principal) (*domain.AccessToken, error) {
	if p.UserID == 0 || !p.Role.Valid() {
		return nil, domain.NewAppError(domain.CodeInternal, "cannot issue token for invalid principal", nil)
	}

	now := s.now()
	expiresAt := now.Add(s.ttl)
	claims := &Claims{
		UserID: p.UserID,
		Role:   p.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Issuer:    s.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return nil, domain.NewAppError(domain.CodeInternal, "failed to sign token", err)
	}
	return &domain.AccessToken{Token: signed, ExpiresAt: expiresAt.Truncate(time.Second)}, nil
}

// Parse verifies the signature, expiry and issuer of token and checks the
// revocation store.
func (s *tokenService) Parse(ctx context.Context, token string) (*domain.Principal, error) {
	claims, err := s.verify(token)
	if err != nil {
		return nil, err
	}

	revoked, err := s.store.IsRevoked(ctx, claims.ID)
	if err != nil {
		return nil, domain.NewAppError(domain.CodeInternal, "failed to check token revocation", err)
	}
	if revoked {
		return nil, domain.NewAppError(domain.CodeUnauthorized, "token revoked", nil)
	}

	return &domain.Principal{UserID: claims.UserID, Role: claims.Role}, nil
}

// Revoke blacklists token until it would have expired anyway.
func (s *tokenService) Revoke(ctx context.Context, token string) error {
	claims, err := s.verify(token)
	if err != nil {
		return err
	}

	ttl := claims.ExpiresAt.Sub(s.now())
	if ttl <= 0 {
		return nil
	}
	if err := s.store.Revoke(ctx, claims.ID, ttl); err != nil {
		return domain.NewAppError(domain.CodeInternal, "failed to revoke token", err)
	}
	return nil
}

func (s *tokenService) verify(token string) (*Claims, error) {
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	}
	if s.issuer != "" {
		opts = append(opts, jwt.WithIssuer(s.issuer))
	}

	parsed, err := jwt.ParseWithClaims(token, &Claims{}, func(*jwt.Token) (any, error) {
		return s.secret, nil
	}, opts...)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, domain.NewAppError(domain.CodeUnauthorized, "token expired", err)
		}
		return nil, domain.NewAppError(domain.CodeUnauthorized, "invalid token", err)
	}

	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid || claims.ID == "" || claims.UserID == 0 || !claims.Role.Valid() {
		return nil, domain.NewAppError(domain.CodeUnauthorized, "invalid token", nil)
	}
	return claims, nil
}
