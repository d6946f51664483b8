package auth

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"busbooking/internal/domain/models"

	"github.com/golang-jwt/jwt/v5"
)

// Claims is the token payload issued at login.
type Claims struct {
	Name  string `json:"name"`
	Email string `json:"email"`
	Role  string `json:"role"`
	jwt.RegisteredClaims
}

// TokenIssuer signs and verifies HS256 tokens.
type TokenIssuer struct {
	Secret []byte
	TTL    time.Duration
	Now    func() time.Time
}

func (t TokenIssuer) now() time.Time {
	if t.Now != nil {
		return t.Now()
	}
	return time.Now()
}

func (t TokenIssuer) Issue(id models.Identity) (string, error) {
	if len(t.Secret) == 0 {
		return "", errors.New("jwt secret not configured")
	}
	ttl := t.TTL
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	now := t.now()
	claims := Claims{
		Name:  id.Name,
		Email: id.Email,
		Role:  id.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   id.UserID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(t.Secret)
}

func (t TokenIssuer) Parse(raw string) (models.Identity, error) {
	var claims Claims
	_, err := jwt.ParseWithClaims(raw, &claims, func(tok *jwt.Token) (any, error) {
		if _, ok := tok.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", tok.Header["alg"])
		}
		return t.Secret, nil
	}, jwt.WithTimeFunc(t.now), jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return models.Identity{}, err
	}
	if strings.TrimSpace(claims.Subject) == "" {
		return models.Identity{}, errors.New("token has no subject")
	}
	return models.Identity{
		UserID: claims.Subject,
		Name:   claims.Name,
		Email:  claims.Email,
		Role:   claims.Role,
	}, nil
}

// ReturnPathStore keeps the destination a session wanted before sign-in.
type ReturnPathStore interface {
	SaveReturnTo(ctx context.Context, sessionID, returnTo string) error
	// ConsumeReturnTo returns the saved destination once and forgets it.
	ConsumeReturnTo(ctx context.Context, sessionID string) (string, error)
}

// JWTProvider reads the identity from the request's bearer token.
type JWTProvider struct {
	Issuer  TokenIssuer
	Returns ReturnPathStore
}

// CurrentIdentity treats a missing token as "no identity"; an invalid or
// expired token is reported as an error so the gate fails safe.
func (p JWTProvider) CurrentIdentity(ctx context.Context) (models.Identity, bool, error) {
	raw := TokenFromContext(ctx)
	if raw == "" {
		return models.Identity{}, false, nil
	}
	id, err := p.Issuer.Parse(raw)
	if err != nil {
		return models.Identity{}, false, err
	}
	return id, true, nil
}

func (p JWTProvider) BeginAuth(ctx context.Context, returnTo string) error {
	if p.Returns == nil {
		return nil
	}
	sid := SessionIDFromContext(ctx)
	if sid == "" {
		return errors.New("no session to remember the return path in")
	}
	return p.Returns.SaveReturnTo(ctx, sid, returnTo)
}

// LoginRedirect is the sign-in URL the web client is sent to.
func LoginRedirect(returnTo string) string {
	return "/auth?returnUrl=" + url.QueryEscape(returnTo)
}
