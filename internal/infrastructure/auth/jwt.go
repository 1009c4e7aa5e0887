package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/openpublisher/openpublisher/internal/domain/manuscript"
	"github.com/openpublisher/openpublisher/internal/shared/authorization"
	"github.com/openpublisher/openpublisher/internal/shared/biztime"
)

var ErrInvalidToken = errors.New("invalid token")

// ActorClaims are issued by the accounts service. Subject is the profile id.
type ActorClaims struct {
	FirstName string   `json:"first_name"`
	LastName  string   `json:"last_name"`
	Email     string   `json:"email"`
	Roles     []string `json:"roles"`
	jwt.RegisteredClaims
}

// Actor converts verified claims into the caller identity. Unknown roles
// are dropped.
func (c *ActorClaims) Actor() manuscript.Actor {
	parsed := authorization.ParseRoles(c.Roles)
	roles := make([]string, len(parsed))
	for i, r := range parsed {
		roles[i] = r.String()
	}
	return manuscript.Actor{
		ID:        c.Subject,
		FirstName: c.FirstName,
		LastName:  c.LastName,
		Email:     c.Email,
		Roles:     roles,
	}
}

type JWTService struct {
	secret []byte
	issuer string
}

func NewJWTService(secret string, issuer string) *JWTService {
	return &JWTService{
		secret: []byte(secret),
		issuer: issuer,
	}
}

// Generate signs an actor token. The accounts service owns issuance; this
// is used by the dev tooling and tests.
func (s *JWTService) Generate(actor manuscript.Actor, ttl time.Duration) (string, error) {
	now := biztime.NowUTC()
	claims := &ActorClaims{
		FirstName: actor.FirstName,
		LastName:  actor.LastName,
		Email:     actor.Email,
		Roles:     actor.Roles,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   actor.ID,
			Issuer:    s.issuer,
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
		},
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign actor token: %w", err)
	}
	return token, nil
}

func (s *JWTService) Verify(tokenString string) (*ActorClaims, error) {
	opts := []jwt.ParserOption{jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()})}
	if s.issuer != "" {
		opts = append(opts, jwt.WithIssuer(s.issuer))
	}

	token, err := jwt.ParseWithClaims(tokenString, &ActorClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.secret, nil
	}, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to parse token: %w", err)
	}

	claims, ok := token.Claims.(*ActorClaims)
	if !ok || !token.Valid {
		return nil, ErrInvalidToken
	}
	if claims.Subject == "" {
		return nil, fmt.Errorf("%w: missing subject", ErrInvalidToken)
	}
	return claims, nil
}
