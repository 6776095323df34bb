package auth

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v4"

	"github.com/godown-ops/godown/internal/shared"
)

// Claims is the token body issued by the identity provider.
type Claims struct {
	Role  string `json:"role"`
	Email string `json:"email,omitempty"`
	Name  string `json:"name,omitempty"`
	jwt.RegisteredClaims
}

// Verifier validates HS256 bearer tokens and turns them into principals.
type Verifier struct {
	secret []byte
	issuer string
	leeway time.Duration
	now    func() time.Time
}

// NewVerifier builds a Verifier. An empty issuer disables the issuer check.
func NewVerifier(secret, issuer string) *Verifier {
	return &Verifier{secret: []byte(secret), issuer: issuer, leeway: 30 * time.Second, now: time.Now}
}

// ErrInvalidToken reports a token that failed parsing or claim checks.
var ErrInvalidToken = errors.New("invalid bearer token")

// Verify parses raw and returns the principal it describes.
func (v *Verifier) Verify(raw string) (shared.Principal, error) {
	claims := &Claims{}
	parser := jwt.NewParser(jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	token, err := parser.ParseWithClaims(raw, claims, func(t *jwt.Token) (interface{}, error) {
		return v.secret, nil
	})
	if err != nil || !token.Valid {
		return shared.Principal{}, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	now := v.now()
	if claims.ExpiresAt == nil || now.After(claims.ExpiresAt.Time.Add(v.leeway)) {
		return shared.Principal{}, fmt.Errorf("%w: expired", ErrInvalidToken)
	}
	if v.issuer != "" && !claims.VerifyIssuer(v.issuer, true) {
		return shared.Principal{}, fmt.Errorf("%w: unexpected issuer %q", ErrInvalidToken, claims.Issuer)
	}
	p := shared.Principal{
		ID:    strings.TrimSpace(claims.Subject),
		Role:  shared.ParseRole(claims.Role),
		Email: claims.Email,
		Name:  claims.Name,
	}
	if !p.Valid() {
		return shared.Principal{}, fmt.Errorf("%w: subject or role missing", ErrInvalidToken)
	}
	return p, nil
}

// Issue signs a token for p. The identity provider owns issuance in
// production; this exists for the seed tool and tests.
func (v *Verifier) Issue(p shared.Principal, ttl time.Duration) (string, error) {
	now := v.now()
	claims := Claims{
		Role:  string(p.Role),
		Email: p.Email,
		Name:  p.Name,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   p.ID,
			Issuer:    v.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(v.secret)
}
