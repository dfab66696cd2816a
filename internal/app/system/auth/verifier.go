package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/MicahParks/keyfunc/v3"
	"github.com/golang-jwt/jwt/v5"
)

// DefaultFirebaseJWKSURL serves the public keys Firebase signs ID tokens with.
const DefaultFirebaseJWKSURL = "https://www.googleapis.com/service_accounts/v1/jwk/securetoken@system.gserviceaccount.com"

// ErrInvalidToken is returned for any token that fails verification.
var ErrInvalidToken = errors.New("auth: invalid token")

// Claims are the caller attributes carried by a verified bearer token.
type Claims struct {
	UID   string
	Email string
}

// Verifier checks a raw bearer token.
type Verifier interface {
	Verify(ctx context.Context, token string) (*Claims, error)
}

type idTokenClaims struct {
	Email string `json:"email"`
	jwt.RegisteredClaims
}

func (c *idTokenClaims) toClaims() (*Claims, error) {
	if c.Subject == "" {
		return nil, fmt.Errorf("%w: token has no subject", ErrInvalidToken)
	}
	return &Claims{UID: c.Subject, Email: strings.TrimSpace(c.Email)}, nil
}

// FirebaseVerifier validates Firebase ID tokens (RS256) against the project's
// JWKS, issuer and audience.
type FirebaseVerifier struct {
	jwks      keyfunc.Keyfunc
	projectID string
}

// NewFirebaseVerifier fetches the signing keys from jwksURL (DefaultFirebaseJWKSURL
// when empty). Keys are cached and refreshed in the background until ctx ends.
func NewFirebaseVerifier(ctx context.Context, projectID, jwksURL string) (*FirebaseVerifier, error) {
	if projectID == "" {
		return nil, errors.New("auth: firebase project id is required")
	}
	if jwksURL == "" {
		jwksURL = DefaultFirebaseJWKSURL
	}
	jwks, err := keyfunc.NewDefaultCtx(ctx, []string{jwksURL})
	if err != nil {
		return nil, fmt.Errorf("auth: create JWKS client: %w", err)
	}
	return &FirebaseVerifier{jwks: jwks, projectID: projectID}, nil
}

// Verify implements Verifier.
func (v *FirebaseVerifier) Verify(_ context.Context, token string) (*Claims, error) {
	var c idTokenClaims
	_, err := jwt.ParseWithClaims(token, &c, v.jwks.Keyfunc,
		jwt.WithValidMethods([]string{"RS256"}),
		jwt.WithIssuer("https://securetoken.google.com/"+v.projectID),
		jwt.WithAudience(v.projectID),
		jwt.WithExpirationRequired(),
		jwt.WithIssuedAt(),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	return c.toClaims()
}

// HMACVerifier validates HS256 tokens signed with a shared secret. It backs
// local development and tests where no Firebase project is available.
type HMACVerifier struct {
	secret []byte
	issuer string
}

// NewHMACVerifier requires a secret of at least 16 characters.
func NewHMACVerifier(secret, issuer string) (*HMACVerifier, error) {
	if len(secret) < 16 {
		return nil, errors.New("auth: HMAC secret must be at least 16 characters")
	}
	if issuer == "" {
		issuer = "stratacontent"
	}
	return &HMACVerifier{secret: []byte(secret), issuer: issuer}, nil
}

// Issue signs a token for uid/email valid for ttl.
func (v *HMACVerifier) Issue(uid, email string, ttl time.Duration) (string, error) {
	now := time.Now()
	c := idTokenClaims{
		Email: email,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   uid,
			Issuer:    v.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, c).SignedString(v.secret)
	if err != nil {
		return "", fmt.Errorf("auth: signing token: %w", err)
	}
	return signed, nil
}

// Verify implements Verifier.
func (v *HMACVerifier) Verify(_ context.Context, token string) (*Claims, error) {
	var c idTokenClaims
	_, err := jwt.ParseWithClaims(token, &c,
		func(*jwt.Token) (any, error) { return v.secret, nil },
		jwt.WithValidMethods([]string{"HS256"}),
		jwt.WithIssuer(v.issuer),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	return c.toClaims()
}
