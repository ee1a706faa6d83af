package auth

import (
	"time"

	"github.com/dgrijalva/jwt-go"
	"github.com/google/uuid"
	"github.com/pkg/errors"
)

var NowFunc = time.Now // mockable

// Claims represents the session token claims transmitted via a JWT.
type Claims struct {
	jwt.StandardClaims
	Email       string   `json:"email,omitempty"`
	Name        string   `json:"name,omitempty"`
	Role        string   `json:"role,omitempty"`
	Permissions []string `json:"permissions,omitempty"`
}

// ExpiresAtTime returns the expiry claim as a time.Time.
func (c Claims) ExpiresAtTime() time.Time {
	return time.Unix(c.ExpiresAt, 0).UTC()
}

// NewClaims builds the session claims for a user. The expiry is fixed at the
// configured duration from now; the role is whatever was derived at exchange
// time and is not re-derived here.
func (svc *Service) NewClaims(usr User) *Claims {
	now := NowFunc()
	return &Claims{
		StandardClaims: jwt.StandardClaims{
			Id:        uuid.New().String(),
			Issuer:    svc.conf.Auth.TokenIssuer,
			Subject:   usr.UID,
			IssuedAt:  now.Unix(),
			ExpiresAt: now.Add(svc.conf.Auth.TokenExpirationDelta).Unix(),
		},
		Email:       usr.Email,
		Name:        usr.Name,
		Role:        usr.Role,
		Permissions: usr.Permissions,
	}
}

// GenerateToken generates a signed JWT token string representing the claims.
func (svc *Service) GenerateToken(claims *Claims) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	ss, err := token.SignedString([]byte(svc.conf.SecretKey))
	if err != nil {
		return "", errors.Wrap(err, "signing token")
	}
	return ss, nil
}

// VerifyToken checks a session token and returns the decoded claims.
// A token is valid iff its signature verifies against the signing secret and
// its expiry has not elapsed; no other validity condition exists. There is no
// revocation list, so a token issued once stays valid until natural expiry.
func (svc *Service) VerifyToken(raw string) (*Claims, error) {
	claims := new(Claims)
	token, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (interface{}, error) {
		// only the configured symmetric scheme; "none" and asymmetric
		// algorithms are forgeries here
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return []byte(svc.conf.SecretKey), nil
	})
	if err != nil {
		if vErr, ok := err.(*jwt.ValidationError); ok && vErr.Errors&jwt.ValidationErrorExpired != 0 {
			return nil, ErrTokenExpired
		}
		return nil, ErrTokenInvalid
	}
	if !token.Valid {
		return nil, ErrTokenInvalid
	}
	if claims.Subject == "" || claims.Email == "" || claims.Role == "" ||
		claims.IssuedAt == 0 || claims.ExpiresAt == 0 {
		return nil, ErrTokenInvalid
	}
	if claims.Issuer != svc.conf.Auth.TokenIssuer {
		return nil, ErrTokenInvalid
	}
	return claims, nil
}
