package auth

import (
	"context"
	"fmt"
	"strings"

	"github.com/pkg/errors"

	"github.com/menamiji/info-class/core"
)

var (
	// errors
	ErrInvalidAssertion = errors.New("identity assertion is invalid or has expired")
	ErrEmailNotVerified = errors.New("email address is not verified")
	ErrDomainNotAllowed = errors.New("email domain is not allowed")
	ErrNoToken          = errors.New("missing or malformed jwt")
	ErrTokenExpired     = errors.New("token has expired")
	ErrTokenInvalid     = errors.New("invalid token")
)

type (
	// IdentityVerifier validates an identity assertion with the external
	// identity provider and extracts the verified identity.
	IdentityVerifier interface {
		VerifyIDToken(ctx context.Context, rawToken string) (Identity, error)
		Provider() string
	}

	Service struct {
		conf     *core.Config
		verifier IdentityVerifier
		logger   core.Logger
	}
)

func NewService(conf *core.Config, verifier IdentityVerifier, logger core.Logger) *Service {
	return &Service{conf: conf, verifier: verifier, logger: logger}
}

// Provider names the identity provider backing the exchange.
func (svc *Service) Provider() string {
	return svc.verifier.Provider()
}

// Exchange trades an identity assertion for a session token. The role is
// derived exactly once here and embedded in the token; it is not re-derived
// until the next exchange. Stateless: nothing is persisted.
func (svc *Service) Exchange(ctx context.Context, assertion string) (Session, error) {
	ident, err := svc.verifier.VerifyIDToken(ctx, assertion)
	if err != nil {
		svc.logger.Debug(fmt.Sprintf("assertion rejected: %v", err))
		return Session{}, ErrInvalidAssertion
	}
	if ident.UID == "" || ident.Email == "" {
		return Session{}, ErrInvalidAssertion
	}
	if !ident.EmailVerified {
		return Session{}, ErrEmailNotVerified
	}

	role, err := svc.deriveRole(ident.Email)
	if err != nil {
		return Session{}, err
	}

	usr := User{
		UID:           ident.UID,
		Email:         ident.Email,
		Name:          ident.Name,
		Picture:       ident.Picture,
		EmailVerified: true,
		Role:          role,
		Permissions:   RolePermissions(role),
	}

	session, err := svc.newSession(usr)
	if err != nil {
		return Session{}, err
	}
	svc.logger.Info(fmt.Sprintf("session issued for %s (role: %s)", usr.Email, usr.Role))
	return session, nil
}

// Refresh issues a new session token carrying the same subject and role as
// the presented claims, with a renewed expiry. Callers must have verified the
// claims first; an expired token can never reach this point.
func (svc *Service) Refresh(claims Claims) (Session, error) {
	return svc.newSession(UserFromClaims(claims))
}

func (svc *Service) newSession(usr User) (Session, error) {
	claims := svc.NewClaims(usr)
	token, err := svc.GenerateToken(claims)
	if err != nil {
		return Session{}, errors.Wrap(err, "generating token")
	}
	return Session{Token: token, User: usr, ExpiresAt: claims.ExpiresAtTime()}, nil
}

// deriveRole applies the static role policy to a verified email:
// allow-listed emails are admins, institutional-domain emails are students,
// anything else is rejected.
func (svc *Service) deriveRole(email string) (string, error) {
	lower := strings.ToLower(email)
	for _, admin := range svc.conf.Auth.AdminEmails {
		if lower == strings.ToLower(admin) {
			return RoleAdmin, nil
		}
	}
	if strings.HasSuffix(lower, strings.ToLower(svc.conf.Auth.AllowedEmailDomain)) {
		return RoleStudent, nil
	}
	return "", ErrDomainNotAllowed
}

// UserFromClaims rebuilds the wire user from session claims. The display
// picture is not carried in the token, and a verified email is an issuance
// precondition, so it is assumed true here.
func UserFromClaims(claims Claims) User {
	return User{
		UID:           claims.Subject,
		Email:         claims.Email,
		Name:          claims.Name,
		EmailVerified: true,
		Role:          claims.Role,
		Permissions:   claims.Permissions,
	}
}
