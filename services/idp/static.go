package idpsvc

import (
	"context"

	"github.com/menamiji/info-class/core/auth"
)

// StaticVerifier skips assertion verification entirely and returns a fixed
// placeholder identity. core.Config refuses to enable it outside debug mode
// and the composition root logs loudly when it is selected.
type StaticVerifier struct{}

var _ auth.IdentityVerifier = (*StaticVerifier)(nil)

func NewStaticVerifier() *StaticVerifier { return &StaticVerifier{} }

func (v *StaticVerifier) VerifyIDToken(context.Context, string) (auth.Identity, error) {
	return auth.Identity{
		UID:           "dev_user_123",
		Email:         "admin@pocheonil.hs.kr",
		Name:          "개발자 계정",
		EmailVerified: true,
	}, nil
}

func (v *StaticVerifier) Provider() string { return "static" }
