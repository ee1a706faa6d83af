package idpsvc

import (
	"context"
	"crypto/rand"
	"crypto/rsa"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/dgrijalva/jwt-go"

	"github.com/menamiji/info-class/core/auth"
)

const testKeyID = "test-key"

// newFakeIDP serves an OIDC discovery document and the JWKS for a fresh
// RSA key, standing in for securetoken.google.com.
func newFakeIDP(t *testing.T) (*httptest.Server, *rsa.PrivateKey) {
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		t.Fatalf("generating RSA key failed: %v", err)
	}

	mux := http.NewServeMux()
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	mux.HandleFunc("/.well-known/openid-configuration", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"issuer":   srv.URL,
			"jwks_uri": srv.URL + "/keys",
		})
	})
	mux.HandleFunc("/keys", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"keys": []map[string]string{{
				"kty": "RSA",
				"alg": "RS256",
				"use": "sig",
				"kid": testKeyID,
				"n":   base64.RawURLEncoding.EncodeToString(key.PublicKey.N.Bytes()),
				"e":   "AQAB",
			}},
		})
	})
	return srv, key
}

func signAssertion(t *testing.T, key *rsa.PrivateKey, claims jwt.MapClaims) string {
	token := jwt.NewWithClaims(jwt.SigningMethodRS256, claims)
	token.Header["kid"] = testKeyID
	raw, err := token.SignedString(key)
	if err != nil {
		t.Fatalf("signing assertion failed: %v", err)
	}
	return raw
}

func TestFirebaseVerifier(t *testing.T) {
	srv, key := newFakeIDP(t)
	ctx := context.Background()

	v, err := newFirebaseVerifier(ctx, srv.URL, "test-project")
	if err != nil {
		t.Fatalf("newFirebaseVerifier() failed: %v", err)
	}
	if v.Provider() != "firebase" {
		t.Errorf("Provider() = %q, want %q", v.Provider(), "firebase")
	}

	now := time.Now()
	baseClaims := func() jwt.MapClaims {
		return jwt.MapClaims{
			"iss":            srv.URL,
			"aud":            "test-project",
			"sub":            "uid-1",
			"email":          "student@school.edu",
			"email_verified": true,
			"name":           "Student",
			"picture":        "https://cdn.test/student.png",
			"iat":            now.Add(-time.Minute).Unix(),
			"exp":            now.Add(time.Hour).Unix(),
		}
	}

	t.Run("valid assertion", func(t *testing.T) {
		ident, err := v.VerifyIDToken(ctx, signAssertion(t, key, baseClaims()))
		if err != nil {
			t.Fatalf("VerifyIDToken() failed: %v", err)
		}
		want := auth.Identity{
			UID:           "uid-1",
			Email:         "student@school.edu",
			Name:          "Student",
			Picture:       "https://cdn.test/student.png",
			EmailVerified: true,
		}
		if ident != want {
			t.Errorf("VerifyIDToken() = %+v, want %+v", ident, want)
		}
	})

	t.Run("unverified email passes through", func(t *testing.T) {
		claims := baseClaims()
		claims["email_verified"] = false
		ident, err := v.VerifyIDToken(ctx, signAssertion(t, key, claims))
		if err != nil {
			t.Fatalf("VerifyIDToken() failed: %v", err)
		}
		if ident.EmailVerified {
			t.Error("EmailVerified = true, want false")
		}
	})

	t.Run("expired assertion", func(t *testing.T) {
		claims := baseClaims()
		claims["iat"] = now.Add(-2 * time.Hour).Unix()
		claims["exp"] = now.Add(-time.Hour).Unix()
		if _, err := v.VerifyIDToken(ctx, signAssertion(t, key, claims)); err == nil {
			t.Error("VerifyIDToken() accepted an expired assertion")
		}
	})

	t.Run("foreign audience", func(t *testing.T) {
		claims := baseClaims()
		claims["aud"] = "another-project"
		if _, err := v.VerifyIDToken(ctx, signAssertion(t, key, claims)); err == nil {
			t.Error("VerifyIDToken() accepted a foreign audience")
		}
	})

	t.Run("foreign issuer", func(t *testing.T) {
		claims := baseClaims()
		claims["iss"] = "https://securetoken.google.com/another-project"
		if _, err := v.VerifyIDToken(ctx, signAssertion(t, key, claims)); err == nil {
			t.Error("VerifyIDToken() accepted a foreign issuer")
		}
	})

	t.Run("forged signature", func(t *testing.T) {
		otherKey, err := rsa.GenerateKey(rand.Reader, 2048)
		if err != nil {
			t.Fatalf("generating RSA key failed: %v", err)
		}
		if _, err := v.VerifyIDToken(ctx, signAssertion(t, otherKey, baseClaims())); err == nil {
			t.Error("VerifyIDToken() accepted a forged signature")
		}
	})

	t.Run("not a jwt", func(t *testing.T) {
		if _, err := v.VerifyIDToken(ctx, "lmaooolol"); err == nil {
			t.Error("VerifyIDToken() accepted garbage")
		}
	})
}

func TestStaticVerifier(t *testing.T) {
	v := NewStaticVerifier()
	if v.Provider() != "static" {
		t.Errorf("Provider() = %q, want %q", v.Provider(), "static")
	}

	ident, err := v.VerifyIDToken(context.Background(), "anything")
	if err != nil {
		t.Fatalf("VerifyIDToken() failed: %v", err)
	}
	if ident.UID != "dev_user_123" {
		t.Errorf("UID = %q, want %q", ident.UID, "dev_user_123")
	}
	if ident.Email != "admin@pocheonil.hs.kr" {
		t.Errorf("Email = %q, want %q", ident.Email, "admin@pocheonil.hs.kr")
	}
	if !ident.EmailVerified {
		t.Error("EmailVerified = false, want true")
	}
}
