package tests

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"reflect"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/menamiji/info-class/core/auth"
)

var errNoToken = httpErr{Code: "NO_TOKEN", Message: "missing or malformed jwt"}

type (
	envelope struct {
		OK   bool        `json:"ok"`
		Data interface{} `json:"data"`
	}

	httpErr struct {
		Code    string      `json:"code"`
		Message string      `json:"message"`
		Details interface{} `json:"details,omitempty"`
	}

	errEnvelope struct {
		OK    bool    `json:"ok"`
		Error httpErr `json:"error"`
	}

	sessionEnvelope struct {
		OK   bool         `json:"ok"`
		Data auth.Session `json:"data"`
	}
)

type httpTest struct {
	name     string
	method   string
	path     string
	body     []byte
	token    string
	wantCode int
	wantData []byte
	extra    interface{}
}

func newAuthRequest(method, path, token string, data ...[]byte) (*http.Request, *httptest.ResponseRecorder) {
	var body bytes.Buffer
	if len(data) > 0 {
		body.Write(data[0])
	}
	req := httptest.NewRequest(method, path, &body)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	return req, rec
}

func newRequest(method, path string, data ...[]byte) (*http.Request, *httptest.ResponseRecorder) {
	return newAuthRequest(method, path, "", data...)
}

func getToken(t *testing.T, usr auth.User) string {
	token, err := authSvc.GenerateToken(authSvc.NewClaims(usr))
	if err != nil {
		t.Fatalf("getToken(): %v", err)
	}
	return token
}

func marchallObj(t *testing.T, obj interface{}) []byte {
	data, err := json.Marshal(obj)
	if err != nil {
		t.Fatalf("marchallObj(): %v", err)
	}
	return data
}

func okData(t *testing.T, data interface{}) []byte {
	return marchallObj(t, envelope{OK: true, Data: data})
}

func errData(t *testing.T, code, message string) []byte {
	return marchallObj(t, errEnvelope{Error: httpErr{Code: code, Message: message}})
}

func errDataDetails(t *testing.T, code, message string, details interface{}) []byte {
	return marchallObj(t, errEnvelope{Error: httpErr{Code: code, Message: message, Details: details}})
}

func jsonBytesEqual(t *testing.T, b1, b2 []byte) (bool, error) {
	var j1, j2 interface{}
	if err := json.Unmarshal(b1, &j1); err != nil {
		return false, err
	}
	if err := json.Unmarshal(b2, &j2); err != nil {
		return false, err
	}
	if reflect.DeepEqual(j1, j2) {
		return true, nil
	}
	if j1 == nil || j2 == nil {
		return false, nil
	}
	return assert.ElementsMatch(t, j1, j2), nil
}

func checkCodeAndData(t *testing.T, tt httpTest, rec *httptest.ResponseRecorder) {
	if rec.Code != tt.wantCode {
		t.Errorf("failed! code = %v; wantCode %v", rec.Code, tt.wantCode)
	}
	ok, err := jsonBytesEqual(t, rec.Body.Bytes(), tt.wantData)
	if err != nil {
		t.Errorf("jsonBytesEqual() failed to compare; err %v", err)
	}
	if !ok {
		t.Errorf("failed! data = %v; wantData %v", rec.Body.String(), string(tt.wantData))
	}
}

// checkSession decodes a session envelope and verifies the user payload and
// the expiry window; the token itself cannot be guessed.
func checkSession(t *testing.T, rec *httptest.ResponseRecorder, wantUsr auth.User) auth.Session {
	var resp sessionEnvelope
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("json.Unmarshal(): %v", err)
	}
	if !resp.OK {
		t.Error("failed! ok = false")
	}
	if resp.Data.Token == "" {
		t.Error("failed! empty token")
	}
	if !reflect.DeepEqual(resp.Data.User, wantUsr) {
		t.Errorf("failed! user = %+v; want %+v", resp.Data.User, wantUsr)
	}
	wantExp := time.Now().Add(conf.Auth.TokenExpirationDelta)
	if drift := wantExp.Sub(resp.Data.ExpiresAt); drift < 0 || drift > time.Minute {
		t.Errorf("failed! expires_at = %v; want about %v", resp.Data.ExpiresAt, wantExp)
	}
	return resp.Data
}
