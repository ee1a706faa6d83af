package tests

import (
	"encoding/json"
	"net/http"
	"testing"
	"time"
)

func Test_server_home(t *testing.T) {
	req, rec := newRequest(http.MethodGet, "/")
	app.ServeHTTP(rec, req)
	checkCodeAndData(t, httpTest{
		wantCode: http.StatusOK,
		wantData: okData(t, map[string]interface{}{
			"name":        conf.AppName,
			"version":     conf.Build,
			"environment": conf.Env,
		}),
	}, rec)
}

func Test_server_healthz(t *testing.T) {
	req, rec := newRequest(http.MethodGet, "/healthz")
	app.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("failed! code = %v; wantCode %v", rec.Code, http.StatusOK)
	}

	var resp struct {
		OK   bool `json:"ok"`
		Data struct {
			Status    string    `json:"status"`
			Timestamp time.Time `json:"timestamp"`
			Version   string    `json:"version"`
			Services  struct {
				API string `json:"api"`
				IdP string `json:"idp"`
			} `json:"services"`
			Configuration struct {
				DebugMode        bool   `json:"debug_mode"`
				AllowedDomain    string `json:"allowed_domain"`
				TokenExpireHours int    `json:"token_expire_hours"`
			} `json:"configuration"`
		} `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("json.Unmarshal(): %v", err)
	}
	if !resp.OK {
		t.Error("failed! ok = false")
	}
	if resp.Data.Status != "healthy" {
		t.Errorf("failed! status = %q; want %q", resp.Data.Status, "healthy")
	}
	if resp.Data.Timestamp.IsZero() {
		t.Error("failed! zero timestamp")
	}
	if resp.Data.Version != conf.Build {
		t.Errorf("failed! version = %q; want %q", resp.Data.Version, conf.Build)
	}
	if resp.Data.Services.API != "healthy" {
		t.Errorf("failed! services.api = %q; want %q", resp.Data.Services.API, "healthy")
	}
	if resp.Data.Services.IdP != authSvc.Provider() {
		t.Errorf("failed! services.idp = %q; want %q", resp.Data.Services.IdP, authSvc.Provider())
	}
	if resp.Data.Configuration.DebugMode {
		t.Error("failed! debug_mode = true")
	}
	if resp.Data.Configuration.AllowedDomain != conf.Auth.AllowedEmailDomain {
		t.Errorf("failed! allowed_domain = %q; want %q", resp.Data.Configuration.AllowedDomain, conf.Auth.AllowedEmailDomain)
	}
	if want := int(conf.Auth.TokenExpirationDelta.Hours()); resp.Data.Configuration.TokenExpireHours != want {
		t.Errorf("failed! token_expire_hours = %v; want %v", resp.Data.Configuration.TokenExpireHours, want)
	}
}

func Test_server_routing(t *testing.T) {
	tests := []httpTest{
		{
			name:     "Unknown route",
			method:   http.MethodGet,
			path:     "/nope",
			wantCode: http.StatusNotFound,
			wantData: errData(t, "HTTP_404", "Not Found"),
		},
		{
			name:     "Method not allowed",
			method:   http.MethodPost,
			path:     "/healthz",
			wantCode: http.StatusMethodNotAllowed,
			wantData: errData(t, "HTTP_405", "Method Not Allowed"),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, rec := newRequest(tt.method, tt.path, tt.body)
			app.ServeHTTP(rec, req)
			checkCodeAndData(t, tt, rec)
		})
	}

	t.Run("Trailing slash", func(t *testing.T) {
		req, rec := newRequest(http.MethodGet, "/healthz/")
		app.ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Errorf("failed! code = %v; wantCode %v", rec.Code, http.StatusOK)
		}
	})
}
