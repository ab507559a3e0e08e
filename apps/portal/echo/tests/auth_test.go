package tests

import (
	"net/http"
	"testing"
)

func Test_Auth_Login(t *testing.T) {
	tests := []struct {
		name     string
		body     string
		wantCode int
		wantData string
	}{
		{
			name:     "success returns the profile and installs the cookies",
			body:     `{"email": "teacher@academia.cd", "password": "` + testPassword + `"}`,
			wantCode: http.StatusOK,
			wantData: `{"id": 2, "email": "teacher@academia.cd", "isTeacher": true}`,
		},
		{
			name:     "upstream rejection is surfaced verbatim",
			body:     `{"email": "teacher@academia.cd", "password": "wrong"}`,
			wantCode: http.StatusBadRequest,
			wantData: `{"error": "invalid credentials"}`,
		},
		{
			name:     "invalid email is caught before any upstream call",
			body:     `{"email": "not-an-email", "password": "x"}`,
			wantCode: http.StatusBadRequest,
			wantData: `{"email": "email must be a valid email address"}`,
		},
		{
			name:     "missing fields",
			body:     `{}`,
			wantCode: http.StatusBadRequest,
			wantData: `{"email": "this field is required", "password": "this field is required"}`,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(http.MethodPost, "/login", nil, []byte(tt.body))
			checkCodeAndData(t, rec, tt.wantCode, tt.wantData)
		})
	}

	t.Run("cookies are set on success", func(t *testing.T) {
		cookies := login(t, "teacher@academia.cd")
		names := make(map[string]bool, len(cookies))
		for _, c := range cookies {
			names[c.Name] = true
		}
		if !names["auth_token"] || !names["refresh_token"] {
			t.Errorf("missing token cookies; got %v", names)
		}
	})
}

func Test_Auth_Profile(t *testing.T) {
	t.Run("anonymous users are sent to login", func(t *testing.T) {
		checkRedirect(t, do(http.MethodGet, "/profile", nil), "/login")
	})

	t.Run("authenticated users get their cached profile", func(t *testing.T) {
		cookies := login(t, "admin@academia.cd")
		rec := do(http.MethodGet, "/profile", cookies)
		checkCodeAndData(t, rec, http.StatusOK, `{"id": 1, "email": "admin@academia.cd", "isAdmin": true}`)
	})
}

func Test_Auth_Logout(t *testing.T) {
	cookies := login(t, "parent@academia.cd")

	rec := do(http.MethodPost, "/logout", cookies)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("logout: code = %v", rec.Code)
	}
	for _, c := range rec.Result().Cookies() {
		if c.MaxAge >= 0 {
			t.Errorf("cookie %s not expired", c.Name)
		}
	}

	// logging out again without any session is harmless
	rec = do(http.MethodPost, "/logout", nil)
	if rec.Code != http.StatusNoContent {
		t.Errorf("redundant logout: code = %v", rec.Code)
	}
}

func Test_Auth_TokenRefresh(t *testing.T) {
	t.Run("anonymous users are sent to login", func(t *testing.T) {
		checkRedirect(t, do(http.MethodPost, "/token-refresh", nil), "/login")
	})

	t.Run("a fresh access token cookie is installed", func(t *testing.T) {
		cookies := login(t, "accountant@academia.cd")
		before := schoolAPI.refreshCalls

		rec := do(http.MethodPost, "/token-refresh", cookies)
		if rec.Code != http.StatusNoContent {
			t.Fatalf("refresh: code = %v; body %s", rec.Code, rec.Body.String())
		}
		if schoolAPI.refreshCalls != before+1 {
			t.Errorf("refreshCalls = %v; want %v", schoolAPI.refreshCalls, before+1)
		}

		var refreshed bool
		for _, c := range rec.Result().Cookies() {
			if c.Name == "auth_token" && c.Value == "tok-refreshed" {
				refreshed = true
			}
			if c.Name == "refresh_token" {
				t.Error("refresh token cookie must not be rewritten")
			}
		}
		if !refreshed {
			t.Error("no fresh auth_token cookie in the response")
		}
	})
}
