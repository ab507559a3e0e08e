package tests

import (
	"net/http"
	"testing"
)

func Test_Guard_publicRoutes(t *testing.T) {
	rec := do(http.MethodGet, "/", nil)
	if rec.Code != http.StatusOK {
		t.Errorf("home: code = %v", rec.Code)
	}
}

func Test_Guard_redirects(t *testing.T) {
	teacher := login(t, "teacher@academia.cd")
	admin := login(t, "admin@academia.cd")
	hybrid := login(t, "hybrid@academia.cd")

	tests := []struct {
		name         string
		path         string
		cookies      []*http.Cookie
		wantLocation string
	}{
		{"anonymous on a role route", "/teacher", nil, "/login"},
		{"anonymous on an unmatched route", "/reports", nil, "/login"},
		{"teacher on the admin dashboard", "/admin", teacher, "/teacher"},
		{"admin on the login page", "/login", admin, "/admin"},
		{"teacher on the login page", "/login", teacher, "/teacher"},
		// role priority: teacher wins over parent
		{"teacher+parent on the login page", "/login", hybrid, "/teacher"},
		// the denied role is excluded from landing resolution
		{"teacher+parent on the admin dashboard", "/admin", hybrid, "/teacher"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			checkRedirect(t, do(http.MethodGet, tt.path, tt.cookies), tt.wantLocation)
		})
	}
}

func Test_Guard_allowsMatchingRole(t *testing.T) {
	teacher := login(t, "teacher@academia.cd")
	rec := do(http.MethodGet, "/teacher", teacher)
	checkCodeAndData(t, rec, http.StatusOK, `{"classes": 3}`)
}

// the two portals never accept each other's cookies
func Test_Guard_contractIsolation(t *testing.T) {
	teacher := login(t, "teacher@academia.cd")
	student := studentLogin(t)

	t.Run("student cookies on the primary portal", func(t *testing.T) {
		checkRedirect(t, do(http.MethodGet, "/teacher", student), "/login")
	})
	t.Run("primary cookies on the student portal", func(t *testing.T) {
		checkRedirect(t, do(http.MethodGet, "/student", teacher), "/login")
	})
	t.Run("student cookies on the student portal", func(t *testing.T) {
		rec := do(http.MethodGet, "/student", student)
		checkCodeAndData(t, rec, http.StatusOK, `{"attendance_rate": 96}`)
	})
}
