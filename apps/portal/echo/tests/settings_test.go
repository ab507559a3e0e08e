package tests

import (
	"net/http"
	"testing"
)

func Test_Settings(t *testing.T) {
	wantSettings := `{"school_name": "Academia", "primary_color": "#0055aa"}`

	t.Run("public settings are served anonymously and cached", func(t *testing.T) {
		before := schoolAPI.settingsCalls

		rec := do(http.MethodGet, "/settings/public", nil)
		checkCodeAndData(t, rec, http.StatusOK, wantSettings)
		if schoolAPI.settingsCalls != before+1 {
			t.Fatalf("settingsCalls = %v; want %v", schoolAPI.settingsCalls, before+1)
		}

		// the second hit comes from the cache
		rec = do(http.MethodGet, "/settings/public", nil)
		checkCodeAndData(t, rec, http.StatusOK, wantSettings)
		if schoolAPI.settingsCalls != before+1 {
			t.Errorf("settingsCalls = %v; want %v (cache miss)", schoolAPI.settingsCalls, before+1)
		}
	})

	t.Run("authenticated settings share the cache entry", func(t *testing.T) {
		before := schoolAPI.settingsCalls
		cookies := login(t, "teacher@academia.cd")

		rec := do(http.MethodGet, "/settings", cookies)
		checkCodeAndData(t, rec, http.StatusOK, wantSettings)
		if schoolAPI.settingsCalls != before {
			t.Errorf("settingsCalls = %v; want %v (cache miss)", schoolAPI.settingsCalls, before)
		}
	})

	t.Run("admin update replaces the cached copy", func(t *testing.T) {
		updated := `{"school_name": "Academia", "primary_color": "#aa0055"}`
		cookies := login(t, "admin@academia.cd")

		rec := do(http.MethodPut, "/admin/settings", cookies, []byte(updated))
		checkCodeAndData(t, rec, http.StatusOK, updated)

		// subsequent reads see the update without another upstream round trip
		before := schoolAPI.settingsCalls
		rec = do(http.MethodGet, "/settings", cookies)
		checkCodeAndData(t, rec, http.StatusOK, updated)
		if schoolAPI.settingsCalls != before {
			t.Errorf("settingsCalls = %v; want %v (cache miss)", schoolAPI.settingsCalls, before)
		}
	})
}
