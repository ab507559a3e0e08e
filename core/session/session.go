// Package session is the single source of truth for upstream credentials and
// identity. A Session is hydrated per navigation from browser cookies plus a
// profile cache; the Store is its only mutator (login, logout, refresh,
// profile fetch) and guarantees a Profile is never present without a
// corresponding access token.
package session

// State is the session state the route guard acts on.
type State int

const (
	Unauthenticated State = iota
	AuthenticatedNoProfile
	AuthenticatedWithProfile
)

// Session holds one contract instance's credentials and cached identity for
// the duration of a single navigation/call. Reads are snapshots; all writes go
// through the Store.
type Session struct {
	AccessToken  string
	RefreshToken string
	Profile      *Profile
}

// Authenticated reports whether the session holds an access token.
func (s *Session) Authenticated() bool {
	return s != nil && s.AccessToken != ""
}

func (s *Session) State() State {
	switch {
	case !s.Authenticated():
		return Unauthenticated
	case s.Profile == nil:
		return AuthenticatedNoProfile
	default:
		return AuthenticatedWithProfile
	}
}

// clear resets the session to the Unauthenticated state.
func (s *Session) clear() {
	if s == nil {
		return
	}
	s.AccessToken = ""
	s.RefreshToken = ""
	s.Profile = nil
}
