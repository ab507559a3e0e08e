package session

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	cache "github.com/patrickmn/go-cache"
	"github.com/pkg/errors"

	"github.com/trezcool/academia/core"
	"github.com/trezcool/academia/core/upstream"
)

var errNoAccessToken = errors.New("session holds no access token")

type (
	// CookieNames are the names of the two token cookies. The primary and the
	// student contracts use disjoint names so the two sessions can never share
	// or cross-invalidate tokens.
	CookieNames struct {
		Access  string
		Refresh string
	}

	// Paths are the upstream routes of the auth exchanges.
	Paths struct {
		Login          string
		Refresh        string
		Profile        string
		Register       string // student portal only
		ChangePassword string // student portal only
	}

	Options struct {
		API     *upstream.Client
		Logger  core.Logger
		Conf    core.SessionConfig
		Cookies CookieNames
		Paths   Paths
		// ProfileKey names the response field the profile is nested under on
		// login/registration. Empty means the profile fields come flattened
		// next to the token pair (primary contract).
		ProfileKey string
		// SecureCookies marks the token cookies Secure (off in DEV).
		SecureCookies bool
	}

	// Store owns all session mutations for one contract instance. It is
	// constructed once at app start and injected into the gateway and the
	// route guard middleware; there is no package-global session state.
	Store struct {
		api        *upstream.Client
		logger     core.Logger
		conf       core.SessionConfig
		cookies    CookieNames
		paths      Paths
		profileKey string
		secure     bool
		profiles   *cache.Cache // access token -> *Profile
	}
)

func NewStore(opts Options) *Store {
	return &Store{
		api:        opts.API,
		logger:     opts.Logger,
		conf:       opts.Conf,
		cookies:    opts.Cookies,
		paths:      opts.Paths,
		profileKey: opts.ProfileKey,
		secure:     opts.SecureCookies,
		profiles:   cache.New(opts.Conf.AccessTokenMaxAge, opts.Conf.AccessTokenMaxAge),
	}
}

// Hydrate builds the Session for the current navigation from the request's
// cookies and the profile cache. It never goes to the network.
func (s *Store) Hydrate(r *http.Request) *Session {
	sess := &Session{}
	if c, err := r.Cookie(s.cookies.Access); err == nil {
		sess.AccessToken = c.Value
	}
	if c, err := r.Cookie(s.cookies.Refresh); err == nil {
		sess.RefreshToken = c.Value
	}
	// profile only ever rides along with an access token
	if sess.AccessToken != "" {
		if cached, ok := s.profiles.Get(sess.AccessToken); ok {
			sess.Profile = cached.(*Profile)
		}
	}
	return sess
}

// Login exchanges credentials for a token pair plus profile in one round trip.
// On success it atomically installs both cookies and the cached profile; on
// failure the prior session state is left untouched and the returned error
// carries a user-displayable message normalized from the server payload.
func (s *Store) Login(ctx context.Context, w http.ResponseWriter, credentials interface{}) (*Session, error) {
	raw, err := s.api.Do(ctx, upstream.Call{
		Method: http.MethodPost,
		Path:   s.paths.Login,
		Body:   credentials,
	})
	if err != nil {
		return nil, err
	}
	return s.install(w, raw)
}

// Register signs a student up and logs them in with the same response shape as
// Login (student portal only).
func (s *Store) Register(ctx context.Context, w http.ResponseWriter, data interface{}) (*Session, error) {
	raw, err := s.api.Do(ctx, upstream.Call{
		Method: http.MethodPost,
		Path:   s.paths.Register,
		Body:   data,
	})
	if err != nil {
		return nil, err
	}
	return s.install(w, raw)
}

// install decodes a token+profile payload and commits it: token cookies,
// profile cache and the returned hydrated Session are set together.
func (s *Store) install(w http.ResponseWriter, raw json.RawMessage) (*Session, error) {
	var tokens struct {
		Access  string `json:"access"`
		Refresh string `json:"refresh"`
	}
	if err := json.Unmarshal(raw, &tokens); err != nil {
		return nil, errors.Wrap(err, "decoding token pair")
	}
	if tokens.Access == "" || tokens.Refresh == "" {
		return nil, errors.New("upstream response misses token pair")
	}

	prof, err := s.decodeProfile(raw)
	if err != nil {
		return nil, err
	}

	s.writeCookie(w, s.cookies.Access, tokens.Access, s.conf.AccessTokenMaxAge)
	s.writeCookie(w, s.cookies.Refresh, tokens.Refresh, s.conf.RefreshTokenMaxAge)
	s.profiles.Set(tokens.Access, prof, cache.DefaultExpiration)

	return &Session{
		AccessToken:  tokens.Access,
		RefreshToken: tokens.Refresh,
		Profile:      prof,
	}, nil
}

// decodeProfile separates the profile fields from the token fields. The
// primary contract flattens them next to `access`/`refresh`; the student
// contract nests them under a dedicated key.
func (s *Store) decodeProfile(raw json.RawMessage) (*Profile, error) {
	prof := new(Profile)
	if s.profileKey == "" {
		if err := json.Unmarshal(raw, prof); err != nil {
			return nil, errors.Wrap(err, "decoding profile")
		}
		return prof, nil
	}

	var payload map[string]json.RawMessage
	if err := json.Unmarshal(raw, &payload); err != nil {
		return nil, errors.Wrap(err, "decoding response")
	}
	nested, ok := payload[s.profileKey]
	if !ok {
		return nil, errors.Errorf("upstream response misses %q", s.profileKey)
	}
	if err := json.Unmarshal(nested, prof); err != nil {
		return nil, errors.Wrapf(err, "decoding %q", s.profileKey)
	}
	prof.IsStudent = true
	return prof, nil
}

// Logout clears both token cookies, the cached profile and the in-memory
// session synchronously; no upstream call is awaited. It is idempotent and
// safe to call redundantly.
func (s *Store) Logout(sess *Session, w http.ResponseWriter) {
	if sess != nil && sess.AccessToken != "" {
		s.profiles.Delete(sess.AccessToken)
	}
	s.expireCookie(w, s.cookies.Access)
	s.expireCookie(w, s.cookies.Refresh)
	sess.clear()
}

// Refresh exchanges the refresh token for a new access token.
//
// Fail-closed: with no refresh token it logs out without issuing a network
// call and returns false. Any exchange failure (expired/invalid refresh token,
// network error) is normalized to the same outcome — a full logout — because
// this layer cannot tell "unrecoverable" from "transient". On success only the
// access token is replaced; refresh token and profile stay untouched.
func (s *Store) Refresh(ctx context.Context, sess *Session, w http.ResponseWriter) bool {
	if sess == nil || sess.RefreshToken == "" {
		s.Logout(sess, w)
		return false
	}

	raw, err := s.api.Do(ctx, upstream.Call{
		Method: http.MethodPost,
		Path:   s.paths.Refresh,
		Body:   map[string]string{"refresh": sess.RefreshToken},
	})
	if err != nil {
		if s.logger != nil {
			s.logger.Info("token refresh failed, logging out", err)
		}
		s.Logout(sess, w)
		return false
	}

	var payload struct {
		Access string `json:"access"`
	}
	if err := json.Unmarshal(raw, &payload); err != nil || payload.Access == "" {
		s.Logout(sess, w)
		return false
	}

	// carry the cached profile over to the new token key
	if prof := sess.Profile; prof != nil {
		s.profiles.Delete(sess.AccessToken)
		s.profiles.Set(payload.Access, prof, cache.DefaultExpiration)
	}
	s.writeCookie(w, s.cookies.Access, payload.Access, s.conf.AccessTokenMaxAge)
	sess.AccessToken = payload.Access
	return true
}

// FetchProfile hydrates the profile of a session that only has tokens (app
// bootstrap after a reload). Any failure, auth or otherwise, forces a logout.
func (s *Store) FetchProfile(ctx context.Context, sess *Session, w http.ResponseWriter) error {
	if !sess.Authenticated() {
		return errNoAccessToken
	}

	raw, err := s.api.Do(ctx, upstream.Call{
		Method: http.MethodGet,
		Path:   s.paths.Profile,
		Bearer: sess.AccessToken,
	})
	if err != nil {
		s.Logout(sess, w)
		return err
	}

	prof := new(Profile)
	if err := json.Unmarshal(raw, prof); err != nil {
		s.Logout(sess, w)
		return errors.Wrap(err, "decoding profile")
	}
	if s.profileKey != "" {
		prof.IsStudent = true
	}

	s.profiles.Set(sess.AccessToken, prof, cache.DefaultExpiration)
	sess.Profile = prof
	return nil
}

// ChangePassword posts a password change for the logged-in student
// (student portal only). The session is not touched.
func (s *Store) ChangePassword(ctx context.Context, sess *Session, data interface{}) error {
	if !sess.Authenticated() {
		return errNoAccessToken
	}
	_, err := s.api.Do(ctx, upstream.Call{
		Method: http.MethodPost,
		Path:   s.paths.ChangePassword,
		Body:   data,
		Bearer: sess.AccessToken,
	})
	return err
}

func (s *Store) writeCookie(w http.ResponseWriter, name, value string, maxAge time.Duration) {
	http.SetCookie(w, &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		MaxAge:   int(maxAge.Seconds()),
		HttpOnly: true,
		Secure:   s.secure,
		SameSite: http.SameSiteLaxMode,
	})
}

func (s *Store) expireCookie(w http.ResponseWriter, name string) {
	http.SetCookie(w, &http.Cookie{
		Name:     name,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   s.secure,
		SameSite: http.SameSiteLaxMode,
	})
}
