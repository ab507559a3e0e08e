// Package policy decides, before any protected view renders, whether the
// current session may see the target route. Decisions are pure functions of
// (session state, static policy table); navigation is the caller's job and no
// network call is ever made here.
package policy

import (
	"strings"

	"github.com/trezcool/academia/core/session"
)

// Require is the access requirement attached to a route.
type Require int

const (
	Authenticated Require = iota // any logged-in user; the default for unmatched paths
	None                         // always allowed
	GuestOnly                    // logged-in users get bounced to their landing page
	Admin
	Teacher
	Parent
	Accountant
	Student
)

// Rule maps a path prefix to its requirement. Static configuration, never
// mutated at runtime.
type Rule struct {
	PathPrefix string
	Require    Require
}

// Decision is the guard's verdict for one navigation.
type Decision struct {
	Allow    bool
	Redirect string // target path when !Allow
}

var allow = Decision{Allow: true}

type Options struct {
	Rules        []Rule
	LoginPath    string
	FallbackPath string
	// Landings maps a role requirement to its dashboard path. Landing
	// resolution tie-breaks in the fixed order admin > teacher > parent,
	// falling back to FallbackPath.
	Landings map[Require]string
}

type Table struct {
	opts Options
}

func NewTable(opts Options) *Table {
	return &Table{opts: opts}
}

// landingOrder is the role priority used when a profile holds several role
// flags: admin > teacher > parent > fallback.
var landingOrder = []Require{Admin, Teacher, Parent}

func roleName(req Require) string {
	switch req {
	case Admin:
		return session.RoleAdmin
	case Teacher:
		return session.RoleTeacher
	case Parent:
		return session.RoleParent
	case Accountant:
		return session.RoleAccountant
	case Student:
		return session.RoleStudent
	}
	return ""
}

// Landing resolves the dashboard path for prof, excluding any denied role.
func (t *Table) Landing(prof *session.Profile, excluded ...Require) string {
	for _, req := range landingOrder {
		if isExcluded(req, excluded) {
			continue
		}
		if prof.HasRole(roleName(req)) {
			if path, ok := t.opts.Landings[req]; ok {
				return path
			}
		}
	}
	return t.opts.FallbackPath
}

func isExcluded(req Require, excluded []Require) bool {
	for _, ex := range excluded {
		if req == ex {
			return true
		}
	}
	return false
}

func (t *Table) match(path string) Rule {
	for _, rule := range t.opts.Rules {
		if path == rule.PathPrefix || strings.HasPrefix(path, rule.PathPrefix+"/") {
			return rule
		}
	}
	return Rule{PathPrefix: path, Require: Authenticated}
}

// Decide evaluates the target path against the policy table and the hydrated
// session snapshot.
func (t *Table) Decide(sess *session.Session, path string) Decision {
	rule := t.match(path)

	switch rule.Require {
	case None:
		return allow

	case GuestOnly:
		if sess.Authenticated() {
			return Decision{Redirect: t.Landing(sess.Profile)}
		}
		return allow

	case Authenticated:
		if !sess.Authenticated() {
			return Decision{Redirect: t.opts.LoginPath}
		}
		return allow

	default: // a specific role
		if !sess.Authenticated() {
			return Decision{Redirect: t.opts.LoginPath}
		}
		if !sess.Profile.HasRole(roleName(rule.Require)) {
			// land on the highest-priority dashboard the user does have,
			// excluding the denied one
			return Decision{Redirect: t.Landing(sess.Profile, rule.Require)}
		}
		return allow
	}
}
