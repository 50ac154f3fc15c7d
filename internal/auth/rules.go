package auth

import (
	"path"
	"strings"

	"go-hospital/internal/user"
)

type requirementKind int

const (
	kindPublic requirementKind = iota
	kindAuthenticated
	kindRole
)

// Requirement is what a rule demands of the caller.
type Requirement struct {
	kind requirementKind
	role string
}

var (
	Public        = Requirement{kind: kindPublic}
	Authenticated = Requirement{kind: kindAuthenticated}
)

func RequireRole(name string) Requirement {
	return Requirement{kind: kindRole, role: name}
}

func (r Requirement) IsPublic() bool { return r.kind == kindPublic }

func (r Requirement) String() string {
	switch r.kind {
	case kindPublic:
		return "public"
	case kindAuthenticated:
		return "authenticated"
	default:
		return "role:" + r.role
	}
}

// Rule binds a path pattern to a requirement. A pattern is either an
// exact path or a prefix ending in "/**".
type Rule struct {
	Pattern     string
	Requirement Requirement
}

func (r Rule) Matches(p string) bool {
	if r.Pattern == "/**" {
		return true
	}
	if prefix, ok := strings.CutSuffix(r.Pattern, "/**"); ok {
		return p == prefix || strings.HasPrefix(p, prefix+"/")
	}
	return p == r.Pattern
}

// DefaultRules is the rule table of the application. Order matters:
// the first matching rule wins.
func DefaultRules() []Rule {
	admin := RequireRole(user.RoleAdmin)
	return []Rule{
		{Pattern: "/", Requirement: Public},
		{Pattern: "/login", Requirement: Public},
		{Pattern: "/static/**", Requirement: Public},
		{Pattern: "/health", Requirement: Public},
		{Pattern: "/notAuthorized", Requirement: Public},
		{Pattern: "/metrics", Requirement: admin},
		{Pattern: "/admin/delete", Requirement: admin},
		{Pattern: "/admin/editPatient", Requirement: admin},
		{Pattern: "/admin/save", Requirement: admin},
		{Pattern: "/admin/formPatients", Requirement: admin},
		{Pattern: "/admin/**", Requirement: admin},
		{Pattern: "/**", Requirement: Authenticated},
	}
}

type Decision int

const (
	Allow Decision = iota
	RequireLogin
	Deny
)

func (d Decision) String() string {
	switch d {
	case Allow:
		return "allow"
	case RequireLogin:
		return "require-login"
	default:
		return "deny"
	}
}

// Match returns the first rule matching the cleaned path. Paths no rule
// covers require an authenticated caller.
func Match(rules []Rule, p string) Requirement {
	p = cleanPath(p)
	for _, r := range rules {
		if r.Matches(p) {
			return r.Requirement
		}
	}
	return Authenticated
}

// Authorize decides whether principal may access p. A nil principal is
// an anonymous caller. Disabled users are treated as anonymous.
func Authorize(rules []Rule, p string, principal *user.AppUser) Decision {
	req := Match(rules, p)
	if req.kind == kindPublic {
		return Allow
	}
	if principal == nil || !principal.Enabled {
		return RequireLogin
	}
	if req.kind == kindRole && !principal.HasRole(req.role) {
		return Deny
	}
	return Allow
}

func cleanPath(p string) string {
	if p == "" {
		return "/"
	}
	if !strings.HasPrefix(p, "/") {
		p = "/" + p
	}
	return path.Clean(p)
}
