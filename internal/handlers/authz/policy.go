package authz

import (
	"strings"

	"github.com/mkorobov/jobwatch/internal/models"
)

// Requirement is what a path demands from the request principal
type Requirement struct {
	// Public paths need no principal at all
	Public bool

	// Roles that satisfy the requirement. Empty means any authenticated
	// principal is enough.
	Roles []string
}

var (
	Public        = Requirement{Public: true}
	Authenticated = Requirement{}
)

func RequireRole(roles ...string) Requirement {
	return Requirement{Roles: roles}
}

// Rule binds a path pattern to a requirement.
// A pattern ending in "/**" matches the prefix itself and anything below
// it; any other pattern matches exactly.
type Rule struct {
	Pattern     string
	Requirement Requirement
}

// Policy is an ordered rule list evaluated first-match-wins.
// Paths matching no rule require an authenticated principal, so nothing
// outside the explicit public list is ever anonymous (default deny).
type Policy struct {
	rules []Rule
}

func NewPolicy(rules ...Rule) *Policy {
	return &Policy{rules: rules}
}

// DefaultRules is the application's authorization table
func DefaultRules() []Rule {
	return []Rule{
		{Pattern: "/api/auth/**", Requirement: Public},
		{Pattern: "/api/public/**", Requirement: Public},
		{Pattern: "/healthz", Requirement: Public},
		{Pattern: "/docs/**", Requirement: Public},
		{Pattern: "/static/**", Requirement: Public},
		{Pattern: "/api/admin/**", Requirement: RequireRole(models.RoleAdmin)},
		{Pattern: "/api/user/**", Requirement: RequireRole(models.RoleAdmin, models.RoleUser)},
	}
}

// Evaluate returns the requirement of the first matching rule
func (p *Policy) Evaluate(path string) Requirement {
	for _, rule := range p.rules {
		if matchPattern(rule.Pattern, path) {
			return rule.Requirement
		}
	}
	return Authenticated
}

type Decision int

const (
	DecisionAllow Decision = iota
	DecisionUnauthorized
	DecisionForbidden
)

// Authorize decides for the path and the (possibly absent) principal.
// A missing principal on a protected path is Unauthorized; a present
// principal without a required role is Forbidden.
func (p *Policy) Authorize(path string, principal *models.Principal) Decision {
	requirement := p.Evaluate(path)

	if requirement.Public {
		return DecisionAllow
	}

	if principal == nil {
		return DecisionUnauthorized
	}

	if len(requirement.Roles) == 0 {
		return DecisionAllow
	}

	for _, role := range requirement.Roles {
		if principal.HasAuthority(role) {
			return DecisionAllow
		}
	}

	return DecisionForbidden
}

func matchPattern(pattern string, path string) bool {
	if prefix, found := strings.CutSuffix(pattern, "/**"); found {
		return path == prefix || strings.HasPrefix(path, prefix+"/")
	}

	return path == pattern
}
