package authz

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mkorobov/jobwatch/internal/models"
)

func Test_MatchPattern(t *testing.T) {
	t.Parallel()

	tests := []struct {
		pattern string
		path    string
		want    bool
	}{
		{"/healthz", "/healthz", true},
		{"/healthz", "/healthz/", false},
		{"/api/auth/**", "/api/auth", true},
		{"/api/auth/**", "/api/auth/login", true},
		{"/api/auth/**", "/api/auth/login/deep/path", true},
		{"/api/auth/**", "/api/authz", false},
		{"/api/admin/**", "/api/admin/users", true},
		{"/api/admin/**", "/api/user/me", false},
	}

	for _, tt := range tests {
		t.Run(tt.pattern+" vs "+tt.path, func(t *testing.T) {
			assert.Equal(t, tt.want, matchPattern(tt.pattern, tt.path))
		})
	}
}

func Test_Policy(t *testing.T) {
	t.Parallel()

	policy := NewPolicy(DefaultRules()...)

	admin := &models.Principal{
		UserID:      uuid.New(),
		Username:    "root",
		Authorities: []string{models.RoleAdmin},
	}
	user := &models.Principal{
		UserID:      uuid.New(),
		Username:    "mkorobov",
		Authorities: []string{models.RoleUser},
	}

	tests := []struct {
		name      string
		path      string
		principal *models.Principal
		want      Decision
	}{
		{"login is public", "/api/auth/login", nil, DecisionAllow},
		{"healthz is public", "/healthz", nil, DecisionAllow},
		{"docs are public", "/docs/openapi.json", nil, DecisionAllow},

		{"anonymous on user api", "/api/user/me", nil, DecisionUnauthorized},
		{"anonymous on admin api", "/api/admin/users", nil, DecisionUnauthorized},
		{"anonymous on unlisted path", "/metrics", nil, DecisionUnauthorized},

		{"user on user api", "/api/user/jobs", user, DecisionAllow},
		{"user on admin api", "/api/admin/users", user, DecisionForbidden},
		{"user on unlisted path", "/metrics", user, DecisionAllow},

		{"admin on admin api", "/api/admin/stats", admin, DecisionAllow},
		{"admin on user api", "/api/user/jobs", admin, DecisionAllow},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, policy.Authorize(tt.path, tt.principal))
		})
	}
}

func Test_Policy_FirstMatchWins(t *testing.T) {
	t.Parallel()

	// A later, broader rule must not override the earlier specific one
	policy := NewPolicy(
		Rule{Pattern: "/api/reports/internal/**", Requirement: RequireRole(models.RoleAdmin)},
		Rule{Pattern: "/api/reports/**", Requirement: Public},
	)

	user := &models.Principal{UserID: uuid.New(), Authorities: []string{models.RoleUser}}

	require.Equal(t, DecisionForbidden, policy.Authorize("/api/reports/internal/costs", user))
	require.Equal(t, DecisionAllow, policy.Authorize("/api/reports/weekly", nil))
}
