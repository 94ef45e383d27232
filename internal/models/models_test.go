package models

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRoleFor(t *testing.T) {
	cases := []struct {
		superuser bool
		owner     bool
		want      Role
	}{
		{false, false, RoleStandard},
		{false, true, RoleBusinessOwner},
		{true, false, RoleAdministrator},
		{true, true, RoleAdministrator},
	}
	for _, tt := range cases {
		assert.Equal(t, tt.want, RoleFor(tt.superuser, tt.owner), "superuser=%v owner=%v", tt.superuser, tt.owner)
	}
}

func TestUserJSONOmitsPasswordHash(t *testing.T) {
	data, err := json.Marshal(User{ID: "u1", Email: "a@example.com", PasswordHash: "secret"})
	require.NoError(t, err)
	assert.NotContains(t, string(data), "secret")
	assert.Contains(t, string(data), `"is_superuser":false`)
}

func TestIdentityOf(t *testing.T) {
	id := IdentityOf(User{ID: "u1", Email: "a@example.com", IsBusinessOwner: true})
	assert.Equal(t, RoleBusinessOwner, id.Role)
	assert.False(t, id.IsAdministrator())
	assert.Equal(t, "u1", id.UserID)
}
