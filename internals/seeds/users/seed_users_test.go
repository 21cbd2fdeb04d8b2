package users

import (
	"testing"

	authHelper "campusku_backend/internals/features/users/auth/helper"
	"campusku_backend/internals/features/users/user/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUserFixturesPassValidation(t *testing.T) {
	seeds, err := LoadUserSeeds("data_users.json")
	require.NoError(t, err)

	admins := 0
	for _, s := range seeds {
		u := model.UserModel{UserName: s.UserName, Email: s.Email, FullName: s.FullName, Password: s.Password, Role: s.Role}
		assert.NoError(t, u.Validate(), s.Email)
		assert.NoError(t, authHelper.CheckPasswordPolicy(s.Password), s.Email)
		if u.IsAdmin() {
			admins++
		}
	}
	assert.Equal(t, 1, admins)
}
