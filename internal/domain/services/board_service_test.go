package services_test

import (
	"testing"
	"time"

	"hoa-http-service/internal/domain/models"
	"hoa-http-service/internal/domain/services"
	"hoa-http-service/internal/test/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBootstrap(t *testing.T) {
	env := testutil.NewEnv(t)

	owner, err := env.Board().Bootstrap("Board@HOA.local", "bootstrap-pass")
	require.NoError(t, err)
	require.NotNil(t, owner)
	assert.Equal(t, "board@hoa.local", owner.Email)
	assert.True(t, owner.IsTemporaryPassword)

	member, err := env.Board().ActiveRole(owner.ID)
	require.NoError(t, err)
	assert.Equal(t, services.BootstrapRoleName, member.Role.Name)
	assert.True(t, member.Role.CanChangeMembers)

	login, err := env.Auth().Login("board@hoa.local", "bootstrap-pass")
	require.NoError(t, err)
	assert.Equal(t, services.RoleBoardMember, login.Role)
	assert.True(t, login.IsTemporaryPassword)

	again, err := env.Board().Bootstrap("other@hoa.local", "bootstrap-pass")
	require.NoError(t, err)
	assert.Nil(t, again)
}

func TestAssignAndEndRole(t *testing.T) {
	env := testutil.NewEnv(t)
	admin := env.CreateBoardMember(t, "Bea", "bea@example.com")
	owner := env.CreateOwner(t, "Ada", "ada@example.com")
	treasurer := env.CreateRole(t, "Treasurer", false, true, false)

	member, err := env.Board().AssignRole(admin.ID, owner.ID, treasurer.ID)
	require.NoError(t, err)
	assert.Equal(t, "Treasurer", member.Role.Name)
	assert.Equal(t, models.StartOfDay(testutil.Start), member.StartDate)

	_, err = env.Board().AssignRole(admin.ID, owner.ID, treasurer.ID)
	assert.ErrorIs(t, err, services.ErrActiveRoleExists)

	ids, err := env.Board().BoardMemberIDs()
	require.NoError(t, err)
	assert.ElementsMatch(t, []uint{admin.ID, owner.ID}, ids)

	recipients, err := env.Messages().BoardRecipients()
	require.NoError(t, err)
	require.Len(t, recipients, 2)

	t.Run("treasurer cannot manage members", func(t *testing.T) {
		err := env.Board().EndRole(owner.ID, admin.ID)
		assert.ErrorIs(t, err, services.ErrPermissionDenied)
	})

	t.Run("own role and system account are protected", func(t *testing.T) {
		assert.ErrorIs(t, env.Board().EndRole(admin.ID, admin.ID), services.ErrCannotEndRole)
		assert.ErrorIs(t, env.Board().EndRole(admin.ID, models.SystemOwnerID), services.ErrCannotEndRole)
	})

	require.NoError(t, env.Board().EndRole(admin.ID, owner.ID))
	_, err = env.Board().ActiveRole(owner.ID)
	assert.ErrorIs(t, err, services.ErrNoActiveRole)

	assert.ErrorIs(t, env.Board().EndRole(admin.ID, owner.ID), services.ErrNoActiveRole)

	// A new term can start once the old one ended
	env.Clock.Advance(24 * time.Hour)
	_, err = env.Board().AssignRole(admin.ID, owner.ID, treasurer.ID)
	assert.NoError(t, err)
}

func TestAssignRoleValidation(t *testing.T) {
	env := testutil.NewEnv(t)
	admin := env.CreateBoardMember(t, "Bea", "bea@example.com")
	role := env.CreateRole(t, "Secretary", false, false, false)

	account, err := env.Owners().CreateAccount(admin.ID, services.CreateAccountInput{
		Address:      "3 Elm Ct",
		PurchaseDate: testutil.Start,
	})
	require.NoError(t, err)

	_, err = env.Board().AssignRole(admin.ID, account.OwnerID, role.ID)
	assert.ErrorIs(t, err, services.ErrValidation)

	owner := env.CreateOwner(t, "Ada", "ada@example.com")
	_, err = env.Board().AssignRole(admin.ID, owner.ID, 9999)
	assert.ErrorIs(t, err, services.ErrRoleNotFound)

	_, err = env.Board().AssignRole(admin.ID, 9999, role.ID)
	assert.ErrorIs(t, err, services.ErrOwnerNotFound)

	_, err = env.Board().AssignRole(owner.ID, owner.ID, role.ID)
	assert.ErrorIs(t, err, services.ErrPermissionDenied)
}

func TestRoles(t *testing.T) {
	env := testutil.NewEnv(t)
	admin := env.CreateBoardMember(t, "Bea", "bea@example.com")

	role, err := env.Board().CreateRole(admin.ID, services.RoleInput{Name: " Vice President ", CanAssessFines: true})
	require.NoError(t, err)
	assert.Equal(t, "Vice President", role.Name)

	_, err = env.Board().CreateRole(admin.ID, services.RoleInput{Name: "  "})
	assert.ErrorIs(t, err, services.ErrValidation)

	updated, err := env.Board().UpdateRole(admin.ID, role.ID, services.RoleInput{CanChangeRates: true})
	require.NoError(t, err)
	assert.Equal(t, "Vice President", updated.Name)
	assert.False(t, updated.CanAssessFines)
	assert.True(t, updated.CanChangeRates)

	_, err = env.Board().UpdateRole(admin.ID, 9999, services.RoleInput{Name: "Ghost"})
	assert.ErrorIs(t, err, services.ErrRoleNotFound)

	roles, err := env.Board().ListRoles()
	require.NoError(t, err)
	assert.Len(t, roles, 2)

	members, err := env.Board().ListMembers()
	require.NoError(t, err)
	require.Len(t, members, 1)
	assert.Equal(t, admin.ID, members[0].OwnerID)
	assert.NotNil(t, members[0].Owner)
}
