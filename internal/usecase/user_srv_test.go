package usecase

import (
	"context"
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"medhistory/internal/dto/request"
)

func TestGetAllUsersPages(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	for i := 0; i < 5; i++ {
		env.addUser(t, fmt.Sprintf("+91000000004%d", i), "", "secret-pass")
		env.clock.Advance(1)
	}

	page, err := env.users.GetAllUsers(ctx, &request.PageRequest{Page: 2, PerPage: 2})
	require.NoError(t, err)
	assert.Len(t, page.Data, 2)
	assert.Equal(t, "+910000000042", page.Data[0].Username)
	assert.Equal(t, int64(5), page.Pagination.Total)
	assert.Equal(t, 3, page.Pagination.TotalPages)

	last, err := env.users.GetAllUsers(ctx, &request.PageRequest{Page: 3, PerPage: 2})
	require.NoError(t, err)
	assert.Len(t, last.Data, 1)
}

func TestDeleteUser(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	user := env.addUser(t, "+910000000050", "", "secret-pass")

	resp, err := env.login.Login(ctx, &request.LoginRequest{Username: "+910000000050", Password: "secret-pass"})
	require.NoError(t, err)

	var verr *ValidationError
	require.ErrorAs(t, env.users.DeleteUser(ctx, "not-a-uuid"), &verr)
	assert.ErrorIs(t, env.users.DeleteUser(ctx, uuid.NewString()), ErrNotFound)

	require.NoError(t, env.users.DeleteUser(ctx, user.ID.String()))

	_, err = env.users.GetProfile(ctx, user.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = env.login.Refresh(ctx, &request.RefreshRequest{Refresh: resp.Refresh})
	assert.ErrorIs(t, err, ErrTokenInvalid)
}

func TestIsStaff(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	user := env.addUser(t, "+910000000051", "", "secret-pass")

	staff, err := env.users.IsStaff(ctx, user.ID)
	require.NoError(t, err)
	assert.False(t, staff)

	user.IsStaff = true
	require.NoError(t, env.repo.User.Update(ctx, user))

	staff, err = env.users.IsStaff(ctx, user.ID)
	require.NoError(t, err)
	assert.True(t, staff)

	staff, err = env.users.IsStaff(ctx, uuid.New())
	require.NoError(t, err)
	assert.False(t, staff)
}
