package userservice_test

import (
	"context"
	"testing"
	"time"

	"github.com/henjigg/consumption/internal/consumption/repository/memory"
	"github.com/henjigg/consumption/internal/consumption/services/userservice"
	"github.com/henjigg/consumption/pkg/logger"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

type invalidations struct {
	accounts []string
}

func (c *invalidations) Invalidate(_ context.Context, account string) error {
	c.accounts = append(c.accounts, account)

	return nil
}

func newService(s *memory.Store) (*userservice.UserService, *invalidations) {
	cache := &invalidations{accounts: nil}

	return userservice.New(s, cache, logger.Nop(), time.Second), cache
}

func TestEnsureAdminCreatesVerifiableAdmin(t *testing.T) {
	s := memory.NewStore()
	us, _ := newService(s)

	require.NoError(t, us.EnsureAdmin(context.Background(), "admin", "admin123"))

	u, ok, err := s.GetByAccount(context.Background(), "admin")
	require.NoError(t, err)
	require.True(t, ok)
	require.True(t, u.FlagAdmin)

	// The stored hash must verify the configured password: the admin has to
	// be able to log in on a fresh database.
	require.NoError(t, bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte("admin123")))
}

func TestEnsureAdminIdempotent(t *testing.T) {
	s := memory.NewStore()
	us, _ := newService(s)

	require.NoError(t, us.EnsureAdmin(context.Background(), "admin", "admin123"))

	before, _, err := s.GetByAccount(context.Background(), "admin")
	require.NoError(t, err)

	// A second start must not duplicate or rehash the record.
	require.NoError(t, us.EnsureAdmin(context.Background(), "admin", "other"))

	after, _, err := s.GetByAccount(context.Background(), "admin")
	require.NoError(t, err)
	require.Equal(t, before, after)

	page, err := us.GetUsers(context.Background(), userservice.ListUsersRequest{
		Search:    "admin",
		PageIndex: 0,
		PageSize:  10,
	})
	require.NoError(t, err)
	require.EqualValues(t, 1, page.TotalCount)
}

func TestAddUserResetsDefaults(t *testing.T) {
	s := memory.NewStore()
	us, _ := newService(s)

	err := us.AddUser(context.Background(), userservice.CreateUserRequest{
		Account:  "carol",
		Password: "secret",
		UserName: "Carol",
		Tel:      "555-0101",
		Email:    "carol@example.com",
	})
	require.NoError(t, err)

	u, ok, err := s.GetByAccount(context.Background(), "carol")
	require.NoError(t, err)
	require.True(t, ok)

	require.False(t, u.FlagAdmin)
	require.False(t, u.IsLocked)
	require.Zero(t, u.LoginCounter)
	require.WithinDuration(t, time.Now().UTC(), u.CreateTime, time.Minute)

	require.NotEqual(t, "secret", u.PasswordHash)
	require.NoError(t, bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte("secret")))
}

func TestAddUserValidation(t *testing.T) {
	s := memory.NewStore()
	us, _ := newService(s)

	for _, req := range []userservice.CreateUserRequest{
		{Account: "", Password: "x", UserName: "x"},
		{Account: "x", Password: "", UserName: "x"},
		{Account: "x", Password: "x", UserName: "  "},
	} {
		err := us.AddUser(context.Background(), req)
		require.ErrorIs(t, err, userservice.ErrInvalidInput)
	}
}

func TestAddUserDuplicateAccount(t *testing.T) {
	s := memory.NewStore()
	us, _ := newService(s)

	req := userservice.CreateUserRequest{Account: "carol", Password: "secret", UserName: "Carol"}

	require.NoError(t, us.AddUser(context.Background(), req))
	require.ErrorIs(t, us.AddUser(context.Background(), req), userservice.ErrAlreadyExists)
}

func TestUpdateUserOverwritesMutableFields(t *testing.T) {
	s := memory.NewStore()
	us, cache := newService(s)

	require.NoError(t, us.AddUser(context.Background(), userservice.CreateUserRequest{
		Account:  "carol",
		Password: "secret",
		UserName: "Carol",
	}))

	before, _, err := s.GetByAccount(context.Background(), "carol")
	require.NoError(t, err)

	err = us.UpdateUser(context.Background(), before.ID, userservice.UpdateUserRequest{
		UserName:  "Caroline",
		Tel:       "555-0202",
		Email:     "caroline@example.com",
		Address:   "Elsewhere",
		IsLocked:  true,
		FlagAdmin: true,
	})
	require.NoError(t, err)

	after, ok, err := s.GetByID(context.Background(), before.ID)
	require.NoError(t, err)
	require.True(t, ok)

	require.Equal(t, "Caroline", after.UserName)
	require.True(t, after.IsLocked)
	require.True(t, after.FlagAdmin)

	// Identity and bookkeeping fields survive an update untouched.
	require.Equal(t, before.ID, after.ID)
	require.Equal(t, "carol", after.Account)
	require.Equal(t, before.CreateTime, after.CreateTime)
	require.Equal(t, before.LoginCounter, after.LoginCounter)

	// Empty password keeps the stored hash.
	require.Equal(t, before.PasswordHash, after.PasswordHash)

	require.Equal(t, []string{"carol"}, cache.accounts)
}

func TestUpdateUserRehashesPassword(t *testing.T) {
	s := memory.NewStore()
	us, _ := newService(s)

	require.NoError(t, us.AddUser(context.Background(), userservice.CreateUserRequest{
		Account:  "carol",
		Password: "secret",
		UserName: "Carol",
	}))

	before, _, err := s.GetByAccount(context.Background(), "carol")
	require.NoError(t, err)

	err = us.UpdateUser(context.Background(), before.ID, userservice.UpdateUserRequest{
		UserName: "Carol",
		Password: "changed",
	})
	require.NoError(t, err)

	after, _, err := s.GetByID(context.Background(), before.ID)
	require.NoError(t, err)
	require.NoError(t, bcrypt.CompareHashAndPassword([]byte(after.PasswordHash), []byte("changed")))
}

func TestUpdateUserNotFound(t *testing.T) {
	s := memory.NewStore()
	us, _ := newService(s)

	err := us.UpdateUser(context.Background(), 42, userservice.UpdateUserRequest{UserName: "Nobody"})
	require.ErrorIs(t, err, userservice.ErrNotFound)
}

func TestDeleteUser(t *testing.T) {
	s := memory.NewStore()
	us, cache := newService(s)

	require.NoError(t, us.AddUser(context.Background(), userservice.CreateUserRequest{
		Account:  "carol",
		Password: "secret",
		UserName: "Carol",
	}))

	u, _, err := s.GetByAccount(context.Background(), "carol")
	require.NoError(t, err)

	require.NoError(t, us.DeleteUser(context.Background(), u.ID))
	require.ErrorIs(t, us.DeleteUser(context.Background(), u.ID), userservice.ErrNotFound)

	require.Equal(t, []string{"carol"}, cache.accounts)
}

func TestGetUsersHidesHashes(t *testing.T) {
	s := memory.NewStore()
	us, _ := newService(s)

	require.NoError(t, us.AddUser(context.Background(), userservice.CreateUserRequest{
		Account:  "carol",
		Password: "secret",
		UserName: "Carol",
	}))

	page, err := us.GetUsers(context.Background(), userservice.ListUsersRequest{
		Search:    "",
		PageIndex: 0,
		PageSize:  10,
	})
	require.NoError(t, err)
	require.EqualValues(t, 1, page.TotalCount)
	require.Len(t, page.Items, 1)
	require.Empty(t, page.Items[0].PasswordHash)

	page, err = us.GetUsers(context.Background(), userservice.ListUsersRequest{
		Search:    "nobody",
		PageIndex: 0,
		PageSize:  10,
	})
	require.NoError(t, err)
	require.EqualValues(t, 0, page.TotalCount)
	require.Empty(t, page.Items)
}

var _ userservice.Repository = (*memory.Store)(nil)
