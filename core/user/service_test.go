package user_test

import (
	"context"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/upskillhub/upskill/core"
	"github.com/upskillhub/upskill/core/user"
	"github.com/upskillhub/upskill/services/email"
	"github.com/upskillhub/upskill/tests"
)

func TestService_SignUp(t *testing.T) {
	env := testutil.NewEnv(t)
	ctx := context.Background()

	usr, err := env.UserSvc.SignUp(ctx, user.SignUp{
		FullName: "Grace",
		Email:    "grace@test.cd",
		Password: testutil.Password,
		Role:     user.RoleMentor,
	})
	require.NoError(t, err)
	assert.True(t, usr.Active())
	assert.Equal(t, []string{user.RoleMentor}, usr.Roles)
	assert.NoError(t, usr.CheckPassword(testutil.Password))

	sent := emailsvc.Sent()
	if assert.Len(t, sent, 1) {
		assert.Equal(t, "welcome", sent[0].TemplateName)
		assert.Equal(t, "/mentor/onboarding", sent[0].TemplateData.(map[string]string)["OnboardingPath"])
	}

	_, err = env.UserSvc.GetByEmail(ctx, " GRACE@test.cd ")
	assert.NoError(t, err)
	_, err = env.UserSvc.GetByEmail(ctx, "  ")
	assert.Equal(t, user.ErrNotFound, err)
}

func TestService_Update(t *testing.T) {
	env := testutil.NewEnv(t)
	ctx := context.Background()
	usr := testutil.CreateUser(t, env.UserRepo, "Hero", "hero@test.cd", testutil.Password, []string{user.RoleStudent}, true)

	avatar := " https://cdn.test/hero.png "
	inactive := false
	updated, err := env.UserSvc.Update(ctx, usr, user.UpdateUser{
		FullName:  "Hero Two",
		Email:     "hero2@test.cd",
		AvatarURL: &avatar,
		IsActive:  &inactive,
		Password:  "N3w-passw0rd!",
	})
	require.NoError(t, err)
	assert.Equal(t, "Hero Two", updated.FullName)
	assert.Equal(t, "https://cdn.test/hero.png", updated.AvatarURL)
	assert.False(t, updated.Active())
	assert.Equal(t, []string{user.RoleStudent}, updated.Roles)
	assert.NoError(t, updated.CheckPassword("N3w-passw0rd!"))

	n, err := env.UserSvc.Delete(ctx, usr.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	_, err = env.UserSvc.GetByID(ctx, usr.ID)
	assert.Equal(t, user.ErrNotFound, errors.Cause(err))
}

func TestService_PasswordReset(t *testing.T) {
	env := testutil.NewEnv(t)
	ctx := context.Background()
	usr := testutil.CreateUser(t, env.UserRepo, "Hero", "hero@test.cd", testutil.Password, []string{user.RoleStudent}, true)
	testutil.CreateUser(t, env.UserRepo, "Gone", "gone@test.cd", testutil.Password, []string{user.RoleStudent}, false)

	assert.Equal(t, user.ErrNotFound, errors.Cause(env.UserSvc.RequestPasswordReset(ctx, "nobody@test.cd")))
	assert.Equal(t, user.ErrNotFound, errors.Cause(env.UserSvc.RequestPasswordReset(ctx, "gone@test.cd")))
	assert.Empty(t, emailsvc.Sent())

	require.NoError(t, env.UserSvc.RequestPasswordReset(ctx, "Hero@test.cd"))
	sent := emailsvc.Sent()
	require.Len(t, sent, 1)
	assert.Equal(t, "password_reset", sent[0].TemplateName)
	data := sent[0].TemplateData.(map[string]string)
	assert.Equal(t, user.EncodeUID(usr), data["UID"])

	const newPwd = "An0ther-s3cret!"
	tests := []struct {
		name  string
		input user.ResetUserPassword
	}{
		{name: "bad uid", input: user.ResetUserPassword{UID: "!!", Token: data["Token"], Password: newPwd}},
		{name: "unknown user", input: user.ResetUserPassword{UID: user.EncodeUID(user.User{ID: "c0ffee00-0000-0000-0000-000000000000"}), Token: data["Token"], Password: newPwd}},
		{name: "bad token", input: user.ResetUserPassword{UID: data["UID"], Token: "abc-123", Password: newPwd}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.True(t, core.IsValidationError(env.UserSvc.ResetPassword(ctx, tt.input)))
		})
	}

	reset := user.ResetUserPassword{UID: data["UID"], Token: data["Token"], Password: newPwd, PasswordConfirm: newPwd}
	require.NoError(t, env.UserSvc.ResetPassword(ctx, reset))
	usr, err := env.UserSvc.GetByID(ctx, usr.ID)
	require.NoError(t, err)
	assert.NoError(t, usr.CheckPassword(newPwd))

	// the token is bound to the previous password
	assert.True(t, core.IsValidationError(env.UserSvc.ResetPassword(ctx, reset)))
}
