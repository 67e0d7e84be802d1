package echoapi

import (
	"context"
	"net/http"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/upskillhub/upskill/core/user"
	"github.com/upskillhub/upskill/services/email"
	"github.com/upskillhub/upskill/tests"
)

func Test_userApi_signup(t *testing.T) {
	app, env := setup(t)
	testutil.CreateUser(t, env.UserRepo, "Taken", "taken@test.cd", testutil.Password, []string{user.RoleStudent}, true)

	signup := func(name, email, pwd, confirm, role string) []byte {
		return marshalObj(t, user.SignUp{FullName: name, Email: email, Password: pwd, PasswordConfirm: confirm, Role: role})
	}

	runHTTPTests(t, app, []httpTest{
		{
			name: "email taken", method: http.MethodPost, path: "/v1/auth/signup",
			body:     signup("Other", "TAKEN@test.cd", testutil.Password, testutil.Password, user.RoleStudent),
			wantCode: http.StatusBadRequest,
			wantData: marshalObj(t, map[string]string{"email": "a user with this email already exists"}),
		},
		{
			name: "cannot sign up as admin", method: http.MethodPost, path: "/v1/auth/signup",
			body:     signup("Eve", "eve@test.cd", testutil.Password, testutil.Password, user.RoleAdmin),
			wantCode: http.StatusBadRequest,
		},
		{
			name: "passwords mismatch", method: http.MethodPost, path: "/v1/auth/signup",
			body:     signup("Eve", "eve@test.cd", testutil.Password, "Other-pa55word!", user.RoleStudent),
			wantCode: http.StatusBadRequest,
		},
		{
			name: "common password", method: http.MethodPost, path: "/v1/auth/signup",
			body:     signup("Eve", "eve@test.cd", "password", "password", user.RoleStudent),
			wantCode: http.StatusBadRequest,
		},
	})

	t.Run("success", func(t *testing.T) {
		emailsvc.ResetSent()
		rec := do(app, http.MethodPost, "/v1/auth/signup", "",
			signup(" Ada Lovelace ", "Ada@Test.cd", testutil.Password, testutil.Password, user.RoleMentor))
		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

		var resp LoginResponse
		unmarshal(t, rec, &resp)
		assert.NotEmpty(t, resp.Token)
		assert.Equal(t, "Ada Lovelace", resp.User.FullName)
		assert.Equal(t, "ada@test.cd", resp.User.Email)
		assert.Equal(t, []string{user.RoleMentor}, resp.User.Roles)
		assert.Equal(t, user.OnboardingPaths[user.RoleMentor], resp.Redirect)

		sent := emailsvc.Sent()
		if assert.Len(t, sent, 1) {
			assert.Equal(t, "Welcome!", sent[0].Subject)
			assert.Contains(t, sent[0].TextContent, "/mentor/onboarding")
		}

		// the issued token opens a session
		rec = do(app, http.MethodGet, "/v1/auth/me", resp.Token)
		assert.Equal(t, http.StatusOK, rec.Code)
	})
}

func Test_userApi_login(t *testing.T) {
	app, env := setup(t)
	testutil.CreateUser(t, env.UserRepo, "N Dog", "ndog@test.cd", testutil.Password, []string{user.RoleStudent}, false)
	testutil.CreateStudent(t, env, "Hero", "hero@test.cd")
	testutil.CreateUser(t, env.UserRepo, "Newbie", "newbie@test.cd", testutil.Password, []string{user.RoleStudent}, true)
	testutil.CreateUser(t, env.UserRepo, "Admin", "admin@test.cd", testutil.Password, []string{user.RoleAdmin}, true)

	login := func(email, pwd string) []byte {
		return marshalObj(t, LoginRequest{Email: email, Password: pwd})
	}
	invalidCreds := marshalObj(t, httpErr{Error: "invalid credentials"})

	runHTTPTests(t, app, []httpTest{
		{
			name: "unknown email", method: http.MethodPost, path: "/v1/auth/login",
			body: login("nobody@test.cd", testutil.Password), wantCode: http.StatusBadRequest, wantData: invalidCreds,
		},
		{
			name: "wrong password", method: http.MethodPost, path: "/v1/auth/login",
			body: login("hero@test.cd", "nope"), wantCode: http.StatusBadRequest, wantData: invalidCreds,
		},
		{
			name: "inactive user", method: http.MethodPost, path: "/v1/auth/login",
			body: login("ndog@test.cd", testutil.Password), wantCode: http.StatusForbidden,
			wantData: marshalObj(t, httpErr{Error: "account deactivated"}),
		},
	})

	redirects := []struct {
		email, want string
	}{
		{"hero@test.cd", "/student/dashboard"},
		{"newbie@test.cd", "/onboarding"},
		{"admin@test.cd", "/"},
	}
	for _, tt := range redirects {
		tt := tt
		t.Run("redirect "+tt.email, func(t *testing.T) {
			rec := do(app, http.MethodPost, "/v1/auth/login", "", login(tt.email, testutil.Password))
			require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

			var resp LoginResponse
			unmarshal(t, rec, &resp)
			assert.NotEmpty(t, resp.Token)
			assert.Equal(t, tt.email, resp.User.Email)
			assert.Equal(t, tt.want, resp.Redirect)
			assert.False(t, resp.User.LastLogin.IsZero())
		})
	}
}

func Test_userApi_sessions(t *testing.T) {
	app, env := setup(t)
	hero, _ := testutil.CreateStudent(t, env, "Hero", "hero@test.cd")

	runHTTPTests(t, app, []httpTest{
		{name: "auth required", path: "/v1/auth/me", wantCode: http.StatusUnauthorized, wantData: marshalObj(t, errMissingToken)},
		{name: "bad token", path: "/v1/auth/me", token: "not.a.jwt", wantCode: http.StatusUnauthorized},
	})

	t.Run("refresh then logout", func(t *testing.T) {
		token := getToken(t, env, hero)

		rec := do(app, http.MethodPost, "/v1/auth/token-refresh", token)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		var resp LoginResponse
		unmarshal(t, rec, &resp)
		require.NotEmpty(t, resp.Token)

		// the refreshed session replaces the old one
		rec = do(app, http.MethodGet, "/v1/auth/me", token)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		rec = do(app, http.MethodGet, "/v1/auth/me", resp.Token)
		assert.Equal(t, http.StatusOK, rec.Code)

		rec = do(app, http.MethodPost, "/v1/auth/logout", resp.Token)
		assert.Equal(t, http.StatusNoContent, rec.Code)

		rec = do(app, http.MethodGet, "/v1/auth/me", resp.Token)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.JSONEq(t, `{"error": "session has been revoked"}`, rec.Body.String())
	})

	t.Run("deactivated after sign in", func(t *testing.T) {
		usr := testutil.CreateUser(t, env.UserRepo, "Gone", "gone@test.cd", testutil.Password, []string{user.RoleStudent}, true)
		token := getToken(t, env, usr)

		usr.SetActive(false)
		_, err := env.UserRepo.UpdateUser(context.Background(), usr)
		require.NoError(t, err)

		rec := do(app, http.MethodGet, "/v1/auth/me", token)
		assert.Equal(t, http.StatusForbidden, rec.Code)
	})
}

func Test_userApi_passwordReset(t *testing.T) {
	app, env := setup(t)
	testutil.CreateStudent(t, env, "Hero", "hero@test.cd")
	emailsvc.ResetSent()

	want := marshalObj(t, SuccessResponse{Success: passwordResetRequested})
	runHTTPTests(t, app, []httpTest{
		{
			name: "unknown email is not disclosed", method: http.MethodPost, path: "/v1/auth/password-reset",
			body: marshalObj(t, PasswordResetRequest{Email: "nobody@test.cd"}), wantData: want,
		},
		{
			name: "known email", method: http.MethodPost, path: "/v1/auth/password-reset",
			body: marshalObj(t, PasswordResetRequest{Email: "hero@test.cd"}), wantData: want,
		},
	})

	sent := emailsvc.Sent()
	if assert.Len(t, sent, 1) {
		assert.Equal(t, "hero@test.cd", sent[0].To[0].Address)
		assert.Equal(t, "Password Reset", sent[0].Subject)
	}
}

func Test_userApi_admin(t *testing.T) {
	app, env := setup(t)
	admin := testutil.CreateUser(t, env.UserRepo, "Admin", "admin@test.cd", testutil.Password, []string{user.RoleAdmin}, true)
	hero, _ := testutil.CreateStudent(t, env, "Hero", "hero@test.cd")
	other, _ := testutil.CreateStudent(t, env, "Other", "other@test.cd")

	adminToken := getToken(t, env, admin)
	heroToken := getToken(t, env, hero)
	forbidden := marshalObj(t, httpErr{Error: "permission denied"})

	runHTTPTests(t, app, []httpTest{
		{name: "list: auth required", path: "/v1/users", wantCode: http.StatusUnauthorized, wantData: marshalObj(t, errMissingToken)},
		{name: "list: admin required", path: "/v1/users", token: heroToken, wantCode: http.StatusForbidden, wantData: forbidden},
		{name: "roles", path: "/v1/users/roles", token: adminToken, wantData: marshalObj(t, user.Roles)},
		{name: "list: ordering", path: "/v1/users?ordering=-created_at,%20Email", token: adminToken},
		{
			name: "list: unknown ordering", path: "/v1/users?ordering=-password_hash,email", token: adminToken,
			wantCode: http.StatusBadRequest, wantData: marshalObj(t, map[string]string{"ordering": "Unknown ordering field: password_hash"}),
		},
		{name: "retrieve self", path: "/v1/users/" + hero.ID, token: heroToken},
		{
			name: "retrieve other", path: "/v1/users/" + other.ID, token: heroToken,
			wantCode: http.StatusNotFound, wantData: marshalObj(t, httpErr{Error: "not found"}),
		},
		{name: "admin retrieves anyone", path: "/v1/users/" + other.ID, token: adminToken},
		{name: "unknown user", path: "/v1/users/c0ffee00-0000-0000-0000-000000000000", token: adminToken, wantCode: http.StatusNotFound},
		{
			name: "student cannot change roles", method: http.MethodPut, path: "/v1/users/" + hero.ID, token: heroToken,
			body: marshalObj(t, map[string]interface{}{"roles": []string{user.RoleAdmin}}), wantCode: http.StatusForbidden, wantData: forbidden,
		},
		{name: "student cannot delete", method: http.MethodDelete, path: "/v1/users/" + other.ID, token: heroToken, wantCode: http.StatusNotFound},
		{name: "admin cannot delete self", method: http.MethodDelete, path: "/v1/users/" + admin.ID, token: adminToken, wantCode: http.StatusForbidden},
	})

	t.Run("list", func(t *testing.T) {
		rec := do(app, http.MethodGet, "/v1/users?role=student", adminToken)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		var users []user.User
		unmarshal(t, rec, &users)
		assert.Len(t, users, 2)
	})

	t.Run("delete", func(t *testing.T) {
		rec := do(app, http.MethodDelete, "/v1/users/"+other.ID, adminToken)
		assert.Equal(t, http.StatusNoContent, rec.Code)
		_, err := env.UserRepo.GetUser(context.Background(), user.GetFilter{ID: other.ID})
		assert.Equal(t, user.ErrNotFound, errors.Cause(err))
	})
}
