package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"occ-api/internal/middleware"
	"occ-api/internal/model"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

var testSecret = []byte("test-secret")

func newTestUserService(t *testing.T, repo *mockUserRepo, tokens *memTokens) (*userService, *mockAudit) {
	t.Helper()
	audit := &mockAudit{}
	roles := &mockRoleService{GetPermissionsByRoleNameFn: func(context.Context, string) ([]string, error) {
		return []string{model.PermDashboardRead}, nil
	}}
	svc := NewUserService(repo, tokens, roles, audit, AuthSettings{
		Secret:     testSecret,
		AccessTTL:  time.Hour,
		RefreshTTL: 24 * time.Hour,
	}, zap.NewNop()).(*userService)
	svc.hashCost = bcrypt.MinCost
	return svc, audit
}

func hashed(t *testing.T, password string) string {
	t.Helper()
	b, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	require.NoError(t, err)
	return string(b)
}

func TestLoginIssuesVerifiableTokens(t *testing.T) {
	user := &model.User{ID: uuid.New(), Email: "ana@occ.com.br", Password: hashed(t, "secret123"), Role: model.RoleAdmin, Active: true}
	repo := &mockUserRepo{
		GetByEmailFn: func(_ context.Context, email string) (*model.User, error) {
			assert.Equal(t, "ana@occ.com.br", email)
			return user, nil
		},
		TouchLoginFn: func(context.Context, uuid.UUID, time.Time) error { return nil },
	}
	tokens := newMemTokens()
	svc, audit := newTestUserService(t, repo, tokens)

	res, err := svc.Login(context.Background(), LoginUserRequest{Email: " Ana@OCC.com.br ", Password: "secret123"})
	require.NoError(t, err)

	claims, err := middleware.ParseToken(res.Token, testSecret)
	require.NoError(t, err)
	assert.Equal(t, user.ID, claims.UserID)
	assert.Equal(t, model.RoleAdmin, claims.Role)
	assert.Len(t, res.RefreshToken, 64)
	assert.EqualValues(t, 3600, res.ExpiresIn)
	assert.NotEmpty(t, res.User.LastLoginAt)
	assert.Equal(t, []string{model.ActionLogin}, audit.actions())
}

func TestLoginFailures(t *testing.T) {
	active := &model.User{ID: uuid.New(), Password: hashed(t, "secret123"), Role: model.RoleAdmin, Active: true}
	inactive := &model.User{ID: uuid.New(), Password: hashed(t, "secret123"), Role: model.RoleAdmin}

	cases := []struct {
		name    string
		user    *model.User
		lookErr error
		pass    string
		want    error
	}{
		{"unknown email", nil, gorm.ErrRecordNotFound, "secret123", ErrInvalidCredentials},
		{"wrong password", active, nil, "nope", ErrInvalidCredentials},
		{"inactive", inactive, nil, "secret123", ErrInactiveUser},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			repo := &mockUserRepo{GetByEmailFn: func(context.Context, string) (*model.User, error) {
				return tc.user, tc.lookErr
			}}
			svc, _ := newTestUserService(t, repo, newMemTokens())
			_, err := svc.Login(context.Background(), LoginUserRequest{Email: "x@y.z", Password: tc.pass})
			assert.ErrorIs(t, err, tc.want)
		})
	}
}

func TestRefreshTokenRotates(t *testing.T) {
	user := &model.User{ID: uuid.New(), Role: model.RoleClient, Active: true}
	repo := &mockUserRepo{GetByIDFn: func(context.Context, uuid.UUID) (*model.User, error) { return user, nil }}
	tokens := newMemTokens()
	svc, _ := newTestUserService(t, repo, tokens)

	first, err := svc.issueTokens(context.Background(), user)
	require.NoError(t, err)

	second, err := svc.RefreshToken(context.Background(), RefreshTokenRequest{RefreshToken: first.RefreshToken})
	require.NoError(t, err)
	assert.NotEqual(t, first.RefreshToken, second.RefreshToken)

	_, err = svc.RefreshToken(context.Background(), RefreshTokenRequest{RefreshToken: first.RefreshToken})
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestRefreshTokenLosingRotationIsRejected(t *testing.T) {
	user := &model.User{ID: uuid.New(), Role: model.RoleClient, Active: true}
	repo := &mockUserRepo{GetByIDFn: func(context.Context, uuid.UUID) (*model.User, error) { return user, nil }}
	tokens := newMemTokens()
	svc, _ := newTestUserService(t, repo, tokens)

	first, err := svc.issueTokens(context.Background(), user)
	require.NoError(t, err)
	svc.tokens = racedTokens{tokens}

	_, err = svc.RefreshToken(context.Background(), RefreshTokenRequest{RefreshToken: first.RefreshToken})
	require.NoError(t, err)

	// The lookup still sees the token as active; the revoke must decide.
	_, err = svc.RefreshToken(context.Background(), RefreshTokenRequest{RefreshToken: first.RefreshToken})
	assert.ErrorIs(t, err, ErrInvalidToken)
	assert.Len(t, tokens.tokens, 2)
}

func TestLogoutTwiceIsNoop(t *testing.T) {
	user := &model.User{ID: uuid.New(), Role: model.RoleAdmin, Active: true}
	tokens := newMemTokens()
	svc, _ := newTestUserService(t, &mockUserRepo{}, tokens)

	session, err := svc.issueTokens(context.Background(), user)
	require.NoError(t, err)

	require.NoError(t, svc.Logout(context.Background(), session.RefreshToken))
	require.NoError(t, svc.Logout(context.Background(), session.RefreshToken))
}

func TestChangePasswordRevokesSessions(t *testing.T) {
	user := &model.User{ID: uuid.New(), Password: hashed(t, "old-pass"), Role: model.RoleAdmin, Active: true}
	var saved string
	repo := &mockUserRepo{
		GetByIDFn: func(context.Context, uuid.UUID) (*model.User, error) { return user, nil },
		UpdateFn: func(_ context.Context, u *model.User) error {
			saved = u.Password
			return nil
		},
	}
	tokens := newMemTokens()
	svc, _ := newTestUserService(t, repo, tokens)
	session, err := svc.issueTokens(context.Background(), user)
	require.NoError(t, err)

	actor := Actor{ID: user.ID, Role: user.Role}
	err = svc.ChangePassword(context.Background(), actor, ChangePasswordRequest{CurrentPassword: "wrong", NewPassword: "new-pass"})
	var inErr *InputError
	require.True(t, errors.As(err, &inErr))
	assert.Equal(t, "current_password", inErr.Field)

	require.NoError(t, svc.ChangePassword(context.Background(), actor, ChangePasswordRequest{CurrentPassword: "old-pass", NewPassword: "new-pass"}))
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(saved), []byte("new-pass")))

	_, err = svc.RefreshToken(context.Background(), RefreshTokenRequest{RefreshToken: session.RefreshToken})
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestCreateUserRoleRules(t *testing.T) {
	repo := &mockUserRepo{
		GetByEmailFn: func(context.Context, string) (*model.User, error) { return nil, gorm.ErrRecordNotFound },
		CreateFn: func(_ context.Context, u *model.User) error {
			u.ID = uuid.New()
			return nil
		},
	}
	svc, audit := newTestUserService(t, repo, newMemTokens())
	admin := Actor{ID: uuid.New(), Role: model.RoleAdmin}
	root := Actor{ID: uuid.New(), Role: model.RoleSuperAdmin}

	_, err := svc.CreateUser(context.Background(), admin, CreateUserRequest{Name: "x", Email: "x@y.z", Password: "123456", Role: model.RoleClient})
	var inErr *InputError
	assert.True(t, errors.As(err, &inErr))

	_, err = svc.CreateUser(context.Background(), admin, CreateUserRequest{Name: "x", Email: "x@y.z", Password: "123456", Role: model.RoleSuperAdmin})
	assert.ErrorIs(t, err, ErrForbidden)

	res, err := svc.CreateUser(context.Background(), root, CreateUserRequest{Name: "Root 2", Email: "R2@y.z", Password: "123456", Role: model.RoleSuperAdmin})
	require.NoError(t, err)
	assert.Equal(t, "r2@y.z", res.Email)
	assert.Equal(t, []string{model.ActionCreateUser}, audit.actions())
}

func TestCreateUserEmailTaken(t *testing.T) {
	repo := &mockUserRepo{GetByEmailFn: func(context.Context, string) (*model.User, error) { return &model.User{}, nil }}
	svc, _ := newTestUserService(t, repo, newMemTokens())

	_, err := svc.CreateUser(context.Background(), Actor{Role: model.RoleSuperAdmin}, CreateUserRequest{Email: "x@y.z", Password: "123456", Role: model.RoleAdmin})
	assert.ErrorIs(t, err, ErrEmailTaken)
	assert.ErrorIs(t, err, ErrConflict)
}

func TestMeIncludesPermissions(t *testing.T) {
	user := &model.User{ID: uuid.New(), Role: model.RoleAdmin, Active: true}
	repo := &mockUserRepo{GetByIDFn: func(context.Context, uuid.UUID) (*model.User, error) { return user, nil }}
	svc, _ := newTestUserService(t, repo, newMemTokens())

	res, err := svc.Me(context.Background(), Actor{ID: user.ID, Role: user.Role})
	require.NoError(t, err)
	assert.Equal(t, []string{model.PermDashboardRead}, res.Permissions)
}
