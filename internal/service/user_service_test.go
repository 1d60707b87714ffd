package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/noah-isme/stikes-adp-api/internal/models"
)

type userRepoStub struct {
	users      map[string]*models.User
	byEmail    map[string]*models.User
	listUsers  []models.User
	listTotal  int
	lastFilter models.UserFilter
	created    []*models.User
	updated    []*models.User
	deleted    []string
	passwords  map[string]string
	revoked    []string
	audits     []*models.AuditLog
}

func (s *userRepoStub) List(ctx context.Context, filter models.UserFilter) ([]models.User, int, error) {
	s.lastFilter = filter
	return s.listUsers, s.listTotal, nil
}

func (s *userRepoStub) FindByID(ctx context.Context, id string) (*models.User, error) {
	if u, ok := s.users[id]; ok {
		return u, nil
	}
	return nil, sql.ErrNoRows
}

func (s *userRepoStub) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	if u, ok := s.byEmail[email]; ok {
		return u, nil
	}
	return nil, sql.ErrNoRows
}

func (s *userRepoStub) Create(ctx context.Context, user *models.User) error {
	s.created = append(s.created, user)
	return nil
}

func (s *userRepoStub) Update(ctx context.Context, user *models.User) error {
	s.updated = append(s.updated, user)
	return nil
}

func (s *userRepoStub) Delete(ctx context.Context, id string) error {
	s.deleted = append(s.deleted, id)
	return nil
}

func (s *userRepoStub) UpdatePassword(ctx context.Context, id, passwordHash string, updatedAt time.Time) error {
	if s.passwords == nil {
		s.passwords = map[string]string{}
	}
	s.passwords[id] = passwordHash
	return nil
}

func (s *userRepoStub) RevokeUserRefreshTokens(ctx context.Context, userID string) error {
	s.revoked = append(s.revoked, userID)
	return nil
}

func (s *userRepoStub) CreateAuditLog(ctx context.Context, log *models.AuditLog) error {
	s.audits = append(s.audits, log)
	return nil
}

func newUserFixture() (*UserService, *userRepoStub) {
	repo := &userRepoStub{
		users:   map[string]*models.User{},
		byEmail: map[string]*models.User{},
	}
	return NewUserService(repo, nil, nil), repo
}

func hashFor(t *testing.T, password string) string {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	require.NoError(t, err)
	return string(hash)
}

func TestUserServiceCreateHashesPassword(t *testing.T) {
	svc, repo := newUserFixture()

	user, err := svc.Create(context.Background(), CreateUserRequest{
		Email:    "  Asha.Rao@stikes.ac.id ",
		FullName: "Dr. Asha Rao",
		Role:     models.RoleHOD,
		Active:   true,
		Password: "anatomy-2026",
	}, "admin-1", models.LoginRequest{IP: "10.0.0.5", UserAgent: "cli"})
	require.NoError(t, err)

	assert.Equal(t, "asha.rao@stikes.ac.id", user.Email)
	assert.NotEqual(t, "anatomy-2026", user.PasswordHash)
	require.NoError(t, bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte("anatomy-2026")))
	require.Len(t, repo.created, 1)

	require.Len(t, repo.audits, 1)
	audit := repo.audits[0]
	assert.Equal(t, models.AuditActionCreate, audit.Action)
	assert.Equal(t, "users", audit.Resource)
	require.NotNil(t, audit.UserID)
	assert.Equal(t, "admin-1", *audit.UserID)

	var payload map[string]interface{}
	require.NoError(t, json.Unmarshal(audit.NewValues, &payload))
	assert.Equal(t, user.Email, payload["email"])
}

func TestUserServiceCreateValidation(t *testing.T) {
	valid := CreateUserRequest{
		Email:    "vikram.iyer@stikes.ac.id",
		FullName: "Vikram Iyer",
		Role:     models.RoleFaculty,
		Password: "secret-pass",
	}

	cases := []struct {
		name   string
		mutate func(*CreateUserRequest)
	}{
		{"missing email", func(r *CreateUserRequest) { r.Email = "" }},
		{"bad email", func(r *CreateUserRequest) { r.Email = "not-an-email" }},
		{"unknown role", func(r *CreateUserRequest) { r.Role = "REGISTRAR" }},
		{"short password", func(r *CreateUserRequest) { r.Password = "abc" }},
		{"missing name", func(r *CreateUserRequest) { r.FullName = "" }},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			svc, repo := newUserFixture()
			req := valid
			tc.mutate(&req)

			_, err := svc.Create(context.Background(), req, "admin-1", models.LoginRequest{})
			requireCode(t, err, "VALIDATION_ERROR")
			assert.Empty(t, repo.created)
		})
	}
}

func TestUserServiceCreateRejectsDuplicateEmail(t *testing.T) {
	svc, repo := newUserFixture()
	repo.byEmail["asha.rao@stikes.ac.id"] = &models.User{ID: "u1", Email: "asha.rao@stikes.ac.id"}

	_, err := svc.Create(context.Background(), CreateUserRequest{
		Email:    "Asha.Rao@stikes.ac.id",
		FullName: "Dr. Asha Rao",
		Role:     models.RoleHOD,
		Password: "anatomy-2026",
	}, "admin-1", models.LoginRequest{})
	requireCode(t, err, "CONFLICT")
	assert.Empty(t, repo.created)
}

func TestUserServiceUpdate(t *testing.T) {
	svc, repo := newUserFixture()
	repo.users["u1"] = &models.User{
		ID:       "u1",
		Email:    "asha.rao@stikes.ac.id",
		FullName: "Dr. Asha Rao",
		Role:     models.RoleFaculty,
		Active:   true,
	}

	inactive := false
	user, err := svc.Update(context.Background(), "u1", UpdateUserRequest{
		FullName: "Dr. Asha Rao",
		Role:     models.RoleHOD,
		Active:   &inactive,
	}, "admin-1", models.LoginRequest{IP: "10.0.0.5"})
	require.NoError(t, err)

	assert.Equal(t, models.RoleHOD, user.Role)
	assert.False(t, user.Active)
	require.Len(t, repo.updated, 1)

	require.Len(t, repo.audits, 1)
	audit := repo.audits[0]
	assert.Equal(t, models.AuditActionUpdate, audit.Action)

	var before map[string]interface{}
	require.NoError(t, json.Unmarshal(audit.OldValues, &before))
	assert.Equal(t, "FACULTY", before["role"])
	assert.Equal(t, true, before["active"])
}

func TestUserServiceUpdateNotFound(t *testing.T) {
	svc, repo := newUserFixture()

	_, err := svc.Update(context.Background(), "ghost", UpdateUserRequest{
		FullName: "Nobody",
		Role:     models.RoleStudent,
	}, "admin-1", models.LoginRequest{})
	requireCode(t, err, "NOT_FOUND")
	assert.Empty(t, repo.updated)
}

func TestUserServiceDelete(t *testing.T) {
	svc, repo := newUserFixture()
	repo.users["u1"] = &models.User{ID: "u1", Active: true}

	require.NoError(t, svc.Delete(context.Background(), "u1", "admin-1", models.LoginRequest{}))
	assert.Equal(t, []string{"u1"}, repo.deleted)

	require.Len(t, repo.audits, 1)
	assert.Equal(t, models.AuditActionDelete, repo.audits[0].Action)

	err := svc.Delete(context.Background(), "ghost", "admin-1", models.LoginRequest{})
	requireCode(t, err, "NOT_FOUND")
	assert.Len(t, repo.deleted, 1)
}

func TestUserServiceChangePassword(t *testing.T) {
	svc, repo := newUserFixture()
	repo.users["u1"] = &models.User{ID: "u1", PasswordHash: hashFor(t, "old-secret")}

	err := svc.ChangePassword(context.Background(), "u1", ChangePasswordRequest{
		CurrentPassword: "old-secret",
		NewPassword:     "new-secret",
	}, models.LoginRequest{IP: "10.0.0.5"})
	require.NoError(t, err)

	require.Contains(t, repo.passwords, "u1")
	require.NoError(t, bcrypt.CompareHashAndPassword([]byte(repo.passwords["u1"]), []byte("new-secret")))
	assert.Equal(t, []string{"u1"}, repo.revoked)

	require.Len(t, repo.audits, 1)
	assert.Equal(t, models.AuditActionUpdate, repo.audits[0].Action)
	assert.Equal(t, "users", repo.audits[0].Resource)
}

func TestUserServiceChangePasswordGuards(t *testing.T) {
	svc, repo := newUserFixture()
	repo.users["u1"] = &models.User{ID: "u1", PasswordHash: hashFor(t, "old-secret")}

	err := svc.ChangePassword(context.Background(), "u1", ChangePasswordRequest{
		CurrentPassword: "wrong",
		NewPassword:     "new-secret",
	}, models.LoginRequest{})
	requireCode(t, err, "INVALID_CREDENTIALS")

	err = svc.ChangePassword(context.Background(), "u1", ChangePasswordRequest{
		CurrentPassword: "old-secret",
		NewPassword:     "old-secret",
	}, models.LoginRequest{})
	requireCode(t, err, "VALIDATION_ERROR")

	err = svc.ChangePassword(context.Background(), "ghost", ChangePasswordRequest{
		CurrentPassword: "old-secret",
		NewPassword:     "new-secret",
	}, models.LoginRequest{})
	requireCode(t, err, "NOT_FOUND")

	assert.Empty(t, repo.passwords)
	assert.Empty(t, repo.revoked)
}

func TestUserServiceListDefaultsPagination(t *testing.T) {
	svc, repo := newUserFixture()
	repo.listUsers = []models.User{{ID: "u1"}, {ID: "u2"}}
	repo.listTotal = 57

	users, pagination, err := svc.List(context.Background(), models.UserFilter{})
	require.NoError(t, err)
	assert.Len(t, users, 2)
	require.NotNil(t, pagination)
	assert.Equal(t, 1, pagination.Page)
	assert.Equal(t, 20, pagination.PageSize)
	assert.Equal(t, 57, pagination.TotalCount)
}
