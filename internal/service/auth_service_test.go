package service

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/stikes-adp-api/internal/models"
)

type authRepoStub struct {
	userByEmail      *models.User
	userByID         *models.User
	refreshTokens    map[string]*models.RefreshToken
	lastLoginUpdated bool
	revokedAllFor    []string
	audits           []*models.AuditLog
}

func (s *authRepoStub) FindByEmail(_ context.Context, email string) (*models.User, error) {
	if s.userByEmail == nil || s.userByEmail.Email != email {
		return nil, sql.ErrNoRows
	}
	return s.userByEmail, nil
}

func (s *authRepoStub) FindByID(_ context.Context, id string) (*models.User, error) {
	if s.userByID != nil && s.userByID.ID == id {
		return s.userByID, nil
	}
	if s.userByEmail != nil && s.userByEmail.ID == id {
		return s.userByEmail, nil
	}
	return nil, sql.ErrNoRows
}

func (s *authRepoStub) UpdateLastLogin(context.Context, string, time.Time) error {
	s.lastLoginUpdated = true
	return nil
}

func (s *authRepoStub) RevokeUserRefreshTokens(_ context.Context, userID string) error {
	s.revokedAllFor = append(s.revokedAllFor, userID)
	return nil
}

func (s *authRepoStub) CreateRefreshToken(_ context.Context, token *models.RefreshToken) error {
	if s.refreshTokens == nil {
		s.refreshTokens = map[string]*models.RefreshToken{}
	}
	s.refreshTokens[token.Token] = token
	return nil
}

func (s *authRepoStub) FindRefreshToken(_ context.Context, token string) (*models.RefreshToken, error) {
	rt, ok := s.refreshTokens[token]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return rt, nil
}

func (s *authRepoStub) RevokeRefreshToken(_ context.Context, id string, revokedAt time.Time) error {
	for _, token := range s.refreshTokens {
		if token.ID == id {
			token.Revoked = true
			token.RevokedAt = &revokedAt
		}
	}
	return nil
}

func (s *authRepoStub) CreateAuditLog(_ context.Context, log *models.AuditLog) error {
	s.audits = append(s.audits, log)
	return nil
}

func newAuthFixture(repo *authRepoStub, singleSession bool) *AuthService {
	return NewAuthService(repo, nil, nil, AuthConfig{
		AccessTokenSecret:  "test-secret",
		AccessTokenExpiry:  time.Hour,
		RefreshTokenExpiry: 24 * time.Hour,
		Issuer:             "stikes-adp-api",
		SingleSession:      singleSession,
	})
}

func TestAuthServiceLoginSuccess(t *testing.T) {
	repo := &authRepoStub{userByEmail: &models.User{
		ID:           "u1",
		Email:        "asha.rao@stikes.ac.id",
		PasswordHash: hashFor(t, "anatomy-2026"),
		FullName:     "Dr. Asha Rao",
		Role:         models.RoleHOD,
		Active:       true,
	}}
	svc := newAuthFixture(repo, true)

	res, err := svc.Login(context.Background(), models.LoginRequest{
		Email:    "asha.rao@stikes.ac.id",
		Password: "anatomy-2026",
		IP:       "10.0.0.5",
	})
	require.NoError(t, err)

	assert.NotEmpty(t, res.AccessToken)
	assert.NotEmpty(t, res.RefreshToken)
	assert.Equal(t, "u1", res.User.ID)
	assert.Equal(t, models.RoleHOD, res.User.Role)
	assert.True(t, repo.lastLoginUpdated)
	// Single-session mode revokes older tokens before issuing the new one.
	assert.Equal(t, []string{"u1"}, repo.revokedAllFor)
	require.Contains(t, repo.refreshTokens, res.RefreshToken)

	require.Len(t, repo.audits, 1)
	assert.Equal(t, models.AuditActionLogin, repo.audits[0].Action)
	assert.Equal(t, "10.0.0.5", repo.audits[0].IPAddress)
}

func TestAuthServiceLoginRejectsBadCredentials(t *testing.T) {
	repo := &authRepoStub{userByEmail: &models.User{
		ID:           "u1",
		Email:        "asha.rao@stikes.ac.id",
		PasswordHash: hashFor(t, "anatomy-2026"),
		Active:       true,
	}}
	svc := newAuthFixture(repo, false)

	_, err := svc.Login(context.Background(), models.LoginRequest{
		Email:    "asha.rao@stikes.ac.id",
		Password: "wrong",
	})
	requireCode(t, err, "INVALID_CREDENTIALS")

	// Unknown emails fail with the same code so accounts cannot be probed.
	_, err = svc.Login(context.Background(), models.LoginRequest{
		Email:    "nobody@stikes.ac.id",
		Password: "anatomy-2026",
	})
	requireCode(t, err, "INVALID_CREDENTIALS")
}

func TestAuthServiceLoginInactiveAccount(t *testing.T) {
	repo := &authRepoStub{userByEmail: &models.User{
		ID:           "u1",
		Email:        "vikram.iyer@stikes.ac.id",
		PasswordHash: hashFor(t, "sabbatical"),
		Active:       false,
	}}
	svc := newAuthFixture(repo, false)

	_, err := svc.Login(context.Background(), models.LoginRequest{
		Email:    "vikram.iyer@stikes.ac.id",
		Password: "sabbatical",
	})
	requireCode(t, err, "ACCOUNT_INACTIVE")
}

func TestAuthServiceRefreshRotatesToken(t *testing.T) {
	user := &models.User{ID: "u1", Email: "asha.rao@stikes.ac.id", Role: models.RoleHOD, Active: true}
	repo := &authRepoStub{
		userByID: user,
		refreshTokens: map[string]*models.RefreshToken{
			"old-token": {ID: "rt1", UserID: "u1", Token: "old-token", ExpiresAt: time.Now().UTC().Add(time.Hour)},
		},
	}
	svc := newAuthFixture(repo, false)

	res, err := svc.RefreshToken(context.Background(), models.RefreshTokenRequest{RefreshToken: "old-token"})
	require.NoError(t, err)

	assert.NotEmpty(t, res.AccessToken)
	assert.NotEqual(t, "old-token", res.RefreshToken)
	assert.True(t, repo.refreshTokens["old-token"].Revoked)
	require.Contains(t, repo.refreshTokens, res.RefreshToken)
}

func TestAuthServiceRefreshRejectsExpiredToken(t *testing.T) {
	user := &models.User{ID: "u1", Active: true}
	repo := &authRepoStub{
		userByID: user,
		refreshTokens: map[string]*models.RefreshToken{
			"stale": {ID: "rt1", UserID: "u1", Token: "stale", ExpiresAt: time.Now().UTC().Add(-time.Minute)},
		},
	}
	svc := newAuthFixture(repo, false)

	_, err := svc.RefreshToken(context.Background(), models.RefreshTokenRequest{RefreshToken: "stale"})
	requireCode(t, err, "UNAUTHORIZED")

	_, err = svc.RefreshToken(context.Background(), models.RefreshTokenRequest{RefreshToken: "never-issued"})
	requireCode(t, err, "UNAUTHORIZED")
}

func TestAuthServiceLogout(t *testing.T) {
	repo := &authRepoStub{
		refreshTokens: map[string]*models.RefreshToken{
			"tok": {ID: "rt1", UserID: "u1", Token: "tok", ExpiresAt: time.Now().UTC().Add(time.Hour)},
		},
	}
	svc := newAuthFixture(repo, false)

	err := svc.Logout(context.Background(), "tok", "someone-else", models.LoginRequest{})
	requireCode(t, err, "FORBIDDEN")
	assert.False(t, repo.refreshTokens["tok"].Revoked)

	require.NoError(t, svc.Logout(context.Background(), "tok", "u1", models.LoginRequest{IP: "10.0.0.5"}))
	assert.True(t, repo.refreshTokens["tok"].Revoked)
	require.Len(t, repo.audits, 1)
	assert.Equal(t, models.AuditActionLogout, repo.audits[0].Action)
}

func TestAuthServiceValidateToken(t *testing.T) {
	svc := newAuthFixture(&authRepoStub{}, false)
	user := &models.User{ID: "u1", Email: "asha.rao@stikes.ac.id", FullName: "Dr. Asha Rao", Role: models.RoleHOD}

	token, _, err := svc.generateAccessToken(user)
	require.NoError(t, err)

	claims, err := svc.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, "u1", claims.UserID)
	assert.Equal(t, models.RoleHOD, claims.Role)

	other := NewAuthService(&authRepoStub{}, nil, nil, AuthConfig{AccessTokenSecret: "other-secret", AccessTokenExpiry: time.Hour})
	_, err = other.ValidateToken(token)
	requireCode(t, err, "UNAUTHORIZED")
}
