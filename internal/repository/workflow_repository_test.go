package repository

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/stikes-adp-api/internal/models"
)

func newWorkflowRepoMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func TestWorkflowRepositoryCreateDefaultsSingleStep(t *testing.T) {
	db, mock, cleanup := newWorkflowRepoMock(t)
	defer cleanup()

	repo := NewWorkflowRepository(db)
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO workflows")).
		WillReturnResult(sqlmock.NewResult(1, 1))

	item := &models.WorkflowItem{
		Category:    models.WorkflowEquipment,
		Title:       "New autoclave",
		RequesterID: "user-1",
	}
	require.NoError(t, repo.Create(context.Background(), item))
	require.NotEmpty(t, item.ID)
	require.Equal(t, 1, item.StepsTotal, "omitted stepsTotal falls back to a single step")
	require.Equal(t, models.StatusPending, item.Status)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestWorkflowRepositoryListByRequester(t *testing.T) {
	db, mock, cleanup := newWorkflowRepoMock(t)
	defer cleanup()

	repo := NewWorkflowRepository(db)
	rows := sqlmock.NewRows([]string{
		"id", "category", "title", "description", "requester_id", "requester_name",
		"steps_total", "steps_approved", "status", "rejection_reason", "decision_note",
		"decided_by", "decided_at", "created_at", "updated_at",
	}).AddRow(
		"wf-1", "TRAVEL", "Conference travel", "", "user-1", "Dr. Asha Rao",
		2, 1, "PARTIALLY_APPROVED", nil, nil,
		nil, nil, time.Now(), time.Now(),
	)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, category, title")).
		WithArgs("PARTIALLY_APPROVED", "user-1").
		WillReturnRows(rows)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM workflows")).
		WithArgs("PARTIALLY_APPROVED", "user-1").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

	list, total, err := repo.List(context.Background(), models.WorkflowFilter{
		Status:      []models.ApprovalStatus{models.StatusPartiallyApproved},
		RequesterID: "user-1",
	})
	require.NoError(t, err)
	require.Equal(t, 1, total)
	require.Len(t, list, 1)
	require.Equal(t, 1, list[0].StepsApproved)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestWorkflowRepositoryTransitionMovesStepCounter(t *testing.T) {
	db, mock, cleanup := newWorkflowRepoMock(t)
	defer cleanup()

	repo := NewWorkflowRepository(db)
	steps := 1
	guard := 0
	params := models.TransitionParams{
		ID:            "wf-1",
		FromStatus:    models.StatusPending,
		ToStatus:      models.StatusPartiallyApproved,
		DecidedBy:     "user-1",
		DecidedAt:     time.Now().UTC(),
		StepsApproved: &steps,
		GuardSteps:    &guard,
	}

	// Both the SET clause and the WHERE guard must carry the step counter so
	// two reviewers cannot land the same step.
	pattern := regexp.QuoteMeta("UPDATE workflows SET") +
		".*" + regexp.QuoteMeta("steps_approved = ?") +
		".*" + regexp.QuoteMeta("WHERE id = ?") +
		".*" + regexp.QuoteMeta("AND steps_approved = ?")
	mock.ExpectExec(pattern).WillReturnResult(sqlmock.NewResult(0, 1))
	require.NoError(t, repo.Transition(context.Background(), params))

	mock.ExpectExec(pattern).WillReturnResult(sqlmock.NewResult(0, 0))
	err := repo.Transition(context.Background(), params)
	require.ErrorIs(t, err, sql.ErrNoRows)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestWorkflowRepositoryTransitionWithoutStepsKeepsPlainGuard(t *testing.T) {
	db, mock, cleanup := newWorkflowRepoMock(t)
	defer cleanup()

	repo := NewWorkflowRepository(db)
	params := models.TransitionParams{
		ID:         "wf-1",
		FromStatus: models.StatusApproved,
		ToStatus:   models.StatusCompleted,
		DecidedBy:  "user-1",
		DecidedAt:  time.Now().UTC(),
	}

	pattern := regexp.QuoteMeta("UPDATE workflows SET") +
		".*" + regexp.QuoteMeta("WHERE id = ? AND status = ?") + "$"
	mock.ExpectExec(pattern).WillReturnResult(sqlmock.NewResult(0, 1))
	require.NoError(t, repo.Transition(context.Background(), params))
	require.NoError(t, mock.ExpectationsWereMet())
}
