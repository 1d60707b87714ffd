package service

import (
	"context"
	"database/sql"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/noah-isme/stikes-adp-api/internal/dto"
	"github.com/noah-isme/stikes-adp-api/internal/models"
	appErrors "github.com/noah-isme/stikes-adp-api/pkg/errors"
)

type workflowRepoStub struct {
	items      map[string]*models.WorkflowItem
	lastFilter models.WorkflowFilter
	created    []*models.WorkflowItem
}

func (s *workflowRepoStub) List(_ context.Context, filter models.WorkflowFilter) ([]models.WorkflowItem, int, error) {
	s.lastFilter = filter
	return nil, 0, nil
}

func (s *workflowRepoStub) GetByID(_ context.Context, id string) (*models.WorkflowItem, error) {
	item, ok := s.items[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return item, nil
}

func (s *workflowRepoStub) Create(_ context.Context, item *models.WorkflowItem) error {
	item.ID = "wf-new"
	if item.StepsTotal < 1 {
		item.StepsTotal = 1
	}
	s.created = append(s.created, item)
	return nil
}

func TestWorkflowServiceCreate(t *testing.T) {
	repo := &workflowRepoStub{items: map[string]*models.WorkflowItem{}}
	svc := NewWorkflowService(repo, nil, nil, 0)

	item, err := svc.Create(context.Background(), dto.CreateWorkflowRequest{
		Category:    "travel",
		Title:       "  Conference travel to Chennai ",
		Description: " AICTE faculty development programme ",
		StepsTotal:  3,
	}, "user-1", "Dr. Asha Rao")
	require.NoError(t, err)
	require.Len(t, repo.created, 1)

	require.Equal(t, models.WorkflowTravel, item.Category)
	require.Equal(t, "Conference travel to Chennai", item.Title)
	require.Equal(t, "AICTE faculty development programme", item.Description)
	require.Equal(t, "user-1", item.RequesterID)
	require.Equal(t, "Dr. Asha Rao", item.RequesterName)
	require.Equal(t, 3, item.StepsTotal)
	require.Equal(t, models.StatusPending, item.Status)
}

func TestWorkflowServiceCreateValidation(t *testing.T) {
	repo := &workflowRepoStub{items: map[string]*models.WorkflowItem{}}
	svc := NewWorkflowService(repo, nil, nil, 0)

	_, err := svc.Create(context.Background(), dto.CreateWorkflowRequest{Category: "BUDGET"}, "user-1", "")
	requireCode(t, err, "VALIDATION_ERROR")

	_, err = svc.Create(context.Background(), dto.CreateWorkflowRequest{Category: "PROCUREMENT", Title: "New autoclave"}, "user-1", "")
	requireCode(t, err, "VALIDATION_ERROR")

	_, err = svc.Create(context.Background(), dto.CreateWorkflowRequest{Category: "EQUIPMENT", Title: "New autoclave"}, "", "")
	requireCode(t, err, "VALIDATION_ERROR")

	require.Empty(t, repo.created)
}

func TestWorkflowServiceCreateCapsSteps(t *testing.T) {
	repo := &workflowRepoStub{items: map[string]*models.WorkflowItem{}}
	svc := NewWorkflowService(repo, nil, nil, 0)

	_, err := svc.Create(context.Background(), dto.CreateWorkflowRequest{
		Category:   "BUDGET",
		Title:      "Annual lab budget",
		StepsTotal: 11,
	}, "user-1", "")
	requireCode(t, err, "VALIDATION_ERROR")

	var appErr *appErrors.Error
	require.ErrorAs(t, err, &appErr)
	require.Equal(t, "stepsTotal must not exceed 10", appErr.Message)

	item, err := svc.Create(context.Background(), dto.CreateWorkflowRequest{
		Category:   "BUDGET",
		Title:      "Annual lab budget",
		StepsTotal: 10,
	}, "user-1", "")
	require.NoError(t, err)
	require.Equal(t, 10, item.StepsTotal)
}

func TestWorkflowServiceListDefaultsPagination(t *testing.T) {
	repo := &workflowRepoStub{items: map[string]*models.WorkflowItem{}}
	svc := NewWorkflowService(repo, nil, nil, 0)

	_, pagination, err := svc.List(context.Background(), models.WorkflowFilter{Category: models.WorkflowTravel})
	require.NoError(t, err)
	require.Equal(t, 1, pagination.Page)
	require.Equal(t, 20, pagination.PageSize)
	require.Equal(t, models.WorkflowTravel, repo.lastFilter.Category)
}

func TestWorkflowServiceGet(t *testing.T) {
	repo := &workflowRepoStub{items: map[string]*models.WorkflowItem{
		"wf-1": {ID: "wf-1", StepsTotal: 2, StepsApproved: 1, Status: models.StatusPartiallyApproved},
	}}
	svc := NewWorkflowService(repo, nil, nil, 0)

	item, err := svc.Get(context.Background(), "wf-1")
	require.NoError(t, err)
	require.Equal(t, 1, item.StepsApproved)

	_, err = svc.Get(context.Background(), "wf-404")
	requireCode(t, err, "NOT_FOUND")
}
