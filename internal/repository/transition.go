package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/stikes-adp-api/internal/models"
)

// execTransition applies a compare-and-set status update: the row moves to
// ToStatus only while it still holds FromStatus. Zero rows affected means the
// status changed underneath the caller (or the id is unknown) and surfaces as
// sql.ErrNoRows so services can report the conflict without refetching first.
// extraSet entries must reference columns whose named args are in extraArgs.
func execTransition(ctx context.Context, db *sqlx.DB, table string, params models.TransitionParams, extraSet []string, extraArgs map[string]interface{}) error {
	setParts := []string{
		"status = :to_status",
		"decided_by = :decided_by",
		"decided_at = :decided_at",
		"updated_at = :decided_at",
	}
	args := map[string]interface{}{
		"id":          params.ID,
		"from_status": params.FromStatus,
		"to_status":   params.ToStatus,
		"decided_by":  params.DecidedBy,
		"decided_at":  params.DecidedAt,
	}
	if params.DecisionNote != nil {
		setParts = append(setParts, "decision_note = :decision_note")
		args["decision_note"] = params.DecisionNote
	}
	if params.RejectionReason != nil {
		setParts = append(setParts, "rejection_reason = :rejection_reason")
		args["rejection_reason"] = params.RejectionReason
	}
	setParts = append(setParts, extraSet...)
	for key, val := range extraArgs {
		args[key] = val
	}

	where := "id = :id AND status = :from_status"
	if params.GuardSteps != nil {
		where += " AND steps_approved = :guard_steps"
		args["guard_steps"] = *params.GuardSteps
	}

	query := fmt.Sprintf("UPDATE %s SET %s WHERE %s", table, strings.Join(setParts, ", "), where)
	result, err := db.NamedExecContext(ctx, query, args)
	if err != nil {
		return fmt.Errorf("transition %s: %w", table, err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("check %s transition rows: %w", table, err)
	}
	if rows == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// statusPlaceholders appends the statuses to args and returns the matching
// positional placeholder list.
func statusPlaceholders(args *[]interface{}, statuses []models.ApprovalStatus) string {
	placeholders := make([]string, len(statuses))
	for i, status := range statuses {
		*args = append(*args, status)
		placeholders[i] = fmt.Sprintf("$%d", len(*args))
	}
	return strings.Join(placeholders, ",")
}
