package auth

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"slices"

	"brokerdesk/internal/config"
)

// Permissions checked by the engine.
const (
	PermAdvisorManage  = "advisor.manage"
	PermKeyManage      = "key.manage"
	PermClientWrite    = "client.write"
	PermPropertyWrite  = "property.write"
	PermScheduleWrite  = "schedule.write"
	PermRecordsReadAll = "records.read_all"
	PermStatsRead      = "stats.read"
)

var ErrUnknownAdvisor = errors.New("unknown advisor")

// ForbiddenError indicates missing permission.
type ForbiddenError struct {
	Permission string
}

func (e ForbiddenError) Error() string {
	return fmt.Sprintf("permission %s required", e.Permission)
}

var builtinRoles = map[string][]string{
	"manager": {PermAdvisorManage, PermKeyManage, PermClientWrite, PermPropertyWrite, PermScheduleWrite, PermRecordsReadAll, PermStatsRead},
	"advisor": {PermClientWrite, PermPropertyWrite, PermScheduleWrite, PermStatsRead},
}

// Service resolves advisor roles from SQL and role permissions from config.
type Service struct {
	DB     *sql.DB
	Config *config.Config
}

func (s Service) RolePermissions(role string) []string {
	if s.Config != nil && len(s.Config.RBAC.Roles) > 0 {
		return s.Config.Permissions(role)
	}
	return builtinRoles[role]
}

func (s Service) AdvisorRole(ctx context.Context, tx *sql.Tx, advisorID string) (string, error) {
	if advisorID == "" {
		return "", ErrUnknownAdvisor
	}
	query := `SELECT role FROM advisors WHERE id=?`
	var row *sql.Row
	if tx != nil {
		row = tx.QueryRowContext(ctx, query, advisorID)
	} else {
		row = s.DB.QueryRowContext(ctx, query, advisorID)
	}
	var role string
	err := row.Scan(&role)
	if err == sql.ErrNoRows {
		return "", fmt.Errorf("%w %s", ErrUnknownAdvisor, advisorID)
	}
	return role, err
}

func (s Service) AdvisorPermissions(ctx context.Context, tx *sql.Tx, advisorID string) ([]string, error) {
	role, err := s.AdvisorRole(ctx, tx, advisorID)
	if err != nil {
		return nil, err
	}
	return s.RolePermissions(role), nil
}

func (s Service) HasPermission(ctx context.Context, tx *sql.Tx, advisorID, perm string) (bool, error) {
	perms, err := s.AdvisorPermissions(ctx, tx, advisorID)
	if err != nil {
		return false, err
	}
	return slices.Contains(perms, perm), nil
}

// Require returns ForbiddenError when advisorID lacks perm.
func (s Service) Require(ctx context.Context, tx *sql.Tx, advisorID, perm string) error {
	ok, err := s.HasPermission(ctx, tx, advisorID, perm)
	if err != nil {
		return err
	}
	if !ok {
		return ForbiddenError{Permission: perm}
	}
	return nil
}

// Scope returns the advisor whose records advisorID may read, or "" when
// it may read every advisor's records.
func (s Service) Scope(ctx context.Context, tx *sql.Tx, advisorID string) (string, error) {
	ok, err := s.HasPermission(ctx, tx, advisorID, PermRecordsReadAll)
	if err != nil {
		return "", err
	}
	if ok {
		return "", nil
	}
	return advisorID, nil
}
