package engine

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"brokerdesk/internal/domain"
	"brokerdesk/internal/engine/auth"
	"brokerdesk/internal/events"
	"brokerdesk/internal/query"
	"brokerdesk/internal/repo"
	"brokerdesk/internal/views"
)

type ClientCreateOptions struct {
	ActorID string
	// AdvisorID assigns the client to another advisor; needs records.read_all.
	AdvisorID  string
	Name       string
	LastName   string
	NationalID string
	Phone      string
	Email      string
}

func (e Engine) CreateClient(ctx context.Context, opts ClientCreateOptions) (domain.Client, error) {
	if err := e.Auth.Require(ctx, nil, opts.ActorID, auth.PermClientWrite); err != nil {
		return domain.Client{}, err
	}
	if err := required("name", opts.Name); err != nil {
		return domain.Client{}, err
	}
	if err := required("national_id", opts.NationalID); err != nil {
		return domain.Client{}, err
	}
	owner, err := e.assignee(ctx, opts.ActorID, opts.AdvisorID)
	if err != nil {
		return domain.Client{}, err
	}
	c := domain.Client{
		ID:         newID(),
		AdvisorID:  owner,
		Name:       strings.TrimSpace(opts.Name),
		LastName:   strings.TrimSpace(opts.LastName),
		NationalID: strings.TrimSpace(opts.NationalID),
		Phone:      strings.TrimSpace(opts.Phone),
		Email:      strings.TrimSpace(opts.Email),
		CreatedAt:  e.stamp(),
		Properties: []domain.PropertySummary{},
	}
	tx, err := e.begin(ctx)
	if err != nil {
		return domain.Client{}, err
	}
	defer tx.Rollback()
	if err := e.Repo.InsertClient(ctx, tx, c); err != nil {
		return domain.Client{}, err
	}
	if err := e.appendEvent(ctx, tx, events.ClientCreated, opts.ActorID, "client", c.ID, events.EventPayload{"name": c.FullName(), "advisor_id": c.AdvisorID}); err != nil {
		return domain.Client{}, err
	}
	if err := tx.Commit(); err != nil {
		return domain.Client{}, err
	}
	return c, nil
}

// assignee resolves which advisor owns a new record.
func (e Engine) assignee(ctx context.Context, actorID, requested string) (string, error) {
	if requested == "" || requested == actorID {
		return actorID, nil
	}
	if err := e.Auth.Require(ctx, nil, actorID, auth.PermRecordsReadAll); err != nil {
		return "", err
	}
	if _, err := e.Repo.GetAdvisor(ctx, nil, requested); err != nil {
		return "", fmt.Errorf("advisor %s: %w", requested, err)
	}
	return requested, nil
}

// GetClient returns a client in the actor's scope. Out-of-scope clients are
// reported as not found.
func (e Engine) GetClient(ctx context.Context, actorID, id string) (domain.Client, error) {
	scope, err := e.Auth.Scope(ctx, nil, actorID)
	if err != nil {
		return domain.Client{}, err
	}
	c, err := e.Repo.GetClient(ctx, nil, id)
	if err != nil {
		return domain.Client{}, err
	}
	if !visible(scope, c.AdvisorID) {
		return domain.Client{}, repo.ErrNotFound
	}
	return c, nil
}

func (e Engine) FindClientByNationalID(ctx context.Context, actorID, nationalID string) (domain.Client, error) {
	if err := required("national_id", nationalID); err != nil {
		return domain.Client{}, err
	}
	scope, err := e.Auth.Scope(ctx, nil, actorID)
	if err != nil {
		return domain.Client{}, err
	}
	c, err := e.Repo.GetClientByNationalID(ctx, nationalID)
	if err != nil {
		return domain.Client{}, err
	}
	if !visible(scope, c.AdvisorID) {
		return domain.Client{}, repo.ErrNotFound
	}
	return c, nil
}

func (e Engine) ListClients(ctx context.Context, actorID string, opts views.ClientOptions) ([]domain.Client, error) {
	spec, err := views.ClientSpec(opts)
	if err != nil {
		return nil, err
	}
	scope, err := e.Auth.Scope(ctx, nil, actorID)
	if err != nil {
		return nil, err
	}
	records, err := e.Repo.ListClients(ctx, scope)
	if err != nil {
		return nil, err
	}
	return query.Run(records, spec), nil
}

func (e Engine) ownerInScope(ctx context.Context, scope string, ownerID *string) error {
	if ownerID == nil || *ownerID == "" {
		return nil
	}
	c, err := e.Repo.GetClient(ctx, nil, *ownerID)
	if errors.Is(err, repo.ErrNotFound) || (err == nil && !visible(scope, c.AdvisorID)) {
		return domain.InvalidArgument("owner_id", *ownerID, "unknown client")
	}
	return err
}
