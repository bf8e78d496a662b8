package engine

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"brokerdesk/internal/calendar"
	"brokerdesk/internal/config"
	"brokerdesk/internal/domain"
	"brokerdesk/internal/engine/auth"
	"brokerdesk/internal/events"
	"brokerdesk/internal/repo"
)

type Engine struct {
	DB     *sql.DB
	Repo   repo.Repo
	Events events.Writer
	Auth   auth.Service
	Config *config.Config
	Now    func() time.Time
}

func New(db *sql.DB, cfg *config.Config) Engine {
	return Engine{
		DB:     db,
		Repo:   repo.Repo{DB: db},
		Events: events.Writer{DB: db},
		Auth:   auth.Service{DB: db, Config: cfg},
		Config: cfg,
		Now:    time.Now,
	}
}

func (e Engine) now() time.Time {
	if e.Now != nil {
		return e.Now()
	}
	return time.Now()
}

func (e Engine) stamp() string {
	return e.now().UTC().Format(time.RFC3339)
}

// location is the office timezone used to decide what "today" is.
func (e Engine) location() *time.Location {
	if e.Config == nil {
		return time.UTC
	}
	loc, err := e.Config.Location()
	if err != nil {
		return time.UTC
	}
	return loc
}

// LocalNow is the engine clock in the office timezone.
func (e Engine) LocalNow() time.Time {
	return e.now().In(e.location())
}

// Today is the current calendar date in the office timezone.
func (e Engine) Today() calendar.Date {
	return calendar.DateOf(e.now().In(e.location()))
}

func (e Engine) weekStart() time.Weekday {
	if e.Config == nil {
		return time.Sunday
	}
	wd, err := e.Config.WeekStart()
	if err != nil {
		return time.Sunday
	}
	return wd
}

// begin opens a transaction and stamps events with the engine clock.
func (e Engine) begin(ctx context.Context) (*sql.Tx, error) {
	return e.DB.BeginTx(ctx, nil)
}

func (e Engine) appendEvent(ctx context.Context, tx *sql.Tx, evtType, advisorID, kind, id string, payload events.EventPayload) error {
	w := e.Events
	if w.Now == nil {
		w.Now = e.now
	}
	return w.Append(ctx, tx, evtType, advisorID, kind, id, payload)
}

// visible reports whether a record owned by ownerID is in scope.
func visible(scope, ownerID string) bool {
	return scope == "" || scope == ownerID
}

func newID() string {
	return uuid.NewString()
}

func required(field, v string) error {
	if strings.TrimSpace(v) == "" {
		return domain.InvalidArgument(field, v, "is required")
	}
	return nil
}

// AdvisorCreateOptions are parameters for creating an advisor.
type AdvisorCreateOptions struct {
	ID      string
	Name    string
	Email   string
	Role    string
	ActorID string
}

// Bootstrap creates the first manager of an empty workspace. It is a no-op
// returning the existing advisor when id is already present.
func (e Engine) Bootstrap(ctx context.Context, id, name string) (domain.Advisor, error) {
	if a, err := e.Repo.GetAdvisor(ctx, nil, id); err == nil {
		return a, nil
	} else if !errors.Is(err, repo.ErrNotFound) {
		return domain.Advisor{}, err
	}
	n, err := e.Repo.CountAdvisors(ctx)
	if err != nil {
		return domain.Advisor{}, err
	}
	if n > 0 {
		return domain.Advisor{}, fmt.Errorf("workspace already has advisors; ask a manager to add %s", id)
	}
	return e.insertAdvisor(ctx, AdvisorCreateOptions{ID: id, Name: name, Role: domain.RoleManager, ActorID: id})
}

func (e Engine) CreateAdvisor(ctx context.Context, opts AdvisorCreateOptions) (domain.Advisor, error) {
	if err := e.Auth.Require(ctx, nil, opts.ActorID, auth.PermAdvisorManage); err != nil {
		return domain.Advisor{}, err
	}
	return e.insertAdvisor(ctx, opts)
}

func (e Engine) insertAdvisor(ctx context.Context, opts AdvisorCreateOptions) (domain.Advisor, error) {
	if err := required("name", opts.Name); err != nil {
		return domain.Advisor{}, err
	}
	if opts.Role == "" {
		opts.Role = domain.RoleAdvisor
	}
	if opts.Role != domain.RoleAdvisor && opts.Role != domain.RoleManager {
		return domain.Advisor{}, domain.InvalidArgument("role", opts.Role, "expected advisor or manager")
	}
	if opts.ID == "" {
		opts.ID = newID()
	}
	a := domain.Advisor{
		ID:        opts.ID,
		Name:      strings.TrimSpace(opts.Name),
		Email:     strings.TrimSpace(opts.Email),
		Role:      opts.Role,
		CreatedAt: e.stamp(),
	}
	tx, err := e.begin(ctx)
	if err != nil {
		return domain.Advisor{}, err
	}
	defer tx.Rollback()
	if err := e.Repo.InsertAdvisor(ctx, tx, a); err != nil {
		return domain.Advisor{}, err
	}
	if err := e.appendEvent(ctx, tx, events.AdvisorCreated, opts.ActorID, "advisor", a.ID, events.EventPayload{"role": a.Role, "name": a.Name}); err != nil {
		return domain.Advisor{}, err
	}
	if err := tx.Commit(); err != nil {
		return domain.Advisor{}, err
	}
	return a, nil
}

func (e Engine) GetAdvisor(ctx context.Context, id string) (domain.Advisor, error) {
	return e.Repo.GetAdvisor(ctx, nil, id)
}

func (e Engine) ListAdvisors(ctx context.Context, actorID string) ([]domain.Advisor, error) {
	scope, err := e.Auth.Scope(ctx, nil, actorID)
	if err != nil {
		return nil, err
	}
	if scope == "" {
		return e.Repo.ListAdvisors(ctx)
	}
	a, err := e.Repo.GetAdvisor(ctx, nil, scope)
	if err != nil {
		return nil, err
	}
	return []domain.Advisor{a}, nil
}

// CreateAPIKey issues a key for advisorID and returns it in plain text once.
// Advisors may issue keys for themselves; other targets need key.manage.
func (e Engine) CreateAPIKey(ctx context.Context, actorID, advisorID, name string) (domain.APIKey, string, error) {
	if advisorID == "" {
		advisorID = actorID
	}
	if advisorID != actorID {
		if err := e.Auth.Require(ctx, nil, actorID, auth.PermKeyManage); err != nil {
			return domain.APIKey{}, "", err
		}
	}
	if _, err := e.Repo.GetAdvisor(ctx, nil, advisorID); err != nil {
		return domain.APIKey{}, "", fmt.Errorf("advisor %s: %w", advisorID, err)
	}
	plain := "bdk_" + strings.ReplaceAll(uuid.NewString(), "-", "")
	key := domain.APIKey{
		ID:        newID(),
		AdvisorID: advisorID,
		Name:      name,
		KeyHash:   repo.HashAPIKey(plain),
		CreatedAt: e.stamp(),
	}
	tx, err := e.begin(ctx)
	if err != nil {
		return domain.APIKey{}, "", err
	}
	defer tx.Rollback()
	if err := e.Repo.InsertAPIKey(ctx, tx, key); err != nil {
		return domain.APIKey{}, "", err
	}
	if err := e.appendEvent(ctx, tx, events.APIKeyCreated, actorID, "api_key", key.ID, events.EventPayload{"advisor_id": advisorID, "name": name}); err != nil {
		return domain.APIKey{}, "", err
	}
	if err := tx.Commit(); err != nil {
		return domain.APIKey{}, "", err
	}
	return key, plain, nil
}

func (e Engine) ListAPIKeys(ctx context.Context, actorID string) ([]domain.APIKey, error) {
	scope, err := e.Auth.Scope(ctx, nil, actorID)
	if err != nil {
		return nil, err
	}
	return e.Repo.ListAPIKeys(ctx, scope)
}

// RevokeAPIKey deletes a key. Advisors may revoke their own keys; other
// keys need key.manage.
func (e Engine) RevokeAPIKey(ctx context.Context, actorID, keyID string) error {
	keys, err := e.Repo.ListAPIKeys(ctx, "")
	if err != nil {
		return err
	}
	var key *domain.APIKey
	for i := range keys {
		if keys[i].ID == keyID {
			key = &keys[i]
			break
		}
	}
	if key == nil {
		return fmt.Errorf("api key %s: %w", keyID, repo.ErrNotFound)
	}
	if key.AdvisorID != actorID {
		if err := e.Auth.Require(ctx, nil, actorID, auth.PermKeyManage); err != nil {
			return err
		}
	}
	tx, err := e.begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback()
	if err := e.Repo.DeleteAPIKey(ctx, tx, keyID); err != nil {
		return err
	}
	if err := e.appendEvent(ctx, tx, events.APIKeyRevoked, actorID, "api_key", keyID, events.EventPayload{"advisor_id": key.AdvisorID}); err != nil {
		return err
	}
	return tx.Commit()
}

// EventFilters narrow the activity log.
type EventFilters = repo.EventFilters

// ListEvents returns recent activity, newest first, limited to the actor's scope.
func (e Engine) ListEvents(ctx context.Context, actorID string, f EventFilters) ([]domain.Event, error) {
	scope, err := e.Auth.Scope(ctx, nil, actorID)
	if err != nil {
		return nil, err
	}
	if scope != "" {
		f.AdvisorID = scope
	}
	return e.Repo.LatestEvents(ctx, f)
}
