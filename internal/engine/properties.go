package engine

import (
	"context"
	"strings"

	"brokerdesk/internal/domain"
	"brokerdesk/internal/engine/auth"
	"brokerdesk/internal/events"
	"brokerdesk/internal/query"
	"brokerdesk/internal/repo"
	"brokerdesk/internal/views"
)

// PropertyCreateOptions mirror the listing form.
type PropertyCreateOptions struct {
	ActorID      string
	Title        string
	Description  string
	Address      string
	Latitude     *float64
	Longitude    *float64
	Status       string
	PropertyType string
	OfferType    string
	OwnerID      *string
	ImageURL     string
	Details      *domain.PropertyDetails
}

func (e Engine) CreateProperty(ctx context.Context, opts PropertyCreateOptions) (domain.Property, error) {
	if err := e.Auth.Require(ctx, nil, opts.ActorID, auth.PermPropertyWrite); err != nil {
		return domain.Property{}, err
	}
	scope, err := e.Auth.Scope(ctx, nil, opts.ActorID)
	if err != nil {
		return domain.Property{}, err
	}
	now := e.stamp()
	p := domain.Property{
		ID:           newID(),
		AdvisorID:    opts.ActorID,
		OwnerID:      opts.OwnerID,
		Title:        strings.TrimSpace(opts.Title),
		Description:  opts.Description,
		Address:      strings.TrimSpace(opts.Address),
		Latitude:     opts.Latitude,
		Longitude:    opts.Longitude,
		Status:       opts.Status,
		PropertyType: opts.PropertyType,
		OfferType:    opts.OfferType,
		ImageURL:     opts.ImageURL,
		Details:      opts.Details,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := e.validateProperty(ctx, scope, &p); err != nil {
		return domain.Property{}, err
	}
	tx, err := e.begin(ctx)
	if err != nil {
		return domain.Property{}, err
	}
	defer tx.Rollback()
	if err := e.Repo.InsertProperty(ctx, tx, p); err != nil {
		return domain.Property{}, err
	}
	if err := e.appendEvent(ctx, tx, events.PropertyCreated, opts.ActorID, "property", p.ID, events.EventPayload{"title": p.Title, "status": p.Status}); err != nil {
		return domain.Property{}, err
	}
	if err := tx.Commit(); err != nil {
		return domain.Property{}, err
	}
	return p, nil
}

func (e Engine) validateProperty(ctx context.Context, scope string, p *domain.Property) error {
	if err := required("title", p.Title); err != nil {
		return err
	}
	status, err := domain.NormalizePropertyStatus(p.Status)
	if err != nil {
		return err
	}
	p.Status = status
	if p.Latitude != nil && (*p.Latitude < -90 || *p.Latitude > 90) {
		return domain.InvalidArgument("latitude", *p.Latitude, "must be within [-90, 90]")
	}
	if p.Longitude != nil && (*p.Longitude < -180 || *p.Longitude > 180) {
		return domain.InvalidArgument("longitude", *p.Longitude, "must be within [-180, 180]")
	}
	if d := p.Details; d != nil {
		for field, v := range map[string]*float64{"price": d.Price, "area_sqm": d.AreaSqm, "lot_size": d.LotSize} {
			if v != nil && *v < 0 {
				return domain.InvalidArgument(field, *v, "must not be negative")
			}
		}
		for field, v := range map[string]*int{"bedrooms": d.Bedrooms, "bathrooms": d.Bathrooms, "half_baths": d.HalfBaths, "parking_spots": d.ParkingSpots} {
			if v != nil && *v < 0 {
				return domain.InvalidArgument(field, *v, "must not be negative")
			}
		}
		switch d.Period {
		case "", "monthly", "yearly", "once":
		default:
			return domain.InvalidArgument("period", d.Period, "expected monthly, yearly or once")
		}
	}
	if p.OwnerID != nil && *p.OwnerID == "" {
		p.OwnerID = nil
	}
	return e.ownerInScope(ctx, scope, p.OwnerID)
}

// PropertyUpdateOptions patch a property; nil fields are left unchanged.
// ClearOwner detaches the owner.
type PropertyUpdateOptions struct {
	ActorID      string
	ID           string
	Title        *string
	Description  *string
	Address      *string
	Latitude     *float64
	Longitude    *float64
	Status       *string
	PropertyType *string
	OfferType    *string
	OwnerID      *string
	ClearOwner   bool
	ImageURL     *string
	Details      *domain.PropertyDetails
}

func (e Engine) UpdateProperty(ctx context.Context, opts PropertyUpdateOptions) (domain.Property, error) {
	if err := e.Auth.Require(ctx, nil, opts.ActorID, auth.PermPropertyWrite); err != nil {
		return domain.Property{}, err
	}
	p, err := e.GetProperty(ctx, opts.ActorID, opts.ID)
	if err != nil {
		return domain.Property{}, err
	}
	scope, err := e.Auth.Scope(ctx, nil, opts.ActorID)
	if err != nil {
		return domain.Property{}, err
	}
	before := p.Status
	var changed []string
	setString := func(name string, dst *string, v *string) {
		if v != nil && *dst != *v {
			*dst = *v
			changed = append(changed, name)
		}
	}
	setString("title", &p.Title, opts.Title)
	setString("description", &p.Description, opts.Description)
	setString("address", &p.Address, opts.Address)
	setString("status", &p.Status, opts.Status)
	setString("property_type", &p.PropertyType, opts.PropertyType)
	setString("offer_type", &p.OfferType, opts.OfferType)
	setString("image_url", &p.ImageURL, opts.ImageURL)
	if opts.Latitude != nil {
		p.Latitude = opts.Latitude
		changed = append(changed, "latitude")
	}
	if opts.Longitude != nil {
		p.Longitude = opts.Longitude
		changed = append(changed, "longitude")
	}
	if opts.ClearOwner {
		p.OwnerID = nil
		changed = append(changed, "owner_id")
	} else if opts.OwnerID != nil {
		p.OwnerID = opts.OwnerID
		changed = append(changed, "owner_id")
	}
	if opts.Details != nil {
		p.Details = opts.Details
		changed = append(changed, "details")
	}
	if err := e.validateProperty(ctx, scope, &p); err != nil {
		return domain.Property{}, err
	}
	p.UpdatedAt = e.stamp()
	tx, err := e.begin(ctx)
	if err != nil {
		return domain.Property{}, err
	}
	defer tx.Rollback()
	if err := e.Repo.UpdateProperty(ctx, tx, p); err != nil {
		return domain.Property{}, err
	}
	payload := events.EventPayload{"fields": changed}
	if before != p.Status {
		payload["from_status"] = before
		payload["to_status"] = p.Status
	}
	if err := e.appendEvent(ctx, tx, events.PropertyUpdated, opts.ActorID, "property", p.ID, payload); err != nil {
		return domain.Property{}, err
	}
	if err := tx.Commit(); err != nil {
		return domain.Property{}, err
	}
	return p, nil
}

func (e Engine) GetProperty(ctx context.Context, actorID, id string) (domain.Property, error) {
	scope, err := e.Auth.Scope(ctx, nil, actorID)
	if err != nil {
		return domain.Property{}, err
	}
	p, err := e.Repo.GetProperty(ctx, nil, id)
	if err != nil {
		return domain.Property{}, err
	}
	if !visible(scope, p.AdvisorID) {
		return domain.Property{}, repo.ErrNotFound
	}
	return p, nil
}

func (e Engine) ListProperties(ctx context.Context, actorID string, opts views.PropertyOptions) ([]domain.Property, error) {
	spec, err := views.PropertySpec(opts)
	if err != nil {
		return nil, err
	}
	scope, err := e.Auth.Scope(ctx, nil, actorID)
	if err != nil {
		return nil, err
	}
	records, err := e.Repo.ListProperties(ctx, repo.PropertyFilters{AdvisorID: scope})
	if err != nil {
		return nil, err
	}
	return query.Run(records, spec), nil
}

// PropertyStats counts listings per status in the actor's scope.
func (e Engine) PropertyStats(ctx context.Context, actorID string) (views.Stats, error) {
	if err := e.Auth.Require(ctx, nil, actorID, auth.PermStatsRead); err != nil {
		return views.Stats{}, err
	}
	scope, err := e.Auth.Scope(ctx, nil, actorID)
	if err != nil {
		return views.Stats{}, err
	}
	records, err := e.Repo.ListProperties(ctx, repo.PropertyFilters{AdvisorID: scope})
	if err != nil {
		return views.Stats{}, err
	}
	return views.PropertyStats(records), nil
}
