package repo

import (
	"context"
	"database/sql"
	"strings"

	"brokerdesk/internal/domain"
)

const propertySelect = `SELECT p.id,p.advisor_id,p.owner_id,p.title,COALESCE(p.description,''),COALESCE(p.address,''),p.latitude,p.longitude,
p.status,COALESCE(p.property_type,''),COALESCE(p.offer_type,''),COALESCE(p.image_url,''),p.created_at,p.updated_at,
d.property_id,d.price,d.bedrooms,d.bathrooms,d.half_baths,d.area_sqm,d.lot_size,d.parking_spots,COALESCE(d.is_furnished,0),COALESCE(d.period,'')
FROM properties p LEFT JOIN property_details d ON d.property_id=p.id`

func scanProperty(row interface{ Scan(...any) error }) (domain.Property, error) {
	var (
		p                           domain.Property
		owner, detailsID            sql.NullString
		lat, lng, price, area, lot  sql.NullFloat64
		beds, baths, halfs, parking sql.NullInt64
		furnished                   int
		period                      string
	)
	err := row.Scan(&p.ID, &p.AdvisorID, &owner, &p.Title, &p.Description, &p.Address, &lat, &lng,
		&p.Status, &p.PropertyType, &p.OfferType, &p.ImageURL, &p.CreatedAt, &p.UpdatedAt,
		&detailsID, &price, &beds, &baths, &halfs, &area, &lot, &parking, &furnished, &period)
	if err == sql.ErrNoRows {
		return p, ErrNotFound
	}
	if err != nil {
		return p, err
	}
	p.OwnerID = stringPtr(owner)
	p.Latitude = floatPtr(lat)
	p.Longitude = floatPtr(lng)
	if detailsID.Valid {
		p.Details = &domain.PropertyDetails{
			Price:        floatPtr(price),
			Bedrooms:     intPtr(beds),
			Bathrooms:    intPtr(baths),
			HalfBaths:    intPtr(halfs),
			AreaSqm:      floatPtr(area),
			LotSize:      floatPtr(lot),
			ParkingSpots: intPtr(parking),
			IsFurnished:  furnished != 0,
			Period:       period,
		}
	}
	return p, nil
}

func (r Repo) InsertProperty(ctx context.Context, tx *sql.Tx, p domain.Property) error {
	_, err := r.q(tx).ExecContext(ctx, `INSERT INTO properties(id,advisor_id,owner_id,title,description,address,latitude,longitude,status,property_type,offer_type,image_url,created_at,updated_at)
VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?,?)`,
		p.ID, p.AdvisorID, nullableStringPtr(p.OwnerID), p.Title, nullable(p.Description), nullable(p.Address),
		nullableFloatPtr(p.Latitude), nullableFloatPtr(p.Longitude), p.Status, nullable(p.PropertyType),
		nullable(p.OfferType), nullable(p.ImageURL), p.CreatedAt, p.UpdatedAt)
	if err != nil {
		return conflict(err, "property "+p.ID)
	}
	return r.upsertDetails(ctx, tx, p.ID, p.Details)
}

// UpdateProperty rewrites every mutable column and the details row.
func (r Repo) UpdateProperty(ctx context.Context, tx *sql.Tx, p domain.Property) error {
	res, err := r.q(tx).ExecContext(ctx, `UPDATE properties SET owner_id=?,title=?,description=?,address=?,latitude=?,longitude=?,status=?,property_type=?,offer_type=?,image_url=?,updated_at=? WHERE id=?`,
		nullableStringPtr(p.OwnerID), p.Title, nullable(p.Description), nullable(p.Address),
		nullableFloatPtr(p.Latitude), nullableFloatPtr(p.Longitude), p.Status, nullable(p.PropertyType),
		nullable(p.OfferType), nullable(p.ImageURL), p.UpdatedAt, p.ID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return r.upsertDetails(ctx, tx, p.ID, p.Details)
}

func (r Repo) upsertDetails(ctx context.Context, tx *sql.Tx, propertyID string, d *domain.PropertyDetails) error {
	if d == nil {
		_, err := r.q(tx).ExecContext(ctx, `DELETE FROM property_details WHERE property_id=?`, propertyID)
		return err
	}
	furnished := 0
	if d.IsFurnished {
		furnished = 1
	}
	_, err := r.q(tx).ExecContext(ctx, `INSERT INTO property_details(property_id,price,bedrooms,bathrooms,half_baths,area_sqm,lot_size,parking_spots,is_furnished,period)
VALUES (?,?,?,?,?,?,?,?,?,?)
ON CONFLICT(property_id) DO UPDATE SET price=excluded.price, bedrooms=excluded.bedrooms, bathrooms=excluded.bathrooms,
half_baths=excluded.half_baths, area_sqm=excluded.area_sqm, lot_size=excluded.lot_size, parking_spots=excluded.parking_spots,
is_furnished=excluded.is_furnished, period=excluded.period`,
		propertyID, nullableFloatPtr(d.Price), nullableIntPtr(d.Bedrooms), nullableIntPtr(d.Bathrooms), nullableIntPtr(d.HalfBaths),
		nullableFloatPtr(d.AreaSqm), nullableFloatPtr(d.LotSize), nullableIntPtr(d.ParkingSpots), furnished, nullable(d.Period))
	return err
}

func (r Repo) GetProperty(ctx context.Context, tx *sql.Tx, id string) (domain.Property, error) {
	return scanProperty(r.q(tx).QueryRowContext(ctx, propertySelect+` WHERE p.id=?`, id))
}

type PropertyFilters struct {
	AdvisorID string
	OwnerID   string
}

// ListProperties returns properties in insertion order.
func (r Repo) ListProperties(ctx context.Context, f PropertyFilters) ([]domain.Property, error) {
	clauses := []string{"1=1"}
	var args []any
	if f.AdvisorID != "" {
		clauses = append(clauses, "p.advisor_id=?")
		args = append(args, f.AdvisorID)
	}
	if f.OwnerID != "" {
		clauses = append(clauses, "p.owner_id=?")
		args = append(args, f.OwnerID)
	}
	rows, err := r.DB.QueryContext(ctx, propertySelect+` WHERE `+strings.Join(clauses, " AND ")+` ORDER BY p.rowid`, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	res := []domain.Property{}
	for rows.Next() {
		p, err := scanProperty(rows)
		if err != nil {
			return nil, err
		}
		res = append(res, p)
	}
	return res, rows.Err()
}
