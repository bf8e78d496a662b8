package repo

import (
	"context"
	"database/sql"
	"strings"

	"brokerdesk/internal/domain"
)

const scheduleSelect = `SELECT s.id,s.advisor_id,s.date,s.client_name,COALESCE(s.description,''),s.status,COALESCE(s.series_id,''),COALESCE(s.source_uid,''),s.created_at,
p.id,p.title,COALESCE(p.address,'')
FROM schedules s LEFT JOIN properties p ON p.id=s.property_id`

func scanSchedule(row interface{ Scan(...any) error }) (domain.Schedule, error) {
	var (
		s                 domain.Schedule
		status            string
		propID, propTitle sql.NullString
		propAddress       sql.NullString
	)
	err := row.Scan(&s.ID, &s.AdvisorID, &s.Date, &s.ClientName, &s.Description, &status, &s.SeriesID, &s.SourceUID, &s.CreatedAt,
		&propID, &propTitle, &propAddress)
	if err == sql.ErrNoRows {
		return s, ErrNotFound
	}
	if err != nil {
		return s, err
	}
	s.Status = domain.ScheduleStatus(status)
	if propID.Valid {
		s.Property = &domain.ScheduleProperty{ID: propID.String, Name: propTitle.String, Address: propAddress.String}
	}
	return s, nil
}

// InsertSchedule stores an appointment; PropertyID references an existing
// property or is empty.
func (r Repo) InsertSchedule(ctx context.Context, tx *sql.Tx, s domain.Schedule) error {
	var propertyID string
	if s.Property != nil {
		propertyID = s.Property.ID
	}
	_, err := r.q(tx).ExecContext(ctx, `INSERT INTO schedules(id,advisor_id,date,client_name,description,status,property_id,series_id,source_uid,created_at) VALUES (?,?,?,?,?,?,?,?,?,?)`,
		s.ID, s.AdvisorID, s.Date, s.ClientName, nullable(s.Description), string(s.Status), nullable(propertyID), nullable(s.SeriesID), nullable(s.SourceUID), s.CreatedAt)
	return conflict(err, "schedule "+s.ID)
}

// HasScheduleUID reports whether the advisor already holds an appointment
// imported from uid, or the appointment with id localID.
func (r Repo) HasScheduleUID(ctx context.Context, advisorID, uid, localID string) (bool, error) {
	var one int
	err := r.DB.QueryRowContext(ctx, `SELECT 1 FROM schedules WHERE advisor_id=? AND (source_uid=? OR id=?) LIMIT 1`,
		advisorID, uid, localID).Scan(&one)
	if err == sql.ErrNoRows {
		return false, nil
	}
	return err == nil, err
}

func (r Repo) UpdateScheduleStatus(ctx context.Context, tx *sql.Tx, id string, status domain.ScheduleStatus) error {
	res, err := r.q(tx).ExecContext(ctx, `UPDATE schedules SET status=? WHERE id=?`, string(status), id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

func (r Repo) GetSchedule(ctx context.Context, tx *sql.Tx, id string) (domain.Schedule, error) {
	return scanSchedule(r.q(tx).QueryRowContext(ctx, scheduleSelect+` WHERE s.id=?`, id))
}

// ScheduleFilters bound a schedule listing. From and To are inclusive
// YYYY-MM-DD dates.
type ScheduleFilters struct {
	AdvisorID string
	From      string
	To        string
	SeriesID  string
}

// ListSchedules returns appointments ordered by date then insertion.
func (r Repo) ListSchedules(ctx context.Context, f ScheduleFilters) ([]domain.Schedule, error) {
	clauses := []string{"1=1"}
	var args []any
	if f.AdvisorID != "" {
		clauses = append(clauses, "s.advisor_id=?")
		args = append(args, f.AdvisorID)
	}
	if f.From != "" {
		clauses = append(clauses, "s.date>=?")
		args = append(args, f.From)
	}
	if f.To != "" {
		clauses = append(clauses, "s.date<=?")
		args = append(args, f.To)
	}
	if f.SeriesID != "" {
		clauses = append(clauses, "s.series_id=?")
		args = append(args, f.SeriesID)
	}
	rows, err := r.DB.QueryContext(ctx, scheduleSelect+` WHERE `+strings.Join(clauses, " AND ")+` ORDER BY s.date, s.rowid`, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	res := []domain.Schedule{}
	for rows.Next() {
		s, err := scanSchedule(rows)
		if err != nil {
			return nil, err
		}
		res = append(res, s)
	}
	return res, rows.Err()
}
