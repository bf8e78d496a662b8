package repo

import (
	"context"
	"database/sql"

	"brokerdesk/internal/domain"
)

const advisorColumns = `id,name,COALESCE(email,''),role,created_at`

func (r Repo) InsertAdvisor(ctx context.Context, tx *sql.Tx, a domain.Advisor) error {
	_, err := r.q(tx).ExecContext(ctx, `INSERT INTO advisors(id,name,email,role,created_at) VALUES (?,?,?,?,?)`,
		a.ID, a.Name, nullable(a.Email), a.Role, a.CreatedAt)
	return conflict(err, "advisor "+a.ID)
}

func (r Repo) GetAdvisor(ctx context.Context, tx *sql.Tx, id string) (domain.Advisor, error) {
	var a domain.Advisor
	err := r.q(tx).QueryRowContext(ctx, `SELECT `+advisorColumns+` FROM advisors WHERE id=?`, id).
		Scan(&a.ID, &a.Name, &a.Email, &a.Role, &a.CreatedAt)
	if err == sql.ErrNoRows {
		return a, ErrNotFound
	}
	return a, err
}

func (r Repo) ListAdvisors(ctx context.Context) ([]domain.Advisor, error) {
	rows, err := r.DB.QueryContext(ctx, `SELECT `+advisorColumns+` FROM advisors ORDER BY name, id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	res := []domain.Advisor{}
	for rows.Next() {
		var a domain.Advisor
		if err := rows.Scan(&a.ID, &a.Name, &a.Email, &a.Role, &a.CreatedAt); err != nil {
			return nil, err
		}
		res = append(res, a)
	}
	return res, rows.Err()
}

// CountAdvisors reports how many advisors exist; zero means a fresh workspace.
func (r Repo) CountAdvisors(ctx context.Context) (int, error) {
	var n int
	err := r.DB.QueryRowContext(ctx, `SELECT COUNT(*) FROM advisors`).Scan(&n)
	return n, err
}
