package repo

import (
	"context"
	"database/sql"
	"strings"

	"brokerdesk/internal/domain"
)

const clientColumns = `id,advisor_id,name,last_name,national_id,COALESCE(phone,''),COALESCE(email,''),created_at`

func scanClient(row interface{ Scan(...any) error }) (domain.Client, error) {
	var c domain.Client
	err := row.Scan(&c.ID, &c.AdvisorID, &c.Name, &c.LastName, &c.NationalID, &c.Phone, &c.Email, &c.CreatedAt)
	if err == sql.ErrNoRows {
		return c, ErrNotFound
	}
	c.Properties = []domain.PropertySummary{}
	return c, err
}

func (r Repo) InsertClient(ctx context.Context, tx *sql.Tx, c domain.Client) error {
	_, err := r.q(tx).ExecContext(ctx, `INSERT INTO clients(id,advisor_id,name,last_name,national_id,phone,email,created_at) VALUES (?,?,?,?,?,?,?,?)`,
		c.ID, c.AdvisorID, c.Name, c.LastName, c.NationalID, nullable(c.Phone), nullable(c.Email), c.CreatedAt)
	return conflict(err, "client national_id "+c.NationalID)
}

// GetClient loads a client with the summaries of the properties it owns.
func (r Repo) GetClient(ctx context.Context, tx *sql.Tx, id string) (domain.Client, error) {
	c, err := scanClient(r.q(tx).QueryRowContext(ctx, `SELECT `+clientColumns+` FROM clients WHERE id=?`, id))
	if err != nil {
		return c, err
	}
	owned, err := r.ownedProperties(ctx, tx, []string{c.ID})
	if err != nil {
		return c, err
	}
	if ps, ok := owned[c.ID]; ok {
		c.Properties = ps
	}
	return c, nil
}

func (r Repo) GetClientByNationalID(ctx context.Context, nationalID string) (domain.Client, error) {
	var id string
	err := r.DB.QueryRowContext(ctx, `SELECT id FROM clients WHERE national_id=?`, strings.TrimSpace(nationalID)).Scan(&id)
	if err == sql.ErrNoRows {
		return domain.Client{}, ErrNotFound
	}
	if err != nil {
		return domain.Client{}, err
	}
	return r.GetClient(ctx, nil, id)
}

// ListClients returns clients in insertion order; advisorID empty means all.
func (r Repo) ListClients(ctx context.Context, advisorID string) ([]domain.Client, error) {
	query := `SELECT ` + clientColumns + ` FROM clients`
	var args []any
	if advisorID != "" {
		query += ` WHERE advisor_id=?`
		args = append(args, advisorID)
	}
	query += ` ORDER BY rowid`
	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	res := []domain.Client{}
	var ids []string
	for rows.Next() {
		c, err := scanClient(rows)
		if err != nil {
			rows.Close()
			return nil, err
		}
		res = append(res, c)
		ids = append(ids, c.ID)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, err
	}
	rows.Close()
	owned, err := r.ownedProperties(ctx, nil, ids)
	if err != nil {
		return nil, err
	}
	for i := range res {
		if ps, ok := owned[res[i].ID]; ok {
			res[i].Properties = ps
		}
	}
	return res, nil
}

func (r Repo) ownedProperties(ctx context.Context, tx *sql.Tx, ownerIDs []string) (map[string][]domain.PropertySummary, error) {
	out := map[string][]domain.PropertySummary{}
	if len(ownerIDs) == 0 {
		return out, nil
	}
	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(ownerIDs)), ",")
	args := make([]any, len(ownerIDs))
	for i, id := range ownerIDs {
		args[i] = id
	}
	rows, err := r.q(tx).QueryContext(ctx, `SELECT owner_id,id,title,COALESCE(address,''),status FROM properties WHERE owner_id IN (`+placeholders+`) ORDER BY rowid`, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var owner string
		var p domain.PropertySummary
		if err := rows.Scan(&owner, &p.ID, &p.Title, &p.Address, &p.Status); err != nil {
			return nil, err
		}
		out[owner] = append(out[owner], p)
	}
	return out, rows.Err()
}
