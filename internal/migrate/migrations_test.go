package migrate_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"brokerdesk/internal/db"
	"brokerdesk/internal/migrate"
)

func TestMigrateIsIdempotent(t *testing.T) {
	conn, err := db.Open(db.Config{Workspace: t.TempDir()})
	require.NoError(t, err)
	defer conn.Close()

	v, err := migrate.MigrateVersion(conn)
	require.NoError(t, err)
	assert.Equal(t, 2, v)

	v, err = migrate.MigrateVersion(conn)
	require.NoError(t, err)
	assert.Equal(t, 2, v)

	for _, table := range []string{"advisors", "api_keys", "clients", "properties", "property_details", "schedules", "events"} {
		var name string
		err := conn.QueryRow(`SELECT name FROM sqlite_master WHERE type='table' AND name=?`, table).Scan(&name)
		require.NoError(t, err, table)
	}
}

func TestScheduleStatusConstraint(t *testing.T) {
	conn, err := db.Open(db.Config{Workspace: t.TempDir()})
	require.NoError(t, err)
	defer conn.Close()
	require.NoError(t, migrate.Migrate(conn))

	_, err = conn.Exec(`INSERT INTO advisors(id,name,role,created_at) VALUES ('a1','Ana','advisor','2024-01-01T00:00:00Z')`)
	require.NoError(t, err)
	_, err = conn.Exec(`INSERT INTO schedules(id,advisor_id,date,client_name,status,created_at) VALUES ('s1','a1','2024-01-02','Luis','maybe','2024-01-01T00:00:00Z')`)
	assert.Error(t, err)
}
