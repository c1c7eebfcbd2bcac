package bulkload

import (
	"context"
	"database/sql"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"kestrel-idp/config"
	"kestrel-idp/core/store"
)

type loaderEnv struct {
	loader    *Loader
	db        *sql.DB
	incidents store.IncidentsStore
	datasets  store.DatasetsStore
	tickets   store.TicketsStore
	dir       string
}

func newLoaderEnv(t *testing.T) *loaderEnv {
	t.Helper()
	dir := t.TempDir()
	cfg := &config.AppConfig{DBPath: filepath.Join(dir, "load.db")}
	db, err := store.NewDB(cfg)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	require.NoError(t, store.ApplyMigrations(context.Background(), db))

	incidents := store.NewIncidentsStore(db)
	datasets := store.NewDatasetsStore(db)
	tickets := store.NewTicketsStore(db)
	return &loaderEnv{
		loader:    NewLoader(db, incidents, datasets, tickets, nil),
		db:        db,
		incidents: incidents,
		datasets:  datasets,
		tickets:   tickets,
		dir:       dir,
	}
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadUsersFileSkipsBlankAndMalformedLines(t *testing.T) {
	env := newLoaderEnv(t)
	path := writeFile(t, env.dir, "users.txt", `
alice,$2b$12$hash1,admin

bob,$2b$12$hash2,user
broken-line-without-commas
carol,$2b$12$hash3,analyst,extra
`)

	n, err := env.loader.LoadUsersFile(context.Background(), path)
	require.NoError(t, err)
	assert.Equal(t, 2, n, "blank, malformed and over-long lines skipped")

	users := store.NewUsersStore(env.db)
	all, err := users.List(context.Background())
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

func TestLoadUsersFileIgnoresDuplicates(t *testing.T) {
	env := newLoaderEnv(t)
	ctx := context.Background()
	users := store.NewUsersStore(env.db)
	_, err := users.Create(ctx, &store.User{Username: "alice", PasswordHash: "existing", Role: "admin"})
	require.NoError(t, err)

	path := writeFile(t, env.dir, "users.txt", "alice,newhash,user\nbob,hash,user\n")
	n, err := env.loader.LoadUsersFile(ctx, path)
	require.NoError(t, err)
	assert.Equal(t, 1, n, "existing username counted as skipped, not migrated")

	u, err := users.FindByUsername(ctx, "alice")
	require.NoError(t, err)
	require.NotNil(t, u)
	assert.Equal(t, "existing", u.PasswordHash, "existing row untouched")
	assert.Equal(t, "admin", u.Role)
}

func TestLoadUsersFileMissingFileLoadsNothing(t *testing.T) {
	env := newLoaderEnv(t)
	n, err := env.loader.LoadUsersFile(context.Background(), filepath.Join(env.dir, "absent.txt"))
	require.NoError(t, err)
	assert.Equal(t, 0, n)
}

func TestLoadIncidentsCSV(t *testing.T) {
	env := newLoaderEnv(t)
	path := writeFile(t, env.dir, "incidents.csv", `date,incident_type,severity,status,description,reported_by
11/05/2024,phishing,high,open,suspicious email,Alice
12/05/2024,malware,critical,investigating,trojan found,Bob
`)

	n, err := env.loader.LoadIncidentsCSV(context.Background(), path)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	all, err := env.incidents.ListAll(context.Background())
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "11/05/2024", all[1].Date, "date column kept verbatim")
}

func TestLoadDatasetsCSVSkipsRowsWithBadNumbers(t *testing.T) {
	env := newLoaderEnv(t)
	path := writeFile(t, env.dir, "datasets.csv", `dataset_name,category,source,last_updated,record_count,file_size_mb
dataset_events,analytics,internal,01/03/2024,1000,12.5
dataset_bad,analytics,internal,01/03/2024,not-a-number,12.5
dataset_logs,security,external,02/03/2024,500,3.25
`)

	n, err := env.loader.LoadDatasetsCSV(context.Background(), path)
	require.NoError(t, err)
	assert.Equal(t, 2, n, "unparseable numeric column skips the row only")

	all, err := env.datasets.ListAll(context.Background())
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

func TestLoadTicketsCSVEmptyOptionalColumnsBecomeNull(t *testing.T) {
	env := newLoaderEnv(t)
	path := writeFile(t, env.dir, "tickets.csv", `ticket_id,status,category,subject,description,created_date,resolved_date,assigned_to
TCK-1001,resolved,software,login issue,cannot log in,01/04/2024,05/04/2024,Bob
TCK-1002,open,hardware,dead screen,no display,02/04/2024,,
`)

	n, err := env.loader.LoadTicketsCSV(context.Background(), path)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	all, err := env.tickets.ListAll(context.Background())
	require.NoError(t, err)
	require.Len(t, all, 2)

	byID := map[string]store.Ticket{}
	for _, tk := range all {
		byID[tk.TicketID] = tk
	}
	resolved := byID["TCK-1001"]
	require.NotNil(t, resolved.ResolvedDate)
	assert.Equal(t, "05/04/2024", *resolved.ResolvedDate)

	open := byID["TCK-1002"]
	assert.Nil(t, open.ResolvedDate)
	assert.Nil(t, open.AssignedTo)
}

func TestLoadAllSumsCountsAndToleratesMissingFiles(t *testing.T) {
	env := newLoaderEnv(t)
	writeFile(t, env.dir, "users.txt", "alice,hash,admin\n")
	writeFile(t, env.dir, "incidents.csv", "date,incident_type,severity,status,description,reported_by\n01/01/2024,ddos,high,open,flood,Alice\n")

	cfg := config.BootstrapConfig{
		DataDir:      env.dir,
		UsersFile:    "users.txt",
		IncidentsCSV: "incidents.csv",
		DatasetsCSV:  "missing_datasets.csv",
		TicketsCSV:   "missing_tickets.csv",
	}
	total, err := env.loader.LoadAll(context.Background(), cfg)
	require.NoError(t, err)
	assert.Equal(t, 2, total)
}
