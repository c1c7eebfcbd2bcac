package config

import "time"

type AppConfig struct {
	DBPath      string            `yaml:"db_path" env:"KESTREL_DB_PATH" env-default:"data/intelligence_platform.db"`
	ListenAddr  string            `yaml:"listen_addr" env:"KESTREL_LISTEN_ADDR" env-default:"0.0.0.0:8080"`
	SessionTTL  time.Duration     `yaml:"session_ttl" env:"KESTREL_SESSION_TTL" env-default:"3h"`
	AppEnv      string            `yaml:"app_env" env:"KESTREL_APP_ENV"`
	Bootstrap   BootstrapConfig   `yaml:"bootstrap"`
	Maintenance MaintenanceConfig `yaml:"maintenance"`
}

// BootstrapConfig points the bulk loader at the administrative import files.
// Loading only runs when Enabled is set; missing files are skipped, not fatal.
type BootstrapConfig struct {
	Enabled      bool   `yaml:"enabled" env:"KESTREL_BOOTSTRAP_ENABLED" env-default:"false"`
	DataDir      string `yaml:"data_dir" env:"KESTREL_BOOTSTRAP_DATA_DIR" env-default:"data"`
	UsersFile    string `yaml:"users_file" env:"KESTREL_BOOTSTRAP_USERS_FILE" env-default:"users.txt"`
	IncidentsCSV string `yaml:"incidents_csv" env:"KESTREL_BOOTSTRAP_INCIDENTS_CSV" env-default:"cyber-operations-incidents.csv"`
	DatasetsCSV  string `yaml:"datasets_csv" env:"KESTREL_BOOTSTRAP_DATASETS_CSV" env-default:"datasets_metadata.csv"`
	TicketsCSV   string `yaml:"tickets_csv" env:"KESTREL_BOOTSTRAP_TICKETS_CSV" env-default:"it_tickets.csv"`
}

type MaintenanceConfig struct {
	Enabled           bool   `yaml:"enabled" env:"KESTREL_MAINTENANCE_ENABLED" env-default:"true"`
	SnapshotSchedule  string `yaml:"snapshot_schedule" env:"KESTREL_MAINTENANCE_SNAPSHOT_SCHEDULE" env-default:"0 3 * * *"`
	AuditRetentionDay int    `yaml:"audit_retention_days" env:"KESTREL_MAINTENANCE_AUDIT_RETENTION_DAYS" env-default:"180"`
}

const maxUserSessionTTL = 12 * time.Hour

func (c *AppConfig) EffectiveSessionTTL() time.Duration {
	ttl := maxUserSessionTTL
	if c != nil && c.SessionTTL > 0 {
		ttl = c.SessionTTL
	}
	if ttl > maxUserSessionTTL {
		return maxUserSessionTTL
	}
	return ttl
}
