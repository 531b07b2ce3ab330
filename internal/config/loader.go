package config

import (
	"fmt"

	"github.com/KunevinnDokus/tourism-database-system/internal/db"
	"github.com/spf13/viper"
)

// Config is the full runtime configuration for the update system. All
// values are plain scalars; there is no plugin mechanism.
type Config struct {
	Database db.Config

	Source struct {
		URL             string
		LocalFile       string // non-empty bypasses the download entirely
		DownloadTimeout int    // seconds
		MaxRetries      int
		RetryDelay      int    // seconds
	}

	Update struct {
		BatchSize   int
		DryRunFirst bool
		ForceUpdate bool
	}

	Changelog struct {
		RetentionDays int
	}

	Backup struct {
		Enabled       bool
		Directory     string
		RetentionDays int
	}

	Schedule struct {
		Cron string
	}

	Server struct {
		Addr string
	}

	MigrationsPath string
}

// Default returns the built-in configuration, matching the published
// Flemish tourism dataset endpoint.
func Default() Config {
	var cfg Config
	cfg.Database = db.DefaultConfig()
	cfg.Source.URL = "https://linked.toerismevlaanderen.be/files/toeristische-attracties.ttl"
	cfg.Source.DownloadTimeout = 300
	cfg.Source.MaxRetries = 3
	cfg.Source.RetryDelay = 5
	cfg.Update.BatchSize = 100
	cfg.Update.DryRunFirst = true
	cfg.Update.ForceUpdate = false
	cfg.Changelog.RetentionDays = 365
	cfg.Backup.Enabled = true
	cfg.Backup.Directory = "backups"
	cfg.Backup.RetentionDays = 30
	cfg.Schedule.Cron = "0 3 * * *"
	cfg.Server.Addr = ":8085"
	cfg.MigrationsPath = "./migrations"
	return cfg
}

// Load reads config.yaml from the given directory, layered over defaults,
// with TOURISM_-prefixed environment variable overrides.
func Load(configPath string) (Config, error) {
	cfg := Default()

	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(configPath)
	v.AutomaticEnv()
	v.SetEnvPrefix("TOURISM")

	v.BindEnv("database.host")
	v.BindEnv("database.port")
	v.BindEnv("database.user")
	v.BindEnv("database.password")
	v.BindEnv("database.dbname")
	v.BindEnv("database.sslmode")
	v.BindEnv("source.url")

	if err := v.ReadInConfig(); err != nil {
		// Missing config file is fine; defaults plus env cover it.
		fmt.Println("No config.yaml found, using defaults and env vars")
	}

	if v.IsSet("database.host") {
		cfg.Database.Host = v.GetString("database.host")
	}
	if v.IsSet("database.port") {
		cfg.Database.Port = v.GetInt("database.port")
	}
	if v.IsSet("database.user") {
		cfg.Database.User = v.GetString("database.user")
	}
	if v.IsSet("database.password") {
		cfg.Database.Password = v.GetString("database.password")
	}
	if v.IsSet("database.dbname") {
		cfg.Database.DBName = v.GetString("database.dbname")
	}
	if v.IsSet("database.sslmode") {
		cfg.Database.SSLMode = v.GetString("database.sslmode")
	}

	if v.IsSet("source.url") {
		cfg.Source.URL = v.GetString("source.url")
	}
	if v.IsSet("source.local_file") {
		cfg.Source.LocalFile = v.GetString("source.local_file")
	}
	if v.IsSet("source.download_timeout") {
		cfg.Source.DownloadTimeout = v.GetInt("source.download_timeout")
	}
	if v.IsSet("source.max_retries") {
		cfg.Source.MaxRetries = v.GetInt("source.max_retries")
	}
	if v.IsSet("source.retry_delay") {
		cfg.Source.RetryDelay = v.GetInt("source.retry_delay")
	}

	if v.IsSet("update.batch_size") {
		cfg.Update.BatchSize = v.GetInt("update.batch_size")
	}
	if v.IsSet("update.dry_run_first") {
		cfg.Update.DryRunFirst = v.GetBool("update.dry_run_first")
	}
	if v.IsSet("update.force_update") {
		cfg.Update.ForceUpdate = v.GetBool("update.force_update")
	}

	if v.IsSet("changelog.retention_days") {
		cfg.Changelog.RetentionDays = v.GetInt("changelog.retention_days")
	}

	if v.IsSet("backup.enabled") {
		cfg.Backup.Enabled = v.GetBool("backup.enabled")
	}
	if v.IsSet("backup.directory") {
		cfg.Backup.Directory = v.GetString("backup.directory")
	}
	if v.IsSet("backup.retention_days") {
		cfg.Backup.RetentionDays = v.GetInt("backup.retention_days")
	}

	if v.IsSet("schedule.cron") {
		cfg.Schedule.Cron = v.GetString("schedule.cron")
	}
	if v.IsSet("server.addr") {
		cfg.Server.Addr = v.GetString("server.addr")
	}
	if v.IsSet("migrations_path") {
		cfg.MigrationsPath = v.GetString("migrations_path")
	}

	return cfg, nil
}
