// Package commands provides helpers shared by the repo-tracker CLI commands.
package commands

import (
	"github.com/alan/repo-tracker/cmd"
	"github.com/alan/repo-tracker/internal/store"
	"github.com/spf13/viper"
)

// ResolveSetting returns the first non-empty value. Commands use it to apply
// the flag > environment > config file > default precedence.
func ResolveSetting(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

// Database resolves the database connection string for a command: the flag
// value if set, then the TRACKER_DATABASE environment variable, then the
// config file, then the default SQLite path.
func Database(flagValue string, cfg *cmd.Config) string {
	return ResolveSetting(flagValue, viper.GetString("database"), cfg.Database, cmd.DefaultDatabase)
}

// OpenStore resolves the database setting and opens the store.
func OpenStore(flagValue string, cfg *cmd.Config) (*store.Store, error) {
	return store.Open(Database(flagValue, cfg))
}
