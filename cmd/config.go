// Package cmd defines the shared configuration types for repo-tracker.
package cmd

// RepoRef identifies one GitHub repository.
type RepoRef struct {
	Owner string `yaml:"owner"`
	Name  string `yaml:"name"`
}

// Config is the structure of repo-tracker.yaml. Everything is optional:
// database and listen fall back to environment variables (TRACKER_DATABASE,
// TRACKER_LISTEN) and then to defaults, and the repo list only seeds the
// update command when the database has no tracked repos yet.
type Config struct {
	Database string    `yaml:"database,omitempty"`
	Listen   string    `yaml:"listen,omitempty"`
	Repos    []RepoRef `yaml:"repos,omitempty"`
}

// Defaults used when neither flags, environment nor the config file say
// otherwise.
const (
	DefaultDatabase = "repo-tracker.db"
	DefaultListen   = ":8080"
)
