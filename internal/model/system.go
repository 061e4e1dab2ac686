package model

// VersionInfo describes the running build and the state of its schema.
// Features lists the optional behaviours switched on by configuration.
type VersionInfo struct {
	AppVersion       string          `json:"app_version"`
	DbVersion        string          `json:"db_version"`
	LatestDbVersion  string          `json:"latest_db_version"`
	Features         map[string]bool `json:"features"`
	MigrationNeeded  bool            `json:"migration_needed"`
	MigrationMessage *string         `json:"migration_message,omitempty"`
}
