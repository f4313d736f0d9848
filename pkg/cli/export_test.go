package cli

var (
	GetIndexConfig        = getIndexConfig
	PendingMigrationFiles = pendingMigrationFiles
)
