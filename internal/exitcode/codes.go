package exitcode

// Exit codes for the archive CLI.
// Cron wrappers and systemd units can use these to decide whether to alert.
const (
	// Success - every requested object was uploaded
	Success = 0

	// ConfigError - missing or invalid configuration
	// Nothing was uploaded: fix the config first
	ConfigError = 1

	// NotFound - source file or dated snapshot directory does not exist
	// Nothing was uploaded
	NotFound = 2

	// StorageError - bucket listing or a single-file upload failed
	// Retry later, check credentials and bucket permissions
	StorageError = 3

	// PartialFailure - directory batch finished but some objects failed
	// Check logs for the failed keys and re-run
	PartialFailure = 4

	// Interrupted - run was cancelled by SIGINT/SIGTERM
	Interrupted = 5
)
