// Package exitcode provides standardized exit codes for hookkit
package exitcode

// Exit codes for hookkit CLI
const (
	Success         = 0
	GeneralError    = 1
	ConfigError     = 2
	ValidationError = 3
	FileSystemError = 4
	ToolNotFound    = 9

	// Harness stage failures. Each aborting stage gets its own code so CI
	// logs can tell a dirty checkout from a broken framework install.
	DirtyTree      = 10
	WorkspaceBuild = 11
	HookRun        = 12
	ReportFailure  = 13
	Preflight      = 14 // tree state could not be read (not a repository)
)

// String returns a human-readable description of the exit code
func String(code int) string {
	switch code {
	case Success:
		return "Success"
	case GeneralError:
		return "General error"
	case ConfigError:
		return "Configuration error"
	case ValidationError:
		return "Validation error"
	case FileSystemError:
		return "File system error"
	case ToolNotFound:
		return "Tool not found"
	case DirtyTree:
		return "Working tree not clean"
	case WorkspaceBuild:
		return "Workspace build failed"
	case HookRun:
		return "Hook run failed"
	case ReportFailure:
		return "Report failed"
	case Preflight:
		return "Preflight check failed"
	default:
		return "Unknown error"
	}
}
