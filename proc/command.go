package proc

import (
	"os"
	"time"
)

// Command configures a worker subprocess. Typical usage re-executes the
// current binary with a marker environment variable that routes main()
// into Serve.
type Command struct {
	// Binary is the executable path or name (resolved via PATH).
	Binary string
	// Args are the command-line arguments.
	Args []string
	// Dir is the working directory. If empty, uses the current directory.
	Dir string
	// Env is additional environment variables (key=value). Merged with os.Environ.
	Env []string
	// GracePeriod is how long Close waits for a worker to exit before
	// killing it. Defaults to 5 seconds if zero.
	GracePeriod time.Duration
}

// mergeEnv merges additional env vars with the current environment.
func mergeEnv(extra []string) []string {
	if len(extra) == 0 {
		return nil // inherit parent env
	}
	return append(os.Environ(), extra...)
}
