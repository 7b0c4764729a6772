package serviceutil

import (
	"log/slog"
	"os"
)

// Fatal logs the error and exits. command entrypoints use this for
// failures with no recovery path.
func Fatal(message string, err error) {
	slog.Error(message, "err", err.Error())
	os.Exit(1)
}
