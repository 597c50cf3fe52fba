package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/corey/storyboard/internal/app"
)

// isDBLockError returns true if the error chain contains a bbolt lock timeout.
// bbolt returns the string "timeout" when it cannot acquire the file lock
// within the configured deadline.
func isDBLockError(err error) bool {
	if err == nil {
		return false
	}
	return strings.Contains(err.Error(), "timeout")
}

// diagnoseDBLock returns actionable guidance when opening the store fails
// due to lock contention. A live port file means the panel server holds it.
func diagnoseDBLock(root string) string {
	paths := app.NewPaths(root)

	if portData, err := os.ReadFile(paths.PortFile); err == nil {
		return fmt.Sprintf("storage is locked by the running panel (http://localhost:%s)\n"+
			"  → stop it first:  ctrl-c in the 'storyboard serve' terminal\n"+
			"  → if it crashed:  rm %s", strings.TrimSpace(string(portData)), paths.PortFile)
	}

	return "storage is locked by another process\n" +
		"  → find the process:  ps aux | grep storyboard\n" +
		"  → kill it:           kill <PID>\n" +
		"  → then retry your command"
}
