// storyboard manages the storyboard app's versioned local storage:
// inspect it, clear it, schedule invalidation, and serve the diagnostic panel.
package main

import (
	"os"

	"github.com/corey/storyboard/cmd/storyboard/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
