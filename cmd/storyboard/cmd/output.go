package cmd

import (
	"fmt"
	"strings"

	"github.com/corey/storyboard/internal/domain/storage"
)

// ANSI color codes for terminal output. Blanked when stdout is not a terminal.
var (
	colorReset   = "\033[0m"
	colorBold    = "\033[1m"
	colorCyan    = "\033[36m"
	colorMagenta = "\033[35m"
	colorGreen   = "\033[32m"
	colorYellow  = "\033[33m"
	colorGray    = "\033[90m"
)

func init() {
	if !useColor() {
		colorReset, colorBold, colorCyan, colorMagenta = "", "", "", ""
		colorGreen, colorYellow, colorGray = "", "", ""
	}
}

// formatSnapshot renders a storage snapshot for the terminal.
//
//	⚡ storyboard storage │ bbolt
//	  Version:  1.0.0 (versioned)
//	  Keys:     3 │ 0.05 KB
//	    storyboard-storage-version  [kept]
func formatSnapshot(snap storage.Snapshot, backend, file string) string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("%s⚡ storyboard storage%s │ %s", colorBold, colorReset, backend))
	if file != "" {
		sb.WriteString(fmt.Sprintf(" %s%s%s", colorGray, file, colorReset))
	}
	sb.WriteString("\n")

	stateColor := colorGreen
	if snap.State != "versioned" {
		stateColor = colorYellow
	}
	sb.WriteString(fmt.Sprintf("  Version:  %s %s(%s)%s\n", snap.Version, stateColor, snap.State, colorReset))
	sb.WriteString(fmt.Sprintf("  Keys:     %d │ %.2f KB\n", snap.KeyCount, snap.ApproxSizeKB))

	for _, k := range snap.Keys {
		sb.WriteString(fmt.Sprintf("    %s%s%s", colorCyan, k, colorReset))
		if storage.IsAllowListed(k) {
			sb.WriteString(fmt.Sprintf("  %s[kept]%s", colorMagenta, colorReset))
		}
		sb.WriteString("\n")
	}
	return sb.String()
}

// formatGuard renders one version guard run as a single line.
func formatGuard(res *storage.GuardResult, version string) string {
	switch {
	case res.Aborted:
		return fmt.Sprintf("%s⚠ version guard aborted: storage left unchanged%s", colorYellow, colorReset)
	case res.Wiped:
		kept := "nothing"
		if len(res.Preserved) > 0 {
			kept = strings.Join(res.Preserved, ", ")
		}
		return fmt.Sprintf("⚡ storage %s → %s (%s): cleared, kept %s", res.Stored, version, res.Before, kept)
	case res.Before == storage.Unversioned:
		return fmt.Sprintf("⚡ storage version initialised to %s", version)
	default:
		return fmt.Sprintf("⚡ storage version %s is current", version)
	}
}
