// Package outwriter has output and writer logic.
package outwriter

import (
	"os"

	"github.com/LaStefan/bpmn-process-optimization/internal/contract"
	"golang.org/x/term"
)

// wideTableThreshold is the terminal width at which detail tables may show
// the per-diagnosis waiting-time columns.
const wideTableThreshold = 110

// getTableWidth returns the effective terminal width for table output.
func getTableWidth(cfg *contract.Config) int {
	// Absolute width override from flag/env
	if cfg.Width > 0 {
		return cfg.Width
	}

	detectedWidth, _, err := term.GetSize(int(os.Stdout.Fd()))
	if err != nil || detectedWidth <= 0 {
		// Fallback to conservative default if terminal size can't be detected
		return 80 // Conservative default for narrow terminals and CI
	}
	return detectedWidth
}

// wideTablesAllowed reports whether the terminal is wide enough for the
// per-diagnosis breakdown columns.
func wideTablesAllowed(cfg *contract.Config) bool {
	return getTableWidth(cfg) >= wideTableThreshold
}
