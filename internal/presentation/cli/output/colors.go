package output

import (
	"os"
	"sync"
)

// Color is an ANSI escape sequence.
type Color string

const (
	ColorReset  Color = "\033[0m"
	ColorBold   Color = "\033[1m"
	ColorDim    Color = "\033[2m"
	ColorRed    Color = "\033[31m"
	ColorGreen  Color = "\033[32m"
	ColorYellow Color = "\033[33m"
	ColorBlue   Color = "\033[34m"
	ColorCyan   Color = "\033[36m"
)

var (
	colorOnce      sync.Once
	colorSupported bool
)

// IsColorSupported reports whether stdout looks like a color-capable
// terminal. NO_COLOR disables, FORCE_COLOR enables, otherwise stdout
// must be a character device with a non-dumb TERM. The result is
// cached after the first call.
func IsColorSupported() bool {
	colorOnce.Do(func() {
		colorSupported = detectColorSupport()
	})
	return colorSupported
}

func detectColorSupport() bool {
	if _, exists := os.LookupEnv("NO_COLOR"); exists {
		return false
	}
	if _, exists := os.LookupEnv("FORCE_COLOR"); exists {
		return true
	}

	stat, err := os.Stdout.Stat()
	if err != nil {
		return false
	}
	if (stat.Mode() & os.ModeCharDevice) == 0 {
		return false
	}

	term := os.Getenv("TERM")
	return term != "" && term != "dumb"
}

// ResetColorDetection clears the cached detection result. For tests.
func ResetColorDetection() {
	colorOnce = sync.Once{}
	colorSupported = false
}
