package digest

import (
	"fmt"
	"strconv"
	"strings"
)

// maxWindowHours bounds the trailing-hours retrieval strategy.
const maxWindowHours = 168

// ParseWindow interprets a user-supplied summary argument: "N" selects the
// most recent N messages (capped at maxLatest), "Nh" selects a trailing
// N-hour window. Non-numeric, non-positive, or out-of-range arguments are
// rejected so they never reach the store or the model.
func ParseWindow(arg string, maxLatest int) (Window, error) {
	arg = strings.TrimSpace(arg)
	if arg == "" {
		return Window{}, fmt.Errorf("empty window argument")
	}

	if hours, ok := strings.CutSuffix(arg, "h"); ok {
		n, err := strconv.Atoi(hours)
		if err != nil {
			return Window{}, fmt.Errorf("invalid hour count %q", arg)
		}
		if n <= 0 || n > maxWindowHours {
			return Window{}, fmt.Errorf("hour count %d out of range 1-%d", n, maxWindowHours)
		}
		return Window{Hours: n}, nil
	}

	n, err := strconv.Atoi(arg)
	if err != nil {
		return Window{}, fmt.Errorf("invalid message count %q", arg)
	}
	if n <= 0 {
		return Window{}, fmt.Errorf("message count must be positive, got %d", n)
	}
	if n > maxLatest {
		n = maxLatest
	}
	return Window{Latest: n}, nil
}
