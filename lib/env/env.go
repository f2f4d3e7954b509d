package env

import (
	"os"
	"strconv"
)

func Debug() bool {
	return os.Getenv("DEBUG") != ""
}

// MaxIterations overrides the refinement iteration cap, mostly for debugging
// layouts one step at a time.
func MaxIterations() (int, bool) {
	if s := os.Getenv("SDG_MAX_ITERATIONS"); s != "" {
		i, err := strconv.ParseInt(s, 10, 64)
		if err == nil && i >= 0 {
			return int(i), true
		}
	}
	return -1, false
}
