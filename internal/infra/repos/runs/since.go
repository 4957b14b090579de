package runs

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// ParseSince resolves a List cutoff. It accepts an RFC3339 timestamp or a
// lookback such as -90m, -24h, -7d or -2w, measured back from now.
func ParseSince(s string, now time.Time) (time.Time, error) {
	s = strings.TrimSpace(s)
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}

	back, ok := strings.CutPrefix(s, "-")
	if !ok || back == "" {
		return time.Time{}, sinceError(s)
	}

	if d, err := time.ParseDuration(back); err == nil && d >= 0 {
		return now.Add(-d), nil
	}

	n, err := strconv.Atoi(back[:len(back)-1])
	if err != nil || n < 0 {
		return time.Time{}, sinceError(s)
	}
	switch back[len(back)-1] {
	case 'd':
		return now.AddDate(0, 0, -n), nil
	case 'w':
		return now.AddDate(0, 0, -7*n), nil
	}
	return time.Time{}, sinceError(s)
}

func sinceError(s string) error {
	return fmt.Errorf("since %q: want RFC3339 or a lookback like -24h or -7d", s)
}
