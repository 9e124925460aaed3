package shared

import (
	"fmt"
	"net/http"
	"strconv"
	"time"
)

// ParsePeriod reads month and year query parameters, defaulting to the
// current calendar month when absent.
func ParsePeriod(r *http.Request, now time.Time) (int, int, error) {
	month := int(now.Month())
	year := now.Year()

	if raw := r.URL.Query().Get("month"); raw != "" {
		v, err := strconv.Atoi(raw)
		if err != nil {
			return 0, 0, fmt.Errorf("invalid month %q", raw)
		}
		month = v
	}
	if raw := r.URL.Query().Get("year"); raw != "" {
		v, err := strconv.Atoi(raw)
		if err != nil {
			return 0, 0, fmt.Errorf("invalid year %q", raw)
		}
		year = v
	}
	if month < 1 || month > 12 {
		return 0, 0, fmt.Errorf("month out of range: %d", month)
	}
	return month, year, nil
}

func ClientIP(r *http.Request) string {
	if forwarded := r.Header.Get("X-Forwarded-For"); forwarded != "" {
		return forwarded
	}
	return r.RemoteAddr
}
