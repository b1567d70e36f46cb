package shared

import (
	"net/url"
	"strconv"
)

// PageFromQuery parses page/limit query parameters, falling back to
// defaultLimit and clamping limit to maxLimit. Page floors at 1.
func PageFromQuery(q url.Values, defaultLimit, maxLimit int) (int, int) {
	page := 1
	if raw := q.Get("page"); raw != "" {
		if v, err := strconv.Atoi(raw); err == nil && v > 0 {
			page = v
		}
	}
	limit := defaultLimit
	if raw := q.Get("limit"); raw != "" {
		if v, err := strconv.Atoi(raw); err == nil && v > 0 {
			limit = v
		}
	}
	if maxLimit > 0 && limit > maxLimit {
		limit = maxLimit
	}
	return page, limit
}
