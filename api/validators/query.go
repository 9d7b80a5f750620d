package validators

import (
	"net/http"
	"strconv"
	"strings"

	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
)

// ParseQueryInt reads an optional integer query parameter bounded by
// [min, max]. An absent or blank parameter yields fallback.
func ParseQueryInt(r *http.Request, name string, fallback, min, max int) (int, error) {
	raw := strings.TrimSpace(r.URL.Query().Get(name))
	if raw == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, pkgerrors.New(pkgerrors.CodeValidation, name+" must be a whole number").
			WithDetails(map[string]any{"field": name, "value": raw})
	}
	if n < min || n > max {
		return 0, pkgerrors.New(pkgerrors.CodeValidation, name+" out of range").
			WithDetails(map[string]any{"field": name, "min": min, "max": max})
	}
	return n, nil
}
