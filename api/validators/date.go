package validators

import (
	"strings"
	"time"

	pkgerrors "github.com/angelmondragon/harvestlink-backend/pkg/errors"
)

var dateLayouts = []string{time.RFC3339, "2006-01-02"}

// ParseOptionalDate accepts RFC3339 timestamps or plain calendar dates. An
// empty value yields nil.
func ParseOptionalDate(field string, raw *string) (*time.Time, error) {
	if raw == nil || strings.TrimSpace(*raw) == "" {
		return nil, nil
	}
	value := strings.TrimSpace(*raw)
	for _, layout := range dateLayouts {
		if parsed, err := time.Parse(layout, value); err == nil {
			utc := parsed.UTC()
			return &utc, nil
		}
	}
	return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid date").WithDetails(map[string]string{field: "must be YYYY-MM-DD or RFC3339"})
}
