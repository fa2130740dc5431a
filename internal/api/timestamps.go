package api

import (
	"fmt"
	"strconv"

	dps "github.com/markusmobius/go-dateparser"
)

// ParseTimestamp parses a timestamp string, supporting both Unix timestamps and
// human-readable dates. Returns Unix timestamp in seconds. fieldName is used
// for error messages (e.g., "since", "until").
func ParseTimestamp(timestampStr, fieldName string) (int64, error) {
	if timestampStr == "" {
		return 0, NewValidationError(fieldName, "timestamp is required")
	}

	// Try parsing as a raw Unix timestamp first
	if unixTimestamp, err := strconv.ParseInt(timestampStr, 10, 64); err == nil {
		if unixTimestamp < 0 {
			return 0, NewValidationError(fieldName, "timestamp must be non-negative")
		}
		return unixTimestamp, nil
	}

	// If not a valid integer, try parsing as human-readable date
	parser := dps.Parser{}
	cfg := &dps.Configuration{
		PreferredDateSource: dps.CurrentPeriod,
	}

	parsedDate, err := parser.Parse(cfg, timestampStr)
	if err != nil {
		return 0, NewValidationError(fieldName, fmt.Sprintf("must be a valid Unix timestamp or human-readable date: %v", err))
	}

	if parsedDate.IsZero() {
		return 0, NewValidationError(fieldName, fmt.Sprintf("could not be parsed as a valid date: %s", timestampStr))
	}

	return parsedDate.Time.Unix(), nil
}

// ParseOptionalTimestamp parses an optional timestamp string. An empty string
// returns defaultVal; a non-empty but invalid string returns an error.
func ParseOptionalTimestamp(timestampStr, fieldName string, defaultVal int64) (int64, error) {
	if timestampStr == "" {
		return defaultVal, nil
	}

	return ParseTimestamp(timestampStr, fieldName)
}
