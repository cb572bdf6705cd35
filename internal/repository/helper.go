package repository

import (
	"fmt"
	"time"
)

// ParseTime parses the timestamp strings this package writes to SQLite.
// Columns written here are RFC3339; the plain date form covers rows seeded
// by hand or by older exports.
func ParseTime(str string) (time.Time, error) {
	returnTime, err := time.Parse(time.RFC3339, str)
	if err != nil {
		returnTime, err = time.Parse("2006-01-02", str)
		if err != nil {
			return time.Time{}, fmt.Errorf("failed to parse date: %w", err)
		}
	}
	return returnTime.UTC(), nil
}
