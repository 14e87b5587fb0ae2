package models

import "strings"

// OptionalString maps blank input to a NULL column.
func OptionalString(value string) *string {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil
	}
	return &value
}
