package job

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"vodforge/models"
)

// ErrInvalidID is returned for an object id that is empty after sanitizing
// or that would collide with shared state in the working root.
var ErrInvalidID = errors.New("invalid object id")

var idDisallowed = regexp.MustCompile(`[^A-Za-z0-9_-]`)

// SanitizeID strips every character outside [A-Za-z0-9_-]. The result names
// local directories and remote keys, so it must never be empty or name a
// reserved root entry.
func SanitizeID(raw string) (string, error) {
	id := idDisallowed.ReplaceAllString(raw, "")
	if id == "" {
		return "", fmt.Errorf("%w: %q", ErrInvalidID, raw)
	}
	// case-insensitive filesystems would still alias "HLS" onto "hls"
	if models.Reserved(strings.ToLower(id)) {
		return "", fmt.Errorf("%w: %q is reserved", ErrInvalidID, id)
	}
	return id, nil
}
