package util

import (
	"errors"
	"strings"
)

// ErrInvalidFileName is returned for empty names and traversal attempts.
var ErrInvalidFileName = errors.New("invalid file name")

var pathSeparators = strings.NewReplacer("/", "_", "\\", "_")

// SanitizeFileName flattens path separators to underscores. Names carrying
// ".." are rejected outright rather than repaired, since uploads supply the
// name and a staged file is written under it.
func SanitizeFileName(name string) (string, error) {
	if strings.Contains(name, "..") {
		return "", ErrInvalidFileName
	}
	cleaned := pathSeparators.Replace(strings.TrimSpace(name))
	if cleaned == "" {
		return "", ErrInvalidFileName
	}
	return cleaned, nil
}
