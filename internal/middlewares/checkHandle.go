package middlewares

import (
	"fmt"
	"regexp"
	"strings"
)

var (
	profileURLRe = regexp.MustCompile(`instagram\.com/([\w._-]+)`)
	handleRe     = regexp.MustCompile(`^[\w.-]{1,30}$`)
)

// ParseHandle accepts either a bare handle ("@name" or "name") or a profile
// URL and returns the handle.
func ParseHandle(input string) (string, error) {
	input = strings.TrimSpace(input)

	if m := profileURLRe.FindStringSubmatch(input); m != nil {
		input = m[1]
	}
	input = strings.TrimPrefix(input, "@")

	if !handleRe.MatchString(input) {
		return "", fmt.Errorf("%w: %q", ErrInvalidHandle, input)
	}

	return input, nil
}
