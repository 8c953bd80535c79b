// Package semver implements the three-field numeric version comparison used
// for spec_version compatibility checks. Only MAJOR.MINOR.PATCH is compared;
// prerelease tags and build metadata are not part of the spec format.
package semver

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

var errMalformed = errors.New("malformed version")

// Version is a parsed MAJOR.MINOR.PATCH version string.
type Version struct {
	Major int
	Minor int
	Patch int
}

// Parse reads a MAJOR.MINOR.PATCH string. All three fields are required and
// must be non-negative base-10 integers.
func Parse(s string) (Version, error) {
	fields := strings.Split(s, ".")
	if len(fields) != 3 {
		return Version{}, fmt.Errorf("%w: %q must have exactly three dot-separated fields", errMalformed, s)
	}

	nums := make([]int, 3)
	for i, field := range fields {
		n, err := strconv.Atoi(field)
		if err != nil || n < 0 || (len(field) > 1 && field[0] == '0') {
			return Version{}, fmt.Errorf("%w: %q field %q is not a valid version number", errMalformed, s, field)
		}
		nums[i] = n
	}

	return Version{Major: nums[0], Minor: nums[1], Patch: nums[2]}, nil
}

func (v Version) String() string {
	return fmt.Sprintf("%d.%d.%d", v.Major, v.Minor, v.Patch)
}

// Compare returns -1, 0, or 1 ordering a against b field by field.
func Compare(a, b Version) int {
	if c := compareInt(a.Major, b.Major); c != 0 {
		return c
	}
	if c := compareInt(a.Minor, b.Minor); c != 0 {
		return c
	}
	return compareInt(a.Patch, b.Patch)
}

// InRange reports whether v falls within [min, max).
func (v Version) InRange(min, max Version) bool {
	return Compare(v, min) >= 0 && Compare(v, max) < 0
}

func compareInt(a, b int) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}
