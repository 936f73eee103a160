package domain

import (
	"fmt"
	"regexp"
	"strconv"
)

var versionRegex = regexp.MustCompile(`^(\d+)\.(\d+)\.(\d+)(?:-h(\d+))?$`)

// Version is a PAN-OS software version such as 10.2.3-h4.
// A zero Hotfix means the release carries no hotfix suffix.
type Version struct {
	Major       int
	Feature     int
	Maintenance int
	Hotfix      int
}

// FormatError reports a version string that does not have the
// major.feature.maintenance[-hN] shape.
type FormatError struct {
	Text string
}

func (e *FormatError) Error() string {
	return fmt.Sprintf("invalid version format: %q", e.Text)
}

// ParseVersion parses text into a Version. Surrounding whitespace is not
// tolerated; callers trim their input.
func ParseVersion(text string) (Version, error) {
	m := versionRegex.FindStringSubmatch(text)
	if m == nil {
		return Version{}, &FormatError{Text: text}
	}

	var parts [4]int
	for i, s := range m[1:] {
		if s == "" {
			continue
		}
		n, err := strconv.Atoi(s)
		if err != nil {
			// Only reachable on overflow; the regex guarantees digits.
			return Version{}, &FormatError{Text: text}
		}
		parts[i] = n
	}

	return Version{
		Major:       parts[0],
		Feature:     parts[1],
		Maintenance: parts[2],
		Hotfix:      parts[3],
	}, nil
}

// MustParseVersion is like ParseVersion but panics on error.
// It is meant for static tables.
func MustParseVersion(text string) Version {
	v, err := ParseVersion(text)
	if err != nil {
		panic(err)
	}
	return v
}

// Compare returns -1, 0 or +1 ordering v against other by major, feature,
// maintenance and hotfix in that priority.
func (v Version) Compare(other Version) int {
	switch {
	case v.Major != other.Major:
		return cmpInt(v.Major, other.Major)
	case v.Feature != other.Feature:
		return cmpInt(v.Feature, other.Feature)
	case v.Maintenance != other.Maintenance:
		return cmpInt(v.Maintenance, other.Maintenance)
	default:
		return cmpInt(v.Hotfix, other.Hotfix)
	}
}

// Less reports whether v sorts before other.
func (v Version) Less(other Version) bool {
	return v.Compare(other) < 0
}

// Equal reports whether all four components match.
func (v Version) Equal(other Version) bool {
	return v == other
}

// FeatureRelease returns the "major.feature" release line, e.g. "10.2".
func (v Version) FeatureRelease() string {
	return fmt.Sprintf("%d.%d", v.Major, v.Feature)
}

// String renders the canonical form. The -h suffix appears only for a
// nonzero hotfix.
func (v Version) String() string {
	if v.Hotfix != 0 {
		return fmt.Sprintf("%d.%d.%d-h%d", v.Major, v.Feature, v.Maintenance, v.Hotfix)
	}
	return fmt.Sprintf("%d.%d.%d", v.Major, v.Feature, v.Maintenance)
}

func cmpInt(a, b int) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}
