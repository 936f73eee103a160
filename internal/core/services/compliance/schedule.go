package compliance

import (
	"fmt"
	"strings"

	"github.com/lcalzada-xor/devcert/internal/core/domain"
)

// ClientPackageSuffix marks a schedule key that applies when the
// GlobalProtect client package is installed.
const ClientPackageSuffix = "-gp"

// clientPackageReleases are the feature releases with a separate, stricter
// schedule for appliances running the GlobalProtect client package.
var clientPackageReleases = map[string]bool{
	"10.2": true,
	"11.0": true,
	"11.1": true,
}

// PatchSchedule maps a feature release key ("10.2", "10.2-gp") to the
// minimum fixed version of each maintenance line, in ascending order.
type PatchSchedule struct {
	entries map[string][]domain.Version
}

// NewPatchSchedule validates and copies entries. Each list must share the
// key's feature release and have strictly increasing maintenance numbers.
func NewPatchSchedule(entries map[string][]domain.Version) (*PatchSchedule, error) {
	s := &PatchSchedule{entries: make(map[string][]domain.Version, len(entries))}

	for key, versions := range entries {
		release := strings.TrimSuffix(key, ClientPackageSuffix)

		for i, v := range versions {
			if v.FeatureRelease() != release {
				return nil, fmt.Errorf("schedule %q: entry %s is not in feature release %s", key, v, release)
			}
			if i > 0 && v.Maintenance <= versions[i-1].Maintenance {
				return nil, fmt.Errorf("schedule %q: entry %s does not follow %s", key, v, versions[i-1])
			}
		}
		s.entries[key] = append([]domain.Version(nil), versions...)
	}

	return s, nil
}

// MustNewPatchSchedule is like NewPatchSchedule but panics on invalid data.
func MustNewPatchSchedule(entries map[string][]domain.Version) *PatchSchedule {
	s, err := NewPatchSchedule(entries)
	if err != nil {
		panic(err)
	}
	return s
}

// Lookup returns the minimum fixed versions for key.
func (s *PatchSchedule) Lookup(key string) ([]domain.Version, bool) {
	versions, ok := s.entries[key]
	return versions, ok
}

// Key returns the schedule key for v. The client package variant is only
// selected for the feature releases that have one.
func Key(v domain.Version, useClientPackage bool) string {
	release := v.FeatureRelease()
	if useClientPackage && clientPackageReleases[release] {
		return release + ClientPackageSuffix
	}
	return release
}

func mustVersions(texts ...string) []domain.Version {
	out := make([]domain.Version, len(texts))
	for i, t := range texts {
		out[i] = domain.MustParseVersion(t)
	}
	return out
}

// DefaultPatchSchedule returns the minimum PAN-OS versions that contain the
// device certificate fix.
func DefaultPatchSchedule() *PatchSchedule {
	return MustNewPatchSchedule(map[string][]domain.Version{
		"8.1":  mustVersions("8.1.21-h3", "8.1.25-h3", "8.1.26"),
		"9.0":  mustVersions("9.0.16-h7", "9.0.17-h5"),
		"9.1":  mustVersions("9.1.11-h5", "9.1.12-h7", "9.1.13-h5", "9.1.14-h8", "9.1.16-h5", "9.1.17"),
		"10.0": mustVersions("10.0.8-h8", "10.0.11-h4", "10.0.12-h5"),
		"10.1": mustVersions(
			"10.1.3-h3", "10.1.4-h6", "10.1.5-h4", "10.1.6-h8", "10.1.7-h1",
			"10.1.8-h7", "10.1.9-h8", "10.1.10-h5", "10.1.11-h5", "10.1.12",
		),
		"10.2": mustVersions(
			"10.2.0-h2", "10.2.1-h1", "10.2.2-h4", "10.2.3-h12",
			"10.2.4-h10", "10.2.6-h1", "10.2.7-h3", "10.2.8",
		),
		"10.2-gp": mustVersions(
			"10.2.0-h3", "10.2.1-h2", "10.2.2-h5", "10.2.3-h13", "10.2.4-h16",
			"10.2.5-h6", "10.2.6-h3", "10.2.7-h8", "10.2.8-h3", "10.2.9-h1",
		),
		"11.0":    mustVersions("11.0.0-h2", "11.0.1-h3", "11.0.2-h3", "11.0.3-h3", "11.0.4"),
		"11.0-gp": mustVersions("11.0.0-h3", "11.0.1-h4", "11.0.2-h4", "11.0.3-h10", "11.0.4-h1"),
		"11.1":    mustVersions("11.1.0-h2", "11.1.1"),
		"11.1-gp": mustVersions("11.1.0-h3", "11.1.1-h1", "11.1.2-h3"),
	})
}
