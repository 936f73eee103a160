package compliance

import (
	"fmt"

	"github.com/lcalzada-xor/devcert/internal/core/domain"
	"github.com/lcalzada-xor/devcert/internal/core/ports"
)

var _ ports.Classifier = (*Classifier)(nil)

// floorVersion is the remediation reported for releases older than 8.1,
// which have no schedule of their own.
var floorVersion = domain.Version{Major: 8, Feature: 1}

// Classifier decides whether a model and software version are exposed to the
// device certificate defect.
type Classifier struct {
	hardware *HardwareCatalog
	schedule *PatchSchedule
}

// NewClassifier creates a classifier over the given tables.
func NewClassifier(hardware *HardwareCatalog, schedule *PatchSchedule) *Classifier {
	return &Classifier{hardware: hardware, schedule: schedule}
}

// NewDefaultClassifier creates a classifier over the shipped tables.
func NewDefaultClassifier() *Classifier {
	return NewClassifier(DefaultHardwareCatalog(), DefaultPatchSchedule())
}

// Hardware returns the hardware catalog the classifier uses.
func (c *Classifier) Hardware() *HardwareCatalog {
	return c.hardware
}

// HardwareStatus resolves model against the hardware catalog.
func (c *Classifier) HardwareStatus(model string) domain.HardwareStatus {
	return c.hardware.Lookup(model)
}

// IsVersionAffected reports whether versionText is below the minimum fixed
// version for its maintenance line, and if so which version remediates it.
// useClientPackage selects the GlobalProtect schedule where one exists.
// A malformed version returns an error wrapping *domain.FormatError.
func (c *Classifier) IsVersionAffected(versionText string, useClientPackage bool) (bool, string, error) {
	current, err := domain.ParseVersion(versionText)
	if err != nil {
		return false, "", fmt.Errorf("parse version %q: %w", versionText, err)
	}

	// 11.2 and later ship with the fix.
	if current.Major > 11 || (current.Major == 11 && current.Feature >= 2) {
		return false, "", nil
	}

	minimums, ok := c.schedule.Lookup(Key(current, useClientPackage))
	if !ok {
		if current.Less(floorVersion) {
			return true, floorVersion.String(), nil
		}
		// Untracked feature release; assumed patched.
		return false, "", nil
	}

	for _, fixed := range minimums {
		if current.Less(fixed) {
			return true, fixed.String(), nil
		}
	}

	return false, "", nil
}
