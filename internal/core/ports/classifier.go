package ports

import "github.com/lcalzada-xor/devcert/internal/core/domain"

// Classifier defines the interface for device certificate exposure checks.
type Classifier interface {
	// HardwareStatus reports whether the hardware model is in an affected or
	// an unaffected family, or in neither.
	HardwareStatus(model string) domain.HardwareStatus
	// IsVersionAffected returns whether the version needs an upgrade and the
	// minimum version that fixes it.
	IsVersionAffected(versionText string, useClientPackage bool) (bool, string, error)
}
