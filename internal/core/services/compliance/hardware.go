package compliance

import (
	"sort"

	"github.com/lcalzada-xor/devcert/internal/core/domain"
)

// HardwareCatalog answers whether a hardware model is affected by the
// device certificate defect. Models are matched case-sensitively.
type HardwareCatalog struct {
	affectedFamilies   map[string][]string
	unaffectedFamilies map[string][]string
	affected           map[string]struct{}
	unaffected         map[string]struct{}
}

// NewHardwareCatalog builds a catalog from family -> models tables.
// The input maps are copied.
func NewHardwareCatalog(affected, unaffected map[string][]string) *HardwareCatalog {
	return &HardwareCatalog{
		affectedFamilies:   copyFamilies(affected),
		unaffectedFamilies: copyFamilies(unaffected),
		affected:           flatten(affected),
		unaffected:         flatten(unaffected),
	}
}

// DefaultHardwareCatalog returns the catalog for the PA-series hardware
// covered by the device certificate advisory.
func DefaultHardwareCatalog() *HardwareCatalog {
	return NewHardwareCatalog(
		map[string][]string{
			"200":   {"PA-200"},
			"220":   {"PA-220", "PA-220-ZTP", "PA-220R", "PA-220R-ZTP"},
			"3000":  {"PA-3020", "PA-3050", "PA-3060"},
			"3200":  {"PA-3220", "PA-3220-ZTP", "PA-3250", "PA-3250-ZTP", "PA-3260"},
			"500":   {"PA-500"},
			"5000":  {"PA-5020", "PA-5050", "PA-5060"},
			"5200":  {"PA-5220", "PA-5250", "PA-5260", "PA-5280"},
			"7000":  {"PA-7050", "PA-7080"},
			"800":   {"PA-820", "PA-820-ZTP", "PA-850", "PA-850-ZTP"},
			"vm":    {"PA-VM", "PA-VM (lite)"},
			"vmarm": {"PA-VMARM"},
		},
		map[string][]string{
			"400":   {"PA-410", "PA-415", "PA-415-5G", "PA-440", "PA-445", "PA-450", "PA-450R", "PA-460"},
			"1400":  {"PA-1410", "PA-1420"},
			"3400":  {"PA-3410", "PA-3420", "PA-3430", "PA-3440"},
			"5400":  {"PA-5450"},
			"5400f": {"PA-5410", "PA-5420", "PA-5430", "PA-5440", "PA-5445"},
			"7500":  {"PA-7500"},
		},
	)
}

// IsAffected reports whether model belongs to an affected family.
func (c *HardwareCatalog) IsAffected(model string) bool {
	_, ok := c.affected[model]
	return ok
}

// IsUnaffected reports whether model belongs to an unaffected family.
func (c *HardwareCatalog) IsUnaffected(model string) bool {
	_, ok := c.unaffected[model]
	return ok
}

// Lookup resolves model to a single status. A model listed in both tables
// is reported as affected.
func (c *HardwareCatalog) Lookup(model string) domain.HardwareStatus {
	switch {
	case c.IsAffected(model):
		return domain.HardwareAffected
	case c.IsUnaffected(model):
		return domain.HardwareUnaffected
	default:
		return domain.HardwareUnrecognized
	}
}

// Families returns the sorted family names for the given status.
func (c *HardwareCatalog) Families(status domain.HardwareStatus) []string {
	var src map[string][]string
	switch status {
	case domain.HardwareAffected:
		src = c.affectedFamilies
	case domain.HardwareUnaffected:
		src = c.unaffectedFamilies
	default:
		return nil
	}

	names := make([]string, 0, len(src))
	for name := range src {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Table returns every family with its models, affected families first and
// each group sorted by name. The result is a copy.
func (c *HardwareCatalog) Table() []domain.HardwareFamily {
	var out []domain.HardwareFamily
	for _, status := range []domain.HardwareStatus{domain.HardwareAffected, domain.HardwareUnaffected} {
		src := c.affectedFamilies
		if status == domain.HardwareUnaffected {
			src = c.unaffectedFamilies
		}
		for _, name := range c.Families(status) {
			out = append(out, domain.HardwareFamily{
				Name:   name,
				Status: status,
				Models: append([]string(nil), src[name]...),
			})
		}
	}
	return out
}

func flatten(families map[string][]string) map[string]struct{} {
	set := make(map[string]struct{})
	for _, models := range families {
		for _, m := range models {
			set[m] = struct{}{}
		}
	}
	return set
}

func copyFamilies(families map[string][]string) map[string][]string {
	out := make(map[string][]string, len(families))
	for name, models := range families {
		out[name] = append([]string(nil), models...)
	}
	return out
}
