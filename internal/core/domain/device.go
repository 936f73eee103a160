package domain

import "strings"

// Device represents one PAN-OS appliance as reported by an inventory source.
// MinimumRequiredVersion and Notes are classification output and are empty
// on records produced by ingestion.
type Device struct {
	Name                 string `json:"device_name"`
	VirtualSystem        string `json:"virtual_system,omitempty"`
	Model                string `json:"model"`
	SerialNumber         string `json:"serial_number"`
	IPv4Address          string `json:"ipv4_address"`
	State                string `json:"device_state,omitempty"`                   // "Connected", "Disconnected"
	Certificate          string `json:"device_certificate,omitempty"`             // e.g. "Valid", "None"
	CertificateExpiry    string `json:"device_certificate_expiry_date,omitempty"` // as reported, not parsed
	SoftwareVersion      string `json:"software_version,omitempty"`               // e.g. "10.2.3-h4"
	ClientPackageVersion string `json:"globalprotect_client,omitempty"`           // empty when not installed
	Source               string `json:"source,omitempty"`                         // "csv", "panorama", "firewall"

	// Classification output
	MinimumRequiredVersion string `json:"min_required_version,omitempty"`
	Notes                  string `json:"notes,omitempty"`
}

// Connectivity states
const (
	StateConnected    = "Connected"
	StateDisconnected = "Disconnected"
)

// NoClientPackage is the sentinel inventories use for "GlobalProtect client
// package not installed".
const NoClientPackage = "0.0.0"

// NormalizeClientPackage trims s and maps the not-installed sentinel to "".
func NormalizeClientPackage(s string) string {
	s = strings.TrimSpace(s)
	if s == NoClientPackage {
		return ""
	}
	return s
}

// HasClientPackage reports whether a GlobalProtect client package is installed.
func (d Device) HasClientPackage() bool {
	return d.ClientPackageVersion != "" && d.ClientPackageVersion != NoClientPackage
}

// HasCertificateInfo reports whether both certificate status and expiry are known.
func (d Device) HasCertificateInfo() bool {
	return d.Certificate != "" && d.CertificateExpiry != ""
}

// HardwareStatus is the outcome of looking a model up in the hardware tables.
type HardwareStatus int

const (
	HardwareUnrecognized HardwareStatus = iota
	HardwareAffected
	HardwareUnaffected
)

// MarshalText renders the status name in JSON documents.
func (s HardwareStatus) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

func (s HardwareStatus) String() string {
	switch s {
	case HardwareAffected:
		return "affected"
	case HardwareUnaffected:
		return "unaffected"
	default:
		return "unrecognized"
	}
}

// HardwareFamily is one family of the hardware catalog and its models.
type HardwareFamily struct {
	Name   string         `json:"family"`
	Status HardwareStatus `json:"status"`
	Models []string       `json:"models"`
}
