package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeClientPackage(t *testing.T) {
	assert.Equal(t, "", NormalizeClientPackage("0.0.0"))
	assert.Equal(t, "", NormalizeClientPackage(" 0.0.0 "))
	assert.Equal(t, "", NormalizeClientPackage(""))
	assert.Equal(t, "5.2.6", NormalizeClientPackage("5.2.6"))
}

func TestDevice_Filters(t *testing.T) {
	d := Device{ClientPackageVersion: "5.2.6", Certificate: "Valid", CertificateExpiry: "2024-12-31"}
	assert.True(t, d.HasClientPackage())
	assert.True(t, d.HasCertificateInfo())

	d = Device{ClientPackageVersion: NoClientPackage, Certificate: "Valid"}
	assert.False(t, d.HasClientPackage())
	assert.False(t, d.HasCertificateInfo())
}

func TestHardwareStatus_String(t *testing.T) {
	assert.Equal(t, "affected", HardwareAffected.String())
	assert.Equal(t, "unaffected", HardwareUnaffected.String())
	assert.Equal(t, "unrecognized", HardwareUnrecognized.String())
}

func TestReport_Stats(t *testing.T) {
	r := &Report{Partition: Partition{
		Unaffected: []Device{
			{Name: "a", Model: "PA-460"},
			{Name: "b", Model: "X", Notes: NoteModelNotRecognized},
		},
		NoUpgradeRequired: []Device{{Name: "c"}},
		UpgradeRequired:   []Device{{Name: "d"}, {Name: "e"}},
		WithClientPackage: []Device{{Name: "d"}},
		Total:             5,
	}}

	stats := r.Stats()
	assert.Equal(t, 5, stats.TotalDevices)
	assert.Equal(t, 2, stats.Unaffected)
	assert.Equal(t, 1, stats.Unrecognized)
	assert.Equal(t, 3, stats.Affected)
	assert.Equal(t, 2, stats.UpgradeRequired)
	assert.Equal(t, 1, stats.NoUpgradeRequired)
	assert.Equal(t, 1, stats.WithClientPackage)
	assert.Equal(t, 0, stats.WithCertificateInfo)
}
