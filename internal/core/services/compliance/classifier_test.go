package compliance

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lcalzada-xor/devcert/internal/core/domain"
)

func TestHardwareCatalog_Membership(t *testing.T) {
	hw := DefaultHardwareCatalog()

	assert.True(t, hw.IsAffected("PA-220"))
	assert.True(t, hw.IsAffected("PA-3020"))
	assert.False(t, hw.IsAffected("PA-460"))

	assert.True(t, hw.IsUnaffected("PA-460"))
	assert.True(t, hw.IsUnaffected("PA-1410"))
	assert.False(t, hw.IsUnaffected("PA-220"))

	// Case sensitive
	assert.False(t, hw.IsAffected("pa-220"))
	assert.Equal(t, domain.HardwareUnrecognized, hw.Lookup("pa-220"))
	assert.Equal(t, domain.HardwareAffected, hw.Lookup("PA-VM (lite)"))
	assert.Equal(t, domain.HardwareUnaffected, hw.Lookup("PA-5445"))
}

func TestHardwareCatalog_DefaultTablesDisjoint(t *testing.T) {
	hw := DefaultHardwareCatalog()
	for model := range hw.affected {
		assert.False(t, hw.IsUnaffected(model), "model %s in both tables", model)
	}
}

func TestHardwareCatalog_Families(t *testing.T) {
	hw := DefaultHardwareCatalog()
	assert.Equal(t, []string{"1400", "3400", "400", "5400", "5400f", "7500"}, hw.Families(domain.HardwareUnaffected))
	assert.Len(t, hw.Families(domain.HardwareAffected), 11)
	assert.Nil(t, hw.Families(domain.HardwareUnrecognized))
}

func TestHardwareCatalog_Table(t *testing.T) {
	hw := NewHardwareCatalog(
		map[string][]string{"b": {"PA-B1", "PA-B2"}, "a": {"PA-A"}},
		map[string][]string{"z": {"PA-Z"}},
	)

	table := hw.Table()
	require.Len(t, table, 3)
	assert.Equal(t, domain.HardwareFamily{Name: "a", Status: domain.HardwareAffected, Models: []string{"PA-A"}}, table[0])
	assert.Equal(t, domain.HardwareFamily{Name: "b", Status: domain.HardwareAffected, Models: []string{"PA-B1", "PA-B2"}}, table[1])
	assert.Equal(t, domain.HardwareFamily{Name: "z", Status: domain.HardwareUnaffected, Models: []string{"PA-Z"}}, table[2])

	table[0].Models[0] = "changed"
	assert.Equal(t, "PA-A", hw.Table()[0].Models[0])
}

func TestClassifier_HardwareStatus(t *testing.T) {
	c := NewDefaultClassifier()
	assert.Equal(t, domain.HardwareAffected, c.HardwareStatus("PA-220"))
	assert.Equal(t, domain.HardwareUnaffected, c.HardwareStatus("PA-460"))
	assert.Equal(t, domain.HardwareUnrecognized, c.HardwareStatus("PA-9999"))
	assert.Len(t, c.Hardware().Table(), 17)
}

func TestHardwareCatalog_CopiesInput(t *testing.T) {
	affected := map[string][]string{"x": {"X-1"}}
	hw := NewHardwareCatalog(affected, nil)
	affected["x"][0] = "X-2"

	assert.True(t, hw.IsAffected("X-1"))
	assert.False(t, hw.IsAffected("X-2"))
}

func TestNewPatchSchedule_Validation(t *testing.T) {
	_, err := NewPatchSchedule(map[string][]domain.Version{
		"10.2": mustVersions("10.2.3-h1", "10.2.2-h1"),
	})
	assert.Error(t, err)

	_, err = NewPatchSchedule(map[string][]domain.Version{
		"10.2": mustVersions("10.2.3-h1", "10.2.3-h4"),
	})
	assert.Error(t, err, "maintenance numbers must strictly increase")

	_, err = NewPatchSchedule(map[string][]domain.Version{
		"10.2-gp": mustVersions("10.1.3-h1"),
	})
	assert.Error(t, err, "entries must belong to the key's release")

	s, err := NewPatchSchedule(map[string][]domain.Version{
		"10.2-gp": mustVersions("10.2.3-h1", "10.2.5"),
	})
	require.NoError(t, err)
	got, ok := s.Lookup("10.2-gp")
	require.True(t, ok)
	assert.Len(t, got, 2)
}

func TestDefaultPatchSchedule_Ascending(t *testing.T) {
	s := DefaultPatchSchedule()
	for key, list := range s.entries {
		for i := 1; i < len(list); i++ {
			assert.True(t, list[i-1].Less(list[i]), "%s: %s !< %s", key, list[i-1], list[i])
		}
	}
}

func TestKey(t *testing.T) {
	assert.Equal(t, "10.2", Key(domain.MustParseVersion("10.2.3"), false))
	assert.Equal(t, "10.2-gp", Key(domain.MustParseVersion("10.2.3"), true))
	assert.Equal(t, "11.0-gp", Key(domain.MustParseVersion("11.0.1"), true))
	assert.Equal(t, "11.1-gp", Key(domain.MustParseVersion("11.1.0"), true))
	// No client package schedule for 10.1
	assert.Equal(t, "10.1", Key(domain.MustParseVersion("10.1.3"), true))
}

func TestIsVersionAffected(t *testing.T) {
	c := NewDefaultClassifier()

	tests := []struct {
		name          string
		version       string
		clientPackage bool
		wantAffected  bool
		wantMinimum   string
	}{
		{"below first entry", "9.1.10", false, true, "9.1.11-h5"},
		{"above every entry", "10.2.12-h6", false, false, ""},
		{"client package schedule", "10.2.2-h3", true, true, "10.2.2-h5"},
		{"ceiling with client package", "11.2.0", true, false, ""},
		{"ceiling later major", "12.1.0", false, false, ""},
		{"ceiling 11.2 hotfix", "11.2.4-h1", false, false, ""},
		{"own line minimum, later line listed", "9.1.11-h5", false, true, "9.1.12-h7"},
		{"one hotfix short", "9.1.11-h4", false, true, "9.1.11-h5"},
		{"next line minimum", "9.1.12-h6", false, true, "9.1.12-h7"},
		{"stricter gp minimum", "10.2.2-h4", true, true, "10.2.2-h5"},
		{"standard schedule same version", "10.2.2-h4", false, true, "10.2.3-h12"},
		{"gp flag ignored for 10.1", "10.1.6-h7", true, true, "10.1.6-h8"},
		{"pre 8.1 major", "7.1.26", false, true, "8.1.0"},
		{"pre 8.1 feature", "8.0.20", false, true, "8.1.0"},
		{"pre 8.1 with client package", "8.0.1", true, true, "8.1.0"},
		{"8.1 below schedule", "8.1.0", false, true, "8.1.21-h3"},
		{"last entry without hotfix", "10.1.12", false, false, ""},
		{"11.0 below", "11.0.3-h2", false, true, "11.0.3-h3"},
		{"11.1 gp below", "11.1.2", true, true, "11.1.2-h3"},
		{"11.1 standard beyond list", "11.1.2", false, false, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			affected, minimum, err := c.IsVersionAffected(tt.version, tt.clientPackage)
			require.NoError(t, err)
			assert.Equal(t, tt.wantAffected, affected)
			assert.Equal(t, tt.wantMinimum, minimum)
		})
	}
}

func TestIsVersionAffected_FormatError(t *testing.T) {
	c := NewDefaultClassifier()

	_, _, err := c.IsVersionAffected("invalid-version", false)
	require.Error(t, err)

	var fe *domain.FormatError
	require.True(t, errors.As(err, &fe))
	assert.Equal(t, "invalid-version", fe.Text)
}

// Untracked feature releases that are neither pre-8.1 nor 11.2+ are treated
// as patched.
func TestIsVersionAffected_UntrackedReleaseAssumedPatched(t *testing.T) {
	c := NewDefaultClassifier()

	for _, v := range []string{"8.2.0", "9.2.1", "10.3.0", "11.5.0-h1"} {
		affected, minimum, err := c.IsVersionAffected(v, false)
		require.NoError(t, err)
		assert.False(t, affected, v)
		assert.Empty(t, minimum, v)
	}
}

// The scan returns the first schedule entry above the installed version, so a
// device on an unlisted maintenance line is compared against the next listed
// line, and one beyond every listed line is unaffected.
func TestIsVersionAffected_UnlistedMaintenanceLines(t *testing.T) {
	c := NewDefaultClassifier()

	tests := []struct {
		version      string
		wantAffected bool
		wantMinimum  string
	}{
		// 10.2.5 is not in the standard 10.2 schedule; the next entry is 10.2.6-h1.
		{"10.2.5", true, "10.2.6-h1"},
		{"10.2.5-h99", true, "10.2.6-h1"},
		// 9.1.15 is not listed; 9.1.16-h5 is next.
		{"9.1.15-h3", true, "9.1.16-h5"},
		// 9.0.18 sits above the last listed line.
		{"9.0.18", false, ""},
		// 10.0.9 and 10.0.10 are unlisted lines between 10.0.8 and 10.0.11.
		{"10.0.9", true, "10.0.11-h4"},
		// Meeting the minimum of its own line does not clear a device while a
		// later line is listed.
		{"10.0.8-h8", true, "10.0.11-h4"},
		{"10.0.12-h5", false, ""},
	}

	for _, tt := range tests {
		t.Run(tt.version, func(t *testing.T) {
			affected, minimum, err := c.IsVersionAffected(tt.version, false)
			require.NoError(t, err)
			assert.Equal(t, tt.wantAffected, affected)
			assert.Equal(t, tt.wantMinimum, minimum)
		})
	}
}

func TestIsVersionAffected_InjectedSchedule(t *testing.T) {
	schedule := MustNewPatchSchedule(map[string][]domain.Version{
		"10.1": mustVersions("10.1.3-h1"),
	})
	c := NewClassifier(DefaultHardwareCatalog(), schedule)

	affected, minimum, err := c.IsVersionAffected("10.1.3", false)
	require.NoError(t, err)
	assert.True(t, affected)
	assert.Equal(t, "10.1.3-h1", minimum)

	// 9.1 is not tracked by this schedule.
	affected, _, err = c.IsVersionAffected("9.1.10", false)
	require.NoError(t, err)
	assert.False(t, affected)
}
