package compliance

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSnapshotFansOutSingleFlag(t *testing.T) {
	for _, available := range []bool{true, false} {
		snapshot := Snapshot(available)

		require.Len(t, snapshot, 9)
		for name, compliant := range snapshot {
			assert.Equal(t, available, compliant, "framework %s", name)
		}
	}
}

func TestSnapshotCoversAllFrameworks(t *testing.T) {
	snapshot := Snapshot(true)

	for _, name := range Frameworks() {
		_, ok := snapshot[name]
		assert.True(t, ok, "framework %s missing from snapshot", name)
	}
	assert.Equal(t, Count(), len(snapshot))
}

func TestFrameworksOrderStable(t *testing.T) {
	expected := []string{
		"GDPR-32", "GDPR-5", "ISO-27001", "ISO-27701", "ISO-27017",
		"NIST-800-57", "NIST-CSF", "NCSC-PQC", "SOC2",
	}
	assert.Equal(t, expected, Frameworks())

	// Callers must not be able to mutate the shared slice
	mutated := Frameworks()
	mutated[0] = "bogus"
	assert.Equal(t, expected, Frameworks())
}

func TestFullyCompliant(t *testing.T) {
	snapshot := Snapshot(true)
	require.True(t, FullyCompliant(snapshot))

	// Dropping any single framework breaks full compliance
	for _, name := range Frameworks() {
		partial := Snapshot(true)
		partial[name] = false
		assert.False(t, FullyCompliant(partial), "still fully compliant without %s", name)

		missing := Snapshot(true)
		delete(missing, name)
		assert.False(t, FullyCompliant(missing), "still fully compliant with %s absent", name)
	}

	assert.False(t, FullyCompliant(Snapshot(false)))
	assert.False(t, FullyCompliant(nil))
}
