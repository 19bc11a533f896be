package portfolio

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDate_Formats(t *testing.T) {
	iso := ParseDate("2025-09-17")
	require.NotNil(t, iso)
	assert.Equal(t, 2025, iso.Year())
	assert.Equal(t, time.September, iso.Month())
	assert.Equal(t, 17, iso.Day())

	latam := ParseDate("17/09/2025")
	require.NotNil(t, latam)
	assert.True(t, iso.Equal(*latam))

	assert.Nil(t, ParseDate(""))
	assert.Nil(t, ParseDate("   "))
	assert.Nil(t, ParseDate("not-a-date"))
}

func TestParseLocalFloat_CommaDecimals(t *testing.T) {
	v := ParseLocalFloat("132,5")
	require.NotNil(t, v)
	assert.Equal(t, 132.5, *v)

	v = ParseLocalFloat("160")
	require.NotNil(t, v)
	assert.Equal(t, 160.0, *v)

	assert.Nil(t, ParseLocalFloat(""))
	assert.Nil(t, ParseLocalFloat("abc"))
}

func TestComputeFlags(t *testing.T) {
	today := time.Date(2025, 9, 1, 10, 0, 0, 0, time.UTC)
	future := time.Date(2025, 10, 1, 0, 0, 0, 0, time.UTC)
	past := time.Date(2025, 8, 1, 0, 0, 0, 0, time.UTC)

	t.Run("open project with future deadline", func(t *testing.T) {
		p := Project{PMState: "Abierto", PMDueDate: &future, HasInnovationLead: "Si", InnovationLead: "Dra. Soto"}
		flags := p.ComputeFlags(today)
		assert.False(t, flags.Closed)
		assert.True(t, flags.OnSchedule)
		assert.False(t, flags.MissingLead)
	})

	t.Run("closed by state", func(t *testing.T) {
		p := Project{PMState: "Cerrado", PMDueDate: &future}
		flags := p.ComputeFlags(today)
		assert.True(t, flags.Closed)
		assert.False(t, flags.OnSchedule)
	})

	t.Run("closed by actual end date", func(t *testing.T) {
		p := Project{PMState: "Abierto", PMActualEndDate: &past}
		flags := p.ComputeFlags(today)
		assert.True(t, flags.Closed)
	})

	t.Run("past due is off schedule", func(t *testing.T) {
		p := Project{PMState: "Abierto", PMDueDate: &past}
		flags := p.ComputeFlags(today)
		assert.False(t, flags.OnSchedule)
	})

	t.Run("due today counts as on schedule", func(t *testing.T) {
		due := time.Date(2025, 9, 1, 0, 0, 0, 0, time.UTC)
		p := Project{PMState: "Abierto", PMDueDate: &due}
		flags := p.ComputeFlags(today)
		assert.True(t, flags.OnSchedule)
	})

	t.Run("missing lead variants", func(t *testing.T) {
		for _, v := range []string{"No", "false", "0", ""} {
			p := Project{HasInnovationLead: v}
			assert.True(t, p.ComputeFlags(today).MissingLead, "value %q", v)
		}
		// Answered yes but no named lead still counts as missing
		p := Project{HasInnovationLead: "Si", InnovationLead: "   "}
		assert.True(t, p.ComputeFlags(today).MissingLead)
	})
}
