package registry

import (
	"testing"

	"github.com/panelmesh/panelmesh/core"
	"github.com/panelmesh/panelmesh/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistry_PutGetList(t *testing.T) {
	reg := NewInMemoryRegistry()
	p := testutil.NewProfileBuilder().ID("a1").Name("Ada").Occupation("teacher").Build()
	reg.Put(p)

	got, err := reg.Get("a1")
	require.NoError(t, err)
	assert.Equal(t, "Ada", got.Name)

	_, err = reg.Get("missing")
	assert.Error(t, err)

	_, err = reg.List([]string{"a1", "missing"})
	assert.Error(t, err, "one unknown id fails the whole lookup")

	profiles, err := reg.List([]string{"a1"})
	require.NoError(t, err)
	assert.Len(t, profiles, 1)
}

func TestRegistry_SeedFromPlan(t *testing.T) {
	reg := NewInMemoryRegistry()
	plan := &core.AllocationPlan{
		TotalCount:     3,
		OverallContext: "bus riders",
		Groups: []core.DemographicGroup{
			{
				Count:           2,
				Demographics:    map[string]string{"age_range": "25-44"},
				Brief:           "daily commuters",
				Characteristics: []string{"commuter", "time-sensitive"},
			},
			{
				Count:        1,
				Demographics: map[string]string{"age_range": "18-24"},
				Brief:        "students",
			},
		},
	}

	ids := reg.SeedFromPlan(plan)
	require.Len(t, ids, 3)

	profiles, err := reg.List(ids)
	require.NoError(t, err)

	assert.Equal(t, "commuter", profiles[0].Occupation)
	assert.Equal(t, "time-sensitive", profiles[1].Occupation)
	assert.Equal(t, "daily commuters", profiles[0].Background)
	assert.Equal(t, "25-44", profiles[0].Demographics["age_range"])
	// Group without characteristics falls back to a generic occupation.
	assert.Equal(t, "panel respondent", profiles[2].Occupation)
}
