package snapshot

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pavitra93/go-rental-management/shared/models"
)

func TestGraphLookups(t *testing.T) {
	g := New(Collections{
		Users: []models.User{
			{ID: "A1", Role: models.RoleAdmin},
			{ID: "L1", Role: models.RoleLandlord},
			{ID: "A2", Role: models.RoleAdmin},
		},
		Properties: []models.Property{{ID: "P1", LandlordID: "L1", Name: "Maple Court"}},
		Units: []models.Unit{
			{ID: "U1", PropertyID: "P1", UnitNumber: "1A"},
			{ID: "U9", PropertyID: "missing"},
		},
	})

	u, ok := g.Unit("U1")
	require.True(t, ok)
	assert.Equal(t, "1A", u.UnitNumber)

	p, ok := g.PropertyOfUnit("U1")
	require.True(t, ok)
	assert.Equal(t, "Maple Court", p.Name)

	_, ok = g.PropertyOfUnit("U9")
	assert.False(t, ok)
	_, ok = g.PropertyOfUnit("nope")
	assert.False(t, ok)

	_, ok = g.MaintenanceRequest("M1")
	assert.False(t, ok)

	assert.Equal(t, []string{"A1", "A2"}, g.AdminIDs())
	assert.True(t, g.Has(models.KindProperty, "P1"))
	assert.False(t, g.Has(models.KindLease, "P1"))
}

func TestGraphDuplicateIDsKeepFirst(t *testing.T) {
	g := New(Collections{
		Units: []models.Unit{
			{ID: "U1", UnitNumber: "first"},
			{ID: "U1", UnitNumber: "second"},
		},
	})
	u, ok := g.Unit("U1")
	require.True(t, ok)
	assert.Equal(t, "first", u.UnitNumber)
}

func TestEmptyGraph(t *testing.T) {
	g := Empty()
	_, ok := g.User("anyone")
	assert.False(t, ok)
	assert.Empty(t, g.AdminIDs())
}

func TestGraphMaintenanceLookup(t *testing.T) {
	g := New(Collections{
		Maintenance: []models.MaintenanceRequest{
			{ID: "M1", UnitID: "U1", Title: "Leaking tap"},
			{ID: "M2", UnitID: "U2", Title: "Broken heater"},
		},
	})

	m, ok := g.MaintenanceRequest("M2")
	require.True(t, ok)
	assert.Equal(t, "Broken heater", m.Title)
	assert.Len(t, g.Collections.Maintenance, 2)
	assert.True(t, g.Has(models.KindMaintenance, "M1"))
}
