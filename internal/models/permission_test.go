package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPermissionsSetIsIdempotent(t *testing.T) {
	base := Permissions{{Resource: ResourcePlan, Actions: []Action{ActionView}}}

	once := base.Set(ResourcePlan, ActionCreate, true)
	twice := once.Set(ResourcePlan, ActionCreate, true)

	assert.Equal(t, once, twice)
	assert.Equal(t, []Action{ActionView, ActionCreate}, twice[0].Actions)
}

func TestPermissionsRevokeLastActionPrunesEntry(t *testing.T) {
	base := Permissions{
		{Resource: ResourcePlan, Actions: []Action{ActionView}},
		{Resource: ResourceUsers, Actions: []Action{ActionView}},
	}

	pruned := base.Set(ResourcePlan, ActionView, false)

	require.Len(t, pruned, 1)
	assert.Equal(t, ResourceUsers, pruned[0].Resource)
	assert.NotContains(t, pruned.Resources(), ResourcePlan)
	assert.False(t, NewGrants(pruned).Has(ResourcePlan, ActionView))
}

func TestPermissionsRevokeMissingActionIsNoop(t *testing.T) {
	base := Permissions{{Resource: ResourcePlan, Actions: []Action{ActionView}}}

	assert.Equal(t, base, base.Set(ResourceUsers, ActionDelete, false))
}

func TestPermissionsSetAllGrantsFullActionSet(t *testing.T) {
	perms := Permissions{}.SetAll(ResourceUsers, true)

	require.Len(t, perms, 1)
	assert.Equal(t, ResourceUsers, perms[0].Resource)
	assert.ElementsMatch(t, []Action{ActionView, ActionCreate, ActionEdit, ActionDelete, ActionExport}, perms[0].Actions)

	cleared := perms.SetAll(ResourceUsers, false)
	assert.Empty(t, cleared)
}

func TestPermissionsNormalizeMergesAndDropsUnknown(t *testing.T) {
	perms := Permissions{
		{Resource: ResourcePlan, Actions: []Action{ActionEdit}},
		{Resource: "treasury-secrets", Actions: []Action{ActionView}},
		{Resource: ResourcePlan, Actions: []Action{ActionView, ActionEdit, "approve"}},
		{Resource: ResourceImports, Actions: nil},
	}

	normalized := perms.Normalize()

	assert.Equal(t, Permissions{{Resource: ResourcePlan, Actions: []Action{ActionView, ActionEdit}}}, normalized)
}

func TestGrantsFailClosed(t *testing.T) {
	var empty Grants
	assert.False(t, empty.Has(ResourceDashboard, ActionView))

	grants := NewGrants(Permissions{{Resource: ResourcePlan, Actions: []Action{ActionView, ActionCreate, ActionEdit}}})
	assert.True(t, grants.Has(ResourcePlan, ActionView))
	assert.False(t, grants.Has(ResourcePlan, ActionDelete))
	assert.False(t, grants.Has("unknown", ActionView))
	assert.False(t, grants.Has(ResourcePlan, "approve"))
}

func TestPermissionsCloneIsDeep(t *testing.T) {
	perms := Permissions{{Resource: ResourcePlan, Actions: []Action{ActionView}}}
	cp := perms.Clone()
	cp[0].Actions[0] = ActionDelete

	assert.Equal(t, ActionView, perms[0].Actions[0])
}

func TestParseResourceAndAction(t *testing.T) {
	r, ok := ParseResource("saisie")
	assert.True(t, ok)
	assert.Equal(t, ResourceSaisie, r)

	_, ok = ParseResource("billing")
	assert.False(t, ok)

	a, ok := ParseAction("export")
	assert.True(t, ok)
	assert.Equal(t, ActionExport, a)

	_, ok = ParseAction("approve")
	assert.False(t, ok)
}

func TestEveryResourceHasLegalActions(t *testing.T) {
	for _, r := range AllResources() {
		assert.NotEmpty(t, ResourceActions(r), string(r))
	}
	assert.Empty(t, ResourceActions("unknown"))
}

func TestNavigationFollowsViewGrants(t *testing.T) {
	g := NewGrants(Permissions{
		{Resource: ResourceReporting, Actions: []Action{ActionView}},
		{Resource: ResourceUsers, Actions: []Action{ActionEdit}},
		{Resource: ResourceDashboard, Actions: []Action{ActionView}},
	})
	nav := Navigation(g)
	require.Len(t, nav, 2)
	assert.Equal(t, ResourceDashboard, nav[0].Resource)
	assert.Equal(t, ResourceReporting, nav[1].Resource)
	assert.Empty(t, Navigation(nil))
}
