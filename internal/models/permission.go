package models

import "sort"

// Resource identifies a protected feature area of the treasury dashboard.
type Resource string

const (
	ResourceDashboard     Resource = "dashboard"
	ResourcePlan          Resource = "plan"
	ResourceUsers         Resource = "users"
	ResourceProfiles      Resource = "profiles"
	ResourceSettings      Resource = "settings"
	ResourceImports       Resource = "imports"
	ResourceForecast      Resource = "forecast"
	ResourceSaisie        Resource = "saisie"
	ResourceVisualization Resource = "visualization"
	ResourceReporting     Resource = "reporting"
)

// Action identifies an operation class on a resource.
type Action string

const (
	ActionView   Action = "view"
	ActionCreate Action = "create"
	ActionEdit   Action = "edit"
	ActionDelete Action = "delete"
	ActionExport Action = "export"
)

var allResources = []Resource{
	ResourceDashboard,
	ResourcePlan,
	ResourceUsers,
	ResourceProfiles,
	ResourceSettings,
	ResourceImports,
	ResourceForecast,
	ResourceSaisie,
	ResourceVisualization,
	ResourceReporting,
}

var allActions = []Action{ActionView, ActionCreate, ActionEdit, ActionDelete, ActionExport}

var actionRank = map[Action]int{
	ActionView:   0,
	ActionCreate: 1,
	ActionEdit:   2,
	ActionDelete: 3,
	ActionExport: 4,
}

// AllResources returns the closed resource vocabulary in display order.
func AllResources() []Resource {
	out := make([]Resource, len(allResources))
	copy(out, allResources)
	return out
}

// AllActions returns the full action set in canonical order.
func AllActions() []Action {
	out := make([]Action, len(allActions))
	copy(out, allActions)
	return out
}

// ParseResource validates a raw resource tag.
func ParseResource(raw string) (Resource, bool) {
	r := Resource(raw)
	return r, r.Valid()
}

// ParseAction validates a raw action tag.
func ParseAction(raw string) (Action, bool) {
	a := Action(raw)
	return a, a.Valid()
}

// Valid reports whether the resource belongs to the closed set.
func (r Resource) Valid() bool {
	switch r {
	case ResourceDashboard, ResourcePlan, ResourceUsers, ResourceProfiles, ResourceSettings,
		ResourceImports, ResourceForecast, ResourceSaisie, ResourceVisualization, ResourceReporting:
		return true
	}
	return false
}

// Valid reports whether the action belongs to the closed set.
func (a Action) Valid() bool {
	_, ok := actionRank[a]
	return ok
}

// ResourceActions returns the actions that may be granted on a resource.
// Unknown resources have no legal actions.
func ResourceActions(r Resource) []Action {
	switch r {
	case ResourceDashboard, ResourcePlan, ResourceUsers, ResourceProfiles, ResourceSettings,
		ResourceImports, ResourceForecast, ResourceSaisie, ResourceVisualization, ResourceReporting:
		return AllActions()
	default:
		return nil
	}
}

func actionAllowed(r Resource, a Action) bool {
	for _, legal := range ResourceActions(r) {
		if legal == a {
			return true
		}
	}
	return false
}

// Permission grants a set of actions on one resource.
type Permission struct {
	Resource Resource `json:"resource"`
	Actions  []Action `json:"actions"`
}

// Permissions is a grant collection holding at most one entry per resource.
type Permissions []Permission

// Normalize merges duplicate resources, drops unknown tags and empty entries and
// orders everything canonically. The receiver is left untouched.
func (p Permissions) Normalize() Permissions {
	merged := make(map[Resource]map[Action]struct{})
	for _, perm := range p {
		if !perm.Resource.Valid() {
			continue
		}
		for _, a := range perm.Actions {
			if !actionAllowed(perm.Resource, a) {
				continue
			}
			set, ok := merged[perm.Resource]
			if !ok {
				set = make(map[Action]struct{})
				merged[perm.Resource] = set
			}
			set[a] = struct{}{}
		}
	}

	out := make(Permissions, 0, len(merged))
	for _, r := range allResources {
		set, ok := merged[r]
		if !ok || len(set) == 0 {
			continue
		}
		out = append(out, Permission{Resource: r, Actions: sortedActions(set)})
	}
	return out
}

// Set grants or revokes a single action and returns the normalized result.
// Revoking the last action removes the resource entry entirely.
func (p Permissions) Set(r Resource, a Action, granted bool) Permissions {
	if !actionAllowed(r, a) {
		return p.Normalize()
	}
	grants := NewGrants(p)
	if granted {
		grants.grant(r, a)
	} else {
		grants.revoke(r, a)
	}
	return grants.Permissions()
}

// SetAll grants every legal action on a resource or clears its entry.
func (p Permissions) SetAll(r Resource, granted bool) Permissions {
	grants := NewGrants(p)
	if !r.Valid() {
		return grants.Permissions()
	}
	if granted {
		for _, a := range ResourceActions(r) {
			grants.grant(r, a)
		}
	} else {
		delete(grants, r)
	}
	return grants.Permissions()
}

// Resources lists the resources that carry at least one action.
func (p Permissions) Resources() []Resource {
	return NewGrants(p).Resources()
}

// Clone returns a deep copy.
func (p Permissions) Clone() Permissions {
	if p == nil {
		return nil
	}
	out := make(Permissions, len(p))
	for i, perm := range p {
		actions := make([]Action, len(perm.Actions))
		copy(actions, perm.Actions)
		out[i] = Permission{Resource: perm.Resource, Actions: actions}
	}
	return out
}

// Grants is the resolved resource → action lookup used for permission checks.
type Grants map[Resource]map[Action]struct{}

// NewGrants builds the lookup map from a grant collection.
func NewGrants(perms Permissions) Grants {
	g := make(Grants, len(perms))
	for _, perm := range perms {
		if !perm.Resource.Valid() {
			continue
		}
		for _, a := range perm.Actions {
			if actionAllowed(perm.Resource, a) {
				g.grant(perm.Resource, a)
			}
		}
	}
	return g
}

// Has reports whether the action is granted on the resource. Unknown resources
// and actions are never granted.
func (g Grants) Has(r Resource, a Action) bool {
	if g == nil {
		return false
	}
	set, ok := g[r]
	if !ok {
		return false
	}
	_, ok = set[a]
	return ok
}

// Resources lists resources with any grant, in display order.
func (g Grants) Resources() []Resource {
	out := make([]Resource, 0, len(g))
	for _, r := range allResources {
		if len(g[r]) > 0 {
			out = append(out, r)
		}
	}
	return out
}

// Map renders the grants as resource → actions for API consumers.
func (g Grants) Map() map[Resource][]Action {
	out := make(map[Resource][]Action, len(g))
	for r, set := range g {
		if len(set) == 0 {
			continue
		}
		out[r] = sortedActions(set)
	}
	return out
}

// Permissions converts the lookup back to a normalized grant collection.
func (g Grants) Permissions() Permissions {
	out := make(Permissions, 0, len(g))
	for _, r := range allResources {
		if len(g[r]) == 0 {
			continue
		}
		out = append(out, Permission{Resource: r, Actions: sortedActions(g[r])})
	}
	return out
}

func (g Grants) grant(r Resource, a Action) {
	set, ok := g[r]
	if !ok {
		set = make(map[Action]struct{})
		g[r] = set
	}
	set[a] = struct{}{}
}

func (g Grants) revoke(r Resource, a Action) {
	set, ok := g[r]
	if !ok {
		return
	}
	delete(set, a)
	if len(set) == 0 {
		delete(g, r)
	}
}

func sortedActions(set map[Action]struct{}) []Action {
	out := make([]Action, 0, len(set))
	for a := range set {
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool { return actionRank[out[i]] < actionRank[out[j]] })
	return out
}
