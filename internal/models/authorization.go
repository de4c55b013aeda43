package models

// NavItem is one entry of the navigation menu shown to a user.
type NavItem struct {
	Resource Resource `json:"resource"`
	Label    string   `json:"label"`
	Path     string   `json:"path"`
}

var navigation = []NavItem{
	{Resource: ResourceDashboard, Label: "Tableau de bord", Path: "/dashboard"},
	{Resource: ResourcePlan, Label: "Plan de trésorerie", Path: "/plan"},
	{Resource: ResourceSaisie, Label: "Saisie", Path: "/saisie"},
	{Resource: ResourceImports, Label: "Imports", Path: "/imports"},
	{Resource: ResourceForecast, Label: "Prévisions", Path: "/forecast"},
	{Resource: ResourceVisualization, Label: "Visualisation", Path: "/visualization"},
	{Resource: ResourceReporting, Label: "Reporting", Path: "/reporting"},
	{Resource: ResourceUsers, Label: "Utilisateurs", Path: "/admin/users"},
	{Resource: ResourceProfiles, Label: "Profils", Path: "/admin/profiles"},
	{Resource: ResourceSettings, Label: "Paramètres", Path: "/settings"},
}

// Navigation returns the menu entries whose resource is viewable under the grants.
func Navigation(g Grants) []NavItem {
	out := make([]NavItem, 0, len(navigation))
	for _, item := range navigation {
		if g.Has(item.Resource, ActionView) {
			out = append(out, item)
		}
	}
	return out
}

// PermissionSummary is the resolved permission state of a user, consumed by the
// UI to decide which affordances to render.
type PermissionSummary struct {
	UserID         string                `json:"user_id"`
	ProfileID      string                `json:"profile_id"`
	ProfileName    string                `json:"profile_name,omitempty"`
	ProfileVersion int                   `json:"profile_version,omitempty"`
	Resolved       bool                  `json:"resolved"`
	Permissions    map[Resource][]Action `json:"permissions"`
	Resources      []Resource            `json:"resources"`
	IsAdmin        bool                  `json:"is_admin"`
	Navigation     []NavItem             `json:"navigation"`
}
