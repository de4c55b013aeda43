package memory

import (
	"fmt"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/noah-isme/treasury-api/internal/models"
)

// Seed identifiers, stable across restarts.
const (
	SeedAdminProfileID   = "profile-admin"
	SeedAnalystProfileID = "profile-analyst"
	SeedManagerProfileID = "profile-manager"
	SeedViewerProfileID  = "profile-viewer"

	SeedAdminUserID   = "user-admin"
	SeedAnalystUserID = "user-analyst"
	SeedManagerUserID = "user-manager"
	SeedViewerUserID  = "user-viewer"
	SeedPlanID        = "plan-2024"

	// SeedPassword is the password of every seeded account.
	SeedPassword = "Treasury#2024"
)

func fullAccess() models.Permissions {
	perms := make(models.Permissions, 0, len(models.AllResources()))
	for _, r := range models.AllResources() {
		perms = perms.SetAll(r, true)
	}
	return perms
}

// DefaultProfiles returns the built-in profiles. Only the administrator profile
// is protected from deletion.
func DefaultProfiles() []models.Profile {
	return []models.Profile{
		{
			ID:          SeedAdminProfileID,
			Name:        "Administrateur",
			Description: "Accès complet à toutes les fonctionnalités",
			Permissions: fullAccess(),
			IsDefault:   true,
		},
		{
			ID:          SeedAnalystProfileID,
			Name:        "Analyste",
			Description: "Saisie et analyse du plan de trésorerie",
			Permissions: models.Permissions{
				{Resource: models.ResourceDashboard, Actions: []models.Action{models.ActionView}},
				{Resource: models.ResourcePlan, Actions: []models.Action{models.ActionView, models.ActionCreate, models.ActionEdit}},
				{Resource: models.ResourceSaisie, Actions: []models.Action{models.ActionView, models.ActionCreate, models.ActionEdit}},
				{Resource: models.ResourceImports, Actions: []models.Action{models.ActionView, models.ActionCreate}},
				{Resource: models.ResourceForecast, Actions: []models.Action{models.ActionView, models.ActionCreate}},
				{Resource: models.ResourceVisualization, Actions: []models.Action{models.ActionView}},
				{Resource: models.ResourceReporting, Actions: []models.Action{models.ActionView, models.ActionExport}},
			},
		},
		{
			ID:          SeedManagerProfileID,
			Name:        "Gestionnaire",
			Description: "Pilotage de la trésorerie et validation des saisies",
			Permissions: func() models.Permissions {
				perms := fullAccess()
				perms = perms.SetAll(models.ResourceUsers, false)
				perms = perms.SetAll(models.ResourceProfiles, false)
				perms = perms.SetAll(models.ResourceSettings, false)
				return perms.Set(models.ResourceSettings, models.ActionView, true)
			}(),
		},
		{
			ID:          SeedViewerProfileID,
			Name:        "Lecteur",
			Description: "Consultation des tableaux de bord et rapports",
			Permissions: models.Permissions{
				{Resource: models.ResourceDashboard, Actions: []models.Action{models.ActionView}},
				{Resource: models.ResourceVisualization, Actions: []models.Action{models.ActionView}},
				{Resource: models.ResourceReporting, Actions: []models.Action{models.ActionView}},
			},
		},
	}
}

func (st stores) seed(now time.Time) {
	for _, p := range DefaultProfiles() {
		p.Permissions = p.Permissions.Normalize()
		p.Version = 1
		p.CreatedAt, p.UpdatedAt = now, now
		st.profiles.rows.put(p.ID, p.Clone())
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(SeedPassword), bcrypt.DefaultCost)
	if err != nil {
		panic(fmt.Sprintf("seed password hash: %v", err))
	}
	users := []models.User{
		{ID: SeedAdminUserID, Name: "Kouadio Admin", Email: "admin@cie.ci", Role: models.RoleAdmin, ProfileID: SeedAdminProfileID, Department: "DSI"},
		{ID: SeedAnalystUserID, Name: "Awa Koné", Email: "a.kone@cie.ci", Role: models.RoleAnalyst, ProfileID: SeedAnalystProfileID, Department: "DAF"},
		{ID: SeedManagerUserID, Name: "Yao N'Guessan", Email: "y.nguessan@cie.ci", Role: models.RoleManager, ProfileID: SeedManagerProfileID, Department: "DAF"},
		{ID: SeedViewerUserID, Name: "Fatou Traoré", Email: "f.traore@cie.ci", Role: models.RoleViewer, ProfileID: SeedViewerProfileID, Department: "DG"},
	}
	for i, u := range users {
		u.PasswordHash = string(hash)
		u.Status = models.UserStatusActive
		u.CreatedAt = now.Add(time.Duration(i) * time.Second)
		u.UpdatedAt = u.CreatedAt
		st.users.rows.put(u.ID, u.Clone())
	}

	inflow, outflow := models.FlowInflow, models.FlowOutflow
	yearStart := time.Date(now.Year(), time.January, 1, 0, 0, 0, 0, time.UTC)
	yearEnd := yearStart.AddDate(1, 0, -1)
	parentSales := "cat-ventes"
	items := []models.ReferenceItem{
		{ID: SeedPlanID, Kind: models.ReferencePlan, Code: "PLAN-" + yearStart.Format("2006"), Name: "Plan de trésorerie " + yearStart.Format("2006"), StartsOn: &yearStart, EndsOn: &yearEnd},
		{ID: "cat-ventes", Kind: models.ReferenceCategory, Code: "ENC-VENTES", Name: "Encaissements clients", Direction: &inflow, SortOrder: 1},
		{ID: "cat-subventions", Kind: models.ReferenceCategory, Code: "ENC-SUBV", Name: "Subventions", Direction: &inflow, SortOrder: 2},
		{ID: "cat-salaires", Kind: models.ReferenceCategory, Code: "DEC-SALAIRES", Name: "Salaires et charges", Direction: &outflow, SortOrder: 3},
		{ID: "cat-fournisseurs", Kind: models.ReferenceCategory, Code: "DEC-FOURN", Name: "Fournisseurs", Direction: &outflow, SortOrder: 4},
		{ID: "rub-export", Kind: models.ReferenceRubrique, Code: "VENTES-EXPORT", Name: "Ventes export", ParentID: &parentSales, SortOrder: 1},
		{ID: "rub-local", Kind: models.ReferenceRubrique, Code: "VENTES-LOCAL", Name: "Ventes locales", ParentID: &parentSales, SortOrder: 2},
		{ID: "pole-dg", Kind: models.ReferencePole, Code: "DG", Name: "Direction générale", SortOrder: 1},
		{ID: "pole-daf", Kind: models.ReferencePole, Code: "DAF", Name: "Direction financière", SortOrder: 2},
	}
	for m := 0; m < 12; m++ {
		start := yearStart.AddDate(0, m, 0)
		end := start.AddDate(0, 1, -1)
		items = append(items, models.ReferenceItem{
			ID:        "period-" + start.Format("2006-01"),
			Kind:      models.ReferencePeriod,
			Code:      start.Format("2006-01"),
			Name:      start.Format("January 2006"),
			StartsOn:  &start,
			EndsOn:    &end,
			SortOrder: m + 1,
		})
	}
	for _, it := range items {
		it.Active = true
		it.CreatedAt, it.UpdatedAt = now, now
		st.reference.items.put(it.ID, it.Clone())
	}

	currencyDesc, fyDesc := "Devise de référence", "Début de l'exercice (MM-JJ)"
	st.reference.settings["currency"] = models.Setting{Key: "currency", Value: "XOF", Description: &currencyDesc, UpdatedAt: now}
	st.reference.settings["fiscal_year_start"] = models.Setting{Key: "fiscal_year_start", Value: "01-01", Description: &fyDesc, UpdatedAt: now}

	monthsSoFar := int(now.Month())
	for m := 0; m < monthsSoFar; m++ {
		day := yearStart.AddDate(0, m, 14)
		period := "period-" + day.Format("2006-01")
		entries := []models.CashFlowEntry{
			{CategoryID: "cat-ventes", RubriqueID: "rub-local", PoleID: "pole-daf", Direction: inflow, Amount: 42_000_000 + int64(m)*1_500_000, Description: "Encaissements clients du mois"},
			{CategoryID: "cat-ventes", RubriqueID: "rub-export", PoleID: "pole-dg", Direction: inflow, Amount: 18_000_000, Description: "Ventes export"},
			{CategoryID: "cat-salaires", PoleID: "pole-daf", Direction: outflow, Amount: 25_000_000, Description: "Paie mensuelle"},
			{CategoryID: "cat-fournisseurs", PoleID: "pole-daf", Direction: outflow, Amount: 21_000_000 + int64(m%3)*2_000_000, Description: "Règlements fournisseurs"},
		}
		for i, e := range entries {
			e.ID = fmt.Sprintf("entry-%s-%d", day.Format("2006-01"), i+1)
			e.PlanID = SeedPlanID
			e.PeriodID = period
			e.Currency = "XOF"
			e.Date = day
			e.Status = models.EntryStatusValidated
			e.CreatedBy = SeedAnalystUserID
			e.CreatedAt, e.UpdatedAt = now, now
			st.cashFlow.rows.put(e.ID, e)
		}
	}

	st.forecasts.scenarios.put("scenario-base", models.Scenario{
		ID:            "scenario-base",
		Name:          "Scénario de base",
		Description:   "Tendance historique sans croissance",
		PlanID:        SeedPlanID,
		CreatedBy:     SeedManagerUserID,
		CreatedAt:     now,
		UpdatedAt:     now,
		InflowGrowth:  0,
		OutflowGrowth: 0,
	})
	st.forecasts.scenarios.put("scenario-growth", models.Scenario{
		ID:            "scenario-growth",
		Name:          "Croissance modérée",
		Description:   "Encaissements +2 % par mois, décaissements +1 %",
		PlanID:        SeedPlanID,
		InflowGrowth:  0.02,
		OutflowGrowth: 0.01,
		OpeningCash:   150_000_000,
		CreatedBy:     SeedManagerUserID,
		CreatedAt:     now,
		UpdatedAt:     now,
	})
}
