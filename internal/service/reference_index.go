package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/noah-isme/treasury-api/internal/models"
	appErrors "github.com/noah-isme/treasury-api/pkg/errors"
)

type referenceLister interface {
	List(ctx context.Context, filter models.ReferenceFilter) ([]models.ReferenceItem, error)
}

// referenceIndex is a snapshot of the reference data used to check cash-flow
// entries, loaded once per operation.
type referenceIndex struct {
	byID    map[string]models.ReferenceItem
	byCode  map[models.ReferenceKind]map[string]models.ReferenceItem
	periods []models.ReferenceItem
}

func loadReferenceIndex(ctx context.Context, store referenceLister) (*referenceIndex, error) {
	items, err := store.List(ctx, models.ReferenceFilter{})
	if err != nil {
		return nil, appErrors.Internal(err, "failed to load reference data")
	}
	ix := &referenceIndex{
		byID:   make(map[string]models.ReferenceItem, len(items)),
		byCode: make(map[models.ReferenceKind]map[string]models.ReferenceItem),
	}
	for _, it := range items {
		ix.byID[it.ID] = it
		if ix.byCode[it.Kind] == nil {
			ix.byCode[it.Kind] = make(map[string]models.ReferenceItem)
		}
		ix.byCode[it.Kind][strings.ToUpper(it.Code)] = it
		if it.Kind == models.ReferencePeriod {
			ix.periods = append(ix.periods, it)
		}
	}
	return ix, nil
}

func (ix *referenceIndex) item(kind models.ReferenceKind, id string) (models.ReferenceItem, bool) {
	it, ok := ix.byID[id]
	if !ok || it.Kind != kind {
		return models.ReferenceItem{}, false
	}
	return it, true
}

func (ix *referenceIndex) code(kind models.ReferenceKind, code string) (models.ReferenceItem, bool) {
	it, ok := ix.byCode[kind][strings.ToUpper(strings.TrimSpace(code))]
	return it, ok
}

func (ix *referenceIndex) periodFor(date time.Time) (models.ReferenceItem, bool) {
	for _, p := range ix.periods {
		if covers(p, date) {
			return p, true
		}
	}
	return models.ReferenceItem{}, false
}

func covers(it models.ReferenceItem, date time.Time) bool {
	if it.StartsOn != nil && date.Before(*it.StartsOn) {
		return false
	}
	if it.EndsOn != nil && !date.Before(it.EndsOn.AddDate(0, 0, 1)) {
		return false
	}
	return true
}

// check validates the references of an entry and fills its period from the
// entry date when none is given.
func (ix *referenceIndex) check(e *models.CashFlowEntry) error {
	plan, ok := ix.item(models.ReferencePlan, e.PlanID)
	if !ok {
		return appErrors.Clone(appErrors.ErrValidation, "unknown plan "+e.PlanID)
	}
	if !covers(plan, e.Date) {
		return appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("date %s is outside plan %s", e.Date.Format("2006-01-02"), plan.Code))
	}

	category, ok := ix.item(models.ReferenceCategory, e.CategoryID)
	if !ok || !category.Active {
		return appErrors.Clone(appErrors.ErrValidation, "unknown category "+e.CategoryID)
	}
	if category.Direction != nil && *category.Direction != e.Direction {
		return appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("category %s only accepts %s movements", category.Code, *category.Direction))
	}
	if e.RubriqueID != "" {
		rubrique, ok := ix.item(models.ReferenceRubrique, e.RubriqueID)
		if !ok || rubrique.ParentID == nil || *rubrique.ParentID != category.ID {
			return appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("rubrique %s does not belong to category %s", e.RubriqueID, category.Code))
		}
	}
	if e.PoleID != "" {
		if _, ok := ix.item(models.ReferencePole, e.PoleID); !ok {
			return appErrors.Clone(appErrors.ErrValidation, "unknown pole "+e.PoleID)
		}
	}

	var period models.ReferenceItem
	if e.PeriodID != "" {
		period, ok = ix.item(models.ReferencePeriod, e.PeriodID)
		if !ok {
			return appErrors.Clone(appErrors.ErrValidation, "unknown period "+e.PeriodID)
		}
	} else if period, ok = ix.periodFor(e.Date); ok {
		e.PeriodID = period.ID
	}
	if ok && period.Closed {
		return appErrors.Clone(appErrors.ErrBusinessRule, "period "+period.Code+" is closed")
	}
	return nil
}
