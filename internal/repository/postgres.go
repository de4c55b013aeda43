package repository

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

// NewPostgresStore wires every aggregate store to the PostgreSQL database.
func NewPostgresStore(db *sqlx.DB) *Store {
	cashFlow := NewCashFlowRepository(db)
	aggregates := NewAggregateRepository(db)
	return &Store{
		Users:     NewUserRepository(db),
		Profiles:  NewProfileRepository(db),
		Tokens:    NewTokenRepository(db),
		Audit:     NewAuditRepository(db),
		Reference: NewReferenceRepository(db),
		CashFlow:  cashFlow,
		Imports:   NewImportRepository(db),
		Forecasts: NewForecastRepository(db),
		Dashboard: aggregates,
		Reports:   aggregates,
	}
}

// translate maps driver errors onto the repository sentinels.
func translate(err error, op string) error {
	if err == nil {
		return nil
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		switch pqErr.Code {
		case "23505":
			return fmt.Errorf("%s: %w", op, ErrConflict)
		case "23503":
			return fmt.Errorf("%s: %w", op, ErrInUse)
		}
	}
	return fmt.Errorf("%s: %w", op, err)
}

// requireAffected turns a zero-row mutation into ErrNotFound.
func requireAffected(res sql.Result, op string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if n == 0 {
		return fmt.Errorf("%s: %w", op, ErrNotFound)
	}
	return nil
}

// conditions accumulates positional WHERE clauses.
type conditions struct {
	clauses []string
	args    []interface{}
}

func (c *conditions) add(clause string, arg interface{}) {
	c.args = append(c.args, arg)
	c.clauses = append(c.clauses, strings.ReplaceAll(clause, "?", fmt.Sprintf("$%d", len(c.args))))
}

func (c *conditions) where() string {
	if len(c.clauses) == 0 {
		return "WHERE 1=1"
	}
	return "WHERE " + strings.Join(c.clauses, " AND ")
}
