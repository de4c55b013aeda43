package repository

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/treasury-api/internal/models"
)

var profileRowColumns = []string{"id", "name", "description", "is_default", "version", "created_at", "updated_at"}

func TestProfileFindByIDAssemblesPermissions(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewProfileRepository(db)

	now := time.Now()
	mock.ExpectQuery(regexp.QuoteMeta("FROM profiles WHERE id = $1")).
		WithArgs("profile-analyst").
		WillReturnRows(sqlmock.NewRows(profileRowColumns).AddRow("profile-analyst", "Analyste", "", false, 3, now, now))
	mock.ExpectQuery(regexp.QuoteMeta("FROM profile_permissions WHERE profile_id = $1")).
		WithArgs("profile-analyst").
		WillReturnRows(sqlmock.NewRows([]string{"profile_id", "resource", "action"}).
			AddRow("profile-analyst", "plan", "edit").
			AddRow("profile-analyst", "plan", "view").
			AddRow("profile-analyst", "plan", "create").
			AddRow("profile-analyst", "legacy", "view"))

	p, err := repo.FindByID(context.Background(), "profile-analyst")
	require.NoError(t, err)
	require.NotNil(t, p)
	assert.Equal(t, 3, p.Version)
	assert.Equal(t, models.Permissions{{Resource: models.ResourcePlan, Actions: []models.Action{models.ActionView, models.ActionCreate, models.ActionEdit}}}, p.Permissions)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestProfileUpdateStaleVersion(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewProfileRepository(db)

	mock.ExpectBegin()
	mock.ExpectQuery("UPDATE profiles SET name").WillReturnError(sql.ErrNoRows)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT EXISTS(SELECT 1 FROM profiles WHERE id = $1)")).
		WithArgs("p1").
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))
	mock.ExpectRollback()

	_, err := repo.Update(context.Background(), &models.Profile{ID: "p1", Name: "X"}, 1)
	assert.ErrorIs(t, err, ErrVersionConflict)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestProfileUpdateRewritesPermissions(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewProfileRepository(db)

	now := time.Now()
	mock.ExpectBegin()
	mock.ExpectQuery("UPDATE profiles SET name").
		WillReturnRows(sqlmock.NewRows(profileRowColumns).AddRow("p1", "X", "", false, 2, now, now))
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM profile_permissions WHERE profile_id = $1")).
		WithArgs("p1").
		WillReturnResult(sqlmock.NewResult(0, 3))
	mock.ExpectExec("INSERT INTO profile_permissions").WithArgs("p1", models.ResourceUsers, models.ActionView).WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	perms := models.Permissions{}.Set(models.ResourceUsers, models.ActionView, true)
	p, err := repo.Update(context.Background(), &models.Profile{ID: "p1", Name: "X", Permissions: perms}, 1)
	require.NoError(t, err)
	assert.Equal(t, 2, p.Version)
	assert.Equal(t, perms, p.Permissions)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestProfileDeleteDefaultIsProtected(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewProfileRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT is_default FROM profiles WHERE id = $1")).
		WithArgs("profile-admin").
		WillReturnRows(sqlmock.NewRows([]string{"is_default"}).AddRow(true))

	err := repo.Delete(context.Background(), "profile-admin")
	assert.ErrorIs(t, err, ErrProtected)
	assert.NoError(t, mock.ExpectationsWereMet())
}
