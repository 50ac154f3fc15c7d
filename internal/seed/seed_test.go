package seed

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"go-hospital/internal/db"
	"go-hospital/internal/patient"
	"go-hospital/internal/user"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
	"gorm.io/gorm"
)

func setupSeedDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	conn, err := db.Open("sqlite", dsn, zap.NewNop())
	require.NoError(t, err)
	require.NoError(t, db.Migrate(conn))
	t.Cleanup(func() {
		if sqlDB, err := conn.DB(); err == nil {
			sqlDB.Close()
		}
	})
	return conn
}

func TestRun_SeedsEverything(t *testing.T) {
	conn := setupSeedDB(t)
	core, logs := observer.New(zap.InfoLevel)
	ctx := context.Background()

	res, err := Run(ctx, conn, "", zap.New(core))
	require.NoError(t, err)
	assert.Equal(t, Result{Roles: 2, Users: 2, Patients: 3}, res)
	assert.Equal(t, 1, logs.FilterMessage("Seed completed").Len())

	page, err := patient.NewGormRepository(conn).FindPage(ctx, 0, 10)
	require.NoError(t, err)
	var names []string
	for _, p := range page.Content {
		names = append(names, p.Name)
	}
	assert.Equal(t, []string{"Alice", "Bob", "Charlie"}, names)

	store := user.NewStore(conn)
	admin, err := store.FindByUsername(ctx, "admin")
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{user.RoleAdmin, user.RoleUser}, admin.RoleNames())
	assert.NoError(t, user.CheckPassword(admin.Password, DefaultPassword))

	user2, err := store.FindByUsername(ctx, "user2")
	require.NoError(t, err)
	assert.Equal(t, []string{user.RoleUser}, user2.RoleNames())
	assert.True(t, user2.Enabled)
}

func TestRun_Idempotent(t *testing.T) {
	conn := setupSeedDB(t)
	ctx := context.Background()

	_, err := Run(ctx, conn, "secret", zap.NewNop())
	require.NoError(t, err)
	res, err := Run(ctx, conn, "other", zap.NewNop())
	require.NoError(t, err)
	assert.Equal(t, Result{}, res)

	n, err := patient.NewGormRepository(conn).Count(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 3, n)
	users, err := user.NewStore(conn).CountUsers(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 2, users)

	admin, err := user.NewStore(conn).FindByUsername(ctx, "admin")
	require.NoError(t, err)
	assert.NoError(t, user.CheckPassword(admin.Password, "secret"), "existing accounts keep their password")
}

func TestRun_KeepsExistingPatients(t *testing.T) {
	conn := setupSeedDB(t)
	ctx := context.Background()
	repo := patient.NewGormRepository(conn)
	require.NoError(t, repo.Save(ctx, &patient.Patient{Name: "Zelda", Score: 1}))

	res, err := Run(ctx, conn, "", zap.NewNop())
	require.NoError(t, err)
	assert.Zero(t, res.Patients)

	n, err := repo.Count(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)
}
