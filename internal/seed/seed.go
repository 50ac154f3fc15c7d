package seed

import (
	"context"
	"fmt"
	"time"

	"go-hospital/internal/patient"
	"go-hospital/internal/user"

	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// DefaultPassword is used for seeded accounts when none is configured.
const DefaultPassword = "1234"

type account struct {
	username string
	roles    []string
}

var (
	roles    = []string{user.RoleAdmin, user.RoleUser}
	accounts = []account{
		{username: "admin", roles: []string{user.RoleAdmin, user.RoleUser}},
		{username: "user2", roles: []string{user.RoleUser}},
	}
)

func samplePatients() []patient.Patient {
	d := func(y int, m time.Month, day int) datatypes.Date {
		return datatypes.Date(time.Date(y, m, day, 0, 0, 0, 0, time.UTC))
	}
	return []patient.Patient{
		{Name: "Alice", BirthDate: d(1990, time.March, 14), IsSick: false, Score: 12},
		{Name: "Bob", BirthDate: d(1985, time.July, 2), IsSick: true, Score: 40},
		{Name: "Charlie", BirthDate: d(2001, time.November, 23), IsSick: false, Score: 7},
	}
}

// Result reports what a run actually inserted.
type Result struct {
	Roles    int
	Users    int
	Patients int
}

// Run inserts the bootstrap roles, accounts and sample patients inside one
// transaction. Anything already present is left untouched, so running it
// twice is harmless.
func Run(ctx context.Context, db *gorm.DB, password string, log *zap.Logger) (Result, error) {
	if password == "" {
		password = DefaultPassword
	}
	var res Result
	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		users := user.NewStore(tx)

		for _, name := range roles {
			if _, err := users.FindRole(ctx, name); err == nil {
				continue
			}
			if _, err := users.SaveRole(ctx, name); err != nil {
				return err
			}
			res.Roles++
		}

		hash, err := user.HashPassword(password)
		if err != nil {
			return fmt.Errorf("hash seed password: %w", err)
		}
		for _, a := range accounts {
			if _, err := users.FindByUsername(ctx, a.username); err == nil {
				continue
			}
			u := &user.AppUser{Username: a.username, Password: hash, Enabled: true}
			if err := users.CreateUser(ctx, u, a.roles...); err != nil {
				return err
			}
			res.Users++
		}

		patients := patient.NewGormRepository(tx)
		n, err := patients.Count(ctx)
		if err != nil {
			return err
		}
		if n > 0 {
			return nil
		}
		for _, p := range samplePatients() {
			if err := patients.Save(ctx, &p); err != nil {
				return fmt.Errorf("seed patient %s: %w", p.Name, err)
			}
			res.Patients++
		}
		return nil
	})
	if err != nil {
		return Result{}, fmt.Errorf("seed: %w", err)
	}
	log.Info("Seed completed",
		zap.Int("roles", res.Roles),
		zap.Int("users", res.Users),
		zap.Int("patients", res.Patients))
	return res, nil
}
