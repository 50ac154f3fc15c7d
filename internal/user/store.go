package user

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var (
	ErrUserNotFound = errors.New("user not found")
	ErrUserExists   = errors.New("user already exists")
	ErrRoleNotFound = errors.New("role not found")
)

// Store is the identity store for users and roles.
type Store struct {
	db *gorm.DB
}

func NewStore(db *gorm.DB) *Store {
	return &Store{db: db}
}

// FindByUsername loads a user together with its roles.
func (s *Store) FindByUsername(ctx context.Context, username string) (*AppUser, error) {
	var u AppUser
	err := s.db.WithContext(ctx).Preload("Roles").Where("username = ?", username).First(&u).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("find user %q: %w", username, err)
	}
	return &u, nil
}

// CreateUser inserts a new user and links the named roles, which must
// already exist.
func (s *Store) CreateUser(ctx context.Context, u *AppUser, roleNames ...string) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&AppUser{}).Where("username = ?", u.Username).Count(&count).Error; err != nil {
			return fmt.Errorf("check user %q: %w", u.Username, err)
		}
		if count > 0 {
			return ErrUserExists
		}
		roles, err := findRoles(tx, roleNames)
		if err != nil {
			return err
		}
		if err := tx.Omit(clause.Associations).Create(u).Error; err != nil {
			return fmt.Errorf("create user %q: %w", u.Username, err)
		}
		if len(roles) > 0 {
			if err := tx.Model(u).Association("Roles").Append(roles); err != nil {
				return fmt.Errorf("assign roles to %q: %w", u.Username, err)
			}
		}
		u.Roles = roles
		return nil
	})
}

func findRoles(tx *gorm.DB, names []string) ([]AppRole, error) {
	roles := make([]AppRole, 0, len(names))
	for _, name := range names {
		var r AppRole
		if err := tx.Where("name = ?", name).First(&r).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, fmt.Errorf("%w: %s", ErrRoleNotFound, name)
			}
			return nil, fmt.Errorf("find role %q: %w", name, err)
		}
		roles = append(roles, r)
	}
	return roles, nil
}

// SaveRole creates the role when missing.
func (s *Store) SaveRole(ctx context.Context, name string) (*AppRole, error) {
	r := AppRole{Name: name}
	if err := s.db.WithContext(ctx).Where(AppRole{Name: name}).FirstOrCreate(&r).Error; err != nil {
		return nil, fmt.Errorf("save role %q: %w", name, err)
	}
	return &r, nil
}

func (s *Store) FindRole(ctx context.Context, name string) (*AppRole, error) {
	var r AppRole
	if err := s.db.WithContext(ctx).Where("name = ?", name).First(&r).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrRoleNotFound
		}
		return nil, fmt.Errorf("find role %q: %w", name, err)
	}
	return &r, nil
}

func (s *Store) ListRoles(ctx context.Context) ([]AppRole, error) {
	var roles []AppRole
	if err := s.db.WithContext(ctx).Order("name ASC").Find(&roles).Error; err != nil {
		return nil, fmt.Errorf("list roles: %w", err)
	}
	return roles, nil
}

func (s *Store) ListUsers(ctx context.Context) ([]AppUser, error) {
	var users []AppUser
	if err := s.db.WithContext(ctx).Preload("Roles").Order("username ASC").Find(&users).Error; err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	return users, nil
}

func (s *Store) CountUsers(ctx context.Context) (int64, error) {
	var n int64
	if err := s.db.WithContext(ctx).Model(&AppUser{}).Count(&n).Error; err != nil {
		return 0, fmt.Errorf("count users: %w", err)
	}
	return n, nil
}

// AddRoleToUser links an existing role to an existing user. Linking a role
// the user already has is a no-op.
func (s *Store) AddRoleToUser(ctx context.Context, username, roleName string) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		u, role, err := loadUserAndRole(tx, username, roleName)
		if err != nil {
			return err
		}
		if u.HasRole(role.Name) {
			return nil
		}
		if err := tx.Model(u).Association("Roles").Append(role); err != nil {
			return fmt.Errorf("add role %q to %q: %w", roleName, username, err)
		}
		return nil
	})
}

func (s *Store) RemoveRoleFromUser(ctx context.Context, username, roleName string) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		u, role, err := loadUserAndRole(tx, username, roleName)
		if err != nil {
			return err
		}
		if err := tx.Model(u).Association("Roles").Delete(role); err != nil {
			return fmt.Errorf("remove role %q from %q: %w", roleName, username, err)
		}
		return nil
	})
}

func loadUserAndRole(tx *gorm.DB, username, roleName string) (*AppUser, *AppRole, error) {
	var u AppUser
	if err := tx.Preload("Roles").Where("username = ?", username).First(&u).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, ErrUserNotFound
		}
		return nil, nil, fmt.Errorf("find user %q: %w", username, err)
	}
	var r AppRole
	if err := tx.Where("name = ?", roleName).First(&r).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, fmt.Errorf("%w: %s", ErrRoleNotFound, roleName)
		}
		return nil, nil, fmt.Errorf("find role %q: %w", roleName, err)
	}
	return &u, &r, nil
}

func (s *Store) SetEnabled(ctx context.Context, username string, enabled bool) error {
	return s.updateColumn(ctx, username, "enabled", enabled)
}

// SetPassword stores an already hashed password.
func (s *Store) SetPassword(ctx context.Context, username, hash string) error {
	return s.updateColumn(ctx, username, "password", hash)
}

func (s *Store) updateColumn(ctx context.Context, username, column string, value any) error {
	res := s.db.WithContext(ctx).Model(&AppUser{}).Where("username = ?", username).Update(column, value)
	if res.Error != nil {
		return fmt.Errorf("update %s for %q: %w", column, username, res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrUserNotFound
	}
	return nil
}
