package user

const (
	RoleAdmin = "ADMIN"
	RoleUser  = "USER"
)

type AppRole struct {
	Name string `gorm:"primaryKey;size:32" json:"name"`
}

// AppUser is keyed by username; there is no surrogate id.
type AppUser struct {
	Username string    `gorm:"primaryKey;size:64" json:"username"`
	Password string    `gorm:"size:128;not null" json:"-"`
	Enabled  bool      `gorm:"not null" json:"enabled"`
	Roles    []AppRole `gorm:"many2many:app_user_roles;joinForeignKey:Username;joinReferences:RoleName" json:"roles"`
}

func (u *AppUser) HasRole(name string) bool {
	for _, r := range u.Roles {
		if r.Name == name {
			return true
		}
	}
	return false
}

func (u *AppUser) RoleNames() []string {
	names := make([]string, 0, len(u.Roles))
	for _, r := range u.Roles {
		names = append(names, r.Name)
	}
	return names
}
