package models

type Role string

const (
	RoleOwner          Role = "Owner"
	RoleAdmin          Role = "Admin"
	RoleManager        Role = "Manager"
	RoleContributor    Role = "Contributor"
	RoleExternalAgency Role = "External Agency"
	RoleViewer         Role = "Viewer"
)

// Roles lists every role in descending order of privilege.
var Roles = []Role{RoleOwner, RoleAdmin, RoleManager, RoleContributor, RoleExternalAgency, RoleViewer}

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	return r.In(Roles...)
}

// In reports whether r is any of roles.
func (r Role) In(roles ...Role) bool {
	for _, role := range roles {
		if r == role {
			return true
		}
	}
	return false
}

// Management roles may mutate shared catalog data.
var (
	ManagementRoles    = []Role{RoleOwner, RoleAdmin, RoleManager}
	AdministratorRoles = []Role{RoleOwner, RoleAdmin}
	AuthorRoles        = []Role{RoleOwner, RoleAdmin, RoleManager, RoleContributor}
)

type User struct {
	Base
	Email     string  `gorm:"type:varchar(255);uniqueIndex;not null" json:"email"`
	FullName  string  `gorm:"type:varchar(255)" json:"full_name"`
	AvatarURL *string `gorm:"type:varchar(1024)" json:"avatar_url"`
	Role      Role    `gorm:"type:varchar(32);not null;default:'Viewer'" json:"role"`
	IsActive  bool    `gorm:"not null;default:true" json:"is_active"`
}

// IsExternal reports whether the user is subject to row-level visibility.
func (u *User) IsExternal() bool {
	return u.Role == RoleExternalAgency
}
