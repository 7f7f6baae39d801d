package entity

// Role represents a user role in the system
type Role struct {
	ID          int    `gorm:"primaryKey;autoIncrement" json:"id"`
	RoleName    string `gorm:"type:varchar(50);uniqueIndex;not null" json:"role_name"`
	Description string `gorm:"type:text" json:"description,omitempty"`
}

func (Role) TableName() string {
	return "roles"
}

// Role ID constants, seeded by the initial migration
const (
	RoleIDAdmin   = 1
	RoleIDDoctor  = 2
	RoleIDPatient = 3
)

// RoleNames constants
const (
	RoleAdmin   = "admin"
	RoleDoctor  = "doctor"
	RolePatient = "patient"
)

var roleIDsByName = map[string]int{
	RoleAdmin:   RoleIDAdmin,
	RoleDoctor:  RoleIDDoctor,
	RolePatient: RoleIDPatient,
}

// RoleIDByName resolves a role name to its seeded ID.
func RoleIDByName(name string) (int, bool) {
	id, ok := roleIDsByName[name]
	return id, ok
}

// RoleNameByID is the inverse of RoleIDByName.
func RoleNameByID(id int) string {
	for name, roleID := range roleIDsByName {
		if roleID == id {
			return name
		}
	}
	return ""
}
