package auth

import "github.com/mrlokans/booktrack/internal/entities"

// Named role sets used by the resource handlers.
var (
	// CatalogStaff may edit the catalog, see every reservation and read the system log.
	CatalogStaff = []entities.UserRole{entities.RoleLibraryAdmin, entities.RoleLibraryModerator}
	// Administrators may see every borrowing, manage accounts and open the admin dashboard.
	Administrators = []entities.UserRole{entities.RoleAdmin, entities.RoleLibraryAdmin}
	// TaskOperators may trigger maintenance tasks.
	TaskOperators = []entities.UserRole{entities.RoleLibraryAdmin}
)

// Can reports whether role is one of required.
func Can(role entities.UserRole, required ...entities.UserRole) bool {
	for _, r := range required {
		if role == r {
			return true
		}
	}
	return false
}
