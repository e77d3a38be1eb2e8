// Package permissions is the single policy point for console actions.
// Allow never touches storage; callers load the user first.
package permissions

import (
	"fmt"

	"github.com/cppla/mediadesk/models"
)

// Action is a closed set of things a console user may attempt.
type Action int

const (
	Upload Action = iota + 1
	Delete
	CreateFolder
	ManageAdmins
	ViewMedia
	ViewAdmins
	UgcUpload
	UgcUpdate
	UgcDelete
)

var actionNames = map[Action]string{
	Upload:       "upload",
	Delete:       "delete",
	CreateFolder: "create-folder",
	ManageAdmins: "manage-admins",
	ViewMedia:    "view-media",
	ViewAdmins:   "view-admins",
	UgcUpload:    "ugc-upload",
	UgcUpdate:    "ugc-update",
	UgcDelete:    "ugc-delete",
}

// Actions lists every known action in declaration order.
func Actions() []Action {
	return []Action{Upload, Delete, CreateFolder, ManageAdmins, ViewMedia, ViewAdmins, UgcUpload, UgcUpdate, UgcDelete}
}

func (a Action) String() string {
	if n, ok := actionNames[a]; ok {
		return n
	}
	return fmt.Sprintf("action(%d)", int(a))
}

// ParseAction resolves a kebab-case action name.
func ParseAction(name string) (Action, error) {
	for a, n := range actionNames {
		if n == name {
			return a, nil
		}
	}
	return 0, fmt.Errorf("unknown action %q", name)
}

var roleRank = map[models.Role]int{
	models.RoleSuperAdmin:   3,
	models.RoleAdmin:        2,
	models.RoleMediaManager: 1,
}

// RoleAtLeast reports whether role ranks at or above minimum. Unknown roles rank lowest.
func RoleAtLeast(role, minimum models.Role) bool {
	need, ok := roleRank[minimum]
	if !ok {
		return false
	}
	return roleRank[role] >= need
}

// Allow decides whether user may perform action. Inactive users and
// unknown actions are always denied.
func Allow(user *models.User, action Action) bool {
	if !user.IsActive() {
		return false
	}
	acc := user.Access
	switch action {
	case Upload:
		return acc.CanUpload
	case Delete:
		return acc.CanDelete
	case CreateFolder:
		return acc.CanCreateFolder
	case ManageAdmins:
		return acc.CanManageAdmins && user.Role == models.RoleSuperAdmin
	case ViewMedia:
		return true
	case ViewAdmins:
		return user.Role == models.RoleSuperAdmin
	case UgcUpload:
		return acc.CanUploadUgc
	case UgcUpdate:
		return acc.CanModerateUgc
	case UgcDelete:
		return acc.CanDeleteUgc
	default:
		return false
	}
}
