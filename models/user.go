package models

import (
	"strings"
	"time"
)

// Role ranks console users. Higher tiers include the visibility of lower ones.
type Role string

const (
	RoleSuperAdmin   Role = "SUPER_ADMIN"
	RoleAdmin        Role = "ADMIN"
	RoleMediaManager Role = "MEDIA_MANAGER"
)

// UserStatus toggles whether a roster entry may act at all.
type UserStatus string

const (
	StatusActive   UserStatus = "ACTIVE"
	StatusInactive UserStatus = "INACTIVE"
)

// Valid reports whether r is one of the three known tiers.
func (r Role) Valid() bool {
	switch r {
	case RoleSuperAdmin, RoleAdmin, RoleMediaManager:
		return true
	}
	return false
}

// Valid reports whether s is a known status.
func (s UserStatus) Valid() bool {
	return s == StatusActive || s == StatusInactive
}

// Access is the fine-grained capability set stored on every roster entry.
// The UGC flags are independent of the media flags.
type Access struct {
	CanUpload       bool `json:"canUpload" bson:"canUpload"`
	CanDelete       bool `json:"canDelete" bson:"canDelete"`
	CanCreateFolder bool `json:"canCreateFolder" bson:"canCreateFolder"`
	CanManageAdmins bool `json:"canManageAdmins" bson:"canManageAdmins"`
	CanUploadUgc    bool `json:"canUploadUgc" bson:"canUploadUgc"`
	CanModerateUgc  bool `json:"canModerateUgc" bson:"canModerateUgc"`
	CanDeleteUgc    bool `json:"canDeleteUgc" bson:"canDeleteUgc"`
}

// FullAccess grants every capability. Used by the bootstrap command.
func FullAccess() Access {
	return Access{
		CanUpload:       true,
		CanDelete:       true,
		CanCreateFolder: true,
		CanManageAdmins: true,
		CanUploadUgc:    true,
		CanModerateUgc:  true,
		CanDeleteUgc:    true,
	}
}

// User is a roster entry. UID is the identity provider's stable subject.
type User struct {
	UID       string     `gorm:"column:uid;primaryKey;size:128" bson:"_id" json:"uid"`
	Email     string     `gorm:"size:255" bson:"email" json:"email"`
	Role      Role       `gorm:"size:32;index" bson:"role" json:"role"`
	Status    UserStatus `gorm:"size:16" bson:"status" json:"status"`
	Access    Access     `gorm:"embedded;embeddedPrefix:access_" bson:"access" json:"access"`
	CreatedAt int64      `gorm:"autoCreateTime:false" bson:"createdAt" json:"createdAt"`
}

// TableName keeps the SQL table aligned with the document collection name.
func (User) TableName() string { return "users_roster" }

// IsActive reports whether the account may act.
func (u *User) IsActive() bool {
	return u != nil && u.Status == StatusActive
}

// WithDefaults fills fields that older roster documents may lack.
func (u User) WithDefaults() User {
	if u.Role == "" {
		u.Role = RoleMediaManager
	}
	if u.Status == "" {
		u.Status = StatusActive
	}
	if u.CreatedAt == 0 {
		u.CreatedAt = time.Now().UnixMilli()
	}
	return u
}

// PublicUser is the projection handed to clients for UI state.
type PublicUser struct {
	UID    string `json:"uid"`
	Email  string `json:"email"`
	Role   Role   `json:"role"`
	Access Access `json:"access"`
}

// Public returns the reduced client-side view of u.
func (u *User) Public() PublicUser {
	return PublicUser{UID: u.UID, Email: u.Email, Role: u.Role, Access: u.Access}
}

// AccessPatch carries only the flags present in an update request.
type AccessPatch struct {
	CanUpload       *bool `json:"canUpload"`
	CanDelete       *bool `json:"canDelete"`
	CanCreateFolder *bool `json:"canCreateFolder"`
	CanManageAdmins *bool `json:"canManageAdmins"`
	CanUploadUgc    *bool `json:"canUploadUgc"`
	CanModerateUgc  *bool `json:"canModerateUgc"`
	CanDeleteUgc    *bool `json:"canDeleteUgc"`
}

// Empty reports whether no flag is present.
func (p *AccessPatch) Empty() bool {
	return p == nil || (p.CanUpload == nil && p.CanDelete == nil && p.CanCreateFolder == nil &&
		p.CanManageAdmins == nil && p.CanUploadUgc == nil && p.CanModerateUgc == nil && p.CanDeleteUgc == nil)
}

// Apply merges the present flags into a.
func (p *AccessPatch) Apply(a Access) Access {
	if p == nil {
		return a
	}
	set := func(dst *bool, src *bool) {
		if src != nil {
			*dst = *src
		}
	}
	set(&a.CanUpload, p.CanUpload)
	set(&a.CanDelete, p.CanDelete)
	set(&a.CanCreateFolder, p.CanCreateFolder)
	set(&a.CanManageAdmins, p.CanManageAdmins)
	set(&a.CanUploadUgc, p.CanUploadUgc)
	set(&a.CanModerateUgc, p.CanModerateUgc)
	set(&a.CanDeleteUgc, p.CanDeleteUgc)
	return a
}

// Fields returns the storage field names and values of the present flags,
// keyed as "access.<flag>".
func (p *AccessPatch) Fields() map[string]bool {
	out := map[string]bool{}
	if p == nil {
		return out
	}
	add := func(name string, v *bool) {
		if v != nil {
			out["access."+name] = *v
		}
	}
	add("canUpload", p.CanUpload)
	add("canDelete", p.CanDelete)
	add("canCreateFolder", p.CanCreateFolder)
	add("canManageAdmins", p.CanManageAdmins)
	add("canUploadUgc", p.CanUploadUgc)
	add("canModerateUgc", p.CanModerateUgc)
	add("canDeleteUgc", p.CanDeleteUgc)
	return out
}

// UserPatch is a validated roster update. Nil fields are left untouched.
type UserPatch struct {
	Role   *Role
	Status *UserStatus
	Access *AccessPatch
}

// Empty reports whether the patch changes nothing.
func (p UserPatch) Empty() bool {
	return p.Role == nil && p.Status == nil && p.Access.Empty()
}

// Apply returns u with the patch applied.
func (p UserPatch) Apply(u User) User {
	if p.Role != nil {
		u.Role = *p.Role
	}
	if p.Status != nil {
		u.Status = *p.Status
	}
	u.Access = p.Access.Apply(u.Access)
	return u
}

// SQLColumn converts an "access.canUpload" style field into its gorm column.
func SQLColumn(field string) string {
	if rest, ok := strings.CutPrefix(field, "access."); ok {
		return "access_" + toSnake(rest)
	}
	return toSnake(field)
}

func toSnake(s string) string {
	var b strings.Builder
	for i, r := range s {
		if r >= 'A' && r <= 'Z' {
			if i > 0 {
				b.WriteByte('_')
			}
			b.WriteRune(r + ('a' - 'A'))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}
