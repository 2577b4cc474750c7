package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Role is the closed set of user kinds. Authorization switches over it.
type Role string

const (
	RoleAdminGlobal Role = "ADMIN_GLOBAL"
	RoleTenantAdmin Role = "TENANT_ADMIN"
	RoleBarber      Role = "BARBER"
)

func (r Role) Valid() bool {
	switch r {
	case RoleAdminGlobal, RoleTenantAdmin, RoleBarber:
		return true
	}
	return false
}

// Lifecycle replaces the active/deleted flag pair, so "deleted but active"
// cannot be represented.
type Lifecycle string

const (
	LifecycleActive   Lifecycle = "ACTIVE"
	LifecycleInactive Lifecycle = "INACTIVE"
	LifecycleDeleted  Lifecycle = "DELETED"
)

type User struct {
	ID       uuid.UUID  `gorm:"type:uuid;primary_key"`
	TenantID *uuid.UUID `gorm:"type:uuid;index"` // nil only for ADMIN_GLOBAL
	Email    string     `gorm:"uniqueIndex;not null"`
	Password string     `gorm:"not null" json:"-"`
	Name     string     `gorm:"not null"`
	Phone    string

	Role  Role      `gorm:"type:varchar(20);not null"`
	State Lifecycle `gorm:"type:varchar(20);not null;index"`

	LastLogin *time.Time

	CreatedAt time.Time
	UpdatedAt time.Time
}

// Passwords are hashed by the caller (utils.HashPassword) before insert.
func (u *User) BeforeCreate(tx *gorm.DB) (err error) {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	if u.State == "" {
		u.State = LifecycleActive
	}
	return
}

func (u *User) IsActive() bool { return u.State == LifecycleActive }

// BelongsTo reports whether the user is scoped to the given tenant.
func (u *User) BelongsTo(tenantID uuid.UUID) bool {
	return u.TenantID != nil && *u.TenantID == tenantID
}
