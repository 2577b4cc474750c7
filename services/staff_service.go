package services

import (
	"context"
	"fmt"
	"strings"

	"barberpro-backend/models"
	"barberpro-backend/utils"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// StaffService manages the users of a tenant: barbers and tenant admins.
type StaffService struct {
	Deps
}

func NewStaffService(d Deps) *StaffService {
	return &StaffService{Deps: d.withDefaults()}
}

type StaffInput struct {
	Name     string
	Email    string
	Password string
	Phone    string
	Role     models.Role
}

func (s *StaffService) Create(ctx context.Context, tenantID uuid.UUID, in StaffInput) (*models.User, error) {
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))
	if in.Role == "" {
		in.Role = models.RoleBarber
	}
	switch {
	case strings.TrimSpace(in.Name) == "":
		return nil, invalid("name", "is required")
	case in.Email == "":
		return nil, invalid("email", "is required")
	case len(in.Password) < 8:
		return nil, invalid("password", "must be at least 8 characters")
	case in.Role != models.RoleBarber && in.Role != models.RoleTenantAdmin:
		return nil, invalid("role", "must be BARBER or TENANT_ADMIN")
	case in.Phone != "" && !utils.ValidatePhone(in.Phone):
		return nil, invalid("phone", "invalid phone number")
	}

	hash, err := utils.HashPassword(in.Password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}
	user := &models.User{
		TenantID: &tenantID,
		Email:    in.Email,
		Password: hash,
		Name:     strings.TrimSpace(in.Name),
		Phone:    utils.NormalizePhone(in.Phone),
		Role:     in.Role,
	}

	err = withTx(ctx, s.DB, func(tx *gorm.DB) error {
		var n int64
		if err := tx.Model(&models.User{}).Where("email = ?", in.Email).Count(&n).Error; err != nil {
			return fmt.Errorf("check email: %w", err)
		}
		if n > 0 {
			return &ConflictError{Message: "email already registered"}
		}
		if err := tx.Create(user).Error; err != nil {
			return translate(err, "user", "", "create staff")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return user, nil
}

// List returns non-deleted staff, optionally restricted to one role.
func (s *StaffService) List(ctx context.Context, tenantID uuid.UUID, role models.Role) ([]models.User, error) {
	q := s.DB.WithContext(ctx).
		Where("tenant_id = ? AND state <> ?", tenantID, models.LifecycleDeleted)
	if role != "" {
		q = q.Where("role = ?", role)
	}
	var users []models.User
	if err := q.Order("name ASC").Find(&users).Error; err != nil {
		return nil, fmt.Errorf("list staff: %w", err)
	}
	return users, nil
}

// ListBookable returns the active barbers shown on the public booking page.
func (s *StaffService) ListBookable(ctx context.Context, tenantID uuid.UUID) ([]models.User, error) {
	var users []models.User
	err := s.DB.WithContext(ctx).
		Where("tenant_id = ? AND role = ? AND state = ?", tenantID, models.RoleBarber, models.LifecycleActive).
		Order("name ASC").
		Find(&users).Error
	if err != nil {
		return nil, fmt.Errorf("list barbers: %w", err)
	}
	return users, nil
}

func (s *StaffService) Get(ctx context.Context, tenantID, userID uuid.UUID) (*models.User, error) {
	return staffOf(s.DB.WithContext(ctx), tenantID, userID)
}

func staffOf(db *gorm.DB, tenantID, userID uuid.UUID) (*models.User, error) {
	var u models.User
	err := db.Where("id = ? AND tenant_id = ? AND state <> ?", userID, tenantID, models.LifecycleDeleted).First(&u).Error
	if err != nil {
		return nil, translate(err, "staff", userID.String(), "get staff")
	}
	return &u, nil
}

type StaffUpdate struct {
	Name     *string
	Phone    *string
	Password *string
	State    *models.Lifecycle
}

func (s *StaffService) Update(ctx context.Context, tenantID, userID uuid.UUID, in StaffUpdate) (*models.User, error) {
	updates := map[string]interface{}{}
	if in.Name != nil {
		name := strings.TrimSpace(*in.Name)
		if name == "" {
			return nil, invalid("name", "cannot be empty")
		}
		updates["name"] = name
	}
	if in.Phone != nil {
		if *in.Phone != "" && !utils.ValidatePhone(*in.Phone) {
			return nil, invalid("phone", "invalid phone number")
		}
		updates["phone"] = utils.NormalizePhone(*in.Phone)
	}
	if in.Password != nil {
		if len(*in.Password) < 8 {
			return nil, invalid("password", "must be at least 8 characters")
		}
		hash, err := utils.HashPassword(*in.Password)
		if err != nil {
			return nil, fmt.Errorf("hash password: %w", err)
		}
		updates["password"] = hash
	}
	if in.State != nil {
		if *in.State != models.LifecycleActive && *in.State != models.LifecycleInactive {
			return nil, invalid("state", "must be ACTIVE or INACTIVE")
		}
		updates["state"] = *in.State
	}

	var user *models.User
	err := withTx(ctx, s.DB, func(tx *gorm.DB) error {
		u, err := staffOf(tx, tenantID, userID)
		if err != nil {
			return err
		}
		if len(updates) > 0 {
			if err := tx.Model(u).Updates(updates).Error; err != nil {
				return fmt.Errorf("update staff: %w", err)
			}
		}
		user = u
		return nil
	})
	if err != nil {
		return nil, err
	}
	return user, nil
}

// Delete marks the user DELETED. Appointments and movements keep their
// reference, so rows are never removed.
func (s *StaffService) Delete(ctx context.Context, tenantID, userID uuid.UUID) error {
	return withTx(ctx, s.DB, func(tx *gorm.DB) error {
		u, err := staffOf(tx, tenantID, userID)
		if err != nil {
			return err
		}
		if err := tx.Model(u).Update("state", models.LifecycleDeleted).Error; err != nil {
			return fmt.Errorf("delete staff: %w", err)
		}
		return nil
	})
}
