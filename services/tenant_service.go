package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"barberpro-backend/models"
	"barberpro-backend/utils"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const defaultReminderMessage = "Hi [ClientName], this is a reminder of your [Service] at [Shop] tomorrow at [Time]. See you soon!"

type TenantService struct {
	Deps
}

func NewTenantService(d Deps) *TenantService {
	return &TenantService{Deps: d.withDefaults()}
}

type CreateTenantInput struct {
	Name          string
	Slug          string
	AdminName     string
	AdminEmail    string
	AdminPassword string
}

// Create registers a tenant together with its first TENANT_ADMIN and a
// default reminder template.
func (s *TenantService) Create(ctx context.Context, in CreateTenantInput) (*models.Tenant, *models.User, error) {
	in.Slug = strings.ToLower(strings.TrimSpace(in.Slug))
	in.AdminEmail = strings.ToLower(strings.TrimSpace(in.AdminEmail))
	switch {
	case strings.TrimSpace(in.Name) == "":
		return nil, nil, invalid("name", "is required")
	case !utils.ValidateSlug(in.Slug):
		return nil, nil, invalid("slug", "must be lowercase letters, digits and dashes")
	case in.AdminEmail == "":
		return nil, nil, invalid("adminEmail", "is required")
	case len(in.AdminPassword) < 8:
		return nil, nil, invalid("adminPassword", "must be at least 8 characters")
	}

	hash, err := utils.HashPassword(in.AdminPassword)
	if err != nil {
		return nil, nil, fmt.Errorf("hash password: %w", err)
	}

	tenant := &models.Tenant{Name: strings.TrimSpace(in.Name), Slug: in.Slug, Active: true}
	admin := &models.User{
		Email:    in.AdminEmail,
		Password: hash,
		Name:     strings.TrimSpace(in.AdminName),
		Role:     models.RoleTenantAdmin,
	}
	if admin.Name == "" {
		admin.Name = tenant.Name
	}

	err = withTx(ctx, s.DB, func(tx *gorm.DB) error {
		var n int64
		if err := tx.Model(&models.Tenant{}).Where("slug = ?", in.Slug).Count(&n).Error; err != nil {
			return fmt.Errorf("check slug: %w", err)
		}
		if n > 0 {
			return &ConflictError{Message: "slug already exists"}
		}
		if err := tx.Model(&models.User{}).Where("email = ?", in.AdminEmail).Count(&n).Error; err != nil {
			return fmt.Errorf("check email: %w", err)
		}
		if n > 0 {
			return &ConflictError{Message: "email already registered"}
		}

		if err := tx.Create(tenant).Error; err != nil {
			return translate(err, "tenant", "", "create tenant")
		}
		admin.TenantID = &tenant.ID
		if err := tx.Create(admin).Error; err != nil {
			return translate(err, "user", "", "create tenant admin")
		}
		return createDefaultReminderTemplate(tx, tenant.ID)
	})
	if err != nil {
		return nil, nil, err
	}

	s.Logger.Info("tenant created", "tenant_id", tenant.ID, "slug", tenant.Slug)
	return tenant, admin, nil
}

func createDefaultReminderTemplate(tx *gorm.DB, tenantID uuid.UUID) error {
	tpl := models.ReminderTemplate{TenantID: tenantID, Message: defaultReminderMessage, Active: true}
	if err := tx.Create(&tpl).Error; err != nil {
		return fmt.Errorf("create reminder template: %w", err)
	}
	return nil
}

func (s *TenantService) List(ctx context.Context) ([]models.Tenant, error) {
	var tenants []models.Tenant
	if err := s.DB.WithContext(ctx).Order("created_at DESC").Find(&tenants).Error; err != nil {
		return nil, fmt.Errorf("list tenants: %w", err)
	}
	return tenants, nil
}

func (s *TenantService) Get(ctx context.Context, tenantID uuid.UUID) (*models.Tenant, error) {
	var t models.Tenant
	if err := s.DB.WithContext(ctx).First(&t, "id = ?", tenantID).Error; err != nil {
		return nil, translate(err, "tenant", tenantID.String(), "get tenant")
	}
	return &t, nil
}

// GetActiveBySlug resolves the public booking page. Inactive tenants are
// reported as not found.
func (s *TenantService) GetActiveBySlug(ctx context.Context, slug string) (*models.Tenant, error) {
	return activeTenantBySlug(s.DB.WithContext(ctx), slug)
}

func activeTenantBySlug(db *gorm.DB, slug string) (*models.Tenant, error) {
	var t models.Tenant
	err := db.Where("slug = ? AND active = ?", strings.ToLower(slug), true).First(&t).Error
	if err != nil {
		return nil, translate(err, "tenant", slug, "get tenant by slug")
	}
	return &t, nil
}

func (s *TenantService) SetActive(ctx context.Context, tenantID uuid.UUID, active bool) (*models.Tenant, error) {
	var t models.Tenant
	err := withTx(ctx, s.DB, func(tx *gorm.DB) error {
		if err := tx.First(&t, "id = ?", tenantID).Error; err != nil {
			return translate(err, "tenant", tenantID.String(), "get tenant")
		}
		t.Active = active
		if err := tx.Model(&t).Update("active", active).Error; err != nil {
			return fmt.Errorf("update tenant: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &t, nil
}

type TenantProfileInput struct {
	Name         *string
	Description  *string
	WhatsApp     *string
	Address      *string
	OpeningHours *string
}

func (s *TenantService) UpdateProfile(ctx context.Context, tenantID uuid.UUID, in TenantProfileInput) (*models.Tenant, error) {
	updates := map[string]interface{}{}
	if in.Name != nil {
		name := strings.TrimSpace(*in.Name)
		if name == "" {
			return nil, invalid("name", "cannot be empty")
		}
		updates["name"] = name
	}
	if in.Description != nil {
		updates["description"] = *in.Description
	}
	if in.WhatsApp != nil {
		if *in.WhatsApp != "" && !utils.ValidatePhone(*in.WhatsApp) {
			return nil, invalid("whatsApp", "invalid phone number")
		}
		updates["whats_app"] = utils.NormalizePhone(*in.WhatsApp)
	}
	if in.Address != nil {
		updates["address"] = *in.Address
	}
	if in.OpeningHours != nil {
		updates["opening_hours"] = *in.OpeningHours
	}

	var t models.Tenant
	err := withTx(ctx, s.DB, func(tx *gorm.DB) error {
		if err := tx.First(&t, "id = ?", tenantID).Error; err != nil {
			return translate(err, "tenant", tenantID.String(), "get tenant")
		}
		if len(updates) == 0 {
			return nil
		}
		if err := tx.Model(&t).Updates(updates).Error; err != nil {
			return fmt.Errorf("update tenant profile: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// Delete removes the tenant and everything it owns in one transaction.
func (s *TenantService) Delete(ctx context.Context, tenantID uuid.UUID) error {
	err := withTx(ctx, s.DB, func(tx *gorm.DB) error {
		var t models.Tenant
		if err := tx.First(&t, "id = ?", tenantID).Error; err != nil {
			return translate(err, "tenant", tenantID.String(), "get tenant")
		}
		owned := []interface{}{
			&models.ReminderLog{},
			&models.ReminderTemplate{},
			&models.CashMovement{},
			&models.CashSession{},
			&models.Payment{},
			&models.Expense{},
			&models.Appointment{},
			&models.Slot{},
			&models.Service{},
			&models.User{},
		}
		for _, m := range owned {
			if err := tx.Where("tenant_id = ?", tenantID).Delete(m).Error; err != nil {
				return fmt.Errorf("delete %T: %w", m, err)
			}
		}
		return tx.Delete(&t).Error
	})
	if err != nil {
		return err
	}
	s.Logger.Info("tenant deleted", "tenant_id", tenantID)
	return nil
}

// Authenticate checks credentials and records the login time. Any failure
// is reported as the same NotFoundError so callers cannot probe emails.
func (s *TenantService) Authenticate(ctx context.Context, email, password string) (*models.User, error) {
	var user models.User
	err := s.DB.WithContext(ctx).Where("email = ?", strings.ToLower(strings.TrimSpace(email))).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, &NotFoundError{Resource: "credentials"}
	}
	if err != nil {
		return nil, fmt.Errorf("find user: %w", err)
	}
	if !user.IsActive() || !utils.CheckPasswordHash(password, user.Password) {
		return nil, &NotFoundError{Resource: "credentials"}
	}
	if user.TenantID != nil {
		var t models.Tenant
		if err := s.DB.WithContext(ctx).First(&t, "id = ?", *user.TenantID).Error; err != nil {
			return nil, translate(err, "tenant", user.TenantID.String(), "get tenant")
		}
		if !t.Active {
			return nil, &StateError{Message: "tenant is inactive"}
		}
	}

	now := s.Now()
	if err := s.DB.WithContext(ctx).Model(&user).Update("last_login", &now).Error; err != nil {
		s.Logger.Warn("failed to record last login", "user_id", user.ID, "err", err)
	}
	user.LastLogin = &now
	return &user, nil
}

func (s *TenantService) GetUser(ctx context.Context, userID uuid.UUID) (*models.User, error) {
	var user models.User
	if err := s.DB.WithContext(ctx).First(&user, "id = ?", userID).Error; err != nil {
		return nil, translate(err, "user", userID.String(), "get user")
	}
	return &user, nil
}

// EnsureGlobalAdmin creates the platform administrator if no user with the
// email exists yet.
func (s *TenantService) EnsureGlobalAdmin(ctx context.Context, email, password string) error {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || password == "" {
		return nil
	}
	var n int64
	if err := s.DB.WithContext(ctx).Model(&models.User{}).Where("email = ?", email).Count(&n).Error; err != nil {
		return fmt.Errorf("check admin: %w", err)
	}
	if n > 0 {
		return nil
	}
	hash, err := utils.HashPassword(password)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	admin := models.User{Email: email, Password: hash, Name: "Administrator", Role: models.RoleAdminGlobal}
	if err := s.DB.WithContext(ctx).Create(&admin).Error; err != nil {
		return translate(err, "user", "", "create global admin")
	}
	s.Logger.Info("global admin created", "email", email)
	return nil
}
