package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"barberpro-backend/models"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// CatalogService manages the services a tenant offers.
type CatalogService struct {
	Deps
}

func NewCatalogService(d Deps) *CatalogService {
	return &CatalogService{Deps: d.withDefaults()}
}

type ServiceInput struct {
	Name        string
	Description string
	Price       decimal.Decimal
	DurationMin int
	StaffID     *uuid.UUID
}

func (in *ServiceInput) validate() error {
	in.Price = in.Price.Round(2)
	switch {
	case strings.TrimSpace(in.Name) == "":
		return invalid("name", "is required")
	case in.Price.IsNegative():
		return invalid("price", "cannot be negative")
	case in.DurationMin <= 0:
		return invalid("durationMin", "must be positive")
	}
	return nil
}

func (s *CatalogService) Create(ctx context.Context, tenantID uuid.UUID, in ServiceInput) (*models.Service, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}
	svc := &models.Service{
		TenantID:    tenantID,
		StaffID:     in.StaffID,
		Name:        strings.TrimSpace(in.Name),
		Description: in.Description,
		Price:       in.Price,
		DurationMin: in.DurationMin,
	}
	err := withTx(ctx, s.DB, func(tx *gorm.DB) error {
		if in.StaffID != nil {
			if _, err := barberOf(tx, tenantID, *in.StaffID); err != nil {
				return err
			}
		}
		if err := tx.Create(svc).Error; err != nil {
			return translate(err, "service", "", "create service")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return svc, nil
}

func (s *CatalogService) Update(ctx context.Context, tenantID, serviceID uuid.UUID, in ServiceInput, state models.Lifecycle) (*models.Service, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}
	if state == "" {
		state = models.LifecycleActive
	}
	if state != models.LifecycleActive && state != models.LifecycleInactive {
		return nil, invalid("state", "must be ACTIVE or INACTIVE")
	}

	var svc models.Service
	err := withTx(ctx, s.DB, func(tx *gorm.DB) error {
		if err := liveServiceQuery(tx, tenantID).First(&svc, "id = ?", serviceID).Error; err != nil {
			return translate(err, "service", serviceID.String(), "get service")
		}
		if in.StaffID != nil {
			if _, err := barberOf(tx, tenantID, *in.StaffID); err != nil {
				return err
			}
		}
		svc.Name = strings.TrimSpace(in.Name)
		svc.Description = in.Description
		svc.Price = in.Price
		svc.DurationMin = in.DurationMin
		svc.StaffID = in.StaffID
		svc.State = state
		if err := tx.Save(&svc).Error; err != nil {
			return fmt.Errorf("update service: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &svc, nil
}

// List returns non-deleted services. activeOnly narrows to what clients may book.
func (s *CatalogService) List(ctx context.Context, tenantID uuid.UUID, activeOnly bool) ([]models.Service, error) {
	q := liveServiceQuery(s.DB.WithContext(ctx), tenantID)
	if activeOnly {
		q = q.Where("state = ?", models.LifecycleActive)
	}
	var services []models.Service
	if err := q.Order("name ASC").Find(&services).Error; err != nil {
		return nil, fmt.Errorf("list services: %w", err)
	}
	return services, nil
}

func (s *CatalogService) Get(ctx context.Context, tenantID, serviceID uuid.UUID) (*models.Service, error) {
	var svc models.Service
	if err := liveServiceQuery(s.DB.WithContext(ctx), tenantID).First(&svc, "id = ?", serviceID).Error; err != nil {
		return nil, translate(err, "service", serviceID.String(), "get service")
	}
	return &svc, nil
}

// Delete removes a service that was never booked; otherwise it is marked
// DELETED so history keeps its name and price.
func (s *CatalogService) Delete(ctx context.Context, tenantID, serviceID uuid.UUID) error {
	return withTx(ctx, s.DB, func(tx *gorm.DB) error {
		var svc models.Service
		if err := liveServiceQuery(tx, tenantID).First(&svc, "id = ?", serviceID).Error; err != nil {
			return translate(err, "service", serviceID.String(), "get service")
		}
		var refs int64
		if err := tx.Model(&models.Appointment{}).Where("service_id = ?", serviceID).Count(&refs).Error; err != nil {
			return fmt.Errorf("count service references: %w", err)
		}
		if refs == 0 {
			if err := tx.Delete(&svc).Error; err != nil {
				return fmt.Errorf("delete service: %w", err)
			}
			return nil
		}
		if err := tx.Model(&svc).Update("state", models.LifecycleDeleted).Error; err != nil {
			return fmt.Errorf("retire service: %w", err)
		}
		return nil
	})
}

func liveServiceQuery(db *gorm.DB, tenantID uuid.UUID) *gorm.DB {
	return db.Where("tenant_id = ? AND state <> ?", tenantID, models.LifecycleDeleted)
}

// barberOf loads an active barber of the tenant or fails with a ValidationError.
func barberOf(db *gorm.DB, tenantID, staffID uuid.UUID) (*models.User, error) {
	var u models.User
	err := db.Where("id = ? AND tenant_id = ? AND role = ? AND state = ?",
		staffID, tenantID, models.RoleBarber, models.LifecycleActive).First(&u).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, invalid("staffId", "barber does not belong to this shop or is inactive")
	}
	if err != nil {
		return nil, fmt.Errorf("get barber: %w", err)
	}
	return &u, nil
}
