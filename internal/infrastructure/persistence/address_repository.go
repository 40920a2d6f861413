package persistence

import (
	"context"
	"errors"
	"time"

	"github.com/attornatus/backend/internal/domain/registry"
	"github.com/attornatus/backend/internal/domain/shared"
	"github.com/attornatus/backend/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormAddressRepository implements registry.AddressRepository using GORM
type GormAddressRepository struct {
	db *gorm.DB
}

// NewGormAddressRepository creates a new GormAddressRepository
func NewGormAddressRepository(db *gorm.DB) *GormAddressRepository {
	return &GormAddressRepository{db: db}
}

// FindByID finds an address by its ID
func (r *GormAddressRepository) FindByID(ctx context.Context, id uuid.UUID) (*registry.Address, error) {
	var model models.AddressModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindByPerson returns a page of the person's addresses. Without an explicit
// order the main address comes first, then oldest first.
func (r *GormAddressRepository) FindByPerson(ctx context.Context, personID uuid.UUID, filter shared.Filter) (shared.Paginated[registry.Address], error) {
	filter = filter.WithDefaults()
	query := r.db.WithContext(ctx).Model(&models.AddressModel{}).Where("person_id = ?", personID).Session(&gorm.Session{})

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return shared.Paginated[registry.Address]{}, err
	}

	order := "is_main DESC, created_at ASC, id ASC"
	if filter.OrderBy != "" {
		order = orderClause(filter, AddressSortFields, "created_at", "ASC")
	}

	var rows []models.AddressModel
	if err := query.
		Order(order).
		Offset(filter.Offset()).
		Limit(filter.PageSize).
		Find(&rows).Error; err != nil {
		return shared.Paginated[registry.Address]{}, err
	}

	addresses := make([]registry.Address, 0, len(rows))
	for i := range rows {
		addresses = append(addresses, *rows[i].ToDomain())
	}
	return shared.NewPaginated(addresses, total, filter.Page, filter.PageSize), nil
}

// Save inserts a new address or overwrites a stored one
func (r *GormAddressRepository) Save(ctx context.Context, address *registry.Address) error {
	now := time.Now()

	if !address.IsPersisted() {
		address.AssignID(now)
		if err := r.db.WithContext(ctx).Create(models.AddressModelFromDomain(address)).Error; err != nil {
			address.ID = uuid.Nil
			return err
		}
		return nil
	}

	address.UpdatedAt = now
	return r.db.WithContext(ctx).Save(models.AddressModelFromDomain(address)).Error
}

// ClearMain clears the main flag for every address owned by the person
func (r *GormAddressRepository) ClearMain(ctx context.Context, personID uuid.UUID) error {
	return r.db.WithContext(ctx).
		Model(&models.AddressModel{}).
		Where("person_id = ? AND is_main = ?", personID, true).
		Updates(map[string]any{
			"is_main":    false,
			"updated_at": time.Now(),
		}).Error
}

// Ensure GormAddressRepository implements registry.AddressRepository
var _ registry.AddressRepository = (*GormAddressRepository)(nil)
