package persistence

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/attornatus/backend/internal/domain/registry"
	"github.com/attornatus/backend/internal/domain/shared"
	"github.com/attornatus/backend/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormPersonRepository implements registry.PersonRepository using GORM
type GormPersonRepository struct {
	db *gorm.DB
}

// NewGormPersonRepository creates a new GormPersonRepository
func NewGormPersonRepository(db *gorm.DB) *GormPersonRepository {
	return &GormPersonRepository{db: db}
}

// FindByID finds a person by ID with their addresses, main address first
func (r *GormPersonRepository) FindByID(ctx context.Context, id uuid.UUID) (*registry.Person, error) {
	var model models.PersonModel
	err := r.db.WithContext(ctx).
		Preload("Addresses", func(db *gorm.DB) *gorm.DB {
			return db.Order("is_main DESC, created_at ASC, id ASC")
		}).
		First(&model, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindByName returns a page of persons whose name contains pattern, ignoring case
func (r *GormPersonRepository) FindByName(ctx context.Context, pattern string, filter shared.Filter) (shared.Paginated[registry.Person], error) {
	filter = filter.WithDefaults()
	query := r.db.WithContext(ctx).Model(&models.PersonModel{})
	if p := strings.TrimSpace(pattern); p != "" {
		query = query.Where(`LOWER(name) LIKE ? ESCAPE '\'`, "%"+escapeLike(strings.ToLower(p))+"%")
	}
	// count and find share the conditions
	query = query.Session(&gorm.Session{})

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return shared.Paginated[registry.Person]{}, err
	}

	var rows []models.PersonModel
	err := query.
		Order(orderClause(filter, PersonSortFields, "name", "ASC")).
		Offset(filter.Offset()).
		Limit(filter.PageSize).
		Find(&rows).Error
	if err != nil {
		return shared.Paginated[registry.Person]{}, err
	}

	persons := make([]registry.Person, 0, len(rows))
	for i := range rows {
		persons = append(persons, *rows[i].ToDomain())
	}
	return shared.NewPaginated(persons, total, filter.Page, filter.PageSize), nil
}

// ExistsByIdentificationNumber checks whether a person with the CPF exists
func (r *GormPersonRepository) ExistsByIdentificationNumber(ctx context.Context, idNumber string) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&models.PersonModel{}).
		Where("identification_number = ?", idNumber).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// Save inserts a new person or updates name and birth date of a stored one.
// Updates are guarded by the version column; a stale copy yields
// shared.ErrConcurrencyConflict.
func (r *GormPersonRepository) Save(ctx context.Context, person *registry.Person) error {
	now := time.Now()

	if !person.IsPersisted() {
		person.AssignID(now)
		if person.Version == 0 {
			person.Version = 1
		}
		model := models.PersonModelFromDomain(person)
		err := r.db.WithContext(ctx).Omit(clause.Associations).Create(model).Error
		if err != nil {
			person.ID = uuid.Nil
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return registry.NewDuplicateIdentificationError(person.IdentificationNumber)
			}
			return err
		}
		return nil
	}

	result := r.db.WithContext(ctx).
		Model(&models.PersonModel{}).
		Where("id = ? AND version = ?", person.ID, person.Version).
		Updates(map[string]any{
			"name":       person.Name,
			"birth_date": registry.DateOnly(person.BirthDate),
			"updated_at": now,
			"version":    person.Version + 1,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrConcurrencyConflict
	}
	person.UpdatedAt = now
	person.IncrementVersion()
	return nil
}

// escapeLike escapes LIKE wildcards so user input matches literally
func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}

// Ensure GormPersonRepository implements registry.PersonRepository
var _ registry.PersonRepository = (*GormPersonRepository)(nil)
