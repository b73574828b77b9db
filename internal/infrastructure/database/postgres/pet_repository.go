package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	domainPet "pet-tracker/internal/domain/pet"
	"pet-tracker/internal/infrastructure/database/postgres/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// PetRepository implements domainPet.Repository
type PetRepository struct {
	db     *DB
	limits domainPet.Limits
}

// NewPetRepository creates a pet repository that enforces limits on every zone write.
func NewPetRepository(db *DB, limits domainPet.Limits) domainPet.Repository {
	return &PetRepository{db: db, limits: limits}
}

func (r *PetRepository) Create(ctx context.Context, p *domainPet.Pet) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	now := time.Now()
	p.CreatedAt = now
	p.UpdatedAt = now

	dbModel := toPetModel(p)
	dbModel.ZoneLimits = r.limits
	if err := r.db.DB.WithContext(ctx).Create(dbModel).Error; err != nil {
		return fmt.Errorf("failed to create pet: %w", err)
	}

	p.SafeZones = dbModel.SafeZones
	return nil
}

func (r *PetRepository) GetByID(ctx context.Context, petID uuid.UUID) (*domainPet.Pet, error) {
	var dbModel models.PetModel
	err := r.db.DB.WithContext(ctx).
		Where("id = ?", petID).
		First(&dbModel).Error

	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domainPet.ErrPetNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get pet: %w", err)
	}

	return toPetEntity(&dbModel), nil
}

// GetSafeZones reads only the zone column, straight from the store.
func (r *PetRepository) GetSafeZones(ctx context.Context, petID uuid.UUID) ([]domainPet.SafeZone, error) {
	var dbModel models.PetModel
	err := r.db.DB.WithContext(ctx).
		Select("id", "safe_zones").
		Where("id = ?", petID).
		First(&dbModel).Error

	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domainPet.ErrPetNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get safe zones: %w", err)
	}

	return dbModel.SafeZones, nil
}

// SaveSafeZones replaces the zone collection and re-saves the whole pet document.
// The returned slice is what was stored, after normalization.
func (r *PetRepository) SaveSafeZones(ctx context.Context, petID uuid.UUID, zones []domainPet.SafeZone) ([]domainPet.SafeZone, error) {
	var saved []domainPet.SafeZone

	err := r.db.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var dbModel models.PetModel
		err := tx.Where("id = ?", petID).First(&dbModel).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domainPet.ErrPetNotFound
		}
		if err != nil {
			return fmt.Errorf("failed to load pet: %w", err)
		}

		dbModel.SafeZones = zones
		dbModel.ZoneLimits = r.limits
		if err := tx.Save(&dbModel).Error; err != nil {
			return fmt.Errorf("failed to save safe zones: %w", err)
		}

		saved = dbModel.SafeZones
		return nil
	})
	if err != nil {
		return nil, err
	}

	return saved, nil
}

func toPetModel(p *domainPet.Pet) *models.PetModel {
	return &models.PetModel{
		ID:        p.ID,
		OwnerID:   p.OwnerID,
		Name:      p.Name,
		Species:   p.Species,
		Breed:     p.Breed,
		SafeZones: p.SafeZones,
		CreatedAt: p.CreatedAt,
		UpdatedAt: p.UpdatedAt,
	}
}

func toPetEntity(m *models.PetModel) *domainPet.Pet {
	return &domainPet.Pet{
		ID:        m.ID,
		OwnerID:   m.OwnerID,
		Name:      m.Name,
		Species:   m.Species,
		Breed:     m.Breed,
		SafeZones: m.SafeZones,
		CreatedAt: m.CreatedAt,
		UpdatedAt: m.UpdatedAt,
	}
}
