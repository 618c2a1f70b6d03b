package repository

import (
	"github.com/cashnoteio/cashnote/pkg/domain/note"
	repo "github.com/cashnoteio/cashnote/pkg/repository"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type grantRepository struct {
	db *gorm.DB
}

// NewGrantRepository creates a proxy grant repository using the provided *gorm.DB.
func NewGrantRepository(db *gorm.DB) repo.GrantRepository {
	return &grantRepository{db: db}
}

// Get implements repository.GrantRepository.
func (r *grantRepository) Get(id uuid.UUID) (*note.ProxyGrant, error) {
	var m ProxyGrant
	if err := r.db.First(&m, "id = ?", id).Error; err != nil {
		return nil, MapGormErrorToDomain(err)
	}
	return mapModelToGrant(&m), nil
}

// Create implements repository.GrantRepository.
func (r *grantRepository) Create(g *note.ProxyGrant) error {
	return WrapError(func() error {
		return r.db.Create(mapGrantToModel(g)).Error
	})
}

// GetActive implements repository.GrantRepository. Returns the newest
// unrevoked grant for the pair; expiry is the grant's own concern.
func (r *grantRepository) GetActive(grantorID, granteeID uuid.UUID) (*note.ProxyGrant, error) {
	var m ProxyGrant
	err := r.db.
		Where("grantor_id = ? AND grantee_id = ? AND revoked = false", grantorID, granteeID).
		Order("created_at DESC").
		First(&m).Error
	if err != nil {
		return nil, MapGormErrorToDomain(err)
	}
	return mapModelToGrant(&m), nil
}

// Revoke implements repository.GrantRepository.
func (r *grantRepository) Revoke(id uuid.UUID) error {
	res := r.db.Model(&ProxyGrant{}).Where("id = ?", id).Update("revoked", true)
	if res.Error != nil {
		return MapGormErrorToDomain(res.Error)
	}
	if res.RowsAffected == 0 {
		return MapGormErrorToDomain(gorm.ErrRecordNotFound)
	}
	return nil
}

var _ repo.GrantRepository = (*grantRepository)(nil)
