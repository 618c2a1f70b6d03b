package repository

import (
	"github.com/cashnoteio/cashnote/pkg/domain/user"
	repo "github.com/cashnoteio/cashnote/pkg/repository"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type userRepository struct {
	db *gorm.DB
}

// NewUserRepository creates a user repository using the provided *gorm.DB.
func NewUserRepository(db *gorm.DB) repo.UserRepository {
	return &userRepository{db: db}
}

// Get implements repository.UserRepository.
func (r *userRepository) Get(id uuid.UUID) (*user.User, error) {
	var m User
	if err := r.db.First(&m, "id = ?", id).Error; err != nil {
		return nil, MapGormErrorToDomain(err)
	}
	return mapModelToUser(&m), nil
}

// GetByPhone implements repository.UserRepository.
func (r *userRepository) GetByPhone(phone string) (*user.User, error) {
	var m User
	if err := r.db.First(&m, "phone = ?", phone).Error; err != nil {
		return nil, MapGormErrorToDomain(err)
	}
	return mapModelToUser(&m), nil
}

// Create implements repository.UserRepository.
func (r *userRepository) Create(u *user.User) error {
	return WrapError(func() error {
		return r.db.Create(mapUserToModel(u)).Error
	})
}

var _ repo.UserRepository = (*userRepository)(nil)
