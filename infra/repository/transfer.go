package repository

import (
	"time"

	"github.com/cashnoteio/cashnote/pkg/domain/note"
	repo "github.com/cashnoteio/cashnote/pkg/repository"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type transferRepository struct {
	db *gorm.DB
}

// NewTransferRepository creates a transfer repository using the provided *gorm.DB.
func NewTransferRepository(db *gorm.DB) repo.TransferRepository {
	return &transferRepository{db: db}
}

// Get implements repository.TransferRepository.
func (r *transferRepository) Get(id uuid.UUID) (*note.CashNoteTransfer, error) {
	var m CashNoteTransfer
	if err := r.db.First(&m, "id = ?", id).Error; err != nil {
		return nil, MapGormErrorToDomain(err)
	}
	return mapModelToTransfer(&m), nil
}

// GetByReference implements repository.TransferRepository.
func (r *transferRepository) GetByReference(ref string) (*note.CashNoteTransfer, error) {
	var m CashNoteTransfer
	if err := r.db.First(&m, "transfer_reference = ?", ref).Error; err != nil {
		return nil, MapGormErrorToDomain(err)
	}
	return mapModelToTransfer(&m), nil
}

// Create implements repository.TransferRepository.
func (r *transferRepository) Create(t *note.CashNoteTransfer) error {
	return WrapError(func() error {
		return r.db.Create(mapTransferToModel(t)).Error
	})
}

// Update implements repository.TransferRepository.
func (r *transferRepository) Update(t *note.CashNoteTransfer) error {
	return WrapError(func() error {
		return r.db.Save(mapTransferToModel(t)).Error
	})
}

// ListByNote implements repository.TransferRepository. Pages are ordered
// newest first.
func (r *transferRepository) ListByNote(noteID uuid.UUID, limit, offset int) ([]*note.CashNoteTransfer, int64, error) {
	var total int64
	if err := r.db.Model(&CashNoteTransfer{}).
		Where("cash_note_id = ?", noteID).
		Count(&total).Error; err != nil {
		return nil, 0, MapGormErrorToDomain(err)
	}

	var models []CashNoteTransfer
	err := r.db.
		Where("cash_note_id = ?", noteID).
		Order("initiated_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&models).Error
	if err != nil {
		return nil, 0, MapGormErrorToDomain(err)
	}

	out := make([]*note.CashNoteTransfer, 0, len(models))
	for i := range models {
		out = append(out, mapModelToTransfer(&models[i]))
	}
	return out, total, nil
}

// FailExpired implements repository.TransferRepository.
func (r *transferRepository) FailExpired(now time.Time) (int64, error) {
	res := r.db.Model(&CashNoteTransfer{}).
		Where("status = ? AND expires_at < ?", string(note.TransferPending), now).
		Updates(map[string]any{
			"status":         string(note.TransferFailed),
			"failed_at":      now,
			"failure_reason": "expired before completion",
		})
	if res.Error != nil {
		return 0, MapGormErrorToDomain(res.Error)
	}
	return res.RowsAffected, nil
}

// CountByStatus implements repository.TransferRepository.
func (r *transferRepository) CountByStatus() (map[note.TransferStatus]int64, error) {
	var rows []struct {
		Status string
		Count  int64
	}
	err := r.db.Model(&CashNoteTransfer{}).
		Select("status, count(*) as count").
		Group("status").
		Scan(&rows).Error
	if err != nil {
		return nil, MapGormErrorToDomain(err)
	}
	out := make(map[note.TransferStatus]int64, len(rows))
	for _, row := range rows {
		out[note.TransferStatus(row.Status)] = row.Count
	}
	return out, nil
}

var _ repo.TransferRepository = (*transferRepository)(nil)
