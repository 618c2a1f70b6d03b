package repository

import (
	"github.com/cashnoteio/cashnote/pkg/domain/note"
	repo "github.com/cashnoteio/cashnote/pkg/repository"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type noteRepository struct {
	db *gorm.DB
}

// NewNoteRepository creates a cash note repository using the provided *gorm.DB.
func NewNoteRepository(db *gorm.DB) repo.NoteRepository {
	return &noteRepository{db: db}
}

// Get implements repository.NoteRepository.
func (r *noteRepository) Get(id uuid.UUID) (*note.CashNote, error) {
	var m CashNote
	if err := r.db.First(&m, "id = ?", id).Error; err != nil {
		return nil, MapGormErrorToDomain(err)
	}
	return mapModelToNote(&m), nil
}

// GetByReferenceCode implements repository.NoteRepository.
func (r *noteRepository) GetByReferenceCode(code string) (*note.CashNote, error) {
	var m CashNote
	if err := r.db.First(&m, "reference_code = ?", code).Error; err != nil {
		return nil, MapGormErrorToDomain(err)
	}
	return mapModelToNote(&m), nil
}

// GetForUpdate loads the note under FOR UPDATE so concurrent transfers on
// the same note queue behind the row lock.
func (r *noteRepository) GetForUpdate(id uuid.UUID) (*note.CashNote, error) {
	var m CashNote
	err := r.db.Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&m, "id = ?", id).Error
	if err != nil {
		return nil, MapGormErrorToDomain(err)
	}
	return mapModelToNote(&m), nil
}

// Create implements repository.NoteRepository. A duplicate reference code
// surfaces as domain.ErrAlreadyExists via the unique index.
func (r *noteRepository) Create(n *note.CashNote) error {
	return WrapError(func() error {
		return r.db.Create(mapNoteToModel(n)).Error
	})
}

// UpdateOwnership implements repository.NoteRepository. The write is guarded
// by an optimistic check on the stored transfer count; losing a race returns
// note.ErrTransferConflict.
func (r *noteRepository) UpdateOwnership(n *note.CashNote, expectedTransferCount int) error {
	res := r.db.Model(&CashNote{}).
		Where("id = ? AND transfer_count = ?", n.ID, expectedTransferCount).
		Updates(map[string]any{
			"current_owner_id":    n.CurrentOwnerID,
			"transfer_count":      n.TransferCount,
			"last_transferred_at": n.LastTransferredAt,
			"status":              string(n.Status),
			"updated_at":          n.UpdatedAt,
		})
	if res.Error != nil {
		return MapGormErrorToDomain(res.Error)
	}
	if res.RowsAffected == 0 {
		return note.ErrTransferConflict
	}
	return nil
}

// UpdateFlags implements repository.NoteRepository.
func (r *noteRepository) UpdateFlags(n *note.CashNote) error {
	res := r.db.Model(&CashNote{}).
		Where("id = ?", n.ID).
		Updates(map[string]any{
			"status":         string(n.Status),
			"is_locked":      n.IsLocked,
			"locked_reason":  n.LockedReason,
			"locked_by":      n.LockedBy,
			"locked_at":      n.LockedAt,
			"flagged_reason": n.FlaggedReason,
			"flagged_by":     n.FlaggedBy,
			"flagged_at":     n.FlaggedAt,
			"updated_at":     n.UpdatedAt,
		})
	if res.Error != nil {
		return MapGormErrorToDomain(res.Error)
	}
	if res.RowsAffected == 0 {
		return MapGormErrorToDomain(gorm.ErrRecordNotFound)
	}
	return nil
}

// CountByStatus implements repository.NoteRepository.
func (r *noteRepository) CountByStatus(ownerID uuid.UUID) (map[note.Status]int64, error) {
	var rows []struct {
		Status string
		Count  int64
	}
	q := r.db.Model(&CashNote{}).Select("status, count(*) as count").Group("status")
	if ownerID != uuid.Nil {
		q = q.Where("current_owner_id = ?", ownerID)
	}
	if err := q.Scan(&rows).Error; err != nil {
		return nil, MapGormErrorToDomain(err)
	}
	out := make(map[note.Status]int64, len(rows))
	for _, row := range rows {
		out[note.Status(row.Status)] = row.Count
	}
	return out, nil
}

// SumByType implements repository.NoteRepository.
func (r *noteRepository) SumByType(ownerID uuid.UUID) ([]repo.TypeAggregate, error) {
	var rows []struct {
		NoteType string
		Count    int64
		Sum      int64
	}
	q := r.db.Model(&CashNote{}).
		Select("note_type, count(*) as count, sum(denomination) as sum").
		Group("note_type")
	if ownerID != uuid.Nil {
		q = q.Where("current_owner_id = ?", ownerID)
	}
	if err := q.Scan(&rows).Error; err != nil {
		return nil, MapGormErrorToDomain(err)
	}
	out := make([]repo.TypeAggregate, 0, len(rows))
	for _, row := range rows {
		out = append(out, repo.TypeAggregate{
			NoteType: note.Type(row.NoteType),
			Count:    row.Count,
			Sum:      row.Sum,
		})
	}
	return out, nil
}

var _ repo.NoteRepository = (*noteRepository)(nil)
