package repository

import (
	"context"
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"med_bridge/internal/errs"
	"med_bridge/internal/models"
	"med_bridge/internal/storage"
)

// ErrAudioNotFound 找不到對應的音檔
var ErrAudioNotFound = errors.New("audio not found")

type AudioRepository interface {
	Save(ctx context.Context, blob *models.AudioBlob) error
	FindByRef(ctx context.Context, ref string) (*models.AudioBlob, error)
}

type audioRepository struct {
	db *storage.DB
}

func NewAudioRepository(db *storage.DB) AudioRepository {
	return &audioRepository{db: db}
}

// Save 寫入音檔；相同內容（相同 ref）只保留一份
func (r *audioRepository) Save(ctx context.Context, blob *models.AudioBlob) error {
	err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(blob).Error
	return errs.Storage("save audio", err)
}

func (r *audioRepository) FindByRef(ctx context.Context, ref string) (*models.AudioBlob, error) {
	var blob models.AudioBlob
	err := r.db.WithContext(ctx).First(&blob, "ref = ?", ref).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrAudioNotFound
		}
		return nil, errs.Storage("find audio", err)
	}
	return &blob, nil
}
