package repository

import (
	"context"

	"gorm.io/gorm"

	"med_bridge/internal/errs"
	"med_bridge/internal/models"
	"med_bridge/internal/storage"
)

// MessageRepository 訊息的持久化操作；只允許新增與查詢，歷史紀錄為 append-only
type MessageRepository interface {
	Append(ctx context.Context, message *models.Message) error
	FindByRoomID(ctx context.Context, roomID string) ([]models.Message, error)
	LastByRole(ctx context.Context, roomID string, role models.Role) (*models.Message, error)
	HasAudioRef(ctx context.Context, roomID, ref string) (bool, error)
}

type messageRepository struct {
	db *storage.DB
}

func NewMessageRepository(db *storage.DB) MessageRepository {
	return &messageRepository{db: db}
}

// Append 在交易內寫入訊息。
// 時間戳取 max(現在, 房間最後一則)，確保同一房間內的顯示順序不倒退
func (r *messageRepository) Append(ctx context.Context, message *models.Message) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var last []models.Message
		if err := tx.Where("room_id = ?", message.RoomID).
			Order("timestamp desc, id desc").
			Limit(1).
			Find(&last).Error; err != nil {
			return err
		}
		if len(last) == 1 && message.Timestamp.Before(last[0].Timestamp) {
			message.Timestamp = last[0].Timestamp
		}
		return tx.Create(message).Error
	})
	return errs.Storage("append message", err)
}

func (r *messageRepository) FindByRoomID(ctx context.Context, roomID string) ([]models.Message, error) {
	messages := []models.Message{}
	err := r.db.WithContext(ctx).
		Where("room_id = ?", roomID).
		Order("timestamp asc, id asc").
		Find(&messages).Error
	if err != nil {
		return nil, errs.Storage("list messages", err)
	}
	return messages, nil
}

// LastByRole 查詢某角色在房間內最新的一則訊息，沒有時回傳 nil
func (r *messageRepository) LastByRole(ctx context.Context, roomID string, role models.Role) (*models.Message, error) {
	var found []models.Message
	err := r.db.WithContext(ctx).
		Where("room_id = ? AND role = ?", roomID, role).
		Order("timestamp desc, id desc").
		Limit(1).
		Find(&found).Error
	if err != nil {
		return nil, errs.Storage("last message", err)
	}
	if len(found) == 0 {
		return nil, nil
	}
	return &found[0], nil
}

// HasAudioRef 判斷房間內是否有訊息引用該音檔
func (r *messageRepository) HasAudioRef(ctx context.Context, roomID, ref string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.Message{}).
		Where("room_id = ? AND audio_ref = ?", roomID, ref).
		Count(&count).Error
	if err != nil {
		return false, errs.Storage("find audio ref", err)
	}
	return count > 0, nil
}
