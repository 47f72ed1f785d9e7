package repository

import "med_bridge/internal/storage"

type Repositories struct {
	Message MessageRepository
	Audio   AudioRepository
}

func NewRepositories(db *storage.DB) *Repositories {
	return &Repositories{
		Message: NewMessageRepository(db),
		Audio:   NewAudioRepository(db),
	}
}
