package storage

import (
	"assistant-client/internal/model"
)

// Storage holds the chat transcript of one client.
type Storage interface {
	AddMessage(message *model.Message) error
	GetMessage(messageID string) (*model.Message, error)
	GetMessages() ([]*model.Message, error)
	Count() int
	Clear() error

	Init() error
	Close() error
}
