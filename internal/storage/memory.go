package storage

import (
	"sync"

	"assistant-client/internal/model"
)

type MemoryStorage struct {
	messages []*model.Message
	index    map[string]int
	mu       sync.RWMutex
}

func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{
		index: make(map[string]int),
	}
}

func (m *MemoryStorage) Init() error {
	return nil
}

func (m *MemoryStorage) Close() error {
	return nil
}

func (m *MemoryStorage) AddMessage(message *model.Message) error {
	if message == nil || message.ID == "" {
		return ErrInvalidData
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.index[message.ID]; exists {
		return ErrInvalidData
	}

	stored := *message
	m.index[stored.ID] = len(m.messages)
	m.messages = append(m.messages, &stored)
	return nil
}

func (m *MemoryStorage) GetMessage(messageID string) (*model.Message, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	i, exists := m.index[messageID]
	if !exists {
		return nil, ErrMessageNotFound
	}

	msg := *m.messages[i]
	return &msg, nil
}

// GetMessages returns copies in insertion order.
func (m *MemoryStorage) GetMessages() ([]*model.Message, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	messages := make([]*model.Message, len(m.messages))
	for i, msg := range m.messages {
		cp := *msg
		messages[i] = &cp
	}

	return messages, nil
}

func (m *MemoryStorage) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return len(m.messages)
}

func (m *MemoryStorage) Clear() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.messages = nil
	m.index = make(map[string]int)
	return nil
}
