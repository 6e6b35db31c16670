package services

import (
	"fmt"
	"mime/multipart"
	"sync"

	"github.com/iwenyou/cabinet-quotes-api/utils"
)

// MockAttachmentService is an in-memory AttachmentService for testing
type MockAttachmentService struct {
	attachments map[string]bool // set of uploaded keys
	mu          sync.RWMutex
}

// NewMockAttachmentService creates a new mock attachment service
func NewMockAttachmentService() *MockAttachmentService {
	return &MockAttachmentService{
		attachments: make(map[string]bool),
	}
}

// SetAsMockForTesting sets this mock as the global attachment service instance
func (m *MockAttachmentService) SetAsMockForTesting() {
	SetAttachmentService(m)
}

// UploadAttachment validates the file and records a mock key
func (m *MockAttachmentService) UploadAttachment(fileHeader *multipart.FileHeader) (string, error) {
	if err := utils.ValidateImageFile(fileHeader); err != nil {
		return "", err
	}

	key := fmt.Sprintf("attachments/mock_%s", fileHeader.Filename)

	m.mu.Lock()
	m.attachments[key] = true
	m.mu.Unlock()

	return key, nil
}

// GetAttachmentURL returns a mock presigned URL for a recorded key
func (m *MockAttachmentService) GetAttachmentURL(attachmentKey string) (string, error) {
	if attachmentKey == "" {
		return "", nil
	}

	m.mu.RLock()
	exists := m.attachments[attachmentKey]
	m.mu.RUnlock()

	if !exists {
		return "", fmt.Errorf("attachment not found in mock storage: %s", attachmentKey)
	}

	return fmt.Sprintf("https://test-bucket.s3.us-east-1.amazonaws.com/%s?mock=true", attachmentKey), nil
}

// DeleteAttachment removes a recorded key
func (m *MockAttachmentService) DeleteAttachment(attachmentKey string) error {
	if attachmentKey == "" {
		return nil
	}

	m.mu.Lock()
	delete(m.attachments, attachmentKey)
	m.mu.Unlock()

	return nil
}

// AttachmentExists checks whether a key was uploaded (for testing assertions)
func (m *MockAttachmentService) AttachmentExists(attachmentKey string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.attachments[attachmentKey]
}
