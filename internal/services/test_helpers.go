package services

import (
	"context"
	"sync"
	"time"

	"github.com/BradenHooton/prospectiva/internal/models"
)

// MockUserRepository implements UserRepository for testing
type MockUserRepository struct {
	GetByIDFunc    func(ctx context.Context, id string) (*models.User, error)
	GetByEmailFunc func(ctx context.Context, email string) (*models.User, error)
	ListFunc       func(ctx context.Context, limit, offset int) ([]*models.User, error)
	CountFunc      func(ctx context.Context) (int, error)
	CreateFunc     func(ctx context.Context, user *models.User) (*models.User, error)
	UpdateFunc     func(ctx context.Context, id string, user *models.User) (*models.User, error)
	DeleteFunc     func(ctx context.Context, id string) error
}

func (m *MockUserRepository) GetByID(ctx context.Context, id string) (*models.User, error) {
	if m.GetByIDFunc != nil {
		return m.GetByIDFunc(ctx, id)
	}
	return nil, models.ErrNotFound
}

func (m *MockUserRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	if m.GetByEmailFunc != nil {
		return m.GetByEmailFunc(ctx, email)
	}
	return nil, models.ErrNotFound
}

func (m *MockUserRepository) List(ctx context.Context, limit, offset int) ([]*models.User, error) {
	if m.ListFunc != nil {
		return m.ListFunc(ctx, limit, offset)
	}
	return []*models.User{}, nil
}

func (m *MockUserRepository) Count(ctx context.Context) (int, error) {
	if m.CountFunc != nil {
		return m.CountFunc(ctx)
	}
	return 0, nil
}

func (m *MockUserRepository) Create(ctx context.Context, user *models.User) (*models.User, error) {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, user)
	}
	return nil, models.ErrInternalServer
}

func (m *MockUserRepository) Update(ctx context.Context, id string, user *models.User) (*models.User, error) {
	if m.UpdateFunc != nil {
		return m.UpdateFunc(ctx, id, user)
	}
	return nil, models.ErrInternalServer
}

func (m *MockUserRepository) Delete(ctx context.Context, id string) error {
	if m.DeleteFunc != nil {
		return m.DeleteFunc(ctx, id)
	}
	return nil
}

// MockTokenRevocationRepository implements TokenRevocationRepository for testing
type MockTokenRevocationRepository struct {
	RevokeTokenFunc    func(ctx context.Context, token *models.RevokedToken) error
	IsTokenRevokedFunc func(ctx context.Context, tokenID string) (bool, error)
}

func (m *MockTokenRevocationRepository) RevokeToken(ctx context.Context, token *models.RevokedToken) error {
	if m.RevokeTokenFunc != nil {
		return m.RevokeTokenFunc(ctx, token)
	}
	return nil
}

func (m *MockTokenRevocationRepository) IsTokenRevoked(ctx context.Context, tokenID string) (bool, error) {
	if m.IsTokenRevokedFunc != nil {
		return m.IsTokenRevokedFunc(ctx, tokenID)
	}
	return false, nil
}

// MockEventSink records every entry it is sent. SendFunc, if set, decides the result.
type MockEventSink struct {
	SendFunc func(ctx context.Context, entry *models.AccessLog) error

	mu      sync.Mutex
	entries []*models.AccessLog
}

func (m *MockEventSink) Name() string { return "mock" }

func (m *MockEventSink) Send(ctx context.Context, entry *models.AccessLog) error {
	if m.SendFunc != nil {
		if err := m.SendFunc(ctx, entry); err != nil {
			return err
		}
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries = append(m.entries, entry)
	return nil
}

// Entries returns a copy of the entries received so far
func (m *MockEventSink) Entries() []*models.AccessLog {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]*models.AccessLog(nil), m.entries...)
}

// MockAccessLogRepository implements AccessLogRepository for testing
type MockAccessLogRepository struct {
	ListFunc             func(ctx context.Context, filter models.AccessLogFilter) ([]*models.AccessLog, error)
	CountFunc            func(ctx context.Context, filter models.AccessLogFilter) (int64, error)
	CountByEventTypeFunc func(ctx context.Context) (map[string]int64, error)
	DeleteOlderThanFunc  func(ctx context.Context, cutoff time.Time) (int64, error)

	mu      sync.Mutex
	Created []*models.AccessLog
}

func (m *MockAccessLogRepository) Create(ctx context.Context, entry *models.AccessLog) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Created = append(m.Created, entry)
	return nil
}

func (m *MockAccessLogRepository) List(ctx context.Context, filter models.AccessLogFilter) ([]*models.AccessLog, error) {
	if m.ListFunc != nil {
		return m.ListFunc(ctx, filter)
	}
	return []*models.AccessLog{}, nil
}

func (m *MockAccessLogRepository) Count(ctx context.Context, filter models.AccessLogFilter) (int64, error) {
	if m.CountFunc != nil {
		return m.CountFunc(ctx, filter)
	}
	return 0, nil
}

func (m *MockAccessLogRepository) CountByEventType(ctx context.Context) (map[string]int64, error) {
	if m.CountByEventTypeFunc != nil {
		return m.CountByEventTypeFunc(ctx)
	}
	return map[string]int64{}, nil
}

func (m *MockAccessLogRepository) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	if m.DeleteOlderThanFunc != nil {
		return m.DeleteOlderThanFunc(ctx, cutoff)
	}
	return 0, nil
}

// MockSessionProvider implements SessionProvider. A nil GetSessionFunc means no session.
type MockSessionProvider struct {
	GetSessionFunc func(ctx context.Context, accessToken string) (*models.Session, error)
}

func (m *MockSessionProvider) GetSession(ctx context.Context, accessToken string) (*models.Session, error) {
	if m.GetSessionFunc != nil {
		return m.GetSessionFunc(ctx, accessToken)
	}
	return nil, nil
}

// MockEventRecorder captures security events synchronously
type MockEventRecorder struct {
	mu     sync.Mutex
	events []models.SecurityEvent
}

func (m *MockEventRecorder) LogSecurityEvent(ctx context.Context, event models.SecurityEvent) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, event)
}

// Events returns a copy of the recorded events
func (m *MockEventRecorder) Events() []models.SecurityEvent {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]models.SecurityEvent(nil), m.events...)
}

// OfType returns the recorded events with the given type
func (m *MockEventRecorder) OfType(eventType string) []models.SecurityEvent {
	var out []models.SecurityEvent
	for _, e := range m.Events() {
		if e.Type == eventType {
			out = append(out, e)
		}
	}
	return out
}

// MockTechniqueRepository implements TechniqueRepository for testing
type MockTechniqueRepository struct {
	ListActiveFunc func(ctx context.Context, lang string) ([]*models.TechniqueRecord, error)
	GetByIDFunc    func(ctx context.Context, id string) (*models.TechniqueRecord, error)
	CreateFunc     func(ctx context.Context, rec *models.TechniqueRecord) (*models.TechniqueRecord, error)
}

func (m *MockTechniqueRepository) ListActive(ctx context.Context, lang string) ([]*models.TechniqueRecord, error) {
	if m.ListActiveFunc != nil {
		return m.ListActiveFunc(ctx, lang)
	}
	return nil, nil
}

func (m *MockTechniqueRepository) GetByID(ctx context.Context, id string) (*models.TechniqueRecord, error) {
	if m.GetByIDFunc != nil {
		return m.GetByIDFunc(ctx, id)
	}
	return nil, models.ErrNotFound
}

func (m *MockTechniqueRepository) Create(ctx context.Context, rec *models.TechniqueRecord) (*models.TechniqueRecord, error) {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, rec)
	}
	return rec, nil
}

// MockTechniqueCache is an in-memory TechniqueCache. GetErr forces read failures.
type MockTechniqueCache struct {
	GetErr error

	mu          sync.Mutex
	data        map[string][]models.Technique
	Invalidated []string
}

func (m *MockTechniqueCache) Get(ctx context.Context, lang string) ([]models.Technique, bool, error) {
	if m.GetErr != nil {
		return nil, false, m.GetErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	techniques, ok := m.data[lang]
	return techniques, ok, nil
}

func (m *MockTechniqueCache) Set(ctx context.Context, lang string, techniques []models.Technique) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.data == nil {
		m.data = make(map[string][]models.Technique)
	}
	m.data[lang] = techniques
	return nil
}

func (m *MockTechniqueCache) Invalidate(ctx context.Context, lang string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data, lang)
	m.Invalidated = append(m.Invalidated, lang)
	return nil
}

// Cached reports what is stored for lang
func (m *MockTechniqueCache) Cached(lang string) ([]models.Technique, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	techniques, ok := m.data[lang]
	return techniques, ok
}

// SentAlert is one call to MockAlertSender
type SentAlert struct {
	Email        string
	BlockedUntil time.Time
}

// MockAlertSender implements AlertSender for testing
type MockAlertSender struct {
	Err error

	mu   sync.Mutex
	sent []SentAlert
}

func (m *MockAlertSender) SendAccountBlockedAlert(ctx context.Context, email string, blockedUntil time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = append(m.sent, SentAlert{Email: email, BlockedUntil: blockedUntil})
	return m.Err
}

// Sent returns a copy of the alerts sent so far
func (m *MockAlertSender) Sent() []SentAlert {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]SentAlert(nil), m.sent...)
}

// NewTestUser builds an active user with the user role
func NewTestUser(id, email, name string) *models.User {
	now := time.Now()
	return &models.User{
		ID:        id,
		Email:     email,
		Name:      name,
		Status:    models.StatusActive,
		Role:      models.RoleUser,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// NewTestUserWithPassword creates a user with a hashed password
func NewTestUserWithPassword(id, email, name, passwordHash string) *models.User {
	user := NewTestUser(id, email, name)
	user.PasswordHash = passwordHash
	return user
}

// NewTestUserWithStatus creates a user with the given status
func NewTestUserWithStatus(id, email, name, status string) *models.User {
	user := NewTestUser(id, email, name)
	user.Status = status
	return user
}
