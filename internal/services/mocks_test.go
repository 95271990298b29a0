package services

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"

	"estatehub/marketplace/internal/cache"
	"estatehub/marketplace/internal/models"
	"estatehub/marketplace/internal/utils"
)

// --- MockPropertyService ---
type MockPropertyService struct {
	mock.Mock
}

func (m *MockPropertyService) FindPropertyByID(ctx context.Context, propertyID utils.SixID) (*models.Property, error) {
	args := m.Called(ctx, propertyID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Property), args.Error(1)
}

func (m *MockPropertyService) FindPropertiesByIDs(ctx context.Context, propertyIDs []utils.SixID) (map[utils.SixID]*models.Property, error) {
	args := m.Called(ctx, propertyIDs)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[utils.SixID]*models.Property), args.Error(1)
}

func (m *MockPropertyService) FindPropertyIDsByName(ctx context.Context, search string) ([]utils.SixID, error) {
	args := m.Called(ctx, search)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]utils.SixID), args.Error(1)
}

func (m *MockPropertyService) FindOwnedProperties(ctx context.Context, ownerID utils.SixID, search string, page, limit int) ([]models.Property, int64, error) {
	args := m.Called(ctx, ownerID, search, page, limit)
	if args.Get(0) == nil {
		return nil, 0, args.Error(2)
	}
	return args.Get(0).([]models.Property), args.Get(1).(int64), args.Error(2)
}

func (m *MockPropertyService) AddInterestedParty(ctx context.Context, propertyID, interestID utils.SixID) error {
	args := m.Called(ctx, propertyID, interestID)
	return args.Error(0)
}

func (m *MockPropertyService) MarkSold(ctx context.Context, propertyID utils.SixID) (bool, error) {
	args := m.Called(ctx, propertyID)
	return args.Bool(0), args.Error(1)
}

// --- MockInterestService ---
type MockInterestService struct {
	mock.Mock
}

func (m *MockInterestService) CreateInterest(ctx context.Context, userID, agentID, propertyID utils.SixID) (*models.Interest, error) {
	args := m.Called(ctx, userID, agentID, propertyID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Interest), args.Error(1)
}

func (m *MockInterestService) FindActiveInterest(ctx context.Context, userID, propertyID utils.SixID) (*models.Interest, error) {
	args := m.Called(ctx, userID, propertyID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Interest), args.Error(1)
}

func (m *MockInterestService) FindInterestForAgent(ctx context.Context, interestID, userID, propertyID, agentID utils.SixID) (*models.Interest, error) {
	args := m.Called(ctx, interestID, userID, propertyID, agentID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Interest), args.Error(1)
}

func (m *MockInterestService) UpdateStatus(ctx context.Context, interest *models.Interest, newStatus models.InterestStatus) (*models.Interest, error) {
	args := m.Called(ctx, interest, newStatus)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Interest), args.Error(1)
}

func (m *MockInterestService) Withdraw(ctx context.Context, userID, agentID, propertyID utils.SixID, reason string) (*models.Interest, error) {
	args := m.Called(ctx, userID, agentID, propertyID, reason)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Interest), args.Error(1)
}

func (m *MockInterestService) FindFinalizedInterest(ctx context.Context, propertyID utils.SixID) (*models.Interest, error) {
	args := m.Called(ctx, propertyID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Interest), args.Error(1)
}

func (m *MockInterestService) ListUserInterests(ctx context.Context, userID utils.SixID, propertyIDs []utils.SixID, page, limit int) ([]models.Interest, int64, error) {
	args := m.Called(ctx, userID, propertyIDs, page, limit)
	if args.Get(0) == nil {
		return nil, 0, args.Error(2)
	}
	return args.Get(0).([]models.Interest), args.Get(1).(int64), args.Error(2)
}

func (m *MockInterestService) FindInterestsByProperties(ctx context.Context, propertyIDs []utils.SixID) (map[utils.SixID][]models.Interest, error) {
	args := m.Called(ctx, propertyIDs)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[utils.SixID][]models.Interest), args.Error(1)
}

func (m *MockInterestService) FindFinalizedPropertyIDs(ctx context.Context) ([]utils.SixID, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]utils.SixID), args.Error(1)
}

// --- MockNotificationService ---
type MockNotificationService struct {
	mock.Mock
}

func (m *MockNotificationService) FindOrCreate(ctx context.Context, key models.ThreadKey) (*models.Notification, error) {
	args := m.Called(ctx, key)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Notification), args.Error(1)
}

func (m *MockNotificationService) RecordEvent(ctx context.Context, key models.ThreadKey, threadType models.ThreadType, message *models.ThreadMessage) (*models.Notification, error) {
	args := m.Called(ctx, key, threadType, message)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Notification), args.Error(1)
}

func (m *MockNotificationService) AppendMessage(ctx context.Context, key models.ThreadKey, senderID utils.SixID, content string) (*models.Notification, error) {
	args := m.Called(ctx, key, senderID, content)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Notification), args.Error(1)
}

func (m *MockNotificationService) Reply(ctx context.Context, threadID, callerID utils.SixID, content string) (*models.Notification, error) {
	args := m.Called(ctx, threadID, callerID, content)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Notification), args.Error(1)
}

func (m *MockNotificationService) ToggleRead(ctx context.Context, threadID, callerID utils.SixID) (bool, error) {
	args := m.Called(ctx, threadID, callerID)
	return args.Bool(0), args.Error(1)
}

func (m *MockNotificationService) MarkAllRead(ctx context.Context, callerID utils.SixID) (int64, error) {
	args := m.Called(ctx, callerID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockNotificationService) Hide(ctx context.Context, threadID, callerID utils.SixID) error {
	args := m.Called(ctx, threadID, callerID)
	return args.Error(0)
}

func (m *MockNotificationService) HideAll(ctx context.Context, callerID utils.SixID) (int64, error) {
	args := m.Called(ctx, callerID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockNotificationService) List(ctx context.Context, callerID utils.SixID) ([]models.NotificationView, error) {
	args := m.Called(ctx, callerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.NotificationView), args.Error(1)
}

func (m *MockNotificationService) PurgeHiddenByBoth(ctx context.Context) (int64, error) {
	args := m.Called(ctx)
	return args.Get(0).(int64), args.Error(1)
}

// --- MockLocker ---
type MockLocker struct {
	mock.Mock
}

func (m *MockLocker) Acquire(ctx context.Context, key string, ttl, wait time.Duration) (cache.ReleaseFunc, error) {
	args := m.Called(ctx, key, ttl, wait)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(cache.ReleaseFunc), args.Error(1)
}

// --- MockTaskEnqueuer ---
type MockTaskEnqueuer struct {
	mock.Mock
}

func (m *MockTaskEnqueuer) EnqueuePropertyReconcile(ctx context.Context, propertyID utils.SixID) error {
	args := m.Called(ctx, propertyID)
	return args.Error(0)
}
