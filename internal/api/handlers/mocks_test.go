package handlers_test

import (
	"context"

	"github.com/stretchr/testify/mock"

	"estatehub/marketplace/internal/models"
	"estatehub/marketplace/internal/utils"
)

// --- MockBookingService ---
type MockBookingService struct {
	mock.Mock
}

func (m *MockBookingService) ExpressInterest(ctx context.Context, callerID, propertyID utils.SixID) (*models.Interest, error) {
	args := m.Called(ctx, callerID, propertyID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Interest), args.Error(1)
}

func (m *MockBookingService) UpdateInterestStatus(ctx context.Context, agentID, interestID, userID, propertyID utils.SixID, status models.InterestStatus) (*models.Interest, error) {
	args := m.Called(ctx, agentID, interestID, userID, propertyID, status)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Interest), args.Error(1)
}

func (m *MockBookingService) CancelBooking(ctx context.Context, callerID, agentID, propertyID utils.SixID, reason string) (*models.Interest, error) {
	args := m.Called(ctx, callerID, agentID, propertyID, reason)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Interest), args.Error(1)
}

func (m *MockBookingService) MessageAgent(ctx context.Context, callerID, propertyID utils.SixID, content string) (*models.Notification, error) {
	args := m.Called(ctx, callerID, propertyID, content)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Notification), args.Error(1)
}

func (m *MockBookingService) MyBookings(ctx context.Context, callerID utils.SixID, page, limit int, search string) (models.Page[models.BookingView], error) {
	args := m.Called(ctx, callerID, page, limit, search)
	return args.Get(0).(models.Page[models.BookingView]), args.Error(1)
}

func (m *MockBookingService) ManagedProperties(ctx context.Context, agentID utils.SixID, page, limit int, search string) (models.Page[models.ManagedPropertyView], error) {
	args := m.Called(ctx, agentID, page, limit, search)
	return args.Get(0).(models.Page[models.ManagedPropertyView]), args.Error(1)
}

func (m *MockBookingService) ReconcileProperty(ctx context.Context, propertyID utils.SixID) (bool, error) {
	args := m.Called(ctx, propertyID)
	return args.Bool(0), args.Error(1)
}

func (m *MockBookingService) ReconcileAll(ctx context.Context) (int, error) {
	args := m.Called(ctx)
	return args.Int(0), args.Error(1)
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
