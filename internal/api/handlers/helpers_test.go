package handlers_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"estatehub/marketplace/internal/api/handlers"
	"estatehub/marketplace/internal/api/middleware"
	"estatehub/marketplace/internal/utils"
)

type testAPI struct {
	router        *gin.Engine
	booking       *MockBookingService
	notifications *MockNotificationService
	caller        utils.SixID
}

// newTestAPI mounts the handlers behind a stub that authenticates every request as caller.
func newTestAPI(t *testing.T) *testAPI {
	t.Helper()
	gin.SetMode(gin.TestMode)

	api := &testAPI{
		booking:       new(MockBookingService),
		notifications: new(MockNotificationService),
		caller:        utils.NewSixID(),
	}
	bookingHandler := handlers.NewBookingHandler(api.booking)
	notificationHandler := handlers.NewNotificationHandler(api.booking, api.notifications)

	r := gin.New()
	r.Use(func(c *gin.Context) {
		c.Set(middleware.ContextKeyUserID, api.caller)
		c.Next()
	})
	r.POST("/property/buy-now", bookingHandler.BuyNow)
	r.GET("/property/my/bookings", bookingHandler.MyBookings)
	r.GET("/property/my/property/manage", bookingHandler.ManagedProperties)
	r.POST("/property/my/property/manage/status", bookingHandler.UpdateStatus)
	r.POST("/property/my/bookings/cancel", bookingHandler.CancelBooking)
	r.POST("/notification/chat", notificationHandler.Chat)
	r.POST("/notification/message", notificationHandler.Message)
	r.GET("/notification/list", notificationHandler.List)
	r.POST("/notification/update", notificationHandler.Update)
	api.router = r

	t.Cleanup(func() {
		api.booking.AssertExpectations(t)
		api.notifications.AssertExpectations(t)
	})
	return api
}

func (a *testAPI) do(t *testing.T, method, path string, body any) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	req, err := http.NewRequest(method, path, reader)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	a.router.ServeHTTP(w, req)

	var decoded map[string]any
	if w.Body.Len() > 0 && w.Body.Bytes()[0] == '{' {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &decoded))
	}
	return w, decoded
}
