package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"estatehub/marketplace/internal/config"
	"estatehub/marketplace/internal/db"
	"estatehub/marketplace/internal/errs"
	"estatehub/marketplace/internal/models"
	"estatehub/marketplace/internal/utils"
)

type bookingStack struct {
	database      *mongo.Database
	properties    IPropertyService
	interests     IInterestService
	notifications INotificationService
	booking       IBookingService
}

func newBookingStack(t *testing.T) (*bookingStack, func(owner utils.SixID, name string) *models.Property) {
	t.Helper()
	database := setupBookingDB(t)
	cfg := &config.Config{
		FinalizeLockTTL:  time.Second,
		FinalizeLockWait: 100 * time.Millisecond,
		ListDefaultLimit: 5,
		ListMaxLimit:     50,
	}
	stack := &bookingStack{
		database:      database,
		properties:    NewPropertyService(database),
		interests:     NewInterestService(database),
		notifications: NewNotificationService(database),
	}
	stack.booking = NewBookingService(cfg, stack.properties, stack.interests, stack.notifications, nil, nil)
	seed := func(owner utils.SixID, name string) *models.Property {
		return seedProperty(t, database, owner, name)
	}
	return stack, seed
}

func TestBookingFlow_ExpressInterest(t *testing.T) {
	stack, seed := newBookingStack(t)
	ctx := context.Background()
	agent, user := utils.NewSixID(), utils.NewSixID()
	property := seed(agent, "Harbour Loft")

	interest, err := stack.booking.ExpressInterest(ctx, user, property.ID)
	require.NoError(t, err)
	assert.Equal(t, models.InterestPending, interest.Status)
	assert.Equal(t, agent, interest.AgentID)

	reloaded, err := stack.properties.FindPropertyByID(ctx, property.ID)
	require.NoError(t, err)
	assert.Contains(t, reloaded.InterestedParties, interest.ID)

	agentThreads, err := stack.notifications.List(ctx, agent)
	require.NoError(t, err)
	require.Len(t, agentThreads, 1)
	assert.Equal(t, models.ThreadTypeInterest, agentThreads[0].Type)
	assert.Equal(t, models.AudienceAgent, agentThreads[0].NotificationFor)
	assert.False(t, agentThreads[0].IsRead)

	_, err = stack.booking.ExpressInterest(ctx, user, property.ID)
	assert.True(t, errs.HasCode(err, errs.CodeDuplicateInterest))

	_, err = stack.booking.ExpressInterest(ctx, agent, property.ID)
	assert.True(t, errs.HasCode(err, errs.CodeSelfInterest))
}

func TestBookingFlow_DoubleFinalize(t *testing.T) {
	stack, seed := newBookingStack(t)
	ctx := context.Background()
	agent, alice, bob := utils.NewSixID(), utils.NewSixID(), utils.NewSixID()
	property := seed(agent, "Garden Cottage")

	first, err := stack.booking.ExpressInterest(ctx, alice, property.ID)
	require.NoError(t, err)
	second, err := stack.booking.ExpressInterest(ctx, bob, property.ID)
	require.NoError(t, err)

	_, err = stack.booking.UpdateInterestStatus(ctx, agent, first.ID, alice, property.ID, models.InterestFinalized)
	require.NoError(t, err)

	_, err = stack.booking.UpdateInterestStatus(ctx, agent, second.ID, bob, property.ID, models.InterestFinalized)
	e, ok := errs.As(err)
	require.True(t, ok)
	assert.Equal(t, errs.CodeAlreadyFinalized, e.Code)
	assert.Equal(t, first.ID.String(), e.Details["interestId"])

	reloaded, err := stack.properties.FindPropertyByID(ctx, property.ID)
	require.NoError(t, err)
	assert.Equal(t, models.PropertyStatusSold, reloaded.Status)

	// A stranger cannot touch the interest
	_, err = stack.booking.UpdateInterestStatus(ctx, utils.NewSixID(), second.ID, bob, property.ID, models.InterestRejected)
	assert.True(t, errs.HasCode(err, errs.CodeNotFoundOrUnauthorized))
}

func TestBookingFlow_Cancel(t *testing.T) {
	stack, seed := newBookingStack(t)
	ctx := context.Background()
	agent, user := utils.NewSixID(), utils.NewSixID()
	property := seed(agent, "Loft")

	_, err := stack.booking.ExpressInterest(ctx, user, property.ID)
	require.NoError(t, err)

	// Agent reads and hides, then the cancellation brings the thread back
	threads, err := stack.notifications.List(ctx, agent)
	require.NoError(t, err)
	require.Len(t, threads, 1)
	_, err = stack.notifications.ToggleRead(ctx, threads[0].ID, agent)
	require.NoError(t, err)
	require.NoError(t, stack.notifications.Hide(ctx, threads[0].ID, agent))

	cancelled, err := stack.booking.CancelBooking(ctx, user, agent, property.ID, "found another place")
	require.NoError(t, err)
	assert.Equal(t, models.InterestWithdrawn, cancelled.Status)
	assert.True(t, cancelled.IsCancelled)

	threads, err = stack.notifications.List(ctx, agent)
	require.NoError(t, err)
	require.Len(t, threads, 1)
	assert.Equal(t, models.ThreadTypeBookingCancel, threads[0].Type)
	assert.False(t, threads[0].IsRead)
	require.Len(t, threads[0].Messages, 1)
	assert.Equal(t, user, threads[0].Messages[0].Sender)
	assert.Equal(t, "found another place", threads[0].Messages[0].Content)

	_, err = stack.booking.CancelBooking(ctx, user, agent, property.ID, "again")
	assert.True(t, errs.Is(err, errs.KindNotFound))
}

func TestBookingFlow_TwoMessagesOneThread(t *testing.T) {
	stack, seed := newBookingStack(t)
	ctx := context.Background()
	agent, user := utils.NewSixID(), utils.NewSixID()
	property := seed(agent, "Loft")

	_, err := stack.booking.MessageAgent(ctx, user, property.ID, "Is it available?")
	require.NoError(t, err)
	thread, err := stack.booking.MessageAgent(ctx, user, property.ID, "Can I visit Friday?")
	require.NoError(t, err)

	require.Len(t, thread.Messages, 2)
	views, err := stack.notifications.List(ctx, agent)
	require.NoError(t, err)
	require.Len(t, views, 1)
	assert.Equal(t, thread.ID, views[0].ID)
}

func TestBookingFlow_MyBookingsAndManaged(t *testing.T) {
	stack, seed := newBookingStack(t)
	ctx := context.Background()
	agent, user := utils.NewSixID(), utils.NewSixID()
	loft := seed(agent, "Harbour Loft")
	cottage := seed(agent, "Garden Cottage")

	for _, p := range []*models.Property{loft, cottage} {
		_, err := stack.booking.ExpressInterest(ctx, user, p.ID)
		require.NoError(t, err)
	}

	page, err := stack.booking.MyBookings(ctx, user, 1, 1, "")
	require.NoError(t, err)
	require.Len(t, page.Listings, 1)
	assert.True(t, page.HasMore)

	page, err = stack.booking.MyBookings(ctx, user, 1, 5, "harbour")
	require.NoError(t, err)
	require.Len(t, page.Listings, 1)
	assert.Equal(t, "Harbour Loft", page.Listings[0].Property.Name)

	page, err = stack.booking.MyBookings(ctx, user, 1, 5, "castle")
	require.NoError(t, err)
	assert.Empty(t, page.Listings)

	managed, err := stack.booking.ManagedProperties(ctx, agent, 1, 5, "")
	require.NoError(t, err)
	require.Len(t, managed.Listings, 2)
	for _, view := range managed.Listings {
		assert.Len(t, view.InterestedParties, 1)
	}
}

func TestBookingFlow_ReconcileRepairsMissedCascade(t *testing.T) {
	stack, seed := newBookingStack(t)
	ctx := context.Background()
	agent, user := utils.NewSixID(), utils.NewSixID()
	property := seed(agent, "Loft")

	interest, err := stack.booking.ExpressInterest(ctx, user, property.ID)
	require.NoError(t, err)
	_, err = stack.booking.UpdateInterestStatus(ctx, agent, interest.ID, user, property.ID, models.InterestFinalized)
	require.NoError(t, err)

	// Simulate the lost cascade writes
	_, err = stack.database.Collection(db.PropertiesCollection).UpdateOne(ctx,
		bson.M{"_id": property.ID},
		bson.M{"$set": bson.M{"status": models.PropertyStatusAvailable, "interested_parties": bson.A{}}})
	require.NoError(t, err)

	repaired, err := stack.booking.ReconcileAll(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, repaired)

	reloaded, err := stack.properties.FindPropertyByID(ctx, property.ID)
	require.NoError(t, err)
	assert.Equal(t, models.PropertyStatusSold, reloaded.Status)
	assert.Equal(t, []utils.SixID{interest.ID}, reloaded.InterestedParties)

	repaired, err = stack.booking.ReconcileAll(ctx)
	require.NoError(t, err)
	assert.Zero(t, repaired)
}
