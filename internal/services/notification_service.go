package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"estatehub/marketplace/internal/db"
	"estatehub/marketplace/internal/errs"
	"estatehub/marketplace/internal/models"
	"estatehub/marketplace/internal/utils"
)

// INotificationService stores the one conversation thread per (user, agent, property).
type INotificationService interface {
	FindOrCreate(ctx context.Context, key models.ThreadKey) (*models.Notification, error)
	RecordEvent(ctx context.Context, key models.ThreadKey, threadType models.ThreadType, message *models.ThreadMessage) (*models.Notification, error)
	AppendMessage(ctx context.Context, key models.ThreadKey, senderID utils.SixID, content string) (*models.Notification, error)
	Reply(ctx context.Context, threadID, callerID utils.SixID, content string) (*models.Notification, error)
	ToggleRead(ctx context.Context, threadID, callerID utils.SixID) (bool, error)
	MarkAllRead(ctx context.Context, callerID utils.SixID) (int64, error)
	Hide(ctx context.Context, threadID, callerID utils.SixID) error
	HideAll(ctx context.Context, callerID utils.SixID) (int64, error)
	List(ctx context.Context, callerID utils.SixID) ([]models.NotificationView, error)
	PurgeHiddenByBoth(ctx context.Context) (int64, error)
}

// notificationService implements INotificationService.
type notificationService struct {
	db *mongo.Database
}

// NewNotificationService creates a new NotificationService.
func NewNotificationService(db *mongo.Database) INotificationService {
	return &notificationService{db: db}
}

func (s *notificationService) collection() *mongo.Collection {
	return s.db.Collection(db.NotificationsCollection)
}

func keyFilter(key models.ThreadKey) bson.M {
	return bson.M{"user": key.UserID, "agent": key.AgentID, "property": key.PropertyID}
}

// partyFilter matches threads where callerID is either participant.
func partyFilter(callerID utils.SixID) bson.A {
	return bson.A{bson.M{"user": callerID}, bson.M{"agent": callerID}}
}

// upsert applies update to the thread for key, creating it first if needed. Two writers racing
// to create the same thread collide on the key index; the loser retries and takes the update path.
func (s *notificationService) upsert(ctx context.Context, key models.ThreadKey, build func(newID utils.SixID) bson.M) (*models.Notification, error) {
	opts := options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After)

	var thread models.Notification
	err := db.Try(func() error {
		return s.collection().FindOneAndUpdate(ctx, keyFilter(key), build(utils.NewSixID()), opts).Decode(&thread)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to upsert thread: %w", err)
	}
	return &thread, nil
}

// FindOrCreate returns the thread for key without touching an existing one.
func (s *notificationService) FindOrCreate(ctx context.Context, key models.ThreadKey) (*models.Notification, error) {
	return s.upsert(ctx, key, func(newID utils.SixID) bson.M {
		now := time.Now().UTC()
		return bson.M{"$setOnInsert": bson.M{
			"_id":        newID,
			"type":       models.ThreadTypeMessage,
			"messages":   bson.A{},
			"read_by":    bson.A{},
			"deleted_by": bson.A{},
			"created_at": now,
			"updated_at": now,
		}}
	})
}

// RecordEvent marks a substantive event on the thread: the type is set, both parties see it
// as unread and undeleted again, and message, when given, is appended.
func (s *notificationService) RecordEvent(ctx context.Context, key models.ThreadKey, threadType models.ThreadType, message *models.ThreadMessage) (*models.Notification, error) {
	if !threadType.Valid() {
		return nil, errs.NewValidationError(fmt.Sprintf("unknown thread type %q", threadType))
	}

	return s.upsert(ctx, key, func(newID utils.SixID) bson.M {
		now := time.Now().UTC()
		onInsert := bson.M{"_id": newID, "created_at": now}
		update := bson.M{
			"$set": bson.M{
				"type":       threadType,
				"read_by":    bson.A{},
				"deleted_by": bson.A{},
				"updated_at": now,
			},
			"$setOnInsert": onInsert,
		}
		if message != nil {
			msg := *message
			if msg.Timestamp.IsZero() {
				msg.Timestamp = now
			}
			update["$push"] = bson.M{"messages": msg}
		} else {
			onInsert["messages"] = bson.A{}
		}
		return update
	})
}

// AppendMessage adds a message from senderID and marks the thread as a message thread.
func (s *notificationService) AppendMessage(ctx context.Context, key models.ThreadKey, senderID utils.SixID, content string) (*models.Notification, error) {
	return s.RecordEvent(ctx, key, models.ThreadTypeMessage, &models.ThreadMessage{
		Sender:  senderID,
		Content: content,
	})
}

// Reply appends a message to an existing thread. Callers who are not a party get not found.
func (s *notificationService) Reply(ctx context.Context, threadID, callerID utils.SixID, content string) (*models.Notification, error) {
	now := time.Now().UTC()
	filter := bson.M{"_id": threadID, "$or": partyFilter(callerID)}
	update := bson.M{
		"$set": bson.M{
			"type":       models.ThreadTypeMessage,
			"read_by":    bson.A{},
			"deleted_by": bson.A{},
			"updated_at": now,
		},
		"$push": bson.M{"messages": models.ThreadMessage{Sender: callerID, Content: content, Timestamp: now}},
	}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var thread models.Notification
	if err := s.collection().FindOneAndUpdate(ctx, filter, update, opts).Decode(&thread); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, errs.NewNotFoundError("Notification not found")
		}
		return nil, fmt.Errorf("failed to reply on thread %s: %w", threadID.String(), err)
	}
	return &thread, nil
}

// ToggleRead flips whether callerID has read the thread and returns the new state.
// The flip happens in a single pipeline update so concurrent toggles cannot lose one another.
func (s *notificationService) ToggleRead(ctx context.Context, threadID, callerID utils.SixID) (bool, error) {
	filter := bson.M{"_id": threadID, "$or": partyFilter(callerID)}
	readBy := bson.D{{Key: "$ifNull", Value: bson.A{"$read_by", bson.A{}}}}
	pipeline := mongo.Pipeline{
		{{Key: "$set", Value: bson.D{{Key: "read_by", Value: bson.D{{Key: "$cond", Value: bson.A{
			bson.D{{Key: "$in", Value: bson.A{callerID, readBy}}},
			bson.D{{Key: "$setDifference", Value: bson.A{readBy, bson.A{callerID}}}},
			bson.D{{Key: "$concatArrays", Value: bson.A{readBy, bson.A{callerID}}}},
		}}}}}}},
	}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var thread models.Notification
	if err := s.collection().FindOneAndUpdate(ctx, filter, pipeline, opts).Decode(&thread); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return false, errs.NewNotFoundError("Notification not found")
		}
		return false, fmt.Errorf("failed to toggle read on thread %s: %w", threadID.String(), err)
	}
	return thread.IsReadBy(callerID), nil
}

// MarkAllRead marks every thread callerID takes part in as read by them.
func (s *notificationService) MarkAllRead(ctx context.Context, callerID utils.SixID) (int64, error) {
	result, err := s.collection().UpdateMany(ctx,
		bson.M{"$or": partyFilter(callerID)},
		bson.M{"$addToSet": bson.M{"read_by": callerID}},
	)
	if err != nil {
		return 0, fmt.Errorf("failed to mark all threads read: %w", err)
	}
	return result.ModifiedCount, nil
}

// Hide removes the thread from callerID's list. The other party still sees it.
func (s *notificationService) Hide(ctx context.Context, threadID, callerID utils.SixID) error {
	result, err := s.collection().UpdateOne(ctx,
		bson.M{"_id": threadID, "$or": partyFilter(callerID)},
		bson.M{"$addToSet": bson.M{"deleted_by": callerID}},
	)
	if err != nil {
		return fmt.Errorf("failed to hide thread %s: %w", threadID.String(), err)
	}
	if result.MatchedCount == 0 {
		return errs.NewNotFoundError("Notification not found")
	}
	return nil
}

// HideAll hides every thread callerID takes part in, for callerID only.
func (s *notificationService) HideAll(ctx context.Context, callerID utils.SixID) (int64, error) {
	result, err := s.collection().UpdateMany(ctx,
		bson.M{"$or": partyFilter(callerID)},
		bson.M{"$addToSet": bson.M{"deleted_by": callerID}},
	)
	if err != nil {
		return 0, fmt.Errorf("failed to hide all threads: %w", err)
	}
	return result.ModifiedCount, nil
}

// List returns the threads visible to callerID, most recently active first.
func (s *notificationService) List(ctx context.Context, callerID utils.SixID) ([]models.NotificationView, error) {
	filter := bson.M{
		"$or":        partyFilter(callerID),
		"deleted_by": bson.M{"$ne": callerID},
	}
	opts := options.Find().SetSort(bson.D{{Key: "updated_at", Value: -1}, {Key: "_id", Value: 1}})
	cursor, err := s.collection().Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to list threads: %w", err)
	}
	var threads []models.Notification
	if err := cursor.All(ctx, &threads); err != nil {
		return nil, fmt.Errorf("failed to decode threads: %w", err)
	}

	views := make([]models.NotificationView, 0, len(threads))
	for i := range threads {
		views = append(views, threads[i].ViewFor(callerID))
	}
	return views, nil
}

// PurgeHiddenByBoth deletes threads both participants have hidden.
func (s *notificationService) PurgeHiddenByBoth(ctx context.Context) (int64, error) {
	deletedBy := bson.D{{Key: "$ifNull", Value: bson.A{"$deleted_by", bson.A{}}}}
	filter := bson.M{"$expr": bson.D{{Key: "$and", Value: bson.A{
		bson.D{{Key: "$in", Value: bson.A{"$user", deletedBy}}},
		bson.D{{Key: "$in", Value: bson.A{"$agent", deletedBy}}},
	}}}}
	result, err := s.collection().DeleteMany(ctx, filter)
	if err != nil {
		return 0, fmt.Errorf("failed to purge hidden threads: %w", err)
	}
	return result.DeletedCount, nil
}
