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

// IInterestService is the interest ledger: the durable record of who wants which property
// and how far the agent has taken it.
type IInterestService interface {
	CreateInterest(ctx context.Context, userID, agentID, propertyID utils.SixID) (*models.Interest, error)
	FindActiveInterest(ctx context.Context, userID, propertyID utils.SixID) (*models.Interest, error)
	FindInterestForAgent(ctx context.Context, interestID, userID, propertyID, agentID utils.SixID) (*models.Interest, error)
	UpdateStatus(ctx context.Context, interest *models.Interest, newStatus models.InterestStatus) (*models.Interest, error)
	Withdraw(ctx context.Context, userID, agentID, propertyID utils.SixID, reason string) (*models.Interest, error)
	FindFinalizedInterest(ctx context.Context, propertyID utils.SixID) (*models.Interest, error)
	ListUserInterests(ctx context.Context, userID utils.SixID, propertyIDs []utils.SixID, page, limit int) ([]models.Interest, int64, error)
	FindInterestsByProperties(ctx context.Context, propertyIDs []utils.SixID) (map[utils.SixID][]models.Interest, error)
	FindFinalizedPropertyIDs(ctx context.Context) ([]utils.SixID, error)
}

// interestService implements IInterestService.
type interestService struct {
	db *mongo.Database
}

// NewInterestService creates a new InterestService.
func NewInterestService(db *mongo.Database) IInterestService {
	return &interestService{db: db}
}

func (s *interestService) collection() *mongo.Collection {
	return s.db.Collection(db.InterestsCollection)
}

// CreateInterest inserts a pending interest. A second active interest by the same user on the
// same property is rejected with the id of the one already held.
func (s *interestService) CreateInterest(ctx context.Context, userID, agentID, propertyID utils.SixID) (*models.Interest, error) {
	now := time.Now().UTC()
	interest := &models.Interest{
		UserID:     userID,
		AgentID:    agentID,
		PropertyID: propertyID,
		Status:     models.InterestPending,
	}
	interest.Stamp(now)

	operation := func() error {
		interest.GenID()
		_, err := s.collection().InsertOne(ctx, interest)
		return err
	}
	isIDCollision := func(err error) bool {
		return db.IsDuplicateKeyOnIndex(err, "_id_")
	}

	if err := db.WithRetries(operation, db.DefaultMaxRetries, isIDCollision); err != nil {
		if db.IsDuplicateKeyOnIndex(err, db.ActiveInterestIndex) {
			existing, findErr := s.FindActiveInterest(ctx, userID, propertyID)
			if findErr != nil {
				return nil, fmt.Errorf("failed to load existing interest after duplicate: %w", findErr)
			}
			return nil, errs.DuplicateInterest(existing.ID.String())
		}
		return nil, fmt.Errorf("failed to create interest: %w", err)
	}
	return interest, nil
}

// FindActiveInterest returns the user's non-cancelled interest on the property.
func (s *interestService) FindActiveInterest(ctx context.Context, userID, propertyID utils.SixID) (*models.Interest, error) {
	filter := bson.M{"user": userID, "property": propertyID, "is_cancelled": false}
	var interest models.Interest
	if err := s.collection().FindOne(ctx, filter).Decode(&interest); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, errs.NewNotFoundError("Interest not found")
		}
		return nil, fmt.Errorf("error finding active interest: %w", err)
	}
	return &interest, nil
}

// FindInterestForAgent resolves the full tuple. Any mismatch, including a different agent,
// reads as not found.
func (s *interestService) FindInterestForAgent(ctx context.Context, interestID, userID, propertyID, agentID utils.SixID) (*models.Interest, error) {
	filter := bson.M{
		"_id":      interestID,
		"user":     userID,
		"property": propertyID,
		"agent":    agentID,
	}
	var interest models.Interest
	if err := s.collection().FindOne(ctx, filter).Decode(&interest); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, errs.NotFoundOrUnauthorized()
		}
		return nil, fmt.Errorf("error finding interest %s: %w", interestID.String(), err)
	}
	return &interest, nil
}

// UpdateStatus moves the interest to newStatus, provided nobody changed it since it was read.
func (s *interestService) UpdateStatus(ctx context.Context, interest *models.Interest, newStatus models.InterestStatus) (*models.Interest, error) {
	if !models.CanAgentTransition(interest.Status, newStatus) {
		if !newStatus.AgentSettable() {
			return nil, errs.NewValidationError(fmt.Sprintf("Status %q cannot be set by the agent.", newStatus))
		}
		return nil, errs.NewConflictError(errs.CodeInvalidTransition,
			fmt.Sprintf("Interest is %s and can no longer change.", interest.Status))
	}

	filter := bson.M{"_id": interest.ID, "status": interest.Status}
	update := bson.M{"$set": bson.M{
		"status":     newStatus,
		"updated_at": time.Now().UTC(),
	}}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var updated models.Interest
	err := s.collection().FindOneAndUpdate(ctx, filter, update, opts).Decode(&updated)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, errs.NewConflictError(errs.CodeStaleInterest, "Interest was changed by another request, reload and retry.")
		}
		if db.IsDuplicateKeyOnIndex(err, db.FinalizedPerPropertyIndex) {
			winner, findErr := s.FindFinalizedInterest(ctx, interest.PropertyID)
			if findErr != nil {
				return nil, fmt.Errorf("failed to load finalized interest after duplicate: %w", findErr)
			}
			if winner == nil {
				return nil, errs.AlreadyFinalized("")
			}
			return nil, errs.AlreadyFinalized(winner.ID.String())
		}
		return nil, fmt.Errorf("failed to update interest %s: %w", interest.ID.String(), err)
	}
	return &updated, nil
}

// Withdraw cancels the user's active interest with the given reason.
func (s *interestService) Withdraw(ctx context.Context, userID, agentID, propertyID utils.SixID, reason string) (*models.Interest, error) {
	filter := bson.M{
		"user":         userID,
		"agent":        agentID,
		"property":     propertyID,
		"is_cancelled": false,
		"status":       bson.M{"$ne": models.InterestFinalized},
	}
	update := bson.M{"$set": bson.M{
		"withdraw_reason": reason,
		"status":          models.InterestWithdrawn,
		"is_cancelled":    true,
		"updated_at":      time.Now().UTC(),
	}}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var updated models.Interest
	err := s.collection().FindOneAndUpdate(ctx, filter, update, opts).Decode(&updated)
	if err == nil {
		return &updated, nil
	}
	if !errors.Is(err, mongo.ErrNoDocuments) {
		return nil, fmt.Errorf("failed to withdraw interest: %w", err)
	}

	// Tell a finalized booking apart from a missing one
	finalized := bson.M{
		"user":         userID,
		"agent":        agentID,
		"property":     propertyID,
		"is_cancelled": false,
		"status":       models.InterestFinalized,
	}
	count, countErr := s.collection().CountDocuments(ctx, finalized)
	if countErr != nil {
		return nil, fmt.Errorf("failed to check finalized interest: %w", countErr)
	}
	if count > 0 {
		return nil, errs.NewConflictError(errs.CodeInvalidTransition, "A finalized booking cannot be cancelled.")
	}
	return nil, errs.NewNotFoundError("Booking not found")
}

// FindFinalizedInterest returns the finalized interest on the property, nil when there is none.
func (s *interestService) FindFinalizedInterest(ctx context.Context, propertyID utils.SixID) (*models.Interest, error) {
	filter := bson.M{"property": propertyID, "status": models.InterestFinalized}
	var interest models.Interest
	if err := s.collection().FindOne(ctx, filter).Decode(&interest); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, fmt.Errorf("error finding finalized interest: %w", err)
	}
	return &interest, nil
}

// ListUserInterests pages through the user's interests, most recently updated first.
// A nil propertyIDs means no property filter; an empty one matches nothing.
func (s *interestService) ListUserInterests(ctx context.Context, userID utils.SixID, propertyIDs []utils.SixID, page, limit int) ([]models.Interest, int64, error) {
	filter := bson.M{"user": userID}
	if propertyIDs != nil {
		filter["property"] = bson.M{"$in": propertyIDs}
	}

	total, err := s.collection().CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, fmt.Errorf("error counting user interests: %w", err)
	}

	opts := options.Find().
		SetSort(bson.D{{Key: "updated_at", Value: -1}, {Key: "_id", Value: 1}}).
		SetSkip(int64((page - 1) * limit)).
		SetLimit(int64(limit))
	cursor, err := s.collection().Find(ctx, filter, opts)
	if err != nil {
		return nil, 0, fmt.Errorf("error finding user interests: %w", err)
	}
	interests := []models.Interest{}
	if err := cursor.All(ctx, &interests); err != nil {
		return nil, 0, fmt.Errorf("error decoding user interests: %w", err)
	}
	return interests, total, nil
}

// FindInterestsByProperties groups every interest on the given properties by property.
func (s *interestService) FindInterestsByProperties(ctx context.Context, propertyIDs []utils.SixID) (map[utils.SixID][]models.Interest, error) {
	result := make(map[utils.SixID][]models.Interest, len(propertyIDs))
	if len(propertyIDs) == 0 {
		return result, nil
	}

	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}})
	cursor, err := s.collection().Find(ctx, bson.M{"property": bson.M{"$in": propertyIDs}}, opts)
	if err != nil {
		return nil, fmt.Errorf("error finding interests by property: %w", err)
	}
	var interests []models.Interest
	if err := cursor.All(ctx, &interests); err != nil {
		return nil, fmt.Errorf("error decoding interests: %w", err)
	}
	for _, interest := range interests {
		result[interest.PropertyID] = append(result[interest.PropertyID], interest)
	}
	return result, nil
}

// FindFinalizedPropertyIDs lists every property that has a finalized interest.
// The finalized index guarantees one row per property.
func (s *interestService) FindFinalizedPropertyIDs(ctx context.Context) ([]utils.SixID, error) {
	opts := options.Find().SetProjection(bson.M{"property": 1})
	cursor, err := s.collection().Find(ctx, bson.M{"status": models.InterestFinalized}, opts)
	if err != nil {
		return nil, fmt.Errorf("error listing finalized properties: %w", err)
	}
	var rows []struct {
		PropertyID utils.SixID `bson:"property"`
	}
	if err := cursor.All(ctx, &rows); err != nil {
		return nil, fmt.Errorf("error decoding finalized properties: %w", err)
	}
	ids := make([]utils.SixID, 0, len(rows))
	for _, row := range rows {
		ids = append(ids, row.PropertyID)
	}
	return ids, nil
}
