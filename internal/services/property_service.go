package services

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"estatehub/marketplace/internal/db"
	"estatehub/marketplace/internal/errs"
	"estatehub/marketplace/internal/models"
	"estatehub/marketplace/internal/utils"
)

// IPropertyService is the slice of the property registry the booking core depends on.
// Listing CRUD lives elsewhere; only the interested-party list and the sold cascade are written here.
type IPropertyService interface {
	FindPropertyByID(ctx context.Context, propertyID utils.SixID) (*models.Property, error)
	FindPropertiesByIDs(ctx context.Context, propertyIDs []utils.SixID) (map[utils.SixID]*models.Property, error)
	FindPropertyIDsByName(ctx context.Context, search string) ([]utils.SixID, error)
	FindOwnedProperties(ctx context.Context, ownerID utils.SixID, search string, page, limit int) ([]models.Property, int64, error)
	AddInterestedParty(ctx context.Context, propertyID, interestID utils.SixID) error
	MarkSold(ctx context.Context, propertyID utils.SixID) (bool, error)
}

// propertyService implements IPropertyService.
type propertyService struct {
	db *mongo.Database
}

// NewPropertyService creates a new PropertyService.
func NewPropertyService(db *mongo.Database) IPropertyService {
	return &propertyService{db: db}
}

func (s *propertyService) collection() *mongo.Collection {
	return s.db.Collection(db.PropertiesCollection)
}

// FindPropertyByID returns the property or a not found error.
func (s *propertyService) FindPropertyByID(ctx context.Context, propertyID utils.SixID) (*models.Property, error) {
	var property models.Property
	err := s.collection().FindOne(ctx, bson.M{"_id": propertyID}).Decode(&property)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, errs.NewNotFoundError("Property not found")
		}
		return nil, fmt.Errorf("error finding property by ID %s: %w", propertyID.String(), err)
	}
	return &property, nil
}

// FindPropertiesByIDs loads the given properties keyed by id. Missing ids are simply absent.
func (s *propertyService) FindPropertiesByIDs(ctx context.Context, propertyIDs []utils.SixID) (map[utils.SixID]*models.Property, error) {
	result := make(map[utils.SixID]*models.Property, len(propertyIDs))
	if len(propertyIDs) == 0 {
		return result, nil
	}

	cursor, err := s.collection().Find(ctx, bson.M{"_id": bson.M{"$in": propertyIDs}})
	if err != nil {
		return nil, fmt.Errorf("error finding properties: %w", err)
	}
	var properties []models.Property
	if err := cursor.All(ctx, &properties); err != nil {
		return nil, fmt.Errorf("error decoding properties: %w", err)
	}
	for i := range properties {
		result[properties[i].ID] = &properties[i]
	}
	return result, nil
}

// nameFilter matches the search text literally, case-insensitively, anywhere in the name.
func nameFilter(search string) primitive.Regex {
	return primitive.Regex{Pattern: regexp.QuoteMeta(search), Options: "i"}
}

// FindPropertyIDsByName returns the ids of every property whose name contains search.
func (s *propertyService) FindPropertyIDsByName(ctx context.Context, search string) ([]utils.SixID, error) {
	opts := options.Find().SetProjection(bson.M{"_id": 1})
	cursor, err := s.collection().Find(ctx, bson.M{"name": nameFilter(search)}, opts)
	if err != nil {
		return nil, fmt.Errorf("error searching properties by name: %w", err)
	}
	var rows []struct {
		ID utils.SixID `bson:"_id"`
	}
	if err := cursor.All(ctx, &rows); err != nil {
		return nil, fmt.Errorf("error decoding property ids: %w", err)
	}
	ids := make([]utils.SixID, 0, len(rows))
	for _, row := range rows {
		ids = append(ids, row.ID)
	}
	return ids, nil
}

// FindOwnedProperties returns one page of the owner's properties, newest first, and the total count.
func (s *propertyService) FindOwnedProperties(ctx context.Context, ownerID utils.SixID, search string, page, limit int) ([]models.Property, int64, error) {
	filter := bson.M{"owner": ownerID}
	if search != "" {
		filter["name"] = nameFilter(search)
	}

	total, err := s.collection().CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, fmt.Errorf("error counting owned properties: %w", err)
	}

	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: 1}}).
		SetSkip(int64((page - 1) * limit)).
		SetLimit(int64(limit))
	cursor, err := s.collection().Find(ctx, filter, opts)
	if err != nil {
		return nil, 0, fmt.Errorf("error finding owned properties: %w", err)
	}
	properties := []models.Property{}
	if err := cursor.All(ctx, &properties); err != nil {
		return nil, 0, fmt.Errorf("error decoding owned properties: %w", err)
	}
	return properties, total, nil
}

// AddInterestedParty records the interest on the property. Repeating it is a no-op.
func (s *propertyService) AddInterestedParty(ctx context.Context, propertyID, interestID utils.SixID) error {
	update := bson.M{
		"$addToSet": bson.M{"interested_parties": interestID},
		"$set":      bson.M{"updated_at": time.Now().UTC()},
	}
	result, err := s.collection().UpdateOne(ctx, bson.M{"_id": propertyID}, update)
	if err != nil {
		return fmt.Errorf("db error adding interested party to property %s: %w", propertyID.String(), err)
	}
	if result.MatchedCount == 0 {
		return errs.NewNotFoundError("Property not found")
	}
	return nil
}

// MarkSold moves the property to sold. It reports whether the status actually changed,
// so a repeated call is a successful no-op.
func (s *propertyService) MarkSold(ctx context.Context, propertyID utils.SixID) (bool, error) {
	filter := bson.M{"_id": propertyID, "status": bson.M{"$ne": models.PropertyStatusSold}}
	update := bson.M{"$set": bson.M{
		"status":     models.PropertyStatusSold,
		"updated_at": time.Now().UTC(),
	}}
	result, err := s.collection().UpdateOne(ctx, filter, update)
	if err != nil {
		return false, fmt.Errorf("db error marking property %s sold: %w", propertyID.String(), err)
	}
	if result.ModifiedCount > 0 {
		return true, nil
	}

	// Nothing changed: either already sold or gone
	count, err := s.collection().CountDocuments(ctx, bson.M{"_id": propertyID})
	if err != nil {
		return false, fmt.Errorf("db error checking property %s: %w", propertyID.String(), err)
	}
	if count == 0 {
		return false, errs.NewNotFoundError("Property not found")
	}
	return false, nil
}
