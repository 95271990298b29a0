package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/mongo"

	"estatehub/marketplace/internal/db"
	"estatehub/marketplace/internal/models"
	"estatehub/marketplace/internal/utils"
)

const bookingTestDBName = "marketplace_services_test"

// setupBookingDB returns a clean database with the production indexes in place.
func setupBookingDB(t *testing.T) *mongo.Database {
	t.Helper()
	database := utils.SetupTestDB(t, bookingTestDBName,
		db.PropertiesCollection, db.InterestsCollection, db.NotificationsCollection)
	require.NoError(t, db.EnsureIndexes(context.Background(), database))
	return database
}

// seedProperty inserts an available property owned by ownerID.
func seedProperty(t *testing.T, database *mongo.Database, ownerID utils.SixID, name string) *models.Property {
	t.Helper()
	now := time.Now().UTC().Truncate(time.Millisecond)
	property := &models.Property{
		Base:              models.NewBase(),
		Name:              name,
		OwnerID:           ownerID,
		Price:             250000,
		PropertyType:      "sale",
		Status:            models.PropertyStatusAvailable,
		IsActive:          true,
		InterestedParties: []utils.SixID{},
	}
	property.Stamp(now)
	_, err := database.Collection(db.PropertiesCollection).InsertOne(context.Background(), property)
	require.NoError(t, err)
	return property
}
