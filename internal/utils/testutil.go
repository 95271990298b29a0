package utils

import (
	"context"
	"os"
	"path/filepath"
	"runtime"
	"sync"
	"testing"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

var (
	testMongoURI  string
	testRedisAddr string
	loadEnvOnce   sync.Once
)

// loadTestEnv loads the project .env file once and picks up the test endpoints.
func loadTestEnv() {
	loadEnvOnce.Do(func() {
		_, filename, _, _ := runtime.Caller(0)
		// Project root is 2 levels up from this file
		projectRoot := filepath.Join(filepath.Dir(filename), "..", "..")
		if err := godotenv.Load(filepath.Join(projectRoot, ".env")); err != nil {
			godotenv.Load()
		}
		testMongoURI = os.Getenv("MONGO_URI_TEST")
		testRedisAddr = os.Getenv("REDIS_ADDR_TEST")
	})
}

// SetupTestDB connects to the test MongoDB and drops the given collections for a clean state.
// The test is skipped when MONGO_URI_TEST is not configured.
func SetupTestDB(t *testing.T, dbName string, collections ...string) *mongo.Database {
	t.Helper()
	loadTestEnv()
	if testMongoURI == "" {
		t.Skip("MONGO_URI_TEST not set, skipping MongoDB-backed test")
	}

	client, err := mongo.Connect(context.Background(), options.Client().ApplyURI(testMongoURI))
	require.NoError(t, err, "Failed to connect to MongoDB")
	t.Cleanup(func() { _ = client.Disconnect(context.Background()) })

	db := client.Database(dbName)
	for _, collection := range collections {
		_ = db.Collection(collection).Drop(context.Background())
	}
	return db
}

// GetTestMongoURI returns the test MongoDB URI, empty when not configured.
func GetTestMongoURI() string {
	loadTestEnv()
	return testMongoURI
}

// SetupTestRedis connects to the test Redis and flushes its current database.
// The test is skipped when REDIS_ADDR_TEST is not configured.
func SetupTestRedis(t *testing.T) *redis.Client {
	t.Helper()
	loadTestEnv()
	if testRedisAddr == "" {
		t.Skip("REDIS_ADDR_TEST not set, skipping Redis-backed test")
	}

	client := redis.NewClient(&redis.Options{Addr: testRedisAddr})
	require.NoError(t, client.Ping(context.Background()).Err(), "Failed to connect to Redis")
	require.NoError(t, client.FlushDB(context.Background()).Err())
	t.Cleanup(func() { _ = client.Close() })
	return client
}
