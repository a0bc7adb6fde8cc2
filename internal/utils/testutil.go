package utils

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"sync"
	"testing"
	"time"

	"github.com/joho/godotenv"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

var loadTestEnvOnce sync.Once

// loadTestEnv loads the project .env so MONGO_URI_TEST can live there.
func loadTestEnv() {
	_, filename, _, _ := runtime.Caller(0)
	projectRoot := filepath.Join(filepath.Dir(filename), "..", "..")
	if err := godotenv.Load(filepath.Join(projectRoot, ".env")); err != nil {
		_ = godotenv.Load()
	}
}

// GetTestMongoURI returns MONGO_URI_TEST, or "" when no test database is configured.
func GetTestMongoURI() string {
	loadTestEnvOnce.Do(loadTestEnv)
	return os.Getenv("MONGO_URI_TEST")
}

// SetupTestDB connects to the test MongoDB and returns a fresh database.
// The test is skipped when MONGO_URI_TEST is not set.
// The database is dropped when the test finishes.
func SetupTestDB(t *testing.T, prefix string) *mongo.Database {
	t.Helper()

	uri := GetTestMongoURI()
	if uri == "" {
		t.Skip("MONGO_URI_TEST not set; skipping MongoDB-backed test")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	require.NoError(t, err, "Failed to connect to MongoDB")
	require.NoError(t, client.Ping(ctx, nil), "Failed to ping MongoDB")

	dbName := fmt.Sprintf("%s_%d", prefix, time.Now().UnixNano())
	db := client.Database(dbName)

	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := db.Drop(ctx); err != nil {
			t.Logf("Failed to drop database %s: %v", dbName, err)
		}
		_ = client.Disconnect(ctx)
	})

	return db
}
