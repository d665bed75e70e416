package qdrant

import (
	"context"
	"fmt"
	"math"
	"math/rand"
	"net"
	"os"
	"strconv"
	"testing"
	"time"

	"github.com/docker/docker/api/types/container"
	"github.com/docker/go-connections/nat"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
	"go.uber.org/fx"
	"go.uber.org/fx/fxtest"
)

// QdrantContainer represents a Qdrant container for testing
type QdrantContainer struct {
	testcontainers.Container
	Host string
	Port string
}

// setupQdrantContainer sets up a Qdrant container for testing
func setupQdrantContainer(ctx context.Context) (*QdrantContainer, error) {
	port, err := getFreePort()
	if err != nil {
		return nil, fmt.Errorf("could not get free port: %w", err)
	}

	portStr := fmt.Sprintf("%d", port)
	portBindings := nat.PortMap{
		"6334/tcp": []nat.PortBinding{{HostPort: portStr}},
	}

	req := testcontainers.ContainerRequest{
		Image: "qdrant/qdrant:v1.11.0",
		Env: map[string]string{
			"QDRANT__SERVICE__GRPC_PORT": "6334",
		},
		ExposedPorts: []string{"6334/tcp"},
		HostConfigModifier: func(cfg *container.HostConfig) {
			cfg.PortBindings = portBindings
		},
		WaitingFor: wait.ForListeningPort("6334/tcp").WithStartupTimeout(60 * time.Second),
	}

	qdrantContainer, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to start qdrant container: %w", err)
	}

	host, err := qdrantContainer.Host(ctx)
	if err != nil {
		_ = qdrantContainer.Terminate(ctx)
		return nil, fmt.Errorf("failed to get host: %w", err)
	}

	mappedPort, err := qdrantContainer.MappedPort(ctx, "6334")
	if err != nil {
		_ = qdrantContainer.Terminate(ctx)
		return nil, fmt.Errorf("failed to get mapped port: %w", err)
	}

	portStr = mappedPort.Port()

	if err := waitForQdrantReady(host, portStr, 30*time.Second); err != nil {
		_ = qdrantContainer.Terminate(ctx)
		return nil, fmt.Errorf("qdrant container not ready: %w", err)
	}

	return &QdrantContainer{
		Container: qdrantContainer,
		Host:      host,
		Port:      portStr,
	}, nil
}

// getFreePort gets a free port from the OS
func getFreePort() (int, error) {
	addr, err := net.Listen("tcp", "localhost:0")
	if err != nil {
		return 0, err
	}
	defer func(addr net.Listener) {
		if err := addr.Close(); err != nil {
			fmt.Printf("Failed to close listener: %v", err)
		}
	}(addr)

	return addr.Addr().(*net.TCPAddr).Port, nil
}

// waitForQdrantReady attempts to connect to Qdrant until it's ready or times out
func waitForQdrantReady(host, port string, timeout time.Duration) error {
	startTime := time.Now()
	for {
		if time.Since(startTime) > timeout {
			return fmt.Errorf("timed out waiting for Qdrant to be ready after %s", timeout)
		}

		conn, err := net.DialTimeout("tcp", net.JoinHostPort(host, port), 2*time.Second)
		if err == nil {
			_ = conn.Close()
			time.Sleep(2 * time.Second)
			return nil
		}

		time.Sleep(500 * time.Millisecond)
	}
}

func TestMain(m *testing.M) {
	code := m.Run()
	os.Exit(code)
}

// unitVector produces a random L2-normalized vector, matching what the
// embedding provider hands the index in production.
func unitVector(dim int, rng *rand.Rand) []float32 {
	v := make([]float32, dim)
	var norm float64
	for i := range v {
		v[i] = float32(rng.NormFloat64())
		norm += float64(v[i]) * float64(v[i])
	}
	norm = math.Sqrt(norm)
	for i := range v {
		v[i] = float32(float64(v[i]) / norm)
	}
	return v
}

func TestIndexWithFXModule(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	ctx := context.Background()
	containerInstance, err := setupQdrantContainer(ctx)
	require.NoError(t, err)
	defer func() {
		if err := containerInstance.Terminate(ctx); err != nil {
			t.Fatalf("failed to terminate container: %s", err)
		}
	}()

	t.Logf("Using Qdrant on %s:%s", containerInstance.Host, containerInstance.Port)

	portNum, err := strconv.Atoi(containerInstance.Port)
	require.NoError(t, err)

	var index *Index

	app := fxtest.New(t,
		fx.Provide(
			func() *Config {
				return &Config{
					Endpoint:           containerInstance.Host,
					Port:               portNum,
					Collection:         "product_images_test",
					VectorSize:         64,
					CheckCompatibility: false,
					Timeout:            10 * time.Second,
				}
			},
		),
		FXModule,
		fx.Populate(&index),
	)

	err = app.Start(ctx)
	require.NoError(t, err)
	defer app.RequireStop()

	require.NotNil(t, index)

	rng := rand.New(rand.NewSource(7))

	t.Run("EnsureCollectionIdempotent", func(t *testing.T) {
		// Collection was created by NewIndex; a second call must be a no-op.
		err := index.EnsureCollection(ctx)
		assert.NoError(t, err)
	})

	t.Run("UpsertAndSelfSimilaritySearch", func(t *testing.T) {
		vec := unitVector(64, rng)
		err := index.Upsert(ctx, PointRecord{
			ID:     "product_001",
			Vector: vec,
			Payload: map[string]any{
				"name":       "Red Mug",
				"category":   "Home",
				"price":      9.99,
				"image_path": "product_001.jpg",
			},
		})
		require.NoError(t, err)

		time.Sleep(1 * time.Second) // Allow time for indexing

		hits, err := index.Search(ctx, SearchParams{Vector: vec, Limit: 5})
		require.NoError(t, err)
		require.NotEmpty(t, hits)

		assert.Equal(t, "product_001", hits[0].ID)
		assert.InDelta(t, 1.0, hits[0].Score, 0.001) // self-similarity
		assert.Equal(t, "Home", hits[0].Payload["category"])
	})

	t.Run("CategoryFilter", func(t *testing.T) {
		electronics := unitVector(64, rng)
		err := index.Upsert(ctx, PointRecord{
			ID:      "product_002",
			Vector:  electronics,
			Payload: map[string]any{"name": "Headphones", "category": "Electronics"},
		})
		require.NoError(t, err)
		time.Sleep(1 * time.Second)

		hits, err := index.Search(ctx, SearchParams{Vector: electronics, Limit: 10, Category: "Electronics"})
		require.NoError(t, err)
		for _, h := range hits {
			assert.Equal(t, "Electronics", h.Payload["category"])
		}

		// Unknown category yields empty results, not an error.
		hits, err = index.Search(ctx, SearchParams{Vector: electronics, Limit: 10, Category: "Nonexistent"})
		require.NoError(t, err)
		assert.Empty(t, hits)
	})

	t.Run("ScoreThreshold", func(t *testing.T) {
		vec := unitVector(64, rng)
		hits, err := index.Search(ctx, SearchParams{Vector: vec, Limit: 10, ScoreThreshold: 0.5})
		require.NoError(t, err)
		for _, h := range hits {
			assert.GreaterOrEqual(t, h.Score, float32(0.5))
		}
	})

	t.Run("BatchInsertAndPaginatedScan", func(t *testing.T) {
		records := make([]PointRecord, 250)
		for i := range records {
			id := fmt.Sprintf("product_%03d", 100+i)
			records[i] = PointRecord{
				ID:      id,
				Vector:  unitVector(64, rng),
				Payload: map[string]any{"name": "Bulk " + id, "category": "Bulk"},
			}
		}

		added, err := index.UpsertBatch(ctx, records, 100)
		require.NoError(t, err)
		assert.Equal(t, 250, added)

		time.Sleep(1 * time.Second)

		// The scan pages through in chunks of 100 and must not truncate.
		points, err := index.GetAll(ctx, 1000)
		require.NoError(t, err)
		assert.GreaterOrEqual(t, len(points), 250)

		// Every scanned point reports its original string id.
		for _, p := range points {
			assert.NotEmpty(t, p.ID)
			assert.Equal(t, p.ID, p.Payload["original_id"])
		}

		// A bounded scan stops at the cap.
		capped, err := index.GetAll(ctx, 50)
		require.NoError(t, err)
		assert.Len(t, capped, 50)
	})

	t.Run("PointCRUD", func(t *testing.T) {
		vec := unitVector(64, rng)
		require.NoError(t, index.Upsert(ctx, PointRecord{
			ID:      "product_777",
			Vector:  vec,
			Payload: map[string]any{"name": "Lamp", "category": "Office"},
		}))

		point, err := index.GetByID(ctx, "product_777")
		require.NoError(t, err)
		require.NotNil(t, point)
		assert.Equal(t, "product_777", point.ID)

		err = index.UpdateMetadata(ctx, "product_777", map[string]any{
			"image_url": "https://shop-images.s3.us-east-1.amazonaws.com/images/product_777.jpg",
		})
		require.NoError(t, err)

		point, err = index.GetByID(ctx, "product_777")
		require.NoError(t, err)
		require.NotNil(t, point)
		assert.NotEmpty(t, point.Payload["image_url"])
		assert.Equal(t, "product_777", point.Payload["original_id"])

		require.NoError(t, index.Delete(ctx, "product_777"))

		point, err = index.GetByID(ctx, "product_777")
		require.NoError(t, err)
		assert.Nil(t, point)
	})

	t.Run("Stats", func(t *testing.T) {
		stats, err := index.Stats(ctx)
		require.NoError(t, err)
		assert.Equal(t, "product_images_test", stats.Name)
		assert.Equal(t, 64, stats.VectorSize)
		assert.Equal(t, "Cosine", stats.Distance)
		assert.Greater(t, stats.Points, uint64(0))
	})
}
