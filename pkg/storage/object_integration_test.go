package storage

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"testing"
	"time"

	"github.com/docker/docker/api/types/container"
	"github.com/docker/go-connections/nat"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/shopvision/visearch/pkg/catalog"
)

// createMinIOContainer sets up and starts a MinIO Docker container for testing
func createMinIOContainer(ctx context.Context) (testcontainers.Container, string, string, error) {
	port, err := getFreePort()
	if err != nil {
		return nil, "", "", fmt.Errorf("could not get free port: %w", err)
	}

	portStr := fmt.Sprintf("%d", port)
	portBindings := nat.PortMap{
		"9000/tcp": []nat.PortBinding{{HostPort: portStr}},
	}

	req := testcontainers.ContainerRequest{
		Image: "minio/minio:RELEASE.2024-01-16T16-07-38Z",
		Cmd:   []string{"server", "/data"},
		Env: map[string]string{
			"MINIO_ACCESS_KEY": "minio_admin",
			"MINIO_SECRET_KEY": "minio_admin",
		},
		ExposedPorts: []string{
			"9000/tcp",
		},
		HostConfigModifier: func(cfg *container.HostConfig) {
			cfg.PortBindings = portBindings
		},
		WaitingFor: wait.ForAll(
			wait.ForListeningPort("9000/tcp").WithStartupTimeout(20*time.Second),
			wait.ForHTTP("/minio/health/ready").WithPort("9000/tcp").WithStartupTimeout(20*time.Second),
		),
	}

	containerInstance, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		return nil, "", "", fmt.Errorf("failed to start MinIO container: %w", err)
	}

	host, err := containerInstance.Host(ctx)
	if err != nil {
		_ = containerInstance.Terminate(ctx)
		return nil, "", "", fmt.Errorf("failed to get host: %w", err)
	}

	return containerInstance, host, portStr, nil
}

// getFreePort gets a free port from the OS
func getFreePort() (int, error) {
	addr, err := net.Listen("tcp", "localhost:0")
	if err != nil {
		return 0, err
	}
	defer func(addr net.Listener) {
		err := addr.Close()
		if err != nil {
			fmt.Printf("Failed to close listener: %v", err)
		}
	}(addr)

	return addr.Addr().(*net.TCPAddr).Port, nil
}

func TestObjectStoreIntegration(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping object store integration test in short mode")
	}

	ctx := context.Background()
	containerInstance, host, port, err := createMinIOContainer(ctx)
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = containerInstance.Terminate(ctx)
	})

	cfg := ObjectConfig{
		Endpoint:        fmt.Sprintf("%s:%s", host, port),
		AccessKeyID:     "minio_admin",
		SecretAccessKey: "minio_admin",
		UseSSL:          false,
		Bucket:          "visearch-test",
		Region:          "us-east-1",
		ManifestKey:     defaultManifestKey,
		ImagePrefix:     defaultImagePrefix,
	}

	store, err := NewObjectStore(ctx, cfg, nopLogger{})
	require.NoError(t, err)

	t.Run("ManifestMissingThenRoundTrip", func(t *testing.T) {
		products, err := store.LoadManifest(ctx)
		require.NoError(t, err)
		assert.Empty(t, products)

		in := []catalog.Product{
			{ID: "product_001", Name: "Blue Shirt", Category: "Apparel", Price: 29.99},
			{ID: "product_002", Name: "Red Mug", Category: "Kitchen", Price: 9.5},
		}
		require.NoError(t, store.SaveManifest(ctx, in))

		out, err := store.LoadManifest(ctx)
		require.NoError(t, err)
		assert.Equal(t, in, out)
	})

	t.Run("SaveListDeleteImages", func(t *testing.T) {
		name, err := store.SaveImage(ctx, "product_001.png", []byte("png-bytes"))
		require.NoError(t, err)
		assert.Equal(t, "product_001.png", name)

		_, err = store.SaveImage(ctx, "product_002.jpg", []byte("jpg-bytes"))
		require.NoError(t, err)

		names, err := store.ListImages(ctx)
		require.NoError(t, err)
		assert.ElementsMatch(t, []string{"product_001.png", "product_002.jpg"}, names)

		data, err := store.ReadImage(ctx, "product_001.png")
		require.NoError(t, err)
		assert.Equal(t, []byte("png-bytes"), data)

		require.NoError(t, store.DeleteImage(ctx, "product_002.jpg"))

		names, err = store.ListImages(ctx)
		require.NoError(t, err)
		assert.ElementsMatch(t, []string{"product_001.png"}, names)
	})

	t.Run("PublicImageIsReadableAnonymously", func(t *testing.T) {
		_, err := store.SaveImage(ctx, "product_003.png", []byte("public-bytes"))
		require.NoError(t, err)

		url := fmt.Sprintf("http://%s:%s/%s/%sproduct_003.png", host, port, cfg.Bucket, cfg.ImagePrefix)
		resp, err := http.Get(url)
		require.NoError(t, err)
		defer resp.Body.Close()
		assert.Equal(t, http.StatusOK, resp.StatusCode)
	})

	t.Run("ResolveImageBuildsURL", func(t *testing.T) {
		src, ok := store.ResolveImage(ctx, catalog.Product{ID: "product_004", ImagePath: "product_004.jpg"})
		require.True(t, ok)
		assert.Equal(t,
			"https://visearch-test.s3.us-east-1.amazonaws.com/images/product_004.jpg",
			src.URL)

		// Recorded image_url wins over construction.
		src, ok = store.ResolveImage(ctx, catalog.Product{ID: "product_005", ImageURL: "https://cdn.example.com/x.png"})
		require.True(t, ok)
		assert.Equal(t, "https://cdn.example.com/x.png", src.URL)
	})

	t.Run("WriteBackCapability", func(t *testing.T) {
		assert.False(t, store.WritesBackManifest())
	})
}
