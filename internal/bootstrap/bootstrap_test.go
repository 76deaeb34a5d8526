package bootstrap

import (
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ignatzorin/atelier-backend/internal/config"
)

func allows(t *testing.T, cfg config.StorageConfig, raw string) bool {
	t.Helper()
	policy, err := PhotoURLPolicy(cfg)
	require.NoError(t, err)
	u, err := url.Parse(raw)
	require.NoError(t, err)
	return policy.Allows(u)
}

func TestPhotoURLPolicyFollowsStorageDriver(t *testing.T) {
	local := config.StorageConfig{Driver: "local", LocalPublicURL: "http://localhost:8080/media"}
	assert.True(t, allows(t, local, "http://localhost:8080/media/order-photos/u/customer-1.webp"))
	assert.False(t, allows(t, local, "http://localhost:6379/"))

	minio := config.StorageConfig{Driver: "minio", MinIOEndpoint: "minio:9000"}
	assert.True(t, allows(t, minio, "http://minio:9000/order-photos/u/customer-1.webp"))
	assert.False(t, allows(t, minio, "https://minio:9000/order-photos/u/customer-1.webp"))

	s3 := config.StorageConfig{Driver: "s3", AWSRegion: "eu-central-1"}
	assert.True(t, allows(t, s3, "https://order-photos.s3.eu-central-1.amazonaws.com/u/customer-1.webp"))
	assert.False(t, allows(t, s3, "https://169.254.169.254/latest/meta-data"))

	_, err := PhotoURLPolicy(config.StorageConfig{Driver: "ftp"})
	assert.Error(t, err)
}
