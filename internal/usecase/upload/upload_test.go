package upload_test

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/jpeg"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ignatzorin/atelier-backend/internal/imageprep"
	"github.com/ignatzorin/atelier-backend/internal/pkg/apperror"
	"github.com/ignatzorin/atelier-backend/internal/storage"
	"github.com/ignatzorin/atelier-backend/internal/usecase/upload"
)

func jpegOf(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.RGBA{R: uint8(x), G: uint8(y), B: 90, A: 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, jpeg.Encode(&buf, img, &jpeg.Options{Quality: 85}))
	return buf.Bytes()
}

func newService() (*upload.Service, *storage.MemoryStore) {
	store := storage.NewMemoryStore("http://media.test")
	svc := upload.NewService(
		imageprep.NewPreparer(imageprep.DefaultLimits(), imageprep.DefaultCompressOptions()),
		storage.NewGateway(store, nil),
		nil,
	)
	return svc, store
}

func TestUploadStoresWebPUnderOwner(t *testing.T) {
	svc, store := newService()
	owner := uuid.New()

	res, err := svc.Upload(context.Background(), owner, imageprep.ScopeWizard, upload.KindCustomer, jpegOf(t, 700, 900))
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(res.Path, owner.String()+"/customer-"))
	assert.True(t, strings.HasSuffix(res.Path, ".webp"))
	assert.Contains(t, res.URL, "http://media.test/order-photos/")

	data, contentType, ok := store.Object(storage.BucketOrderPhotos, res.Path)
	require.True(t, ok)
	assert.Equal(t, "image/webp", contentType)
	assert.Equal(t, res.Size, len(data))
}

func TestUploadCustomerPhotoRequiresQuality(t *testing.T) {
	svc, store := newService()

	_, err := svc.Upload(context.Background(), uuid.New(), imageprep.ScopeWizard, upload.KindCustomer, jpegOf(t, 300, 400))
	assert.True(t, apperror.IsValidation(err))
	assert.Equal(t, 0, store.Len())
}

func TestUploadStylePhotoSkipsQuality(t *testing.T) {
	svc, _ := newService()

	_, err := svc.Upload(context.Background(), uuid.New(), imageprep.ScopeWizard, upload.KindStyle, jpegOf(t, 300, 400))
	assert.NoError(t, err)
}

func TestUploadRequiresIdentity(t *testing.T) {
	svc, _ := newService()

	_, err := svc.Upload(context.Background(), uuid.Nil, imageprep.ScopeGeneral, upload.KindGeneral, jpegOf(t, 100, 100))
	assert.True(t, apperror.IsUnauthorized(err))
}

func TestRemoveOnlyOwnPhotos(t *testing.T) {
	svc, store := newService()
	owner := uuid.New()

	res, err := svc.Upload(context.Background(), owner, imageprep.ScopeGeneral, upload.KindStyle, jpegOf(t, 200, 200))
	require.NoError(t, err)

	err = svc.Remove(context.Background(), uuid.New(), res.Path)
	assert.True(t, apperror.IsForbidden(err))

	require.NoError(t, svc.Remove(context.Background(), owner, res.Path))
	require.NoError(t, svc.Remove(context.Background(), owner, res.Path))
	assert.Equal(t, 0, store.Len())
}

func TestParseKind(t *testing.T) {
	k, err := upload.ParseKind("Customer")
	require.NoError(t, err)
	assert.Equal(t, upload.KindCustomer, k)

	_, err = upload.ParseKind("selfie")
	assert.True(t, apperror.IsValidation(err))
}
