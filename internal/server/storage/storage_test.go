package storage

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/png"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/cloudinary/cloudinary-go/v2/api"
	"github.com/cloudinary/cloudinary-go/v2/api/uploader"
	"github.com/dmitrijs2005/datingapp/internal/logging"
	"github.com/dmitrijs2005/datingapp/internal/server/breaker"
	"github.com/dmitrijs2005/datingapp/internal/server/imagesim"
	"github.com/dmitrijs2005/datingapp/internal/server/models"
	"github.com/sony/gobreaker/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func pngBytes(t *testing.T, w, h int, c color.Color) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, c)
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func TestFillCrop_ProducesSquare(t *testing.T) {
	out, err := FillCrop(pngBytes(t, 800, 300, color.RGBA{R: 200, A: 255}), PhotoSize)
	require.NoError(t, err)

	img, err := imagesim.Decode(out)
	require.NoError(t, err)
	assert.Equal(t, PhotoSize, img.Bounds().Dx())
	assert.Equal(t, PhotoSize, img.Bounds().Dy())
}

func TestFillCrop_BadInput(t *testing.T) {
	_, err := FillCrop([]byte("not an image"), PhotoSize)
	assert.ErrorIs(t, err, imagesim.ErrDecode)
}

// --- cloudinary ---

type fakeCloudinary struct {
	uploadParams uploader.UploadParams
	uploadRes    *uploader.UploadResult
	uploadErr    error
	destroyed    string
	destroyRes   *uploader.DestroyResult
	destroyErr   error
}

func (f *fakeCloudinary) Upload(_ context.Context, _ interface{}, p uploader.UploadParams) (*uploader.UploadResult, error) {
	f.uploadParams = p
	return f.uploadRes, f.uploadErr
}

func (f *fakeCloudinary) Destroy(_ context.Context, p uploader.DestroyParams) (*uploader.DestroyResult, error) {
	f.destroyed = p.PublicID
	if f.destroyRes == nil {
		return &uploader.DestroyResult{Result: "ok"}, f.destroyErr
	}
	return f.destroyRes, f.destroyErr
}

func TestCloudinaryStorage_Upload(t *testing.T) {
	fake := &fakeCloudinary{uploadRes: &uploader.UploadResult{SecureURL: "https://cdn/x.jpg", PublicID: "da/x"}}
	s := newCloudinaryStorage(fake, "da", time.Second, 0)

	res, err := s.Upload(context.Background(), "u1", "x.jpg", []byte("img"))
	require.NoError(t, err)
	assert.Equal(t, &UploadResult{URL: "https://cdn/x.jpg", PublicID: "da/x"}, res)
	assert.Equal(t, "da/u1", fake.uploadParams.Folder)
	assert.Equal(t, "c_fill,g_face,h_500,w_500", fake.uploadParams.Transformation)
}

func TestCloudinaryStorage_UploadServiceError(t *testing.T) {
	fake := &fakeCloudinary{uploadRes: &uploader.UploadResult{Error: api.ErrorResp{Message: "Invalid image file"}}}
	s := newCloudinaryStorage(fake, "da", time.Second, 0)

	_, err := s.Upload(context.Background(), "u1", "x.jpg", []byte("img"))
	var se *Error
	require.ErrorAs(t, err, &se)
	assert.Equal(t, "Invalid image file", se.Message)
}

func TestCloudinaryStorage_Delete(t *testing.T) {
	fake := &fakeCloudinary{}
	s := newCloudinaryStorage(fake, "da", time.Second, 0)

	require.NoError(t, s.Delete(context.Background(), "da/x"))
	assert.Equal(t, "da/x", fake.destroyed)

	fake.destroyRes = &uploader.DestroyResult{Error: api.ErrorResp{Message: "not allowed"}}
	err := s.Delete(context.Background(), "da/y")
	var se *Error
	require.ErrorAs(t, err, &se)
	assert.Equal(t, "not allowed", se.Message)
}

func TestCloudinaryStorage_Fetch(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("jpeg"))
	}))
	defer ts.Close()

	s := newCloudinaryStorage(&fakeCloudinary{}, "da", time.Second, 0)
	got, err := s.Fetch(context.Background(), &models.Photo{URL: ts.URL + "/p.jpg"})
	require.NoError(t, err)
	assert.Equal(t, []byte("jpeg"), got)
}

// --- s3 ---

type fakeS3 struct {
	objects map[string][]byte
	putErr  error
}

func (f *fakeS3) PutObject(_ context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	if f.putErr != nil {
		return nil, f.putErr
	}
	b, _ := io.ReadAll(in.Body)
	f.objects[aws.ToString(in.Key)] = b
	return &s3.PutObjectOutput{}, nil
}

func (f *fakeS3) GetObject(_ context.Context, in *s3.GetObjectInput, _ ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	b, ok := f.objects[aws.ToString(in.Key)]
	if !ok {
		return nil, errors.New("NoSuchKey")
	}
	return &s3.GetObjectOutput{Body: io.NopCloser(bytes.NewReader(b))}, nil
}

func (f *fakeS3) DeleteObject(_ context.Context, in *s3.DeleteObjectInput, _ ...func(*s3.Options)) (*s3.DeleteObjectOutput, error) {
	delete(f.objects, aws.ToString(in.Key))
	return &s3.DeleteObjectOutput{}, nil
}

func newTestS3(t *testing.T, fake *fakeS3) *S3Storage {
	t.Helper()

	origLoad, origNew := loadDefaultAWSConfig, newS3ClientFromConfig
	t.Cleanup(func() { loadDefaultAWSConfig, newS3ClientFromConfig = origLoad, origNew })

	loadDefaultAWSConfig = func(ctx context.Context, optFns ...func(*config.LoadOptions) error) (aws.Config, error) {
		return aws.Config{}, nil
	}
	newS3ClientFromConfig = func(cfg aws.Config, optFns ...func(*s3.Options)) s3API {
		o := &s3.Options{}
		for _, fn := range optFns {
			fn(o)
		}
		assert.True(t, o.UsePathStyle)
		return fake
	}

	s, err := NewS3Storage(context.Background(), S3Options{
		Bucket:   "photos",
		Endpoint: "http://minio:9000/",
		Folder:   "da",
	})
	require.NoError(t, err)
	return s
}

func TestS3Storage_UploadFetchDelete(t *testing.T) {
	fake := &fakeS3{objects: map[string][]byte{}}
	s := newTestS3(t, fake)
	data := pngBytes(t, 640, 480, color.RGBA{G: 180, A: 255})

	res, err := s.Upload(context.Background(), "u1", "a.png", data)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(res.PublicID, "da/u1/"))
	assert.Equal(t, "http://minio:9000/photos/"+res.PublicID, res.URL)

	again, err := s.Upload(context.Background(), "u1", "b.png", data)
	require.NoError(t, err)
	assert.Equal(t, res.URL, again.URL, "same owner and bytes must map to the same object")

	got, err := s.Fetch(context.Background(), &models.Photo{URL: res.URL, PublicID: res.PublicID})
	require.NoError(t, err)
	assert.Equal(t, fake.objects[res.PublicID], got)

	byURL, err := s.Fetch(context.Background(), &models.Photo{URL: res.URL})
	require.NoError(t, err)
	assert.Equal(t, got, byURL)

	require.NoError(t, s.Delete(context.Background(), res.PublicID))
	assert.Empty(t, fake.objects)
}

func TestS3Storage_OwnersDoNotShareObjects(t *testing.T) {
	fake := &fakeS3{objects: map[string][]byte{}}
	s := newTestS3(t, fake)
	ctx := context.Background()
	data := pngBytes(t, 300, 300, color.RGBA{B: 220, A: 255})

	alice, err := s.Upload(ctx, "alice", "me.png", data)
	require.NoError(t, err)
	bob, err := s.Upload(ctx, "bob", "me.png", data)
	require.NoError(t, err)

	assert.NotEqual(t, alice.PublicID, bob.PublicID)
	assert.NotEqual(t, alice.URL, bob.URL)
	assert.Len(t, fake.objects, 2)

	require.NoError(t, s.Delete(ctx, bob.PublicID))

	got, err := s.Fetch(ctx, &models.Photo{URL: alice.URL, PublicID: alice.PublicID})
	require.NoError(t, err, "deleting one owner's photo must not remove another's")
	assert.NotEmpty(t, got)
}

func TestS3Storage_FetchRejectsOversizedObject(t *testing.T) {
	fake := &fakeS3{objects: map[string][]byte{
		"da/u1/big.jpg":   bytes.Repeat([]byte{0xff}, 11),
		"da/u1/small.jpg": bytes.Repeat([]byte{0xff}, 10),
	}}
	s := newTestS3(t, fake)
	s.maxSize = 10

	_, err := s.Fetch(context.Background(), &models.Photo{PublicID: "da/u1/big.jpg"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "exceeds 10 bytes")

	got, err := s.Fetch(context.Background(), &models.Photo{PublicID: "da/u1/small.jpg"})
	require.NoError(t, err)
	assert.Len(t, got, 10)
}

func TestJoinKey(t *testing.T) {
	assert.Equal(t, "da/u1/x.jpg", joinKey("da", "u1", "x.jpg"))
	assert.Equal(t, "u1/x.jpg", joinKey("", "u1", "x.jpg"))
	assert.Equal(t, "da/u1", joinKey("da/", "/u1"))
}

func TestS3Storage_UploadRejectsNonImage(t *testing.T) {
	s := newTestS3(t, &fakeS3{objects: map[string][]byte{}})

	_, err := s.Upload(context.Background(), "u1", "a.txt", []byte("hello"))
	var se *Error
	require.ErrorAs(t, err, &se)
}

func TestS3Storage_ConfigError(t *testing.T) {
	orig := loadDefaultAWSConfig
	defer func() { loadDefaultAWSConfig = orig }()
	loadDefaultAWSConfig = func(ctx context.Context, optFns ...func(*config.LoadOptions) error) (aws.Config, error) {
		return aws.Config{}, errors.New("no region")
	}

	_, err := NewS3Storage(context.Background(), S3Options{})
	require.Error(t, err)
}

// --- breaker ---

type failingStorage struct{ err error }

func (f failingStorage) Upload(context.Context, string, string, []byte) (*UploadResult, error) {
	return nil, f.err
}
func (f failingStorage) Delete(context.Context, string) error { return f.err }
func (f failingStorage) Fetch(context.Context, *models.Photo) ([]byte, error) {
	return nil, f.err
}

func TestGuarded_ServiceErrorsDoNotTrip(t *testing.T) {
	g := NewGuarded(failingStorage{err: &Error{Message: "bad file"}}, breaker.Settings{ConsecutiveFailures: 1}, logging.Nop{})

	for i := 0; i < 3; i++ {
		_, err := g.Upload(context.Background(), "u1", "x", nil)
		var se *Error
		require.ErrorAs(t, err, &se)
	}
	assert.Equal(t, gobreaker.StateClosed, g.cb.State())
}

func TestGuarded_TransportErrorsTrip(t *testing.T) {
	g := NewGuarded(failingStorage{err: errors.New("timeout")}, breaker.Settings{ConsecutiveFailures: 1, OpenTimeout: time.Minute}, logging.Nop{})

	require.Error(t, g.Delete(context.Background(), "x"))
	_, err := g.Fetch(context.Background(), &models.Photo{})
	assert.ErrorIs(t, err, gobreaker.ErrOpenState)
}
