package cache

import (
	"bytes"
	"context"
	"errors"
	"io"
	"sync"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeS3 struct {
	mu      sync.Mutex
	objects map[string][]byte
	getErr  error
}

func newFakeS3() *fakeS3 {
	return &fakeS3{objects: map[string][]byte{}}
}

func (f *fakeS3) GetObject(_ context.Context, in *s3.GetObjectInput, _ ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.getErr != nil {
		return nil, f.getErr
	}
	data, ok := f.objects[aws.ToString(in.Bucket)+"/"+aws.ToString(in.Key)]
	if !ok {
		return nil, &types.NoSuchKey{Message: aws.String("not found")}
	}
	return &s3.GetObjectOutput{Body: io.NopCloser(bytes.NewReader(data))}, nil
}

func (f *fakeS3) PutObject(_ context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	data, err := io.ReadAll(in.Body)
	if err != nil {
		return nil, err
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	f.objects[aws.ToString(in.Bucket)+"/"+aws.ToString(in.Key)] = data
	return &s3.PutObjectOutput{}, nil
}

func TestS3Cache(t *testing.T) {
	testTileCache(t, NewS3CacheWithClient(newFakeS3(), "tiles", "cache/"))
}

func TestS3Cache_ObjectKey(t *testing.T) {
	fake := newFakeS3()
	c := NewS3CacheWithClient(fake, "tiles", "cache/")

	require.NoError(t, c.Set(context.Background(), key("_", 4, 3, 2), TileCacheValue("tile")))

	assert.Contains(t, fake.objects, "tiles/cache/_/4/3/2.png")
}

func TestS3Cache_GetError(t *testing.T) {
	fake := newFakeS3()
	fake.getErr = errors.New("access denied")
	c := NewS3CacheWithClient(fake, "tiles", "")

	_, ok, err := c.Get(context.Background(), key("_", 0, 0, 0))
	assert.False(t, ok)
	assert.ErrorContains(t, err, "access denied")
}
