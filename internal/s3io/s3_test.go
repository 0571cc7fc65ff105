package s3io

import (
	"bytes"
	"context"
	"errors"
	"io"
	"testing"

	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubGetter struct {
	body []byte
	err  error
	key  string
}

func (g *stubGetter) GetObject(_ context.Context, params *s3.GetObjectInput, _ ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	g.key = *params.Key
	if g.err != nil {
		return nil, g.err
	}
	return &s3.GetObjectOutput{Body: io.NopCloser(bytes.NewReader(g.body))}, nil
}

func TestStoreFetch(t *testing.T) {
	t.Parallel()

	getter := &stubGetter{body: []byte("document bytes")}
	store := &Store{Client: getter, Bucket: "docs", MaxBytes: 1024}

	data, err := store.Fetch(context.Background(), "user/u1/c1/d1.pdf")
	require.NoError(t, err)
	assert.Equal(t, []byte("document bytes"), data)
	assert.Equal(t, "user/u1/c1/d1.pdf", getter.key)
}

func TestStoreFetchRejectsOversizedObjects(t *testing.T) {
	t.Parallel()

	getter := &stubGetter{body: bytes.Repeat([]byte("x"), 33)}
	store := &Store{Client: getter, Bucket: "docs", MaxBytes: 32}

	_, err := store.Fetch(context.Background(), "user/u1/c1/d1.pdf")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "exceeds")
}

func TestStoreFetchWrapsGetError(t *testing.T) {
	t.Parallel()

	getter := &stubGetter{err: errors.New("no such key")}
	store := &Store{Client: getter, Bucket: "docs"}

	_, err := store.Fetch(context.Background(), "user/u1/c1/d1.pdf")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "user/u1/c1/d1.pdf")
}
