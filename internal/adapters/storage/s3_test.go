package storage

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakePutter struct {
	input *s3.PutObjectInput
	body  string
	err   error
}

func (f *fakePutter) PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	f.input = params
	b, _ := io.ReadAll(params.Body)
	f.body = string(b)
	return &s3.PutObjectOutput{}, f.err
}

func TestS3ProofStorePut(t *testing.T) {
	fake := &fakePutter{}
	store := newS3ProofStore(fake, "proofs", "https://cdn.example.com")

	url, err := store.Put(context.Background(), "/proofs/../req-1/receipt.jpg", strings.NewReader("jpeg"), "image/jpeg")
	require.NoError(t, err)

	assert.Equal(t, "https://cdn.example.com/req-1/receipt.jpg", url)
	assert.Equal(t, "proofs", aws.ToString(fake.input.Bucket))
	assert.Equal(t, "req-1/receipt.jpg", aws.ToString(fake.input.Key))
	assert.Equal(t, "image/jpeg", aws.ToString(fake.input.ContentType))
	assert.Equal(t, "jpeg", fake.body)
}

func TestS3ProofStorePutError(t *testing.T) {
	store := newS3ProofStore(&fakePutter{err: errors.New("denied")}, "proofs", "https://cdn")
	_, err := store.Put(context.Background(), "k", strings.NewReader(""), "text/plain")
	assert.ErrorContains(t, err, "denied")
}

func TestNewS3ProofStoreDisabled(t *testing.T) {
	_, err := NewS3ProofStore(S3Config{Bucket: "b"})
	assert.ErrorIs(t, err, ErrStorageDisabled)

	store, err := NewS3ProofStore(S3Config{
		Bucket:          "b",
		AccessKeyID:     "id",
		SecretAccessKey: "secret",
		Endpoint:        "https://acct.r2.cloudflarestorage.com",
	})
	require.NoError(t, err)
	assert.Equal(t, "https://b.s3.auto.amazonaws.com", store.publicURL)
}
