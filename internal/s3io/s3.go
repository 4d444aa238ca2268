// Package s3io stores claim attachments in S3 and presigns read URLs for them.
package s3io

import (
	"context"
	"io"
	"strings"
	"time"

	"github.com/kylejryan/claims-intake-backend/internal/apperr"

	"github.com/aws/aws-sdk-go-v2/aws"
	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
)

// DefaultReadTTL is the lifetime of a presigned read URL when none is given.
const DefaultReadTTL = time.Hour

// ObjectAPI defines the interface for writing and removing objects in S3.
type ObjectAPI interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	DeleteObject(ctx context.Context, params *s3.DeleteObjectInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
}

// Presigner defines the interface for presigning S3 requests.
type Presigner interface {
	PresignGetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error)
}

// Store uploads attachments into a single bucket.
type Store struct {
	S3      ObjectAPI
	Presign Presigner
	Bucket  string
	TTL     time.Duration
}

// NewStore wires a Store from an S3 client.
func NewStore(c *s3.Client, bucket string, ttl time.Duration) *Store {
	return &Store{S3: c, Presign: s3.NewPresignClient(c), Bucket: bucket, TTL: ttl}
}

// Upload writes body to {userID}/{claimID}/{sanitized filename} and returns
// the key. size may be -1 when unknown.
func (s *Store) Upload(ctx context.Context, userID, claimID, filename string, body io.Reader, size int64, contentType string) (string, error) {
	key := BuildKey(userID, claimID, filename)
	input := &s3.PutObjectInput{
		Bucket:               aws.String(s.Bucket),
		Key:                  aws.String(key),
		Body:                 body,
		Metadata:             UploadMetadata(userID, claimID),
		ServerSideEncryption: types.ServerSideEncryptionAes256,
	}
	if size >= 0 {
		input.ContentLength = aws.Int64(size)
	}
	if ct := strings.TrimSpace(contentType); ct != "" {
		input.ContentType = aws.String(ct)
	}
	if _, err := s.S3.PutObject(ctx, input); err != nil {
		return "", apperr.Provider(err)
	}
	return key, nil
}

// Delete removes the object at key. A missing key is not an error.
func (s *Store) Delete(ctx context.Context, key string) error {
	if _, err := s.S3.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.Bucket),
		Key:    aws.String(key),
	}); err != nil {
		return apperr.Provider(err)
	}
	return nil
}

// PresignRead returns a time-limited GET URL for an attachment. A
// non-positive ttl falls back to the store TTL, then DefaultReadTTL.
func (s *Store) PresignRead(ctx context.Context, userID, claimID, filename string, ttl time.Duration) (string, time.Duration, error) {
	return s.PresignKey(ctx, BuildKey(userID, claimID, filename), ttl)
}

// PresignKey presigns a GET for an existing key.
func (s *Store) PresignKey(ctx context.Context, key string, ttl time.Duration) (string, time.Duration, error) {
	if ttl <= 0 {
		ttl = s.TTL
	}
	if ttl <= 0 {
		ttl = DefaultReadTTL
	}
	req, err := s.Presign.PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.Bucket),
		Key:    aws.String(key),
	}, func(o *s3.PresignOptions) { o.Expires = ttl })
	if err != nil {
		return "", 0, apperr.Provider(err)
	}
	return req.URL, ttl, nil
}
