package cloud

import (
	"bytes"
	"context"
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	s3types "github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"
	"go.uber.org/zap"
)

// Bucket wraps one named S3 bucket.
type Bucket struct {
	api    S3API
	name   string
	region string
	logger *zap.Logger
}

// NewBucket binds api to the bucket name. region is only used for CreateBucket.
func NewBucket(api S3API, name, region string, logger *zap.Logger) *Bucket {
	return &Bucket{api: api, name: name, region: region, logger: logger}
}

func (b *Bucket) Name() string { return b.name }

// Exists reports whether the bucket exists. Only a not-found response yields
// (false, nil); forbidden and transport errors are returned.
func (b *Bucket) Exists(ctx context.Context) (bool, error) {
	_, err := b.api.HeadBucket(ctx, &s3.HeadBucketInput{Bucket: aws.String(b.name)})
	if err == nil {
		return true, nil
	}
	if isNotFound(err) {
		return false, nil
	}
	return false, fmt.Errorf("s3.HeadBucket %s: %w", b.name, err)
}

// Create creates the bucket. A bucket already owned by the caller counts as success.
func (b *Bucket) Create(ctx context.Context) error {
	in := &s3.CreateBucketInput{Bucket: aws.String(b.name)}
	// us-east-1 rejects an explicit location constraint.
	if b.region != "" && b.region != "us-east-1" {
		in.CreateBucketConfiguration = &s3types.CreateBucketConfiguration{
			LocationConstraint: s3types.BucketLocationConstraint(b.region),
		}
	}

	if _, err := b.api.CreateBucket(ctx, in); err != nil {
		var owned *s3types.BucketAlreadyOwnedByYou
		if errors.As(err, &owned) {
			b.logger.Warn("bucket already owned by caller", zap.String("bucket", b.name))
			return nil
		}
		return fmt.Errorf("s3.CreateBucket %s: %w", b.name, err)
	}
	return nil
}

// SetDefaultEncryption makes aws:kms with keyID the bucket's default encryption.
func (b *Bucket) SetDefaultEncryption(ctx context.Context, keyID string) error {
	_, err := b.api.PutBucketEncryption(ctx, &s3.PutBucketEncryptionInput{
		Bucket: aws.String(b.name),
		ServerSideEncryptionConfiguration: &s3types.ServerSideEncryptionConfiguration{
			Rules: []s3types.ServerSideEncryptionRule{{
				ApplyServerSideEncryptionByDefault: &s3types.ServerSideEncryptionByDefault{
					SSEAlgorithm:   s3types.ServerSideEncryptionAwsKms,
					KMSMasterKeyID: aws.String(keyID),
				},
			}},
		},
	})
	if err != nil {
		return fmt.Errorf("s3.PutBucketEncryption %s: %w", b.name, err)
	}
	return nil
}

// PutJSON writes body under key with SSE-KMS using keyID.
func (b *Bucket) PutJSON(ctx context.Context, key string, body []byte, keyID string) error {
	_, err := b.api.PutObject(ctx, &s3.PutObjectInput{
		Bucket:               aws.String(b.name),
		Key:                  aws.String(key),
		Body:                 bytes.NewReader(body),
		ContentType:          aws.String("application/json"),
		ServerSideEncryption: s3types.ServerSideEncryptionAwsKms,
		SSEKMSKeyId:          aws.String(keyID),
	})
	if err != nil {
		return fmt.Errorf("s3.PutObject %s/%s: %w", b.name, key, err)
	}
	return nil
}

func isNotFound(err error) bool {
	var nf *s3types.NotFound
	if errors.As(err, &nf) {
		return true
	}
	var nsb *s3types.NoSuchBucket
	if errors.As(err, &nsb) {
		return true
	}
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.ErrorCode() {
		case "NotFound", "NoSuchBucket":
			return true
		}
	}
	return false
}
