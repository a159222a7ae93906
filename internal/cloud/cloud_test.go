package cloud

import (
	"context"
	"errors"
	"io"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/kms"
	kmstypes "github.com/aws/aws-sdk-go-v2/service/kms/types"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	s3types "github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"
	"go.uber.org/zap"
)

type fakeKMS struct {
	in  *kms.CreateKeyInput
	out *kms.CreateKeyOutput
	err error
}

func (f *fakeKMS) CreateKey(_ context.Context, in *kms.CreateKeyInput, _ ...func(*kms.Options)) (*kms.CreateKeyOutput, error) {
	f.in = in
	return f.out, f.err
}

type fakeS3 struct {
	headErr   error
	createErr error
	encErr    error
	putErr    error

	createIn *s3.CreateBucketInput
	encIn    *s3.PutBucketEncryptionInput
	putIn    *s3.PutObjectInput
	putBody  []byte
}

func (f *fakeS3) HeadBucket(context.Context, *s3.HeadBucketInput, ...func(*s3.Options)) (*s3.HeadBucketOutput, error) {
	return &s3.HeadBucketOutput{}, f.headErr
}

func (f *fakeS3) CreateBucket(_ context.Context, in *s3.CreateBucketInput, _ ...func(*s3.Options)) (*s3.CreateBucketOutput, error) {
	f.createIn = in
	return &s3.CreateBucketOutput{}, f.createErr
}

func (f *fakeS3) PutBucketEncryption(_ context.Context, in *s3.PutBucketEncryptionInput, _ ...func(*s3.Options)) (*s3.PutBucketEncryptionOutput, error) {
	f.encIn = in
	return &s3.PutBucketEncryptionOutput{}, f.encErr
}

func (f *fakeS3) PutObject(_ context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	f.putIn = in
	if in.Body != nil {
		f.putBody, _ = io.ReadAll(in.Body)
	}
	return &s3.PutObjectOutput{}, f.putErr
}

func TestKeyManager_CreateKey(t *testing.T) {
	api := &fakeKMS{out: &kms.CreateKeyOutput{KeyMetadata: &kmstypes.KeyMetadata{KeyId: aws.String("key-123")}}}
	m := NewKeyManager(api, zap.NewNop())

	id, err := m.CreateKey(context.Background(), "Key for Weather Dashboard", "WeatherDashboard")
	if err != nil {
		t.Fatalf("CreateKey() unexpected error: %v", err)
	}
	if id != "key-123" {
		t.Errorf("CreateKey() = %q, want key-123", id)
	}
	if api.in.KeyUsage != kmstypes.KeyUsageTypeEncryptDecrypt {
		t.Errorf("KeyUsage = %v", api.in.KeyUsage)
	}
	if api.in.KeySpec != kmstypes.KeySpecSymmetricDefault {
		t.Errorf("KeySpec = %v", api.in.KeySpec)
	}
	if aws.ToString(api.in.Description) != "Key for Weather Dashboard" {
		t.Errorf("Description = %q", aws.ToString(api.in.Description))
	}
	if len(api.in.Tags) != 1 || aws.ToString(api.in.Tags[0].TagKey) != "Purpose" ||
		aws.ToString(api.in.Tags[0].TagValue) != "WeatherDashboard" {
		t.Errorf("Tags = %+v", api.in.Tags)
	}
}

func TestKeyManager_CreateKey_Errors(t *testing.T) {
	boom := errors.New("access denied")
	tests := []struct {
		name string
		api  *fakeKMS
	}{
		{"api error", &fakeKMS{err: boom}},
		{"no metadata", &fakeKMS{out: &kms.CreateKeyOutput{}}},
		{"empty id", &fakeKMS{out: &kms.CreateKeyOutput{KeyMetadata: &kmstypes.KeyMetadata{}}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			id, err := NewKeyManager(tt.api, zap.NewNop()).CreateKey(context.Background(), "d", "p")
			if err == nil {
				t.Fatalf("CreateKey() expected error")
			}
			if id != "" {
				t.Errorf("CreateKey() id = %q, want empty", id)
			}
		})
	}
}

func TestBucket_Exists(t *testing.T) {
	tests := []struct {
		name    string
		headErr error
		want    bool
		wantErr bool
	}{
		{"exists", nil, true, false},
		{"not found", &s3types.NotFound{}, false, false},
		{"no such bucket", &s3types.NoSuchBucket{}, false, false},
		{"generic not found code", &smithy.GenericAPIError{Code: "NotFound"}, false, false},
		{"forbidden", &smithy.GenericAPIError{Code: "Forbidden"}, false, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := NewBucket(&fakeS3{headErr: tt.headErr}, "weather-bucket", "", zap.NewNop())
			got, err := b.Exists(context.Background())
			if (err != nil) != tt.wantErr {
				t.Fatalf("Exists() error = %v, wantErr %v", err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("Exists() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestBucket_Create_LocationConstraint(t *testing.T) {
	tests := []struct {
		region string
		want   s3types.BucketLocationConstraint
	}{
		{"", ""},
		{"us-east-1", ""},
		{"ca-central-1", s3types.BucketLocationConstraint("ca-central-1")},
	}
	for _, tt := range tests {
		t.Run(tt.region, func(t *testing.T) {
			api := &fakeS3{}
			if err := NewBucket(api, "weather-bucket", tt.region, zap.NewNop()).Create(context.Background()); err != nil {
				t.Fatalf("Create() unexpected error: %v", err)
			}
			var got s3types.BucketLocationConstraint
			if api.createIn.CreateBucketConfiguration != nil {
				got = api.createIn.CreateBucketConfiguration.LocationConstraint
			}
			if got != tt.want {
				t.Errorf("LocationConstraint = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestBucket_Create_AlreadyOwned(t *testing.T) {
	api := &fakeS3{createErr: &s3types.BucketAlreadyOwnedByYou{}}
	if err := NewBucket(api, "weather-bucket", "", zap.NewNop()).Create(context.Background()); err != nil {
		t.Fatalf("Create() unexpected error: %v", err)
	}

	api = &fakeS3{createErr: &s3types.BucketAlreadyExists{}}
	if err := NewBucket(api, "weather-bucket", "", zap.NewNop()).Create(context.Background()); err == nil {
		t.Fatalf("Create() expected error for bucket owned by someone else")
	}
}

func TestBucket_SetDefaultEncryption(t *testing.T) {
	api := &fakeS3{}
	if err := NewBucket(api, "weather-bucket", "", zap.NewNop()).SetDefaultEncryption(context.Background(), "key-123"); err != nil {
		t.Fatalf("SetDefaultEncryption() unexpected error: %v", err)
	}
	rules := api.encIn.ServerSideEncryptionConfiguration.Rules
	if len(rules) != 1 {
		t.Fatalf("rules = %d, want 1", len(rules))
	}
	def := rules[0].ApplyServerSideEncryptionByDefault
	if def.SSEAlgorithm != s3types.ServerSideEncryptionAwsKms {
		t.Errorf("SSEAlgorithm = %v, want aws:kms", def.SSEAlgorithm)
	}
	if aws.ToString(def.KMSMasterKeyID) != "key-123" {
		t.Errorf("KMSMasterKeyID = %q, want key-123", aws.ToString(def.KMSMasterKeyID))
	}
}

func TestBucket_PutJSON(t *testing.T) {
	api := &fakeS3{}
	b := NewBucket(api, "weather-bucket", "", zap.NewNop())

	err := b.PutJSON(context.Background(), "weather-data/Calgary-20261018-101500.json", []byte(`{"a":1}`), "key-123")
	if err != nil {
		t.Fatalf("PutJSON() unexpected error: %v", err)
	}
	if aws.ToString(api.putIn.Bucket) != "weather-bucket" {
		t.Errorf("Bucket = %q", aws.ToString(api.putIn.Bucket))
	}
	if aws.ToString(api.putIn.Key) != "weather-data/Calgary-20261018-101500.json" {
		t.Errorf("Key = %q", aws.ToString(api.putIn.Key))
	}
	if aws.ToString(api.putIn.ContentType) != "application/json" {
		t.Errorf("ContentType = %q", aws.ToString(api.putIn.ContentType))
	}
	if api.putIn.ServerSideEncryption != s3types.ServerSideEncryptionAwsKms {
		t.Errorf("ServerSideEncryption = %v", api.putIn.ServerSideEncryption)
	}
	if aws.ToString(api.putIn.SSEKMSKeyId) != "key-123" {
		t.Errorf("SSEKMSKeyId = %q", aws.ToString(api.putIn.SSEKMSKeyId))
	}
	if string(api.putBody) != `{"a":1}` {
		t.Errorf("body = %s", api.putBody)
	}

	api.putErr = errors.New("slow down")
	if err := b.PutJSON(context.Background(), "k", nil, "key-123"); err == nil {
		t.Fatalf("PutJSON() expected error")
	}
}
