package cloud

import (
	"context"
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/kms"
	kmstypes "github.com/aws/aws-sdk-go-v2/service/kms/types"
	"go.uber.org/zap"
)

// KeyManager creates symmetric KMS keys.
type KeyManager struct {
	api    KMSAPI
	logger *zap.Logger
}

func NewKeyManager(api KMSAPI, logger *zap.Logger) *KeyManager {
	return &KeyManager{api: api, logger: logger}
}

// CreateKey creates a SYMMETRIC_DEFAULT encrypt/decrypt key tagged Purpose=purpose
// and returns its key ID.
func (m *KeyManager) CreateKey(ctx context.Context, description, purpose string) (string, error) {
	out, err := m.api.CreateKey(ctx, &kms.CreateKeyInput{
		Description: aws.String(description),
		KeyUsage:    kmstypes.KeyUsageTypeEncryptDecrypt,
		KeySpec:     kmstypes.KeySpecSymmetricDefault,
		Tags: []kmstypes.Tag{
			{TagKey: aws.String("Purpose"), TagValue: aws.String(purpose)},
		},
	})
	if err != nil {
		return "", fmt.Errorf("kms.CreateKey: %w", err)
	}
	if out == nil || out.KeyMetadata == nil || aws.ToString(out.KeyMetadata.KeyId) == "" {
		return "", errors.New("kms.CreateKey: response carries no key id")
	}

	keyID := aws.ToString(out.KeyMetadata.KeyId)
	m.logger.Debug("kms key created", zap.String("key_id", keyID), zap.String("purpose", purpose))
	return keyID, nil
}
