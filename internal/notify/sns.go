package notify

import (
	"alcyxob/fitlog/internal/config"
	"alcyxob/fitlog/internal/domain"
	"alcyxob/fitlog/internal/repository"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsCfg "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

var ErrUnknownPlatform = errors.New("unknown device platform")

// snsAPI is the part of the SNS client the channel uses.
type snsAPI interface {
	CreatePlatformEndpoint(ctx context.Context, params *sns.CreatePlatformEndpointInput, optFns ...func(*sns.Options)) (*sns.CreatePlatformEndpointOutput, error)
	Publish(ctx context.Context, params *sns.PublishInput, optFns ...func(*sns.Options)) (*sns.PublishOutput, error)
}

// SNSChannel pushes through an SNS platform application backed by FCM.
// Delivery tokens are the SNS endpoint ARNs of the user's devices.
type SNSChannel struct {
	client      snsAPI
	devices     repository.DeviceRepository
	platformARN string
}

// NewSNSChannel creates an SNSChannel from the push configuration.
func NewSNSChannel(cfg config.PushConfig, devices repository.DeviceRepository) (*SNSChannel, error) {
	opts := []func(*awsCfg.LoadOptions) error{
		awsCfg.WithRegion(cfg.Region),
	}
	if cfg.AccessKeyID != "" {
		opts = append(opts, awsCfg.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, "")))
	}

	awsSDKConfig, err := awsCfg.LoadDefaultConfig(context.TODO(), opts...)
	if err != nil {
		log.Printf("ERROR: Failed to load AWS SDK config for SNS: %v", err)
		return nil, err
	}

	log.Printf("INFO: SNS push channel initialized for application %s", cfg.PlatformApplicationARN)
	return newSNSChannel(sns.NewFromConfig(awsSDKConfig), devices, cfg.PlatformApplicationARN), nil
}

func newSNSChannel(client snsAPI, devices repository.DeviceRepository, platformARN string) *SNSChannel {
	return &SNSChannel{client: client, devices: devices, platformARN: platformARN}
}

// RegisterDevice creates (or refreshes) the SNS endpoint for an FCM token and
// stores it for the user.
func (c *SNSChannel) RegisterDevice(ctx context.Context, userID, platform, token string) (*domain.Device, error) {
	platform = strings.ToLower(strings.TrimSpace(platform))
	switch platform {
	case "android", "ios", "web":
	default:
		return nil, ErrUnknownPlatform
	}
	uid, err := primitive.ObjectIDFromHex(userID)
	if err != nil {
		return nil, fmt.Errorf("invalid user id: %w", err)
	}

	out, err := c.client.CreatePlatformEndpoint(ctx, &sns.CreatePlatformEndpointInput{
		PlatformApplicationArn: aws.String(c.platformARN),
		Token:                  aws.String(token),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create platform endpoint: %w", err)
	}

	return c.devices.Upsert(ctx, &domain.Device{
		UserID:      uid,
		Platform:    platform,
		TokenHash:   tokenHash(token),
		EndpointARN: aws.ToString(out.EndpointArn),
	})
}

// RequestDeliveryToken returns the endpoint of the user's most recently
// refreshed device.
func (c *SNSChannel) RequestDeliveryToken(ctx context.Context, userID string) (string, error) {
	uid, err := primitive.ObjectIDFromHex(userID)
	if err != nil {
		return "", fmt.Errorf("invalid user id: %w", err)
	}
	devices, err := c.devices.GetEnabledByUserID(ctx, uid)
	if err != nil {
		return "", err
	}
	if len(devices) == 0 {
		return "", ErrNotAvailable
	}
	return devices[0].EndpointARN, nil
}

// Publish sends a notification to one endpoint.
func (c *SNSChannel) Publish(ctx context.Context, token, title, message string) error {
	raw, err := gcmMessage(title, message)
	if err != nil {
		return err
	}
	_, err = c.client.Publish(ctx, &sns.PublishInput{
		MessageStructure: aws.String("json"),
		Message:          aws.String(raw),
		TargetArn:        aws.String(token),
	})
	return err
}

// gcmMessage builds the per-protocol JSON SNS expects with MessageStructure=json.
// The GCM value is itself a JSON document encoded as a string.
func gcmMessage(title, body string) (string, error) {
	gcm, err := json.Marshal(map[string]any{
		"notification": map[string]string{
			"title": title,
			"body":  body,
		},
	})
	if err != nil {
		return "", err
	}
	raw, err := json.Marshal(map[string]string{
		"default": body,
		"GCM":     string(gcm),
	})
	if err != nil {
		return "", err
	}
	return string(raw), nil
}

func tokenHash(tok string) string {
	h := sha256.Sum256([]byte(tok))
	return hex.EncodeToString(h[:])
}
