package notify

import (
	"alcyxob/fitlog/internal/domain"
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type fakeSNS struct {
	endpointARN string
	created     []*sns.CreatePlatformEndpointInput
	published   []*sns.PublishInput
}

func (f *fakeSNS) CreatePlatformEndpoint(_ context.Context, in *sns.CreatePlatformEndpointInput, _ ...func(*sns.Options)) (*sns.CreatePlatformEndpointOutput, error) {
	f.created = append(f.created, in)
	return &sns.CreatePlatformEndpointOutput{EndpointArn: aws.String(f.endpointARN)}, nil
}

func (f *fakeSNS) Publish(_ context.Context, in *sns.PublishInput, _ ...func(*sns.Options)) (*sns.PublishOutput, error) {
	f.published = append(f.published, in)
	return &sns.PublishOutput{MessageId: aws.String("msg-1")}, nil
}

type fakeDeviceRepo struct {
	devices []domain.Device
	err     error
}

func (r *fakeDeviceRepo) Upsert(_ context.Context, d *domain.Device) (*domain.Device, error) {
	stored := *d
	stored.ID = primitive.NewObjectID()
	stored.Enabled = true
	r.devices = append([]domain.Device{stored}, r.devices...)
	return &stored, nil
}

func (r *fakeDeviceRepo) GetEnabledByUserID(_ context.Context, userID primitive.ObjectID) ([]domain.Device, error) {
	if r.err != nil {
		return nil, r.err
	}
	var out []domain.Device
	for _, d := range r.devices {
		if d.UserID == userID && d.Enabled {
			out = append(out, d)
		}
	}
	return out, nil
}

func TestSNSChannel_RegisterAndDeliver(t *testing.T) {
	client := &fakeSNS{endpointARN: "arn:aws:sns:us-east-1:1:endpoint/GCM/fitlog/abc"}
	devices := &fakeDeviceRepo{}
	ch := newSNSChannel(client, devices, "arn:aws:sns:us-east-1:1:app/GCM/fitlog")
	userID := primitive.NewObjectID().Hex()

	dev, err := ch.RegisterDevice(context.Background(), userID, "Android", "fcm-token")
	require.NoError(t, err)
	assert.Equal(t, "android", dev.Platform)
	assert.Equal(t, tokenHash("fcm-token"), dev.TokenHash)
	assert.NotContains(t, dev.TokenHash, "fcm-token")
	require.Len(t, client.created, 1)
	assert.Equal(t, "fcm-token", aws.ToString(client.created[0].Token))

	token, err := ch.RequestDeliveryToken(context.Background(), userID)
	require.NoError(t, err)
	assert.Equal(t, client.endpointARN, token)

	require.NoError(t, ch.Publish(context.Background(), token, ReminderTitle, ReminderMessage))
	require.Len(t, client.published, 1)
	assert.Equal(t, "json", aws.ToString(client.published[0].MessageStructure))

	var envelope map[string]string
	require.NoError(t, json.Unmarshal([]byte(aws.ToString(client.published[0].Message)), &envelope))
	assert.Equal(t, ReminderMessage, envelope["default"])
	assert.Contains(t, envelope["GCM"], `"title":"Workout Reminder"`)
}

func TestSNSChannel_NoDevice(t *testing.T) {
	ch := newSNSChannel(&fakeSNS{}, &fakeDeviceRepo{}, "arn")

	_, err := ch.RequestDeliveryToken(context.Background(), primitive.NewObjectID().Hex())
	assert.ErrorIs(t, err, ErrNotAvailable)
}

func TestSNSChannel_Errors(t *testing.T) {
	ch := newSNSChannel(&fakeSNS{}, &fakeDeviceRepo{err: errors.New("db down")}, "arn")

	_, err := ch.RegisterDevice(context.Background(), primitive.NewObjectID().Hex(), "fax", "tok")
	assert.ErrorIs(t, err, ErrUnknownPlatform)

	_, err = ch.RequestDeliveryToken(context.Background(), "not-hex")
	assert.Error(t, err)

	_, err = ch.RequestDeliveryToken(context.Background(), primitive.NewObjectID().Hex())
	assert.EqualError(t, err, "db down")
}
