package messaging

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/eventbridge"
	"github.com/aws/aws-sdk-go-v2/service/eventbridge/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"silkmaker-backend/internal/domain"
)

type fakeEventBridge struct {
	calls  []*eventbridge.PutEventsInput
	failed int32
	err    error
}

func (f *fakeEventBridge) PutEvents(_ context.Context, in *eventbridge.PutEventsInput, _ ...func(*eventbridge.Options)) (*eventbridge.PutEventsOutput, error) {
	f.calls = append(f.calls, in)
	if f.err != nil {
		return nil, f.err
	}
	out := &eventbridge.PutEventsOutput{FailedEntryCount: f.failed}
	if f.failed > 0 {
		out.Entries = []types.PutEventsResultEntry{{ErrorCode: aws.String("ThrottlingException"), ErrorMessage: aws.String("slow down")}}
	}
	return out, nil
}

func TestEventBridgePublisherBatches(t *testing.T) {
	client := &fakeEventBridge{}
	pub := NewEventBridgePublisher(client, "story-bus", "", zap.NewNop())

	events := make([]domain.Event, 23)
	for i := range events {
		events[i] = domain.NewEvent(domain.EventNodeCreated, 1, fmt.Sprintf("n%d", i))
	}
	require.NoError(t, pub.Publish(context.Background(), events...))

	require.Len(t, client.calls, 3)
	assert.Len(t, client.calls[0].Entries, 10)
	assert.Len(t, client.calls[2].Entries, 3)

	entry := client.calls[0].Entries[0]
	assert.Equal(t, "story-bus", aws.ToString(entry.EventBusName))
	assert.Equal(t, "silkmaker.backend", aws.ToString(entry.Source))
	assert.Equal(t, "node.created", aws.ToString(entry.DetailType))
	assert.Equal(t, []string{"n0"}, entry.Resources)

	var detail map[string]any
	require.NoError(t, json.Unmarshal([]byte(aws.ToString(entry.Detail)), &detail))
	assert.Equal(t, "node.created", detail["type"])
	assert.Equal(t, float64(1), detail["projectId"])
}

func TestEventBridgePublisherFailures(t *testing.T) {
	client := &fakeEventBridge{failed: 1}
	pub := NewEventBridgePublisher(client, "", "", zap.NewNop())
	err := pub.Publish(context.Background(), domain.NewEvent(domain.EventProjectCreated, 1, "1"))
	assert.ErrorContains(t, err, "1 events failed to publish")

	client = &fakeEventBridge{err: errors.New("no credentials")}
	pub = NewEventBridgePublisher(client, "", "", zap.NewNop())
	err = pub.Publish(context.Background(), domain.NewEvent(domain.EventProjectCreated, 1, "1"))
	assert.ErrorContains(t, err, "no credentials")
}

func TestEventBridgePublisherNoEvents(t *testing.T) {
	client := &fakeEventBridge{}
	pub := NewEventBridgePublisher(client, "", "", zap.NewNop())
	require.NoError(t, pub.Publish(context.Background()))
	assert.Empty(t, client.calls)
}

func TestMemoryPublisher(t *testing.T) {
	pub := NewMemoryPublisher()
	require.NoError(t, pub.Publish(context.Background(), domain.NewEvent(domain.EventGroupCreated, 2, "g")))
	assert.Equal(t, []domain.EventType{domain.EventGroupCreated}, pub.Types())

	pub.FailWith(errors.New("down"))
	assert.Error(t, pub.Publish(context.Background(), domain.NewEvent(domain.EventGroupDeleted, 2, "g")))
	assert.Len(t, pub.Events(), 1)
}

func TestLogPublisher(t *testing.T) {
	pub := NewLogPublisher(zap.NewNop())
	assert.NoError(t, pub.Publish(context.Background(), domain.NewEvent(domain.EventAssetCreated, 3, "a")))
}
