package sink

import (
	"context"
	"encoding/json"
	"fmt"

	"cloud.google.com/go/pubsub"

	"github.com/alkoparse/alkoteka-crawler/internal/catalog"
)

// PubSub publishes each item as a JSON message to a Google Cloud Pub/Sub
// topic for downstream pipelines.
type PubSub struct {
	client *pubsub.Client
	topic  *pubsub.Topic
}

// NewPubSub connects to Pub/Sub and targets the given topic.
func NewPubSub(ctx context.Context, projectID, topicID string) (*PubSub, error) {
	if projectID == "" || topicID == "" {
		return nil, fmt.Errorf("sink.pubsub.project and sink.pubsub.topic are required")
	}
	client, err := pubsub.NewClient(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("create pubsub client: %w", err)
	}
	return &PubSub{
		client: client,
		topic:  client.Topic(topicID),
	}, nil
}

// Emit publishes one item and waits for the server ack.
func (s *PubSub) Emit(ctx context.Context, item *catalog.Item) error {
	data, err := json.Marshal(item)
	if err != nil {
		return fmt.Errorf("marshal item %s: %w", item.URL, err)
	}
	result := s.topic.Publish(ctx, &pubsub.Message{
		Data:       data,
		Attributes: map[string]string{"source": "alkoparse"},
	})
	if _, err := result.Get(ctx); err != nil {
		return fmt.Errorf("publish item %s: %w", item.URL, err)
	}
	return nil
}

// Close stops the topic publisher and closes the client.
func (s *PubSub) Close(context.Context) error {
	s.topic.Stop()
	if err := s.client.Close(); err != nil {
		return fmt.Errorf("close pubsub client: %w", err)
	}
	return nil
}
