package pubsub

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/go-redis/redis/v8"

	"github.com/sendit2sri/artifact-os/internal/model"
)

const (
	ChannelIngestProgress = "ingest_progress"
)

// ProgressMessage mirrors the job's persisted step state for live watchers.
type ProgressMessage struct {
	Type           string `json:"type"`
	ProjectID      string `json:"project_id"`
	WorkspaceID    string `json:"workspace_id"`
	JobID          string `json:"job_id"`
	Status         string `json:"status"`
	Step           string `json:"step"`
	StepsCompleted int    `json:"steps_completed"`
	StepsTotal     int    `json:"steps_total"`
	Message        string `json:"message,omitempty"`
	Error          string `json:"error,omitempty"`
}

// Human messages per pipeline step.
var StepMessages = map[string]string{
	model.StepQueued:     "Queued",
	model.StepFetching:   "Fetching source",
	model.StepExtracting: "Extracting content",
	model.StepFacting:    "Extracting facts",
	model.StepDone:       "Done",
	model.StepFailed:     "Failed",
}

type Publisher struct {
	client *redis.Client
}

func NewPublisher(client *redis.Client) *Publisher {
	return &Publisher{client: client}
}

// PublishProgress publishes a step transition for one job.
func (p *Publisher) PublishProgress(ctx context.Context, msg *ProgressMessage) error {
	msg.Type = "job_progress"
	if msg.StepsTotal == 0 {
		msg.StepsTotal = model.DefaultStepsTotal
	}
	if msg.Message == "" && msg.Step != "" {
		if message, ok := StepMessages[msg.Step]; ok {
			msg.Message = message
		}
	}

	data, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("failed to marshal progress message: %w", err)
	}

	return p.client.Publish(ctx, ChannelIngestProgress, data).Err()
}

type Subscriber struct {
	client *redis.Client
}

func NewSubscriber(client *redis.Client) *Subscriber {
	return &Subscriber{client: client}
}

// Subscribe delivers progress messages to handler until ctx is done.
func (s *Subscriber) Subscribe(ctx context.Context, handler func(*ProgressMessage)) error {
	pubsub := s.client.Subscribe(ctx, ChannelIngestProgress)
	defer pubsub.Close()

	ch := pubsub.Channel()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case msg, ok := <-ch:
			if !ok {
				return nil
			}

			var progressMsg ProgressMessage
			if err := json.Unmarshal([]byte(msg.Payload), &progressMsg); err != nil {
				continue
			}

			handler(&progressMsg)
		}
	}
}
