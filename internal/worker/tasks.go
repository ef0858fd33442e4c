package worker

import (
	"encoding/json"
	"time"

	"github.com/hibiken/asynq"
)

const TaskInboundMessage = "message.inbound"

// InboundMessagePayload is the queued unit of work: one accepted customer
// message. The payload carries everything the pipeline needs so the consumer
// never re-reads the raw webhook body.
type InboundMessagePayload struct {
	Platform          string    `json:"platform"`
	ExternalUserID    string    `json:"externalUserId"`
	ExternalMessageID string    `json:"externalMessageId"`
	Text              string    `json:"text"`
	ReceivedAt        time.Time `json:"receivedAt"`
}

func NewInboundMessageTask(payload InboundMessagePayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskInboundMessage, data), nil
}

func ParseInboundMessagePayload(task *asynq.Task) (InboundMessagePayload, error) {
	var payload InboundMessagePayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return InboundMessagePayload{}, err
	}
	return payload, nil
}
