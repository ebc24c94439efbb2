package mq

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/authgate/apiserver/types"
)

const (
	AttrEventType           = "event-type"
	EventTypeUserRegistered = "user.registered"
)

// ErrUnexpectedEvent is returned for messages that are not registrations.
var ErrUnexpectedEvent = errors.New("unexpected event type")

// UserEvents publishes and consumes UserRegisteredEvent on one channel.
type UserEvents struct {
	mq      *MQ
	channel string
}

func NewUserEvents(m *MQ, channel string) *UserEvents {
	return &UserEvents{mq: m, channel: channel}
}

// PublishUserRegistered encodes event as JSON and publishes it.
func (e *UserEvents) PublishUserRegistered(ctx context.Context, event types.UserRegisteredEvent) error {
	data, err := json.Marshal(event)
	if err != nil {
		return err
	}
	_, err = e.mq.Publish(ctx, e.channel, data, map[string]string{
		AttrEventType:   EventTypeUserRegistered,
		AttrContentType: "application/json",
	})
	return err
}

// SubscribeUserRegistered blocks delivering decoded events to handle until
// ctx is done or the backend fails. Undecodable messages are rejected.
func (e *UserEvents) SubscribeUserRegistered(ctx context.Context, handle func(context.Context, types.UserRegisteredEvent) error) error {
	return e.mq.Subscribe(ctx, e.channel, func(ctx context.Context, msg Message) error {
		if kind := msg.Attributes[AttrEventType]; kind != "" && kind != EventTypeUserRegistered {
			return fmt.Errorf("%w: %s", ErrUnexpectedEvent, kind)
		}
		var event types.UserRegisteredEvent
		if err := json.Unmarshal(msg.Data, &event); err != nil {
			return fmt.Errorf("decode user registered event %s: %w", msg.ID, err)
		}
		return handle(ctx, event)
	})
}
