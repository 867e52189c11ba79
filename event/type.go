package event

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/pscheid92/cyan/model"
)

// ErrSkip is returned by a decoder to drop an event without reporting an error.
var ErrSkip = errors.New("event skipped")

// Resolver fetches entities that events only reference by id.
type Resolver interface {
	Guild(ctx context.Context, guildID string) (*model.Guild, error)
	ChannelMessage(ctx context.Context, channelID, messageID string) (*model.Message, error)
}

// Info names a gateway event and the intent required to receive it.
type Info struct {
	Name   string
	Intent Intent
}

// Decoder turns the raw "d" field of a dispatch frame into T.
type Decoder[T any] func(ctx context.Context, r Resolver, raw json.RawMessage) (T, error)

// Type is an event the dispatcher knows how to decode.
type Type[T any] struct {
	Info
	decode Decoder[T]
}

func NewType[T any](name string, intent Intent, decode Decoder[T]) Type[T] {
	return Type[T]{Info: Info{Name: name, Intent: intent}, decode: decode}
}

func (t Type[T]) Decode(ctx context.Context, r Resolver, raw json.RawMessage) (T, error) {
	return t.decode(ctx, r, raw)
}

// JSON returns a decoder that unmarshals the payload into T.
func JSON[T any]() Decoder[T] {
	return func(_ context.Context, _ Resolver, raw json.RawMessage) (T, error) {
		var v T
		if len(raw) == 0 || string(raw) == "null" {
			return v, nil
		}
		err := json.Unmarshal(raw, &v)
		return v, err
	}
}
