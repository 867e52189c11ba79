package model

import (
	"encoding/json"
	"fmt"
	"strconv"
	"time"
)

// MillisTime is a time encoded as a string of Unix milliseconds.
type MillisTime struct {
	time.Time
}

func Millis(t time.Time) MillisTime {
	return MillisTime{Time: t}
}

func (t MillisTime) MarshalJSON() ([]byte, error) {
	if t.IsZero() {
		return json.Marshal("0")
	}
	return json.Marshal(strconv.FormatInt(t.UnixMilli(), 10))
}

func (t *MillisTime) UnmarshalJSON(data []byte) error {
	v, err := decodeInt(data)
	if err != nil {
		return fmt.Errorf("timestamp: %w", err)
	}
	if v == 0 {
		t.Time = time.Time{}
		return nil
	}
	t.Time = time.UnixMilli(v)
	return nil
}

// RemindType selects when schedule participants are reminded.
type RemindType int

const (
	RemindSilent RemindType = iota
	RemindAtStart
	Remind5Minutes
	Remind15Minutes
	Remind30Minutes
	Remind60Minutes
)

func (r RemindType) MarshalJSON() ([]byte, error) {
	return json.Marshal(strconv.Itoa(int(r)))
}

func (r *RemindType) UnmarshalJSON(data []byte) error {
	v, err := decodeInt(data)
	if err != nil {
		return fmt.Errorf("remind_type: %w", err)
	}
	*r = RemindType(v)
	return nil
}

type Schedule struct {
	ID             string     `json:"id,omitempty"`
	Name           string     `json:"name"`
	Description    string     `json:"description"`
	StartTimestamp MillisTime `json:"start_timestamp"`
	EndTimestamp   MillisTime `json:"end_timestamp"`
	Creator        *Member    `json:"creator,omitempty"`
	JumpChannelID  string     `json:"jump_channel_id"`
	RemindType     RemindType `json:"remind_type"`
}

func (s Schedule) HasJumpChannel() bool {
	return isSet(s.JumpChannelID)
}
