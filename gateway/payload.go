package gateway

import (
	"encoding/json"
	"strconv"
)

type Opcode int

const (
	OpDispatch        Opcode = 0
	OpHeartbeat       Opcode = 1
	OpIdentify        Opcode = 2
	OpResume          Opcode = 6
	OpReconnect       Opcode = 7
	OpInvalidSession  Opcode = 9
	OpHello           Opcode = 10
	OpHeartbeatAck    Opcode = 11
	OpHTTPCallbackAck Opcode = 12
)

func (o Opcode) String() string {
	switch o {
	case OpDispatch:
		return "dispatch"
	case OpHeartbeat:
		return "heartbeat"
	case OpIdentify:
		return "identify"
	case OpResume:
		return "resume"
	case OpReconnect:
		return "reconnect"
	case OpInvalidSession:
		return "invalid_session"
	case OpHello:
		return "hello"
	case OpHeartbeatAck:
		return "heartbeat_ack"
	case OpHTTPCallbackAck:
		return "http_callback_ack"
	}
	return strconv.Itoa(int(o))
}

// Payload is a frame received from the gateway.
type Payload struct {
	Op Opcode          `json:"op"`
	D  json.RawMessage `json:"d,omitempty"`
	S  int64           `json:"s,omitempty"`
	T  string          `json:"t,omitempty"`
}

// outbound is a frame sent to the gateway. D is always present, null for a
// heartbeat before the first sequence number.
type outbound struct {
	Op Opcode `json:"op"`
	D  any    `json:"d"`
}

type hello struct {
	HeartbeatInterval int64 `json:"heartbeat_interval"`
}

type identify struct {
	Token      string         `json:"token"`
	Intents    uint32         `json:"intents"`
	Shard      [2]int         `json:"shard"`
	Properties map[string]any `json:"properties"`
}

type resume struct {
	Token     string `json:"token"`
	SessionID string `json:"session_id"`
	Seq       int64  `json:"seq"`
}

type ready struct {
	SessionID string `json:"session_id"`
}
