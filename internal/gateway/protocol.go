package gateway

import "encoding/json"

// Client frame ops
const (
	OpWatchMessages = "watch_messages"
	OpWatchQuotes   = "watch_quotes"
	OpUnwatch       = "unwatch"
)

// Server frame types
const (
	FrameNewMessage  = "new_message"
	FrameSnapshot    = "snapshot"
	FrameStreamError = "stream_error"
	FrameWatchOk     = "watch_ok"
	FrameError       = "error"
)

// ClientFrame is a frame sent by a connected client
type ClientFrame struct {
	Op             string `json:"op"`
	ConversationId string `json:"conversation_id,omitempty"`
	RfqId          string `json:"rfq_id,omitempty"`
	StreamId       string `json:"stream_id,omitempty"`
}

// ServerFrame is a frame pushed to a connected client
type ServerFrame struct {
	Type     string      `json:"type"`
	StreamId string      `json:"stream_id,omitempty"`
	Data     interface{} `json:"data,omitempty"`
	Msg      string      `json:"msg,omitempty"`
}

// Encode serializes a server frame
func (f *ServerFrame) Encode() ([]byte, error) {
	return json.Marshal(f)
}
