// Package protocol defines the contract by which an extraction strategy
// running inside an isolated page-rendering context reports back to the
// host process. The channel is asynchronous, one-directional and carries
// JSON-serialized envelopes; there is no call-return path.
package protocol

import (
	"encoding/json"
	"fmt"

	"cart-extractor/internal/types"
)

// MessageType discriminates envelope payloads.
type MessageType string

// Envelope types. CartExtracted and Error are terminal: exactly one of
// them ends an extraction invocation. Log and Debug are diagnostic and
// leave the invocation pending.
const (
	MessageCartExtracted MessageType = "CART_EXTRACTED"
	MessageError         MessageType = "ERROR"
	MessageLog           MessageType = "LOG"
	MessageDebug         MessageType = "DEBUG"
)

// Envelope is the single message shape crossing the context boundary.
type Envelope struct {
	Type    MessageType       `json:"type"`
	Payload []types.RawRecord `json:"payload,omitempty"`
	Message string            `json:"message,omitempty"`
}

// Terminal reports whether this envelope ends the pending invocation.
func (e Envelope) Terminal() bool {
	return e.Type == MessageCartExtracted || e.Type == MessageError
}

// Decode parses a serialized envelope. A malformed message is returned as
// an error for the host to treat as a failed extraction; it must never
// crash the pipeline.
func Decode(raw []byte) (Envelope, error) {
	var env Envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return Envelope{}, fmt.Errorf("malformed message: %w", err)
	}
	switch env.Type {
	case MessageCartExtracted, MessageError, MessageLog, MessageDebug:
		return env, nil
	default:
		return Envelope{}, fmt.Errorf("malformed message: unknown type %q", env.Type)
	}
}

// Messenger is the strategy's end of the channel. Posting serializes the
// envelope to JSON before it crosses, mirroring the boundary's wire format;
// the buffer is sized so a strategy never blocks on its own diagnostics.
type Messenger struct {
	ch chan []byte
}

// NewMessenger creates a messenger with room for diagnostic chatter plus
// the one terminal message.
func NewMessenger() *Messenger {
	return &Messenger{ch: make(chan []byte, 64)}
}

// Messages exposes the host's receive side.
func (m *Messenger) Messages() <-chan []byte {
	return m.ch
}

// PostExtracted posts the terminal success message with the raw records
// found by the winning tier.
func (m *Messenger) PostExtracted(records []types.RawRecord) {
	m.post(Envelope{Type: MessageCartExtracted, Payload: records})
}

// PostError posts the terminal failure message.
func (m *Messenger) PostError(message string) {
	m.post(Envelope{Type: MessageError, Message: message})
}

// PostLog posts a diagnostic message; it does not end the invocation.
func (m *Messenger) PostLog(format string, args ...interface{}) {
	m.post(Envelope{Type: MessageLog, Message: fmt.Sprintf(format, args...)})
}

// PostDebug posts a verbose diagnostic message.
func (m *Messenger) PostDebug(format string, args ...interface{}) {
	m.post(Envelope{Type: MessageDebug, Message: fmt.Sprintf(format, args...)})
}

func (m *Messenger) post(env Envelope) {
	raw, err := json.Marshal(env)
	if err != nil {
		// RawRecords come from decoded JSON, so marshaling can only fail on
		// exotic values; degrade to a terminal error rather than dropping
		// the invocation on the floor.
		raw, _ = json.Marshal(Envelope{Type: MessageError, Message: "failed to serialize extraction payload"})
	}
	select {
	case m.ch <- raw:
	default:
		// Channel full: the invocation already produced more chatter than
		// the buffer allows. Dropping diagnostics is acceptable; terminal
		// messages fit because each invocation posts exactly one.
	}
}
