package protocol

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cart-extractor/internal/types"
)

func drain(m *Messenger) []Envelope {
	var envs []Envelope
	for {
		select {
		case raw := <-m.Messages():
			env, err := Decode(raw)
			if err == nil {
				envs = append(envs, env)
			}
		default:
			return envs
		}
	}
}

func TestPostExtracted_RoundTrip(t *testing.T) {
	m := NewMessenger()
	m.PostExtracted([]types.RawRecord{{"title": "Widget", "price": "9.99"}})

	envs := drain(m)
	require.Len(t, envs, 1)
	assert.Equal(t, MessageCartExtracted, envs[0].Type)
	assert.True(t, envs[0].Terminal())
	require.Len(t, envs[0].Payload, 1)
	assert.Equal(t, "Widget", envs[0].Payload[0]["title"])
}

func TestPostError_Terminal(t *testing.T) {
	m := NewMessenger()
	m.PostError("no cart items found on page")

	envs := drain(m)
	require.Len(t, envs, 1)
	assert.Equal(t, MessageError, envs[0].Type)
	assert.True(t, envs[0].Terminal())
	assert.Equal(t, "no cart items found on page", envs[0].Message)
}

func TestDiagnostics_NotTerminal(t *testing.T) {
	m := NewMessenger()
	m.PostLog("found %d candidates", 3)
	m.PostDebug("tier %s empty", "structured-state")

	envs := drain(m)
	require.Len(t, envs, 2)
	assert.Equal(t, MessageLog, envs[0].Type)
	assert.False(t, envs[0].Terminal())
	assert.Equal(t, "found 3 candidates", envs[0].Message)
	assert.Equal(t, MessageDebug, envs[1].Type)
	assert.False(t, envs[1].Terminal())
}

func TestDecode_MalformedJSON(t *testing.T) {
	_, err := Decode([]byte("not json at all"))
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "malformed message")
}

func TestDecode_UnknownType(t *testing.T) {
	_, err := Decode([]byte(`{"type":"SURPRISE"}`))
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "unknown type")
}

func TestPost_FullBufferDoesNotBlock(t *testing.T) {
	m := NewMessenger()
	for i := 0; i < 200; i++ {
		m.PostDebug("chatter %d", i)
	}
	// Reaching here without deadlock is the assertion.
	assert.NotEmpty(t, drain(m))
}
