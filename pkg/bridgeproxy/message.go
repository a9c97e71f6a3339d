// Package bridgeproxy carries bridge operations between a host shell and
// this process over a local pipe or socket, one length-prefixed CBOR
// message per request and response.
package bridgeproxy

import (
	"encoding/binary"
	"errors"
	"io"

	"github.com/fxamacker/cbor/v2"
)

// NamedPipePath is the default Windows transport endpoint.
const NamedPipePath = "\\\\.\\pipe\\biometry"

// SocketName is the default unix socket file name, created under the
// system temporary directory.
const SocketName = "biometry.sock"

var ErrInvalidMessage = errors.New("bridgeproxy: invalid message")

type Command byte

const (
	// Requests.
	CommandCheckBiometry Command = iota + 1
	CommandAuthenticate

	// Responses.
	CommandOK
	CommandError
)

// Message is one framed request or response: a command byte, a big-endian
// payload length and a CBOR payload.
type Message struct {
	Command Command
	length  uint16
	Data    []byte
}

// NewMessage frames a command with a CBOR-encoded payload. A nil payload
// produces an empty frame body.
func NewMessage(cmd Command, payload any) (*Message, error) {
	msg := &Message{Command: cmd}

	if payload != nil {
		b, err := cbor.Marshal(payload)
		if err != nil {
			return nil, err
		}
		msg.length = uint16(len(b))
		msg.Data = b
	}

	return msg, nil
}

// NewRawMessage frames a command with an already-encoded payload.
func NewRawMessage(cmd Command, data []byte) *Message {
	return &Message{
		Command: cmd,
		length:  uint16(len(data)),
		Data:    data,
	}
}

// ParseMessage reads a single frame.
func ParseMessage(r io.Reader) (*Message, error) {
	header := make([]byte, 3)
	if _, err := io.ReadFull(r, header); err != nil {
		return nil, err
	}

	cmd := Command(header[0])
	if cmd == 0 || cmd > CommandError {
		return nil, ErrInvalidMessage
	}

	length := binary.BigEndian.Uint16(header[1:])
	data := make([]byte, length)
	if length > 0 {
		if _, err := io.ReadFull(r, data); err != nil {
			return nil, err
		}
	}

	return &Message{
		Command: cmd,
		length:  length,
		Data:    data,
	}, nil
}

// WriteTo writes the frame in a single header+payload sequence.
func (m *Message) WriteTo(w io.Writer) (int64, error) {
	header := make([]byte, 3)
	header[0] = byte(m.Command)
	binary.BigEndian.PutUint16(header[1:], m.length)

	headerLen, err := w.Write(header)
	if err != nil {
		return 0, err
	}

	dataLen := 0
	if len(m.Data) > 0 {
		dataLen, err = w.Write(m.Data)
		if err != nil {
			return 0, err
		}
	}

	return int64(headerLen + dataLen), nil
}
