// Package protocol implements the length-prefixed envelope framing spoken
// between clients and the game server.
//
// Every frame is a 10-byte ASCII decimal length, left-justified and padded
// with spaces, followed by that many bytes of CBOR holding {action, data}.
package protocol

import (
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/fxamacker/cbor/v2"
)

// HeaderSize is the width of the length prefix
const HeaderSize = 10

// DefaultMaxFrameSize bounds the body a decoder will allocate for
const DefaultMaxFrameSize = 1 << 20

// maxDeclarable is the largest length a 10-digit header can carry
const maxDeclarable = 9_999_999_999

var (
	// ErrEndOfStream is returned when the peer closed before a new frame began
	ErrEndOfStream = errors.New("end of stream")
	// ErrMalformed is returned for truncated frames and undecodable bodies
	ErrMalformed = errors.New("malformed frame")

	ErrEmptyAction = errors.New("action must not be empty")
	ErrNilPayload  = errors.New("payload must not be nil")
)

var (
	encMode = mustEncMode()
	decMode = mustDecMode()
)

func mustEncMode() cbor.EncMode {
	opts := cbor.CoreDetEncOptions()
	opts.Time = cbor.TimeRFC3339Nano
	em, err := opts.EncMode()
	if err != nil {
		panic(err)
	}
	return em
}

func mustDecMode() cbor.DecMode {
	dm, err := cbor.DecOptions{
		MaxNestedLevels:  16,
		MaxArrayElements: 1 << 16,
		MaxMapPairs:      1 << 12,
	}.DecMode()
	if err != nil {
		panic(err)
	}
	return dm
}

// Envelope is one decoded frame. Data stays encoded until the handler for
// Action decodes it into the payload type it expects.
type Envelope struct {
	Action Action          `json:"action"`
	Data   cbor.RawMessage `json:"data"`
}

// Decode unmarshals the envelope data into v
func (e Envelope) Decode(v any) error {
	if len(e.Data) == 0 {
		return fmt.Errorf("%w: %s has no data", ErrMalformed, e.Action)
	}
	if err := decMode.Unmarshal(e.Data, v); err != nil {
		return fmt.Errorf("%w: %s: %v", ErrMalformed, e.Action, err)
	}
	return nil
}

// Encode serializes a complete frame, header included
func Encode(action Action, payload any) ([]byte, error) {
	if action == "" {
		return nil, ErrEmptyAction
	}
	if payload == nil {
		return nil, ErrNilPayload
	}

	data, err := encMode.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("encode %s payload: %w", action, err)
	}
	body, err := encMode.Marshal(Envelope{Action: action, Data: data})
	if err != nil {
		return nil, fmt.Errorf("encode %s envelope: %w", action, err)
	}
	if int64(len(body)) > maxDeclarable {
		return nil, fmt.Errorf("encode %s: body of %d bytes exceeds header", action, len(body))
	}

	frame := make([]byte, 0, HeaderSize+len(body))
	frame = fmt.Appendf(frame, "%-*d", HeaderSize, len(body))
	return append(frame, body...), nil
}

// Write encodes a frame and writes it to w in a single call
func Write(w io.Writer, action Action, payload any) error {
	frame, err := Encode(action, payload)
	if err != nil {
		return err
	}
	_, err = w.Write(frame)
	return err
}

// Decoder reads frames from a stream
type Decoder struct {
	r            io.Reader
	maxFrameSize int
	header       [HeaderSize]byte
}

// NewDecoder creates a Decoder. A maxFrameSize of zero uses DefaultMaxFrameSize.
func NewDecoder(r io.Reader, maxFrameSize int) *Decoder {
	if maxFrameSize <= 0 {
		maxFrameSize = DefaultMaxFrameSize
	}
	return &Decoder{r: r, maxFrameSize: maxFrameSize}
}

// Decode blocks until one full frame has been read.
// It returns ErrEndOfStream if the stream ends before any header byte
// arrives and ErrMalformed (wrapped) for everything else that goes wrong.
func (d *Decoder) Decode() (Envelope, error) {
	n, err := io.ReadFull(d.r, d.header[:])
	if err != nil {
		if n == 0 {
			return Envelope{}, ErrEndOfStream
		}
		return Envelope{}, fmt.Errorf("%w: short header: %v", ErrMalformed, err)
	}

	size, err := strconv.Atoi(strings.TrimSpace(string(d.header[:])))
	if err != nil || size < 0 {
		return Envelope{}, fmt.Errorf("%w: bad length header %q", ErrMalformed, d.header[:])
	}
	if size > d.maxFrameSize {
		return Envelope{}, fmt.Errorf("%w: frame of %d bytes exceeds limit %d", ErrMalformed, size, d.maxFrameSize)
	}

	body := make([]byte, size)
	if _, err := io.ReadFull(d.r, body); err != nil {
		return Envelope{}, fmt.Errorf("%w: short body: %v", ErrMalformed, err)
	}

	var env Envelope
	if err := decMode.Unmarshal(body, &env); err != nil {
		return Envelope{}, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	if env.Action == "" {
		return Envelope{}, fmt.Errorf("%w: empty action", ErrMalformed)
	}
	return env, nil
}
