// Copyright (c) 2010-2011 The Grumble Authors
// The use of this source code is goverened by a BSD-style
// license that can be found in the LICENSE-file.

// Package control implements the control-channel framing and message
// registry described in §4.2 and §4.5: a 6-byte header (type id + payload
// length) in front of a registry-dispatched, schema-serialized payload.
// It is grounded on the teacher's client.readProtoMessage and
// client.sendMessage (cmd/grumble/client.go), generalized from a
// bufio.Reader/bytes.Buffer pair tied to a live connection into a
// buffering push(chunk) stream transducer per the Design Notes in §9.
package control

import (
	"encoding/binary"
)

const headerSize = 6

// Message is one decoded control-channel frame.
type Message struct {
	Name    string
	Payload any
}

// Codec encodes and decodes control-channel frames against a Registry.
// It owns no I/O; Push is fed chunks as they arrive and returns any
// complete messages extracted so far, buffering the remainder internally.
type Codec struct {
	registry *Registry
	buf      []byte
}

// NewCodec returns a Codec dispatching against r.
func NewCodec(r *Registry) *Codec {
	return &Codec{registry: r}
}

// Encode serializes (name, payload) into a framed control message
// (§4.2 encode contract).
func (c *Codec) Encode(name string, payload any) ([]byte, error) {
	id, err := c.registry.IDForName(name)
	if err != nil {
		return nil, err
	}

	var body []byte
	if name == "UDPTunnel" {
		b, err := c.registry.schemaFor(name).Encode(payload)
		if err != nil {
			return nil, err
		}
		body = b
	} else {
		b, err := c.registry.schemaFor(name).Encode(payload)
		if err != nil {
			return nil, ErrSchemaEncodeError
		}
		body = b
	}

	out := make([]byte, headerSize+len(body))
	binary.BigEndian.PutUint16(out[0:2], id)
	binary.BigEndian.PutUint32(out[2:6], uint32(len(body)))
	copy(out[headerSize:], body)
	return out, nil
}

// Push appends chunk to the internal buffer and extracts every complete
// frame it can, per the §4.2 decode contract. It returns the messages
// decoded from this call (zero or more) along with any error encountered.
// The frame's length is trusted regardless of whether its id or payload
// is valid, so on error the offending frame is still drained from the
// buffer before returning — per §9 "Registry extensibility", the decoder
// continues cleanly on the next call rather than wedging on the same
// frame forever.
func (c *Codec) Push(chunk []byte) ([]Message, error) {
	c.buf = append(c.buf, chunk...)

	var out []Message
	for {
		if len(c.buf) < headerSize {
			return out, nil
		}

		id := binary.BigEndian.Uint16(c.buf[0:2])
		size := binary.BigEndian.Uint32(c.buf[2:6])
		frameLen := headerSize + int(size)
		if len(c.buf) < frameLen {
			return out, nil
		}

		name, err := c.registry.NameForID(id)
		if err != nil {
			c.buf = c.buf[frameLen:]
			return out, err
		}

		body := c.buf[headerSize:frameLen]
		var payload any
		if name == "UDPTunnel" {
			payload, err = c.registry.schemaFor(name).Decode(body)
			if err != nil {
				c.buf = c.buf[frameLen:]
				return out, err
			}
		} else {
			payload, err = c.registry.schemaFor(name).Decode(body)
			if err != nil {
				c.buf = c.buf[frameLen:]
				return out, ErrSchemaDecodeError
			}
		}

		out = append(out, Message{Name: name, Payload: payload})
		c.buf = c.buf[frameLen:]
	}
}
