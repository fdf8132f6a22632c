// Copyright (c) 2010-2011 The Grumble Authors
// The use of this source code is goverened by a BSD-style
// license that can be found in the LICENSE-file.

package control

import (
	"fmt"

	"mumble.info/grumble-codec/pkg/mumbleproto"
)

// Schema serializes and deserializes the payload of one control message
// kind. Codec replaces Encode/Decode errors with ErrSchemaEncodeError and
// ErrSchemaDecodeError respectively, except for UDPTunnel, whose schema
// errors are returned unchanged.
type Schema interface {
	Encode(payload any) ([]byte, error)
	Decode(data []byte) (any, error)
}

// messageNames lists the 26 control message kinds in registry order (§3).
// Type ids are assigned sequentially from 0 in this order.
var messageNames = []string{
	"Version",
	"UDPTunnel",
	"Authenticate",
	"Ping",
	"Reject",
	"ServerSync",
	"ChannelRemove",
	"ChannelState",
	"UserRemove",
	"UserState",
	"BanList",
	"TextMessage",
	"PermissionDenied",
	"ACL",
	"QueryUsers",
	"CryptSetup",
	"ContextActionModify",
	"ContextAction",
	"UserList",
	"VoiceTarget",
	"PermissionQuery",
	"CodecVersion",
	"UserStats",
	"RequestBlob",
	"ServerConfig",
	"SuggestConfig",
}

// udpTunnelSchema is the identity pseudo-schema for UDPTunnel (§4.5):
// the payload is an opaque byte string copied through verbatim.
type udpTunnelSchema struct{}

func (udpTunnelSchema) Encode(payload any) ([]byte, error) {
	b, ok := payload.([]byte)
	if !ok {
		return nil, fmt.Errorf("control: UDPTunnel payload must be []byte, got %T", payload)
	}
	return b, nil
}

func (udpTunnelSchema) Decode(data []byte) (any, error) {
	out := make([]byte, len(data))
	copy(out, data)
	return out, nil
}

// placeholderSchema stands in for any of the 26 registry names that has no
// concrete payload type wired in from pkg/mumbleproto. It always fails;
// callers that need the real message layout install one via
// Registry.SetSchema.
type placeholderSchema struct{ name string }

func (p placeholderSchema) Encode(any) ([]byte, error) {
	return nil, fmt.Errorf("control: no schema installed for %q", p.name)
}

func (p placeholderSchema) Decode([]byte) (any, error) {
	return nil, fmt.Errorf("control: no schema installed for %q", p.name)
}

// Registry maps the 26 closed control message names to type ids and to
// the Schema responsible for serializing their payload (§4.5).
type Registry struct {
	idByName map[string]uint16
	nameByID map[uint16]string
	schemas  map[string]Schema
}

// NewRegistry builds the default registry: the fixed name/id table, the
// UDPTunnel identity schema, the concrete schemas mumbleproto ships
// (DefaultSchemas), and placeholder schemas for every remaining name.
func NewRegistry() *Registry {
	r := &Registry{
		idByName: make(map[string]uint16, len(messageNames)),
		nameByID: make(map[uint16]string, len(messageNames)),
		schemas:  make(map[string]Schema, len(messageNames)),
	}
	for i, name := range messageNames {
		id := uint16(i)
		r.idByName[name] = id
		r.nameByID[id] = name
		r.schemas[name] = placeholderSchema{name: name}
	}
	r.schemas["UDPTunnel"] = udpTunnelSchema{}

	for name, schema := range mumbleproto.DefaultSchemas() {
		if _, ok := r.idByName[name]; !ok {
			continue
		}
		r.schemas[name] = schema
	}
	return r
}

// SetSchema installs schema as the payload codec for name, overriding
// whatever default (including a placeholder) was registered for it.
func (r *Registry) SetSchema(name string, schema Schema) error {
	if _, ok := r.idByName[name]; !ok {
		return ErrUnknownMessageName
	}
	r.schemas[name] = schema
	return nil
}

// IDForName resolves a registry name to its type id.
func (r *Registry) IDForName(name string) (uint16, error) {
	id, ok := r.idByName[name]
	if !ok {
		return 0, ErrUnknownMessageName
	}
	return id, nil
}

// NameForID resolves a type id to its registry name.
func (r *Registry) NameForID(id uint16) (string, error) {
	name, ok := r.nameByID[id]
	if !ok {
		return "", ErrUnknownMessageID
	}
	return name, nil
}

// schemaFor returns the schema installed for name. Callers must already
// have resolved name through IDForName/NameForID.
func (r *Registry) schemaFor(name string) Schema {
	return r.schemas[name]
}
