// Copyright (c) 2010-2011 The Grumble Authors
// The use of this source code is goverened by a BSD-style
// license that can be found in the LICENSE-file.

package mumbleproto

import (
	"fmt"

	"google.golang.org/protobuf/encoding/protowire"
)

// Version is the payload of the "Version" control message.
type Version struct {
	Version   uint32
	Release   string
	OS        string
	OSVersion string
}

type versionSchema struct{}

func (versionSchema) Encode(payload any) ([]byte, error) {
	v, ok := payload.(*Version)
	if !ok {
		return nil, fmt.Errorf("mumbleproto: Version schema expected *Version, got %T", payload)
	}
	var b []byte
	b = appendVarint(b, 1, uint64(v.Version))
	b = appendString(b, 2, v.Release)
	b = appendString(b, 3, v.OS)
	b = appendString(b, 4, v.OSVersion)
	return b, nil
}

func (versionSchema) Decode(data []byte) (any, error) {
	v := &Version{}
	for len(data) > 0 {
		num, typ, n := protowire.ConsumeTag(data)
		if n < 0 {
			return nil, parseError("Version.tag")
		}
		data = data[n:]
		switch num {
		case 1:
			val, n := protowire.ConsumeVarint(data)
			if n < 0 {
				return nil, parseError("Version.version")
			}
			v.Version = uint32(val)
			data = data[n:]
		case 2:
			val, n := protowire.ConsumeBytes(data)
			if n < 0 {
				return nil, parseError("Version.release")
			}
			v.Release = string(val)
			data = data[n:]
		case 3:
			val, n := protowire.ConsumeBytes(data)
			if n < 0 {
				return nil, parseError("Version.os")
			}
			v.OS = string(val)
			data = data[n:]
		case 4:
			val, n := protowire.ConsumeBytes(data)
			if n < 0 {
				return nil, parseError("Version.osVersion")
			}
			v.OSVersion = string(val)
			data = data[n:]
		default:
			n := skipField(num, typ, data)
			if n < 0 {
				return nil, parseError("Version.unknown")
			}
			data = data[n:]
		}
	}
	return v, nil
}

// Ping is the payload of the "Ping" control message (distinct from the
// UDP ping datagram in pkg/voice).
type Ping struct {
	Timestamp uint64
	Good      uint32
	Late      uint32
	Lost      uint32
}

type pingSchema struct{}

func (pingSchema) Encode(payload any) ([]byte, error) {
	p, ok := payload.(*Ping)
	if !ok {
		return nil, fmt.Errorf("mumbleproto: Ping schema expected *Ping, got %T", payload)
	}
	var b []byte
	b = appendVarint(b, 1, p.Timestamp)
	b = appendVarint(b, 2, uint64(p.Good))
	b = appendVarint(b, 3, uint64(p.Late))
	b = appendVarint(b, 4, uint64(p.Lost))
	return b, nil
}

func (pingSchema) Decode(data []byte) (any, error) {
	p := &Ping{}
	for len(data) > 0 {
		num, typ, n := protowire.ConsumeTag(data)
		if n < 0 {
			return nil, parseError("Ping.tag")
		}
		data = data[n:]
		switch num {
		case 1:
			val, n := protowire.ConsumeVarint(data)
			if n < 0 {
				return nil, parseError("Ping.timestamp")
			}
			p.Timestamp = val
			data = data[n:]
		case 2:
			val, n := protowire.ConsumeVarint(data)
			if n < 0 {
				return nil, parseError("Ping.good")
			}
			p.Good = uint32(val)
			data = data[n:]
		case 3:
			val, n := protowire.ConsumeVarint(data)
			if n < 0 {
				return nil, parseError("Ping.late")
			}
			p.Late = uint32(val)
			data = data[n:]
		case 4:
			val, n := protowire.ConsumeVarint(data)
			if n < 0 {
				return nil, parseError("Ping.lost")
			}
			p.Lost = uint32(val)
			data = data[n:]
		default:
			n := skipField(num, typ, data)
			if n < 0 {
				return nil, parseError("Ping.unknown")
			}
			data = data[n:]
		}
	}
	return p, nil
}

// Reject is the payload of the "Reject" control message.
type Reject struct {
	Type   uint32
	Reason string
}

type rejectSchema struct{}

func (rejectSchema) Encode(payload any) ([]byte, error) {
	r, ok := payload.(*Reject)
	if !ok {
		return nil, fmt.Errorf("mumbleproto: Reject schema expected *Reject, got %T", payload)
	}
	var b []byte
	b = appendVarint(b, 1, uint64(r.Type))
	b = appendString(b, 2, r.Reason)
	return b, nil
}

func (rejectSchema) Decode(data []byte) (any, error) {
	r := &Reject{}
	for len(data) > 0 {
		num, typ, n := protowire.ConsumeTag(data)
		if n < 0 {
			return nil, parseError("Reject.tag")
		}
		data = data[n:]
		switch num {
		case 1:
			val, n := protowire.ConsumeVarint(data)
			if n < 0 {
				return nil, parseError("Reject.type")
			}
			r.Type = uint32(val)
			data = data[n:]
		case 2:
			val, n := protowire.ConsumeBytes(data)
			if n < 0 {
				return nil, parseError("Reject.reason")
			}
			r.Reason = string(val)
			data = data[n:]
		default:
			n := skipField(num, typ, data)
			if n < 0 {
				return nil, parseError("Reject.unknown")
			}
			data = data[n:]
		}
	}
	return r, nil
}

// CryptSetup is the payload of the "CryptSetup" control message.
type CryptSetup struct {
	Key         []byte
	ClientNonce []byte
	ServerNonce []byte
}

type cryptSetupSchema struct{}

func (cryptSetupSchema) Encode(payload any) ([]byte, error) {
	c, ok := payload.(*CryptSetup)
	if !ok {
		return nil, fmt.Errorf("mumbleproto: CryptSetup schema expected *CryptSetup, got %T", payload)
	}
	var b []byte
	b = appendBytes(b, 1, c.Key)
	b = appendBytes(b, 2, c.ClientNonce)
	b = appendBytes(b, 3, c.ServerNonce)
	return b, nil
}

func (cryptSetupSchema) Decode(data []byte) (any, error) {
	c := &CryptSetup{}
	for len(data) > 0 {
		num, typ, n := protowire.ConsumeTag(data)
		if n < 0 {
			return nil, parseError("CryptSetup.tag")
		}
		data = data[n:]
		switch num {
		case 1:
			val, n := protowire.ConsumeBytes(data)
			if n < 0 {
				return nil, parseError("CryptSetup.key")
			}
			c.Key = append([]byte(nil), val...)
			data = data[n:]
		case 2:
			val, n := protowire.ConsumeBytes(data)
			if n < 0 {
				return nil, parseError("CryptSetup.clientNonce")
			}
			c.ClientNonce = append([]byte(nil), val...)
			data = data[n:]
		case 3:
			val, n := protowire.ConsumeBytes(data)
			if n < 0 {
				return nil, parseError("CryptSetup.serverNonce")
			}
			c.ServerNonce = append([]byte(nil), val...)
			data = data[n:]
		default:
			n := skipField(num, typ, data)
			if n < 0 {
				return nil, parseError("CryptSetup.unknown")
			}
			data = data[n:]
		}
	}
	return c, nil
}

// UserState is the payload of the "UserState" control message.
type UserState struct {
	Session   uint32
	Name      string
	ChannelID uint32
	Mute      bool
	Deaf      bool
}

type userStateSchema struct{}

func (userStateSchema) Encode(payload any) ([]byte, error) {
	u, ok := payload.(*UserState)
	if !ok {
		return nil, fmt.Errorf("mumbleproto: UserState schema expected *UserState, got %T", payload)
	}
	var b []byte
	b = appendVarint(b, 1, uint64(u.Session))
	b = appendString(b, 2, u.Name)
	b = appendVarint(b, 3, uint64(u.ChannelID))
	b = appendBool(b, 4, u.Mute)
	b = appendBool(b, 5, u.Deaf)
	return b, nil
}

func (userStateSchema) Decode(data []byte) (any, error) {
	u := &UserState{}
	for len(data) > 0 {
		num, typ, n := protowire.ConsumeTag(data)
		if n < 0 {
			return nil, parseError("UserState.tag")
		}
		data = data[n:]
		switch num {
		case 1:
			val, n := protowire.ConsumeVarint(data)
			if n < 0 {
				return nil, parseError("UserState.session")
			}
			u.Session = uint32(val)
			data = data[n:]
		case 2:
			val, n := protowire.ConsumeBytes(data)
			if n < 0 {
				return nil, parseError("UserState.name")
			}
			u.Name = string(val)
			data = data[n:]
		case 3:
			val, n := protowire.ConsumeVarint(data)
			if n < 0 {
				return nil, parseError("UserState.channelId")
			}
			u.ChannelID = uint32(val)
			data = data[n:]
		case 4:
			val, n := protowire.ConsumeVarint(data)
			if n < 0 {
				return nil, parseError("UserState.mute")
			}
			u.Mute = val != 0
			data = data[n:]
		case 5:
			val, n := protowire.ConsumeVarint(data)
			if n < 0 {
				return nil, parseError("UserState.deaf")
			}
			u.Deaf = val != 0
			data = data[n:]
		default:
			n := skipField(num, typ, data)
			if n < 0 {
				return nil, parseError("UserState.unknown")
			}
			data = data[n:]
		}
	}
	return u, nil
}

// ChannelState is the payload of the "ChannelState" control message.
type ChannelState struct {
	ChannelID uint32
	Name      string
	Parent    uint32
	Temporary bool
}

type channelStateSchema struct{}

func (channelStateSchema) Encode(payload any) ([]byte, error) {
	c, ok := payload.(*ChannelState)
	if !ok {
		return nil, fmt.Errorf("mumbleproto: ChannelState schema expected *ChannelState, got %T", payload)
	}
	var b []byte
	b = appendVarint(b, 1, uint64(c.ChannelID))
	b = appendString(b, 2, c.Name)
	b = appendVarint(b, 3, uint64(c.Parent))
	b = appendBool(b, 4, c.Temporary)
	return b, nil
}

func (channelStateSchema) Decode(data []byte) (any, error) {
	c := &ChannelState{}
	for len(data) > 0 {
		num, typ, n := protowire.ConsumeTag(data)
		if n < 0 {
			return nil, parseError("ChannelState.tag")
		}
		data = data[n:]
		switch num {
		case 1:
			val, n := protowire.ConsumeVarint(data)
			if n < 0 {
				return nil, parseError("ChannelState.channelId")
			}
			c.ChannelID = uint32(val)
			data = data[n:]
		case 2:
			val, n := protowire.ConsumeBytes(data)
			if n < 0 {
				return nil, parseError("ChannelState.name")
			}
			c.Name = string(val)
			data = data[n:]
		case 3:
			val, n := protowire.ConsumeVarint(data)
			if n < 0 {
				return nil, parseError("ChannelState.parent")
			}
			c.Parent = uint32(val)
			data = data[n:]
		case 4:
			val, n := protowire.ConsumeVarint(data)
			if n < 0 {
				return nil, parseError("ChannelState.temporary")
			}
			c.Temporary = val != 0
			data = data[n:]
		default:
			n := skipField(num, typ, data)
			if n < 0 {
				return nil, parseError("ChannelState.unknown")
			}
			data = data[n:]
		}
	}
	return c, nil
}

// TextMessage is the payload of the "TextMessage" control message.
type TextMessage struct {
	Actor   uint32
	Message string
}

type textMessageSchema struct{}

func (textMessageSchema) Encode(payload any) ([]byte, error) {
	m, ok := payload.(*TextMessage)
	if !ok {
		return nil, fmt.Errorf("mumbleproto: TextMessage schema expected *TextMessage, got %T", payload)
	}
	var b []byte
	b = appendVarint(b, 1, uint64(m.Actor))
	b = appendString(b, 2, m.Message)
	return b, nil
}

func (textMessageSchema) Decode(data []byte) (any, error) {
	m := &TextMessage{}
	for len(data) > 0 {
		num, typ, n := protowire.ConsumeTag(data)
		if n < 0 {
			return nil, parseError("TextMessage.tag")
		}
		data = data[n:]
		switch num {
		case 1:
			val, n := protowire.ConsumeVarint(data)
			if n < 0 {
				return nil, parseError("TextMessage.actor")
			}
			m.Actor = uint32(val)
			data = data[n:]
		case 2:
			val, n := protowire.ConsumeBytes(data)
			if n < 0 {
				return nil, parseError("TextMessage.message")
			}
			m.Message = string(val)
			data = data[n:]
		default:
			n := skipField(num, typ, data)
			if n < 0 {
				return nil, parseError("TextMessage.unknown")
			}
			data = data[n:]
		}
	}
	return m, nil
}

// ServerSync is the payload of the "ServerSync" control message.
type ServerSync struct {
	Session      uint32
	MaxBandwidth uint32
	WelcomeText  string
}

type serverSyncSchema struct{}

func (serverSyncSchema) Encode(payload any) ([]byte, error) {
	s, ok := payload.(*ServerSync)
	if !ok {
		return nil, fmt.Errorf("mumbleproto: ServerSync schema expected *ServerSync, got %T", payload)
	}
	var b []byte
	b = appendVarint(b, 1, uint64(s.Session))
	b = appendVarint(b, 2, uint64(s.MaxBandwidth))
	b = appendString(b, 3, s.WelcomeText)
	return b, nil
}

func (serverSyncSchema) Decode(data []byte) (any, error) {
	s := &ServerSync{}
	for len(data) > 0 {
		num, typ, n := protowire.ConsumeTag(data)
		if n < 0 {
			return nil, parseError("ServerSync.tag")
		}
		data = data[n:]
		switch num {
		case 1:
			val, n := protowire.ConsumeVarint(data)
			if n < 0 {
				return nil, parseError("ServerSync.session")
			}
			s.Session = uint32(val)
			data = data[n:]
		case 2:
			val, n := protowire.ConsumeVarint(data)
			if n < 0 {
				return nil, parseError("ServerSync.maxBandwidth")
			}
			s.MaxBandwidth = uint32(val)
			data = data[n:]
		case 3:
			val, n := protowire.ConsumeBytes(data)
			if n < 0 {
				return nil, parseError("ServerSync.welcomeText")
			}
			s.WelcomeText = string(val)
			data = data[n:]
		default:
			n := skipField(num, typ, data)
			if n < 0 {
				return nil, parseError("ServerSync.unknown")
			}
			data = data[n:]
		}
	}
	return s, nil
}

// DefaultSchemas returns the concrete schema implementations for the
// subset of the 26 control messages this package ships payload types for,
// keyed by message name. pkg/control wires these in as registry defaults;
// every other name is registered with a placeholder schema until a caller
// supplies their own via Registry.SetSchema.
func DefaultSchemas() map[string]Schema {
	return map[string]Schema{
		"Version":      versionSchema{},
		"Ping":         pingSchema{},
		"Reject":       rejectSchema{},
		"CryptSetup":   cryptSetupSchema{},
		"UserState":    userStateSchema{},
		"ChannelState": channelStateSchema{},
		"TextMessage":  textMessageSchema{},
		"ServerSync":   serverSyncSchema{},
	}
}

// Schema mirrors pkg/control.Schema structurally so this package need not
// import pkg/control (which depends on it for default wiring).
type Schema interface {
	Encode(payload any) ([]byte, error)
	Decode(data []byte) (any, error)
}
