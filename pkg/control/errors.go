// Copyright (c) 2010-2011 The Grumble Authors
// The use of this source code is goverened by a BSD-style
// license that can be found in the LICENSE-file.

package control

import "errors"

// Format errors returned by Registry and Codec, per §7.
var (
	ErrUnknownMessageName = errors.New("control: unknown message name")
	ErrUnknownMessageID   = errors.New("control: unknown message type id")
	ErrSchemaEncodeError  = errors.New("control: schema failed to encode payload")
	ErrSchemaDecodeError  = errors.New("control: schema failed to decode payload")
)
