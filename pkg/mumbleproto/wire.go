package mumbleproto

import (
	"fmt"

	"google.golang.org/protobuf/encoding/protowire"
)

func appendBool(b []byte, num protowire.Number, v bool) []byte {
	if !v {
		return b
	}
	b = protowire.AppendTag(b, num, protowire.VarintType)
	return protowire.AppendVarint(b, 1)
}

func appendVarint(b []byte, num protowire.Number, v uint64) []byte {
	if v == 0 {
		return b
	}
	b = protowire.AppendTag(b, num, protowire.VarintType)
	return protowire.AppendVarint(b, v)
}

func appendString(b []byte, num protowire.Number, v string) []byte {
	if v == "" {
		return b
	}
	b = protowire.AppendTag(b, num, protowire.BytesType)
	return protowire.AppendString(b, v)
}

func appendBytes(b []byte, num protowire.Number, v []byte) []byte {
	if len(v) == 0 {
		return b
	}
	b = protowire.AppendTag(b, num, protowire.BytesType)
	return protowire.AppendBytes(b, v)
}

// parseError turns a protowire negative-length sentinel into an error.
func parseError(field string) error {
	return fmt.Errorf("mumbleproto: malformed %s field", field)
}

// skipField consumes and discards an unrecognized field, returning the
// number of bytes consumed or -1 on malformed input.
func skipField(num protowire.Number, typ protowire.Type, data []byte) int {
	return protowire.ConsumeFieldValue(num, typ, data)
}
