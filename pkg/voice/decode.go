package voice

import (
	"encoding/binary"
	"fmt"
	"io"
	"log"
	"math"

	"mumble.info/grumble-codec/pkg/varint"
)

// Decoder decodes voice and ping datagrams for a given direction. Decoding
// is deliberately tolerant of malformed input (§7): any format error
// results in the packet being silently dropped and a diagnostic emitted
// through Logger, the same way Client.Printf logs and discards an
// unparsable UDP packet in the teacher's udpRecvLoop rather than tearing
// down the connection.
type Decoder struct {
	Dir    Direction
	Logger *log.Logger
}

// NewDecoder returns a Decoder for the given direction. If logger is nil,
// diagnostics are discarded.
func NewDecoder(dir Direction, logger *log.Logger) *Decoder {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	return &Decoder{Dir: dir, Logger: logger}
}

func (d *Decoder) drop(reason string, chunk []byte) {
	d.Logger.Printf("voice: dropping malformed packet: %s (% x)", reason, chunk)
}

// Decode parses chunk into either a *PingPacket or a *Packet. ok is false
// whenever the packet was malformed and has already been dropped (with a
// diagnostic logged); the decoder remains usable for the next call.
func (d *Decoder) Decode(chunk []byte) (pkt any, ok bool) {
	if len(chunk) == 0 {
		d.drop("empty chunk", chunk)
		return nil, false
	}

	header := chunk[0]
	codec := CodecID(header >> 5)
	mode := int(header & 0x1F)
	rest := chunk[1:]

	if codec == Ping {
		ts, _, err := varint.Decode(rest)
		if err != nil {
			d.drop(fmt.Sprintf("invalid ping timestamp varint: %v", err), chunk)
			return nil, false
		}
		return &PingPacket{Timestamp: uint64(ts)}, true
	}

	switch codec {
	case CELTAlpha, CELTBeta, Speex, Opus:
	default:
		d.drop("unknown codec id", chunk)
		return nil, false
	}

	p := &Packet{Mode: mode, Codec: codec, Target: targetForMode(mode)}

	if d.Dir == Client {
		src, n, err := varint.Decode(rest)
		if err != nil {
			d.drop(fmt.Sprintf("invalid source varint: %v", err), chunk)
			return nil, false
		}
		p.HasSource = true
		p.Source = uint32(src)
		rest = rest[n:]
	}

	seq, n, err := varint.Decode(rest)
	if err != nil {
		d.drop(fmt.Sprintf("invalid seqnum varint: %v", err), chunk)
		return nil, false
	}
	p.SeqNum = uint64(seq)
	rest = rest[n:]

	var dropReason string
	if codec == Opus {
		rest, dropReason = decodeOpusFrames(p, rest)
	} else {
		rest, dropReason = decodeTOCFrames(p, rest)
	}
	if dropReason != "" {
		d.drop(dropReason, chunk)
		return nil, false
	}

	// The strict ">" (rather than ">=") preserves wire compatibility with
	// packets that carry exactly 12 trailing bytes of something other
	// than positional data.
	if len(rest) > 12 {
		var pos [3]float32
		pos[0] = math.Float32frombits(binary.BigEndian.Uint32(rest[0:4]))
		pos[1] = math.Float32frombits(binary.BigEndian.Uint32(rest[4:8]))
		pos[2] = math.Float32frombits(binary.BigEndian.Uint32(rest[8:12]))
		p.Position = &pos
	}

	return p, true
}

func decodeOpusFrames(p *Packet, rest []byte) ([]byte, string) {
	sizeAndEnd, n, err := varint.Decode(rest)
	if err != nil {
		return rest, fmt.Sprintf("invalid opus size varint: %v", err)
	}
	rest = rest[n:]

	p.End = sizeAndEnd&0x2000 != 0
	size := int(sizeAndEnd & 0x1FFF)
	if len(rest) < size {
		return rest, "truncated opus frame"
	}
	if size > 0 {
		p.Frames = [][]byte{append([]byte(nil), rest[:size]...)}
	}
	return rest[size:], ""
}

func decodeTOCFrames(p *Packet, rest []byte) ([]byte, string) {
	for {
		if len(rest) < 1 {
			return rest, "missing frame header"
		}
		toc := rest[0]
		rest = rest[1:]

		if toc == 0 {
			p.End = true
			return rest, ""
		}

		frameLen := int(toc & 0x7F)
		if len(rest) < frameLen {
			return rest, "truncated celt/speex frame"
		}
		p.Frames = append(p.Frames, append([]byte(nil), rest[:frameLen]...))
		rest = rest[frameLen:]

		if toc&0x80 == 0 {
			p.End = false
			return rest, ""
		}
	}
}
