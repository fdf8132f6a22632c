package voice

import (
	"encoding/binary"
	"math"

	"mumble.info/grumble-codec/pkg/varint"
)

// Encoder turns PingPacket/Packet values into their wire representation
// for the given direction. Encoders hold no state between calls; one
// input packet always produces exactly one output datagram.
type Encoder struct {
	Dir Direction
}

// NewEncoder returns an Encoder for the given direction.
func NewEncoder(dir Direction) *Encoder {
	return &Encoder{Dir: dir}
}

// EncodePing encodes a ping datagram.
func (e *Encoder) EncodePing(p *PingPacket) ([]byte, error) {
	buf := []byte{headerByte(Ping, 0)}
	ts, err := varint.Encode(int64(p.Timestamp))
	if err != nil {
		return nil, err
	}
	return append(buf, ts...), nil
}

// EncodeVoice encodes a voice datagram.
func (e *Encoder) EncodeVoice(p *Packet) ([]byte, error) {
	switch p.Codec {
	case CELTAlpha, CELTBeta, Speex, Opus:
	default:
		return nil, ErrUnknownCodec
	}

	buf := []byte{headerByte(p.Codec, p.Mode)}

	if e.Dir == Client {
		src, err := varint.Encode(int64(p.Source))
		if err != nil {
			return nil, err
		}
		buf = append(buf, src...)
	}

	seq, err := varint.Encode(int64(p.SeqNum))
	if err != nil {
		return nil, err
	}
	buf = append(buf, seq...)

	framePayload, err := e.encodeFrames(p)
	if err != nil {
		return nil, err
	}
	buf = append(buf, framePayload...)

	if p.Position != nil {
		var posBuf [12]byte
		binary.BigEndian.PutUint32(posBuf[0:4], math.Float32bits(p.Position[0]))
		binary.BigEndian.PutUint32(posBuf[4:8], math.Float32bits(p.Position[1]))
		binary.BigEndian.PutUint32(posBuf[8:12], math.Float32bits(p.Position[2]))
		buf = append(buf, posBuf[:]...)
	}

	return buf, nil
}

func (e *Encoder) encodeFrames(p *Packet) ([]byte, error) {
	if p.Codec == Opus {
		return encodeOpusFrames(p)
	}
	return encodeTOCFrames(p)
}

func encodeOpusFrames(p *Packet) ([]byte, error) {
	if len(p.Frames) > 1 {
		return nil, ErrOpusMultiframe
	}

	endBit := 0
	if p.End {
		endBit = 0x2000
	}

	if len(p.Frames) == 0 {
		return varint.Encode(int64(endBit))
	}

	frame := p.Frames[0]
	if len(frame) > 0x1FFF {
		return nil, ErrFrameTooLarge
	}

	sizeField, err := varint.Encode(int64(len(frame) | endBit))
	if err != nil {
		return nil, err
	}
	return append(sizeField, frame...), nil
}

func encodeTOCFrames(p *Packet) ([]byte, error) {
	if len(p.Frames) == 0 && !p.End {
		return nil, ErrNoFramesNoEnd
	}

	var out []byte
	for i, frame := range p.Frames {
		if len(frame) > 127 {
			return nil, ErrFrameTooLarge
		}
		toc := byte(len(frame))
		// The last frame keeps its continuation bit when the 0x00
		// terminator follows it.
		if i != len(p.Frames)-1 || p.End {
			toc |= 0x80
		}
		out = append(out, toc)
		out = append(out, frame...)
	}

	if p.End {
		out = append(out, 0x00)
	}
	return out, nil
}
