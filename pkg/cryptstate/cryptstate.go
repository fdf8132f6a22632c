// Copyright (c) 2010-2011 The Grumble Authors
// The use of this source code is goverened by a BSD-style
// license that can be found in the LICENSE-file.

// Package cryptstate implements OCB2-AES128 authenticated encryption of
// Mumble UDP datagrams, including the per-packet single-byte nonce shard
// and anti-replay history described in §4.4. It is grounded on the
// teacher's client.crypt usage (cmd/grumble/client.go: client.crypt.Encrypt,
// client.crypt.Overhead, client.crypt.LastGoodTime) and on the crypto
// mode advertisement in tlsRecvLoop (cryptstate.SupportedModes), though
// the block-level OCB2 arithmetic itself is reconstructed directly from
// the wire contract in §4.4 since the original package was not part of
// the retrieval pack.
package cryptstate

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"errors"
)

// KeySize is the size in bytes of the key and both IVs.
const KeySize = 16

// Errors returned by State methods (§7 crypto errors).
var (
	ErrBadKeyLength = errors.New("cryptstate: key or IV must be exactly 16 bytes")
	ErrNotReady     = errors.New("cryptstate: key material not fully installed")
	ErrReplay       = errors.New("cryptstate: replayed or duplicate packet")
	ErrOutOfRange   = errors.New("cryptstate: nonce out of acceptable reordering range")
	ErrAuthFailure  = errors.New("cryptstate: authentication tag mismatch")
)

// Stats accumulates decrypt outcomes. It is externally owned; State.Decrypt
// only ever adds to it on success, exactly as §5 describes ("mutated only
// by UdpCrypt.decrypt on success").
type Stats struct {
	Good int64
	Late int64
	Lost int64
}

// State holds the symmetric key and both IV counters for one connection
// half. The zero value is a valid, not-yet-ready State.
type State struct {
	Key       [KeySize]byte
	EncryptIV [KeySize]byte
	DecryptIV [KeySize]byte

	hasKey, hasEncryptIV, hasDecryptIV bool

	decryptHistory [256]byte

	block cipher.Block
}

// New returns an empty, not-ready State.
func New() *State {
	s := &State{}
	s.resetHistory()
	return s
}

func (s *State) resetHistory() {
	for i := range s.decryptHistory {
		// 0xFF is not a valid second-nonce-byte pairing for a freshly
		// keyed epoch whose IVs commonly start at or near all-zero, so
		// it cannot be mistaken for a real previously-seen packet.
		s.decryptHistory[i] = 0xFF
	}
}

// Ready reports whether key, EncryptIV and DecryptIV have all been set.
func (s *State) Ready() bool {
	return s.hasKey && s.hasEncryptIV && s.hasDecryptIV
}

// SetKey installs the session key.
func (s *State) SetKey(key []byte) error {
	if len(key) != KeySize {
		return ErrBadKeyLength
	}
	copy(s.Key[:], key)
	block, err := aes.NewCipher(s.Key[:])
	if err != nil {
		return err
	}
	s.block = block
	s.hasKey = true
	return nil
}

// SetDecryptIV installs the receive-side IV and resets replay history for
// the new epoch.
func (s *State) SetDecryptIV(iv []byte) error {
	if len(iv) != KeySize {
		return ErrBadKeyLength
	}
	copy(s.DecryptIV[:], iv)
	s.hasDecryptIV = true
	s.resetHistory()
	return nil
}

// SetEncryptIV installs the send-side IV.
func (s *State) SetEncryptIV(iv []byte) error {
	if len(iv) != KeySize {
		return ErrBadKeyLength
	}
	copy(s.EncryptIV[:], iv)
	s.hasEncryptIV = true
	return nil
}

// GenerateKey draws 48 random bytes and partitions them into key,
// decryptIV and encryptIV, per §4.4.6.
func (s *State) GenerateKey() error {
	var buf [3 * KeySize]byte
	if _, err := rand.Read(buf[:]); err != nil {
		return err
	}
	if err := s.SetKey(buf[0:KeySize]); err != nil {
		return err
	}
	if err := s.SetDecryptIV(buf[KeySize : 2*KeySize]); err != nil {
		return err
	}
	return s.SetEncryptIV(buf[2*KeySize : 3*KeySize])
}

// Overhead is the number of bytes Encrypt adds to a plaintext of any
// length: one nonce-shard byte plus a 3-byte truncated authentication tag.
func (s *State) Overhead() int {
	return 4
}

// incrementLE advances a little-endian 128-bit counter by one, carrying
// upward; wraparound from all-0xFF back to all-zero is intentional.
func incrementLE(b *[KeySize]byte) {
	for i := 0; i < len(b); i++ {
		b[i]++
		if b[i] != 0 {
			break
		}
	}
}

// carryFrom propagates an increment-carry starting at index start.
func carryFrom(b *[KeySize]byte, start int) {
	for i := start; i < len(b); i++ {
		b[i]++
		if b[i] != 0 {
			break
		}
	}
}

// borrowFrom propagates a decrement-borrow starting at index start.
func borrowFrom(b *[KeySize]byte, start int) {
	for i := start; i < len(b); i++ {
		if b[i] == 0 {
			b[i] = 0xFF
			continue
		}
		b[i]--
		break
	}
}

// Encrypt authenticates and encrypts plaintext, advancing EncryptIV by one
// first. It never fails once the state is Ready (§7).
func (s *State) Encrypt(plaintext []byte) ([]byte, error) {
	if !s.Ready() {
		return nil, ErrNotReady
	}

	incrementLE(&s.EncryptIV)

	ciphertext, tag := ocb2Encrypt(s.block, s.EncryptIV, plaintext)

	out := make([]byte, s.Overhead()+len(ciphertext))
	out[0] = s.EncryptIV[0]
	out[1], out[2], out[3] = tag[0], tag[1], tag[2]
	copy(out[4:], ciphertext)
	return out, nil
}

// Decrypt authenticates and decrypts data, synchronizing DecryptIV with
// the packet's nonce shard and updating replay history and stats on
// success. On any failure DecryptIV and the replay history are left
// exactly as they were before the call (§8 property 6), and stats is not
// touched.
func (s *State) Decrypt(data []byte, stats *Stats) ([]byte, error) {
	if !s.Ready() {
		return nil, ErrNotReady
	}
	if len(data) < s.Overhead() {
		return nil, ErrAuthFailure
	}

	ivbyte := data[0]
	working := s.DecryptIV
	expected := (working[0] + 1) & 0xFF

	var late, lost int64
	var restore bool
	var outOfRange bool

	if ivbyte == expected {
		if ivbyte > working[0] {
			working[0] = ivbyte
		} else {
			working[0] = ivbyte
			carryFrom(&working, 1)
		}
	} else {
		diff := int(ivbyte) - int(working[0])
		if diff > 128 {
			diff -= 256
		} else if diff < -128 {
			diff += 256
		}

		switch {
		case ivbyte < working[0] && diff > -30 && diff < 0:
			late, lost = 1, -1
			working[0] = ivbyte
			restore = true
		case ivbyte > working[0] && diff > -30 && diff < 0:
			late, lost = 1, -1
			working[0] = ivbyte
			borrowFrom(&working, 1)
			restore = true
		case ivbyte > working[0] && diff > 0:
			lost += int64(ivbyte) - int64(working[0]) - 1
			working[0] = ivbyte
		case ivbyte < working[0] && diff > 0:
			lost += 256 - int64(working[0]) + int64(ivbyte) - 1
			working[0] = ivbyte
			carryFrom(&working, 1)
		default:
			working[0] = ivbyte
			outOfRange = true
		}
	}

	// The replay check runs before the out-of-range fallback is honored:
	// an exact repeat of an already-accepted packet has diff == 0, which
	// matches none of the numbered reordering cases above, but must still
	// be reported as a replay rather than an out-of-range nonce (§8
	// property 7).
	if s.decryptHistory[working[0]] == working[1] {
		return nil, ErrReplay
	}
	if outOfRange {
		return nil, ErrOutOfRange
	}

	plaintext, tag := ocb2Decrypt(s.block, working, data[4:])
	if tag[0] != data[1] || tag[1] != data[2] || tag[2] != data[3] {
		return nil, ErrAuthFailure
	}

	s.decryptHistory[working[0]] = working[1]
	if restore {
		// Late packet: it authenticated, but our main pointer stays put
		// since an earlier packet is still the most recent one in order.
	} else {
		s.DecryptIV = working
	}

	stats.Good++
	stats.Late += late
	stats.Lost += lost

	return plaintext, nil
}
