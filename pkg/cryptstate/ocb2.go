// Copyright (c) 2010-2011 The Grumble Authors
// The use of this source code is goverened by a BSD-style
// license that can be found in the LICENSE-file.

package cryptstate

import "crypto/cipher"

const blockSize = 16

// s2 multiplies the 128-bit big-endian value in b by x in GF(2^128) under
// the OCB2 polynomial, in place.
func s2(b *[blockSize]byte) {
	carry := b[0] >> 7
	for i := 0; i < blockSize-1; i++ {
		b[i] = (b[i] << 1) | (b[i+1] >> 7)
	}
	b[blockSize-1] <<= 1
	if carry != 0 {
		b[blockSize-1] ^= 0x87
	}
}

// s3 multiplies b by x+1 in GF(2^128), in place.
func s3(b *[blockSize]byte) {
	orig := *b
	s2(b)
	xorAccum(b, orig)
}

func xorInto(dst *[blockSize]byte, a, b [blockSize]byte) {
	for i := 0; i < blockSize; i++ {
		dst[i] = a[i] ^ b[i]
	}
}

func xorAccum(dst *[blockSize]byte, v [blockSize]byte) {
	for i := 0; i < blockSize; i++ {
		dst[i] ^= v[i]
	}
}

// ocb2Encrypt runs the OCB2 encryption transform described in §4.4.3,
// returning the ciphertext (same length as plaintext) and the 16-byte
// authentication tag.
func ocb2Encrypt(block cipher.Block, nonce [blockSize]byte, plaintext []byte) (ciphertext []byte, tag [blockSize]byte) {
	var delta [blockSize]byte
	block.Encrypt(delta[:], nonce[:])

	var checksum [blockSize]byte
	n := len(plaintext)
	full := n / blockSize
	rem := n % blockSize
	ciphertext = make([]byte, n)

	for i := 0; i < full; i++ {
		s2(&delta)

		var p [blockSize]byte
		copy(p[:], plaintext[i*blockSize:(i+1)*blockSize])

		var xored, enc, c [blockSize]byte
		xorInto(&xored, delta, p)
		block.Encrypt(enc[:], xored[:])
		xorInto(&c, delta, enc)

		copy(ciphertext[i*blockSize:(i+1)*blockSize], c[:])
		xorAccum(&checksum, p)
	}

	s2(&delta)
	var lenBlock [blockSize]byte
	lenBlock[blockSize-1] = byte(rem * 8)

	var padIn, pad [blockSize]byte
	xorInto(&padIn, lenBlock, delta)
	block.Encrypt(pad[:], padIn[:])

	var tmp [blockSize]byte
	copy(tmp[:rem], plaintext[full*blockSize:])
	copy(tmp[rem:], pad[rem:])
	xorAccum(&checksum, tmp)

	var cFinal [blockSize]byte
	xorInto(&cFinal, pad, tmp)
	copy(ciphertext[full*blockSize:], cFinal[:rem])

	s3(&delta)
	var tagIn [blockSize]byte
	xorInto(&tagIn, delta, checksum)
	block.Encrypt(tag[:], tagIn[:])

	return ciphertext, tag
}

// ocb2Decrypt runs the inverse transform described in §4.4.5.
func ocb2Decrypt(block cipher.Block, nonce [blockSize]byte, ciphertext []byte) (plaintext []byte, tag [blockSize]byte) {
	var delta [blockSize]byte
	block.Encrypt(delta[:], nonce[:])

	var checksum [blockSize]byte
	n := len(ciphertext)
	full := n / blockSize
	rem := n % blockSize
	plaintext = make([]byte, n)

	for i := 0; i < full; i++ {
		s2(&delta)

		var c [blockSize]byte
		copy(c[:], ciphertext[i*blockSize:(i+1)*blockSize])

		var xored, dec, p [blockSize]byte
		xorInto(&xored, delta, c)
		block.Decrypt(dec[:], xored[:])
		xorInto(&p, delta, dec)

		copy(plaintext[i*blockSize:(i+1)*blockSize], p[:])
		xorAccum(&checksum, p)
	}

	s2(&delta)
	var lenBlock [blockSize]byte
	lenBlock[blockSize-1] = byte(rem * 8)

	var padIn, pad [blockSize]byte
	xorInto(&padIn, lenBlock, delta)
	block.Encrypt(pad[:], padIn[:])

	var catBlock, tmp [blockSize]byte
	copy(catBlock[:rem], ciphertext[full*blockSize:])
	xorInto(&tmp, catBlock, pad)
	xorAccum(&checksum, tmp)
	copy(plaintext[full*blockSize:], tmp[:rem])

	s3(&delta)
	var tagIn [blockSize]byte
	xorInto(&tagIn, delta, checksum)
	block.Encrypt(tag[:], tagIn[:])

	return plaintext, tag
}
