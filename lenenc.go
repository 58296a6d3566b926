// Go MySQL Driver - A MySQL-Driver for Go's database/sql package
//
// Copyright 2012 Julien Schmidt. All rights reserved.
// http://www.julienschmidt.com
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this file,
// You can obtain one at http://mozilla.org/MPL/2.0/.

package mysql

import (
	"encoding/binary"
	"fmt"
)

// lenencNullMarker is the first-byte value signaling SQL NULL where a
// length-encoded string is expected. It is never a valid length-encoded
// integer value; integers never encode NULL.
const lenencNullMarker = 0xfb

// readLengthEncodedInteger reads a length-encoded integer from b, returning
// the decoded value, whether it denoted NULL, and the number of bytes
// consumed. It is used both standalone (lenenc ints) and as the length
// prefix of a lenenc string.
func readLengthEncodedInteger(b []byte) (value uint64, isNull bool, n int) {
	if len(b) == 0 {
		return 0, false, 0
	}
	switch b[0] {
	case 0xfb:
		return 0, true, 1
	case 0xfc:
		if len(b) < 3 {
			return 0, false, 0
		}
		return uint64(binary.LittleEndian.Uint16(b[1:3])), false, 3
	case 0xfd:
		if len(b) < 4 {
			return 0, false, 0
		}
		return uint64(b[1]) | uint64(b[2])<<8 | uint64(b[3])<<16, false, 4
	case 0xfe:
		if len(b) < 9 {
			return 0, false, 0
		}
		return binary.LittleEndian.Uint64(b[1:9]), false, 9
	default:
		return uint64(b[0]), false, 1
	}
}

// appendLengthEncodedInteger appends n to dst in its shortest lenenc form.
func appendLengthEncodedInteger(dst []byte, n uint64) []byte {
	switch {
	case n <= 250:
		return append(dst, byte(n))
	case n <= 0xffff:
		return append(dst, 0xfc, byte(n), byte(n>>8))
	case n <= 0xffffff:
		return append(dst, 0xfd, byte(n), byte(n>>8), byte(n>>16))
	default:
		b := append(dst, 0xfe)
		var tmp [8]byte
		binary.LittleEndian.PutUint64(tmp[:], n)
		return append(b, tmp[:]...)
	}
}

// lengthEncodedIntegerSize returns the number of bytes appendLengthEncodedInteger
// would emit for n, without allocating.
func lengthEncodedIntegerSize(n uint64) int {
	switch {
	case n <= 250:
		return 1
	case n <= 0xffff:
		return 3
	case n <= 0xffffff:
		return 4
	default:
		return 9
	}
}

// readLengthEncodedString reads a length-encoded string (lenenc int length
// prefix followed by that many raw bytes) from b.
func readLengthEncodedString(b []byte) (data []byte, isNull bool, n int, err error) {
	length, isNull, n := readLengthEncodedInteger(b)
	if n == 0 {
		return nil, false, 0, fmt.Errorf("%w: truncated length-encoded string length", ErrMalformPkt)
	}
	if isNull {
		return nil, true, n, nil
	}
	if uint64(len(b)) < uint64(n)+length {
		return nil, false, 0, fmt.Errorf("%w: truncated length-encoded string data", ErrMalformPkt)
	}
	return b[n : n+int(length)], false, n + int(length), nil
}

// appendLengthEncodedString appends s to dst as a length-encoded string.
func appendLengthEncodedString(dst []byte, s []byte) []byte {
	dst = appendLengthEncodedInteger(dst, uint64(len(s)))
	return append(dst, s...)
}

// lenencReader sequentially pulls length-encoded fields off a byte slice,
// used for column-definition and handshake packet parsing.
type lenencReader struct {
	b   []byte
	pos int
	err error
}

func newLenencReader(b []byte) *lenencReader {
	return &lenencReader{b: b}
}

func (r *lenencReader) uint64() (uint64, error) {
	if r.err != nil {
		return 0, r.err
	}
	v, isNull, n := readLengthEncodedInteger(r.b[r.pos:])
	if n == 0 || isNull {
		r.err = fmt.Errorf("%w: expected length-encoded integer", ErrMalformPkt)
		return 0, r.err
	}
	r.pos += n
	return v, nil
}

func (r *lenencReader) bytes() ([]byte, error) {
	if r.err != nil {
		return nil, r.err
	}
	data, _, n, err := readLengthEncodedString(r.b[r.pos:])
	if err != nil {
		r.err = err
		return nil, err
	}
	r.pos += n
	return data, nil
}

func (r *lenencReader) string() (string, error) {
	b, err := r.bytes()
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func (r *lenencReader) take(n int) ([]byte, error) {
	if r.err != nil {
		return nil, r.err
	}
	if r.pos+n > len(r.b) {
		r.err = fmt.Errorf("%w: short read", ErrMalformPkt)
		return nil, r.err
	}
	b := r.b[r.pos : r.pos+n]
	r.pos += n
	return b, nil
}
