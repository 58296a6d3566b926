// Go MySQL Driver - A MySQL-Driver for Go's database/sql package
//
// Copyright 2012 Julien Schmidt. All rights reserved.
// http://www.julienschmidt.com
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this file,
// You can obtain one at http://mozilla.org/MPL/2.0/.

package mysql

import "testing"

func TestLengthEncodedIntegerRoundTrip(t *testing.T) {
	values := []uint64{0, 1, 250, 251, 252, 0xfc, 0xffff, 0x10000, 0xffffff, 0x1000000, 1 << 32, ^uint64(0)}

	for _, v := range values {
		enc := appendLengthEncodedInteger(nil, v)
		if n := lengthEncodedIntegerSize(v); n != len(enc) {
			t.Errorf("lengthEncodedIntegerSize(%d) = %d, want %d", v, n, len(enc))
		}
		got, isNull, n := readLengthEncodedInteger(enc)
		if isNull {
			t.Errorf("readLengthEncodedInteger(%v) reported NULL for %d", enc, v)
		}
		if n != len(enc) {
			t.Errorf("readLengthEncodedInteger(%v) consumed %d bytes, want %d", enc, n, len(enc))
		}
		if got != v {
			t.Errorf("round trip %d => %v => %d", v, enc, got)
		}
	}
}

func TestLengthEncodedIntegerNull(t *testing.T) {
	_, isNull, n := readLengthEncodedInteger([]byte{0xfb})
	if !isNull || n != 1 {
		t.Errorf("readLengthEncodedInteger(0xfb) = (_, %v, %d), want (_, true, 1)", isNull, n)
	}
}

func TestLengthEncodedIntegerTruncated(t *testing.T) {
	cases := [][]byte{
		{0xfc, 0x01},
		{0xfd, 0x01, 0x02},
		{0xfe, 0x01, 0x02, 0x03},
		{},
	}
	for _, b := range cases {
		_, _, n := readLengthEncodedInteger(b)
		if n != 0 {
			t.Errorf("readLengthEncodedInteger(%v) consumed %d, want 0 on truncation", b, n)
		}
	}
}

func TestLengthEncodedStringRoundTrip(t *testing.T) {
	strs := [][]byte{
		{},
		[]byte("hello"),
		make([]byte, 300),
		make([]byte, 70000),
	}
	for _, s := range strs {
		enc := appendLengthEncodedString(nil, s)
		got, isNull, n, err := readLengthEncodedString(enc)
		if err != nil {
			t.Fatalf("readLengthEncodedString: %v", err)
		}
		if isNull {
			t.Fatalf("readLengthEncodedString(%v) reported NULL", enc)
		}
		if n != len(enc) {
			t.Errorf("consumed %d, want %d", n, len(enc))
		}
		if len(got) != len(s) {
			t.Errorf("round trip length %d, want %d", len(got), len(s))
		}
	}
}

func TestLengthEncodedStringNull(t *testing.T) {
	_, isNull, n, err := readLengthEncodedString([]byte{0xfb})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !isNull || n != 1 {
		t.Errorf("got (isNull=%v, n=%d), want (true, 1)", isNull, n)
	}
}

func TestLenencReaderSequence(t *testing.T) {
	var b []byte
	b = appendLengthEncodedInteger(b, 42)
	b = appendLengthEncodedString(b, []byte("def"))
	b = appendLengthEncodedString(b, []byte("schema"))

	r := newLenencReader(b)
	n, err := r.uint64()
	if err != nil || n != 42 {
		t.Fatalf("uint64() = (%d, %v), want (42, nil)", n, err)
	}
	s1, err := r.string()
	if err != nil || s1 != "def" {
		t.Fatalf("string() = (%q, %v), want (\"def\", nil)", s1, err)
	}
	s2, err := r.string()
	if err != nil || s2 != "schema" {
		t.Fatalf("string() = (%q, %v), want (\"schema\", nil)", s2, err)
	}
}
