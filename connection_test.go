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
	"bytes"
	"crypto/sha1"
	"errors"
	"testing"
)

func TestScramblePassword(t *testing.T) {
	password := "secret"
	salt := []byte("01234567890123456789")

	got := scramblePassword(password, salt)

	stage1 := sha1.Sum([]byte(password))
	stage2 := sha1.Sum(stage1[:])
	h := sha1.New()
	h.Write(salt)
	h.Write(stage2[:])
	want := h.Sum(nil)
	for i := range want {
		want[i] ^= stage1[i]
	}

	if !bytes.Equal(got, want) {
		t.Errorf("scramblePassword mismatch:\ngot  %x\nwant %x", got, want)
	}
	if len(got) != 20 {
		t.Errorf("len(scramblePassword) = %d, want 20", len(got))
	}
}

func TestScramblePasswordEmpty(t *testing.T) {
	if got := scramblePassword("", []byte("salt")); got != nil {
		t.Errorf("scramblePassword(\"\", ...) = %v, want nil", got)
	}
}

func TestCheckConsumed(t *testing.T) {
	mc := &Conn{consumed: true}
	if err := mc.checkConsumed(); err != nil {
		t.Errorf("checkConsumed() = %v, want nil when consumed", err)
	}

	mc.consumed = false
	if err := mc.checkConsumed(); !errors.Is(err, ErrUnconsumedResultSet) {
		t.Errorf("checkConsumed() = %v, want ErrUnconsumedResultSet", err)
	}

	mc.closed = true
	if err := mc.checkConsumed(); !errors.Is(err, ErrConnClosed) {
		t.Errorf("checkConsumed() = %v, want ErrConnClosed", err)
	}
}

func TestReadColumnDefs(t *testing.T) {
	mkColumnDef := func(name string) []byte {
		var data []byte
		data = appendLengthEncodedString(data, []byte("def"))
		data = appendLengthEncodedString(data, []byte("schema"))
		data = appendLengthEncodedString(data, []byte("table"))
		data = appendLengthEncodedString(data, []byte("table"))
		data = appendLengthEncodedString(data, []byte(name))
		data = appendLengthEncodedString(data, []byte(name))
		data = appendLengthEncodedInteger(data, 0x0c)
		data = append(data, 0x21, 0x00, 0, 0, 0, 0, byte(FieldTypeLong), 0, 0, 0)
		return data
	}

	var staged []byte
	staged = append(staged, framePacket(0, mkColumnDef("a"))...)
	staged = append(staged, framePacket(1, mkColumnDef("b"))...)
	staged = append(staged, framePacket(2, []byte{0xfe, 0, 0, 0, 0})...)

	conn := newPipeConn(staged)
	mc := &Conn{transport: conn, buf: newBuffer(conn), consumed: true}

	cols, err := mc.readColumnDefs(2)
	if err != nil {
		t.Fatalf("readColumnDefs: %v", err)
	}
	if len(cols) != 2 || cols[0].Name != "a" || cols[1].Name != "b" {
		t.Errorf("readColumnDefs = %+v, unexpected", cols)
	}
}
