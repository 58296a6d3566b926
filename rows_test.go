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
	"context"
	"testing"
)

func TestRowsNextEOFClearsConsumed(t *testing.T) {
	columns := []*ColumnDef{col("id", FieldTypeLong, false)}

	var rowPayload []byte
	rowPayload = appendLengthEncodedString(rowPayload, []byte("7"))

	var staged []byte
	staged = append(staged, framePacket(0, rowPayload)...)
	staged = append(staged, framePacket(1, []byte{0xfe, 0, 0, 0, 0})...)

	conn := newPipeConn(staged)
	mc := &Conn{transport: conn, buf: newBuffer(conn), consumed: false}
	rows := &Rows{mc: mc, columns: columns}

	if !rows.Next(context.Background()) {
		t.Fatalf("Next() = false on first row, err=%v", rows.Err())
	}
	if v, ok := rows.Scan()[0].(Int32); !ok || v != 7 {
		t.Errorf("row = %#v, want Int32(7)", rows.Scan())
	}
	if mc.consumed {
		t.Error("consumed = true before EOF reached")
	}

	if rows.Next(context.Background()) {
		t.Fatal("Next() = true at EOF")
	}
	if rows.Err() != nil {
		t.Errorf("Err() = %v, want nil at clean EOF", rows.Err())
	}
	if !mc.consumed {
		t.Error("consumed = false after EOF, want true")
	}
	if mc.closed {
		t.Error("closed = true after clean EOF, want false")
	}
}

func TestRowsNextServerErrorConsumedNotClosed(t *testing.T) {
	columns := []*ColumnDef{col("id", FieldTypeLong, false)}
	errPayload := append([]byte{0xff, 0x19, 0x04}, append([]byte("#42000"), []byte("syntax error")...)...)
	conn := newPipeConn(framePacket(0, errPayload))
	mc := &Conn{transport: conn, buf: newBuffer(conn)}
	rows := &Rows{mc: mc, columns: columns}

	if rows.Next(context.Background()) {
		t.Fatal("Next() = true, want false on server error")
	}
	perr, ok := rows.Err().(*ERRPacketError)
	if !ok {
		t.Fatalf("Err() = %T, want *ERRPacketError", rows.Err())
	}
	if perr.Message != "syntax error" {
		t.Errorf("Message = %q, want %q", perr.Message, "syntax error")
	}
	if !mc.consumed {
		t.Error("consumed = false after server error, want true")
	}
	if mc.closed {
		t.Error("closed = true after server error, want false")
	}
}

func TestRowsNextDecodeErrorClosesConn(t *testing.T) {
	columns := []*ColumnDef{col("id", FieldTypeLong, false)}
	// malformed length-encoded string: 0xfd prefix claims a 3-byte length
	// but only two length bytes follow.
	badPayload := []byte{0xfd, 0xff, 0xff}
	conn := newPipeConn(framePacket(0, badPayload))
	mc := &Conn{transport: conn, buf: newBuffer(conn)}
	rows := &Rows{mc: mc, columns: columns}

	if rows.Next(context.Background()) {
		t.Fatal("Next() = true, want false on decode error")
	}
	if rows.Err() == nil {
		t.Fatal("Err() = nil, want decode error")
	}
	if !mc.closed {
		t.Error("closed = false after decode error, want true")
	}
}

func TestRowsCloseDrainsRemaining(t *testing.T) {
	columns := []*ColumnDef{col("id", FieldTypeLong, false)}
	var row1, row2 []byte
	row1 = appendLengthEncodedString(row1, []byte("1"))
	row2 = appendLengthEncodedString(row2, []byte("2"))

	var staged []byte
	staged = append(staged, framePacket(0, row1)...)
	staged = append(staged, framePacket(1, row2)...)
	staged = append(staged, framePacket(2, []byte{0xfe, 0, 0, 0, 0})...)

	conn := newPipeConn(staged)
	mc := &Conn{transport: conn, buf: newBuffer(conn)}
	rows := &Rows{mc: mc, columns: columns}

	if err := rows.Close(context.Background()); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if !mc.consumed {
		t.Error("consumed = false after Close, want true")
	}
}
