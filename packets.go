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
	"fmt"
	"io"
)

// maxPayloadLen is the largest payload a single frame can carry (2^24 - 1).
// A frame with exactly this length signals that more frames follow.
const maxPayloadLen = 1<<24 - 1

// readPacket reads one logical packet off the connection, reassembling
// continuation frames per the 0xFFFFFF length rule. It returns the
// concatenated payload and the sequence number of the final fragment.
func (mc *Conn) readPacket() ([]byte, byte, error) {
	var payload []byte
	var seq byte

	for {
		header, err := mc.buf.readNext(4)
		if err != nil {
			return nil, 0, &NetworkError{Op: "read packet header", Err: err}
		}

		pktLen := int(uint32(header[0]) | uint32(header[1])<<8 | uint32(header[2])<<16)
		seq = header[3]

		data, err := mc.buf.readNext(pktLen)
		if err != nil {
			return nil, 0, &NetworkError{Op: "read packet body", Err: err}
		}

		isLast := pktLen < maxPayloadLen

		if isLast && payload == nil {
			mc.seq = seq + 1
			return data, seq, nil
		}

		buf := make([]byte, len(data))
		copy(buf, data)
		payload = append(payload, buf...)

		if isLast {
			mc.seq = seq + 1
			return payload, seq, nil
		}
	}
}

// writePacket writes payload as one or more frames, splitting at the
// 16 MiB boundary and incrementing seq per fragment. A payload whose
// length is an exact multiple of maxPayloadLen is followed by an empty
// terminating frame, per the MySQL framing rule.
func (mc *Conn) writePacket(payload []byte) error {
	for {
		var size int
		var header [4]byte

		if len(payload) >= maxPayloadLen {
			header[0], header[1], header[2] = 0xff, 0xff, 0xff
			size = maxPayloadLen
		} else {
			n := len(payload)
			header[0] = byte(n)
			header[1] = byte(n >> 8)
			header[2] = byte(n >> 16)
			size = n
		}
		header[3] = mc.seq

		if _, err := mc.transport.Write(header[:]); err != nil {
			return &NetworkError{Op: "write packet header", Err: err}
		}
		if size > 0 {
			if _, err := mc.transport.Write(payload[:size]); err != nil {
				return &NetworkError{Op: "write packet body", Err: err}
			}
		}
		mc.seq++

		if size != maxPayloadLen {
			return nil
		}
		payload = payload[size:]
	}
}

// startPacket resets the sequence counter to 0, as required at the start
// of every new top-level command.
func (mc *Conn) startPacket() {
	mc.seq = 0
}

// packetKind describes which well-known response packet a payload is, by
// its leading byte.
type packetKind int

const (
	packetOther packetKind = iota
	packetOK
	packetERR
	packetEOF
)

const (
	iOK           = 0x00
	iERR          = 0xff
	iEOF          = 0xfe
	iLocalInFile  = 0xfb
	iAuthMoreData = 0x01
)

// classifyPacket reports the well-known kind of a response packet. A
// short 0xFE payload (len < 9) is the legacy EOF marker; a longer one is a
// length-encoded integer appearing in some other context and is reported
// as packetOther so callers don't misparse it.
func classifyPacket(data []byte) packetKind {
	if len(data) == 0 {
		return packetOther
	}
	switch data[0] {
	case iOK:
		return packetOK
	case iERR:
		return packetERR
	case iEOF:
		if len(data) < 9 {
			return packetEOF
		}
	}
	return packetOther
}

// readResultSetHeaderPacket reads one packet and interprets it as either
// an OK packet, an ERR packet, or the start of a result set (a
// length-encoded column count). It returns the column count, 0 for OK.
func (mc *Conn) readResultSetHeaderPacket() (uint64, error) {
	data, _, err := mc.readPacket()
	if err != nil {
		return 0, err
	}

	switch classifyPacket(data) {
	case packetOK:
		return 0, nil
	case packetERR:
		return 0, mc.parseErrPacket(data)
	}

	n, isNull, consumed := readLengthEncodedInteger(data)
	if consumed == 0 || isNull {
		return 0, fmt.Errorf("%w: bad result set header", ErrUnexpectedPacket)
	}
	return n, nil
}

// OKPacket is the decoded server acknowledgment for a command that did
// not produce a result set.
type OKPacket struct {
	AffectedRows uint64
	LastInsertID uint64
	StatusFlags  uint16
	Warnings     uint16
	Message      string
}

// parseOKPacket decodes an OK packet body (leading 0x00 byte already
// confirmed by the caller via classifyPacket).
func parseOKPacket(data []byte) (*OKPacket, error) {
	r := newLenencReader(data[1:])

	affectedRows, err := r.uint64()
	if err != nil {
		return nil, fmt.Errorf("%w: OK.affectedRows: %v", ErrMalformPkt, err)
	}
	lastInsertID, err := r.uint64()
	if err != nil {
		return nil, fmt.Errorf("%w: OK.lastInsertId: %v", ErrMalformPkt, err)
	}
	rest, err := r.take(4)
	if err != nil {
		return nil, fmt.Errorf("%w: OK.status/warnings: %v", ErrMalformPkt, err)
	}
	ok := &OKPacket{
		AffectedRows: affectedRows,
		LastInsertID: lastInsertID,
		StatusFlags:  uint16(rest[0]) | uint16(rest[1])<<8,
		Warnings:     uint16(rest[2]) | uint16(rest[3])<<8,
	}
	if r.pos < len(r.b) {
		if msg, err := r.string(); err == nil {
			ok.Message = msg
		}
	}
	return ok, nil
}

// EOFPacket is the decoded legacy end-of-result-set marker.
type EOFPacket struct {
	Warnings    uint16
	StatusFlags uint16
}

func parseEOFPacket(data []byte) (*EOFPacket, error) {
	if len(data) < 5 {
		return &EOFPacket{}, nil
	}
	return &EOFPacket{
		Warnings:    uint16(data[1]) | uint16(data[2])<<8,
		StatusFlags: uint16(data[3]) | uint16(data[4])<<8,
	}, nil
}

// parseErrPacket decodes a server ERR packet into an *ERRPacketError.
func (mc *Conn) parseErrPacket(data []byte) error {
	if len(data) < 3 {
		return fmt.Errorf("%w: truncated ERR packet", ErrMalformPkt)
	}
	code := uint16(data[1]) | uint16(data[2])<<8
	pos := 3
	sqlState := ""
	if len(data) > pos && data[pos] == '#' {
		if len(data) < pos+6 {
			return fmt.Errorf("%w: truncated ERR sqlstate", ErrMalformPkt)
		}
		sqlState = string(data[pos+1 : pos+6])
		pos += 6
	}
	return &ERRPacketError{Code: code, SQLState: sqlState, Message: string(data[pos:])}
}

// discard reads and drops n bytes from r, for skipping reserved fields.
func discard(r io.Reader, n int) error {
	_, err := io.CopyN(io.Discard, r, int64(n))
	return err
}
