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
	"fmt"
)

// Greeting is the server's initial handshake packet (protocol version 10).
type Greeting struct {
	ProtocolVersion byte
	ServerVersion   string
	ConnectionID    uint32
	Salt1           []byte // first 8 bytes of the auth-data salt
	Salt2           []byte // remaining salt bytes (protocol 41 only)
	Capability      uint32
	Charset         byte
	Status          uint16
	AuthPluginName  string
}

// Salt returns the concatenated scramble salt, Salt1 followed by Salt2.
func (g *Greeting) Salt() []byte {
	return append(append([]byte{}, g.Salt1...), g.Salt2...)
}

// parseGreeting decodes a version-10 handshake initialization packet.
func parseGreeting(data []byte) (*Greeting, error) {
	if len(data) < 1 {
		return nil, fmt.Errorf("%w: empty greeting", ErrMalformPkt)
	}
	if data[0] != 10 {
		return nil, fmt.Errorf("%w: unsupported protocol version %d", ErrUnexpectedPacket, data[0])
	}

	pos := 1
	end := bytes.IndexByte(data[pos:], 0)
	if end < 0 {
		return nil, fmt.Errorf("%w: unterminated server version", ErrMalformPkt)
	}
	serverVersion := string(data[pos : pos+end])
	pos += end + 1

	if len(data) < pos+4+8+1+2 {
		return nil, fmt.Errorf("%w: truncated greeting", ErrMalformPkt)
	}
	connID := uint32(data[pos]) | uint32(data[pos+1])<<8 | uint32(data[pos+2])<<16 | uint32(data[pos+3])<<24
	pos += 4

	salt1 := append([]byte{}, data[pos:pos+8]...)
	pos += 8
	pos++ // filler byte

	capLow := uint32(data[pos]) | uint32(data[pos+1])<<8
	pos += 2

	g := &Greeting{
		ProtocolVersion: 10,
		ServerVersion:   serverVersion,
		ConnectionID:    connID,
		Salt1:           salt1,
		Capability:      capLow,
	}

	if len(data) <= pos {
		return g, nil
	}
	g.Charset = data[pos]
	pos++

	if len(data) < pos+2 {
		return g, nil
	}
	g.Status = uint16(data[pos]) | uint16(data[pos+1])<<8
	pos += 2

	if len(data) < pos+2 {
		return g, nil
	}
	capHigh := uint32(data[pos]) | uint32(data[pos+1])<<8
	pos += 2
	g.Capability |= capHigh << 16

	if len(data) <= pos {
		return g, nil
	}
	authDataLen := int(data[pos])
	pos++

	pos += 10 // reserved

	if g.Capability&clientSecureConnection != 0 {
		saltLen := authDataLen - 8
		if saltLen < 13 {
			saltLen = 13 // MySQL pads to at least 13 bytes including the NUL
		}
		if len(data) < pos+saltLen {
			return g, nil
		}
		salt2 := data[pos : pos+saltLen]
		// trailing NUL terminator
		salt2 = bytes.TrimRight(salt2, "\x00")
		g.Salt2 = append([]byte{}, salt2...)
		pos += saltLen
	}

	if g.Capability&clientPluginAuth != 0 && len(data) > pos {
		name := data[pos:]
		name = bytes.TrimRight(name, "\x00")
		g.AuthPluginName = string(name)
	}

	return g, nil
}

// StmtPrepareOK is the decoded response to COM_STMT_PREPARE.
type StmtPrepareOK struct {
	StatementID  uint32
	ColumnCount  uint16
	ParamCount   uint16
	Warnings     uint16
}

func parseStmtPrepareOK(data []byte) (*StmtPrepareOK, error) {
	if len(data) < 12 {
		return nil, fmt.Errorf("%w: truncated COM_STMT_PREPARE response", ErrMalformPkt)
	}
	return &StmtPrepareOK{
		StatementID: uint32(data[1]) | uint32(data[2])<<8 | uint32(data[3])<<16 | uint32(data[4])<<24,
		ColumnCount: uint16(data[5]) | uint16(data[6])<<8,
		ParamCount:  uint16(data[7]) | uint16(data[8])<<8,
		Warnings:    uint16(data[10]) | uint16(data[11])<<8,
	}, nil
}
