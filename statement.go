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
	"fmt"
)

// Statement is a prepared statement handle bound to the Conn that
// prepared it. It is invalid after CloseStmt or after its Conn closes.
type Statement struct {
	mc         *Conn
	id         uint32
	paramCount int
	params     []*ColumnDef
	columns    []*ColumnDef
}

// ParamCount reports the number of placeholders the statement expects.
func (s *Statement) ParamCount() int { return s.paramCount }

// Columns reports the result set's column descriptors, empty for a
// statement that never produces rows.
func (s *Statement) Columns() []*ColumnDef { return s.columns }

// PrepareStatement sends COM_STMT_PREPARE and reads back the parameter
// and result column metadata.
func (mc *Conn) PrepareStatement(ctx context.Context, sql string) (*Statement, error) {
	if err := mc.checkConsumed(); err != nil {
		return nil, err
	}
	defer mc.clearDeadline(mc.setDeadline(ctx))

	mc.startPacket()
	payload := append([]byte{comStmtPrepare}, []byte(sql)...)
	if err := mc.writePacket(payload); err != nil {
		return nil, err
	}

	data, _, err := mc.readPacket()
	if err != nil {
		return nil, err
	}
	if classifyPacket(data) == packetERR {
		return nil, mc.parseErrPacket(data)
	}

	prep, err := parseStmtPrepareOK(data)
	if err != nil {
		return nil, err
	}

	stmt := &Statement{mc: mc, id: prep.StatementID, paramCount: int(prep.ParamCount)}

	if prep.ParamCount > 0 {
		params, err := mc.readColumnDefs(int(prep.ParamCount))
		if err != nil {
			return nil, err
		}
		stmt.params = params
	}
	if prep.ColumnCount > 0 {
		// Column definitions for the eventual result set are read the same
		// way as the parameter block (defs then EOF). They are kept for
		// Columns(); Statement.Query reads the result set's own column
		// definitions again. They must be consumed here to keep the
		// connection in sync.
		columns, err := mc.readColumnDefs(int(prep.ColumnCount))
		if err != nil {
			return nil, err
		}
		stmt.columns = columns
	}

	return stmt, nil
}

// buildExecutePayload renders the COM_STMT_EXECUTE packet body: the
// command byte, statement id, flags, iteration count, then (if any
// params) the null bitmap, new-params-bound flag, type bytes, and values.
func buildExecutePayload(stmtID uint32, params []Value) []byte {
	payload := make([]byte, 0, 17+8*len(params))
	payload = append(payload, comStmtExecute)
	payload = appendUint32(payload, stmtID)
	payload = append(payload, cursorTypeNoCursor)
	payload = appendUint32(payload, 1) // iteration count

	if len(params) == 0 {
		return payload
	}

	payload = append(payload, makeNullBitmap(params)...)
	payload = append(payload, 1) // new-params-bound-flag

	for _, p := range params {
		ft, flag := paramTypeAndFlag(p)
		payload = append(payload, byte(ft), flag)
	}
	for _, p := range params {
		var err error
		payload, err = appendBinaryParam(payload, p)
		if err != nil {
			// unreachable: paramTypeAndFlag/appendBinaryParam cover the
			// same closed set of Value variants.
			panic(err)
		}
	}
	return payload
}

// Execute sends COM_STMT_EXECUTE and expects a response with no result
// set. Use Query for a statement that returns rows.
func (s *Statement) Execute(ctx context.Context, params []Value) (*OKPacket, error) {
	if err := s.mc.checkConsumed(); err != nil {
		return nil, err
	}
	defer s.mc.clearDeadline(s.mc.setDeadline(ctx))

	s.mc.startPacket()
	if err := s.mc.writePacket(buildExecutePayload(s.id, params)); err != nil {
		return nil, err
	}

	data, _, err := s.mc.readPacket()
	if err != nil {
		return nil, err
	}
	switch classifyPacket(data) {
	case packetOK:
		return parseOKPacket(data)
	case packetERR:
		return nil, s.mc.parseErrPacket(data)
	default:
		return nil, fmt.Errorf("%w: Execute received a result set; use Query", ErrUnexpectedPacket)
	}
}

// Query sends COM_STMT_EXECUTE and, if the response is a result set,
// returns a binary-protocol Rows over it.
func (s *Statement) Query(ctx context.Context, params []Value) ([]*ColumnDef, *Rows, error) {
	if err := s.mc.checkConsumed(); err != nil {
		return nil, nil, err
	}
	defer s.mc.clearDeadline(s.mc.setDeadline(ctx))

	s.mc.startPacket()
	if err := s.mc.writePacket(buildExecutePayload(s.id, params)); err != nil {
		return nil, nil, err
	}

	n, err := s.mc.readResultSetHeaderPacket()
	if err != nil {
		return nil, nil, err
	}
	if n == 0 {
		return nil, nil, nil
	}

	columns, err := s.mc.readColumnDefs(int(n))
	if err != nil {
		return nil, nil, err
	}

	s.mc.consumed = false
	return columns, &Rows{mc: s.mc, columns: columns, binary: true}, nil
}

// Reset sends COM_STMT_RESET. On success it forcibly clears any pending
// Streaming state on the connection, matching the server's guarantee that
// a reset statement has no result set left open.
func (s *Statement) Reset(ctx context.Context) error {
	if s.mc.closed {
		return ErrConnClosed
	}
	defer s.mc.clearDeadline(s.mc.setDeadline(ctx))

	s.mc.startPacket()
	if err := s.mc.writePacket(appendUint32([]byte{comStmtReset}, s.id)); err != nil {
		return err
	}

	data, _, err := s.mc.readPacket()
	if err != nil {
		return err
	}
	if classifyPacket(data) == packetERR {
		return s.mc.parseErrPacket(data)
	}
	s.mc.consumed = true
	return nil
}

// CloseStmt sends COM_STMT_CLOSE. The server sends no reply to this
// command; the statement must not be used afterward.
func (s *Statement) CloseStmt(ctx context.Context) error {
	if s.mc.closed {
		return nil
	}
	defer s.mc.clearDeadline(s.mc.setDeadline(ctx))

	s.mc.startPacket()
	return s.mc.writePacket(appendUint32([]byte{comStmtClose}, s.id))
}
