// Go MySQL Driver - A MySQL-Driver for Go's database/sql package
//
// Copyright 2012 Julien Schmidt. All rights reserved.
// http://www.julienschmidt.com
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this file,
// You can obtain one at http://mozilla.org/MPL/2.0/.

package mysql

import "context"

// Rows is a lazy, single-pass stream over one result set. Each call to
// Next performs exactly one blocking read. Rows does not buffer ahead,
// and it is not safe to call Next again after it has returned false
// except to observe Err.
//
// Leaving a Rows undrained invalidates the owning Conn for further
// commands (ErrUnconsumedResultSet) until either the stream reaches EOF
// or the connection is closed; there is no destructor-time auto-drain.
type Rows struct {
	mc      *Conn
	columns []*ColumnDef
	binary  bool
	done    bool
	err     error
	row     []Value
}

// Columns returns the result set's column descriptors.
func (r *Rows) Columns() []*ColumnDef {
	return r.columns
}

// Next advances to the next row, performing one blocking read. It
// returns false at EOF or on error; check Err to distinguish the two.
// Reaching EOF clears the owning Conn's unconsumed-result-set guard.
func (r *Rows) Next(ctx context.Context) bool {
	if r.done {
		return false
	}

	defer r.mc.clearDeadline(r.mc.setDeadline(ctx))

	data, _, err := r.mc.readPacket()
	if err != nil {
		// NetworkError: the transport is no longer trustworthy.
		r.err = err
		r.done = true
		r.mc.closed = true
		return false
	}

	switch classifyPacket(data) {
	case packetEOF:
		r.done = true
		r.mc.consumed = true
		return false
	case packetERR:
		// A server-reported failure ends the result set here but does not
		// desync framing; the connection remains usable.
		r.err = r.mc.parseErrPacket(data)
		r.done = true
		r.mc.consumed = true
		return false
	}

	var row []Value
	if r.binary {
		row, err = getBinaryRow(r.columns, data)
	} else {
		row, err = getTextRow(r.columns, data)
	}
	if err != nil {
		// A codec bug or unsupported type leaves us unable to trust our
		// own width arithmetic for any bytes already consumed from this
		// packet; treat the connection as unusable rather than risk
		// silently misreading the next command's response.
		r.err = err
		r.done = true
		r.mc.closed = true
		return false
	}
	r.row = row
	return true
}

// Scan returns the current row's values, valid until the next call to
// Next.
func (r *Rows) Scan() []Value {
	return r.row
}

// Err returns the error, if any, that stopped iteration. A clean EOF
// reports nil.
func (r *Rows) Err() error {
	return r.err
}

// Close drains any remaining rows so the connection's consumed guard is
// cleared, discarding them. It is a no-op if the stream already reached
// EOF or failed.
func (r *Rows) Close(ctx context.Context) error {
	for !r.done {
		r.Next(ctx)
	}
	if _, ok := r.err.(*ERRPacketError); ok {
		return nil // server-side error mid-stream does not fail Close itself
	}
	return r.err
}
