// Go MySQL Driver - A MySQL-Driver for Go's database/sql package
//
// Copyright 2013 Julien Schmidt. All rights reserved.
// http://www.julienschmidt.com
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this file,
// You can obtain one at http://mozilla.org/MPL/2.0/.

package mysql

import "io"

const defaultBufSize = 4096

// buffer is a read buffer similar to bufio.Reader but zero-copy-ish,
// tuned for pulling fixed-size runs of packet bytes off a connection.
type buffer struct {
	buf    []byte
	rd     io.Reader
	idx    int
	length int
}

func newBuffer(rd io.Reader) *buffer {
	var b [defaultBufSize]byte
	return &buffer{
		buf: b[:],
		rd:  rd,
	}
}

// fill reads into the buffer until at least need bytes are available.
func (b *buffer) fill(need int) (err error) {
	if b.length > 0 && b.idx > 0 {
		copy(b.buf[0:b.length], b.buf[b.idx:b.idx+b.length])
	}

	if need > len(b.buf) {
		newBuf := make([]byte, need)
		copy(newBuf, b.buf[:b.length])
		b.buf = newBuf
	}

	b.idx = 0

	var n int
	for {
		n, err = b.rd.Read(b.buf[b.length:])
		b.length += n

		if b.length < need && err == nil {
			continue
		}
		return
	}
}

// readNext returns the next need bytes from the buffer. The returned slice
// is only guaranteed to be valid until the next call to readNext.
func (b *buffer) readNext(need int) (p []byte, err error) {
	if b.length < need {
		if err = b.fill(need); err != nil {
			return nil, err
		}
	}

	p = b.buf[b.idx : b.idx+need]
	b.idx += need
	b.length -= need
	return p, nil
}
