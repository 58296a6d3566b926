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
	"crypto/sha1"
	"fmt"
	"net"
	"time"
)

// Conn is a single MySQL connection: a strictly serial resource. All
// commands on a Conn must be issued from one goroutine at a time; the
// caller is responsible for that serialization (a mutex at a higher
// layer, typically).
type Conn struct {
	cfg       *Config
	transport net.Conn
	buf       *buffer
	seq       byte

	// consumed guards every command entry point: it is false exactly
	// while a row stream from a prior query or queryStmt is still open.
	consumed bool
	closed   bool

	greeting *Greeting
}

// Connect dials cfg.Net/cfg.Addr, performs the handshake, and returns a
// ready connection in the Ready state.
func Connect(ctx context.Context, cfg *Config) (*Conn, error) {
	cfg.normalize()

	var d net.Dialer
	transport, err := d.DialContext(ctx, cfg.Net, cfg.Addr)
	if err != nil {
		return nil, &NetworkError{Op: "dial", Err: err}
	}

	mc, err := ConnectTransport(ctx, cfg, transport)
	if err != nil {
		transport.Close()
		return nil, err
	}
	return mc, nil
}

// ConnectTransport performs the handshake over a caller-supplied duplex
// transport, for callers that already own connection establishment (a
// Unix socket, an already-dialed net.Conn, a tunnel).
func ConnectTransport(ctx context.Context, cfg *Config, transport net.Conn) (*Conn, error) {
	cfg.normalize()

	mc := &Conn{
		cfg:       cfg,
		transport: transport,
		buf:       newBuffer(transport),
		consumed:  true,
	}

	defer mc.clearDeadline(mc.setDeadline(ctx))

	if err := mc.handshake(); err != nil {
		return nil, err
	}
	return mc, nil
}

func (mc *Conn) setDeadline(ctx context.Context) bool {
	if dl, ok := ctx.Deadline(); ok {
		mc.transport.SetDeadline(dl)
		return true
	}
	return false
}

func (mc *Conn) clearDeadline(wasSet bool) {
	if wasSet {
		mc.transport.SetDeadline(time.Time{})
	}
}

// handshake reads the greeting, optionally negotiates TLS, and runs the
// negotiated auth plugin to completion.
func (mc *Conn) handshake() error {
	data, _, err := mc.readPacket()
	if err != nil {
		return err
	}

	greeting, err := parseGreeting(data)
	if err != nil {
		return err
	}
	mc.greeting = greeting

	if mc.cfg.TLS != nil {
		if greeting.Capability&clientSSL == 0 {
			return &AuthError{Message: "server does not support TLS"}
		}
		if err := mc.negotiateTLS(); err != nil {
			return err
		}
	}

	pluginName := greeting.AuthPluginName
	if pluginName == "" {
		pluginName = "mysql_native_password"
	}
	plugin, ok := globalPluginRegistry.get(pluginName)
	if !ok {
		return &AuthError{Message: fmt.Sprintf("authentication plugin %q is not supported", pluginName)}
	}

	salt := greeting.Salt()
	authResponse, err := plugin.InitAuth(salt, mc.cfg)
	if err != nil {
		return err
	}

	if err := mc.writeHandshakeResponse(authResponse, pluginName); err != nil {
		return err
	}

	return mc.runAuth(salt, plugin)
}

// scramblePassword implements the mysql_native_password scramble formula.
// It is the single implementation shared by NativePasswordPlugin and any
// test exercising the scramble law in isolation.
func scramblePassword(password string, salt []byte) []byte {
	if password == "" {
		return nil
	}
	stage1 := sha1.Sum([]byte(password))
	stage2 := sha1.Sum(stage1[:])

	h := sha1.New()
	h.Write(salt)
	h.Write(stage2[:])
	result := h.Sum(nil)

	for i := range result {
		result[i] ^= stage1[i]
	}
	return result
}

func (mc *Conn) writeHandshakeResponse(authResponse []byte, pluginName string) error {
	capability := uint32(clientLongPassword | clientProtocol41 | clientTransactions |
		clientSecureConnection | clientMultiResults | clientPluginAuth)
	if mc.cfg.DBName != "" {
		capability |= clientConnectWithDB
	}
	if mc.cfg.TLS != nil {
		capability |= clientSSL
	}

	payload := make([]byte, 0, 64+len(mc.cfg.User)+len(authResponse)+len(mc.cfg.DBName))
	payload = appendUint32(payload, capability)
	payload = appendUint32(payload, 1<<24-1) // max packet size
	payload = append(payload, mc.cfg.Charset)
	payload = append(payload, make([]byte, 23)...) // reserved
	payload = append(payload, []byte(mc.cfg.User)...)
	payload = append(payload, 0)
	payload = append(payload, byte(len(authResponse)))
	payload = append(payload, authResponse...)
	if mc.cfg.DBName != "" {
		payload = append(payload, []byte(mc.cfg.DBName)...)
		payload = append(payload, 0)
	}
	payload = append(payload, []byte(pluginName)...)
	payload = append(payload, 0)

	mc.startPacket()
	mc.seq = 1
	return mc.writePacket(payload)
}

// negotiateTLS sends an SSLRequest packet (the handshake response prefix
// without the user/auth suffix) and wraps the transport in a TLS client
// connection before the real handshake response is sent.
func (mc *Conn) negotiateTLS() error {
	payload := make([]byte, 0, 32)
	payload = appendUint32(payload, clientLongPassword|clientProtocol41|clientTransactions|
		clientSecureConnection|clientMultiResults|clientPluginAuth|clientSSL)
	payload = appendUint32(payload, 1<<24-1)
	payload = append(payload, mc.cfg.Charset)
	payload = append(payload, make([]byte, 23)...)

	mc.startPacket()
	mc.seq = 1
	if err := mc.writePacket(payload); err != nil {
		return err
	}

	tlsConn := newTLSClientConn(mc.transport, mc.cfg.TLS, mc.cfg.Addr)
	if err := tlsConn.Handshake(); err != nil {
		return &NetworkError{Op: "TLS handshake", Err: err}
	}
	mc.transport = tlsConn
	mc.buf = newBuffer(tlsConn)
	return nil
}

func appendUint32(dst []byte, v uint32) []byte {
	return append(dst, byte(v), byte(v>>8), byte(v>>16), byte(v>>24))
}

// checkConsumed enforces the "must drain the prior result set" invariant
// that guards every command entry point.
func (mc *Conn) checkConsumed() error {
	if mc.closed {
		return ErrConnClosed
	}
	if !mc.consumed {
		return ErrUnconsumedResultSet
	}
	return nil
}

// Ping sends COM_PING and expects OK or ERR.
func (mc *Conn) Ping(ctx context.Context) error {
	if err := mc.checkConsumed(); err != nil {
		return err
	}
	defer mc.clearDeadline(mc.setDeadline(ctx))

	mc.startPacket()
	if err := mc.writePacket([]byte{comPing}); err != nil {
		return err
	}
	data, _, err := mc.readPacket()
	if err != nil {
		return err
	}
	switch classifyPacket(data) {
	case packetOK:
		return nil
	case packetERR:
		return mc.parseErrPacket(data)
	default:
		return fmt.Errorf("%w: in response to COM_PING", ErrUnexpectedPacket)
	}
}

// Execute sends COM_QUERY and expects a response with no result set (OK
// or ERR). A query that actually produces rows is an ErrUnexpectedPacket
// here; use Query instead.
func (mc *Conn) Execute(ctx context.Context, sql string) (*OKPacket, error) {
	if err := mc.checkConsumed(); err != nil {
		return nil, err
	}
	defer mc.clearDeadline(mc.setDeadline(ctx))

	mc.startPacket()
	payload := append([]byte{comQuery}, []byte(sql)...)
	if err := mc.writePacket(payload); err != nil {
		return nil, err
	}

	data, _, err := mc.readPacket()
	if err != nil {
		return nil, err
	}
	switch classifyPacket(data) {
	case packetOK:
		return parseOKPacket(data)
	case packetERR:
		return nil, mc.parseErrPacket(data)
	default:
		return nil, fmt.Errorf("%w: Execute received a result set; use Query", ErrUnexpectedPacket)
	}
}

// Query sends COM_QUERY and, if the response is a result set, reads the
// column definitions and returns a lazy Rows over the text protocol. The
// connection transitions to Streaming until Rows is drained to EOF.
func (mc *Conn) Query(ctx context.Context, sql string) ([]*ColumnDef, *Rows, error) {
	if err := mc.checkConsumed(); err != nil {
		return nil, nil, err
	}
	defer mc.clearDeadline(mc.setDeadline(ctx))

	mc.startPacket()
	payload := append([]byte{comQuery}, []byte(sql)...)
	if err := mc.writePacket(payload); err != nil {
		return nil, nil, err
	}

	n, err := mc.readResultSetHeaderPacket()
	if err != nil {
		return nil, nil, err
	}
	if n == 0 {
		return nil, nil, nil
	}

	columns, err := mc.readColumnDefs(int(n))
	if err != nil {
		return nil, nil, err
	}

	mc.consumed = false
	return columns, &Rows{mc: mc, columns: columns, binary: false}, nil
}

// readColumnDefs reads n column-definition packets followed by the
// terminating EOF packet.
func (mc *Conn) readColumnDefs(n int) ([]*ColumnDef, error) {
	columns := make([]*ColumnDef, n)
	for i := 0; i < n; i++ {
		data, _, err := mc.readPacket()
		if err != nil {
			return nil, err
		}
		col, err := parseColumnDef(data)
		if err != nil {
			return nil, err
		}
		columns[i] = col
	}
	data, _, err := mc.readPacket()
	if err != nil {
		return nil, err
	}
	if classifyPacket(data) != packetEOF {
		return nil, fmt.Errorf("%w: expected EOF after column definitions", ErrUnexpectedPacket)
	}
	return columns, nil
}

// Close closes the outbound side with COM_QUIT, then the transport.
func (mc *Conn) Close() error {
	if mc.closed {
		return nil
	}
	mc.closed = true

	mc.startPacket()
	mc.writePacket([]byte{comQuit})
	return mc.transport.Close()
}

// Alive runs a best-effort, non-blocking liveness check on the
// underlying socket. It never blocks and is purely advisory: a false
// positive is possible under races, and callers should still handle a
// write/read error from the next command normally.
func (mc *Conn) Alive() bool {
	if mc.closed {
		return false
	}
	return connCheck(mc.transport) == nil
}
