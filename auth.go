// Go MySQL Driver - A MySQL-Driver for Go's database/sql package
//
// Copyright 2018 The Go-MySQL-Driver Authors. All rights reserved.
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this file,
// You can obtain one at http://mozilla.org/MPL/2.0/.

package mysql

import (
	"bytes"
	"crypto/rsa"
	"fmt"
	"sync"
)

// server public key registry, for callers that configure
// serverPubKey=<name> instead of fetching the key over the wire.
var (
	serverPubKeyLock     sync.RWMutex
	serverPubKeyRegistry map[string]*rsa.PublicKey
)

// RegisterServerPubKey registers a server RSA public key under name, for
// use by Config.ServerPubKey without fetching it from the server.
func RegisterServerPubKey(name string, pubKey *rsa.PublicKey) {
	serverPubKeyLock.Lock()
	if serverPubKeyRegistry == nil {
		serverPubKeyRegistry = make(map[string]*rsa.PublicKey)
	}
	serverPubKeyRegistry[name] = pubKey
	serverPubKeyLock.Unlock()
}

// DeregisterServerPubKey removes the public key registered under name.
func DeregisterServerPubKey(name string) {
	serverPubKeyLock.Lock()
	if serverPubKeyRegistry != nil {
		delete(serverPubKeyRegistry, name)
	}
	serverPubKeyLock.Unlock()
}

func getServerPubKey(name string) (pubKey *rsa.PublicKey) {
	serverPubKeyLock.RLock()
	pubKey = serverPubKeyRegistry[name]
	serverPubKeyLock.RUnlock()
	return
}

// runAuth drives the handshake response and any subsequent
// AuthSwitchRequest/AuthMoreData round trips to completion, returning nil
// once the server has sent a final OK, or an *AuthError if the server
// rejected the handshake with an ERR packet.
func (mc *Conn) runAuth(initialSeed []byte, plugin AuthPlugin) error {
	data, _, err := mc.readPacket()
	if err != nil {
		return err
	}

	data, err = plugin.ProcessAuthResponse(data, initialSeed, mc)
	if err != nil {
		return err
	}
	return mc.processAuthResponse(data, initialSeed)
}

func (mc *Conn) processAuthResponse(data []byte, initialSeed []byte) error {
	if len(data) == 0 {
		return fmt.Errorf("%w: empty auth response", ErrMalformPkt)
	}
	switch data[0] {
	case iOK:
		_, err := parseOKPacket(data)
		return err
	case iERR:
		err := mc.parseErrPacket(data)
		if perr, ok := err.(*ERRPacketError); ok {
			return &AuthError{Message: perr.Error()}
		}
		return err
	case iEOF:
		return mc.handleAuthSwitch(data, initialSeed)
	default:
		return fmt.Errorf("%w: during handshake", ErrUnexpectedPacket)
	}
}

func (mc *Conn) handleAuthSwitch(data []byte, initialSeed []byte) error {
	name, authData := parseAuthSwitchData(data, initialSeed)

	plugin, ok := globalPluginRegistry.get(name)
	if !ok {
		return &AuthError{Message: fmt.Sprintf("authentication plugin %q is not supported", name)}
	}

	resp, err := plugin.InitAuth(authData, mc.cfg)
	if err != nil {
		return err
	}
	if err := mc.writeAuthSwitchPacket(resp); err != nil {
		return err
	}

	data, _, err = mc.readPacket()
	if err != nil {
		return err
	}

	switch data[0] {
	case iERR, iOK, iEOF:
		return mc.processAuthResponse(data, initialSeed)
	default:
		data, err = plugin.ProcessAuthResponse(data, authData, mc)
		if err != nil {
			return err
		}
		return mc.processAuthResponse(data, initialSeed)
	}
}

func parseAuthSwitchData(data []byte, initialSeed []byte) (string, []byte) {
	if len(data) == 1 {
		return "mysql_old_password", initialSeed
	}

	end := bytes.IndexByte(data, 0x00)
	if end < 0 {
		return "", nil
	}
	name := string(data[1:end])
	authData := data[end+1:]
	if len(authData) > 0 && authData[len(authData)-1] == 0 {
		authData = authData[:len(authData)-1]
	}
	return name, append([]byte{}, authData...)
}

// writeAuthSwitchPacket sends a bare auth-switch response payload, using
// the sequence number continuing from the switch request.
func (mc *Conn) writeAuthSwitchPacket(authData []byte) error {
	return mc.writePacket(authData)
}
