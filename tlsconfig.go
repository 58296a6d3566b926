// Go MySQL Driver - A MySQL-Driver for Go's database/sql package
//
// Copyright 2013 Julien Schmidt. All rights reserved.
// http://www.julienschmidt.com
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this file,
// You can obtain one at http://mozilla.org/MPL/2.0/.

package mysql

import (
	"crypto/tls"
	"net"
	"strings"
	"sync"
)

var (
	tlsConfigLock sync.RWMutex
	tlsConfigMap  = make(map[string]*tls.Config)
)

// RegisterTLSConfig registers a *tls.Config under name, so it can be
// referenced from Config.ServerPubKey-style named lookups (here via
// Config.TLSConfigName) instead of embedding it directly in Config.
func RegisterTLSConfig(name string, cfg *tls.Config) {
	tlsConfigLock.Lock()
	tlsConfigMap[name] = cfg
	tlsConfigLock.Unlock()
}

// DeregisterTLSConfig removes a previously registered named TLS config.
func DeregisterTLSConfig(name string) {
	tlsConfigLock.Lock()
	delete(tlsConfigMap, name)
	tlsConfigLock.Unlock()
}

func getTLSConfig(name string) (*tls.Config, bool) {
	tlsConfigLock.RLock()
	cfg, ok := tlsConfigMap[name]
	tlsConfigLock.RUnlock()
	return cfg, ok
}

// newTLSClientConn wraps conn in a TLS client, filling in ServerName from
// addr when the caller's config didn't already set one.
func newTLSClientConn(conn net.Conn, cfg *tls.Config, addr string) *tls.Conn {
	if cfg.ServerName == "" {
		host := addr
		if idx := strings.LastIndexByte(addr, ':'); idx >= 0 {
			host = addr[:idx]
		}
		clone := cfg.Clone()
		clone.ServerName = host
		cfg = clone
	}
	return tls.Client(conn, cfg)
}
