// Go MySQL Driver - A MySQL-Driver for Go's database/sql package
//
// Copyright 2023 The Go-MySQL-Driver Authors. All rights reserved.
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this file,
// You can obtain one at http://mozilla.org/MPL/2.0/.

package mysql

// AuthPlugin implements one MySQL/MariaDB authentication method. The
// handshake negotiates a plugin by name (from the greeting or a mid-auth
// switch request) and drives it through InitAuth and, if the server asks
// for more, ProcessAuthResponse.
type AuthPlugin interface {
	// PluginName is the name the server uses to request this plugin.
	PluginName() string

	// InitAuth computes the initial authentication response given the
	// server's challenge data (the scramble salt, or plugin-specific auth
	// data from an AuthSwitchRequest) and the connection's configuration.
	InitAuth(authData []byte, cfg *Config) ([]byte, error)

	// ProcessAuthResponse handles a server packet that is neither OK, ERR
	// nor an auth-switch request (e.g. caching_sha2_password's
	// AuthMoreData) mid-handshake, possibly performing further round
	// trips on conn, and returns the packet that should be treated as the
	// final handshake response.
	ProcessAuthResponse(packet []byte, authData []byte, conn *Conn) ([]byte, error)
}

// pluginRegistry is a name-keyed lookup of available auth plugins.
type pluginRegistry struct {
	plugins map[string]AuthPlugin
}

func newPluginRegistry() *pluginRegistry {
	return &pluginRegistry{plugins: make(map[string]AuthPlugin)}
}

func (r *pluginRegistry) register(p AuthPlugin) {
	r.plugins[p.PluginName()] = p
}

func (r *pluginRegistry) get(name string) (AuthPlugin, bool) {
	p, ok := r.plugins[name]
	return p, ok
}

// SimpleAuth provides the common no-op ProcessAuthResponse for plugins
// whose InitAuth response is always the final word and never triggers a
// server AuthMoreData round trip.
type SimpleAuth struct{}

func (SimpleAuth) ProcessAuthResponse(packet []byte, authData []byte, conn *Conn) ([]byte, error) {
	return packet, nil
}

var globalPluginRegistry = newPluginRegistry()

// RegisterAuthPlugin adds a custom authentication plugin to the global
// registry, keyed by its PluginName.
func RegisterAuthPlugin(p AuthPlugin) {
	globalPluginRegistry.register(p)
}
