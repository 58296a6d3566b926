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
	"crypto/rsa"
	"crypto/tls"
	"fmt"
	"regexp"
	"strings"
)

// Config carries everything needed to establish and authenticate a
// connection. Construct it directly, or via ParseDSN for convenience.
type Config struct {
	Net    string // "tcp" or "unix"; defaults to "tcp"
	Addr   string // host:port, or socket path for Net == "unix"
	User   string
	Passwd string
	DBName string

	Charset byte // defaults to defaultCharset (utf8mb4)

	TLS          *tls.Config
	TLSConfigName string // name registered via RegisterTLSConfig; resolved if TLS is nil
	ServerPubKey  string // name registered via RegisterServerPubKey

	AllowNativePasswords    bool
	AllowCleartextPasswords bool
	AllowOldPasswords       bool

	pubKey *rsa.PublicKey // resolved lazily from ServerPubKey
}

// NewConfig returns a Config with the engine's defaults: tcp to
// 127.0.0.1:3306, utf8mb4, and mysql_native_password allowed.
func NewConfig() *Config {
	return &Config{
		Net:                  "tcp",
		Addr:                 "127.0.0.1:3306",
		Charset:              defaultCharset,
		AllowNativePasswords: true,
	}
}

func (cfg *Config) normalize() {
	if cfg.Net == "" {
		cfg.Net = "tcp"
	}
	if cfg.Addr == "" {
		if cfg.Net == "unix" {
			cfg.Addr = "/tmp/mysql.sock"
		} else {
			cfg.Addr = "127.0.0.1:3306"
		}
	}
	if cfg.Charset == 0 {
		cfg.Charset = defaultCharset
	}
	if cfg.ServerPubKey != "" {
		cfg.pubKey = getServerPubKey(cfg.ServerPubKey)
	}
	if cfg.TLS == nil && cfg.TLSConfigName != "" {
		if tlsCfg, ok := getTLSConfig(cfg.TLSConfigName); ok {
			cfg.TLS = tlsCfg
		}
	}
}

// dsnPattern matches user:passwd@net(addr)/dbname?param=value&... strings,
// every component but the leading slash before dbname optional.
var dsnPattern = regexp.MustCompile(
	`^(?:(?P<user>.*?)(?::(?P<passwd>.*))?@)?` +
		`(?:(?P<net>[^\(]*)(?:\((?P<addr>[^\)]*)\))?)?` +
		`\/(?P<dbname>[^?]*)` +
		`(?:\?(?P<params>.*))?$`)

// ParseDSN parses a data source name of the form
// "user:password@tcp(host:port)/dbname?param=value" into a Config.
// This is a convenience only; Config can always be built by hand.
func ParseDSN(dsn string) (*Config, error) {
	matches := dsnPattern.FindStringSubmatch(dsn)
	if matches == nil {
		return nil, fmt.Errorf("mysql: invalid DSN: %q", dsn)
	}
	cfg := NewConfig()

	names := dsnPattern.SubexpNames()
	params := map[string]string{}
	for i, name := range names {
		if i == 0 || i >= len(matches) {
			continue
		}
		switch name {
		case "user":
			cfg.User = matches[i]
		case "passwd":
			cfg.Passwd = matches[i]
		case "net":
			if matches[i] != "" {
				cfg.Net = matches[i]
			}
		case "addr":
			if matches[i] != "" {
				cfg.Addr = matches[i]
			}
		case "dbname":
			cfg.DBName = matches[i]
		case "params":
			for _, kv := range strings.Split(matches[i], "&") {
				if kv == "" {
					continue
				}
				parts := strings.SplitN(kv, "=", 2)
				if len(parts) == 2 {
					params[parts[0]] = parts[1]
				}
			}
		}
	}

	for k, v := range params {
		switch k {
		case "allowNativePasswords":
			cfg.AllowNativePasswords = v == "true"
		case "allowCleartextPasswords":
			cfg.AllowCleartextPasswords = v == "true"
		case "allowOldPasswords":
			cfg.AllowOldPasswords = v == "true"
		case "serverPubKey":
			cfg.ServerPubKey = v
		case "tls":
			cfg.TLSConfigName = v
		}
	}

	cfg.normalize()
	return cfg, nil
}
