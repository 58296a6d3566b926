// Go MySQL Driver - A MySQL-Driver for Go's database/sql package
//
// Copyright 2013 Julien Schmidt. All rights reserved.
// http://www.julienschmidt.com
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this file,
// You can obtain one at http://mozilla.org/MPL/2.0/.

package mysql

import "testing"

func TestParseDSN(t *testing.T) {
	cases := []struct {
		dsn      string
		user     string
		passwd   string
		net      string
		addr     string
		dbname   string
	}{
		{"username:password@protocol(address)/dbname", "username", "password", "protocol", "address", "dbname"},
		{"user@unix(/path/to/socket)/dbname", "user", "", "unix", "/path/to/socket", "dbname"},
		{"user:password@tcp(localhost:5555)/dbname", "user", "password", "tcp", "localhost:5555", "dbname"},
		{"user:password@/dbname", "user", "password", "tcp", "127.0.0.1:3306", "dbname"},
		{"/dbname", "", "", "tcp", "127.0.0.1:3306", "dbname"},
	}

	for i, c := range cases {
		cfg, err := ParseDSN(c.dsn)
		if err != nil {
			t.Fatalf("%d. ParseDSN(%q): %v", i, c.dsn, err)
		}
		if cfg.User != c.user || cfg.Passwd != c.passwd || cfg.Net != c.net ||
			cfg.Addr != c.addr || cfg.DBName != c.dbname {
			t.Errorf("%d. ParseDSN(%q) = %+v, want user=%q passwd=%q net=%q addr=%q dbname=%q",
				i, c.dsn, cfg, c.user, c.passwd, c.net, c.addr, c.dbname)
		}
	}
}

func TestParseDSNParams(t *testing.T) {
	cfg, err := ParseDSN("user:pw@tcp(host:1)/db?allowCleartextPasswords=true&allowOldPasswords=true&tls=custom")
	if err != nil {
		t.Fatalf("ParseDSN: %v", err)
	}
	if !cfg.AllowCleartextPasswords {
		t.Error("AllowCleartextPasswords = false, want true")
	}
	if !cfg.AllowOldPasswords {
		t.Error("AllowOldPasswords = false, want true")
	}
	if cfg.TLSConfigName != "custom" {
		t.Errorf("TLSConfigName = %q, want \"custom\"", cfg.TLSConfigName)
	}
}

func TestConfigNormalizeDefaults(t *testing.T) {
	cfg := &Config{}
	cfg.normalize()
	if cfg.Net != "tcp" {
		t.Errorf("Net = %q, want tcp", cfg.Net)
	}
	if cfg.Addr != "127.0.0.1:3306" {
		t.Errorf("Addr = %q, want 127.0.0.1:3306", cfg.Addr)
	}
	if cfg.Charset != defaultCharset {
		t.Errorf("Charset = %d, want %d", cfg.Charset, defaultCharset)
	}
}

func TestConfigNormalizeUnixSocketDefault(t *testing.T) {
	cfg := &Config{Net: "unix"}
	cfg.normalize()
	if cfg.Addr != "/tmp/mysql.sock" {
		t.Errorf("Addr = %q, want /tmp/mysql.sock", cfg.Addr)
	}
}
