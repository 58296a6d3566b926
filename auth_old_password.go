// Go MySQL Driver - A MySQL-Driver for Go's database/sql package
//
// Copyright 2023 The Go-MySQL-Driver Authors. All rights reserved.
// http://www.julienschmidt.com
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this file,
// You can obtain one at http://mozilla.org/MPL/2.0/.

package mysql

import "math"

// OldPasswordPlugin implements mysql_old_password, the pre-4.1 scramble.
// It shares its pseudo-random generator with Crypt323.
type OldPasswordPlugin struct{ SimpleAuth }

func init() {
	RegisterAuthPlugin(&OldPasswordPlugin{})
}

func (p *OldPasswordPlugin) PluginName() string {
	return "mysql_old_password"
}

func (p *OldPasswordPlugin) InitAuth(authData []byte, cfg *Config) ([]byte, error) {
	if !cfg.AllowOldPasswords {
		return nil, ErrOldPassword
	}
	if cfg.Passwd == "" {
		return nil, nil
	}
	// Note: there are edge cases where this should work but doesn't;
	// this is currently "wontfix":
	// https://github.com/go-sql-driver/mysql/issues/184
	return append(scrambleOldPassword(authData[:8], cfg.Passwd), 0), nil
}

// scrambleOldPassword hashes password using the insecure pre-4.1 method,
// reusing crypt323.go's hash/rand primitives.
func scrambleOldPassword(scramble []byte, password string) []byte {
	scramble = scramble[:8]

	hashPw := hash([]byte(password))
	hashSc := hash(scramble)

	r := newRand(hashPw[0]^hashSc[0], hashPw[1]^hashSc[1])

	var out [8]byte
	for i := range out {
		out[i] = byte(math.Floor(31*r.Float64())) + 64
	}

	mask := byte(math.Floor(31 * r.Float64()))
	for i := range out {
		out[i] ^= mask
	}

	return out[:]
}
