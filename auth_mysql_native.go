// Go MySQL Driver - A MySQL-Driver for Go's database/sql package
//
// Copyright 2023 The Go-MySQL-Driver Authors. All rights reserved.
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this file,
// You can obtain one at http://mozilla.org/MPL/2.0/.

package mysql

// NativePasswordPlugin implements the mysql_native_password authentication
type NativePasswordPlugin struct {
	SimpleAuth
}

func init() {
	RegisterAuthPlugin(&NativePasswordPlugin{})
}

func (p *NativePasswordPlugin) PluginName() string {
	return "mysql_native_password"
}

func (p *NativePasswordPlugin) InitAuth(authData []byte, cfg *Config) ([]byte, error) {
	if !cfg.AllowNativePasswords {
		return nil, ErrNativePassword
	}
	if cfg.Passwd == "" {
		return nil, nil
	}
	return scramblePassword(cfg.Passwd, authData[:20]), nil
}
