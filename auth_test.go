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
	"bytes"
	"testing"
)

func TestNativePasswordPluginInitAuthScrambles(t *testing.T) {
	p := &NativePasswordPlugin{}
	salt := bytes.Repeat([]byte("x"), 20)
	cfg := &Config{AllowNativePasswords: true, Passwd: "secret"}

	got, err := p.InitAuth(append([]byte{}, salt...), cfg)
	if err != nil {
		t.Fatalf("InitAuth: %v", err)
	}
	want := scramblePassword("secret", salt)
	if !bytes.Equal(got, want) {
		t.Errorf("InitAuth scramble = %x, want %x", got, want)
	}
}

func TestNativePasswordPluginInitAuthEmptyPassword(t *testing.T) {
	p := &NativePasswordPlugin{}
	cfg := &Config{AllowNativePasswords: true, Passwd: ""}
	got, err := p.InitAuth(make([]byte, 20), cfg)
	if err != nil {
		t.Fatalf("InitAuth: %v", err)
	}
	if got != nil {
		t.Errorf("InitAuth with empty password = %v, want nil", got)
	}
}

func TestNativePasswordPluginInitAuthRejectsWhenDisallowed(t *testing.T) {
	p := &NativePasswordPlugin{}
	cfg := &Config{AllowNativePasswords: false, Passwd: "secret"}
	_, err := p.InitAuth(make([]byte, 20), cfg)
	if err != ErrNativePassword {
		t.Errorf("InitAuth err = %v, want ErrNativePassword", err)
	}
}

func TestCrypt323Deterministic(t *testing.T) {
	message := []byte("01234567")
	password := []byte("secret")

	got := Crypt323(message, password)
	if len(got) != 8 {
		t.Fatalf("len(Crypt323) = %d, want 8", len(got))
	}
	got2 := Crypt323(message, password)
	if !bytes.Equal(got, got2) {
		t.Error("Crypt323 not deterministic for identical inputs")
	}

	other := Crypt323(message, []byte("different"))
	if bytes.Equal(got, other) {
		t.Error("Crypt323 produced identical output for different passwords")
	}
}

func TestCrypt323EmptyPassword(t *testing.T) {
	if got := Crypt323([]byte("01234567"), nil); got != nil {
		t.Errorf("Crypt323 with empty password = %v, want nil", got)
	}
}

func TestScrambleOldPasswordDeterministic(t *testing.T) {
	scramble := []byte("01234567")
	got := scrambleOldPassword(scramble, "secret")
	if len(got) != 8 {
		t.Fatalf("len(scrambleOldPassword) = %d, want 8", len(got))
	}
	got2 := scrambleOldPassword(scramble, "secret")
	if !bytes.Equal(got, got2) {
		t.Error("scrambleOldPassword not deterministic for identical inputs")
	}
}

func TestOldPasswordPluginRejectsWhenDisallowed(t *testing.T) {
	p := &OldPasswordPlugin{}
	cfg := &Config{AllowOldPasswords: false, Passwd: "secret"}
	_, err := p.InitAuth(make([]byte, 8), cfg)
	if err != ErrOldPassword {
		t.Errorf("InitAuth err = %v, want ErrOldPassword", err)
	}
}

func TestAuthPluginRegistry(t *testing.T) {
	for _, name := range []string{
		"mysql_native_password",
		"caching_sha2_password",
		"sha256_password",
		"mysql_clear_password",
		"client_ed25519",
		"mysql_old_password",
	} {
		if _, ok := globalPluginRegistry.plugins[name]; !ok {
			t.Errorf("plugin %q not registered", name)
		}
	}
}
