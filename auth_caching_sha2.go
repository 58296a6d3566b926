// Go MySQL Driver - A MySQL-Driver for Go's database/sql package
//
// Copyright 2023 The Go-MySQL-Driver Authors. All rights reserved.
// http://www.julienschmidt.com
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this file,
// You can obtain one at http://mozilla.org/MPL/2.0/.

package mysql

import (
	"crypto/rsa"
	"crypto/sha256"
	"crypto/x509"
	"encoding/pem"
	"fmt"
)

// CachingSha2PasswordPlugin implements caching_sha2_password, MySQL 8's
// default: SHA256-based scrambling with server-side caching of password
// verifiers so a repeat connection can skip the RSA round trip.
type CachingSha2PasswordPlugin struct{ AuthPlugin }

func init() {
	RegisterAuthPlugin(&CachingSha2PasswordPlugin{})
}

func (p *CachingSha2PasswordPlugin) PluginName() string {
	return "caching_sha2_password"
}

// InitAuth computes the three-step SHA256 scramble described on
// scrambleSHA256Password.
func (p *CachingSha2PasswordPlugin) InitAuth(authData []byte, cfg *Config) ([]byte, error) {
	return scrambleSHA256Password(authData, cfg.Passwd), nil
}

// ProcessAuthResponse handles the fast/full authentication branch the
// server selects after seeing the scrambled password:
//
//  1. AuthMoreData{3}: fast auth success, cache hit, read the final OK.
//  2. AuthMoreData{4}: full authentication needed. Over TLS or a unix
//     socket the password goes in cleartext; otherwise the server's RSA
//     public key (fetched if not already cached) encrypts it.
func (p *CachingSha2PasswordPlugin) ProcessAuthResponse(packet []byte, authData []byte, mc *Conn) ([]byte, error) {
	if len(packet) == 0 {
		return nil, fmt.Errorf("%w: empty auth response packet", ErrMalformPkt)
	}

	switch packet[0] {
	case iOK, iERR, iEOF:
		return packet, nil
	case iAuthMoreData:
		switch len(packet) {
		case 1:
			data, _, err := mc.readPacket()
			return data, err

		case 2:
			switch packet[1] {
			case 3:
				// the password was found in the server's cache
				data, _, err := mc.readPacket()
				return data, err

			case 4:
				if mc.cfg.TLS != nil || mc.cfg.Net == "unix" {
					if err := mc.writeAuthSwitchPacket(append([]byte(mc.cfg.Passwd), 0)); err != nil {
						return nil, fmt.Errorf("failed to send cleartext password: %w", err)
					}
				} else {
					pubKey := mc.cfg.pubKey
					if pubKey == nil {
						if err := mc.writeAuthSwitchPacket([]byte{2}); err != nil {
							return nil, fmt.Errorf("failed to request public key: %w", err)
						}
						data, _, err := mc.readPacket()
						if err != nil {
							return nil, fmt.Errorf("failed to read public key: %w", err)
						}
						if data[0] != iAuthMoreData {
							return nil, fmt.Errorf("unexpected packet type %d when requesting public key", data[0])
						}

						block, rest := pem.Decode(data[1:])
						if block == nil {
							return nil, fmt.Errorf("invalid PEM data in auth response: %q", rest)
						}
						pkix, err := x509.ParsePKIXPublicKey(block.Bytes)
						if err != nil {
							return nil, fmt.Errorf("failed to parse public key: %w", err)
						}
						var ok bool
						pubKey, ok = pkix.(*rsa.PublicKey)
						if !ok {
							return nil, fmt.Errorf("server sent an invalid public key type: %T", pkix)
						}
					}

					enc, err := encryptPassword(mc.cfg.Passwd, authData, pubKey)
					if err != nil {
						return nil, fmt.Errorf("failed to encrypt password: %w", err)
					}
					if err := mc.writeAuthSwitchPacket(enc); err != nil {
						return nil, fmt.Errorf("failed to send encrypted password: %w", err)
					}
				}
				data, _, err := mc.readPacket()
				return data, err

			default:
				return nil, fmt.Errorf("%w: unknown auth state %d", ErrMalformPkt, packet[1])
			}

		default:
			return nil, fmt.Errorf("%w: unexpected packet length %d", ErrMalformPkt, len(packet))
		}
	default:
		return nil, fmt.Errorf("%w: expected auth more data packet", ErrMalformPkt)
	}
}

// scrambleSHA256Password implements MySQL 8's caching_sha2_password and
// sha256_password scramble:
//
//	XOR(SHA256(password), SHA256(SHA256(SHA256(password)), scramble))
func scrambleSHA256Password(scramble []byte, password string) []byte {
	if len(password) == 0 {
		return []byte{}
	}

	crypt := sha256.New()
	crypt.Write([]byte(password))
	message1 := crypt.Sum(nil)

	crypt.Reset()
	crypt.Write(message1)
	message1Hash := crypt.Sum(nil)

	crypt.Reset()
	crypt.Write(message1Hash)
	crypt.Write(scramble)
	message2 := crypt.Sum(nil)

	for i := range message1 {
		message1[i] ^= message2[i]
	}

	return message1
}
