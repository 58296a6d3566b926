// Go MySQL Driver - A MySQL-Driver for Go's database/sql package
//
// Copyright 2017 The Go-MySQL-Driver Authors. All rights reserved.
// http://www.julienschmidt.com
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this file,
// You can obtain one at http://mozilla.org/MPL/2.0/.

package mysql

import "testing"

func TestParseColumnDef(t *testing.T) {
	var data []byte
	data = appendLengthEncodedString(data, []byte("def"))
	data = appendLengthEncodedString(data, []byte("testschema"))
	data = appendLengthEncodedString(data, []byte("testtable"))
	data = appendLengthEncodedString(data, []byte("testtable"))
	data = appendLengthEncodedString(data, []byte("id"))
	data = appendLengthEncodedString(data, []byte("id"))
	data = appendLengthEncodedInteger(data, 0x0c)
	data = append(data, 0x21, 0x00) // charset utf8
	data = append(data, 0x0b, 0x00, 0x00, 0x00) // column length 11
	data = append(data, byte(FieldTypeLong))
	data = append(data, byte(FlagNotNULL|FlagUnsigned), 0x00)
	data = append(data, 0x00) // decimals

	cd, err := parseColumnDef(data)
	if err != nil {
		t.Fatalf("parseColumnDef: %v", err)
	}
	if cd.Schema != "testschema" || cd.Table != "testtable" || cd.Name != "id" {
		t.Errorf("parseColumnDef = %+v, unexpected names", cd)
	}
	if cd.ColumnType != FieldTypeLong {
		t.Errorf("ColumnType = %v, want Long", cd.ColumnType)
	}
	if !cd.Unsigned() {
		t.Error("Unsigned() = false, want true")
	}
	if cd.Binary() {
		t.Error("Binary() = true, want false (utf8 charset)")
	}
}

func TestColumnDefBinary(t *testing.T) {
	cd := &ColumnDef{CharSet: binaryCharsetID}
	if !cd.Binary() {
		t.Error("Binary() = false, want true for charset 63")
	}
}

func TestFieldTypeString(t *testing.T) {
	cases := map[FieldType]string{
		FieldTypeLong:    "INT",
		FieldTypeVarChar: "VARCHAR",
		FieldType(0xaa):  "UNKNOWN",
	}
	for ft, want := range cases {
		if got := ft.String(); got != want {
			t.Errorf("FieldType(%d).String() = %q, want %q", ft, got, want)
		}
	}
}
