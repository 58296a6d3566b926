// Go MySQL Driver - A MySQL-Driver for Go's database/sql package
//
// Copyright 2017 The Go-MySQL-Driver Authors. All rights reserved.
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this file,
// You can obtain one at http://mozilla.org/MPL/2.0/.

package mysql

import "fmt"

// FieldType is the wire representation of a MySQL column type, as carried
// in a ColumnDef packet and in binary-protocol parameter type bytes.
type FieldType byte

const (
	FieldTypeDecimal FieldType = iota
	FieldTypeTiny
	FieldTypeShort
	FieldTypeLong
	FieldTypeFloat
	FieldTypeDouble
	FieldTypeNULL
	FieldTypeTimestamp
	FieldTypeLongLong
	FieldTypeInt24
	FieldTypeDate
	FieldTypeTime
	FieldTypeDateTime
	FieldTypeYear
	FieldTypeNewDate
	FieldTypeVarChar
	FieldTypeBit
)

const (
	FieldTypeJSON FieldType = iota + 0xf5
	FieldTypeNewDecimal
	FieldTypeEnum
	FieldTypeSet
	FieldTypeTinyBLOB
	FieldTypeMediumBLOB
	FieldTypeLongBLOB
	FieldTypeBLOB
	FieldTypeVarString
	FieldTypeString
	FieldTypeGeometry
)

func (t FieldType) String() string {
	switch t {
	case FieldTypeDecimal, FieldTypeNewDecimal:
		return "DECIMAL"
	case FieldTypeTiny:
		return "TINYINT"
	case FieldTypeShort:
		return "SMALLINT"
	case FieldTypeLong, FieldTypeInt24:
		return "INT"
	case FieldTypeFloat:
		return "FLOAT"
	case FieldTypeDouble:
		return "DOUBLE"
	case FieldTypeNULL:
		return "NULL"
	case FieldTypeTimestamp:
		return "TIMESTAMP"
	case FieldTypeLongLong:
		return "BIGINT"
	case FieldTypeDate, FieldTypeNewDate:
		return "DATE"
	case FieldTypeTime:
		return "TIME"
	case FieldTypeDateTime:
		return "DATETIME"
	case FieldTypeYear:
		return "YEAR"
	case FieldTypeVarChar, FieldTypeVarString:
		return "VARCHAR"
	case FieldTypeBit:
		return "BIT"
	case FieldTypeJSON:
		return "JSON"
	case FieldTypeEnum:
		return "ENUM"
	case FieldTypeSet:
		return "SET"
	case FieldTypeTinyBLOB:
		return "TINYBLOB"
	case FieldTypeMediumBLOB:
		return "MEDIUMBLOB"
	case FieldTypeLongBLOB:
		return "LONGBLOB"
	case FieldTypeBLOB:
		return "BLOB"
	case FieldTypeString:
		return "STRING"
	case FieldTypeGeometry:
		return "GEOMETRY"
	default:
		return "UNKNOWN"
	}
}

// FieldFlag is the bitset carried alongside a ColumnDef's type.
type FieldFlag uint16

const (
	FlagNotNULL FieldFlag = 1 << iota
	FlagPriKey
	FlagUniqueKey
	FlagMultipleKey
	FlagBLOB
	FlagUnsigned
	FlagZeroFill
	FlagBinary
	FlagEnum
	FlagAutoIncrement
	FlagTimestamp
	FlagSet
	_
	_
	_
	FlagNum
)

// binaryCharsetID is the character set ID MySQL uses to mark a column as
// carrying opaque binary data rather than text.
const binaryCharsetID = 63

// ColumnDef describes one column of a result set, parsed from a
// column-definition packet during query or prepared-statement setup.
type ColumnDef struct {
	Schema       string
	Table        string
	OrgTable     string
	Name         string
	OrgName      string
	CharSet      uint16
	ColumnLength uint32
	ColumnType   FieldType
	Flags        FieldFlag
	Decimals     byte
}

// Unsigned reports whether values of this column are carried as unsigned
// integers on the wire.
func (c *ColumnDef) Unsigned() bool {
	return c.Flags&FlagUnsigned != 0
}

// Binary reports whether string/blob-family values of this column should
// be treated as raw bytes rather than UTF-8 text.
func (c *ColumnDef) Binary() bool {
	return c.CharSet == binaryCharsetID
}

// parseColumnDef decodes one column-definition packet (protocol 41 form:
// catalog, schema, table, org_table, name, org_name, each length-encoded,
// followed by a fixed block of metadata).
func parseColumnDef(data []byte) (*ColumnDef, error) {
	r := newLenencReader(data)

	if _, err := r.bytes(); err != nil { // catalog, always "def"
		return nil, err
	}
	schema, err := r.string()
	if err != nil {
		return nil, err
	}
	table, err := r.string()
	if err != nil {
		return nil, err
	}
	orgTable, err := r.string()
	if err != nil {
		return nil, err
	}
	name, err := r.string()
	if err != nil {
		return nil, err
	}
	orgName, err := r.string()
	if err != nil {
		return nil, err
	}

	// length-encoded "length of fixed fields", always 0x0c
	if _, err := r.uint64(); err != nil {
		return nil, err
	}

	fixed, err := r.take(10)
	if err != nil {
		return nil, fmt.Errorf("%w: short column definition", ErrMalformPkt)
	}

	cd := &ColumnDef{
		Schema:       schema,
		Table:        table,
		OrgTable:     orgTable,
		Name:         name,
		OrgName:      orgName,
		CharSet:      uint16(fixed[0]) | uint16(fixed[1])<<8,
		ColumnLength: uint32(fixed[2]) | uint32(fixed[3])<<8 | uint32(fixed[4])<<16 | uint32(fixed[5])<<24,
		ColumnType:   FieldType(fixed[6]),
		Flags:        FieldFlag(uint16(fixed[7]) | uint16(fixed[8])<<8),
		Decimals:     fixed[9],
	}
	return cd, nil
}
