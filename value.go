// Go MySQL Driver - A MySQL-Driver for Go's database/sql package
//
// Copyright 2017 The Go-MySQL-Driver Authors. All rights reserved.
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this file,
// You can obtain one at http://mozilla.org/MPL/2.0/.

package mysql

import (
	"encoding/binary"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Value is a closed tagged union over every MySQL column value this engine
// understands. Every concrete type below is the only legal dynamic type
// behind this interface; a type switch over Value should always be
// exhaustive and never need a default case that isn't a decode error.
type Value interface {
	isValue()
}

type (
	// Decimal is an arbitrary-precision signed decimal value, backed by
	// shopspring/decimal so text-protocol DECIMAL/NEWDECIMAL columns round
	// trip exactly instead of losing precision through a float.
	Decimal struct{ decimal.Decimal }

	Int8     int8
	Int8U    uint8
	Int16    int16
	Int16U   uint16
	Int32    int32
	Int32U   uint32
	Int64    int64
	Int64U   uint64
	Float32  float32
	Float64  float64
	Year     uint16

	// DateTime, Date and Time carry local wall-clock components as plain
	// integer fields, with no time zone attached.
	DateTime struct {
		Year                     int
		Month, Day               int
		Hour, Minute, Second     int
		Microsecond              int
	}
	Date struct {
		Year       int
		Month, Day int
	}
	// Time is a duration-of-day value with no day or sign component, per
	// the binary protocol's TIME encoding (day and sign bytes are parsed
	// off the wire but discarded, matching the engine's documented
	// Non-goal of full signed/multi-day TIME support).
	Time struct {
		Hour, Minute, Second int
		Microsecond          int
	}

	Bytes []byte
	Text  string
	Null  struct{}
)

func (Decimal) isValue()  {}
func (Int8) isValue()     {}
func (Int8U) isValue()    {}
func (Int16) isValue()    {}
func (Int16U) isValue()   {}
func (Int32) isValue()    {}
func (Int32U) isValue()   {}
func (Int64) isValue()    {}
func (Int64U) isValue()   {}
func (Float32) isValue()  {}
func (Float64) isValue()  {}
func (Year) isValue()     {}
func (DateTime) isValue() {}
func (Date) isValue()     {}
func (Time) isValue()     {}
func (Bytes) isValue()    {}
func (Text) isValue()     {}
func (Null) isValue()     {}

// AsTime converts a DateTime to a time.Time in the given location.
func (d DateTime) AsTime(loc *time.Location) time.Time {
	return time.Date(d.Year, time.Month(d.Month), d.Day, d.Hour, d.Minute, d.Second, d.Microsecond*1000, loc)
}

// AsTime converts a Date to a time.Time at midnight in the given location.
func (d Date) AsTime(loc *time.Location) time.Time {
	return time.Date(d.Year, time.Month(d.Month), d.Day, 0, 0, 0, 0, loc)
}

// AsDuration converts a Time to a time.Duration since midnight.
func (t Time) AsDuration() time.Duration {
	return time.Duration(t.Hour)*time.Hour +
		time.Duration(t.Minute)*time.Minute +
		time.Duration(t.Second)*time.Second +
		time.Duration(t.Microsecond)*time.Microsecond
}

// --- text protocol row decoding ---

// getTextRow decodes one COM_QUERY result row from a raw packet payload.
// Every field is either the NULL sentinel 0xFB or a length-encoded string
// whose interpretation is dispatched on the corresponding column's type.
func getTextRow(columns []*ColumnDef, data []byte) ([]Value, error) {
	values := make([]Value, len(columns))
	pos := 0

	for i, col := range columns {
		if pos >= len(data) {
			return nil, decodeErrorf("text row", "ran out of data at field %d", i)
		}
		if data[pos] == lenencNullMarker {
			values[i] = Null{}
			pos++
			continue
		}

		field, isNull, n, err := readLengthEncodedString(data[pos:])
		if err != nil {
			return nil, decodeErrorf("text row", "field %d: %w", i, err)
		}
		pos += n
		if isNull {
			values[i] = Null{}
			continue
		}

		v, err := decodeTextField(col, field)
		if err != nil {
			return nil, decodeErrorf("text row", "field %d (%s): %w", i, col.Name, err)
		}
		values[i] = v
	}
	return values, nil
}

func decodeTextField(col *ColumnDef, raw []byte) (Value, error) {
	s := string(raw)

	switch col.ColumnType {
	case FieldTypeNULL:
		return Null{}, nil

	case FieldTypeDecimal, FieldTypeNewDecimal:
		if s == "" {
			return Null{}, nil
		}
		d, err := decimal.NewFromString(s)
		if err != nil {
			return nil, fmt.Errorf("bad decimal %q: %w", s, err)
		}
		return Decimal{d}, nil

	case FieldTypeTiny, FieldTypeShort, FieldTypeLong, FieldTypeInt24, FieldTypeLongLong, FieldTypeYear:
		if s == "" {
			return Null{}, nil
		}
		return decodeTextInteger(col, s)

	case FieldTypeFloat:
		if s == "" {
			return Null{}, nil
		}
		f, err := strconv.ParseFloat(s, 32)
		if err != nil {
			return nil, fmt.Errorf("bad float %q: %w", s, err)
		}
		return Float32(f), nil

	case FieldTypeDouble:
		if s == "" {
			return Null{}, nil
		}
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return nil, fmt.Errorf("bad double %q: %w", s, err)
		}
		return Float64(f), nil

	case FieldTypeTimestamp, FieldTypeDateTime:
		if s == "" {
			return Null{}, nil
		}
		return parseTextDateTime(s)

	case FieldTypeDate, FieldTypeNewDate:
		if s == "" {
			return Null{}, nil
		}
		return parseTextDate(s)

	case FieldTypeTime:
		if s == "" {
			return Null{}, nil
		}
		return parseTextTime(s)

	case FieldTypeGeometry:
		return Bytes(raw), nil

	default:
		if col.Binary() {
			return Bytes(raw), nil
		}
		return Text(s), nil
	}
}

func decodeTextInteger(col *ColumnDef, s string) (Value, error) {
	if col.Unsigned() {
		u, err := strconv.ParseUint(s, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("bad unsigned integer %q: %w", s, err)
		}
		switch col.ColumnType {
		case FieldTypeTiny:
			return Int8U(u), nil
		case FieldTypeShort, FieldTypeYear:
			return Int16U(u), nil
		case FieldTypeLong, FieldTypeInt24:
			return Int32U(u), nil
		default:
			return Int64U(u), nil
		}
	}
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("bad integer %q: %w", s, err)
	}
	switch col.ColumnType {
	case FieldTypeTiny:
		return Int8(n), nil
	case FieldTypeShort, FieldTypeYear:
		return Int16(n), nil
	case FieldTypeLong, FieldTypeInt24:
		return Int32(n), nil
	default:
		return Int64(n), nil
	}
}

func parseTextDateTime(s string) (Value, error) {
	datePart := s
	timePart := ""
	if idx := strings.IndexByte(s, ' '); idx >= 0 {
		datePart, timePart = s[:idx], s[idx+1:]
	}
	y, mo, d, err := splitDateParts(datePart)
	if err != nil {
		return nil, err
	}
	if timePart == "" {
		return DateTime{Year: y, Month: mo, Day: d}, nil
	}
	h, mi, sec, frac, err := splitTimeParts(timePart)
	if err != nil {
		return nil, err
	}
	return DateTime{Year: y, Month: mo, Day: d, Hour: h, Minute: mi, Second: sec, Microsecond: frac}, nil
}

func parseTextDate(s string) (Value, error) {
	y, mo, d, err := splitDateParts(s)
	if err != nil {
		return nil, err
	}
	return Date{Year: y, Month: mo, Day: d}, nil
}

func parseTextTime(s string) (Value, error) {
	h, mi, sec, frac, err := splitTimeParts(s)
	if err != nil {
		return nil, err
	}
	return Time{Hour: h, Minute: mi, Second: sec, Microsecond: frac}, nil
}

func splitDateParts(s string) (y, mo, d int, err error) {
	parts := strings.SplitN(s, "-", 3)
	if len(parts) != 3 {
		return 0, 0, 0, fmt.Errorf("bad date %q", s)
	}
	y, err = strconv.Atoi(parts[0])
	if err != nil {
		return 0, 0, 0, fmt.Errorf("bad date %q: %w", s, err)
	}
	mo, err = strconv.Atoi(parts[1])
	if err != nil {
		return 0, 0, 0, fmt.Errorf("bad date %q: %w", s, err)
	}
	d, err = strconv.Atoi(parts[2])
	if err != nil {
		return 0, 0, 0, fmt.Errorf("bad date %q: %w", s, err)
	}
	return y, mo, d, nil
}

func splitTimeParts(s string) (h, mi, sec, microsecond int, err error) {
	whole := s
	fracStr := ""
	if idx := strings.IndexByte(s, '.'); idx >= 0 {
		whole, fracStr = s[:idx], s[idx+1:]
	}
	parts := strings.SplitN(whole, ":", 3)
	if len(parts) != 3 {
		return 0, 0, 0, 0, fmt.Errorf("bad time %q", s)
	}
	h, err = strconv.Atoi(parts[0])
	if err != nil {
		return 0, 0, 0, 0, fmt.Errorf("bad time %q: %w", s, err)
	}
	mi, err = strconv.Atoi(parts[1])
	if err != nil {
		return 0, 0, 0, 0, fmt.Errorf("bad time %q: %w", s, err)
	}
	sec, err = strconv.Atoi(parts[2])
	if err != nil {
		return 0, 0, 0, 0, fmt.Errorf("bad time %q: %w", s, err)
	}
	if fracStr != "" {
		for len(fracStr) < 6 {
			fracStr += "0"
		}
		fracStr = fracStr[:6]
		microsecond, err = strconv.Atoi(fracStr)
		if err != nil {
			return 0, 0, 0, 0, fmt.Errorf("bad time fraction %q: %w", s, err)
		}
	}
	return h, mi, sec, microsecond, nil
}

// --- binary protocol row decoding ---

// getBinaryRow decodes one COM_STMT_EXECUTE result row. data is the full
// packet payload, including the leading 0x00 header byte.
func getBinaryRow(columns []*ColumnDef, data []byte) ([]Value, error) {
	if len(data) < 1 || data[0] != 0x00 {
		return nil, decodeErrorf("binary row", "missing 0x00 row header")
	}

	bitmapLen := (len(columns) + 9) / 8
	if len(data) < 1+bitmapLen {
		return nil, decodeErrorf("binary row", "truncated null bitmap")
	}
	bitmap := data[1 : 1+bitmapLen]
	pos := 1 + bitmapLen

	values := make([]Value, len(columns))
	for i, col := range columns {
		if rowBitmapIsNull(bitmap, i) {
			values[i] = Null{}
			continue
		}
		v, n, err := decodeBinaryField(col, data[pos:])
		if err != nil {
			return nil, decodeErrorf("binary row", "field %d (%s): %w", i, col.Name, err)
		}
		values[i] = v
		pos += n
	}
	return values, nil
}

// rowBitmapIsNull tests bit k of a result-row null bitmap, whose bit
// numbering is offset by 2 relative to the field index.
func rowBitmapIsNull(bitmap []byte, k int) bool {
	byteIdx := (k + 2) >> 3
	bitIdx := uint((k + 2) & 7)
	return bitmap[byteIdx]>>bitIdx&1 == 1
}

func decodeBinaryField(col *ColumnDef, b []byte) (Value, int, error) {
	switch col.ColumnType {
	case FieldTypeTiny:
		if len(b) < 1 {
			return nil, 0, fmt.Errorf("short TINY")
		}
		if col.Unsigned() {
			return Int8U(b[0]), 1, nil
		}
		return Int8(int8(b[0])), 1, nil

	case FieldTypeShort, FieldTypeYear:
		if len(b) < 2 {
			return nil, 0, fmt.Errorf("short SHORT/YEAR")
		}
		u := binary.LittleEndian.Uint16(b)
		if col.ColumnType == FieldTypeYear {
			return Year(u), 2, nil
		}
		if col.Unsigned() {
			return Int16U(u), 2, nil
		}
		return Int16(int16(u)), 2, nil

	case FieldTypeLong, FieldTypeInt24:
		if len(b) < 4 {
			return nil, 0, fmt.Errorf("short LONG/INT24")
		}
		u := binary.LittleEndian.Uint32(b)
		if col.Unsigned() {
			return Int32U(u), 4, nil
		}
		return Int32(int32(u)), 4, nil

	case FieldTypeLongLong:
		if len(b) < 8 {
			return nil, 0, fmt.Errorf("short LONGLONG")
		}
		u := binary.LittleEndian.Uint64(b)
		if col.Unsigned() {
			return Int64U(u), 8, nil
		}
		return Int64(int64(u)), 8, nil

	case FieldTypeFloat:
		if len(b) < 4 {
			return nil, 0, fmt.Errorf("short FLOAT")
		}
		return Float32(math.Float32frombits(binary.LittleEndian.Uint32(b))), 4, nil

	case FieldTypeDouble:
		if len(b) < 8 {
			return nil, 0, fmt.Errorf("short DOUBLE")
		}
		return Float64(math.Float64frombits(binary.LittleEndian.Uint64(b))), 8, nil

	case FieldTypeTimestamp, FieldTypeDateTime:
		return decodeBinaryDateTime(b)

	case FieldTypeDate, FieldTypeNewDate:
		return decodeBinaryDate(b)

	case FieldTypeTime:
		return decodeBinaryTime(b)

	case FieldTypeDecimal, FieldTypeNewDecimal:
		return nil, 0, fmt.Errorf("binary DECIMAL codec is not supported")

	case FieldTypeGeometry:
		raw, _, n, err := readLengthEncodedString(b)
		if err != nil {
			return nil, 0, err
		}
		return Bytes(append([]byte{}, raw...)), n, nil

	default:
		raw, isNull, n, err := readLengthEncodedString(b)
		if err != nil {
			return nil, 0, err
		}
		if isNull {
			return Null{}, n, nil
		}
		if col.Binary() {
			return Bytes(append([]byte{}, raw...)), n, nil
		}
		return Text(string(raw)), n, nil
	}
}

func decodeBinaryDateTime(b []byte) (Value, int, error) {
	n, _, consumed := readLengthEncodedInteger(b)
	if consumed == 0 {
		return nil, 0, fmt.Errorf("bad DATETIME length prefix")
	}
	total := consumed + int(n)
	if len(b) < total {
		return nil, 0, fmt.Errorf("short DATETIME body")
	}
	body := b[consumed:total]

	var dt DateTime
	switch n {
	case 0:
	case 4, 7, 11:
		dt.Year = int(binary.LittleEndian.Uint16(body[0:2]))
		dt.Month = int(body[2])
		dt.Day = int(body[3])
		if n >= 7 {
			dt.Hour = int(body[4])
			dt.Minute = int(body[5])
			dt.Second = int(body[6])
		}
		if n == 11 {
			dt.Microsecond = int(binary.LittleEndian.Uint32(body[7:11]))
		}
	default:
		return nil, 0, fmt.Errorf("unsupported DATETIME length %d", n)
	}
	return dt, total, nil
}

func decodeBinaryDate(b []byte) (Value, int, error) {
	n, _, consumed := readLengthEncodedInteger(b)
	if consumed == 0 {
		return nil, 0, fmt.Errorf("bad DATE length prefix")
	}
	total := consumed + int(n)
	if len(b) < total {
		return nil, 0, fmt.Errorf("short DATE body")
	}
	body := b[consumed:total]

	var d Date
	switch n {
	case 0:
	case 4:
		d.Year = int(binary.LittleEndian.Uint16(body[0:2]))
		d.Month = int(body[2])
		d.Day = int(body[3])
	default:
		return nil, 0, fmt.Errorf("unsupported DATE length %d", n)
	}
	return d, total, nil
}

func decodeBinaryTime(b []byte) (Value, int, error) {
	n, _, consumed := readLengthEncodedInteger(b)
	if consumed == 0 {
		return nil, 0, fmt.Errorf("bad TIME length prefix")
	}
	total := consumed + int(n)
	if len(b) < total {
		return nil, 0, fmt.Errorf("short TIME body")
	}
	body := b[consumed:total]

	var t Time
	switch n {
	case 0:
	case 8, 12:
		// body[0] = sign, body[1:5] = days (both discarded per design)
		t.Hour = int(body[5])
		t.Minute = int(body[6])
		t.Second = int(body[7])
		if n == 12 {
			t.Microsecond = int(binary.LittleEndian.Uint32(body[8:12]))
		}
	default:
		return nil, 0, fmt.Errorf("unsupported TIME length %d", n)
	}
	return t, total, nil
}

// --- binary protocol parameter encoding ---

// paramTypeAndFlag returns the (FieldType, flag) pair COM_STMT_EXECUTE
// advertises for a bound parameter's type, per the wire table.
func paramTypeAndFlag(v Value) (FieldType, byte) {
	switch vv := v.(type) {
	case Decimal:
		return FieldTypeDecimal, 0x00
	case Int8:
		return FieldTypeLongLong, 0x00
	case Int8U:
		return FieldTypeLongLong, 0x01
	case Int16:
		return FieldTypeLongLong, 0x00
	case Int16U:
		return FieldTypeLongLong, 0x01
	case Int32:
		return FieldTypeLongLong, 0x00
	case Int32U:
		return FieldTypeLongLong, 0x01
	case Int64:
		return FieldTypeLongLong, 0x00
	case Int64U:
		return FieldTypeLongLong, 0x01
	case Float32:
		return FieldTypeFloat, 0x00
	case Float64:
		return FieldTypeDouble, 0x00
	case Year:
		return FieldTypeYear, 0x00
	case DateTime:
		return FieldTypeDateTime, 0x00
	case Date:
		return FieldTypeDate, 0x00
	case Time:
		return FieldTypeTime, 0x00
	case Bytes:
		return FieldTypeBLOB, 0x00
	case Text:
		return FieldTypeString, 0x00
	case Null:
		return FieldTypeNULL, 0x00
	default:
		_ = vv
		return FieldTypeNULL, 0x00
	}
}

// appendBinaryParam appends the wire encoding of a non-NULL parameter value
// to dst. NULL values contribute no bytes; they are represented purely in
// the parameter null bitmap.
func appendBinaryParam(dst []byte, v Value) ([]byte, error) {
	switch vv := v.(type) {
	case Decimal:
		return appendLengthEncodedString(dst, []byte(vv.String())), nil
	case Int8:
		var tmp [8]byte
		binary.LittleEndian.PutUint64(tmp[:], uint64(int64(vv)))
		return append(dst, tmp[:]...), nil
	case Int8U:
		var tmp [8]byte
		binary.LittleEndian.PutUint64(tmp[:], uint64(vv))
		return append(dst, tmp[:]...), nil
	case Int16:
		var tmp [8]byte
		binary.LittleEndian.PutUint64(tmp[:], uint64(int64(vv)))
		return append(dst, tmp[:]...), nil
	case Int16U:
		var tmp [8]byte
		binary.LittleEndian.PutUint64(tmp[:], uint64(vv))
		return append(dst, tmp[:]...), nil
	case Int32:
		var tmp [8]byte
		binary.LittleEndian.PutUint64(tmp[:], uint64(int64(vv)))
		return append(dst, tmp[:]...), nil
	case Int32U:
		var tmp [8]byte
		binary.LittleEndian.PutUint64(tmp[:], uint64(vv))
		return append(dst, tmp[:]...), nil
	case Int64:
		var tmp [8]byte
		binary.LittleEndian.PutUint64(tmp[:], uint64(vv))
		return append(dst, tmp[:]...), nil
	case Int64U:
		var tmp [8]byte
		binary.LittleEndian.PutUint64(tmp[:], uint64(vv))
		return append(dst, tmp[:]...), nil
	case Float32:
		var tmp [4]byte
		binary.LittleEndian.PutUint32(tmp[:], math.Float32bits(float32(vv)))
		return append(dst, tmp[:]...), nil
	case Float64:
		var tmp [8]byte
		binary.LittleEndian.PutUint64(tmp[:], math.Float64bits(float64(vv)))
		return append(dst, tmp[:]...), nil
	case Year:
		var tmp [2]byte
		binary.LittleEndian.PutUint16(tmp[:], uint16(vv))
		return append(dst, tmp[:]...), nil
	case DateTime:
		body := make([]byte, 0, 11)
		var y [2]byte
		binary.LittleEndian.PutUint16(y[:], uint16(vv.Year))
		body = append(body, y[:]...)
		body = append(body, byte(vv.Month), byte(vv.Day), byte(vv.Hour), byte(vv.Minute), byte(vv.Second))
		var us [4]byte
		binary.LittleEndian.PutUint32(us[:], uint32(vv.Microsecond))
		body = append(body, us[:]...)
		dst = append(dst, byte(len(body)))
		return append(dst, body...), nil
	case Date:
		body := make([]byte, 0, 4)
		var y [2]byte
		binary.LittleEndian.PutUint16(y[:], uint16(vv.Year))
		body = append(body, y[:]...)
		body = append(body, byte(vv.Month), byte(vv.Day))
		dst = append(dst, byte(len(body)))
		return append(dst, body...), nil
	case Time:
		body := make([]byte, 0, 12)
		body = append(body, 0) // sign: always positive
		body = append(body, 0, 0, 0, 0) // days: always 0
		body = append(body, byte(vv.Hour), byte(vv.Minute), byte(vv.Second))
		var us [4]byte
		binary.LittleEndian.PutUint32(us[:], uint32(vv.Microsecond))
		body = append(body, us[:]...)
		dst = append(dst, byte(len(body)))
		return append(dst, body...), nil
	case Bytes:
		return appendLengthEncodedString(dst, vv), nil
	case Text:
		return appendLengthEncodedString(dst, []byte(vv)), nil
	case Null:
		return dst, nil
	default:
		return nil, fmt.Errorf("%w: unsupported parameter value %T", ErrMalformPkt, v)
	}
}

// makeNullBitmap builds the parameter null bitmap for COM_STMT_EXECUTE:
// offset 0, bit k set iff params[k] is Null, length ceil(n/8).
func makeNullBitmap(params []Value) []byte {
	bitmap := make([]byte, (len(params)+7)/8)
	for i, p := range params {
		if _, ok := p.(Null); ok {
			bitmap[i/8] |= 1 << uint(i%8)
		}
	}
	return bitmap
}
