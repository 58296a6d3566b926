// Go MySQL Driver - A MySQL-Driver for Go's database/sql package
//
// Copyright 2013 INADA Naoki. All rights reserved.
// Copyright 2013 Julien Schmidt. All rights reserved.
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this file,
// You can obtain one at http://mozilla.org/MPL/2.0/.

package mysql

import "github.com/shopspring/decimal"

// NewDecimal builds a Decimal value from an arbitrary-precision
// shopspring/decimal.Decimal, for callers binding query parameters.
func NewDecimal(d decimal.Decimal) Decimal {
	return Decimal{d}
}

// NewDecimalFromString parses s as a signed decimal literal, the same
// grammar MySQL renders DECIMAL/NEWDECIMAL columns with in the text
// protocol.
func NewDecimalFromString(s string) (Decimal, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return Decimal{}, err
	}
	return Decimal{d}, nil
}
