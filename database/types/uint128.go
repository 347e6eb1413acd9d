// Copyright 2026 Blink Labs Software
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package types

import (
	"database/sql/driver"
	"errors"
	"fmt"

	sdkmath "cosmossdk.io/math"
)

// ErrUint128Overflow is returned when a value does not fit in 128 bits
var ErrUint128Overflow = errors.New("value exceeds 128 bits")

// Uint128 is an unsigned 128-bit integer column, stored as a decimal string
//
//nolint:recvcheck
type Uint128 struct {
	sdkmath.Uint
}

// NewUint128 wraps an sdkmath.Uint, rejecting values wider than 128 bits
func NewUint128(v sdkmath.Uint) (Uint128, error) {
	if v.IsNil() {
		return Uint128{Uint: sdkmath.ZeroUint()}, nil
	}
	if v.BigInt().BitLen() > 128 {
		return Uint128{}, ErrUint128Overflow
	}
	return Uint128{Uint: v}, nil
}

// Uint128FromUint64 returns a Uint128 holding the given value
func Uint128FromUint64(v uint64) Uint128 {
	return Uint128{Uint: sdkmath.NewUint(v)}
}

// Get returns the wrapped value, treating the zero struct as zero
func (u Uint128) Get() sdkmath.Uint {
	if u.IsNil() {
		return sdkmath.ZeroUint()
	}
	return u.Uint
}

func (u Uint128) Value() (driver.Value, error) {
	return u.Get().String(), nil
}

func (u *Uint128) Scan(val any) error {
	var v string
	switch tmp := val.(type) {
	case string:
		v = tmp
	case []byte:
		v = string(tmp)
	default:
		return fmt.Errorf(
			"value was not expected type, wanted string, got %T",
			val,
		)
	}
	tmpUint, err := sdkmath.ParseUint(v)
	if err != nil {
		return fmt.Errorf("failed to parse uint128 value %q: %w", v, err)
	}
	ret, err := NewUint128(tmpUint)
	if err != nil {
		return err
	}
	*u = ret
	return nil
}
