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

package governance

import (
	"encoding/hex"
	"fmt"
	"strings"
)

const (
	AddressSize = 32

	// highest last byte in the framework reserved address space
	maxReservedAddressByte = 0x0a
)

// Address identifies an account or stake pool
type Address [AddressSize]byte

// FrameworkAddress is the address the governance module acts as
var FrameworkAddress = Address{AddressSize - 1: 0x01}

// NewAddress returns an Address from its raw bytes
func NewAddress(b []byte) (Address, error) {
	var ret Address
	if len(b) != AddressSize {
		return ret, fmt.Errorf(
			"invalid address length %d, expected %d",
			len(b),
			AddressSize,
		)
	}
	copy(ret[:], b)
	return ret, nil
}

// ParseAddress parses a hex address. The 0x prefix is optional and short
// forms such as 0x1 are left padded with zeros.
func ParseAddress(s string) (Address, error) {
	var ret Address
	s = strings.TrimPrefix(strings.TrimPrefix(s, "0x"), "0X")
	if s == "" || len(s) > AddressSize*2 {
		return ret, fmt.Errorf("invalid address %q", s)
	}
	if len(s)%2 == 1 {
		s = "0" + s
	}
	b, err := hex.DecodeString(s)
	if err != nil {
		return ret, fmt.Errorf("invalid address %q: %w", s, err)
	}
	copy(ret[AddressSize-len(b):], b)
	return ret, nil
}

func (a Address) Bytes() []byte {
	return a[:]
}

func (a Address) String() string {
	return "0x" + hex.EncodeToString(a[:])
}

func (a Address) MarshalText() ([]byte, error) {
	return []byte(a.String()), nil
}

func (a *Address) UnmarshalText(text []byte) error {
	tmp, err := ParseAddress(string(text))
	if err != nil {
		return err
	}
	*a = tmp
	return nil
}

// IsReservedAddress reports whether the address is in the framework reserved
// range 0x0 through 0xa
func IsReservedAddress(a Address) bool {
	for _, b := range a[:AddressSize-1] {
		if b != 0 {
			return false
		}
	}
	return a[AddressSize-1] <= maxReservedAddressByte
}
