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
	"slices"

	"golang.org/x/crypto/sha3"
)

const (
	PayloadBlobKeyPrefix = "xp"
	PayloadHashSize      = 32
)

// PayloadHash returns the SHA3-256 hash used to address an execution payload
func PayloadHash(payload []byte) []byte {
	sum := sha3.Sum256(payload)
	return sum[:]
}

func PayloadBlobKey(hash []byte) []byte {
	return slices.Concat([]byte(PayloadBlobKeyPrefix), hash)
}
