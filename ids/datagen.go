// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package ids

import "crypto/rand"

// RandAddress returns a random address, mostly for tests.
func RandAddress() (addr Address) {
	rand.Read(addr[:])
	return
}
