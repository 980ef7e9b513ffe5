// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package audiocore

import "unsafe"

// sliceAddr returns the address of a float32 slice's backing array as a
// uintptr, used only to compute the 64-byte alignment offset within an
// over-allocated slice. It never escapes into a stored pointer.
func sliceAddr(s []float32) uintptr {
	return uintptr(unsafe.Pointer(&s[0]))
}
