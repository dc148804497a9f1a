// SPDX-License-Identifier: MPL-2.0

//go:build !unix

package lock

// Acquire always fails with ErrUnsupported.
func Acquire(path string) (*Handle, error) {
	return nil, ErrUnsupported
}

// Release is a no-op.
func (h *Handle) Release() {}
