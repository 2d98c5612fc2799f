// Package atomic holds small typed wrappers over sync/atomic.
package atomic

import (
	sa "sync/atomic"
)

// Bool is an atomic boolean. The zero value is false.
//
// All operations are sequentially consistent.
type Bool int32

func b2i(v bool) int32 {
	if v {
		return 1
	}
	return 0
}

// Get loads the value.
func (p *Bool) Get() bool {
	return sa.LoadInt32((*int32)(p)) != 0
}

// Set stores new.
func (p *Bool) Set(new bool) {
	sa.StoreInt32((*int32)(p), b2i(new))
}

// Swap stores new and returns the previous value.
func (p *Bool) Swap(new bool) (old bool) {
	return sa.SwapInt32((*int32)(p), b2i(new)) != 0
}

// CompareAndSwap stores new if the value is old and reports whether it did.
func (p *Bool) CompareAndSwap(old bool, new bool) (swapped bool) {
	return sa.CompareAndSwapInt32((*int32)(p), b2i(old), b2i(new))
}
