package app

import "sync/atomic"

// TradeCursor is the highest trade timestamp (unix seconds) already processed.
// It never moves backwards.
type TradeCursor struct {
	ts atomic.Int64
}

func NewTradeCursor(start int64) *TradeCursor {
	c := &TradeCursor{}
	c.ts.Store(start)
	return c
}

func (c *TradeCursor) Get() int64 {
	return c.ts.Load()
}

// Advance moves the cursor to ts if ts is newer and reports whether it moved.
func (c *TradeCursor) Advance(ts int64) bool {
	for {
		cur := c.ts.Load()
		if ts <= cur {
			return false
		}
		if c.ts.CompareAndSwap(cur, ts) {
			return true
		}
	}
}
