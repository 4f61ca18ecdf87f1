package idgen

import "sync/atomic"

// Int64 returns values 1,2,3...
// Zero is never generated, and values are never reused.
type Int64 struct {
	next atomic.Int64
}

func (u *Int64) Next() int64 {
	return u.next.Add(1)
}

// Last returns the most recently generated value, or zero if Next has never been called.
func (u *Int64) Last() int64 {
	return u.next.Load()
}
