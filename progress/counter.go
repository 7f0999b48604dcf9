package progress

import "sync/atomic"

// Counter counts processed files against a fixed total. Safe for concurrent use.
type Counter struct {
	done  atomic.Int64
	total int64
}

func NewCounter(total int) *Counter {
	return &Counter{total: int64(total)}
}

// Inc records one processed file and returns the new position.
func (c *Counter) Inc() int64 { return c.done.Add(1) }

func (c *Counter) Done() int64 { return c.done.Load() }

func (c *Counter) Total() int64 { return c.total }
