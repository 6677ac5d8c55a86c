// simple atomic counters/rates, published through expvar so the status
// endpoint gets them for free
package stats

import (
	"expvar"
	"time"
)

// An AtomicInt is an int64 to be accessed atomically.
type AtomicInt struct {
	Val *expvar.Int
}

func NewAtomic(name string) *AtomicInt {
	var att *AtomicInt
	gots := expvar.Get(name)
	if gots == nil {
		att = &AtomicInt{
			Val: expvar.NewInt(name),
		}
		att.Set(0)
	} else {
		att = &AtomicInt{
			Val: gots.(*expvar.Int),
		}
	}
	return att
}

func (i *AtomicInt) Add(n int64) int64 {
	i.Val.Add(n)
	return i.Get()
}

func (i *AtomicInt) Get() int64 {
	return i.Val.Value()
}

func (i *AtomicInt) Set(n int64) {
	i.Val.Set(n)
}

func (i *AtomicInt) Equal(n int64) bool {
	return i.Get() == n
}

func (i *AtomicInt) String() string {
	return i.Val.String()
}

// StatCount pairs an all-time total with a per-tick count that gets reset
// on each stats flush.
type StatCount struct {
	Name       string
	TotalCount *AtomicInt
	TickCount  *AtomicInt
}

func NewStatCount(name string) StatCount {
	return StatCount{
		Name:       name,
		TotalCount: NewAtomic(name + "-TotalCount"),
		TickCount:  NewAtomic(name + "-TickCount"),
	}
}

func (stat *StatCount) Up(val uint64) {
	stat.TotalCount.Add(int64(val))
	stat.TickCount.Add(int64(val))
}

func (stat *StatCount) ResetTick() {
	stat.TickCount.Set(0)
}

func (stat *StatCount) Rate(duration time.Duration) float32 {
	if stat.TickCount.Equal(0) {
		return 0
	}
	return float32(stat.TickCount.Get()) / float32(duration/time.Second)
}

func (stat *StatCount) Reset() {
	stat.TickCount.Set(0)
	stat.TotalCount.Set(0)
}
