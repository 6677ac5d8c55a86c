/*
Copyright 2016 Under Armour, Inc.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

/*
	LineQueue

	the hand-off point between the one reader goroutine filling it and
	whoever is draining it.  a plain mutex guarded FIFO.

	the queue is bounded: once it hits its max size the OLDEST line gets
	dropped (and counted) so the reader is never blocked by a stalled
	consumer.  the wake notification is pushed while still holding the
	lock, so a consumer can never miss the "new data" signal between the
	append and its own wait.
*/

package logship

import (
	"github.com/vikramaditya-tatke/logship/server/stats"
	"sync"
	"time"
)

const DEFAULT_QUEUE_SIZE = 10000

type LineQueue struct {
	mu      sync.Mutex
	lines   []string
	maxSize int

	// buffered(1): a pending token means "something got added since you
	// last looked", sent under q.mu
	notify chan struct{}

	DroppedCount stats.StatCount
}

func NewLineQueue(name string, maxSize int) *LineQueue {
	if maxSize <= 0 {
		maxSize = DEFAULT_QUEUE_SIZE
	}
	return &LineQueue{
		maxSize:      maxSize,
		notify:       make(chan struct{}, 1),
		DroppedCount: stats.NewStatCount(name + ".linequeue.dropped"),
	}
}

// Put appends a line, evicting the oldest one if the queue is full.
// never blocks the caller.
func (q *LineQueue) Put(line string) {
	q.mu.Lock()
	if len(q.lines) >= q.maxSize {
		q.lines = q.lines[1:]
		q.DroppedCount.Up(1)
		stats.StatsdClient.Incr("linequeue.dropped", 1)
	}
	q.lines = append(q.lines, line)
	select {
	case q.notify <- struct{}{}:
	default:
	}
	q.mu.Unlock()
}

// Get pops the oldest line, waiting up to timeout for one to show up.
// ok == false means the timeout hit and the caller should check its
// shutdown state and come back.
func (q *LineQueue) Get(timeout time.Duration) (line string, ok bool) {
	deadline := time.Now().Add(timeout)
	for {
		q.mu.Lock()
		if len(q.lines) > 0 {
			line = q.lines[0]
			q.lines = q.lines[1:]
			q.mu.Unlock()
			return line, true
		}
		q.mu.Unlock()

		remain := time.Until(deadline)
		if remain <= 0 {
			return "", false
		}
		timer := time.NewTimer(remain)
		select {
		case <-q.notify:
			timer.Stop()
			// re-check: another consumer may have beaten us to it
		case <-timer.C:
			return "", false
		}
	}
}

func (q *LineQueue) Len() int {
	q.mu.Lock()
	l := len(q.lines)
	q.mu.Unlock()
	return l
}

func (q *LineQueue) Dropped() int64 {
	return q.DroppedCount.TotalCount.Get()
}
