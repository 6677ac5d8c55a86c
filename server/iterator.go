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
	LineIterator

	the pull side of the queue.  Next() blocks until a whole line shows
	up or the iterator is stopped; between queue waits it re-checks the
	stop signal so a shutdown never leaves a caller hanging for more than
	one poll interval.
*/

package logship

import (
	"time"
)

const DEFAULT_POLL_INTERVAL = 100 * time.Millisecond

type LineIterator struct {
	queue *LineQueue
	poll  time.Duration
	stop  <-chan struct{}
}

func NewLineIterator(queue *LineQueue, poll time.Duration, stop <-chan struct{}) *LineIterator {
	if poll <= 0 {
		poll = DEFAULT_POLL_INTERVAL
	}
	return &LineIterator{
		queue: queue,
		poll:  poll,
		stop:  stop,
	}
}

// Next hands back the oldest queued line.  ok == false means the iterator
// is done (stopped), never "try again": callers just range until false.
func (it *LineIterator) Next() (line string, ok bool) {
	for {
		select {
		case <-it.stop:
			return "", false
		default:
		}
		if line, ok = it.queue.Get(it.poll); ok {
			return line, true
		}
	}
}
