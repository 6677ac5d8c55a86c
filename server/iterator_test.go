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

package logship

import (
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"
)

func TestLineIteratorPull(t *testing.T) {

	Convey("Next yields queued lines in order", t, func() {
		q := NewLineQueue("itorder", 100)
		stop := make(chan struct{})
		it := NewLineIterator(q, 10*time.Millisecond, stop)

		q.Put("a")
		q.Put("b")

		l1, ok1 := it.Next()
		l2, ok2 := it.Next()
		So(ok1, ShouldBeTrue)
		So(ok2, ShouldBeTrue)
		So([]string{l1, l2}, ShouldResemble, []string{"a", "b"})
		close(stop)
	})

	Convey("Next blocks until a line arrives", t, func() {
		q := NewLineQueue("itblock", 100)
		stop := make(chan struct{})
		it := NewLineIterator(q, 10*time.Millisecond, stop)

		go func() {
			time.Sleep(30 * time.Millisecond)
			q.Put("late")
		}()
		line, ok := it.Next()
		So(ok, ShouldBeTrue)
		So(line, ShouldEqual, "late")
		close(stop)
	})

	Convey("a stop while blocked on an empty queue ends the iterator within a poll", t, func() {
		q := NewLineQueue("itstop", 100)
		stop := make(chan struct{})
		poll := 50 * time.Millisecond
		it := NewLineIterator(q, poll, stop)

		done := make(chan bool, 1)
		go func() {
			_, ok := it.Next()
			done <- ok
		}()

		time.Sleep(10 * time.Millisecond)
		start := time.Now()
		close(stop)

		select {
		case ok := <-done:
			So(ok, ShouldBeFalse)
			So(time.Since(start), ShouldBeLessThan, 2*poll)
		case <-time.After(time.Second):
			t.Fatal("iterator did not stop")
		}
	})

	Convey("a stopped iterator yields nothing even with lines queued", t, func() {
		q := NewLineQueue("itdead", 100)
		stop := make(chan struct{})
		it := NewLineIterator(q, 10*time.Millisecond, stop)

		q.Put("leftover")
		close(stop)
		_, ok := it.Next()
		So(ok, ShouldBeFalse)
	})
}
