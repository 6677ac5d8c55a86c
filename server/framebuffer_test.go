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
	"math/rand"
	"strings"
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"
)

func drainQueue(q *LineQueue) []string {
	var got []string
	for {
		line, ok := q.Get(5 * time.Millisecond)
		if !ok {
			return got
		}
		got = append(got, line)
	}
}

func TestFrameBufferChunking(t *testing.T) {

	Convey("a line split across two chunks comes out as one line", t, func() {
		q := NewLineQueue("fbtest1", 100)
		fb := NewFrameBuffer("fbtest1", q)

		So(fb.Write([]byte("abc")), ShouldEqual, 0)
		So(fb.Pending(), ShouldEqual, 3)
		So(fb.Write([]byte("def\n")), ShouldEqual, 1)
		So(fb.Pending(), ShouldEqual, 0)

		So(drainQueue(q), ShouldResemble, []string{"abcdef"})
	})

	Convey("one chunk with several lines emits them all in order", t, func() {
		q := NewLineQueue("fbtest2", 100)
		fb := NewFrameBuffer("fbtest2", q)

		So(fb.Write([]byte("a\nb\nc\n")), ShouldEqual, 3)
		So(drainQueue(q), ShouldResemble, []string{"a", "b", "c"})
	})

	Convey("a trailing partial line stays pending until its newline shows up", t, func() {
		q := NewLineQueue("fbtest3", 100)
		fb := NewFrameBuffer("fbtest3", q)

		So(fb.Write([]byte("line1\nline2")), ShouldEqual, 1)
		So(drainQueue(q), ShouldResemble, []string{"line1"})
		So(fb.Pending(), ShouldEqual, 5)

		So(fb.Write([]byte("\n")), ShouldEqual, 1)
		So(drainQueue(q), ShouldResemble, []string{"line2"})
	})

	Convey("empty lines and whitespace-only lines are not emitted", t, func() {
		q := NewLineQueue("fbtest4", 100)
		fb := NewFrameBuffer("fbtest4", q)

		fb.Write([]byte("\n\n  \none\r\n\n"))
		So(drainQueue(q), ShouldResemble, []string{"one"})
	})

	Convey("Reset drops the pending partial line", t, func() {
		q := NewLineQueue("fbtest5", 100)
		fb := NewFrameBuffer("fbtest5", q)

		fb.Write([]byte("par"))
		fb.Reset()
		fb.Write([]byte("tial\n"))
		So(drainQueue(q), ShouldResemble, []string{"tial"})
	})
}

func TestFrameBufferPartitionInvariance(t *testing.T) {

	lines := []string{
		`{"eventId":4625,"level":"Warning","source":"Security"}`,
		"plain text line",
		"x",
		strings.Repeat("y", 3000),
		"last one",
	}
	stream := strings.Join(lines, "\n") + "\n"

	Convey("any chunking of the stream yields the same lines", t, func() {
		rnd := rand.New(rand.NewSource(42))
		for trial := 0; trial < 50; trial++ {
			q := NewLineQueue("fbpart", 100)
			fb := NewFrameBuffer("fbpart", q)

			rest := []byte(stream)
			for len(rest) > 0 {
				n := 1 + rnd.Intn(len(rest))
				fb.Write(rest[:n])
				rest = rest[n:]
			}
			So(drainQueue(q), ShouldResemble, lines)
			So(fb.Pending(), ShouldEqual, 0)
		}
	})

	Convey("byte-at-a-time chunking works too", t, func() {
		q := NewLineQueue("fbbyte", 100)
		fb := NewFrameBuffer("fbbyte", q)
		for i := 0; i < len(stream); i++ {
			fb.Write([]byte{stream[i]})
		}
		So(drainQueue(q), ShouldResemble, lines)
	})
}

func TestFrameBufferDecodePolicy(t *testing.T) {

	Convey("invalid utf-8 gets replaced, the line is still emitted", t, func() {
		q := NewLineQueue("fbdecode", 100)
		fb := NewFrameBuffer("fbdecode", q)

		fb.Write([]byte{'b', 'a', 'd', 0xff, 0xfe, 'x', '\n'})
		got := drainQueue(q)
		So(len(got), ShouldEqual, 1)
		So(strings.HasPrefix(got[0], "bad"), ShouldBeTrue)
		So(strings.HasSuffix(got[0], "x"), ShouldBeTrue)
		So(strings.ContainsRune(got[0], '�'), ShouldBeTrue)
		So(fb.SanitizedCount.TotalCount.Get(), ShouldEqual, 1)
	})

	Convey("clean utf-8 passes through untouched", t, func() {
		q := NewLineQueue("fbclean", 100)
		fb := NewFrameBuffer("fbclean", q)

		fb.Write([]byte("héllo wörld\n"))
		So(drainQueue(q), ShouldResemble, []string{"héllo wörld"})
		So(fb.SanitizedCount.TotalCount.Get(), ShouldEqual, 0)
	})
}
