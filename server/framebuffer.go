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
	FrameBuffer

	turns an arbitrary series of byte chunks off the socket into whole
	newline terminated lines, no matter where the chunk boundaries land.

	bytes after the last newline sit in the buffer as a partial line until
	the next chunk (or a Reset) arrives.  every completed line lands in the
	LineQueue in stream order.

	decode policy: a line with broken utf-8 in it gets the bad sequences
	swapped for U+FFFD and is emitted anyway (and counted), rather then
	dropped on the floor.
*/

package logship

import (
	"bytes"
	"strings"
	"sync"
	"unicode/utf8"

	"github.com/vikramaditya-tatke/logship/server/stats"
)

const NEWLINE_SEPARATOR_BYTE = byte('\n')

type FrameBuffer struct {
	mu    sync.Mutex
	buf   []byte
	queue *LineQueue

	LinesCount     stats.StatCount
	SanitizedCount stats.StatCount
}

func NewFrameBuffer(name string, queue *LineQueue) *FrameBuffer {
	fb := new(FrameBuffer)
	fb.queue = queue
	fb.LinesCount = stats.NewStatCount(name + ".framebuffer.lines")
	fb.SanitizedCount = stats.NewStatCount(name + ".framebuffer.sanitized")
	return fb
}

// Write appends a received chunk and pushes every now-complete line onto
// the queue.  returns the number of lines emitted.
func (fb *FrameBuffer) Write(chunk []byte) int {
	fb.mu.Lock()
	defer fb.mu.Unlock()

	fb.buf = append(fb.buf, chunk...)

	emitted := 0
	for {
		idx := bytes.IndexByte(fb.buf, NEWLINE_SEPARATOR_BYTE)
		if idx < 0 {
			break
		}
		line := bytes.TrimSpace(fb.buf[:idx])
		fb.buf = fb.buf[idx+1:]
		if len(line) == 0 {
			continue
		}
		fb.queue.Put(fb.decode(line))
		fb.LinesCount.Up(1)
		emitted++
	}
	if len(fb.buf) == 0 {
		fb.buf = nil // let the backing array go once fully drained
	}
	return emitted
}

// Pending is the byte count of the partial line still waiting on its
// newline.
func (fb *FrameBuffer) Pending() int {
	fb.mu.Lock()
	l := len(fb.buf)
	fb.mu.Unlock()
	return l
}

// Reset throws away any partial line.  called when a connection dies so
// bytes from two different sockets never get glued into one record.
func (fb *FrameBuffer) Reset() {
	fb.mu.Lock()
	fb.buf = nil
	fb.mu.Unlock()
}

func (fb *FrameBuffer) decode(line []byte) string {
	if utf8.Valid(line) {
		return string(line)
	}
	fb.SanitizedCount.Up(1)
	stats.StatsdClient.Incr("framebuffer.sanitizedlines", 1)
	log.Warning("Invalid utf-8 in line, replacing bad bytes (%d bytes)", len(line))
	return strings.ToValidUTF8(string(line), string(utf8.RuneError))
}
