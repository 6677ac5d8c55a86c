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
	TCP Reader

	the connection babysitter: dial the log source, shovel chunks into the
	FrameBuffer, and when the socket dies (or never comes up) back off and
	try again.  forever.  the only way out is Stop().

	backoff starts at 1ms, doubles per consecutive failure, caps at 5s and
	snaps back to 1ms the moment a connect lands.  a clean remote close
	(zero read / EOF) is not a failure, we just reconnect.
*/

package logship

import (
	"fmt"
	"io"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"github.com/vikramaditya-tatke/logship/server/stats"
	"github.com/vikramaditya-tatke/logship/server/utils"
	"github.com/vikramaditya-tatke/logship/server/utils/shutdown"
)

const (
	DEFAULT_TCP_CHUNK_SIZE = 65536
	DEFAULT_BACKOFF_MIN    = time.Millisecond
	DEFAULT_BACKOFF_MAX    = 5 * time.Second
	DEFAULT_DIAL_TIMEOUT   = 5 * time.Second
)

/*************** Connection state ***************/

type ConnectionState int32

const (
	STATE_DISCONNECTED ConnectionState = iota
	STATE_CONNECTING
	STATE_CONNECTED
	STATE_SHUTTING_DOWN
)

func (s ConnectionState) String() string {
	switch s {
	case STATE_DISCONNECTED:
		return "disconnected"
	case STATE_CONNECTING:
		return "connecting"
	case STATE_CONNECTED:
		return "connected"
	case STATE_SHUTTING_DOWN:
		return "shuttingdown"
	}
	return "unknown"
}

// nextBackoff doubles the retry delay up to the cap.
func nextBackoff(cur time.Duration, max time.Duration) time.Duration {
	n := cur * 2
	if n > max {
		return max
	}
	return n
}

/*************** TCP READER ***************/

type TCPReader struct {
	Name string

	host string
	port int

	chunkSize  int
	backoffMin time.Duration
	backoffMax time.Duration

	frames *FrameBuffer
	queue  *LineQueue

	state int32

	conn     net.Conn
	connLock sync.Mutex

	shutitdown chan struct{}
	startstop  sync.Once
	stopper    sync.Once
	doneWg     sync.WaitGroup

	BytesReadCount stats.StatCount
	ConnectCount   stats.StatCount
	FailCount      stats.StatCount
}

func NewTCPReader(name string, conf *ReaderConfig, queue *LineQueue) *TCPReader {
	r := new(TCPReader)
	r.Name = name
	r.host = conf.Host
	r.port = conf.Port
	r.chunkSize = conf.ChunkSize
	r.backoffMin = conf.backoffMin
	r.backoffMax = conf.backoffMax

	if r.chunkSize <= 0 {
		r.chunkSize = DEFAULT_TCP_CHUNK_SIZE
	}
	if r.backoffMin <= 0 {
		r.backoffMin = DEFAULT_BACKOFF_MIN
	}
	if r.backoffMax < r.backoffMin {
		r.backoffMax = DEFAULT_BACKOFF_MAX
	}

	r.queue = queue
	r.frames = NewFrameBuffer(name, queue)
	r.shutitdown = make(chan struct{})

	r.BytesReadCount = stats.NewStatCount(name + ".reader.bytes")
	r.ConnectCount = stats.NewStatCount(name + ".reader.connects")
	r.FailCount = stats.NewStatCount(name + ".reader.connectfails")
	return r
}

func (r *TCPReader) Frames() *FrameBuffer {
	return r.frames
}

func (r *TCPReader) State() ConnectionState {
	return ConnectionState(atomic.LoadInt32(&r.state))
}

func (r *TCPReader) setState(s ConnectionState) {
	atomic.StoreInt32(&r.state, int32(s))
}

func (r *TCPReader) addr() string {
	return fmt.Sprintf("%s:%d", r.host, r.port)
}

// Start kicks off the connection loop goroutine.  safe to call once.
func (r *TCPReader) Start() {
	r.startstop.Do(func() {
		shutdown.AddToShutdown()
		r.doneWg.Add(1)
		go r.connectionLoop()
	})
}

// Stop requests shutdown, yanks any in-flight read off its socket and
// waits for the loop to wind down.
func (r *TCPReader) Stop() {
	r.stopper.Do(func() {
		close(r.shutitdown)
		r.connLock.Lock()
		if r.conn != nil {
			r.conn.Close()
		}
		r.connLock.Unlock()
	})
	r.doneWg.Wait()
}

func (r *TCPReader) isShutdown() bool {
	select {
	case <-r.shutitdown:
		return true
	default:
		return false
	}
}

func (r *TCPReader) setConn(conn net.Conn) {
	r.connLock.Lock()
	r.conn = conn
	r.connLock.Unlock()
}

// sleepBackoff waits out the delay, bailing early on shutdown.
func (r *TCPReader) sleepBackoff(d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-r.shutitdown:
		return false
	case <-t.C:
		return true
	}
}

func (r *TCPReader) connectionLoop() {
	defer r.doneWg.Done()
	defer shutdown.ReleaseFromShutdown()
	defer r.setState(STATE_SHUTTING_DOWN)

	backoff := r.backoffMin

	for {
		if r.isShutdown() {
			return
		}
		r.setState(STATE_CONNECTING)
		conn, err := net.DialTimeout("tcp", r.addr(), DEFAULT_DIAL_TIMEOUT)
		if err != nil {
			r.setState(STATE_DISCONNECTED)
			r.FailCount.Up(1)
			stats.StatsdClient.Incr(fmt.Sprintf("reader.%s.tcp.connectfail", r.Name), 1)
			log.Warning("TCP reader: connect to %s failed (retry in %v): %v", r.addr(), backoff, err)
			if !r.sleepBackoff(backoff) {
				return
			}
			backoff = nextBackoff(backoff, r.backoffMax)
			continue
		}

		if tcpc, ok := conn.(*net.TCPConn); ok {
			tcpc.SetNoDelay(true) // per-line latency beats throughput here
		}

		// a connect landed: reset the retry clock, and drop any half
		// line left over from the previous socket
		backoff = r.backoffMin
		r.frames.Reset()
		r.setConn(conn)
		r.setState(STATE_CONNECTED)
		r.ConnectCount.Up(1)
		stats.StatsdClient.Incr(fmt.Sprintf("reader.%s.tcp.connect", r.Name), 1)
		log.Notice("TCP reader: connected to %s", r.addr())

		err = r.readLoop(conn)
		r.setConn(nil)
		conn.Close()
		r.setState(STATE_DISCONNECTED)

		if r.isShutdown() {
			return
		}
		if err != nil {
			log.Warning("TCP reader: read on %s failed (retry in %v): %v", r.addr(), backoff, err)
			if !r.sleepBackoff(backoff) {
				return
			}
			backoff = nextBackoff(backoff, r.backoffMax)
		}
		// a clean peer close just reconnects right away
	}
}

func (r *TCPReader) readLoop(conn net.Conn) error {
	buf := utils.GetBytes(r.chunkSize)
	defer utils.PutBytes(buf)

	for {
		if r.isShutdown() {
			return nil
		}
		n, err := conn.Read(buf)
		if n > 0 {
			r.BytesReadCount.Up(uint64(n))
			r.frames.Write(buf[:n])
		}
		if err != nil {
			if err == io.EOF {
				log.Debug("TCP reader: peer %s closed the stream", r.addr())
				return nil
			}
			if r.isShutdown() {
				return nil
			}
			return err
		}
	}
}
