package utils

import (
	"sync"
)

// a byte slice pool so the socket read loops are not churning the GC on
// every (re)connect
var bytesPool sync.Pool

func GetBytes(l int) []byte {
	x := bytesPool.Get()
	if x == nil {
		return make([]byte, l)
	}
	buf := x.([]byte)
	if cap(buf) < l {
		return make([]byte, l)
	}
	return buf[:l]
}

func PutBytes(buf []byte) {
	bytesPool.Put(buf)
}
