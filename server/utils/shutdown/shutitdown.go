/*
 a helper WaitGroup singleton for doing shutdowns in a nice fashion

 anything with a long running loop adds itself on Start() and releases
 once its Stop() path has fully drained; the root caller (the SIGINT
 handler, usually) waits on the whole group before exiting
*/
package shutdown

import "sync"

var _SHUTDOWN_WAITGROUP *sync.WaitGroup

func init() {
	_SHUTDOWN_WAITGROUP = new(sync.WaitGroup)
}

func AddToShutdown() {
	_SHUTDOWN_WAITGROUP.Add(1)
}

func ReleaseFromShutdown() {
	_SHUTDOWN_WAITGROUP.Done()
}

func WaitOnShutdown() {
	_SHUTDOWN_WAITGROUP.Wait()
}
