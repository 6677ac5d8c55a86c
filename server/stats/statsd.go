// the statsd client singleton every package bumps counters on.  defaults
// to a noop so nothing has to care whether a statsd server is configured.
package stats

import (
	"github.com/quipo/statsd"
)

var StatsdClient statsd.Statsd = &statsd.NoopClient{}

func SetStatsdClient(client statsd.Statsd) {
	if client == nil {
		StatsdClient = &statsd.NoopClient{}
		return
	}
	StatsdClient = client
}
