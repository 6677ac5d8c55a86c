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
	a little http server for external health checks and stats probes

	/ping /ops/status  -> "ok"
	/stats             -> JSON snapshot of the pipeline counters
*/

package logship

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/gorilla/mux"
)

type PipelineStats struct {
	Name            string `json:"name"`
	State           string `json:"connection_state"`
	BytesRead       int64  `json:"bytes_read"`
	LinesAssembled  int64  `json:"lines_assembled"`
	LinesSanitized  int64  `json:"lines_sanitized"`
	LinesSent       int64  `json:"lines_sent"`
	QueueLength     int    `json:"queue_length"`
	QueueDropped    int64  `json:"queue_dropped"`
	PendingBytes    int    `json:"pending_bytes"`
	Connects        int64  `json:"connects"`
	ConnectFailures int64  `json:"connect_failures"`
}

func (p *Pipeline) GetStats() *PipelineStats {
	return &PipelineStats{
		Name:            p.Name,
		State:           p.reader.State().String(),
		BytesRead:       p.reader.BytesReadCount.TotalCount.Get(),
		LinesAssembled:  p.reader.Frames().LinesCount.TotalCount.Get(),
		LinesSanitized:  p.reader.Frames().SanitizedCount.TotalCount.Get(),
		LinesSent:       p.SentLinesCount.TotalCount.Get(),
		QueueLength:     p.queue.Len(),
		QueueDropped:    p.queue.Dropped(),
		PendingBytes:    p.reader.Frames().Pending(),
		Connects:        p.reader.ConnectCount.TotalCount.Get(),
		ConnectFailures: p.reader.FailCount.TotalCount.Get(),
	}
}

// StartStatusServer blocks serving the health endpoints, so run it in its
// own goroutine.
func StartStatusServer(bind string, pipes []*Pipeline) error {
	log.Notice("Starting status server on %s", bind)

	r := mux.NewRouter()

	status := func(w http.ResponseWriter, req *http.Request) {
		w.Header().Set("Cache-Control", "private, max-age=0, no-cache")
		fmt.Fprintf(w, "ok")
	}

	statsHandler := func(w http.ResponseWriter, req *http.Request) {
		w.Header().Set("Cache-Control", "private, max-age=0, no-cache")
		w.Header().Set("Content-Type", "application/json")
		statsMap := make(map[string]*PipelineStats)
		for _, p := range pipes {
			statsMap[p.Name] = p.GetStats()
		}
		resbytes, _ := json.Marshal(statsMap)
		w.Write(resbytes)
	}

	r.HandleFunc("/ping", status)
	r.HandleFunc("/ops/status", status)
	r.HandleFunc("/status", status)
	r.HandleFunc("/stats", statsHandler)

	err := http.ListenAndServe(bind, r)
	if err != nil {
		log.Critical("Could not start status server %s: %v", bind, err)
	}
	return err
}
