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
	"os"
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"
)

func TestConfigParsing(t *testing.T) {

	Convey("an empty config gets all the defaults", t, func() {
		cfg, err := ParseConfigString("")
		So(err, ShouldBeNil)
		So(cfg.Reader.Host, ShouldEqual, "localhost")
		So(cfg.Reader.Port, ShouldEqual, 9999)
		So(cfg.Reader.ChunkSize, ShouldEqual, 65536)
		So(cfg.Reader.QueueSize, ShouldEqual, 10000)
		So(cfg.Reader.backoffMin, ShouldEqual, time.Millisecond)
		So(cfg.Reader.backoffMax, ShouldEqual, 5*time.Second)
		So(cfg.Reader.pollInterval, ShouldEqual, 100*time.Millisecond)
		So(cfg.Kafka.Topic, ShouldEqual, "logs")
		So(cfg.Kafka.Compression, ShouldEqual, "snappy")
		So(cfg.Secrets.Region, ShouldEqual, "us-east-1")
	})

	Convey("explicit settings win over defaults", t, func() {
		conf := `
[reader]
host = "10.0.0.5"
port = 1514
chunk_size = 4096
queue_size = 500
backoff_min = "5ms"
backoff_max = "2s"
poll_interval = "250ms"

[kafka]
dsn = "broker1:9092,broker2:9092"
topic = "winevents"
ack_type = "all"
`
		cfg, err := ParseConfigString(conf)
		So(err, ShouldBeNil)
		So(cfg.Reader.Host, ShouldEqual, "10.0.0.5")
		So(cfg.Reader.Port, ShouldEqual, 1514)
		So(cfg.Reader.ChunkSize, ShouldEqual, 4096)
		So(cfg.Reader.QueueSize, ShouldEqual, 500)
		So(cfg.Reader.backoffMin, ShouldEqual, 5*time.Millisecond)
		So(cfg.Reader.backoffMax, ShouldEqual, 2*time.Second)
		So(cfg.Reader.pollInterval, ShouldEqual, 250*time.Millisecond)
		So(cfg.Kafka.DSN, ShouldEqual, "broker1:9092,broker2:9092")
		So(cfg.Kafka.Topic, ShouldEqual, "winevents")
		So(cfg.Kafka.AckType, ShouldEqual, "all")
	})

	Convey("env substitution fills in broker credentials", t, func() {
		os.Setenv("LOGSHIP_TEST_DSN", "envbroker:9092")
		defer os.Unsetenv("LOGSHIP_TEST_DSN")

		conf := `
[kafka]
dsn = "$ENV{LOGSHIP_TEST_DSN:fallback:9092}"
sasl_username = "$ENV{LOGSHIP_TEST_USER:defaultuser}"
`
		cfg, err := ParseConfigString(conf)
		So(err, ShouldBeNil)
		So(cfg.Kafka.DSN, ShouldEqual, "envbroker:9092")
		So(cfg.Kafka.SASLUsername, ShouldEqual, "defaultuser")
	})

	Convey("bad durations are rejected", t, func() {
		_, err := ParseConfigString("[reader]\nbackoff_min = \"soon\"\n")
		So(err, ShouldNotBeNil)
	})

	Convey("backoff_max below backoff_min is rejected", t, func() {
		_, err := ParseConfigString("[reader]\nbackoff_min = \"1s\"\nbackoff_max = \"10ms\"\n")
		So(err, ShouldNotBeNil)
	})

	Convey("secrets enabled without a name is rejected", t, func() {
		_, err := ParseConfigString("[secrets]\nenabled = true\n")
		So(err, ShouldNotBeNil)
	})
}

func TestPipelineWiring(t *testing.T) {

	Convey("a fresh pipeline snapshots sane stats and stops cleanly", t, func() {
		cfg, err := ParseConfigString("")
		So(err, ShouldBeNil)

		p := NewPipeline("wiring", cfg)
		st := p.GetStats()
		So(st.Name, ShouldEqual, "wiring")
		So(st.State, ShouldEqual, "disconnected")
		So(st.QueueLength, ShouldEqual, 0)
		So(st.LinesSent, ShouldEqual, 0)

		// never started: Stop must still be safe
		p.Stop()
		_, ok := p.Iterator().Next()
		So(ok, ShouldBeFalse)
	})
}
