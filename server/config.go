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
	config objects for the shipper

	TOML, with $ENV{VAR:default} substitution (see utils/tomlenv) so the
	kafka credentials can ride in from the environment

	[reader]
	host = "localhost"
	port = 9999
	chunk_size = 65536      # max bytes per socket read
	queue_size = 10000      # lines held before drop-oldest kicks in
	backoff_min = "1ms"
	backoff_max = "5s"
	poll_interval = "100ms" # consumer wait granularity

	[kafka]
	dsn = "$ENV{KAFKA_BOOTSTRAP_SERVER:localhost:9092}"
	topic = "logs"

	[secrets]
	enabled = false
	name = "MWAA_Secrets"
	region = "us-east-1"
*/

package logship

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/quipo/statsd"
	"github.com/vikramaditya-tatke/logship/server/stats"
	"github.com/vikramaditya-tatke/logship/server/utils/tomlenv"
	"github.com/vikramaditya-tatke/logship/server/writers"
	logging "gopkg.in/op/go-logging.v1"
)

var log = logging.MustGetLogger("logship")

const (
	DEFAULT_READER_HOST   = "localhost"
	DEFAULT_READER_PORT   = 9999
	DEFAULT_SECRET_REGION = "us-east-1"
)

type ReaderConfig struct {
	Host         string `toml:"host" json:"host"`
	Port         int    `toml:"port" json:"port"`
	ChunkSize    int    `toml:"chunk_size" json:"chunk_size,omitempty"`
	QueueSize    int    `toml:"queue_size" json:"queue_size,omitempty"`
	BackoffMin   string `toml:"backoff_min" json:"backoff_min,omitempty"`
	BackoffMax   string `toml:"backoff_max" json:"backoff_max,omitempty"`
	PollInterval string `toml:"poll_interval" json:"poll_interval,omitempty"`

	backoffMin   time.Duration
	backoffMax   time.Duration
	pollInterval time.Duration
}

type SecretsConfig struct {
	Enabled bool   `toml:"enabled" json:"enabled"`
	Name    string `toml:"name" json:"name,omitempty"`
	Region  string `toml:"region" json:"region,omitempty"`
}

type Config struct {
	Name string

	PIDfile string `toml:"pid_file" json:"pid_file,omitempty"`

	// send some stats to the land
	StatsdServer   string `toml:"statsd_server" json:"statsd_server,omitempty"`
	StatsdPrefix   string `toml:"statsd_prefix" json:"statsd_prefix,omitempty"`
	StatsdInterval uint   `toml:"statsd_interval" json:"statsd_interval,omitempty"`

	// a little http server for external health checks and stats probes
	HealthServerBind string `toml:"internal_health_server_listen" json:"internal_health_server_listen,omitempty"`

	Reader  ReaderConfig        `toml:"reader" json:"reader"`
	Kafka   writers.KafkaConfig `toml:"kafka" json:"kafka"`
	Secrets SecretsConfig       `toml:"secrets" json:"secrets"`
}

func ParseConfigFile(filename string) (*Config, error) {
	cfg := new(Config)
	if _, err := tomlenv.DecodeFile(filename, cfg); err != nil {
		log.Critical("Error decoding config file: %s", err)
		return nil, err
	}
	if err := cfg.ApplyDefaults(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func ParseConfigString(instr string) (*Config, error) {
	cfg := new(Config)
	if _, err := tomlenv.Decode(instr, cfg); err != nil {
		return nil, err
	}
	if err := cfg.ApplyDefaults(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) ApplyDefaults() (err error) {
	r := &c.Reader
	if r.Host == "" {
		r.Host = DEFAULT_READER_HOST
	}
	if r.Port <= 0 {
		r.Port = DEFAULT_READER_PORT
	}
	if r.ChunkSize <= 0 {
		r.ChunkSize = DEFAULT_TCP_CHUNK_SIZE
	}
	if r.QueueSize <= 0 {
		r.QueueSize = DEFAULT_QUEUE_SIZE
	}
	if r.backoffMin, err = parseDurationDefault(r.BackoffMin, DEFAULT_BACKOFF_MIN); err != nil {
		return fmt.Errorf("Invalid backoff_min: %v", err)
	}
	if r.backoffMax, err = parseDurationDefault(r.BackoffMax, DEFAULT_BACKOFF_MAX); err != nil {
		return fmt.Errorf("Invalid backoff_max: %v", err)
	}
	if r.pollInterval, err = parseDurationDefault(r.PollInterval, DEFAULT_POLL_INTERVAL); err != nil {
		return fmt.Errorf("Invalid poll_interval: %v", err)
	}
	if r.backoffMax < r.backoffMin {
		return fmt.Errorf("backoff_max (%v) cannot be below backoff_min (%v)", r.backoffMax, r.backoffMin)
	}

	c.Kafka.SetDefaults()

	if c.Secrets.Enabled && c.Secrets.Name == "" {
		return fmt.Errorf("secrets.name is required when secrets are enabled")
	}
	if c.Secrets.Region == "" {
		c.Secrets.Region = DEFAULT_SECRET_REGION
	}
	return nil
}

func parseDurationDefault(instr string, def time.Duration) (time.Duration, error) {
	if instr == "" {
		return def, nil
	}
	return time.ParseDuration(instr)
}

// init a statsd client from our config object
func SetUpStatsdClient(cfg *Config) {
	if len(cfg.StatsdServer) == 0 {
		log.Notice("Skipping Statsd setup, no server specified")
		stats.SetStatsdClient(nil)
		return
	}

	prefix := cfg.StatsdPrefix
	if len(prefix) == 0 {
		prefix = "logship"
	}
	if host, err := os.Hostname(); err == nil {
		prefix = strings.Replace(prefix, "%HOST%", strings.Split(host, ".")[0], -1)
	}
	if !strings.HasSuffix(prefix, ".") {
		prefix += "."
	}

	interval := time.Second * 2 // aggregate stats and flush every 2 seconds
	if cfg.StatsdInterval > 0 {
		interval = time.Second * time.Duration(cfg.StatsdInterval)
	}

	statsdclient := statsd.NewStatsdClient(cfg.StatsdServer, prefix)
	if err := statsdclient.CreateSocket(); err != nil {
		log.Error("Could not connect statsd client: %v", err)
		return
	}
	stats.SetStatsdClient(statsd.NewStatsdBuffer(interval, statsdclient))
	log.Notice("Statsd Client to %s, prefix %s, interval %v", cfg.StatsdServer, prefix, interval)
}
