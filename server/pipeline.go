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
	Pipeline

	the whole shebang wired together:

	socket -> TCPReader -> FrameBuffer -> LineQueue -> LineIterator -> kafka

	one reader goroutine, one consumer goroutine.  a single consumer keeps
	the global line order intact on the way to the broker.  delivery past
	the Publish() hand-off is the producer's problem (it retries and logs);
	nothing is re-yielded here, so the core is at-most-once.
*/

package logship

import (
	"context"
	"time"

	"github.com/vikramaditya-tatke/logship/server/secrets"
	"github.com/vikramaditya-tatke/logship/server/stats"
	"github.com/vikramaditya-tatke/logship/server/utils/shutdown"
	"github.com/vikramaditya-tatke/logship/server/writers"
)

const SECRETS_FETCH_TIMEOUT = 30 * time.Second

type Pipeline struct {
	Name string

	conf *Config

	queue  *LineQueue
	reader *TCPReader
	iter   *LineIterator
	writer *writers.KafkaWriter

	stopChan chan struct{}
	started  bool

	SentLinesCount stats.StatCount
}

func NewPipeline(name string, conf *Config) *Pipeline {
	p := new(Pipeline)
	p.Name = name
	p.conf = conf
	p.queue = NewLineQueue(name, conf.Reader.QueueSize)
	p.reader = NewTCPReader(name, &conf.Reader, p.queue)
	p.stopChan = make(chan struct{})
	p.iter = NewLineIterator(p.queue, conf.Reader.pollInterval, p.stopChan)
	p.SentLinesCount = stats.NewStatCount(name + ".pipeline.sent")
	return p
}

// Reader is exposed for the status endpoints.
func (p *Pipeline) Reader() *TCPReader {
	return p.reader
}

func (p *Pipeline) Queue() *LineQueue {
	return p.queue
}

// Iterator is the pull surface for anyone consuming lines directly
// instead of letting the pipeline ship them.
func (p *Pipeline) Iterator() *LineIterator {
	return p.iter
}

// Start resolves broker credentials, spins up the producer, the reader
// and the consume loop.
func (p *Pipeline) Start() error {
	if err := p.resolveSecrets(); err != nil {
		return err
	}

	writer, err := writers.NewKafkaWriter(&p.conf.Kafka)
	if err != nil {
		return err
	}
	p.writer = writer

	log.Notice("Starting pipeline `%s`: %s:%d -> kafka topic `%s`",
		p.Name, p.conf.Reader.Host, p.conf.Reader.Port, p.conf.Kafka.Topic)

	p.reader.Start()

	shutdown.AddToShutdown()
	p.started = true
	go p.consumeLoop()
	return nil
}

// pull credentials out of secrets manager and override the file config
func (p *Pipeline) resolveSecrets() error {
	if !p.conf.Secrets.Enabled {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), SECRETS_FETCH_TIMEOUT)
	defer cancel()

	sec, err := secrets.Fetch(ctx, p.conf.Secrets.Name, p.conf.Secrets.Region)
	if err != nil {
		return err
	}
	p.conf.Kafka.DSN = sec.BootstrapServers
	p.conf.Kafka.SASLUsername = sec.SASLUsername
	p.conf.Kafka.SASLPassword = sec.SASLPassword
	log.Notice("Broker config loaded from secret `%s`", p.conf.Secrets.Name)
	return nil
}

func (p *Pipeline) consumeLoop() {
	defer shutdown.ReleaseFromShutdown()
	for {
		line, ok := p.iter.Next()
		if !ok {
			log.Notice("Pipeline `%s`: consumer stopped", p.Name)
			return
		}
		p.writer.Publish(line)
		p.SentLinesCount.Up(1)
	}
}

// Stop tears the pipeline down: reader first so no new lines arrive, then
// the iterator, then a producer flush.
func (p *Pipeline) Stop() {
	log.Warning("Shutting down pipeline `%s`", p.Name)
	p.reader.Stop()
	close(p.stopChan)
	if p.started && p.writer != nil {
		if err := p.writer.Stop(); err != nil {
			log.Error("Kafka producer close: %v", err)
		}
	}
}
