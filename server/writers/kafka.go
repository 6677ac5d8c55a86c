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
	The Kafka writer

	every assembled log line goes out as one message on a single topic.

	OPTIONS: for `[kafka]`

	dsn: "kafkahost1:9092,kafkahost2:9092" (required)
	topic: topic for log messages (default: logs)

	# some kafka options
	compression: "snappy|gzip|none" (default snappy)
	max_retry: 10
	ack_type: "all|local" (all = all replicas ack, default local)
	flush_time: flush produced messages every tick (default 1s)

	# SASL_SSL credentials, typically filled in from secrets manager
	sasl_username / sasl_password
*/

package writers

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Shopify/sarama"
	"github.com/vikramaditya-tatke/logship/server/stats"
	logging "gopkg.in/op/go-logging.v1"
)

const (
	DEFAULT_KAFKA_TOPIC       = "logs"
	DEFAULT_KAFKA_RETRY       = 10
	DEFAULT_KAFKA_ACK         = "local"
	DEFAULT_KAFKA_FLUSH       = "1s"
	DEFAULT_KAFKA_COMPRESSION = "snappy"
)

var ErrNoKafkaDSN = errors.New("`dsn` (kafkahost1,kafkahost2...) is needed for kafka config")

type KafkaConfig struct {
	DSN          string `toml:"dsn" json:"dsn"`
	Topic        string `toml:"topic" json:"topic"`
	Compression  string `toml:"compression" json:"compression"`
	AckType      string `toml:"ack_type" json:"ack_type"`
	FlushTime    string `toml:"flush_time" json:"flush_time"`
	MaxRetry     int    `toml:"max_retry" json:"max_retry"`
	SASLUsername string `toml:"sasl_username" json:"sasl_username,omitempty"`
	SASLPassword string `toml:"sasl_password" json:"sasl_password,omitempty"`
}

// fill in anything not set
func (c *KafkaConfig) SetDefaults() {
	if c.Topic == "" {
		c.Topic = DEFAULT_KAFKA_TOPIC
	}
	if c.Compression == "" {
		c.Compression = DEFAULT_KAFKA_COMPRESSION
	}
	if c.AckType == "" {
		c.AckType = DEFAULT_KAFKA_ACK
	}
	if c.FlushTime == "" {
		c.FlushTime = DEFAULT_KAFKA_FLUSH
	}
	if c.MaxRetry <= 0 {
		c.MaxRetry = DEFAULT_KAFKA_RETRY
	}
}

// SaramaConfig maps our toml options onto a sarama producer config.
func (c *KafkaConfig) SaramaConfig() (*sarama.Config, error) {
	if len(c.DSN) == 0 {
		return nil, ErrNoKafkaDSN
	}
	c.SetDefaults()

	dur, err := time.ParseDuration(c.FlushTime)
	if err != nil {
		return nil, fmt.Errorf("Invalid Kafka Flush time: %v", err)
	}

	config := sarama.NewConfig()
	config.Producer.Retry.Max = c.MaxRetry
	config.Producer.Return.Successes = true

	switch c.AckType {
	case "all":
		config.Producer.RequiredAcks = sarama.WaitForAll // all in-sync replicas ack
	default:
		config.Producer.RequiredAcks = sarama.WaitForLocal
	}

	switch c.Compression {
	case "snappy":
		config.Producer.Compression = sarama.CompressionSnappy
	case "gzip":
		config.Producer.Compression = sarama.CompressionGZIP
	default:
		config.Producer.Compression = sarama.CompressionNone
	}

	config.Producer.Flush.Frequency = dur

	if len(c.SASLUsername) > 0 {
		config.Net.SASL.Enable = true
		config.Net.SASL.Mechanism = sarama.SASLTypePlaintext
		config.Net.SASL.User = c.SASLUsername
		config.Net.SASL.Password = c.SASLPassword
		config.Net.TLS.Enable = true // SASL_SSL
	}
	return config, nil
}

func (c *KafkaConfig) Brokers() []string {
	return strings.Split(c.DSN, ",")
}

/****************** Writer *********************/

type KafkaWriter struct {
	conn  sarama.AsyncProducer
	topic string

	SentCount stats.StatCount
	FailCount stats.StatCount

	log *logging.Logger
}

func NewKafkaWriter(conf *KafkaConfig) (*KafkaWriter, error) {
	kf := new(KafkaWriter)
	kf.log = logging.MustGetLogger("writers.kafka")

	config, err := conf.SaramaConfig()
	if err != nil {
		return nil, err
	}
	kf.topic = conf.Topic
	kf.SentCount = stats.NewStatCount("writer.kafka.sent")
	kf.FailCount = stats.NewStatCount("writer.kafka.failed")

	brokerList := conf.Brokers()
	kf.log.Notice("Connecting async kafka producer: %s (topic: %s)", brokerList, kf.topic)
	producer, err := sarama.NewAsyncProducer(brokerList, config)
	if err != nil {
		return nil, fmt.Errorf("Failed to start Kafka producer: %v", err)
	}

	// delivery reports: messages only land on Errors() once all retry
	// attempts are exhausted
	go func() {
		for err := range producer.Errors() {
			kf.FailCount.Up(1)
			stats.StatsdClient.Incr("writer.kafka.write-failures", 1)
			kf.log.Error("Message delivery failed: %v", err)
		}
	}()

	go func() {
		for ret := range producer.Successes() {
			kf.SentCount.Up(1)
			stats.StatsdClient.Incr(fmt.Sprintf("writer.kafka.%s.write-success", ret.Topic), 1)
			kf.log.Debug("Message delivered to %s: partition %d offset %d", ret.Topic, ret.Partition, ret.Offset)
		}
	}()
	kf.conn = producer
	return kf, nil
}

// Publish hands a line to the async producer.  blocks only if the
// producer's own buffers are full.
func (kf *KafkaWriter) Publish(line string) {
	kf.conn.Input() <- &sarama.ProducerMessage{
		Topic: kf.topic,
		Value: sarama.StringEncoder(line),
	}
}

// Stop flushes whatever is in flight and shuts the producer down.
func (kf *KafkaWriter) Stop() error {
	return kf.conn.Close()
}
