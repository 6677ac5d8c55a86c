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

package main

// a little "blaster of logs" to feed the shipper in dev: listens on a TCP
// port and streams newline delimited fake windows-ish event JSON at every
// client that connects

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"math/rand"
	"net"
	"time"
)

var eventIds = []int{4624, 4625, 4634, 4648, 4672, 4720, 4740}
var levels = []string{"Information", "Warning", "Error", "Critical"}
var sources = []string{"Security", "System", "Application"}
var computers = []string{"SERVER1", "SERVER2", "WORKSTATION7", "DC01"}
var users = []string{"ADMIN", "SYSTEM", "jdoe", "svc_backup"}

type logEvent struct {
	EventId   int    `json:"eventId"`
	Level     string `json:"level"`
	Source    string `json:"source"`
	Timestamp string `json:"timestamp"`
	Computer  string `json:"computer"`
	User      string `json:"user"`
	Message   string `json:"message"`
}

func randItem(strs []string) string {
	return strs[rand.Intn(len(strs))]
}

func makeEvent() *logEvent {
	eid := eventIds[rand.Intn(len(eventIds))]
	src := randItem(sources)
	return &logEvent{
		EventId:   eid,
		Level:     randItem(levels),
		Source:    src,
		Timestamp: time.Now().Format("2006-01-02 15:04:05.000"),
		Computer:  randItem(computers),
		User:      randItem(users),
		Message:   fmt.Sprintf("Simulated Windows event: %s %d", src, eid),
	}
}

func blast(conn net.Conn, rate time.Duration) {
	defer conn.Close()
	log.Printf("client connected: %s", conn.RemoteAddr())
	tick := time.NewTicker(rate)
	defer tick.Stop()
	for range tick.C {
		bits, err := json.Marshal(makeEvent())
		if err != nil {
			continue
		}
		bits = append(bits, '\n')
		if _, err := conn.Write(bits); err != nil {
			log.Printf("client gone: %s (%v)", conn.RemoteAddr(), err)
			return
		}
	}
}

func main() {
	listen := flag.String("listen", "127.0.0.1:9999", "tcp address to serve logs on")
	rate := flag.String("rate", "10ms", "delay between emitted lines per client")
	flag.Parse()

	dur, err := time.ParseDuration(*rate)
	if err != nil {
		log.Fatalf("bad -rate: %v", err)
	}

	ln, err := net.Listen("tcp", *listen)
	if err != nil {
		log.Fatalf("cannot listen on %s: %v", *listen, err)
	}
	log.Printf("blasting fake event logs on %s every %v", *listen, dur)

	for {
		conn, err := ln.Accept()
		if err != nil {
			log.Fatalf("accept: %v", err)
		}
		go blast(conn, dur)
	}
}
