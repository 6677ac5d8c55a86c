package main

import (
	"flag"
	"fmt"
	"io/ioutil"
	"os"
	"os/signal"
	"runtime"
	"strconv"
	"strings"
	"syscall"

	logship "github.com/vikramaditya-tatke/logship/server"
	"github.com/vikramaditya-tatke/logship/server/utils/shutdown"
	logging "gopkg.in/op/go-logging.v1"
)

// compile passing -ldflags "-X main.LogshipBuild <build sha1>"
var LogshipBuild string

var log = logging.MustGetLogger("main")

func logInit() {
	var format = "%{color}%{time:2006-01-02 15:04:05.000} [%{module}] ▶ %{level:.4s} %{color:reset} %{message}"
	logBackend := logging.NewLogBackend(os.Stderr, "", 0)
	logging.SetFormatter(logging.MustStringFormatter(format))
	logging.SetBackend(logBackend)
}

func writePid(pidFile string) func() {
	contents, err := ioutil.ReadFile(pidFile)
	if err == nil {
		pid, err := strconv.Atoi(strings.TrimSpace(string(contents)))
		if err != nil {
			log.Critical("Error reading process id from pidfile '%s': %s", pidFile, err)
			os.Exit(1)
		}
		process, err := os.FindProcess(pid)
		if runtime.GOOS != "windows" && process != nil {
			// err is always nil on POSIX, so we have to send the process
			// a signal to check whether it exists
			if err = process.Signal(syscall.Signal(0)); err == nil {
				log.Critical("Process %d is already running.", pid)
				os.Exit(1)
			}
		}
	}
	if err := ioutil.WriteFile(pidFile, []byte(strconv.Itoa(os.Getpid())), 0644); err != nil {
		log.Critical("Unable to write pidfile '%s': %s", pidFile, err)
	}
	log.Info("Wrote pid to pidfile '%s'", pidFile)
	return func() {
		if err := os.Remove(pidFile); err != nil {
			log.Notice("Unable to remove pidfile '%s': %s", pidFile, err)
		}
	}
}

func main() {
	version := flag.Bool("version", false, "Print version and exit")
	configFile := flag.String("config", "logship.toml", "Log shipper configuration file")
	loglevel := flag.String("loglevel", "DEBUG", "Log Level (debug, info, warning, error, critical)")

	flag.Parse()

	if *version {
		fmt.Printf("logship version %s\n\n", LogshipBuild)
		os.Exit(0)
	}

	logInit()

	log.Info("logship version %s", LogshipBuild)

	switch strings.ToUpper(*loglevel) {
	case "DEBUG":
		logging.SetLevel(logging.DEBUG, "")
	case "INFO":
		logging.SetLevel(logging.INFO, "")
	case "WARNING":
		logging.SetLevel(logging.WARNING, "")
	case "ERROR":
		logging.SetLevel(logging.ERROR, "")
	case "CRITICAL":
		logging.SetLevel(logging.CRITICAL, "")
	}

	config, err := logship.ParseConfigFile(*configFile)
	if err != nil {
		log.Critical("Error decoding config file: %s", err)
		os.Exit(1)
	}

	if config.PIDfile != "" {
		rmPid := writePid(config.PIDfile)
		defer rmPid()
	}

	// initialize the statsd singleton
	logship.SetUpStatsdClient(config)

	pipe := logship.NewPipeline("main", config)
	if err := pipe.Start(); err != nil {
		log.Critical("Could not start pipeline: %s", err)
		os.Exit(1)
	}

	if len(config.HealthServerBind) != 0 {
		go logship.StartStatusServer(config.HealthServerBind, []*logship.Pipeline{pipe})
	}

	// trap kills to flush queues and close connections
	sc := make(chan os.Signal, 1)
	signal.Notify(sc,
		syscall.SIGINT,
		syscall.SIGTERM,
		syscall.SIGQUIT)

	s := <-sc
	log.Warning("Caught %s: closing pipeline out before quit", s)
	signal.Stop(sc)

	pipe.Stop()
	shutdown.WaitOnShutdown()
}
