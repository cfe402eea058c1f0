// Command wavedma-monitor reads telemetry frames from a wavedma board and
// serves the counters over HTTP.
package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/knadh/koanf"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"golang.org/x/sync/errgroup"

	yml "gopkg.in/yaml.v2"

	"wavedma/host/mcu"
	"wavedma/host/monitor"
	"wavedma/host/serial"
	"wavedma/protocol"
)

var (
	// Version is the version number.  Typically injected via ldflags with git build
	Version = protocol.Version

	// ConfigFileName is what it sounds like
	ConfigFileName = "wavedma-monitor.yml"
	k              = koanf.New(".")
)

// Config is the monitor configuration.
type Config struct {
	Addr   string        `koanf:"addr" yaml:"addr"`
	Serial serial.Config `koanf:"serial" yaml:"serial"`

	// OpenTimeout bounds the retries while the serial device is missing.
	OpenTimeout time.Duration `koanf:"open_timeout" yaml:"open_timeout"`

	// StaleAfter fails /health when no report arrived for this long.
	StaleAfter time.Duration `koanf:"stale_after" yaml:"stale_after"`

	// LogInterval is the minimum time between progress lines on the console.
	LogInterval time.Duration `koanf:"log_interval" yaml:"log_interval"`

	EventHistory int `koanf:"event_history" yaml:"event_history"`
}

func setupconfig() {
	k.Load(structs.Provider(Config{
		Addr:         ":8000",
		Serial:       *serial.DefaultConfig("/dev/ttyACM0"),
		OpenTimeout:  30 * time.Second,
		StaleAfter:   10 * time.Second,
		LogInterval:  5 * time.Second,
		EventHistory: mcu.DefaultEventHistory}, "koanf"), nil)
	if err := k.Load(file.Provider(ConfigFileName), yaml.Parser()); err != nil {
		errtxt := err.Error()
		if !strings.Contains(errtxt, "no such") { // file missing, who cares
			log.Fatalf("error loading config: %v", err)
		}
	}
}

func root() {
	str := `wavedma-monitor reads the telemetry stream of a wavedma board and exposes the
transfer counters over HTTP.

Usage:
	wavedma-monitor <command>

Commands:
	run
	help
	mkconf
	conf
	version`
	fmt.Println(str)
}

func help() {
	str := `wavedma-monitor is amenable to configuration via its .yml file.  For a primer on YAML, see
https://yaml.org/start.html

The firmware must be built with telemetry on:
	tinygo build -target=targets/tm4c123/tm4c123.json -ldflags "-X main.telemetry=on" ./targets/tm4c123

Endpoints:
	GET /counters   latest transfers, dma_errors, bad_interrupts, wakeups
	GET /identity   firmware version, channel and buffer size
	GET /events     forwarded firmware events, ?limit=N for the newest N
	GET /link       frame, CRC error, dropped frame and resync counts
	GET /health     200 while reports arrive and no fault is counted`
	fmt.Println(str)
}

func loadconf() Config {
	c := Config{}
	if err := k.Unmarshal("", &c); err != nil {
		log.Fatal(err)
	}
	return c
}

func mkconf() {
	c := loadconf()
	f, err := os.Create(ConfigFileName)
	if err != nil {
		log.Fatal(err)
	}
	defer f.Close()
	err = yml.NewEncoder(f).Encode(c)
	if err != nil {
		log.Fatal(err)
	}
}

func printconf() {
	c := loadconf()
	err := yml.NewEncoder(os.Stdout).Encode(c)
	if err != nil {
		log.Fatal(err)
	}
}

func pversion() {
	fmt.Printf("wavedma-monitor version %v\n", Version)
}

func run() {
	c := loadconf()

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	board := mcu.NewMCU()
	board.SetEventHistory(c.EventHistory)
	console := monitor.NewConsoleLogger(log.Default(), c.LogInterval)
	board.OnReport(console.Report)
	board.OnEvent(console.Event)

	log.Println("opening", c.Serial.Device)
	if err := board.Connect(ctx, &c.Serial, c.OpenTimeout); err != nil {
		log.Fatal(err)
	}
	defer board.Close()

	r := chi.NewRouter()
	r.Use(middleware.Logger)
	monitor.NewHTTPMonitor(board, c.StaleAfter).Bind(r)
	srv := &http.Server{Addr: c.Addr, Handler: r}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		err := board.Run(gctx)
		if gctx.Err() != nil {
			return nil
		}
		return err
	})
	g.Go(func() error {
		log.Println("now listening for requests at ", c.Addr)
		if err := srv.ListenAndServe(); err != http.ErrServerClosed {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdown, done := context.WithTimeout(context.Background(), 2*time.Second)
		defer done()
		board.Close()
		return srv.Shutdown(shutdown)
	})

	if err := g.Wait(); err != nil && err != context.Canceled {
		log.Fatal(err)
	}
}

func main() {
	var cmd string
	args := os.Args
	if len(args) == 1 {
		root()
		return
	}
	setupconfig()
	cmd = args[1]
	cmd = strings.ToLower(cmd)
	switch cmd {
	case "help":
		help()
		return
	case "mkconf":
		mkconf()
		return
	case "conf":
		printconf()
		return
	case "run":
		run()
		return
	case "version":
		pversion()
		return
	default:
		log.Fatal("unknown command")
	}
}
