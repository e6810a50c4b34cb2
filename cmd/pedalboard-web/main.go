// ABOUTME: Entry point for the headless pedalboard web host
// ABOUTME: Parses CLI flags and serves a playing board over WebSocket
package main

import (
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/Resonate-Protocol/pedalboard-go/internal/webhost"
	"github.com/Resonate-Protocol/pedalboard-go/pkg/board"
	"github.com/Resonate-Protocol/pedalboard-go/pkg/pedal"
)

var (
	port      = flag.Int("port", webhost.DefaultPort, "WebSocket server port")
	name      = flag.String("name", "", "Board friendly name (default: hostname-pedalboard)")
	logFile   = flag.String("log-file", "pedalboard-web.log", "Log file path")
	debug     = flag.Bool("debug", false, "Enable debug logging")
	noMDNS    = flag.Bool("no-mdns", false, "Disable mDNS advertisement")
	audioFile = flag.String("audio", "", "Audio file to play (MP3, FLAC, WAV). If not specified, plays test tone")
	output    = flag.String("output", "oto", "Audio output backend (oto, portaudio, null)")
)

func main() {
	flag.Parse()

	f, err := os.OpenFile(*logFile, os.O_RDWR|os.O_CREATE|os.O_APPEND, 0666)
	if err != nil {
		log.Fatalf("error opening log file: %v", err)
	}
	defer f.Close()

	log.SetOutput(io.MultiWriter(os.Stdout, f))

	boardName := *name
	if boardName == "" {
		hostname, err := os.Hostname()
		if err != nil {
			hostname = "unknown"
		}
		boardName = fmt.Sprintf("%s-pedalboard", hostname)
	}

	log.Printf("Starting pedalboard web host: %s on port %d", boardName, *port)
	if *debug {
		log.Printf("Debug logging enabled")
	}
	log.Printf("Logging to: %s", *logFile)
	log.Printf("Press Ctrl-C to stop")

	// the server is both the board's host and its remote control
	var srv *webhost.Server
	hosts := &pedal.Hosts{pedal.LogHost{}}
	b, err := board.New(board.Config{
		AudioFile: *audioFile,
		Host:      hosts,
		Loop:      true,
		Output:    *output,
		Pace:      *output == "null",
		Debug:     *debug,
		OnStateChange: func(s board.State) {
			srv.SetState(s.String())
		},
	})
	if err != nil {
		log.Fatalf("Failed to create board: %v", err)
	}
	srv = webhost.New(webhost.Config{
		Port:       *port,
		Name:       boardName,
		EnableMDNS: !*noMDNS,
		Debug:      *debug,
	}, b)
	*hosts = append(*hosts, srv)

	if err := b.Init(); err != nil {
		log.Fatalf("Failed to initialize board: %v", err)
	}
	srv.SetMetadata(b.Metadata())

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		sig := <-sigChan
		log.Printf("Received %v signal, shutting down gracefully...", sig)
		srv.Stop()
	}()

	if err := srv.Start(); err != nil {
		log.Printf("Server error: %v", err)
	}

	if err := b.Close(); err != nil {
		log.Printf("Error closing board: %v", err)
	}
	log.Printf("Server stopped")
}
