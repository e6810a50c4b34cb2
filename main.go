// ABOUTME: Entry point for the pedalboard
// ABOUTME: Parses CLI flags, builds the board and runs the chosen control surface
package main

import (
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/Resonate-Protocol/pedalboard-go/internal/client"
	"github.com/Resonate-Protocol/pedalboard-go/internal/discovery"
	"github.com/Resonate-Protocol/pedalboard-go/internal/repl"
	"github.com/Resonate-Protocol/pedalboard-go/internal/ui"
	"github.com/Resonate-Protocol/pedalboard-go/internal/version"
	"github.com/Resonate-Protocol/pedalboard-go/internal/webhost"
	"github.com/Resonate-Protocol/pedalboard-go/pkg/audio/output"
	"github.com/Resonate-Protocol/pedalboard-go/pkg/board"
	"github.com/Resonate-Protocol/pedalboard-go/pkg/engine"
	"github.com/Resonate-Protocol/pedalboard-go/pkg/pedal"
	tea "github.com/charmbracelet/bubbletea"
)

const defaultAudioFile = "audio/samples/sample.mp3"

var (
	audioFile   = flag.String("audio", defaultAudioFile, "Audio file to play (MP3, FLAC, WAV); empty plays a test tone")
	loop        = flag.Bool("loop", false, "Restart the audio file when it ends")
	outputName  = flag.String("output", "oto", "Audio output backend (oto, portaudio, null)")
	record      = flag.String("record", "", "Write the processed audio to a .opus or .pcm file instead of playing it")
	blockFrames = flag.Int("block", engine.DefaultBlockFrames, "Frames per processing block")
	listen      = flag.Int("listen", 0, "Serve the board over WebSocket on this port (0 disables)")
	name        = flag.String("name", "", "Board friendly name (default: hostname-pedalboard)")
	noMDNS      = flag.Bool("no-mdns", false, "Do not advertise the web host via mDNS")
	discover    = flag.Bool("discover", false, "List pedalboards on the local network and exit")
	connect     = flag.String("connect", "", "Control a remote pedalboard at this WebSocket URL instead of playing locally")
	paused      = flag.Bool("paused", false, "Do not start playing after startup")
	logFile     = flag.String("log-file", "pedalboard.log", "Log file path")
	noTUI       = flag.Bool("no-tui", false, "Disable TUI, use streaming logs instead")
	useREPL     = flag.Bool("repl", false, "Use the command shell instead of the TUI")
	debug       = flag.Bool("debug", false, "Enable debug logging")
	showVersion = flag.Bool("version", false, "Print version and exit")
)

// statusHost is a presentation host that also shows board state and track info
type statusHost interface {
	SetState(state string)
	SetMetadata(title, artist, album string)
}

func main() {
	flag.Parse()

	if *showVersion {
		fmt.Printf("%s %s (%s)\n", version.Product, version.Version, version.Manufacturer)
		return
	}

	useTUI := !*noTUI && !*useREPL

	f, err := os.OpenFile(*logFile, os.O_RDWR|os.O_CREATE|os.O_APPEND, 0666)
	if err != nil {
		log.Fatalf("error opening log file: %v", err)
	}
	defer func() { _ = f.Close() }()

	if useTUI || *useREPL {
		log.SetOutput(f)
	} else {
		log.SetOutput(io.MultiWriter(os.Stdout, f))
	}

	if *discover {
		runDiscovery()
		return
	}

	if *connect != "" {
		runRemote(*connect)
		return
	}

	boardName := *name
	if boardName == "" {
		hostname, err := os.Hostname()
		if err != nil {
			hostname = "unknown"
		}
		boardName = fmt.Sprintf("%s-pedalboard", hostname)
	}

	file := *audioFile
	if file == defaultAudioFile {
		if _, err := os.Stat(file); os.IsNotExist(err) {
			log.Printf("Default asset %s not found, using test tone", file)
			file = ""
		}
	}

	hosts := &pedal.Hosts{}
	var status []statusHost

	stopped := make(chan struct{}, 1)
	config := board.Config{
		AudioFile:   file,
		Loop:        *loop,
		Output:      *outputName,
		BlockFrames: *blockFrames,
		Pace:        *outputName == "null",
		Host:        hosts,
		Debug:       *debug,
		OnStop: func(err error) {
			select {
			case stopped <- struct{}{}:
			default:
			}
		},
		OnStateChange: func(s board.State) {
			for _, h := range status {
				h.SetState(s.String())
			}
		},
	}

	if *record != "" {
		rec, closeRecord, err := openRecorder(*record)
		if err != nil {
			log.Fatalf("Failed to open recording: %v", err)
		}
		defer closeRecord()
		config.OpenOutput = func() (output.Output, error) { return rec, nil }
		config.Pace = false
		log.Printf("Recording to %s", *record)
	}

	b, err := board.New(config)
	if err != nil {
		log.Fatalf("Failed to create board: %v", err)
	}

	var tuiDone chan struct{}
	if useTUI {
		prog, err := ui.Run(b)
		if err != nil {
			log.Fatalf("Failed to start TUI: %v", err)
		}
		tuiDone = make(chan struct{})
		go func() {
			defer close(tuiDone)
			if _, err := prog.Run(); err != nil {
				log.Printf("TUI error: %v", err)
			}
		}()
		tuiHost := ui.NewHost(prog)
		*hosts = append(*hosts, tuiHost)
		status = append(status, tuiHost)
	} else {
		*hosts = append(*hosts, pedal.LogHost{})
	}

	var web *webhost.Server
	if *listen > 0 {
		web = webhost.New(webhost.Config{
			Port:       *listen,
			Name:       boardName,
			EnableMDNS: !*noMDNS,
			Debug:      *debug,
		}, b)
		*hosts = append(*hosts, web)
		status = append(status, web)
		go func() {
			if err := web.Start(); err != nil {
				log.Printf("Web host error: %v", err)
			}
		}()
	}

	log.Printf("Starting %s %s: %s", version.Product, version.Version, boardName)

	if err := b.Init(); err != nil {
		log.Fatalf("Failed to initialize board: %v", err)
	}

	title, artist, album := b.Metadata()
	for _, h := range status {
		h.SetMetadata(title, artist, album)
	}
	log.Printf("Playing: %s - %s (%s)", artist, title, album)

	if !*paused {
		if err := b.Play(); err != nil {
			log.Fatalf("Failed to play: %v", err)
		}
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	switch {
	case *useREPL:
		go func() {
			<-sigChan
			log.Printf("Shutdown signal received")
			_ = b.Close()
			os.Exit(0)
		}()
		if err := repl.Run(b); err != nil {
			log.Printf("Shell error: %v", err)
		}
	case useTUI:
		select {
		case <-tuiDone:
			log.Printf("TUI exited")
		case <-sigChan:
			log.Printf("Shutdown signal received")
		}
	default:
		// headless: a bounce ends with the stream, a web-controlled board runs until a signal
		var endOfStream <-chan struct{}
		if web == nil {
			endOfStream = stopped
		}
		select {
		case <-endOfStream:
			log.Printf("End of stream")
		case <-sigChan:
			log.Printf("Shutdown signal received")
		}
	}

	if web != nil {
		web.Stop()
	}
	if err := b.Close(); err != nil {
		log.Printf("Error closing board: %v", err)
	}
	log.Printf("Pedalboard stopped")
}

// openRecorder creates the output file and a recorder for its extension
func openRecorder(path string) (output.Output, func(), error) {
	codec := strings.TrimPrefix(strings.ToLower(filepath.Ext(path)), ".")
	if codec != "opus" && codec != "pcm" {
		return nil, nil, fmt.Errorf("unsupported recording format: %s (supported: .opus, .pcm)", path)
	}

	f, err := os.Create(path)
	if err != nil {
		return nil, nil, err
	}
	closeFile := func() {
		if err := f.Close(); err != nil {
			log.Printf("Error closing recording: %v", err)
		}
	}
	return output.NewRecorder(f, codec, 16), closeFile, nil
}

// runRemote drives a remote board from the TUI until the user quits or the connection drops
func runRemote(url string) {
	// the TUI drives the client and the client feeds the TUI
	hosts := &pedal.Hosts{}
	var tuiHost *ui.Host
	var prog *tea.Program

	remote := client.NewClient(client.Config{
		URL:  url,
		Host: hosts,
		OnState: func(state string) {
			tuiHost.SetState(state)
		},
		OnMetadata: func(title, artist, album string) {
			tuiHost.SetMetadata(title, artist, album)
		},
		OnError: func(code, message string) {
			prog.Send(ui.ErrMsg{Err: fmt.Errorf("%s: %s", code, message)})
		},
		Debug: *debug,
	})

	prog, err := ui.Run(remote)
	if err != nil {
		log.Fatalf("Failed to start TUI: %v", err)
	}
	tuiHost = ui.NewHost(prog)
	*hosts = append(*hosts, tuiHost)

	tuiDone := make(chan struct{})
	go func() {
		defer close(tuiDone)
		if _, err := prog.Run(); err != nil {
			log.Printf("TUI error: %v", err)
		}
	}()

	if err := remote.Connect(); err != nil {
		prog.Quit()
		<-tuiDone
		log.Fatalf("Failed to connect: %v", err)
	}
	defer remote.Close()

	select {
	case <-tuiDone:
		log.Printf("TUI exited")
	case <-remote.Done():
		log.Printf("Connection to %s lost", url)
		prog.Quit()
		<-tuiDone
	}
}

// runDiscovery prints the pedalboards found on the local network
func runDiscovery() {
	disc := discovery.NewManager(discovery.Config{})
	if err := disc.Browse(); err != nil {
		log.Fatalf("Failed to browse: %v", err)
	}

	fmt.Println("Searching for pedalboards...")
	seen := make(map[string]bool)
	timeout := time.After(5 * time.Second)
	for {
		select {
		case info, ok := <-disc.Boards():
			if !ok {
				return
			}
			if seen[info.URL()] {
				continue
			}
			seen[info.URL()] = true
			fmt.Printf("  %s  %s\n", info.Name, info.URL())
		case <-timeout:
			disc.Stop()
			if len(seen) == 0 {
				fmt.Println("No pedalboards found")
			}
			return
		}
	}
}
