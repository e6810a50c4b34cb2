// ABOUTME: Tests for the remote pedalboard client
// ABOUTME: Connects to a real web host served through httptest
package client

import (
	"fmt"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/Resonate-Protocol/pedalboard-go/internal/webhost"
	"github.com/Resonate-Protocol/pedalboard-go/pkg/pedal"
)

type fakeControl struct {
	mu    sync.Mutex
	calls []string
	err   error
}

func (f *fakeControl) record(call string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, call)
	return f.err
}

func (f *fakeControl) Play() error { return f.record("play") }
func (f *fakeControl) Stop() error { return f.record("stop") }

func (f *fakeControl) Set(effect, param string, value float64) error {
	return f.record(fmt.Sprintf("set %s %s %g", effect, param, value))
}

func (f *fakeControl) Engage(effect string, on bool) error {
	return f.record(fmt.Sprintf("engage %s %v", effect, on))
}

func (f *fakeControl) joined() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return strings.Join(f.calls, ",")
}

type recordingHost struct {
	mu      sync.Mutex
	mounted []pedal.Content
	updates []pedal.Content
}

func (h *recordingHost) Mount(c pedal.Content) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.mounted = append(h.mounted, c)
	return nil
}

func (h *recordingHost) Update(c pedal.Content) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.updates = append(h.updates, c)
}

func (h *recordingHost) counts() (int, int) {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.mounted), len(h.updates)
}

func startBoard(t *testing.T, control webhost.Control) (*webhost.Server, string) {
	t.Helper()
	s := webhost.New(webhost.Config{Name: "Remote Board"}, control)
	ts := httptest.NewServer(s.Handler())
	t.Cleanup(ts.Close)
	return s, "ws" + strings.TrimPrefix(ts.URL, "http") + "/pedalboard"
}

func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatalf("timed out waiting for %s", what)
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestNewClientDefaults(t *testing.T) {
	c := NewClient(Config{URL: "ws://localhost:8927/pedalboard"})
	if c.config.ClientID == "" {
		t.Error("expected generated client ID")
	}
	if c.config.Name == "" {
		t.Error("expected default name")
	}
	if c.config.Host == nil {
		t.Error("expected default host")
	}
	if c.IsConnected() {
		t.Error("expected new client to be disconnected")
	}
}

func TestConnectMirrorsBoard(t *testing.T) {
	server, url := startBoard(t, &fakeControl{})
	server.Mount(pedal.Content{ID: "vol-1", Kind: "volume", Title: "Volume", Switch: true})
	server.SetState("ready")
	server.SetMetadata("Song", "Band", "Record")

	host := &recordingHost{}
	var mu sync.Mutex
	var title string
	c := NewClient(Config{
		URL:  url,
		Host: host,
		OnMetadata: func(got, _, _ string) {
			mu.Lock()
			title = got
			mu.Unlock()
		},
	})
	if err := c.Connect(); err != nil {
		t.Fatal(err)
	}
	defer c.Close()

	if c.ServerName() != "Remote Board" {
		t.Errorf("expected server name Remote Board, got %q", c.ServerName())
	}

	waitFor(t, "mount", func() bool { m, _ := host.counts(); return m == 1 })
	waitFor(t, "state", func() bool { return c.State() == "ready" })
	waitFor(t, "metadata", func() bool { mu.Lock(); defer mu.Unlock(); return title == "Song" })

	server.Update(pedal.Content{ID: "vol-1", Kind: "volume", Title: "Volume", Switch: false})
	waitFor(t, "update", func() bool { _, u := host.counts(); return u == 1 })
}

func TestCommands(t *testing.T) {
	control := &fakeControl{}
	server, url := startBoard(t, control)

	c := NewClient(Config{URL: url, Host: &recordingHost{}})
	if err := c.Connect(); err != nil {
		t.Fatal(err)
	}
	defer c.Close()

	if err := c.Toggle(); err != nil {
		t.Fatal(err)
	}
	waitFor(t, "play", func() bool { return control.joined() == "play" })

	server.SetState("playing")
	waitFor(t, "playing state", func() bool { return c.State() == "playing" })

	c.Set("reverb", "level", 3)
	c.Engage("overdrive", false)
	c.Toggle()

	want := "play,set reverb level 3,engage overdrive false,stop"
	waitFor(t, want, func() bool { return control.joined() == want })
}

func TestCommandErrorsReported(t *testing.T) {
	control := &fakeControl{err: fmt.Errorf("no such pedal")}
	_, url := startBoard(t, control)

	codes := make(chan string, 1)
	c := NewClient(Config{
		URL:     url,
		Host:    &recordingHost{},
		OnError: func(code, _ string) { codes <- code },
	})
	if err := c.Connect(); err != nil {
		t.Fatal(err)
	}
	defer c.Close()

	c.Set("fuzz", "level", 1)

	select {
	case code := <-codes:
		if code != "command_failed" {
			t.Errorf("expected command_failed, got %s", code)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("expected an error report")
	}
}

func TestDuplicateClientRejected(t *testing.T) {
	_, url := startBoard(t, &fakeControl{})

	first := NewClient(Config{URL: url, ClientID: "same"})
	if err := first.Connect(); err != nil {
		t.Fatal(err)
	}
	defer first.Close()

	second := NewClient(Config{URL: url, ClientID: "same"})
	if err := second.Connect(); err == nil {
		second.Close()
		t.Fatal("expected duplicate client to be rejected")
	}
}

func TestCloseEndsConnection(t *testing.T) {
	_, url := startBoard(t, &fakeControl{})

	c := NewClient(Config{URL: url, Host: &recordingHost{}})
	if err := c.Connect(); err != nil {
		t.Fatal(err)
	}
	c.Close()

	select {
	case <-c.Done():
	case <-time.After(2 * time.Second):
		t.Fatal("expected Done to close")
	}
	if c.IsConnected() {
		t.Error("expected disconnected after Close")
	}
	if err := c.Play(); err == nil {
		t.Error("expected Play to fail after Close")
	}
}
