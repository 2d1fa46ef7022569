package imgship

import (
	"bytes"
	"context"
	"encoding/binary"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/bft-labs/imgship/pkg/header"
	"github.com/bft-labs/imgship/pkg/image"
	"github.com/bft-labs/imgship/pkg/metrics"
	"github.com/bft-labs/imgship/pkg/state"
	"github.com/bft-labs/imgship/pkg/transfer"
)

type memPort struct {
	mu     sync.Mutex
	buf    bytes.Buffer
	closed bool
}

func (p *memPort) Write(b []byte) (int, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.buf.Write(b)
}

func (p *memPort) Flush() error { return nil }

func (p *memPort) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.closed = true
	return nil
}

func (p *memPort) bytes() []byte {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]byte(nil), p.buf.Bytes()...)
}

type memOpener struct {
	mu    sync.Mutex
	ports []*memPort
	err   error
}

func (o *memOpener) Open(ctx context.Context) (transfer.Port, error) {
	if o.err != nil {
		return nil, o.err
	}
	p := &memPort{}
	o.mu.Lock()
	o.ports = append(o.ports, p)
	o.mu.Unlock()
	return p, nil
}

func (o *memOpener) opened() []*memPort {
	o.mu.Lock()
	defer o.mu.Unlock()
	return append([]*memPort(nil), o.ports...)
}

// recordingHandler collects shipper events.
type recordingHandler struct {
	NoopEventHandler
	mu        sync.Mutex
	states    []State
	completes int
	errs      []SessionErrorEvent
	done      chan struct{}
}

func newRecordingHandler() *recordingHandler {
	return &recordingHandler{done: make(chan struct{}, 16)}
}

func (h *recordingHandler) OnStateChange(e StateChangeEvent) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.states = append(h.states, e.Current)
}

func (h *recordingHandler) OnSessionComplete(SessionCompleteEvent) {
	h.mu.Lock()
	h.completes++
	h.mu.Unlock()
	h.done <- struct{}{}
}

func (h *recordingHandler) OnSessionError(e SessionErrorEvent) {
	h.mu.Lock()
	h.errs = append(h.errs, e)
	h.mu.Unlock()
	h.done <- struct{}{}
}

func (h *recordingHandler) wait(t *testing.T) {
	t.Helper()
	select {
	case <-h.done:
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for session")
	}
}

func writeImage(t *testing.T, size int) (string, []byte) {
	t.Helper()
	data := make([]byte, size)
	for i := range data {
		data[i] = byte(i * 7)
	}
	path := filepath.Join(t.TempDir(), "kernel8.img")
	if err := os.WriteFile(path, data, 0o600); err != nil {
		t.Fatal(err)
	}
	return path, data
}

func noSleep() Option {
	return WithEngineOptions(transfer.WithClock(time.Now, func(ctx context.Context, d time.Duration) error {
		return ctx.Err()
	}))
}

func TestNew_Defaults(t *testing.T) {
	s, err := New(Config{ImagePath: "kernel8.img", Device: "/dev/ttyUSB0"})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	cfg := s.Config()
	preset, _ := transfer.LookupPreset(transfer.DefaultPresetName)

	if cfg.Baud != DefaultBaud {
		t.Errorf("Baud = %d, want %d", cfg.Baud, DefaultBaud)
	}
	if cfg.Preset != transfer.DefaultPresetName {
		t.Errorf("Preset = %q", cfg.Preset)
	}
	if cfg.Format != preset.Format {
		t.Errorf("Format = %v, want %v", cfg.Format, preset.Format)
	}
	if cfg.Plan != preset.Plan {
		t.Errorf("Plan = %+v, want %+v", cfg.Plan, preset.Plan)
	}
	if s.Status() != StateStopped {
		t.Errorf("Status = %v, want Stopped", s.Status())
	}
}

func TestNew_ExplicitFormatKeepsPlanFromPreset(t *testing.T) {
	f := header.Format{Width: 4, Order: header.BigEndian, Framing: header.Bulk}
	s, err := New(Config{ImagePath: "x", Preset: "u32le-chunked", Format: f}, WithOpener(&memOpener{}))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	preset, _ := transfer.LookupPreset("u32le-chunked")
	if s.Config().Format != f {
		t.Errorf("Format = %v, want %v", s.Config().Format, f)
	}
	if s.Config().Plan != preset.Plan {
		t.Errorf("Plan = %+v", s.Config().Plan)
	}
}

func TestNew_Invalid(t *testing.T) {
	tests := []struct {
		name string
		cfg  Config
		opts []Option
	}{
		{"missing image", Config{Device: "/dev/ttyUSB0"}, nil},
		{"unknown preset", Config{ImagePath: "x", Device: "d", Preset: "nope"}, nil},
		{"missing device", Config{ImagePath: "x"}, nil},
		{"bad width", Config{ImagePath: "x", Format: header.Format{Width: 3}}, []Option{WithOpener(&memOpener{})}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(tt.cfg, tt.opts...)
			if !errors.Is(err, ErrInvalidConfig) {
				t.Errorf("New() error = %v, want ErrInvalidConfig", err)
			}
		})
	}
}

func TestSend(t *testing.T) {
	path, data := writeImage(t, 2500)
	stateDir := t.TempDir()
	metricsFile := filepath.Join(t.TempDir(), "imgship.prom")
	opener := &memOpener{}
	m := metrics.New()

	var events []transfer.Event
	s, err := New(Config{
		ImagePath:   path,
		Device:      "/dev/ttyFAKE0",
		Preset:      "u64le-chunked",
		StateDir:    stateDir,
		MetricsFile: metricsFile,
	},
		WithOpener(opener),
		WithMetrics(m),
		WithReporter(transfer.ReporterFunc(func(e transfer.Event) { events = append(events, e) })),
	)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	res, err := s.Send(context.Background())
	if err != nil {
		t.Fatalf("Send: %v", err)
	}
	if res.TotalBytes != 2500 || res.Units != 3 || res.HeaderBytes != 8 {
		t.Errorf("Result = %+v", res)
	}

	ports := opener.opened()
	if len(ports) != 1 || !ports[0].closed {
		t.Fatalf("expected one closed port, got %d", len(ports))
	}
	got := ports[0].bytes()
	if n := binary.LittleEndian.Uint64(got[:8]); n != 2500 {
		t.Errorf("header length = %d, want 2500", n)
	}
	if !bytes.Equal(got[8:], data) {
		t.Error("payload mismatch")
	}

	if len(events) != 3 || events[2] != (transfer.Event{BytesSent: 2500, TotalBytes: 2500}) {
		t.Errorf("events = %+v", events)
	}

	rec, err := state.NewFileRepository(stateDir).Load(context.Background())
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	img, _ := image.Load(path)
	if rec.Status != state.StatusComplete || rec.BytesSent != 2500 || rec.Digest != img.Digest.String() {
		t.Errorf("record = %+v", rec)
	}
	if rec.Header != "u64le/bytewise" || rec.Preset != "u64le-chunked" {
		t.Errorf("record header = %q preset = %q", rec.Header, rec.Preset)
	}
	if last := s.LastRecord(); last.Digest != rec.Digest || last.Status != rec.Status {
		t.Errorf("LastRecord = %+v", last)
	}
	if s.Err() != nil {
		t.Errorf("Err = %v", s.Err())
	}
	if _, err := os.Stat(metricsFile); err != nil {
		t.Errorf("metrics textfile: %v", err)
	}
}

func TestSend_ImageMissing(t *testing.T) {
	stateDir := t.TempDir()
	s, err := New(Config{ImagePath: filepath.Join(t.TempDir(), "missing.img"), StateDir: stateDir}, WithOpener(&memOpener{}))
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	_, err = s.Send(context.Background())
	if !errors.Is(err, image.ErrImageNotFound) {
		t.Fatalf("Send error = %v, want ErrImageNotFound", err)
	}
	if !errors.Is(s.Err(), image.ErrImageNotFound) {
		t.Errorf("Err = %v", s.Err())
	}
	rec, _ := state.NewFileRepository(stateDir).Load(context.Background())
	if rec.Status != state.StatusFailed {
		t.Errorf("Status = %q, want failed", rec.Status)
	}
}

func TestSend_OpenFailure(t *testing.T) {
	path, _ := writeImage(t, 10)
	cause := errors.New("port busy")
	h := newRecordingHandler()
	s, err := New(Config{ImagePath: path}, WithOpener(&memOpener{err: cause}), WithEventHandler(h))
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	_, err = s.Send(context.Background())
	if !errors.Is(err, transfer.ErrChannelUnavailable) || !errors.Is(err, cause) {
		t.Fatalf("Send error = %v", err)
	}
	if len(h.errs) != 1 || h.errs[0].Kind != transfer.KindChannelUnavailable || h.errs[0].BytesSent != 0 {
		t.Errorf("error events = %+v", h.errs)
	}
	if s.LastRecord().ErrorKind != "channel_unavailable" {
		t.Errorf("ErrorKind = %q", s.LastRecord().ErrorKind)
	}
}

type trackingPlugin struct {
	name     string
	order    *[]string
	mu       *sync.Mutex
	initErr  error
	trigger  func(string)
	shutdown bool
}

func (p *trackingPlugin) Name() string { return p.name }

func (p *trackingPlugin) Initialize(ctx context.Context, cfg PluginConfig) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	*p.order = append(*p.order, "init:"+p.name)
	p.trigger = cfg.Trigger
	return p.initErr
}

func (p *trackingPlugin) Shutdown(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	*p.order = append(*p.order, "shutdown:"+p.name)
	p.shutdown = true
	return nil
}

func TestStartStop(t *testing.T) {
	path, _ := writeImage(t, 100)
	opener := &memOpener{}
	h := newRecordingHandler()
	var order []string
	var mu sync.Mutex
	a := &trackingPlugin{name: "a", order: &order, mu: &mu}
	b := &trackingPlugin{name: "b", order: &order, mu: &mu}

	s, err := New(Config{ImagePath: path}, WithOpener(opener), WithEventHandler(h), WithPlugin(a), WithPlugin(b), noSleep())
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	if err := s.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if err := s.Start(context.Background()); !errors.Is(err, ErrAlreadyRunning) {
		t.Errorf("second Start = %v, want ErrAlreadyRunning", err)
	}
	h.wait(t)
	if s.Status() != StateRunning {
		t.Errorf("Status = %v, want Running", s.Status())
	}

	b.trigger("rebuilt")
	h.wait(t)
	if n := len(opener.opened()); n != 2 {
		t.Errorf("opened %d ports, want 2", n)
	}

	if err := s.Stop(); err != nil {
		t.Fatalf("Stop: %v", err)
	}
	if err := s.Stop(); !errors.Is(err, ErrNotRunning) {
		t.Errorf("second Stop = %v, want ErrNotRunning", err)
	}
	if s.Status() != StateStopped {
		t.Errorf("Status = %v, want Stopped", s.Status())
	}

	want := []string{"init:a", "init:b", "shutdown:b", "shutdown:a"}
	mu.Lock()
	defer mu.Unlock()
	if len(order) != len(want) {
		t.Fatalf("order = %v, want %v", order, want)
	}
	for i := range want {
		if order[i] != want[i] {
			t.Errorf("order[%d] = %q, want %q", i, order[i], want[i])
		}
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	wantStates := []State{StateStarting, StateRunning, StateStopping, StateStopped}
	if len(h.states) != len(wantStates) {
		t.Fatalf("states = %v, want %v", h.states, wantStates)
	}
}

func TestStart_PluginInitFailure(t *testing.T) {
	var order []string
	var mu sync.Mutex
	a := &trackingPlugin{name: "a", order: &order, mu: &mu}
	b := &trackingPlugin{name: "b", order: &order, mu: &mu, initErr: errors.New("boom")}

	s, err := New(Config{ImagePath: "x"}, WithOpener(&memOpener{}), WithPlugin(a), WithPlugin(b))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if err := s.Start(context.Background()); err == nil {
		t.Fatal("expected Start error")
	}
	if s.Status() != StateCrashed {
		t.Errorf("Status = %v, want Crashed", s.Status())
	}
	if !a.shutdown {
		t.Error("initialized plugin a was not shut down")
	}
}

func TestIsVersionCompatible(t *testing.T) {
	tests := []struct {
		version, min string
		want         bool
	}{
		{"1.0.0", "1.0.0", true},
		{"1.2.0", "1.1.9", true},
		{"2.0.0", "1.9.9", true},
		{"1.0.0", "1.0.1", false},
		{"1.0.0", "2.0.0", false},
	}
	for _, tt := range tests {
		if got := isVersionCompatible(tt.version, tt.min); got != tt.want {
			t.Errorf("isVersionCompatible(%q, %q) = %v, want %v", tt.version, tt.min, got, tt.want)
		}
	}
	if err := validateModuleVersions(); err != nil {
		t.Errorf("validateModuleVersions: %v", err)
	}
	if ModuleVersions()["imgship"] != Version {
		t.Error("ModuleVersions missing imgship")
	}
}
