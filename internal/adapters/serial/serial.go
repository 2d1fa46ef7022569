// Package serial adapts go.bug.st/serial ports to the transfer channel
// interfaces.
package serial

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"go.bug.st/serial"

	"github.com/bft-labs/imgship/pkg/log"
	"github.com/bft-labs/imgship/pkg/transfer"
)

// DefaultBaud is the rate the bootloaders' mini UART is configured for.
const DefaultBaud = 115200

// Opener opens a serial device in 8N1 mode.
type Opener struct {
	Device string
	Baud   int
	Logger log.Logger

	// open is replaced in tests.
	open func(name string, mode *serial.Mode) (serial.Port, error)
}

// NewOpener creates an opener for device at baud.
func NewOpener(device string, baud int, logger log.Logger) *Opener {
	if logger == nil {
		logger = log.NewNoopLogger()
	}
	return &Opener{Device: device, Baud: baud, Logger: logger, open: serial.Open}
}

// Open implements transfer.Opener.
func (o *Opener) Open(ctx context.Context) (transfer.Port, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if o.Device == "" {
		return nil, errors.New("no serial device configured")
	}
	baud := o.Baud
	if baud <= 0 {
		baud = DefaultBaud
	}
	open := o.open
	if open == nil {
		open = serial.Open
	}

	mode := &serial.Mode{
		BaudRate: baud,
		DataBits: 8,
		Parity:   serial.NoParity,
		StopBits: serial.OneStopBit,
	}
	p, err := open(o.Device, mode)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", o.Device, describe(err))
	}

	logger := o.Logger
	if logger == nil {
		logger = log.NewNoopLogger()
	}
	logger.Debug("serial port opened", log.String("device", o.Device), log.Int("baud", baud))
	return &Port{port: p, device: o.Device, logger: logger}, nil
}

func describe(err error) error {
	var perr *serial.PortError
	if !errors.As(err, &perr) {
		return err
	}
	switch perr.Code() {
	case serial.PortNotFound:
		return fmt.Errorf("port not found: %w", err)
	case serial.PortBusy:
		return fmt.Errorf("port busy: %w", err)
	case serial.PermissionDenied:
		return fmt.Errorf("permission denied: %w", err)
	default:
		return err
	}
}

// Port is an open serial device.
//
// Flush blocks until the OS transmit buffer is empty. Writable never blocks:
// it starts a drain in the background and reports true once it completes.
type Port struct {
	port   serial.Port
	device string
	logger log.Logger

	mu       sync.Mutex
	pending  bool
	draining chan struct{}
	drainErr error
}

// Write implements io.Writer.
func (p *Port) Write(b []byte) (int, error) {
	p.mu.Lock()
	p.pending = true
	p.mu.Unlock()
	return p.port.Write(b)
}

// Flush waits until every written byte has left the transmit buffer.
func (p *Port) Flush() error {
	p.mu.Lock()
	inflight := p.draining
	p.mu.Unlock()
	if inflight != nil {
		<-inflight
	}

	if err := p.port.Drain(); err != nil {
		return fmt.Errorf("drain %s: %w", p.device, err)
	}
	p.mu.Lock()
	p.pending = false
	p.draining = nil
	p.drainErr = nil
	p.mu.Unlock()
	return nil
}

// Writable implements transfer.WritableChecker.
func (p *Port) Writable() (bool, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.pending {
		return true, nil
	}
	if p.draining == nil {
		done := make(chan struct{})
		p.draining = done
		go p.drain(done)
		return false, nil
	}

	select {
	case <-p.draining:
		err := p.drainErr
		p.draining = nil
		p.drainErr = nil
		if err != nil {
			return false, fmt.Errorf("drain %s: %w", p.device, err)
		}
		p.pending = false
		return true, nil
	default:
		return false, nil
	}
}

func (p *Port) drain(done chan struct{}) {
	err := p.port.Drain()
	p.mu.Lock()
	p.drainErr = err
	p.mu.Unlock()
	close(done)
}

// Close releases the device.
func (p *Port) Close() error {
	p.mu.Lock()
	inflight := p.draining
	p.mu.Unlock()
	if inflight != nil {
		<-inflight
	}
	p.logger.Debug("serial port closed", log.String("device", p.device))
	return p.port.Close()
}

// ListPorts returns the serial ports present on the host.
func ListPorts() ([]string, error) {
	ports, err := serial.GetPortsList()
	if err != nil {
		return nil, fmt.Errorf("list serial ports: %w", err)
	}
	return ports, nil
}
