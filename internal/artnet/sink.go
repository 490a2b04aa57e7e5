package artnet

import (
	"context"
	"sync"

	"github.com/openlux/dmxbridge/internal/universe"
)

// DefaultKeepaliveFrames is how many unchanged frames are skipped before
// the universe is retransmitted anyway, so nodes that time out on silence
// keep their output. 160 frames at the default 25ms period is 4 seconds.
const DefaultKeepaliveFrames = 160

// Sender transmits one encoded packet. Implemented by Controller.
type Sender interface {
	Send(b []byte) error
}

// Logger is the logging interface used by the sink.
type Logger interface {
	Debug(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}

// Config addresses one output universe.
type Config struct {
	// Channels is the number of DMX channels, in (0, 512].
	Channels int

	// Net, Subnet and Universe select the Art-Net port address.
	Net      uint8
	Subnet   uint8
	Universe uint8

	// KeepaliveFrames is how many unchanged frames to skip before
	// retransmitting. Zero uses DefaultKeepaliveFrames.
	KeepaliveFrames int

	// DisableSend builds and sequences packets without transmitting,
	// for dry runs against hardware that is not present.
	DisableSend bool

	// Logger is optional.
	Logger Logger
}

// Sink bridges the scheduling engine to the network.
//
// SendFrame is called from the engine's tick loop and must not block, so
// frames land in a one-deep mailbox and a dedicated goroutine does the
// comparison and socket work. When the mailbox is occupied the frame is
// refused; only the latest universe state matters, so the next tick's
// frame carries everything the refused one did.
type Sink struct {
	sender Sender
	packet *packet

	mailbox chan universe.Frame

	// Owned by the run goroutine.
	last      []uint8
	unchanged int
	keepalive int

	disableSend bool

	done     chan struct{}
	wg       sync.WaitGroup
	stopOnce sync.Once

	logger Logger
}

// NewSink creates a sink for one universe. sender may be nil only when
// cfg.DisableSend is set.
func NewSink(sender Sender, cfg Config) (*Sink, error) {
	if sender == nil && !cfg.DisableSend {
		return nil, ErrNoController
	}

	p, err := newPacket(cfg.Channels, cfg.Net, cfg.Subnet, cfg.Universe)
	if err != nil {
		return nil, err
	}

	keepalive := cfg.KeepaliveFrames
	if keepalive <= 0 {
		keepalive = DefaultKeepaliveFrames
	}
	logger := cfg.Logger
	if logger == nil {
		logger = noopLogger{}
	}

	return &Sink{
		sender:      sender,
		packet:      p,
		mailbox:     make(chan universe.Frame, 1),
		keepalive:   keepalive,
		disableSend: cfg.DisableSend,
		done:        make(chan struct{}),
		logger:      logger,
	}, nil
}

// SendFrame hands a frame to the transmit goroutine. Returns false when
// the mailbox is occupied; the frame is then dropped.
func (s *Sink) SendFrame(frame universe.Frame) bool {
	select {
	case s.mailbox <- frame:
		return true
	default:
		return false
	}
}

// Start launches the transmit goroutine.
func (s *Sink) Start(ctx context.Context) {
	s.wg.Add(1)
	go s.run(ctx)
}

// Stop shuts the transmit goroutine down and waits for it to exit.
// Safe to call multiple times.
func (s *Sink) Stop() {
	s.stopOnce.Do(func() {
		close(s.done)
		s.wg.Wait()
	})
}

func (s *Sink) run(ctx context.Context) {
	defer s.wg.Done()

	for {
		select {
		case <-ctx.Done():
			return
		case <-s.done:
			return
		case frame := <-s.mailbox:
			s.handle(frame)
		}
	}
}

// handle transmits a frame unless it matches the last transmission and the
// keepalive interval has not yet elapsed.
func (s *Sink) handle(frame universe.Frame) {
	if s.last != nil && valuesEqual(s.last, frame.Values) {
		s.unchanged++
		if s.unchanged < s.keepalive {
			return
		}
		s.logger.Debug("retransmitting unchanged universe", "skipped", s.unchanged)
	}

	s.packet.setValues(frame.Values)

	if !s.disableSend {
		if err := s.sender.Send(s.packet.bytes()); err != nil {
			// Transient network failure; the next frame retries.
			s.logger.Error("failed to send packet", "seq", frame.Seq, "error", err)
			return
		}
	}

	s.packet.bumpSeq()

	if s.last == nil {
		s.last = make([]uint8, len(frame.Values))
	}
	copy(s.last, frame.Values)
	s.unchanged = 0
}

func valuesEqual(a, b []uint8) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
