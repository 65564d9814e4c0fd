package audio

import (
	"encoding/binary"
	"io"
	"sync"
	"time"

	"github.com/ebitengine/oto/v3"
	"github.com/faiface/beep"
	"github.com/pkg/errors"

	"github.com/dimfu/clacktime/internal/logger"
)

// otoDevice is the part of an oto context the backend drives.
type otoDevice interface {
	Resume() error
	Suspend() error
	Err() error
	// Start plays r on a long-lived player.
	Start(r io.Reader)
}

type otoContext struct {
	*oto.Context
	player *oto.Player
}

func (c *otoContext) Start(r io.Reader) {
	c.player = c.NewPlayer(r)
	c.player.Play()
}

func openOtoContext(opts *oto.NewContextOptions) (otoDevice, chan struct{}, error) {
	ctx, ready, err := oto.NewContext(opts)
	if err != nil {
		return nil, nil, err
	}
	return &otoContext{Context: ctx}, ready, nil
}

// otoBackend is the process-wide oto state. oto allows one context per
// process, so a failed device stays failed until the process exits.
type otoBackend struct {
	mu     sync.Mutex
	open   func(*oto.NewContextOptions) (otoDevice, chan struct{}, error)
	device otoDevice
	mix    *mixReader
	rate   beep.SampleRate
	failed error
}

var sharedOto = &otoBackend{open: openOtoContext}

// Oto plays through github.com/ebitengine/oto/v3 with one long-lived player
// reading from a mixer.
type Oto struct {
	rate    beep.SampleRate
	buffer  time.Duration
	backend *otoBackend
}

func NewOto(rate beep.SampleRate, buffer time.Duration) *Oto {
	return &Oto{rate: rate, buffer: buffer, backend: sharedOto}
}

// Resume opens the device on first use and resumes it afterwards. A device
// that failed to open keeps failing.
func (o *Oto) Resume() error {
	b := o.backend
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.failed != nil {
		return errors.Wrapf(ErrUnavailable, "oto context: %v", b.failed)
	}
	if b.device != nil {
		if err := b.device.Err(); err != nil {
			return errors.Wrapf(ErrUnavailable, "oto context: %v", err)
		}
		if err := b.device.Resume(); err != nil {
			return errors.Wrapf(ErrUnavailable, "resume oto context: %v", err)
		}
		return nil
	}

	device, ready, err := b.open(&oto.NewContextOptions{
		SampleRate:   int(o.rate),
		ChannelCount: 2,
		Format:       oto.FormatSignedInt16LE,
		BufferSize:   o.buffer,
	})
	if err != nil {
		b.failed = err
		return errors.Wrapf(ErrUnavailable, "create oto context: %v", err)
	}
	<-ready

	b.device = device
	b.rate = o.rate
	if err := device.Err(); err != nil {
		return errors.Wrapf(ErrUnavailable, "open oto device: %v", err)
	}
	b.mix = &mixReader{}
	device.Start(b.mix)

	logger.GetProjectLogger().WithField("sample_rate", int(o.rate)).Debug("oto context created")
	return nil
}

func (o *Oto) Ready() bool {
	b := o.backend
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.device != nil && b.mix != nil && b.device.Err() == nil
}

func (o *Oto) Play(s beep.Streamer) {
	b := o.backend
	b.mu.Lock()
	mix := b.mix
	b.mu.Unlock()
	if mix == nil {
		return
	}
	mix.Add(s)
}

func (o *Oto) SampleRate() beep.SampleRate {
	b := o.backend
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.device != nil {
		return b.rate
	}
	return o.rate
}

// Suspend pauses the device without tearing it down.
func (o *Oto) Suspend() error {
	b := o.backend
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.device == nil || b.device.Err() != nil {
		return nil
	}
	return b.device.Suspend()
}

// mixReader renders a beep.Mixer as interleaved signed 16-bit stereo.
type mixReader struct {
	mu    sync.Mutex
	mixer beep.Mixer
	buf   [][2]float64
}

func (m *mixReader) Add(s beep.Streamer) {
	m.mu.Lock()
	m.mixer.Add(s)
	m.mu.Unlock()
}

func (m *mixReader) Read(p []byte) (int, error) {
	frames := len(p) / 4
	if frames == 0 {
		return 0, nil
	}
	if cap(m.buf) < frames {
		m.buf = make([][2]float64, frames)
	}
	buf := m.buf[:frames]

	m.mu.Lock()
	m.mixer.Stream(buf)
	m.mu.Unlock()

	for i, frame := range buf {
		binary.LittleEndian.PutUint16(p[i*4:], uint16(toInt16(frame[0])))
		binary.LittleEndian.PutUint16(p[i*4+2:], uint16(toInt16(frame[1])))
	}
	return frames * 4, nil
}

func toInt16(s float64) int16 {
	if s > 1 {
		s = 1
	}
	if s < -1 {
		s = -1
	}
	return int16(s * 32767)
}
