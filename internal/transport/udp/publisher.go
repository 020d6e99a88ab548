// SPDX-License-Identifier: MIT
package udp

import (
	"errors"
	"sync"
	"time"

	"beanal/internal/analysis"
	"beanal/internal/log"
)

// PacketSender is the datagram side of a publisher. *UDPSender implements
// it.
type PacketSender interface {
	Send(data []byte) error
	Close() error
}

// UDPPublisher keeps the latest frame handed to Send and, on every tick of
// its interval, packs it into the binary format described in packet.go and
// sends it. A frame is sent at most once; ticks with nothing new send
// nothing.
type UDPPublisher struct {
	sender   PacketSender
	interval time.Duration
	logger   *log.Logger

	frameMu sync.Mutex
	latest  analysis.VisualizerFrame
	pending bool

	ticker   *time.Ticker
	doneChan chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
	mu       sync.Mutex // Protects ticker and doneChan during Start/Stop.

	packet []byte // reused, owned by the publisher goroutine
	sent   uint64
}

// NewUDPPublisher creates a publisher. If interval is <= 0 it defaults to
// 16ms (~60Hz).
func NewUDPPublisher(interval time.Duration, sender PacketSender) (*UDPPublisher, error) {
	if sender == nil {
		return nil, errors.New("UDPPublisher: UDP sender cannot be nil")
	}
	logger := log.New("udp")
	if interval <= 0 {
		interval = 16 * time.Millisecond
		logger.Warnf("UDPPublisher: Invalid interval provided, defaulting to %s", interval)
	}
	return &UDPPublisher{
		sender:   sender,
		interval: interval,
		logger:   logger,
		packet:   make([]byte, 0, PacketSize(analysis.MaxBars)),
	}, nil
}

// Send stores frame as the next one to publish, replacing any frame not
// yet sent.
func (p *UDPPublisher) Send(frame analysis.VisualizerFrame) error {
	p.frameMu.Lock()
	p.latest = frame
	p.pending = true
	p.frameMu.Unlock()
	return nil
}

// Start begins the periodic publishing process. Calling Start on a running
// publisher is a no-op.
func (p *UDPPublisher) Start() {
	p.mu.Lock()
	if p.ticker != nil {
		p.mu.Unlock()
		p.logger.Warnf("UDPPublisher: Start called but already running.")
		return
	}
	p.ticker = time.NewTicker(p.interval)
	p.doneChan = make(chan struct{})
	p.stopOnce = sync.Once{}
	ticker := p.ticker
	doneChan := p.doneChan
	p.mu.Unlock()

	p.wg.Add(1)
	go func() {
		defer p.wg.Done()
		p.logger.Infof("UDPPublisher: Publisher goroutine started (Interval: %s)", p.interval)
		for {
			select {
			case <-ticker.C:
				p.publish()
			case <-doneChan:
				return
			}
		}
	}()
}

// Stop signals the publisher goroutine to terminate and waits for it. It is
// safe to call Stop multiple times.
func (p *UDPPublisher) Stop() error {
	p.mu.Lock()
	if p.ticker == nil {
		p.mu.Unlock()
		return nil
	}
	p.stopOnce.Do(func() {
		close(p.doneChan)
		p.ticker.Stop()
		p.ticker = nil
	})
	p.mu.Unlock()

	p.wg.Wait()
	p.logger.Infof("UDPPublisher: stopped after %d packets", p.sent)
	return nil
}

func (p *UDPPublisher) publish() {
	p.frameMu.Lock()
	if !p.pending {
		p.frameMu.Unlock()
		return
	}
	frame := p.latest
	p.pending = false
	p.frameMu.Unlock()

	packet, err := AppendPacket(p.packet[:0], frame)
	if err != nil {
		p.logger.Errorf("UDPPublisher: Error packing frame %d: %v", frame.Sequence, err)
		return
	}
	p.packet = packet

	if err := p.sender.Send(packet); err != nil {
		return // the sender logs
	}
	p.sent++
	p.logger.Debugf("UDPPublisher: Sent packet %d (%d bytes)", frame.Sequence, len(packet))
}

// Close stops the publisher and closes the sender.
func (p *UDPPublisher) Close() error {
	p.Stop()
	return p.sender.Close()
}
