package transport

import (
	"encoding/binary"
	"fmt"
	"io"
	"sync"
	"time"
)

// maxFrameSize caps a single length-prefixed frame, matching
// original_source/src/transport/webtransport.rs's MAX_WT_FRAME_SIZE.
const maxFrameSize = 64 * 1024 * 1024

// rawStream is the minimal surface both a QUIC stream and a WebTransport
// stream expose: ordered, reliable byte read/write over one logical
// stream. Neither carries message boundaries, so framedStream adds a
// 4-byte little-endian length prefix per packet.
type rawStream interface {
	io.Reader
	io.Writer
	io.Closer
}

// framedStream implements Transport over any rawStream by length-prefixing
// each packet, directly grounded in original_source's WebTransport framing
// (4-byte LE length prefix, 64 MiB cap, timeout expressed as "wait up to").
type framedStream struct {
	rw rawStream

	incoming chan []byte
	errCh    chan error

	writeMu   sync.Mutex
	closeOnce sync.Once
	done      chan struct{}
}

func newFramedStream(rw rawStream) *framedStream {
	t := &framedStream{
		rw:       rw,
		incoming: make(chan []byte, 8),
		errCh:    make(chan error, 1),
		done:     make(chan struct{}),
	}
	go t.readLoop()
	return t
}

func (t *framedStream) readLoop() {
	var lenBuf [4]byte
	for {
		if _, err := io.ReadFull(t.rw, lenBuf[:]); err != nil {
			t.errCh <- err
			close(t.incoming)
			return
		}
		n := binary.LittleEndian.Uint32(lenBuf[:])
		if n > maxFrameSize {
			t.errCh <- fmt.Errorf("%w: %d bytes", ErrOversizePacket, n)
			close(t.incoming)
			return
		}
		buf := make([]byte, n)
		if _, err := io.ReadFull(t.rw, buf); err != nil {
			t.errCh <- err
			close(t.incoming)
			return
		}
		select {
		case t.incoming <- buf:
		case <-t.done:
			return
		}
	}
}

func (t *framedStream) SendPacket(packet []byte) error {
	if len(packet) > maxFrameSize {
		return fmt.Errorf("%w: %d bytes", ErrOversizePacket, len(packet))
	}
	t.writeMu.Lock()
	defer t.writeMu.Unlock()

	var lenBuf [4]byte
	binary.LittleEndian.PutUint32(lenBuf[:], uint32(len(packet)))
	if _, err := t.rw.Write(lenBuf[:]); err != nil {
		return err
	}
	_, err := t.rw.Write(packet)
	return err
}

func (t *framedStream) RecvPacket(timeout time.Duration) ([]byte, error) {
	if timeout <= 0 {
		select {
		case data, ok := <-t.incoming:
			if !ok {
				return nil, t.terminalErr()
			}
			return data, nil
		default:
			return nil, nil
		}
	}

	timer := time.NewTimer(timeout)
	defer timer.Stop()
	select {
	case data, ok := <-t.incoming:
		if !ok {
			return nil, t.terminalErr()
		}
		return data, nil
	case <-timer.C:
		return nil, nil
	}
}

func (t *framedStream) terminalErr() error {
	select {
	case err := <-t.errCh:
		if err == io.EOF {
			return ErrClosed
		}
		return err
	default:
		return ErrClosed
	}
}

func (t *framedStream) Close() error {
	t.closeOnce.Do(func() { close(t.done) })
	return t.rw.Close()
}

var _ Transport = (*framedStream)(nil)
