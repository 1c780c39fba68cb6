package transport

import (
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

const (
	wsPongWait   = 60 * time.Second
	wsPingPeriod = (wsPongWait * 9) / 10
	wsWriteWait  = 10 * time.Second
)

var wsUpgrader = websocket.Upgrader{
	ReadBufferSize:  16 * 1024,
	WriteBufferSize: 16 * 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// wsTransport implements Transport over a gorilla/websocket connection.
// Ping/pong keepalive is handled transparently, adapted from the teacher's
// client-side ping/pong/deadline idiom onto the server side: the read
// deadline is pushed out on every pong, and a background ticker sends
// pings so a silent peer is detected within one pongWait interval.
type wsTransport struct {
	conn *websocket.Conn

	incoming  chan []byte
	readErrMu sync.Mutex
	readErr   error

	writeMu sync.Mutex

	closeOnce sync.Once
	done      chan struct{}
}

// UpgradeWebSocket upgrades an HTTP request to a WebSocket connection and
// wraps it as a Transport.
func UpgradeWebSocket(w http.ResponseWriter, r *http.Request) (Transport, error) {
	conn, err := wsUpgrader.Upgrade(w, r, nil)
	if err != nil {
		return nil, err
	}
	return newWSTransport(conn), nil
}

func newWSTransport(conn *websocket.Conn) *wsTransport {
	t := &wsTransport{
		conn:     conn,
		incoming: make(chan []byte, 8),
		done:     make(chan struct{}),
	}

	conn.SetReadDeadline(time.Now().Add(wsPongWait))
	conn.SetPongHandler(func(string) error {
		conn.SetReadDeadline(time.Now().Add(wsPongWait))
		return nil
	})

	go t.readLoop()
	go t.pingLoop()
	return t
}

func (t *wsTransport) readLoop() {
	defer close(t.incoming)
	for {
		_, data, err := t.conn.ReadMessage()
		if err != nil {
			t.readErrMu.Lock()
			t.readErr = err
			t.readErrMu.Unlock()
			return
		}
		select {
		case t.incoming <- data:
		case <-t.done:
			return
		}
	}
}

func (t *wsTransport) pingLoop() {
	ticker := time.NewTicker(wsPingPeriod)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			t.writeMu.Lock()
			t.conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
			err := t.conn.WriteMessage(websocket.PingMessage, nil)
			t.writeMu.Unlock()
			if err != nil {
				return
			}
		case <-t.done:
			return
		}
	}
}

func (t *wsTransport) SendPacket(packet []byte) error {
	t.writeMu.Lock()
	defer t.writeMu.Unlock()
	t.conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
	return t.conn.WriteMessage(websocket.BinaryMessage, packet)
}

func (t *wsTransport) RecvPacket(timeout time.Duration) ([]byte, error) {
	if timeout <= 0 {
		select {
		case data, ok := <-t.incoming:
			if !ok {
				return nil, t.closedErr()
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
			return nil, t.closedErr()
		}
		return data, nil
	case <-timer.C:
		return nil, nil
	}
}

func (t *wsTransport) closedErr() error {
	t.readErrMu.Lock()
	defer t.readErrMu.Unlock()
	if t.readErr != nil {
		return ErrClosed
	}
	return ErrClosed
}

func (t *wsTransport) Close() error {
	t.closeOnce.Do(func() { close(t.done) })
	return t.conn.Close()
}

var _ Transport = (*wsTransport)(nil)
