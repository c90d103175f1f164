package wsrelay

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/gorilla/websocket"

	"github.com/LeJamon/ilpstreamd/internal/ilp"
)

// Client implements the same single-method shape as sender.RequestPipeline
// over one websocket connection, so a test can drive the real sender
// engine against an http.Server wrapping a Server.
type Client struct {
	conn *websocket.Conn

	nextID uint64

	mu      sync.Mutex
	pending map[uint64]chan responseFrame

	writeMu sync.Mutex

	closed chan struct{}
}

type responseFrame struct {
	kind    kind
	payload []byte
}

// Dial connects to a wsrelay.Server listening at url (ws://...).
func Dial(url string) (*Client, error) {
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		return nil, fmt.Errorf("wsrelay: dialing %s: %w", url, err)
	}

	c := &Client{
		conn:    conn,
		pending: make(map[uint64]chan responseFrame),
		closed:  make(chan struct{}),
	}
	go c.readLoop()
	return c, nil
}

func (c *Client) readLoop() {
	defer close(c.closed)
	for {
		msgType, frame, err := c.conn.ReadMessage()
		if err != nil {
			c.failAllPending(err)
			return
		}
		if msgType != websocket.BinaryMessage {
			continue
		}

		id, k, payload, err := decodeResponseFrame(frame)
		if err != nil {
			continue
		}

		c.mu.Lock()
		ch, ok := c.pending[id]
		if ok {
			delete(c.pending, id)
		}
		c.mu.Unlock()

		if ok {
			ch <- responseFrame{kind: k, payload: payload}
		}
	}
}

func (c *Client) failAllPending(err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for id, ch := range c.pending {
		ch <- responseFrame{kind: kindError, payload: []byte(err.Error())}
		delete(c.pending, id)
	}
}

// HandleRequest sends prepare over the websocket and blocks until the
// matching reply arrives or ctx is canceled.
func (c *Client) HandleRequest(ctx context.Context, from ilp.Address, prepare *ilp.Prepare) (*ilp.Fulfill, *ilp.Reject, error) {
	id := atomic.AddUint64(&c.nextID, 1)
	ch := make(chan responseFrame, 1)

	c.mu.Lock()
	c.pending[id] = ch
	c.mu.Unlock()

	frame, err := encodeRequestFrame(id, from, prepare)
	if err != nil {
		c.mu.Lock()
		delete(c.pending, id)
		c.mu.Unlock()
		return nil, nil, err
	}

	c.writeMu.Lock()
	writeErr := c.conn.WriteMessage(websocket.BinaryMessage, frame)
	c.writeMu.Unlock()
	if writeErr != nil {
		c.mu.Lock()
		delete(c.pending, id)
		c.mu.Unlock()
		return nil, nil, fmt.Errorf("wsrelay: writing request: %w", writeErr)
	}

	select {
	case resp := <-ch:
		switch resp.kind {
		case kindFulfill:
			fulfill, decErr := ilp.DecodeFulfill(resp.payload)
			if decErr != nil {
				return nil, nil, decErr
			}
			return fulfill, nil, nil
		case kindReject:
			reject, decErr := ilp.DecodeReject(resp.payload)
			if decErr != nil {
				return nil, nil, decErr
			}
			return nil, reject, nil
		default:
			return nil, nil, fmt.Errorf("wsrelay: %s", string(resp.payload))
		}
	case <-ctx.Done():
		c.mu.Lock()
		delete(c.pending, id)
		c.mu.Unlock()
		return nil, nil, ctx.Err()
	}
}

// Close closes the underlying websocket connection.
func (c *Client) Close() error {
	return c.conn.Close()
}
