// Package transport connects a negotiation party to a remote host over a
// websocket. The host pushes events as JSON text frames or CBOR binary
// frames; replies use the encoding of the most recent host frame.
package transport

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/fxamacker/cbor/v2"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/freeeve/haggle/internal/logger"
	"github.com/freeeve/haggle/pkg/negotiation"
)

// Event types pushed by the host.
const (
	EventOffer = "offer" // counterpart offer in Bid
	EventTurn  = "turn"  // the party must act
	EventEnd   = "end"   // session over
)

// Event is a host notification. Bid maps issue names to values.
type Event struct {
	Type string            `json:"type" cbor:"type"`
	Bid  map[string]string `json:"bid,omitempty" cbor:"bid,omitempty"`
	Time float64           `json:"time" cbor:"time"`
}

// Reply is the party's answer to a turn event.
type Reply struct {
	Action string            `json:"action" cbor:"action"`
	Bid    map[string]string `json:"bid,omitempty" cbor:"bid,omitempty"`
}

// ReplyFor encodes an action for the wire.
func ReplyFor(act negotiation.Action) Reply {
	r := Reply{Action: act.Type.String()}
	if act.Bid != nil {
		r.Bid = make(map[string]string, len(act.Bid.Domain().Issues))
		for issue, v := range act.Bid.Assignment() {
			r.Bid[issue] = string(v)
		}
	}
	return r
}

// Client is a websocket connection to a negotiation host.
type Client struct {
	conn   *websocket.Conn
	events chan Event
	done   chan struct{}
	log    zerolog.Logger

	mu     sync.Mutex
	binary bool
	closed bool
}

// Dial connects to a host at url.
func Dial(ctx context.Context, url string, log zerolog.Logger) (*Client, error) {
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, url, nil)
	if err != nil {
		return nil, fmt.Errorf("ws dial: %w", err)
	}
	c := &Client{conn: conn, events: make(chan Event, 64), done: make(chan struct{}), log: log}
	go c.readLoop()
	return c, nil
}

// Events returns the channel of decoded host events. It is closed when the
// connection drops or the client is closed.
func (c *Client) Events() <-chan Event { return c.events }

// Send writes a reply in the encoding the host last used.
func (c *Client) Send(r Reply) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	var (
		frame []byte
		err   error
		kind  = websocket.TextMessage
	)
	if c.binary {
		kind = websocket.BinaryMessage
		frame, err = cbor.Marshal(r)
	} else {
		frame, err = json.Marshal(r)
	}
	if err != nil {
		return fmt.Errorf("encode reply: %w", err)
	}
	logger.LogFrame(c.log, "send", frame)
	return c.conn.WriteMessage(kind, frame)
}

// Close sends a close frame and closes the connection.
func (c *Client) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.closed = true
	close(c.done)
	c.conn.WriteMessage(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
	c.conn.Close()
}

func (c *Client) isClosed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}

func (c *Client) readLoop() {
	defer close(c.events)
	for {
		kind, msg, err := c.conn.ReadMessage()
		if err != nil {
			if !c.isClosed() {
				c.log.Debug().Err(err).Msg("WS read error")
			}
			return
		}
		logger.LogFrame(c.log, "recv", msg)

		var ev Event
		switch kind {
		case websocket.BinaryMessage:
			err = cbor.Unmarshal(msg, &ev)
		default:
			err = json.Unmarshal(msg, &ev)
		}
		if err != nil {
			c.log.Warn().Err(err).Msg("Undecodable host frame")
			continue
		}
		c.mu.Lock()
		c.binary = kind == websocket.BinaryMessage
		c.mu.Unlock()
		select {
		case c.events <- ev:
		case <-c.done:
			return
		}
	}
}
