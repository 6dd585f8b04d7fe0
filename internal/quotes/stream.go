package quotes

import (
	"context"
	"sync"
	"time"

	json "github.com/goccy/go-json"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/synapsefi/pm-ledger/pkg/types"
)

const (
	pingInterval     = 10 * time.Second
	readTimeout      = 30 * time.Second
	reconnectBackoff = 5 * time.Second
)

// SnapshotSink receives snapshots derived from streamed book messages.
type SnapshotSink interface {
	ApplyExternal(snap types.QuoteSnapshot)
}

// Stream is a supplemental push source for quotes: it subscribes to
// the market websocket channel and feeds full-book messages into the
// sink. Polling remains the source of record for tick size and
// neg-risk flags; the stream only tightens update latency.
type Stream struct {
	url      string
	tokenIDs []string
	sink     SnapshotSink
	logger   *zap.Logger
	ctx      context.Context
	wg       sync.WaitGroup
}

// StreamConfig holds websocket stream configuration.
type StreamConfig struct {
	URL      string
	TokenIDs []string
	Logger   *zap.Logger
}

// NewStream creates a new market websocket stream.
func NewStream(cfg StreamConfig, sink SnapshotSink) *Stream {
	return &Stream{
		url:      cfg.URL,
		tokenIDs: cfg.TokenIDs,
		sink:     sink,
		logger:   cfg.Logger,
	}
}

// Start starts the stream's connect-read-reconnect loop.
func (s *Stream) Start(ctx context.Context) error {
	s.ctx = ctx
	s.logger.Info("quote-stream-starting",
		zap.String("url", s.url),
		zap.Int("token-count", len(s.tokenIDs)))

	s.wg.Add(1)
	go s.run()

	return nil
}

func (s *Stream) run() {
	defer s.wg.Done()

	for {
		if s.ctx.Err() != nil {
			return
		}

		err := s.connectAndRead()
		if s.ctx.Err() != nil {
			return
		}

		StreamReconnectsTotal.Inc()
		s.logger.Warn("quote-stream-disconnected",
			zap.Error(err),
			zap.Duration("backoff", reconnectBackoff))

		select {
		case <-s.ctx.Done():
			return
		case <-time.After(reconnectBackoff):
		}
	}
}

func (s *Stream) connectAndRead() error {
	dialer := websocket.Dialer{HandshakeTimeout: 10 * time.Second}
	conn, _, err := dialer.DialContext(s.ctx, s.url, nil)
	if err != nil {
		return err
	}
	defer conn.Close()

	subscribe := map[string]interface{}{
		"assets_ids": s.tokenIDs,
		"type":       "market",
	}
	if err := conn.WriteJSON(subscribe); err != nil {
		return err
	}

	s.logger.Info("quote-stream-subscribed", zap.Int("token-count", len(s.tokenIDs)))

	// Keepalive pings; the server drops quiet connections.
	stopPing := make(chan struct{})
	defer close(stopPing)
	go s.pingLoop(conn, stopPing)

	_ = conn.SetReadDeadline(time.Now().Add(readTimeout))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(readTimeout))
	})

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			return err
		}
		_ = conn.SetReadDeadline(time.Now().Add(readTimeout))

		s.handleMessage(data)
	}
}

func (s *Stream) pingLoop(conn *websocket.Conn, stop <-chan struct{}) {
	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-s.ctx.Done():
			return
		case <-ticker.C:
			deadline := time.Now().Add(5 * time.Second)
			if err := conn.WriteControl(websocket.PingMessage, nil, deadline); err != nil {
				return
			}
		}
	}
}

// handleMessage decodes one websocket frame. The market channel sends
// both single messages and arrays of them.
func (s *Stream) handleMessage(data []byte) {
	var msgs []types.BookMessage
	if err := json.Unmarshal(data, &msgs); err != nil {
		var single types.BookMessage
		if err := json.Unmarshal(data, &single); err != nil {
			s.logger.Debug("unparseable-stream-message", zap.Error(err))
			return
		}
		msgs = []types.BookMessage{single}
	}

	for _, msg := range msgs {
		StreamMessagesTotal.WithLabelValues(msg.EventType).Inc()

		// Only full book snapshots carry enough state to apply; price
		// changes are picked up by the next poll.
		if msg.EventType != "book" {
			continue
		}

		snap := types.QuoteSnapshot{
			TokenID:     msg.AssetID,
			LastUpdated: time.Now(),
		}
		if len(msg.Bids) > 0 {
			if price, size, err := msg.Bids[0].Float(); err == nil {
				snap.BestBid = price
				snap.BestBidSize = size
			}
		}
		if len(msg.Asks) > 0 {
			if price, size, err := msg.Asks[0].Float(); err == nil {
				snap.BestAsk = price
				snap.BestAskSize = size
			}
		}

		s.sink.ApplyExternal(snap)
	}
}

// Close waits for the stream loop to exit.
func (s *Stream) Close() error {
	s.logger.Info("closing-quote-stream")
	s.wg.Wait()
	s.logger.Info("quote-stream-closed")
	return nil
}
