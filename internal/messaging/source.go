package messaging

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"nutri/internal/messaging/metrics"
	"nutri/internal/messaging/models"
	"nutri/pkg/platform/httputil"
)

const (
	defaultReconnectDelay = 2 * time.Second
	maxReconnectDelay     = 30 * time.Second
	handshakeTimeout      = 10 * time.Second

	// DefaultMaxFrameBytes matches the HTTP body limit. A larger frame ends
	// the session and triggers a reconnect.
	DefaultMaxFrameBytes = httputil.MaxBodyBytes
)

// Source produces messages into sink until ctx is cancelled.
type Source interface {
	Run(ctx context.Context, sink chan<- models.Message) error
}

// frame is the provider's JSON wire shape for one message.
type frame struct {
	ID        string    `json:"id"`
	From      string    `json:"from"`
	To        string    `json:"to"`
	Body      string    `json:"body"`
	Timestamp time.Time `json:"timestamp"`
	IsGroup   bool      `json:"isGroup"`
	GroupID   string    `json:"groupId,omitempty"`
}

func (f frame) toModel() (models.Message, error) {
	return models.FromProvider(f.ID, f.From, f.To, f.Body, f.Timestamp, f.IsGroup, f.GroupID)
}

// WebsocketSource reads message frames from the provider's websocket feed.
type WebsocketSource struct {
	url            string
	token          string
	dialer         *websocket.Dialer
	reconnectDelay time.Duration
	maxFrameBytes  int64
	logger         *slog.Logger
	metrics        *metrics.Metrics
}

type SourceOption func(*WebsocketSource)

func WithToken(token string) SourceOption {
	return func(s *WebsocketSource) {
		s.token = token
	}
}

func WithReconnectDelay(d time.Duration) SourceOption {
	return func(s *WebsocketSource) {
		if d > 0 {
			s.reconnectDelay = d
		}
	}
}

// WithMaxFrameBytes overrides DefaultMaxFrameBytes.
func WithMaxFrameBytes(n int64) SourceOption {
	return func(s *WebsocketSource) {
		if n > 0 {
			s.maxFrameBytes = n
		}
	}
}

func WithSourceLogger(logger *slog.Logger) SourceOption {
	return func(s *WebsocketSource) {
		if logger != nil {
			s.logger = logger
		}
	}
}

func WithSourceMetrics(m *metrics.Metrics) SourceOption {
	return func(s *WebsocketSource) {
		s.metrics = m
	}
}

func NewWebsocketSource(url string, opts ...SourceOption) *WebsocketSource {
	s := &WebsocketSource{
		url:            url,
		dialer:         &websocket.Dialer{HandshakeTimeout: handshakeTimeout},
		reconnectDelay: defaultReconnectDelay,
		maxFrameBytes:  DefaultMaxFrameBytes,
		logger:         slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Run keeps a connection open, reconnecting with exponential backoff, and
// returns nil once ctx is cancelled.
func (s *WebsocketSource) Run(ctx context.Context, sink chan<- models.Message) error {
	delay := s.reconnectDelay
	for {
		connected, err := s.session(ctx, sink)
		if ctx.Err() != nil {
			return nil
		}
		if connected {
			delay = s.reconnectDelay
		}
		s.logger.WarnContext(ctx, "messaging connection lost",
			"error", err,
			"retry_in", delay,
		)
		s.metrics.RecordReconnect()

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil
		case <-timer.C:
		}
		delay = min(delay*2, maxReconnectDelay)
	}
}

// session dials once and pumps frames until the connection fails. connected
// reports whether the handshake succeeded.
func (s *WebsocketSource) session(ctx context.Context, sink chan<- models.Message) (connected bool, err error) {
	header := http.Header{}
	if s.token != "" {
		header.Set("Authorization", "Bearer "+s.token)
	}

	conn, resp, err := s.dialer.DialContext(ctx, s.url, header)
	if resp != nil && resp.Body != nil {
		_ = resp.Body.Close()
	}
	if err != nil {
		return false, fmt.Errorf("dial messaging provider: %w", err)
	}
	conn.SetReadLimit(s.maxFrameBytes)
	s.logger.InfoContext(ctx, "messaging connected", "url", s.url)

	stop := context.AfterFunc(ctx, func() {
		_ = conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
			time.Now().Add(time.Second))
		_ = conn.Close()
	})
	defer func() {
		if stop() {
			_ = conn.Close()
		}
	}()

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			return true, fmt.Errorf("read frame: %w", err)
		}

		msg, err := decodeFrame(data)
		if err != nil {
			s.metrics.RecordFrame(false)
			s.logger.WarnContext(ctx, "dropping invalid frame", "error", err)
			continue
		}
		s.metrics.RecordFrame(true)

		select {
		case sink <- msg:
		case <-ctx.Done():
			return true, ctx.Err()
		}
	}
}

func decodeFrame(data []byte) (models.Message, error) {
	var f frame
	if err := json.Unmarshal(data, &f); err != nil {
		return models.Message{}, fmt.Errorf("decode frame: %w", err)
	}
	msg, err := f.toModel()
	if err != nil {
		return models.Message{}, fmt.Errorf("invalid message: %w", err)
	}
	return msg, nil
}
