package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"routegeo/internal/dispatch"
	"routegeo/internal/model"
	"routegeo/internal/protocol"
)

// Decode requests over WebSocket. Clients send protocol.Request frames and
// receive protocol.Response frames carrying the same id, in completion order.

var upgrader = websocket.Upgrader{CheckOrigin: func(_ *http.Request) bool { return true }}

const (
	wsReadTimeout   = 60 * time.Second
	wsPingInterval  = 20 * time.Second
	wsMaxInFlight   = 16
	wsWriteDeadline = 10 * time.Second
)

// wsConn serializes writes; gorilla allows one concurrent writer.
type wsConn struct {
	mu   sync.Mutex
	conn *websocket.Conn
}

func (c *wsConn) send(resp *protocol.Response) error {
	var buf bytes.Buffer
	if err := protocol.EncodeResponse(&buf, resp); err != nil {
		// anonymous error replies fail validation; send them as-is
		if resp.Type != protocol.TypeError {
			return err
		}
		buf.Reset()
		if err := json.NewEncoder(&buf).Encode(resp); err != nil {
			return err
		}
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	_ = c.conn.SetWriteDeadline(time.Now().Add(wsWriteDeadline))
	return c.conn.WriteMessage(websocket.TextMessage, buf.Bytes())
}

func (c *wsConn) ping() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(wsWriteDeadline))
}

// DecodeWSHandler handles /v1/polyline/ws
func (s *Server) DecodeWSHandler(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	defer func() { _ = conn.Close() }()
	c := &wsConn{conn: conn}
	log := s.Logger.With(zap.String("component", "ws"), zap.String("remote", r.RemoteAddr))

	// in-flight decodes stop when the connection does
	ctx, cancel := context.WithCancel(context.Background())
	var wg sync.WaitGroup
	defer func() {
		cancel()
		wg.Wait()
	}()

	conn.SetReadLimit(int64(s.Config.MaxEncodedLen) + 64<<10)
	_ = conn.SetReadDeadline(time.Now().Add(wsReadTimeout))
	conn.SetPongHandler(func(string) error { return conn.SetReadDeadline(time.Now().Add(wsReadTimeout)) })

	wg.Add(1)
	go func() {
		defer wg.Done()
		ticker := time.NewTicker(wsPingInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if err := c.ping(); err != nil {
					return
				}
			}
		}
	}()

	slots := make(chan struct{}, wsMaxInFlight)
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				log.Debug("read failed", zap.Error(err))
			}
			return
		}
		_ = conn.SetReadDeadline(time.Now().Add(wsReadTimeout))

		req, err := protocol.DecodeRequest(bytes.NewReader(data))
		if err != nil {
			var peek struct {
				ID string `json:"id"`
			}
			_ = json.Unmarshal(data, &peek)
			_ = c.send(&protocol.Response{Type: protocol.TypeError, ID: peek.ID, Error: err.Error()})
			continue
		}
		if err := validateDecodeRequest(&model.DecodeRequest{Encoded: req.Encoded, Tolerance: req.Tolerance}, s.Config.MaxEncodedLen); err != nil {
			_ = c.send(&protocol.Response{Type: protocol.TypeError, ID: req.ID, Error: err.Error()})
			continue
		}

		slots <- struct{}{}
		wg.Add(1)
		go func(req *protocol.Request) {
			defer wg.Done()
			defer func() { <-slots }()
			points, _, err := s.decode(ctx, req.Encoded, req.Options())
			resp := &protocol.Response{Type: protocol.TypeResult, ID: req.ID, Points: points}
			if err != nil {
				if errors.Is(err, context.Canceled) {
					return
				}
				resp = &protocol.Response{Type: protocol.TypeError, ID: req.ID, Error: wsErrorMessage(err)}
			}
			if err := c.send(resp); err != nil {
				log.Debug("write failed", zap.String("id", req.ID), zap.Error(err))
			}
		}(req)
	}
}

func wsErrorMessage(err error) string {
	var we *dispatch.WorkerError
	if errors.As(err, &we) {
		return we.Message
	}
	return err.Error()
}
