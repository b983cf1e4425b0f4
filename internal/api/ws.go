package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/taoyao-code/amp-server/internal/broker"
	"github.com/taoyao-code/amp-server/internal/logging"
)

const (
	writeWait      = 10 * time.Second
	maxMessageSize = 4096
	outboxSize     = 8
)

// WSConfig WebSocket 会话参数
type WSConfig struct {
	PingInterval time.Duration
	PerSecond    int
	Burst        int
}

// ActionMessage 客户端上行消息
type ActionMessage struct {
	Action string `json:"action"`
}

// WSHandler 状态中继：订阅 broker 推送快照，接收客户端指令
type WSHandler struct {
	broker   *broker.Broker
	cfg      WSConfig
	logger   *zap.Logger
	upgrader websocket.Upgrader
	active   atomic.Int64
}

func NewWSHandler(b *broker.Broker, cfg WSConfig, logger *zap.Logger) *WSHandler {
	if cfg.PingInterval <= 0 {
		cfg.PingInterval = 30 * time.Second
	}
	if cfg.PerSecond <= 0 {
		cfg.PerSecond = 10
	}
	if cfg.Burst <= 0 {
		cfg.Burst = cfg.PerSecond * 2
	}
	return &WSHandler{
		broker: b,
		cfg:    cfg,
		logger: logging.OrNop(logger),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			// 控制台页面与服务不一定同源
			CheckOrigin: func(*http.Request) bool { return true },
		},
	}
}

// Active 当前会话数
func (h *WSHandler) Active() int64 { return h.active.Load() }

// Serve 升级连接并运行会话直到任一方向结束
// @Summary 状态中继 WebSocket
// @Description 连接后立即推送当前状态；上行 {"action":"..."}；错误以 {"error","code"} 仅回给发起方
// @Tags 状态
// @Security ApiKeyAuth
// @Router /ws [get]
func (h *WSHandler) Serve(c *gin.Context) {
	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Warn("websocket upgrade failed", zap.Error(err))
		return
	}
	s := &wsSession{
		id:      uuid.NewString(),
		conn:    conn,
		broker:  h.broker,
		limiter: rate.NewLimiter(rate.Limit(h.cfg.PerSecond), h.cfg.Burst),
		ping:    h.cfg.PingInterval,
		outbox:  make(chan ErrorBody, outboxSize),
		logger:  h.logger,
	}
	s.logger = h.logger.With(zap.String("session", s.id), zap.String("remote_addr", c.ClientIP()))

	h.active.Add(1)
	defer h.active.Add(-1)
	s.run(c.Request.Context())
}

type wsSession struct {
	id      string
	conn    *websocket.Conn
	broker  *broker.Broker
	limiter *rate.Limiter
	ping    time.Duration
	outbox  chan ErrorBody
	logger  *zap.Logger
}

func (s *wsSession) run(parent context.Context) {
	defer s.conn.Close()

	ctx, cancel := context.WithCancel(parent)
	defer cancel()

	sub, err := s.broker.Subscribe(ctx)
	if err != nil {
		s.logger.Warn("websocket subscribe failed", zap.Error(err))
		_, body := errorBody(err)
		_ = s.conn.SetWriteDeadline(time.Now().Add(writeWait))
		_ = s.conn.WriteJSON(body)
		return
	}
	defer sub.Close()
	s.logger.Info("websocket session opened")

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		s.writeLoop(ctx, sub)
		// 写端结束后关闭连接，使阻塞中的 ReadMessage 返回
		cancel()
		_ = s.conn.Close()
	}()

	s.readLoop(ctx)
	cancel()
	wg.Wait()
	s.logger.Info("websocket session closed", zap.Uint64("dropped", sub.Dropped()))
}

// readLoop 读取上行指令；连接出错或 ctx 结束时返回
func (s *wsSession) readLoop(ctx context.Context) {
	pongWait := 2 * s.ping
	s.conn.SetReadLimit(maxMessageSize)
	_ = s.conn.SetReadDeadline(time.Now().Add(pongWait))
	s.conn.SetPongHandler(func(string) error {
		return s.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		mt, data, err := s.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				s.logger.Debug("websocket read failed", zap.Error(err))
			}
			return
		}
		_ = s.conn.SetReadDeadline(time.Now().Add(pongWait))
		if mt != websocket.TextMessage {
			continue
		}
		if ctx.Err() != nil {
			return
		}
		s.handle(ctx, data)
	}
}

func (s *wsSession) handle(ctx context.Context, data []byte) {
	var msg ActionMessage
	if err := json.Unmarshal(data, &msg); err != nil || msg.Action == "" {
		s.reply(ErrorBody{Error: "expected {\"action\": \"...\"}", Code: CodeBadRequest})
		return
	}
	if !s.limiter.Allow() {
		s.reply(ErrorBody{Error: "too many actions", Code: CodeRateLimited})
		return
	}
	// 成功后的新状态由订阅推送，这里只回错误
	if _, err := s.broker.Apply(ctx, msg.Action); err != nil {
		if errors.Is(err, context.Canceled) {
			return
		}
		_, body := errorBody(err)
		s.reply(body)
	}
}

// reply 只发给本会话；出站队列满时丢弃，避免阻塞读循环
func (s *wsSession) reply(body ErrorBody) {
	select {
	case s.outbox <- body:
	default:
		s.logger.Warn("websocket outbox full, error reply dropped", zap.String("code", body.Code))
	}
}

func (s *wsSession) writeLoop(ctx context.Context, sub *broker.Subscription) {
	ticker := time.NewTicker(s.ping)
	defer ticker.Stop()

	for {
		var err error
		select {
		case <-ctx.Done():
			_ = s.conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), time.Now().Add(writeWait))
			return
		case st, ok := <-sub.C():
			if !ok {
				_ = s.conn.WriteControl(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseGoingAway, "server shutting down"), time.Now().Add(writeWait))
				return
			}
			_ = s.conn.SetWriteDeadline(time.Now().Add(writeWait))
			err = s.conn.WriteJSON(st)
		case body := <-s.outbox:
			_ = s.conn.SetWriteDeadline(time.Now().Add(writeWait))
			err = s.conn.WriteJSON(body)
		case <-ticker.C:
			err = s.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait))
		}
		if err != nil {
			s.logger.Debug("websocket write failed", zap.Error(err))
			return
		}
	}
}
