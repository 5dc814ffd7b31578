package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/redis/go-redis/v9"

	"resumeForge/internal/notify"
	"resumeForge/internal/store"
)

// WsHandler 负责 WebSocket 订阅与通知转发。
type WsHandler struct {
	redisClient    *redis.Client
	store          store.Store
	logger         *slog.Logger
	upgrader       websocket.Upgrader
	allowedOrigins []string
}

// NewWsHandler 构造 WebSocket 处理器。
func NewWsHandler(redisClient *redis.Client, resumes store.Store, logger *slog.Logger, allowedOrigins []string) *WsHandler {
	h := &WsHandler{
		redisClient:    redisClient,
		store:          resumes,
		logger:         logger,
		allowedOrigins: allowedOrigins,
	}
	h.upgrader = websocket.Upgrader{
		CheckOrigin: func(r *http.Request) bool {
			origin := r.Header.Get("Origin")
			if origin == "" {
				return true
			}
			if len(h.allowedOrigins) == 0 {
				u, err := url.Parse(origin)
				if err != nil {
					return false
				}
				return strings.EqualFold(u.Host, r.Host)
			}
			for _, allowed := range h.allowedOrigins {
				if origin == allowed {
					return true
				}
			}
			return false
		},
	}
	return h
}

type wsSubscribeMessage struct {
	Type     string `json:"type"`
	ResumeID string `json:"resume_id"`
}

// parseSubscribe 校验首条消息必须为 {"type":"subscribe","resume_id":"..."}。
func parseSubscribe(message []byte) (string, error) {
	var sub wsSubscribeMessage
	if err := json.Unmarshal(message, &sub); err != nil {
		return "", fmt.Errorf("decode subscribe payload: %w", err)
	}
	id := strings.TrimSpace(sub.ResumeID)
	if sub.Type != "subscribe" || id == "" {
		return "", errors.New("invalid subscribe message")
	}
	return id, nil
}

// HandleConnection 负责升级连接并启动读写循环。
func (h *WsHandler) HandleConnection(c *gin.Context) {
	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Error("upgrade websocket failed", slog.Any("error", err))
		return
	}
	defer conn.Close()

	ctx, cancel := context.WithCancel(c.Request.Context())
	defer cancel()

	baseLog := h.logger.With(
		slog.String("client_ip", c.ClientIP()),
	)

	resumeIDCh := make(chan string, 1)
	errCh := make(chan error, 1)

	go h.readLoop(ctx, conn, resumeIDCh, errCh, cancel, baseLog)

	var resumeID string
	select {
	case <-ctx.Done():
		return
	case err := <-errCh:
		if err != nil {
			baseLog.Warn("websocket subscribe failed", slog.Any("error", err))
		}
		return
	case resumeID = <-resumeIDCh:
	}

	resumeLog := baseLog.With(slog.String("resume_id", resumeID))
	go h.subscribeLoop(ctx, conn, resumeID, errCh, cancel, resumeLog)

	select {
	case <-ctx.Done():
	case err := <-errCh:
		if err != nil {
			resumeLog.Info("websocket connection closed", slog.Any("error", err))
		} else {
			resumeLog.Info("websocket connection closed")
		}
	}
}

func (h *WsHandler) readLoop(
	ctx context.Context,
	conn *websocket.Conn,
	resumeIDCh chan<- string,
	errCh chan<- error,
	cancel context.CancelFunc,
	log *slog.Logger,
) {
	subscribed := false

	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		_, message, err := conn.ReadMessage()
		if err != nil {
			writeClose(conn, websocket.CloseAbnormalClosure, "read error")
			errCh <- fmt.Errorf("read message: %w", err)
			cancel()
			return
		}

		if subscribed {
			// 订阅后无需处理额外消息，保持循环以检测客户端断开。
			continue
		}

		resumeID, err := parseSubscribe(message)
		if err != nil {
			writeClose(conn, websocket.ClosePolicyViolation, "subscribe required")
			errCh <- err
			cancel()
			return
		}
		if _, err := h.store.Get(ctx, resumeID); err != nil {
			writeClose(conn, websocket.ClosePolicyViolation, "unknown resume")
			errCh <- fmt.Errorf("lookup resume %s: %w", resumeID, err)
			cancel()
			return
		}

		subscribed = true
		resumeIDCh <- resumeID
		log.Info("websocket subscribed", slog.String("resume_id", resumeID))
	}
}

func writeClose(conn *websocket.Conn, code int, text string) {
	deadline := time.Now().Add(5 * time.Second)
	_ = conn.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(code, text), deadline)
}

func (h *WsHandler) subscribeLoop(
	ctx context.Context,
	conn *websocket.Conn,
	resumeID string,
	errCh chan<- error,
	cancel context.CancelFunc,
	log *slog.Logger,
) {
	channel := notify.Channel(resumeID)
	pubsub := h.redisClient.Subscribe(ctx, channel)
	defer pubsub.Close()

	log.Info("subscribed to redis channel", slog.String("channel", channel))

	ch := pubsub.Channel()
	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-ch:
			if !ok {
				errCh <- fmt.Errorf("pubsub channel closed")
				cancel()
				return
			}

			log.Info("forwarding message to client", slog.String("channel", channel))
			if err := conn.WriteMessage(websocket.TextMessage, []byte(msg.Payload)); err != nil {
				errCh <- fmt.Errorf("write message: %w", err)
				cancel()
				return
			}
		case <-ticker.C:
			deadline := time.Now().Add(5 * time.Second)
			if err := conn.WriteControl(websocket.PingMessage, []byte("ping"), deadline); err != nil {
				errCh <- fmt.Errorf("write ping: %w", err)
				cancel()
				return
			}
		}
	}
}
