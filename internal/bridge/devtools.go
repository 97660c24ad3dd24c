package bridge

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"strings"
	"sync/atomic"
	"time"

	"golang.org/x/net/websocket"
	"resty.dev/v3"

	"github.com/bassista/go_ratebadge/internal/config"
	"github.com/bassista/go_ratebadge/internal/logger"
)

// Tab is one entry of the DevTools /json target list.
type Tab struct {
	ID                   string `json:"id"`
	Title                string `json:"title"`
	Type                 string `json:"type"`
	URL                  string `json:"url"`
	WebSocketDebuggerURL string `json:"webSocketDebuggerUrl"`
}

// DevToolsBridge talks to a Chrome DevTools Protocol endpoint.
// Tabs are discovered over HTTP and scripts run through Runtime.evaluate on the tab websocket.
type DevToolsBridge struct {
	http        *resty.Client
	baseURL     string
	callTimeout time.Duration
	nextID      atomic.Int64
}

// NewDevToolsBridge creates a bridge for the debugger at cfg.DebuggerURL.
func NewDevToolsBridge(cfg config.BridgeConfig) *DevToolsBridge {
	base := strings.TrimRight(cfg.DebuggerURL, "/")
	client := resty.New().
		SetBaseURL(base).
		SetTimeout(cfg.CallTimeout)
	return &DevToolsBridge{http: client, baseURL: base, callTimeout: cfg.CallTimeout}
}

// Close releases the HTTP client.
func (b *DevToolsBridge) Close() error {
	return b.http.Close()
}

// Tabs lists the debuggable targets.
func (b *DevToolsBridge) Tabs(ctx context.Context) ([]Tab, error) {
	resp, err := b.http.R().
		SetContext(ctx).
		SetDoNotParseResponse(true).
		Get("/json")
	if err != nil {
		return nil, fmt.Errorf("list tabs: %w", err)
	}
	defer resp.RawResponse.Body.Close()

	if resp.RawResponse.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("list tabs: unexpected status %d", resp.RawResponse.StatusCode)
	}

	var tabs []Tab
	if err := json.NewDecoder(resp.RawResponse.Body).Decode(&tabs); err != nil {
		return nil, fmt.Errorf("decode tab list: %w", err)
	}
	return tabs, nil
}

// FindTab returns the first tab whose title equals name.
func (b *DevToolsBridge) FindTab(ctx context.Context, name string) (Tab, error) {
	tabs, err := b.Tabs(ctx)
	if err != nil {
		return Tab{}, err
	}
	for _, t := range tabs {
		if t.Title == name && t.WebSocketDebuggerURL != "" {
			return t, nil
		}
	}
	return Tab{}, fmt.Errorf("%w: %s", ErrTabNotFound, name)
}

type evaluateParams struct {
	Expression   string `json:"expression"`
	UserGesture  bool   `json:"userGesture"`
	AwaitPromise bool   `json:"awaitPromise"`
}

type protocolRequest struct {
	ID     int64  `json:"id"`
	Method string `json:"method"`
	Params any    `json:"params"`
}

type protocolError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

type protocolMessage struct {
	ID     int64           `json:"id"`
	Method string          `json:"method,omitempty"`
	Result *EvaluateResult `json:"result,omitempty"`
	Error  *protocolError  `json:"error,omitempty"`
}

// ExecuteScript evaluates script in the tab named tab and returns the raw reply.
func (b *DevToolsBridge) ExecuteScript(ctx context.Context, tab, script string, awaitPromise bool) (*ScriptResult, error) {
	ctx, cancel := context.WithTimeout(ctx, b.callTimeout)
	defer cancel()

	target, err := b.FindTab(ctx, tab)
	if err != nil {
		return nil, err
	}

	conn, err := b.dial(ctx, target.WebSocketDebuggerURL)
	if err != nil {
		return nil, fmt.Errorf("connect to tab %s: %w", tab, err)
	}
	defer conn.Close()
	stop := context.AfterFunc(ctx, func() { conn.Close() })
	defer stop()

	if deadline, ok := ctx.Deadline(); ok {
		_ = conn.SetDeadline(deadline)
	}

	id := b.nextID.Add(1)
	req := protocolRequest{
		ID:     id,
		Method: "Runtime.evaluate",
		Params: evaluateParams{Expression: script, UserGesture: true, AwaitPromise: awaitPromise},
	}
	if err := websocket.JSON.Send(conn, req); err != nil {
		return nil, b.callErr(ctx, "send evaluate", err)
	}

	for {
		var msg protocolMessage
		if err := websocket.JSON.Receive(conn, &msg); err != nil {
			return nil, b.callErr(ctx, "receive evaluate reply", err)
		}
		if msg.ID != id {
			// events and replies to other callers
			continue
		}
		if msg.Error != nil {
			return nil, fmt.Errorf("evaluate failed (%d): %s", msg.Error.Code, msg.Error.Message)
		}
		if msg.Result == nil {
			return nil, fmt.Errorf("evaluate reply %d has no result", id)
		}
		logger.WithComponent("bridge").Tracef("evaluate %d in %s -> %s", id, tab, msg.Result.Result.Type)
		return &ScriptResult{Result: *msg.Result}, nil
	}
}

// ElementExists reports whether an element with the given id is present in the tab.
func (b *DevToolsBridge) ElementExists(ctx context.Context, tab, elementID string) (bool, error) {
	res, err := b.ExecuteScript(ctx, tab, ElementExistsScript(elementID), false)
	if err != nil {
		return false, err
	}
	return res.Bool()
}

// ElementExistsScript is the expression used by ElementExists.
func ElementExistsScript(elementID string) string {
	return "document.getElementById(" + JSString(elementID) + ") !== null"
}

func (b *DevToolsBridge) dial(ctx context.Context, wsURL string) (*websocket.Conn, error) {
	cfg, err := websocket.NewConfig(wsURL, b.baseURL)
	if err != nil {
		return nil, err
	}
	cfg.Dialer = &net.Dialer{Timeout: b.callTimeout}
	return cfg.DialContext(ctx)
}

func (b *DevToolsBridge) callErr(ctx context.Context, op string, err error) error {
	if ctxErr := ctx.Err(); ctxErr != nil {
		return fmt.Errorf("%s: %w", op, ctxErr)
	}
	return fmt.Errorf("%s: %w", op, err)
}
