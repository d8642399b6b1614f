package httpadapter

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"sync"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/oapi-codegen/runtime"

	"leakscan/internal/domain"
)

var ErrTabNotConnected = errors.New("tab not connected")

// TriggerHub keeps one or more websocket connections per tab and pushes
// autoScan triggers to them.
type TriggerHub struct {
	mu   sync.RWMutex
	tabs map[int]map[uuid.UUID]*websocket.Conn
	log  *slog.Logger

	// OriginPatterns is passed to websocket.Accept.
	OriginPatterns []string
}

func NewTriggerHub(log *slog.Logger) *TriggerHub {
	if log == nil {
		log = slog.Default()
	}
	return &TriggerHub{
		tabs: make(map[int]map[uuid.UUID]*websocket.Conn),
		log:  log.With("component", "trigger_hub"),
	}
}

// SendAutoScan writes {action:"autoScan"} to every socket of tabID.
// It succeeds if at least one socket took the message.
func (h *TriggerHub) SendAutoScan(ctx context.Context, tabID int) error {
	h.mu.RLock()
	conns := make([]*websocket.Conn, 0, len(h.tabs[tabID]))
	for _, c := range h.tabs[tabID] {
		conns = append(conns, c)
	}
	h.mu.RUnlock()
	if len(conns) == 0 {
		return ErrTabNotConnected
	}

	var errs []error
	for _, c := range conns {
		if err := wsjson.Write(ctx, c, domain.NewAutoScanTrigger()); err != nil {
			errs = append(errs, err)
		}
	}
	if len(errs) == len(conns) {
		return errors.Join(errs...)
	}
	return nil
}

// Connected reports how many sockets tabID currently holds.
func (h *TriggerHub) Connected(tabID int) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.tabs[tabID])
}

// ServeTab upgrades the request and holds the socket until the peer leaves.
// Inbound frames are discarded; the channel is push-only.
func (h *TriggerHub) ServeTab(w http.ResponseWriter, r *http.Request) {
	var tabID int
	err := runtime.BindStyledParameterWithOptions("simple", "tabID", chi.URLParam(r, "tabID"), &tabID,
		runtime.BindStyledParameterOptions{ParamLocation: runtime.ParamLocationPath, Required: true})
	if err != nil || tabID < 0 {
		writeError(w, http.StatusBadRequest, errors.New("invalid tab id"))
		return
	}
	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{OriginPatterns: h.OriginPatterns})
	if err != nil {
		h.log.Warn("websocket accept", "tab_id", tabID, "error", err)
		return
	}
	id := h.add(tabID, conn)
	h.log.Info("tab connected", "tab_id", tabID, "conn_id", id)

	ctx := conn.CloseRead(r.Context())
	<-ctx.Done()

	h.remove(tabID, id)
	_ = conn.Close(websocket.StatusNormalClosure, "")
	h.log.Info("tab disconnected", "tab_id", tabID, "conn_id", id)
}

func (h *TriggerHub) add(tabID int, conn *websocket.Conn) uuid.UUID {
	id := uuid.New()
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.tabs[tabID] == nil {
		h.tabs[tabID] = make(map[uuid.UUID]*websocket.Conn)
	}
	h.tabs[tabID][id] = conn
	return id
}

func (h *TriggerHub) remove(tabID int, id uuid.UUID) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.tabs[tabID], id)
	if len(h.tabs[tabID]) == 0 {
		delete(h.tabs, tabID)
	}
}
