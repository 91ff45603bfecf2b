package api

import (
	"alcyxob/fitlog/internal/domain"
	"alcyxob/fitlog/internal/service"
	"alcyxob/fitlog/internal/session"
	"alcyxob/fitlog/internal/view"
	"encoding/json"
	"errors"
	"io"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = 25 * time.Second // must stay below pongWait
	sendBuffer = 32
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true }, // tighten behind a proxy if needed
}

// ViewHandler mounts a view model per websocket connection.
type ViewHandler struct {
	deps        view.Deps
	sessions    *session.Manager
	authService service.AuthService
}

func NewViewHandler(deps view.Deps, sessions *session.Manager, authService service.AuthService) *ViewHandler {
	return &ViewHandler{deps: deps, sessions: sessions, authService: authService}
}

// ServerMessage is one view-to-client message.
type ServerMessage struct {
	Type    string `json:"type"` // state, navigate, notification
	View    string `json:"view,omitempty"`
	State   any    `json:"state,omitempty"`
	To      string `json:"to,omitempty"`
	Title   string `json:"title,omitempty"`
	Message string `json:"message,omitempty"`
}

// ServeView godoc
// @Summary Open a view channel
// @Description One websocket connection is one mounted view. A valid token
// @Description restores the instance's session, e.g. after a server restart.
// @Description Protected views only see the session issued with that token.
// @Tags Views
// @Param view path string true "auth, tracker or dashboard"
// @Param instance query string true "App instance id"
// @Param token query string false "JWT issued to this instance"
// @Router /views/{view}/ws [get]
func (h *ViewHandler) ServeView(c *gin.Context) {
	name := c.Param("view")
	instanceID := c.Query("instance")
	if instanceID == "" {
		abortWithError(c, http.StatusBadRequest, "instance query parameter is required")
		return
	}
	conn := newViewConn(name)
	v, ok := view.New(name, h.deps, instanceID, conn)
	if !ok {
		abortWithError(c, http.StatusNotFound, "Unknown view")
		return
	}

	inst := h.sessions.Instance(instanceID)
	tokenID := ""
	if token := c.Query("token"); token != "" {
		sess, err := h.authService.ParseToken(token)
		switch {
		case err != nil:
			log.Printf("WARN: view %s for instance %s presented an unusable token: %v", name, instanceID, err)
		case sess.InstanceID != instanceID:
			log.Printf("WARN: view %s for instance %s presented a token of instance %s", name, instanceID, sess.InstanceID)
		default:
			inst.Restore(*sess)
			tokenID = sess.TokenID
		}
	}
	route, _ := view.RouteOf(name)
	src := view.ScopeToToken(inst, tokenID, !view.IsProtected(route))

	ws, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Printf("WARN: websocket upgrade for view %s failed: %v", name, err)
		return
	}
	conn.ws = ws

	writerDone := make(chan struct{})
	go func() {
		defer close(writerDone)
		conn.writeLoop()
	}()

	ctx := c.Request.Context()
	v.Mount(ctx, src)

	conn.readLoop(func(msg view.Message) {
		if err := v.Handle(ctx, msg); err != nil {
			logHandleError(name, msg, err)
		}
	})

	v.Unmount()
	conn.close()
	<-writerDone
	_ = ws.Close()
}

func logHandleError(name string, msg view.Message, err error) {
	switch {
	case errors.Is(err, view.ErrUnknownMessage), errors.Is(err, view.ErrUnknownField):
		log.Printf("WARN: view %s rejected message %q: %v", name, msg.Type, err)
	case errors.Is(err, view.ErrSubmissionInFlight), errors.Is(err, view.ErrNoSession):
		// Rendered state already reflects this.
	default:
		var ve *domain.ValidationError
		if errors.As(err, &ve) {
			return // shown inline
		}
		log.Printf("WARN: view %s failed to handle %q: %v", name, msg.Type, err)
	}
}

// viewConn is the view.Client of one websocket connection. Writes go through
// a single writer goroutine; once closed, outgoing messages are dropped.
type viewConn struct {
	name string
	ws   *websocket.Conn
	send chan []byte

	closeOnce sync.Once
	done      chan struct{}
}

func newViewConn(name string) *viewConn {
	return &viewConn{
		name: name,
		send: make(chan []byte, sendBuffer),
		done: make(chan struct{}),
	}
}

func (c *viewConn) Render(state any) {
	c.enqueue(ServerMessage{Type: "state", View: c.name, State: state})
}

func (c *viewConn) Navigate(route string) {
	c.enqueue(ServerMessage{Type: "navigate", To: route})
}

func (c *viewConn) PostLocalNotification(title, message string) {
	c.enqueue(ServerMessage{Type: "notification", Title: title, Message: message})
}

func (c *viewConn) enqueue(msg ServerMessage) {
	raw, err := json.Marshal(msg)
	if err != nil {
		log.Printf("ERROR: failed to encode %s message for view %s: %v", msg.Type, c.name, err)
		return
	}
	select {
	case c.send <- raw:
	case <-c.done:
	}
}

func (c *viewConn) close() {
	c.closeOnce.Do(func() { close(c.done) })
}

func (c *viewConn) writeLoop() {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case raw := <-c.send:
			_ = c.ws.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.ws.WriteMessage(websocket.TextMessage, raw); err != nil {
				c.close()
				return
			}
		case <-ticker.C:
			_ = c.ws.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.ws.WriteMessage(websocket.PingMessage, nil); err != nil {
				c.close()
				return
			}
		case <-c.done:
			c.flush()
			_ = c.ws.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), time.Now().Add(writeWait))
			return
		}
	}
}

// flush writes what is still queued; a navigate may be among it.
func (c *viewConn) flush() {
	for {
		select {
		case raw := <-c.send:
			_ = c.ws.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.ws.WriteMessage(websocket.TextMessage, raw); err != nil {
				return
			}
		default:
			return
		}
	}
}

// isMalformed reports whether err came from decoding a frame rather than from
// the connection. A truncated frame surfaces as io.ErrUnexpectedEOF.
func isMalformed(err error) bool {
	var syntaxErr *json.SyntaxError
	var typeErr *json.UnmarshalTypeError
	return errors.As(err, &syntaxErr) || errors.As(err, &typeErr) || errors.Is(err, io.ErrUnexpectedEOF)
}

// readLoop hands every client message to handle until the connection closes.
func (c *viewConn) readLoop(handle func(view.Message)) {
	_ = c.ws.SetReadDeadline(time.Now().Add(pongWait))
	c.ws.SetPongHandler(func(string) error {
		return c.ws.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		var msg view.Message
		if err := c.ws.ReadJSON(&msg); err != nil {
			if isMalformed(err) {
				log.Printf("WARN: view %s received malformed message: %v", c.name, err)
				continue
			}
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Printf("WARN: view %s connection closed: %v", c.name, err)
			}
			return
		}
		select {
		case <-c.done:
			return
		default:
		}
		handle(msg)
	}
}
