package rpc

import (
	"context"
	"encoding/json"
	"log"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/LeJamon/goPropLedger/internal/rpc/rpc_types"
)

const (
	maxMessageSize = 512 * 1024
	pongWait       = 60 * time.Second
	pingPeriod     = 54 * time.Second
	writeWait      = 10 * time.Second
	sendBuffer     = 256
)

// WebSocketServer handles WebSocket connections for commands and event streams
type WebSocketServer struct {
	upgrader            websocket.Upgrader
	subscriptionManager *rpc_types.SubscriptionManager
	methodRegistry      *rpc_types.MethodRegistry
	connections         map[string]*WebSocketConnection
	connectionsMutex    sync.RWMutex
	timeout             time.Duration
}

// WebSocketConnection represents a single WebSocket connection
type WebSocketConnection struct {
	ID          string
	conn        *websocket.Conn
	sendChannel chan []byte
	ctx         context.Context
	cancel      context.CancelFunc
	closeOnce   sync.Once
	clientIP    string
}

// NewWebSocketServer creates a new WebSocket server
func NewWebSocketServer(timeout time.Duration) *WebSocketServer {
	ws := &WebSocketServer{
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
		},
		subscriptionManager: rpc_types.NewSubscriptionManager(),
		methodRegistry:      rpc_types.NewMethodRegistry(),
		connections:         make(map[string]*WebSocketConnection),
		timeout:             timeout,
	}
	registerAllMethods(ws.methodRegistry)
	return ws
}

// Subscriptions returns the subscription manager the publisher broadcasts through
func (ws *WebSocketServer) Subscriptions() *rpc_types.SubscriptionManager {
	return ws.subscriptionManager
}

// ConnectionCount returns the number of open connections
func (ws *WebSocketServer) ConnectionCount() int {
	ws.connectionsMutex.RLock()
	defer ws.connectionsMutex.RUnlock()
	return len(ws.connections)
}

// ServeHTTP handles WebSocket upgrade requests
func (ws *WebSocketServer) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := ws.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("WebSocket upgrade failed: %v", err)
		return
	}

	// The connection outlives the upgrade request
	ctx, cancel := context.WithCancel(context.Background())
	wsConn := &WebSocketConnection{
		ID:          uuid.NewString(),
		conn:        conn,
		sendChannel: make(chan []byte, sendBuffer),
		ctx:         ctx,
		cancel:      cancel,
		clientIP:    getWebSocketClientIP(conn),
	}

	ws.connectionsMutex.Lock()
	ws.connections[wsConn.ID] = wsConn
	ws.connectionsMutex.Unlock()
	ws.subscriptionManager.AddConnection(rpc_types.NewConnection(wsConn.ID, wsConn.sendChannel))

	go ws.handleConnection(wsConn)
	go ws.handleSend(wsConn)
}

// handleConnection reads commands until the connection fails
func (ws *WebSocketServer) handleConnection(wsConn *WebSocketConnection) {
	defer ws.closeConnection(wsConn)

	wsConn.conn.SetReadLimit(maxMessageSize)
	wsConn.conn.SetReadDeadline(time.Now().Add(pongWait))
	wsConn.conn.SetPongHandler(func(string) error {
		wsConn.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, message, err := wsConn.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Printf("WebSocket error: %v", err)
			}
			return
		}
		ws.handleMessage(wsConn, message)
	}
}

// handleSend writes queued messages and keeps the connection alive with pings
func (ws *WebSocketServer) handleSend(wsConn *WebSocketConnection) {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-wsConn.ctx.Done():
			return
		case <-ticker.C:
			wsConn.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := wsConn.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				log.Printf("WebSocket ping failed: %v", err)
				ws.closeConnection(wsConn)
				return
			}
		case message := <-wsConn.sendChannel:
			wsConn.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := wsConn.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				log.Printf("WebSocket send failed: %v", err)
				ws.closeConnection(wsConn)
				return
			}
		}
	}
}

// handleMessage processes a single command. Command, id and api_version sit at
// the top level next to the method parameters.
func (ws *WebSocketServer) handleMessage(wsConn *WebSocketConnection, message []byte) {
	var cmdMap map[string]interface{}
	if err := json.Unmarshal(message, &cmdMap); err != nil {
		ws.sendError(wsConn, rpc_types.RpcErrorInvalidParams("Invalid JSON: "+err.Error()), nil)
		return
	}

	id := cmdMap["id"]
	command, ok := cmdMap["command"].(string)
	if !ok || command == "" {
		ws.sendError(wsConn, rpc_types.NewRpcError(rpc_types.RpcMISSING_COMMAND, "missingCommand", "missingCommand", "Missing command field"), id)
		return
	}
	cmd := rpc_types.WebSocketCommand{Command: command, ID: id}
	delete(cmdMap, "command")
	delete(cmdMap, "id")

	apiVersion := rpc_types.DefaultApiVersion
	if ver, ok := cmdMap["api_version"].(float64); ok {
		apiVersion = int(ver)
	}
	delete(cmdMap, "api_version")

	if len(cmdMap) > 0 {
		cmd.Params, _ = json.Marshal(cmdMap)
	}

	role := roleFor(wsConn.clientIP)
	rpcCtx := &rpc_types.RpcContext{
		Context:    wsConn.ctx,
		Role:       role,
		ApiVersion: apiVersion,
		IsAdmin:    role == rpc_types.RoleAdmin,
		ClientIP:   wsConn.clientIP,
	}

	switch cmd.Command {
	case "subscribe":
		ws.handleSubscribe(wsConn, rpcCtx, cmd)
	case "unsubscribe":
		ws.handleUnsubscribe(wsConn, rpcCtx, cmd)
	default:
		ws.handleRPCMethod(wsConn, rpcCtx, cmd)
	}
}

func parseSubscription(cmd rpc_types.WebSocketCommand) (rpc_types.SubscriptionRequest, *rpc_types.RpcError) {
	var request rpc_types.SubscriptionRequest
	if len(cmd.Params) > 0 {
		if err := json.Unmarshal(cmd.Params, &request); err != nil {
			return request, rpc_types.RpcErrorInvalidParams("Invalid subscription parameters")
		}
	}
	return request, nil
}

// handleSubscribe processes subscribe commands
func (ws *WebSocketServer) handleSubscribe(wsConn *WebSocketConnection, ctx *rpc_types.RpcContext, cmd rpc_types.WebSocketCommand) {
	request, rpcErr := parseSubscription(cmd)
	if rpcErr == nil {
		rpcErr = ws.subscriptionManager.HandleSubscribe(wsConn.ID, request)
	}
	if rpcErr != nil {
		ws.sendError(wsConn, rpcErr, cmd.ID)
		return
	}
	ws.sendResponse(wsConn, rpc_types.WebSocketResponse{
		Type:       "response",
		ID:         cmd.ID,
		Status:     "success",
		Result:     map[string]interface{}{"subscribed": true},
		ApiVersion: ctx.ApiVersion,
	})
}

// handleUnsubscribe processes unsubscribe commands
func (ws *WebSocketServer) handleUnsubscribe(wsConn *WebSocketConnection, ctx *rpc_types.RpcContext, cmd rpc_types.WebSocketCommand) {
	request, rpcErr := parseSubscription(cmd)
	if rpcErr == nil {
		rpcErr = ws.subscriptionManager.HandleUnsubscribe(wsConn.ID, request)
	}
	if rpcErr != nil {
		ws.sendError(wsConn, rpcErr, cmd.ID)
		return
	}
	ws.sendResponse(wsConn, rpc_types.WebSocketResponse{
		Type:       "response",
		ID:         cmd.ID,
		Status:     "success",
		Result:     map[string]interface{}{"unsubscribed": true},
		ApiVersion: ctx.ApiVersion,
	})
}

// handleRPCMethod processes regular RPC method calls over WebSocket
func (ws *WebSocketServer) handleRPCMethod(wsConn *WebSocketConnection, ctx *rpc_types.RpcContext, cmd rpc_types.WebSocketCommand) {
	result, rpcErr := execute(ws.methodRegistry, cmd.Command, cmd.Params, ctx, ws.timeout)
	if rpcErr != nil {
		ws.sendError(wsConn, rpcErr, cmd.ID)
		return
	}
	ws.sendResponse(wsConn, rpc_types.WebSocketResponse{
		Type:       "response",
		ID:         cmd.ID,
		Status:     "success",
		Result:     result,
		ApiVersion: ctx.ApiVersion,
	})
}

// sendResponse sends a WebSocket response
func (ws *WebSocketServer) sendResponse(wsConn *WebSocketConnection, response rpc_types.WebSocketResponse) {
	data, err := json.Marshal(response)
	if err != nil {
		log.Printf("Failed to marshal WebSocket response: %v", err)
		return
	}
	ws.enqueue(wsConn, data)
}

// sendError sends an error response with flat error fields
func (ws *WebSocketServer) sendError(wsConn *WebSocketConnection, rpcErr *rpc_types.RpcError, id interface{}) {
	ws.sendResponse(wsConn, rpc_types.WebSocketResponse{
		Type:         "response",
		ID:           id,
		Status:       "error",
		Error:        rpcErr.ErrorString,
		ErrorCode:    rpcErr.Code,
		ErrorMessage: rpcErr.Message,
	})
}

func (ws *WebSocketServer) enqueue(wsConn *WebSocketConnection, data []byte) {
	select {
	case wsConn.sendChannel <- data:
	case <-wsConn.ctx.Done():
	default:
		// Channel full, close connection
		log.Printf("WebSocket send channel full, closing connection %s", wsConn.ID)
		ws.closeConnection(wsConn)
	}
}

// closeConnection closes a WebSocket connection once
func (ws *WebSocketServer) closeConnection(wsConn *WebSocketConnection) {
	wsConn.closeOnce.Do(func() {
		wsConn.cancel()

		ws.connectionsMutex.Lock()
		delete(ws.connections, wsConn.ID)
		ws.connectionsMutex.Unlock()

		ws.subscriptionManager.RemoveConnection(wsConn.ID)
		wsConn.conn.Close()
	})
}

// Close closes every open connection
func (ws *WebSocketServer) Close() {
	ws.connectionsMutex.RLock()
	conns := make([]*WebSocketConnection, 0, len(ws.connections))
	for _, c := range ws.connections {
		conns = append(conns, c)
	}
	ws.connectionsMutex.RUnlock()
	for _, c := range conns {
		ws.closeConnection(c)
	}
}

func getWebSocketClientIP(conn *websocket.Conn) string {
	remoteAddr := conn.RemoteAddr().String()
	host, _, err := net.SplitHostPort(remoteAddr)
	if err != nil {
		return remoteAddr
	}
	return host
}
