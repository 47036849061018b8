package rpc_types

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"sync"

	"github.com/LeJamon/goPropLedger/internal/core/account"
	"github.com/LeJamon/goPropLedger/internal/core/tx"
)

// API Version constants
const (
	ApiVersion1       = 1
	ApiVersion2       = 2
	DefaultApiVersion = ApiVersion1
)

// Role-based access control
type Role int

const (
	RoleGuest Role = iota
	RoleUser
	RoleAdmin
)

// RPC Context contains request-specific information
type RpcContext struct {
	Context    context.Context
	Role       Role
	ApiVersion int
	IsAdmin    bool
	ClientIP   string
}

// Method handler interface - all RPC methods implement this
type MethodHandler interface {
	Handle(ctx *RpcContext, params json.RawMessage) (interface{}, *RpcError)
	RequiredRole() Role
	SupportedApiVersions() []int
}

// Method registry for dynamic method registration
type MethodRegistry struct {
	mu      sync.RWMutex
	methods map[string]MethodHandler
}

func NewMethodRegistry() *MethodRegistry {
	return &MethodRegistry{
		methods: make(map[string]MethodHandler),
	}
}

func (r *MethodRegistry) Register(name string, handler MethodHandler) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.methods[name] = handler
}

func (r *MethodRegistry) Get(name string) (MethodHandler, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	handler, exists := r.methods[name]
	return handler, exists
}

// List returns the registered method names in sorted order
func (r *MethodRegistry) List() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	methods := make([]string, 0, len(r.methods))
	for name := range r.methods {
		methods = append(methods, name)
	}
	sort.Strings(methods)
	return methods
}

// AssetID is an asset id that unmarshals from either a JSON number or a decimal string
type AssetID uint64

// UnmarshalJSON implements custom unmarshaling for AssetID
func (a *AssetID) UnmarshalJSON(data []byte) error {
	var strVal string
	if err := json.Unmarshal(data, &strVal); err == nil {
		n, err := strconv.ParseUint(strVal, 10, 64)
		if err != nil {
			return fmt.Errorf("asset_id must be a non-negative integer, got: %q", strVal)
		}
		*a = AssetID(n)
		return nil
	}

	var numVal uint64
	if err := json.Unmarshal(data, &numVal); err == nil {
		*a = AssetID(numVal)
		return nil
	}
	return fmt.Errorf("asset_id must be a number or string, got: %s", string(data))
}

// WebSocket specific structures
type WebSocketCommand struct {
	Command    string          `json:"command"`
	ID         interface{}     `json:"id,omitempty"`
	ApiVersion *int            `json:"api_version,omitempty"`
	Params     json.RawMessage `json:"-"`
}

// WebSocketResponse represents a WebSocket API response
type WebSocketResponse struct {
	Status       string      `json:"status"`
	Type         string      `json:"type"`
	Result       interface{} `json:"result,omitempty"`
	ID           interface{} `json:"id,omitempty"`
	ApiVersion   int         `json:"api_version,omitempty"`
	Error        string      `json:"error,omitempty"`
	ErrorCode    int         `json:"error_code,omitempty"`
	ErrorMessage string      `json:"error_message,omitempty"`
}

// Subscription types for WebSocket streams
type SubscriptionType string

const (
	SubMarket SubscriptionType = tx.StreamMarket
	SubYield  SubscriptionType = tx.StreamYield
	SubAdmin  SubscriptionType = tx.StreamAdmin
	SubAsset  SubscriptionType = tx.StreamAsset
	SubToken  SubscriptionType = tx.StreamToken

	// SubEvents receives every committed event
	SubEvents SubscriptionType = "events"

	// SubAccounts receives events involving the subscribed accounts
	SubAccounts SubscriptionType = "accounts"
)

// validStreams contains the set of stream names a client may subscribe to
var validStreams = map[SubscriptionType]bool{
	SubMarket: true,
	SubYield:  true,
	SubAdmin:  true,
	SubAsset:  true,
	SubToken:  true,
	SubEvents: true,
}

// Subscription request structure
type SubscriptionRequest struct {
	Streams  []SubscriptionType `json:"streams,omitempty"`
	Accounts []string           `json:"accounts,omitempty"`
}

// EventMessage is the stream message for one committed event
type EventMessage struct {
	Type  string   `json:"type"`
	Event tx.Event `json:"event"`
}

// NewEventMessage wraps ev for the stream
func NewEventMessage(ev tx.Event) *EventMessage {
	return &EventMessage{Type: "event", Event: ev}
}

// AccountParam is the account parameter shared by account methods
type AccountParam struct {
	Account string `json:"account"`
}

// AssetParam is the asset parameter shared by asset methods
type AssetParam struct {
	AssetID *AssetID `json:"asset_id"`
}

// Connection represents a WebSocket connection for subscription management
type Connection struct {
	ID            string
	Subscriptions map[SubscriptionType]bool
	Accounts      map[account.ID]bool
	SendChannel   chan []byte
}

// NewConnection creates a connection with empty subscriptions
func NewConnection(id string, send chan []byte) *Connection {
	return &Connection{
		ID:            id,
		Subscriptions: make(map[SubscriptionType]bool),
		Accounts:      make(map[account.ID]bool),
		SendChannel:   send,
	}
}

// SubscriptionManager manages WebSocket subscriptions
type SubscriptionManager struct {
	mu          sync.RWMutex
	connections map[string]*Connection
	dropped     uint64
}

// NewSubscriptionManager creates a new SubscriptionManager
func NewSubscriptionManager() *SubscriptionManager {
	return &SubscriptionManager{
		connections: make(map[string]*Connection),
	}
}

// AddConnection adds a connection to the subscription manager
func (sm *SubscriptionManager) AddConnection(conn *Connection) {
	sm.mu.Lock()
	defer sm.mu.Unlock()
	sm.connections[conn.ID] = conn
}

// RemoveConnection removes a connection from the subscription manager
func (sm *SubscriptionManager) RemoveConnection(connID string) {
	sm.mu.Lock()
	defer sm.mu.Unlock()
	delete(sm.connections, connID)
}

func parseAccounts(accounts []string) ([]account.ID, *RpcError) {
	ids := make([]account.ID, 0, len(accounts))
	for _, acc := range accounts {
		id, err := account.Parse(acc)
		if err != nil {
			return nil, RpcErrorActMalformed("Invalid account address: " + acc)
		}
		ids = append(ids, id)
	}
	return ids, nil
}

// HandleSubscribe validates request and adds it to the connection. Nothing is
// added when any stream or account is invalid.
func (sm *SubscriptionManager) HandleSubscribe(connID string, request SubscriptionRequest) *RpcError {
	if len(request.Streams) == 0 && len(request.Accounts) == 0 {
		return RpcErrorInvalidParams("Either streams or accounts must be provided")
	}
	for _, stream := range request.Streams {
		if !validStreams[stream] {
			return RpcErrorStreamMalformed("Unknown stream type: " + string(stream))
		}
	}
	ids, rpcErr := parseAccounts(request.Accounts)
	if rpcErr != nil {
		return rpcErr
	}

	sm.mu.Lock()
	defer sm.mu.Unlock()
	conn := sm.connections[connID]
	if conn == nil {
		return RpcErrorInternal("Unknown connection: " + connID)
	}
	for _, stream := range request.Streams {
		conn.Subscriptions[stream] = true
	}
	for _, id := range ids {
		conn.Accounts[id] = true
	}
	if len(conn.Accounts) > 0 {
		conn.Subscriptions[SubAccounts] = true
	}
	return nil
}

// HandleUnsubscribe removes streams and accounts from the connection
func (sm *SubscriptionManager) HandleUnsubscribe(connID string, request SubscriptionRequest) *RpcError {
	ids, rpcErr := parseAccounts(request.Accounts)
	if rpcErr != nil {
		return rpcErr
	}

	sm.mu.Lock()
	defer sm.mu.Unlock()
	conn := sm.connections[connID]
	if conn == nil {
		return RpcErrorInternal("Unknown connection: " + connID)
	}
	for _, stream := range request.Streams {
		delete(conn.Subscriptions, stream)
	}
	for _, id := range ids {
		delete(conn.Accounts, id)
	}
	if len(conn.Accounts) == 0 {
		delete(conn.Subscriptions, SubAccounts)
	}
	return nil
}

// BroadcastEvent sends data to every connection subscribed to the event's
// stream, to all events, or to one of its accounts. Each connection receives
// the message at most once.
func (sm *SubscriptionManager) BroadcastEvent(ev tx.Event, data []byte) {
	sm.mu.Lock()
	defer sm.mu.Unlock()
	for _, conn := range sm.connections {
		if !sm.wants(conn, ev) {
			continue
		}
		select {
		case conn.SendChannel <- data:
		default:
			// Channel full, skip
			sm.dropped++
		}
	}
}

func (sm *SubscriptionManager) wants(conn *Connection, ev tx.Event) bool {
	if conn.Subscriptions[SubEvents] || conn.Subscriptions[SubscriptionType(ev.Stream)] {
		return true
	}
	for _, acct := range ev.Accounts {
		if conn.Accounts[acct] {
			return true
		}
	}
	return false
}

// GetSubscriberCount returns the number of subscribers for a stream type
func (sm *SubscriptionManager) GetSubscriberCount(streamType SubscriptionType) int {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	count := 0
	for _, conn := range sm.connections {
		if conn.Subscriptions[streamType] {
			count++
		}
	}
	return count
}

// ConnectionCount returns the number of active connections
func (sm *SubscriptionManager) ConnectionCount() int {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	return len(sm.connections)
}

// Dropped returns the number of messages skipped because a client was too slow
func (sm *SubscriptionManager) Dropped() uint64 {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	return sm.dropped
}

// IsSubscribed checks if a connection is subscribed to a stream type
func (sm *SubscriptionManager) IsSubscribed(connID string, streamType SubscriptionType) bool {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	conn := sm.connections[connID]
	return conn != nil && conn.Subscriptions[streamType]
}
