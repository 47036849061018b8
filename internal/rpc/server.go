package rpc

import (
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/LeJamon/goPropLedger/internal/rpc/rpc_types"
)

// maxRequestBody caps the size of a JSON-RPC request
const maxRequestBody = 1 << 20

// Server handles HTTP JSON-RPC requests
type Server struct {
	registry *rpc_types.MethodRegistry
	timeout  time.Duration
}

// NewServer creates a new RPC server with the given timeout
func NewServer(timeout time.Duration) *Server {
	server := &Server{
		registry: rpc_types.NewMethodRegistry(),
		timeout:  timeout,
	}

	// Register all RPC methods
	registerAllMethods(server.registry)

	return server
}

// Methods lists the registered method names
func (s *Server) Methods() []string {
	return s.registry.List()
}

// Request is a JSON-RPC request.
// Format: {"method": "method_name", "params": [{...}]}
type Request struct {
	Method string            `json:"method"`
	Params []json.RawMessage `json:"params,omitempty"`
}

// ServeHTTP implements http.Handler interface
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.Header().Set("Access-Control-Allow-Methods", "POST, GET, OPTIONS")
	w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
	w.Header().Set("Content-Type", "application/json")

	// Handle preflight requests
	if r.Method == http.MethodOptions {
		w.WriteHeader(http.StatusOK)
		return
	}

	switch r.Method {
	case http.MethodGet:
		// Simple queries like server_info
		s.handleGetRequest(w, r)
	case http.MethodPost:
		s.handlePostRequest(w, r)
	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

func (s *Server) newContext(r *http.Request) *rpc_types.RpcContext {
	ip := getClientIP(r)
	role := roleFor(ip)
	return &rpc_types.RpcContext{
		Context:    r.Context(),
		Role:       role,
		ApiVersion: rpc_types.DefaultApiVersion,
		IsAdmin:    role == rpc_types.RoleAdmin,
		ClientIP:   ip,
	}
}

// handleGetRequest processes GET requests with query parameters
func (s *Server) handleGetRequest(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	method := query.Get("command")
	if method == "" {
		method = "server_info"
	}

	var params json.RawMessage
	fields := make(map[string]string)
	for key, values := range query {
		if key != "command" && len(values) > 0 {
			fields[key] = values[0]
		}
	}
	if len(fields) > 0 {
		params, _ = json.Marshal(fields)
	}

	ctx := s.newContext(r)
	result, rpcErr := s.executeMethod(method, params, ctx)
	s.writeResponse(w, map[string]interface{}{"command": method}, result, rpcErr)
}

// handlePostRequest processes POST requests with a JSON-RPC payload
func (s *Server) handlePostRequest(w http.ResponseWriter, r *http.Request) {
	defer r.Body.Close()
	body, err := io.ReadAll(io.LimitReader(r.Body, maxRequestBody+1))
	if err != nil {
		s.writeError(w, nil, rpc_types.RpcErrorInternal("Failed to read request body"))
		return
	}
	if len(body) > maxRequestBody {
		s.writeError(w, nil, rpc_types.RpcErrorInvalidParams("Request body too large"))
		return
	}

	var request Request
	if err := json.Unmarshal(body, &request); err != nil {
		s.writeError(w, nil, rpc_types.NewRpcError(rpc_types.RpcPARSE_ERROR, "jsonInvalid", "jsonInvalid", "Invalid JSON: "+err.Error()))
		return
	}
	if request.Method == "" {
		s.writeError(w, nil, rpc_types.NewRpcError(rpc_types.RpcMISSING_COMMAND, "missingCommand", "missingCommand", "Missing method field"))
		return
	}

	// Params are an array with one object
	var params json.RawMessage
	if len(request.Params) > 0 {
		params = request.Params[0]
	}

	ctx := s.newContext(r)

	var requestObj map[string]interface{}
	if params != nil {
		if err := json.Unmarshal(params, &requestObj); err == nil {
			if ver, ok := requestObj["api_version"].(float64); ok {
				ctx.ApiVersion = int(ver)
			}
		}
	}
	if requestObj == nil {
		requestObj = make(map[string]interface{})
	}
	requestObj["command"] = request.Method

	result, rpcErr := s.executeMethod(request.Method, params, ctx)
	s.writeResponse(w, requestObj, result, rpcErr)
}

// executeMethod runs a method under the server timeout
func (s *Server) executeMethod(method string, params json.RawMessage, ctx *rpc_types.RpcContext) (interface{}, *rpc_types.RpcError) {
	return execute(s.registry, method, params, ctx, s.timeout)
}

func execute(registry *rpc_types.MethodRegistry, method string, params json.RawMessage, ctx *rpc_types.RpcContext, timeout time.Duration) (interface{}, *rpc_types.RpcError) {
	handler, exists := registry.Get(method)
	if !exists {
		return nil, rpc_types.RpcErrorMethodNotFound(method)
	}

	if ctx.Role < handler.RequiredRole() {
		return nil, rpc_types.NewRpcError(rpc_types.RpcCOMMAND_UNTRUSTED, "commandUntrusted", "commandUntrusted",
			fmt.Sprintf("Method '%s' requires higher privileges", method))
	}

	supported := false
	for _, version := range handler.SupportedApiVersions() {
		if ctx.ApiVersion == version {
			supported = true
			break
		}
	}
	if !supported {
		return nil, rpc_types.RpcErrorInvalidApiVersion(strconv.Itoa(ctx.ApiVersion))
	}

	if timeout > 0 {
		c, cancel := contextWithTimeout(ctx.Context, timeout)
		defer cancel()
		ctx.Context = c
	}
	return handler.Handle(ctx, params)
}

// writeResponse writes a JSON-RPC response: result.status is "success" or
// "error", and errors carry error, error_code and error_message.
func (s *Server) writeResponse(w http.ResponseWriter, request interface{}, result interface{}, rpcErr *rpc_types.RpcError) {
	if rpcErr != nil {
		s.writeError(w, request, rpcErr)
		return
	}

	var resultObj map[string]interface{}
	if resultMap, ok := result.(map[string]interface{}); ok {
		resultObj = resultMap
	} else {
		resultObj = map[string]interface{}{"data": result}
	}
	resultObj["status"] = "success"
	s.write(w, map[string]interface{}{"result": resultObj})
}

// writeError writes an error response
func (s *Server) writeError(w http.ResponseWriter, request interface{}, rpcErr *rpc_types.RpcError) {
	resultObj := map[string]interface{}{
		"status":        "error",
		"error":         rpcErr.ErrorString,
		"error_code":    rpcErr.Code,
		"error_message": rpcErr.Message,
	}
	if request != nil {
		resultObj["request"] = request
	}
	s.write(w, map[string]interface{}{"result": resultObj})
}

func (s *Server) write(w http.ResponseWriter, response map[string]interface{}) {
	responseData, err := json.Marshal(response)
	if err != nil {
		log.Printf("Failed to marshal response: %v", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusOK)
	w.Write(responseData)
}

// getClientIP extracts the client IP from the request
func getClientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		ips := strings.Split(xff, ",")
		return strings.TrimSpace(ips[0])
	}
	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return xri
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

// roleFor grants admin to loopback clients
func roleFor(ip string) rpc_types.Role {
	if parsed := net.ParseIP(ip); parsed != nil && parsed.IsLoopback() {
		return rpc_types.RoleAdmin
	}
	return rpc_types.RoleUser
}
