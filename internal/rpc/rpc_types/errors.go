package rpc_types

// RpcError represents an RPC error with code and message
type RpcError struct {
	Code        int    `json:"error_code"`
	ErrorString string `json:"error"`
	Type        string `json:"type"`
	Message     string `json:"error_message,omitempty"`
}

func (e RpcError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return e.ErrorString
}

// Error codes
const (
	// Universal errors
	RpcMETHOD_NOT_FOUND = -32601
	RpcINVALID_PARAMS   = -32602
	RpcINTERNAL         = -32603
	RpcPARSE_ERROR      = -32700

	// General purpose errors
	RpcGENERAL           = 1
	RpcMISSING_COMMAND   = 2
	RpcCOMMAND_UNTRUSTED = 3
	RpcNO_CURRENT        = 4

	// Account errors
	RpcACT_MALFORMED = 50

	// Subscription errors
	RpcSTREAM_MALFORMED = 26

	// Feature errors
	RpcNOT_ENABLED   = 31
	RpcNOT_SUPPORTED = 32

	RpcINVALID_API_VERSION = 38

	// Object errors
	RpcOBJECT_NOT_FOUND = 92
)

// NewRpcError builds an error
func NewRpcError(code int, error, errorType, message string) *RpcError {
	return &RpcError{
		Code:        code,
		ErrorString: error,
		Type:        errorType,
		Message:     message,
	}
}

func RpcErrorInvalidParams(message string) *RpcError {
	return NewRpcError(RpcINVALID_PARAMS, "invalidParams", "invalidParams", message)
}

func RpcErrorMethodNotFound(method string) *RpcError {
	return NewRpcError(RpcMETHOD_NOT_FOUND, "unknownCmd", "unknownCmd", "Unknown method: "+method)
}

func RpcErrorInternal(message string) *RpcError {
	return NewRpcError(RpcINTERNAL, "internal", "internal", message)
}

func RpcErrorNoCurrent(message string) *RpcError {
	return NewRpcError(RpcNO_CURRENT, "noCurrent", "noCurrent", message)
}

func RpcErrorNotEnabled(feature string) *RpcError {
	return NewRpcError(RpcNOT_ENABLED, "notEnabled", "notEnabled", "Feature not enabled: "+feature)
}

func RpcErrorNotSupported(message string) *RpcError {
	return NewRpcError(RpcNOT_SUPPORTED, "notSupported", "notSupported", message)
}

func RpcErrorInvalidApiVersion(version string) *RpcError {
	return NewRpcError(RpcINVALID_API_VERSION, "invalidApiVersion", "invalidApiVersion", "Invalid API version: "+version)
}

func RpcErrorActMalformed(message string) *RpcError {
	return NewRpcError(RpcACT_MALFORMED, "actMalformed", "actMalformed", message)
}

func RpcErrorStreamMalformed(message string) *RpcError {
	return NewRpcError(RpcSTREAM_MALFORMED, "malformedStream", "malformedStream", message)
}

// RpcErrorObjectNotFound returns an error for a missing asset, listing, offer or registration
func RpcErrorObjectNotFound(message string) *RpcError {
	return NewRpcError(RpcOBJECT_NOT_FOUND, "objectNotFound", "objectNotFound", message)
}

// RpcErrorMissingField returns an error for a missing required field
func RpcErrorMissingField(field string) *RpcError {
	return NewRpcError(RpcINVALID_PARAMS, "invalidParams", "invalidParams", "Missing field '"+field+"'.")
}
