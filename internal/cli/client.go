package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/LeJamon/goPropLedger/internal/core/account"
	"github.com/LeJamon/goPropLedger/internal/core/tx"
)

// rpcClient calls a node's JSON-RPC endpoint.
type rpcClient struct {
	url  string
	http *http.Client
}

func newRPCClient(url string, timeout time.Duration) *rpcClient {
	if !strings.Contains(url, "://") {
		url = "http://" + url
	}
	return &rpcClient{url: url, http: &http.Client{Timeout: timeout}}
}

// rpcError is an error result returned by the node.
type rpcError struct {
	Code    string
	Message string
}

func (e *rpcError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("%s: %s", e.Code, e.Message)
	}
	return e.Code
}

// Call sends one request and returns its result object.
func (c *rpcClient) Call(ctx context.Context, method string, params interface{}) (map[string]interface{}, error) {
	req := map[string]interface{}{"method": method}
	if params != nil {
		req["params"] = []interface{}{params}
	}
	body, err := json.Marshal(req)
	if err != nil {
		return nil, err
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%s: %s", resp.Status, strings.TrimSpace(string(data)))
	}

	var out struct {
		Result map[string]interface{} `json:"result"`
	}
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	if out.Result["status"] == "error" {
		code, _ := out.Result["error"].(string)
		msg, _ := out.Result["error_message"].(string)
		return nil, &rpcError{Code: code, Message: msg}
	}
	return out.Result, nil
}

// Submit implements Submitter over the submit method.
func (c *rpcClient) Submit(ctx context.Context, t tx.Transaction) (*tx.ApplyResult, error) {
	txJSON, err := json.Marshal(t)
	if err != nil {
		return nil, err
	}
	result, err := c.Call(ctx, "submit", map[string]interface{}{"tx_json": json.RawMessage(txJSON)})
	if err != nil {
		return nil, err
	}

	code, ok := result["engine_result_code"].(float64)
	if !ok {
		return nil, fmt.Errorf("submit response has no engine_result_code")
	}
	res := &tx.ApplyResult{Result: tx.Result(int(code))}
	res.Applied, _ = result["applied"].(bool)
	res.Hash, _ = result["tx_hash"].(string)
	res.Message, _ = result["engine_result_message"].(string)
	return res, nil
}

// NextSequence implements Submitter over the balance method.
func (c *rpcClient) NextSequence(ctx context.Context, acct account.ID) (uint64, error) {
	result, err := c.Call(ctx, "balance", map[string]interface{}{"account": acct.String()})
	if err != nil {
		return 0, err
	}
	seq, ok := result["sequence"].(float64)
	if !ok {
		return 0, fmt.Errorf("balance response has no sequence")
	}
	return uint64(seq), nil
}
