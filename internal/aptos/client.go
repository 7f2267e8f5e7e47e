package aptos

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/vultisig/aptos-capability/internal/status"
)

const signedTransactionContentType = "application/x.aptos.signed_transaction+bcs"

var (
	ErrAccountNotFound    = errors.New("aptos: account not found")
	ErrHashMismatch       = errors.New("aptos: node returned unexpected transaction hash")
	ErrTransactionExpired = errors.New("aptos: transaction expired before commit")
)

// APIError is a non-2xx answer from the node REST API.
type APIError struct {
	StatusCode  int    `json:"-"`
	Message     string `json:"message"`
	ErrorCode   string `json:"error_code"`
	VMErrorCode int    `json:"vm_error_code"`
}

func (e *APIError) Error() string {
	if e.ErrorCode != "" {
		return fmt.Sprintf("aptos: api error %d (%s): %s", e.StatusCode, e.ErrorCode, e.Message)
	}
	return fmt.Sprintf("aptos: api error %d: %s", e.StatusCode, e.Message)
}

// VMError is returned when a transaction was committed but aborted.
type VMError struct {
	Hash     string
	Version  uint64
	VMStatus string
}

func (e *VMError) Error() string {
	return fmt.Sprintf("aptos: transaction %s failed: %s", e.Hash, e.VMStatus)
}

// TxOptions are the gas and expiry settings of outgoing transactions.
type TxOptions struct {
	MaxGasAmount  uint64
	GasUnitPrice  uint64
	ExpirationTTL time.Duration
}

func DefaultTxOptions() TxOptions {
	return TxOptions{
		MaxGasAmount:  200_000,
		GasUnitPrice:  100,
		ExpirationTTL: 10 * time.Minute,
	}
}

// TransactionResult describes a committed transaction.
type TransactionResult struct {
	Hash     string
	Version  uint64
	Success  bool
	VMStatus string
	GasUsed  uint64
}

// Client talks to an Aptos fullnode REST API (v1).
// A submitted transaction is polled until expiryGrace after its expiration
// timestamp.
type Client struct {
	baseURL     string
	httpClient  *http.Client
	opts        TxOptions
	status      *status.Status
	now         func() time.Time
	expiryGrace time.Duration
}

// NewClient creates a client for the node at baseURL, e.g.
// https://fullnode.devnet.aptoslabs.com.
func NewClient(baseURL string, opts TxOptions) *Client {
	c := &Client{
		baseURL: strings.TrimSuffix(strings.TrimSuffix(baseURL, "/"), "/v1"),
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		opts:        opts,
		now:         time.Now,
		expiryGrace: 5 * time.Second,
	}
	c.status = status.NewStatus(c)
	return c
}

// WithPollInterval changes how often confirmation status is polled.
func (c *Client) WithPollInterval(interval time.Duration) *Client {
	c.status = c.status.WithInterval(interval)
	return c
}

type ledgerInfo struct {
	ChainID       uint8  `json:"chain_id"`
	LedgerVersion string `json:"ledger_version"`
}

type accountResource struct {
	SequenceNumber    string `json:"sequence_number"`
	AuthenticationKey string `json:"authentication_key"`
}

type submitResponse struct {
	Hash string `json:"hash"`
}

// TransactionInfo is the subset of the node's transaction view we read.
type TransactionInfo struct {
	Type     string `json:"type"`
	Hash     string `json:"hash"`
	Version  string `json:"version"`
	Success  bool   `json:"success"`
	VMStatus string `json:"vm_status"`
	GasUsed  string `json:"gas_used"`
}

func (t TransactionInfo) IsPending() bool {
	return t.Type == "pending_transaction"
}

func (c *Client) do(ctx context.Context, method, path, contentType string, body []byte, out any) error {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+"/v1"+path, reader)
	if err != nil {
		return fmt.Errorf("aptos: failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("aptos: failed to make request: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("aptos: failed to read response body: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := &APIError{StatusCode: resp.StatusCode}
		if er := json.Unmarshal(respBody, apiErr); er != nil || apiErr.Message == "" {
			apiErr.Message = strings.TrimSpace(string(respBody))
		}
		return apiErr
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(respBody, out); err != nil {
		return fmt.Errorf("aptos: failed to decode response: %w", err)
	}
	return nil
}

// GetChainID returns the chain id reported by the node's ledger info.
func (c *Client) GetChainID(ctx context.Context) (uint8, error) {
	var info ledgerInfo
	if err := c.do(ctx, http.MethodGet, "", "", nil, &info); err != nil {
		return 0, fmt.Errorf("aptos: failed to get ledger info: %w", err)
	}
	return info.ChainID, nil
}

// GetAccountSequenceNumber returns the current on-chain sequence number.
func (c *Client) GetAccountSequenceNumber(ctx context.Context, addr AccountAddress) (uint64, error) {
	var acc accountResource
	err := c.do(ctx, http.MethodGet, "/accounts/"+addr.String(), "", nil, &acc)
	if err != nil {
		var apiErr *APIError
		if errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusNotFound {
			return 0, fmt.Errorf("%w: %s", ErrAccountNotFound, addr)
		}
		return 0, fmt.Errorf("aptos: failed to get account %s: %w", addr, err)
	}

	seq, err := strconv.ParseUint(acc.SequenceNumber, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("aptos: failed to parse sequence number %q: %w", acc.SequenceNumber, err)
	}
	return seq, nil
}

// SubmitTransaction posts a BCS-encoded signed transaction and returns its
// hash. The node's answer must match the locally computed hash.
func (c *Client) SubmitTransaction(ctx context.Context, signed SignedTransaction) (string, error) {
	body, err := signed.Bytes()
	if err != nil {
		return "", err
	}
	hash := transactionHash(body)

	var resp submitResponse
	if err := c.do(ctx, http.MethodPost, "/transactions", signedTransactionContentType, body, &resp); err != nil {
		return "", fmt.Errorf("aptos: failed to submit transaction: %w", err)
	}
	if !strings.EqualFold(resp.Hash, hash) {
		return "", fmt.Errorf("%w: got %s, want %s", ErrHashMismatch, resp.Hash, hash)
	}
	return hash, nil
}

func (c *Client) GetTransactionByHash(ctx context.Context, hash string) (TransactionInfo, error) {
	var info TransactionInfo
	err := c.do(ctx, http.MethodGet, "/transactions/by_hash/"+url.PathEscape(hash), "", nil, &info)
	if err != nil {
		return TransactionInfo{}, err
	}
	return info, nil
}

// GetTxStatus maps the node's view of a transaction onto a poll status. A
// transaction the node does not know yet counts as pending.
func (c *Client) GetTxStatus(ctx context.Context, hash string) (status.TxOnChainStatus, error) {
	info, err := c.GetTransactionByHash(ctx, hash)
	if err != nil {
		var apiErr *APIError
		if errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusNotFound {
			return status.TxOnChainPending, nil
		}
		return "", fmt.Errorf("aptos: failed to get transaction %s: %w", hash, err)
	}

	switch {
	case info.IsPending():
		return status.TxOnChainPending, nil
	case info.Success:
		return status.TxOnChainSuccess, nil
	default:
		return status.TxOnChainFail, nil
	}
}

// WaitForTransaction blocks until hash is committed and returns its outcome.
// An aborted transaction is reported as *VMError.
func (c *Client) WaitForTransaction(ctx context.Context, hash string) (TransactionResult, error) {
	if _, err := c.status.WaitMined(ctx, hash); err != nil {
		return TransactionResult{}, fmt.Errorf("aptos: failed to wait for transaction %s: %w", hash, err)
	}

	info, err := c.GetTransactionByHash(ctx, hash)
	if err != nil {
		return TransactionResult{}, fmt.Errorf("aptos: failed to get transaction %s: %w", hash, err)
	}

	version, err := strconv.ParseUint(info.Version, 10, 64)
	if err != nil {
		return TransactionResult{}, fmt.Errorf("aptos: failed to parse version %q of %s: %w", info.Version, hash, err)
	}
	gasUsed, err := strconv.ParseUint(info.GasUsed, 10, 64)
	if err != nil {
		return TransactionResult{}, fmt.Errorf("aptos: failed to parse gas used %q of %s: %w", info.GasUsed, hash, err)
	}

	res := TransactionResult{
		Hash:     info.Hash,
		Version:  version,
		Success:  info.Success,
		VMStatus: info.VMStatus,
		GasUsed:  gasUsed,
	}

	if !res.Success {
		return res, &VMError{Hash: res.Hash, Version: res.Version, VMStatus: res.VMStatus}
	}
	return res, nil
}

// BuildTransaction fills in a raw transaction for sender with a freshly read
// sequence number and chain id.
func (c *Client) BuildTransaction(ctx context.Context, sender AccountAddress, payload EntryFunction) (RawTransaction, error) {
	seq, err := c.GetAccountSequenceNumber(ctx, sender)
	if err != nil {
		return RawTransaction{}, err
	}

	chainID, err := c.GetChainID(ctx)
	if err != nil {
		return RawTransaction{}, err
	}

	return RawTransaction{
		Sender:                  sender,
		SequenceNumber:          seq,
		Payload:                 payload,
		MaxGasAmount:            c.opts.MaxGasAmount,
		GasUnitPrice:            c.opts.GasUnitPrice,
		ExpirationTimestampSecs: uint64(c.now().Add(c.opts.ExpirationTTL).Unix()),
		ChainID:                 chainID,
	}, nil
}

// SubmitAndConfirm builds, signs, submits and waits for an entry function
// call sent by signer.
func (c *Client) SubmitAndConfirm(ctx context.Context, signer Signer, payload EntryFunction) (TransactionResult, error) {
	raw, err := c.BuildTransaction(ctx, signer.Address(), payload)
	if err != nil {
		return TransactionResult{}, fmt.Errorf("failed to build transaction: %w", err)
	}

	signed, err := SignTransaction(signer, raw)
	if err != nil {
		return TransactionResult{}, err
	}

	hash, err := c.SubmitTransaction(ctx, signed)
	if err != nil {
		return TransactionResult{}, err
	}

	// Past its expiration the node drops the transaction instead of committing it.
	deadline := time.Unix(int64(raw.ExpirationTimestampSecs), 0).Add(c.expiryGrace)
	waitCtx, cancel := context.WithDeadline(ctx, deadline)
	defer cancel()

	res, err := c.WaitForTransaction(waitCtx, hash)
	if err != nil && ctx.Err() == nil && errors.Is(waitCtx.Err(), context.DeadlineExceeded) {
		return TransactionResult{}, fmt.Errorf("%w: %s", ErrTransactionExpired, hash)
	}
	return res, err
}
