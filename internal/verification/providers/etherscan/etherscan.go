// Package etherscan backs the transaction-history port with the Etherscan
// account API.
package etherscan

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/go-resty/resty/v2"

	"tokengate/internal/verification/ports"
)

const defaultBaseURL = "https://api.etherscan.io"

// Client implements ports.TransactionHistoryProvider.
type Client struct {
	http   *resty.Client
	apiKey string
}

var _ ports.TransactionHistoryProvider = (*Client)(nil)

func New(apiKey string) *Client {
	return NewWithBaseURL(apiKey, defaultBaseURL)
}

// NewWithBaseURL exists for tests pointing at a local server.
func NewWithBaseURL(apiKey, baseURL string) *Client {
	return &Client{
		http:   resty.New().SetBaseURL(baseURL),
		apiKey: apiKey,
	}
}

type txListResponse struct {
	Status string `json:"status"`
	Result []struct {
		TimeStamp string `json:"timeStamp"`
	} `json:"result"`
}

// History fetches the wallet's transaction list and summarizes it. FirstSeen
// is taken from the earliest returned transaction; the list is requested in
// ascending order so that is the first element.
func (c *Client) History(ctx context.Context, walletAddress string) (ports.TxHistory, error) {
	var out txListResponse
	resp, err := c.http.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{
			"module":     "account",
			"action":     "txlist",
			"address":    walletAddress,
			"startblock": "0",
			"endblock":   "99999999",
			"sort":       "asc",
			"apikey":     c.apiKey,
		}).
		SetResult(&out).
		Get("/api")
	if err != nil {
		return ports.TxHistory{}, fmt.Errorf("etherscan txlist: %w", err)
	}
	if resp.IsError() {
		return ports.TxHistory{}, fmt.Errorf("etherscan txlist: status %d", resp.StatusCode())
	}

	history := ports.TxHistory{Count: len(out.Result)}
	if len(out.Result) > 0 {
		ts, perr := strconv.ParseInt(out.Result[0].TimeStamp, 10, 64)
		if perr == nil {
			history.FirstSeen = time.Unix(ts, 0)
		}
	}
	return history, nil
}
