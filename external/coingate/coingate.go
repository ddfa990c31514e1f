package coingate

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"os"
	"time"
)

// Client talks to the crypto processor that originally received the buyer's
// funds. The engine only ever asks it to reverse money back to the buyer's
// address; everything else about the rail is out of scope.
type Client struct {
	apiKey  string
	client  *http.Client
	baseURL string
}

func NewClient() (*Client, error) {
	key := os.Getenv("COINGATE_API_KEY")
	if key == "" {
		return nil, errors.New("COINGATE_API_KEY not set")
	}

	base := os.Getenv("COINGATE_BASE_URL")
	if base == "" {
		base = "https://api.coingate.com/v2"
	}

	return &Client{
		apiKey: key,
		client: &http.Client{
			Timeout: 10 * time.Second,
		},
		baseURL: base,
	}, nil
}

type reversalRequest struct {
	Currency string  `json:"currency"`
	Address  string  `json:"address"`
	Amount   float64 `json:"amount"`
}

// RequestReversal asks the processor to send amount back to the buyer's
// original address on the given rail. The caller decides what a failure
// means; this client only reports it.
func (c *Client) RequestReversal(
	ctx context.Context,
	method string,
	address string,
	amount float64,
) error {
	body := reversalRequest{
		Currency: method,
		Address:  address,
		Amount:   amount,
	}

	b, _ := json.Marshal(body)

	req, _ := http.NewRequestWithContext(
		ctx,
		http.MethodPost,
		c.baseURL+"/refunds",
		bytes.NewBuffer(b),
	)

	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		buf := new(bytes.Buffer)
		buf.ReadFrom(resp.Body)
		return errors.New("refund reversal rejected: " + buf.String())
	}

	return nil
}
