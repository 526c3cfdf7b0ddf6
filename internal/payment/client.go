package payment

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/calegray/storefront/internal/config"
	inHttp "github.com/calegray/storefront/internal/http"
	"github.com/calegray/storefront/internal/log"
)

// Client talks to the payment capture provider. Amounts are strings
// with two-decimal precision, as the provider requires.
type Client struct {
	cfg    config.Payment
	client *http.Client
}

func NewClient(cfg config.Payment) *Client {
	return &Client{cfg: cfg, client: otelhttp.DefaultClient}
}

type amount struct {
	CurrencyCode string `json:"currency_code"`
	Value        string `json:"value"`
}

type purchaseUnit struct {
	Amount amount `json:"amount"`
}

type createOrderRequest struct {
	Intent        string         `json:"intent"`
	PurchaseUnits []purchaseUnit `json:"purchase_units"`
}

type createOrderResponse struct {
	ID string `json:"id"`
}

type captureResponse struct {
	Status string `json:"status"`
	Payer  struct {
		Name struct {
			GivenName string `json:"given_name"`
			Surname   string `json:"surname"`
		} `json:"name"`
	} `json:"payer"`
}

// CreateOrder registers a capture-intent order with the provider and
// returns the provider's order id.
func (p *Client) CreateOrder(c context.Context, value string) (string, error) {
	logger := zerolog.Ctx(c).
		With().
		Str(log.KeyTag, "payment CreateOrder").
		Str("amount", value).
		Logger()

	body, err := json.Marshal(createOrderRequest{
		Intent: "CAPTURE",
		PurchaseUnits: []purchaseUnit{
			{Amount: amount{CurrencyCode: "USD", Value: value}},
		},
	})
	if err != nil {
		return "", fmt.Errorf("failed marshaling provider order with error=%w", err)
	}

	logger.Info().Msg("creating provider order")
	req, err := http.NewRequestWithContext(
		c,
		http.MethodPost,
		p.cfg.BaseURL+"/v2/checkout/orders",
		bytes.NewReader(body),
	)
	if err != nil {
		return "", fmt.Errorf("failed creating provider order request with error=%w", err)
	}
	req.Header.Set(inHttp.HeaderContentType, inHttp.HeaderValueJson)
	req.SetBasicAuth(p.cfg.ClientID, p.cfg.ClientSecret)

	resp, err := p.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed creating provider order with error=%w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return "", fmt.Errorf("provider returned status code=%d on order creation", resp.StatusCode)
	}

	out := createOrderResponse{}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("failed decoding provider order with error=%w", err)
	}
	logger.Info().Str(log.KeyOrderID, out.ID).Msg("created provider order")

	return out.ID, nil
}

// Capture finalizes a provider order, returning the payer name and
// whether the capture completed.
func (p *Client) Capture(c context.Context, providerOrderID string) (string, bool, error) {
	logger := zerolog.Ctx(c).
		With().
		Str(log.KeyTag, "payment Capture").
		Str(log.KeyOrderID, providerOrderID).
		Logger()

	logger.Info().Msg("capturing provider order")
	req, err := http.NewRequestWithContext(
		c,
		http.MethodPost,
		p.cfg.BaseURL+"/v2/checkout/orders/"+providerOrderID+"/capture",
		nil,
	)
	if err != nil {
		return "", false, fmt.Errorf("failed creating capture request with error=%w", err)
	}
	req.Header.Set(inHttp.HeaderContentType, inHttp.HeaderValueJson)
	req.SetBasicAuth(p.cfg.ClientID, p.cfg.ClientSecret)

	resp, err := p.client.Do(req)
	if err != nil {
		return "", false, fmt.Errorf("failed capturing provider order with error=%w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return "", false, fmt.Errorf("provider returned status code=%d on capture", resp.StatusCode)
	}

	out := captureResponse{}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", false, fmt.Errorf("failed decoding capture response with error=%w", err)
	}
	payerName := out.Payer.Name.GivenName + " " + out.Payer.Name.Surname
	logger.Info().Str("payerName", payerName).Str("status", out.Status).Msg("captured provider order")

	return payerName, out.Status == "COMPLETED", nil
}
