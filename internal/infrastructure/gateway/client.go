package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	otelcodes "go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"saplayer-checkout/internal/domain/payment"
	"saplayer-checkout/internal/domain/session"
	"saplayer-checkout/internal/infrastructure/config"
	otelinfra "saplayer-checkout/internal/infrastructure/observability/otel"
)

// TokenProvider バックエンド呼び出しに添付するBearerトークンの供給インターフェース
type TokenProvider interface {
	Token(ctx context.Context) (string, error)
}

// Client マーケットプレイスバックエンドの決済APIクライアント
type Client struct {
	baseURL    string
	httpClient *http.Client
	tokens     TokenProvider
	logger     *otelinfra.Logger
	tracer     trace.Tracer
}

// NewClient 新しいClientを作成
// tokensがnilの場合はAuthorizationヘッダーを付けずに呼び出す
func NewClient(cfg *config.BackendConfig, tokens TokenProvider, logger *otelinfra.Logger) *Client {
	return &Client{
		baseURL:    cfg.BaseURL,
		httpClient: &http.Client{Timeout: cfg.Timeout},
		tokens:     tokens,
		logger:     logger,
		tracer:     otel.Tracer("payment-gateway"),
	}
}

// createPaymentBody 決済作成リクエストのワイヤ表現
type createPaymentBody struct {
	Amount          float64 `json:"amount"`
	ItemName        string  `json:"itemName"`
	ItemDescription string  `json:"itemDescription"`
	UserEmail       string  `json:"userEmail"`
	UserNameFirst   string  `json:"userNameFirst"`
	UserNameLast    string  `json:"userNameLast"`
	CellNumber      string  `json:"cellNumber"`
	ListingID       string  `json:"listingId"`
	BuyerID         string  `json:"buyerId"`
	SellerID        string  `json:"sellerId"`
	BackendURL      string  `json:"backendUrl"`
}

// createPaymentResponse 決済作成レスポンスのワイヤ表現
type createPaymentResponse struct {
	Success    bool   `json:"success"`
	PaymentURL string `json:"paymentUrl"`
	MPaymentID string `json:"mPaymentId"`
}

// paymentStatusResponse ステータスエンドポイントのワイヤ表現
type paymentStatusResponse struct {
	Status string `json:"status"`
}

// CreatePayment ホスト型決済セッションをバックエンドに作成させ、PaymentSessionとして返す
func (c *Client) CreatePayment(ctx context.Context, req *payment.PaymentRequest) (*session.PaymentSession, error) {
	ctx, span := c.tracer.Start(ctx, "GatewayClient.CreatePayment")
	defer span.End()

	span.SetAttributes(
		attribute.Float64("amount", req.Amount()),
		attribute.String("listing_id", req.ListingID()),
	)

	body, err := json.Marshal(createPaymentBody{
		Amount:          req.Amount(),
		ItemName:        req.ItemName(),
		ItemDescription: req.ItemDescription(),
		UserEmail:       req.BuyerEmail(),
		UserNameFirst:   req.BuyerFirstName(),
		UserNameLast:    req.BuyerLastName(),
		CellNumber:      req.CellNumber(),
		ListingID:       req.ListingID(),
		BuyerID:         req.BuyerID(),
		SellerID:        req.SellerID(),
		BackendURL:      req.BackendURL(),
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(otelcodes.Error, err.Error())
		return nil, fmt.Errorf("failed to marshal create payment request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/payment/create-payment", bytes.NewReader(body))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(otelcodes.Error, err.Error())
		return nil, fmt.Errorf("failed to build create payment request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if err := c.attachToken(ctx, httpReq); err != nil {
		span.RecordError(err)
		span.SetStatus(otelcodes.Error, err.Error())
		return nil, err
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(otelcodes.Error, err.Error())
		return nil, fmt.Errorf("%w: %v", ErrCreatePaymentFailed, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		err := fmt.Errorf("%w: unexpected status %d", ErrCreatePaymentFailed, resp.StatusCode)
		span.RecordError(err)
		span.SetStatus(otelcodes.Error, err.Error())
		return nil, err
	}

	var data createPaymentResponse
	if err := json.NewDecoder(resp.Body).Decode(&data); err != nil {
		span.RecordError(err)
		span.SetStatus(otelcodes.Error, err.Error())
		return nil, fmt.Errorf("%w: %v", ErrInvalidPaymentResponse, err)
	}

	// successフラグと決済ページURLが揃っていなければ不正なレスポンス
	if !data.Success || data.PaymentURL == "" {
		err := ErrInvalidPaymentResponse
		span.RecordError(err)
		span.SetStatus(otelcodes.Error, err.Error())
		return nil, err
	}

	c.logger.Info(ctx, "Payment created", map[string]interface{}{
		"m_payment_id": data.MPaymentID,
	})

	return session.NewPaymentSession(
		data.MPaymentID,
		data.PaymentURL,
		req.BuyerID(),
		req.SellerID(),
		req.ListingID(),
		req.Amount(),
		req.ItemName(),
		req.ItemDescription(),
	), nil
}

// PaymentStatus 決済IDのステータスを問い合わせる
// レコード未作成（HTTP 404）はpayment.ErrPaymentNotRecordedとして返す
func (c *Client) PaymentStatus(ctx context.Context, paymentID string) (payment.PaymentStatus, error) {
	ctx, span := c.tracer.Start(ctx, "GatewayClient.PaymentStatus")
	defer span.End()
	span.SetAttributes(attribute.String("payment_id", paymentID))

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/payment/status/"+paymentID, nil)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(otelcodes.Error, err.Error())
		return "", fmt.Errorf("failed to build status request: %w", err)
	}
	if err := c.attachToken(ctx, httpReq); err != nil {
		span.RecordError(err)
		span.SetStatus(otelcodes.Error, err.Error())
		return "", err
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(otelcodes.Error, err.Error())
		return "", fmt.Errorf("status check request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return "", payment.ErrPaymentNotRecorded
	}
	if resp.StatusCode != http.StatusOK {
		err := fmt.Errorf("status check returned unexpected status %d", resp.StatusCode)
		span.RecordError(err)
		span.SetStatus(otelcodes.Error, err.Error())
		return "", err
	}

	var data paymentStatusResponse
	if err := json.NewDecoder(resp.Body).Decode(&data); err != nil {
		span.RecordError(err)
		span.SetStatus(otelcodes.Error, err.Error())
		return "", fmt.Errorf("failed to decode status response: %w", err)
	}

	status, err := payment.NewPaymentStatus(data.Status)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(otelcodes.Error, err.Error())
		return "", err
	}

	return status, nil
}

// attachToken Bearerトークンをリクエストに添付する
func (c *Client) attachToken(ctx context.Context, req *http.Request) error {
	if c.tokens == nil {
		return nil
	}
	token, err := c.tokens.Token(ctx)
	if err != nil {
		return fmt.Errorf("failed to obtain session token: %w", err)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	return nil
}
