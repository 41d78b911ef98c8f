package payment

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"cafe-be/internal/logger"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

const razorpayBaseURL = "https://api.razorpay.com"

type razorpayGateway struct {
	keyID      string
	keySecret  string
	baseURL    string
	httpClient *http.Client
}

func NewRazorpayGateway(keyID, keySecret string) Gateway {
	if keySecret == "" {
		logger.L().Warn("Razorpay key secret is empty, every signature will be rejected")
	}

	return &razorpayGateway{
		keyID:     keyID,
		keySecret: keySecret,
		baseURL:   razorpayBaseURL,
		httpClient: &http.Client{
			Timeout: 15 * time.Second,
		},
	}
}

func (g *razorpayGateway) Name() string      { return GatewayRazorpay }
func (g *razorpayGateway) AutoCapture() bool { return false }

// Verify compares signature against base64(HMAC-SHA256(keySecret, transactionID)).
func (g *razorpayGateway) Verify(transactionID, signature string) bool {
	if g.keySecret == "" || signature == "" {
		return false
	}
	return hmac.Equal([]byte(g.sign(transactionID)), []byte(signature))
}

func (g *razorpayGateway) sign(transactionID string) string {
	mac := hmac.New(sha256.New, []byte(g.keySecret))
	mac.Write([]byte(transactionID))
	return base64.StdEncoding.EncodeToString(mac.Sum(nil))
}

func (g *razorpayGateway) Refund(ctx context.Context, transactionID string, amount decimal.Decimal) error {
	// Razorpay amounts are in paise.
	paise := amount.Mul(decimal.NewFromInt(100)).Round(0).IntPart()

	log := logger.FromCtx(ctx).With(
		zap.String("layer", "gateway"),
		zap.String("transaction_id", transactionID),
		zap.Int64("amount_paise", paise),
	)

	body, err := json.Marshal(map[string]any{"amount": paise})
	if err != nil {
		return err
	}

	url := fmt.Sprintf("%s/v1/payments/%s/refund", g.baseURL, transactionID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewBuffer(body))
	if err != nil {
		log.Error("Failed creating request", zap.Error(err))
		return err
	}

	req.SetBasicAuth(g.keyID, g.keySecret)
	req.Header.Set("Content-Type", "application/json")

	log.Info("Sending refund request to Razorpay")

	resp, err := g.httpClient.Do(req)
	if err != nil {
		log.Error("Razorpay request failed", zap.Error(err))
		return err
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		log.Error("Failed to read response body", zap.Error(err))
		return fmt.Errorf("failed to read razorpay response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		log.Error("Razorpay returned non-success status",
			zap.Int("status", resp.StatusCode),
			zap.ByteString("response", respBody),
		)
		return fmt.Errorf("razorpay refund error: %s", string(respBody))
	}

	log.Info("Refund accepted by Razorpay")
	return nil
}
