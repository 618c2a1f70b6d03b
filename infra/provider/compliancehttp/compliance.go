// Package compliancehttp calls the external compliance validation service
// over HTTP for foreign-currency transfers.
package compliancehttp

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/cashnoteio/cashnote/pkg/config"
	"github.com/cashnoteio/cashnote/pkg/provider"
)

// Validator implements provider.ComplianceValidator against the compliance
// service's /v1/validations endpoint.
type Validator struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
	logger     *slog.Logger
}

type validationRequest struct {
	FromUserID      string  `json:"from_user_id"`
	FromUserPhone   string  `json:"from_user_phone,omitempty"`
	ToUserID        string  `json:"to_user_id"`
	ToUserPhone     string  `json:"to_user_phone,omitempty"`
	NoteID          string  `json:"note_id"`
	ReferenceCode   string  `json:"reference_code"`
	ForeignCurrency string  `json:"foreign_currency"`
	Amount          int64   `json:"amount"`
	ExchangeRate    float64 `json:"exchange_rate"`
}

type validationResponse struct {
	Result    string `json:"result"`
	Reference string `json:"reference"`
	Reason    string `json:"reason,omitempty"`
}

// New creates a Validator from config. The HTTP client timeout bounds every
// call regardless of the caller's context.
func New(cfg config.Compliance, logger *slog.Logger) *Validator {
	return &Validator{
		apiKey:  cfg.ApiKey,
		baseURL: cfg.ApiUrl,
		httpClient: &http.Client{
			Timeout: cfg.HTTPTimeout,
		},
		logger: logger.With("provider", "compliance-http"),
	}
}

// ValidateForeignTransfer implements provider.ComplianceValidator.
func (v *Validator) ValidateForeignTransfer(
	ctx context.Context,
	req provider.ComplianceRequest,
) (*provider.ComplianceResult, error) {
	body, err := json.Marshal(validationRequest{
		FromUserID:      req.FromUserID.String(),
		FromUserPhone:   req.FromUserPhone,
		ToUserID:        req.ToUserID.String(),
		ToUserPhone:     req.ToUserPhone,
		NoteID:          req.NoteID.String(),
		ReferenceCode:   req.ReferenceCode,
		ForeignCurrency: req.ForeignCurrency,
		Amount:          req.Amount,
		ExchangeRate:    req.ExchangeRate,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to encode request: %w", err)
	}

	url := fmt.Sprintf("%s/v1/validations", v.baseURL)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if v.apiKey != "" {
		httpReq.Header.Set("Authorization", "Bearer "+v.apiKey)
	}

	start := time.Now()
	resp, err := v.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("compliance request failed: %w", err)
	}
	defer resp.Body.Close() //nolint:errcheck

	if resp.StatusCode != http.StatusOK {
		raw, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("compliance API returned status %d: %s", resp.StatusCode, string(raw))
	}

	var apiResp validationResponse
	if err := json.NewDecoder(resp.Body).Decode(&apiResp); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	v.logger.Info("compliance check finished",
		"note", req.NoteID, "result", apiResp.Result, "took", time.Since(start))

	return &provider.ComplianceResult{
		Approved:  apiResp.Result == "approved",
		Reference: apiResp.Reference,
		Reason:    apiResp.Reason,
	}, nil
}

var _ provider.ComplianceValidator = (*Validator)(nil)
