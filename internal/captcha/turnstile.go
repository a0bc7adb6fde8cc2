package captcha

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"

	"locatify/wanderlust/internal/config"
	"locatify/wanderlust/internal/observability"
)

// FormField is the form field the Turnstile widget posts its token in.
const FormField = "cf-turnstile-response"

// ITurnstileVerifier defines the interface for verifying Cloudflare Turnstile tokens.
type ITurnstileVerifier interface {
	Verify(ctx context.Context, token, remoteIP string) (bool, error)
}

// CloudflareResponse is the expected structure from the siteverify endpoint.
type CloudflareResponse struct {
	Success     bool     `json:"success"`
	ErrorCodes  []string `json:"error-codes"`
	ChallengeTS string   `json:"challenge_ts"`
	Hostname    string   `json:"hostname"`
	Action      string   `json:"action"`
}

type turnstileVerifier struct {
	secret     string
	verifyURL  string
	httpClient *http.Client
}

// NewTurnstileVerifier creates a new Turnstile verifier.
func NewTurnstileVerifier(cfg *config.Config) ITurnstileVerifier {
	return &turnstileVerifier{
		secret:     cfg.CloudflareTurnstileSecretKey,
		verifyURL:  cfg.CloudflareSiteVerifyURL,
		httpClient: &http.Client{Timeout: 5 * time.Second},
	}
}

// Verify calls the Cloudflare siteverify endpoint. Without a configured secret every
// token is accepted.
func (v *turnstileVerifier) Verify(ctx context.Context, token, remoteIP string) (bool, error) {
	if v.secret == "" {
		log.Debug().Msg("Turnstile secret key not configured, skipping verification")
		return true, nil
	}
	if token == "" {
		return false, nil
	}

	formData := map[string]string{
		"secret":   v.secret,
		"response": token,
	}
	if remoteIP != "" {
		formData["remoteip"] = remoteIP
	}

	jsonData, err := json.Marshal(formData)
	if err != nil {
		return false, fmt.Errorf("failed to encode turnstile request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, v.verifyURL, bytes.NewReader(jsonData))
	if err != nil {
		return false, fmt.Errorf("failed to create turnstile request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	start := time.Now()
	resp, err := v.httpClient.Do(req)
	if err != nil {
		observability.ObserveExternal("turnstile", "siteverify", 0, time.Since(start))
		return false, fmt.Errorf("failed to contact turnstile service: %w", err)
	}
	defer resp.Body.Close()
	observability.ObserveExternal("turnstile", "siteverify", resp.StatusCode, time.Since(start))

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return false, fmt.Errorf("failed to read turnstile response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		log.Warn().Int("status", resp.StatusCode).Str("body", string(body)).Msg("Turnstile siteverify returned non-OK status")
		return false, fmt.Errorf("turnstile verification failed with status %d", resp.StatusCode)
	}

	var cfResp CloudflareResponse
	if err := json.Unmarshal(body, &cfResp); err != nil {
		return false, fmt.Errorf("failed to parse turnstile response: %w", err)
	}
	if !cfResp.Success {
		log.Info().Strs("error_codes", cfResp.ErrorCodes).Msg("Turnstile verification unsuccessful")
	}
	return cfResp.Success, nil
}
