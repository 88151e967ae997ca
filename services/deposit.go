package services

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/zagwe-games/bingo-rooms/config"
)

type verifyResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

// VerifyDeposit sends the SMS body to the external verification API.
// Returns true if verified, false otherwise.
func VerifyDeposit(body string) (bool, error) {
	url := config.Getenv("DEPOSIT_VERIFIER_URL", "")
	if url == "" {
		return false, fmt.Errorf("DEPOSIT_VERIFIER_URL not configured")
	}

	payload := map[string]string{"body": body}
	jsonData, err := json.Marshal(payload)
	if err != nil {
		return false, fmt.Errorf("failed to marshal JSON: %v", err)
	}

	req, err := http.NewRequest(http.MethodPost, url, bytes.NewBuffer(jsonData))
	if err != nil {
		return false, fmt.Errorf("failed to create request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return false, fmt.Errorf("request failed: %v", err)
	}
	defer resp.Body.Close()

	bodyBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return false, fmt.Errorf("failed to read response body: %v", err)
	}

	var verifyResp verifyResponse
	if err := json.Unmarshal(bodyBytes, &verifyResp); err != nil {
		return false, fmt.Errorf("failed to parse response JSON: %v", err)
	}

	return verifyResp.Status == "success", nil
}
