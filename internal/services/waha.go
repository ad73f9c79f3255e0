package services

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
)

// WahaService sends WhatsApp messages through a WAHA gateway. The agency
// sends installment reminders over WhatsApp for buyers who prefer it.
type WahaService struct {
	baseURL     string
	apiKey      string
	countryCode string
	client      *http.Client
}

func NewWahaService() *WahaService {
	url := os.Getenv("WAHA_BASE_URL")
	if url == "" {
		url = "http://waha:3000"
	}
	cc := os.Getenv("WAHA_DEFAULT_COUNTRY_CODE")
	if cc == "" {
		cc = "52"
	}
	return &WahaService{
		baseURL:     url,
		apiKey:      os.Getenv("WAHA_API_KEY"),
		countryCode: cc,
		client:      &http.Client{},
	}
}

func (s *WahaService) makeRequest(method, endpoint string, payload interface{}) error {
	var bodyReader io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("failed to marshal payload: %w", err)
		}
		bodyReader = bytes.NewBuffer(data)
	}

	req, err := http.NewRequest(method, fmt.Sprintf("%s%s", s.baseURL, endpoint), bodyReader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Api-Key", s.apiKey)

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("request failed with status %d: %s", resp.StatusCode, string(body))
	}

	return nil
}

func (s *WahaService) sendText(chatID, text string) error {
	return s.makeRequest("POST", "/api/sendText", map[string]string{
		"chatId":  chatID,
		"text":    text,
		"session": "default",
	})
}

// SendMessage delivers a text message to the given chat id, which may be a
// phone number or a group id.
func (s *WahaService) SendMessage(chatID, text string) error {
	return s.sendText(NormalizeChatID(chatID, s.countryCode), text)
}

// NormalizeChatID normalizes WhatsApp chat ids: group ids pass through,
// phone numbers get the default country code substituted for a leading
// zero and the @c.us suffix appended.
func NormalizeChatID(chatID, countryCode string) string {
	chatID = strings.TrimSpace(chatID)

	// Group ids are already fully qualified
	if strings.HasSuffix(chatID, "@g.us") {
		return chatID
	}

	chatID = strings.TrimSuffix(chatID, "@c.us")
	chatID = strings.NewReplacer(" ", "", "-", "", "+", "").Replace(chatID)

	if strings.HasPrefix(chatID, "0") {
		chatID = countryCode + strings.TrimLeft(chatID, "0")
	}

	return chatID + "@c.us"
}
