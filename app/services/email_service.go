// Package services provides external service integrations and technical concerns like notifications and tokens
package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/helpinghand/donor-admin/config"
	"github.com/helpinghand/donor-admin/utils"
)

// EmailRecipient is one addressee of a batch call
type EmailRecipient struct {
	Email string `json:"email"`
	Name  string `json:"name,omitempty"`
}

// EmailBatch is a provider-sized chunk of a campaign audience sent in one API call
type EmailBatch struct {
	Recipients []EmailRecipient
	Subject    string
	HTMLBody   string
}

// EmailService sends campaign batches through the external email provider
type EmailService interface {
	// SendBatch transmits one batch. The call either succeeds as a whole or
	// fails as a whole; per-recipient granularity is not reported.
	SendBatch(ctx context.Context, batch EmailBatch) error
	// IsConfigured reports whether the provider has usable credentials
	IsConfigured() bool
}

// EmailServiceImpl implements EmailService against a SendGrid-compatible HTTP API
type EmailServiceImpl struct {
	config *config.EmailProviderConfig
	client *http.Client
}

// NewEmailService creates a new email service instance
func NewEmailService(cfg *config.EmailProviderConfig) EmailService {
	return &EmailServiceImpl{
		config: cfg,
		client: &http.Client{
			Timeout: cfg.Timeout,
		},
	}
}

// mailRequest mirrors the provider's v3 mail send payload
type mailRequest struct {
	Personalizations []personalization `json:"personalizations"`
	From             emailAddress      `json:"from"`
	Subject          string            `json:"subject"`
	Content          []mailContent     `json:"content"`
	TrackingSettings trackingSettings  `json:"tracking_settings"`
}

type personalization struct {
	To []emailAddress `json:"to"`
}

type emailAddress struct {
	Email string `json:"email"`
	Name  string `json:"name,omitempty"`
}

type mailContent struct {
	Type  string `json:"type"`
	Value string `json:"value"`
}

type trackingSettings struct {
	ClickTracking clickTracking `json:"click_tracking"`
	OpenTracking  openTracking  `json:"open_tracking"`
}

type clickTracking struct {
	Enable     bool `json:"enable"`
	EnableText bool `json:"enable_text"`
}

type openTracking struct {
	Enable bool `json:"enable"`
}

// IsConfigured reports whether the provider has usable credentials
func (s *EmailServiceImpl) IsConfigured() bool {
	return s.config.IsConfigured()
}

// SendBatch transmits one batch through the provider's mail send endpoint.
// Each recipient gets its own personalization so addresses are not leaked
// across recipients; click and open tracking are always enabled.
func (s *EmailServiceImpl) SendBatch(ctx context.Context, batch EmailBatch) error {
	if len(batch.Recipients) == 0 {
		return nil
	}
	if !s.IsConfigured() {
		return fmt.Errorf("email provider credentials are not configured")
	}

	personalizations := make([]personalization, 0, len(batch.Recipients))
	for _, r := range batch.Recipients {
		personalizations = append(personalizations, personalization{
			To: []emailAddress{{Email: r.Email, Name: r.Name}},
		})
	}

	payload := mailRequest{
		Personalizations: personalizations,
		From: emailAddress{
			Email: s.config.FromEmail,
			Name:  s.config.FromName,
		},
		Subject: batch.Subject,
		Content: []mailContent{
			{Type: "text/html", Value: batch.HTMLBody},
		},
		TrackingSettings: trackingSettings{
			ClickTracking: clickTracking{Enable: true, EnableText: true},
			OpenTracking:  openTracking{Enable: true},
		},
	}

	requestBody, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal mail request: %w", err)
	}

	url := fmt.Sprintf("%s/v3/mail/send", s.config.APIBaseURL)
	req, err := http.NewRequestWithContext(ctx, "POST", url, bytes.NewBuffer(requestBody))
	if err != nil {
		return fmt.Errorf("failed to create HTTP request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+s.config.APIKey)

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send mail request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("mail provider rejected batch: status %d: %s", resp.StatusCode, string(body))
	}

	return nil
}

// MockEmailService implements EmailService for testing. It is safe for
// concurrent use and records peak in-flight batch calls so tests can assert
// the dispatcher's concurrency cap.
type MockEmailService struct {
	mu          sync.Mutex
	SentBatches []MockEmailBatch

	// FailBatch, when set, is consulted per call; a non-nil return fails the batch
	FailBatch func(batch EmailBatch) error

	// PerCallDelay simulates provider latency
	PerCallDelay time.Duration

	inFlight     int
	MaxInFlight  int
	Unconfigured bool
}

// MockEmailBatch records one batch accepted by the mock provider
type MockEmailBatch struct {
	Recipients []EmailRecipient
	Subject    string
	SentAt     time.Time
}

// NewMockEmailService creates a new mock email service
func NewMockEmailService() *MockEmailService {
	return &MockEmailService{
		SentBatches: make([]MockEmailBatch, 0),
	}
}

// IsConfigured reports whether the mock pretends to have credentials
func (m *MockEmailService) IsConfigured() bool {
	return !m.Unconfigured
}

// SendBatch records the batch, honoring the configured failure hook
func (m *MockEmailService) SendBatch(ctx context.Context, batch EmailBatch) error {
	m.mu.Lock()
	m.inFlight++
	if m.inFlight > m.MaxInFlight {
		m.MaxInFlight = m.inFlight
	}
	failHook := m.FailBatch
	delay := m.PerCallDelay
	m.mu.Unlock()

	defer func() {
		m.mu.Lock()
		m.inFlight--
		m.mu.Unlock()
	}()

	if delay > 0 {
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	if failHook != nil {
		if err := failHook(batch); err != nil {
			return err
		}
	}

	m.mu.Lock()
	m.SentBatches = append(m.SentBatches, MockEmailBatch{
		Recipients: batch.Recipients,
		Subject:    batch.Subject,
		SentAt:     utils.UTCNow(),
	})
	m.mu.Unlock()

	return nil
}

// GetSentBatches returns a copy of all batches accepted so far
func (m *MockEmailService) GetSentBatches() []MockEmailBatch {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]MockEmailBatch, len(m.SentBatches))
	copy(out, m.SentBatches)
	return out
}

// SentRecipientCount returns the total number of recipients across accepted batches
func (m *MockEmailService) SentRecipientCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	total := 0
	for _, b := range m.SentBatches {
		total += len(b.Recipients)
	}
	return total
}

// ClearSentBatches clears the recorded batches
func (m *MockEmailService) ClearSentBatches() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.SentBatches = make([]MockEmailBatch, 0)
	m.MaxInFlight = 0
}
