package notifications

import (
	"bytes"
	"encoding/json"
	"fmt"
	"html"
	"io"
	"net/http"
	"strings"
	"time"

	config "github.com/anjiri1684/studyhub/configs"
	"github.com/anjiri1684/studyhub/logger"
)

const brevoURL = "https://api.brevo.com/v3/smtp/email"

type BrevoService struct {
	APIKey      string
	SenderEmail string
	SenderName  string
	URL         string
	HTTPClient  *http.Client
}

var EmailClient *BrevoService

type brevoPayload struct {
	Sender      map[string]string   `json:"sender"`
	To          []map[string]string `json:"to"`
	Subject     string              `json:"subject"`
	HTMLContent string              `json:"htmlContent"`
}

func InitEmailService() {
	apiKey := config.Config("BREVO_API_KEY")
	senderEmail := config.Config("EMAIL_SENDER")
	senderName := config.ConfigOrDefault("EMAIL_SENDER_NAME", "StudyHub")

	if apiKey == "" || senderEmail == "" {
		logger.Log.Warn("email service not configured, outgoing mail is disabled")
		EmailClient = nil
		return
	}

	EmailClient = &BrevoService{
		APIKey:      apiKey,
		SenderEmail: senderEmail,
		SenderName:  senderName,
		URL:         brevoURL,
		HTTPClient:  &http.Client{Timeout: 10 * time.Second},
	}
	logger.Log.Info("email service initialized", "sender", senderEmail)
}

func (s *BrevoService) send(toEmail, toName, subject, htmlContent string) error {
	at := strings.Index(toEmail, "@")
	if at <= 0 {
		return fmt.Errorf("invalid recipient email: %s", toEmail)
	}

	recipientName := toName
	if recipientName == "" {
		recipientName = toEmail[:at]
	}

	payload := brevoPayload{
		Sender:      map[string]string{"name": s.SenderName, "email": s.SenderEmail},
		To:          []map[string]string{{"email": toEmail, "name": recipientName}},
		Subject:     subject,
		HTMLContent: htmlContent,
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}

	req, err := http.NewRequest(http.MethodPost, s.URL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("accept", "application/json")
	req.Header.Set("api-key", s.APIKey)
	req.Header.Set("content-type", "application/json")

	client := s.HTTPClient
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated {
		bodyBytes, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("brevo returned %d: %s", resp.StatusCode, string(bodyBytes))
	}
	return nil
}

// SendEmail delivers one message and logs the outcome. It is a no-op when
// the service is not configured.
func SendEmail(toName, toEmail, subject, htmlContent string) error {
	if EmailClient == nil {
		logger.Log.Debug("email client not initialized, skipping send", "subject", subject)
		return nil
	}
	if err := EmailClient.send(toEmail, toName, subject, htmlContent); err != nil {
		logger.Log.Error("email send failed", "to", toEmail, "subject", subject, "error", err)
		return err
	}
	logger.Log.Info("email sent", "to", toEmail, "subject", subject)
	return nil
}

func SendWelcome(name, email string) error {
	body := fmt.Sprintf("<h1>Welcome to StudyHub, %s!</h1><p>Your account is ready. Pick a course and take your first test.</p>", html.EscapeString(name))
	return SendEmail(name, email, "Welcome to StudyHub", body)
}

func SendPasswordReset(name, email, resetLink string) error {
	link := html.EscapeString(resetLink)
	body := fmt.Sprintf("<p>Click here to reset your password. The link is valid for 15 minutes.</p><a href=\"%s\">%s</a>", link, link)
	return SendEmail(name, email, "Reset your password", body)
}

func SendCertificateIssued(name, email, courseTitle, certificateCode, metadataURL string) error {
	body := fmt.Sprintf(
		"<h1>Congratulations, %s!</h1><p>You completed <b>%s</b>. Your certificate code is <b>%s</b>.</p><p><a href=\"%s\">View the certificate record</a></p>",
		html.EscapeString(name), html.EscapeString(courseTitle), html.EscapeString(certificateCode), html.EscapeString(metadataURL),
	)
	return SendEmail(name, email, "Your StudyHub certificate", body)
}
