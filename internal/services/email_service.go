package services

import (
	"bytes"
	"context"
	"embed"
	"fmt"
	"html/template"
	"time"

	"github.com/resend/resend-go/v2"
	"github.com/sjperalta/studio-finance-api/internal/config"
	"github.com/sjperalta/studio-finance-api/internal/finance"
	"github.com/sjperalta/studio-finance-api/pkg/logger"
)

//go:embed templates/email/*.html
var emailTemplates embed.FS

type EmailService struct {
	config       *config.Config
	resendClient *resend.Client
}

func NewEmailService(cfg *config.Config) *EmailService {
	client := resend.NewClient(cfg.ResendAPIKey)
	return &EmailService{
		config:       cfg,
		resendClient: client,
	}
}

// checkEmailPreconditions reports whether a mail can be sent. A missing
// configuration is not an error: the mail is skipped with a warning.
func (s *EmailService) checkEmailPreconditions(operation string) bool {
	if !s.config.EmailEnabled() {
		logger.Warn("email not configured, skipping", "operation", operation,
			"has_api_key", s.config.ResendAPIKey != "", "has_from", s.config.FromEmail != "",
			"recipients", len(s.config.ReportRecipients))
		return false
	}
	return true
}

// SendMonthlySummary mails the comparison of a month against the one before
// to the configured report recipients.
func (s *EmailService) SendMonthlySummary(ctx context.Context, cmp *finance.Comparison) error {
	if !s.checkEmailPreconditions("monthly summary") {
		return nil
	}

	subject, body, err := s.renderMonthlySummary(cmp)
	if err != nil {
		return internalError("failed to render monthly summary", err)
	}

	params := &resend.SendEmailRequest{
		From:    s.config.FromEmail,
		To:      s.config.ReportRecipients,
		Subject: subject,
		Html:    body,
	}
	if _, err := s.resendClient.Emails.SendWithContext(ctx, params); err != nil {
		logger.Error("failed to send monthly summary", "recipients", len(params.To), "error", err)
		return externalError("failed to send monthly summary", err)
	}

	logger.Info("monthly summary sent", "subject", subject, "recipients", len(params.To))
	return nil
}

func (s *EmailService) renderMonthlySummary(cmp *finance.Comparison) (string, string, error) {
	month := cmp.CurrentRange.Start
	subject := fmt.Sprintf("Financial summary %s %d", month.Month(), month.Year())

	type line struct {
		Name     string
		Current  string
		Previous string
		Change   string
		Percent  string
		Negative bool
	}
	row := func(name string, c finance.Change) line {
		return line{
			Name:     name,
			Current:  finance.FormatTHB(c.Current),
			Previous: finance.FormatTHB(c.Previous),
			Change:   finance.FormatTHB(c.Change),
			Percent:  finance.Percent(c.ChangePercent),
			Negative: c.Change.IsNegative(),
		}
	}

	data := struct {
		BusinessName string
		Period       string
		Previous     string
		Metrics      []line
		Expenses     []line
		Generated    string
	}{
		BusinessName: s.config.ReceiptBusinessName,
		Period:       fmt.Sprintf("%s %d", month.Month(), month.Year()),
		Previous:     fmt.Sprintf("%s %d", cmp.PreviousRange.Start.Month(), cmp.PreviousRange.Start.Year()),
		Metrics: []line{
			row("Income", cmp.Income),
			row("Expense", cmp.Expense),
			row("Net profit", cmp.NetProfit),
		},
		Generated: time.Now().Format("2006-01-02 15:04"),
	}
	for _, kc := range cmp.ExpenseByCategory {
		data.Expenses = append(data.Expenses, row(kc.Key, kc.Change))
	}

	body, err := s.renderTemplate("monthly_summary.html", data)
	if err != nil {
		return "", "", err
	}
	return subject, body, nil
}

func (s *EmailService) renderTemplate(name string, data interface{}) (string, error) {
	tmpl, err := template.ParseFS(emailTemplates, "templates/email/"+name)
	if err != nil {
		return "", fmt.Errorf("failed to parse template %s: %w", name, err)
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("failed to execute template %s: %w", name, err)
	}

	return buf.String(), nil
}
