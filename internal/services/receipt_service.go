package services

import (
	"bytes"
	"context"
	"embed"
	"errors"
	"fmt"
	"html/template"
	"strings"

	"github.com/SebastiaanKlippert/go-wkhtmltopdf"
	"github.com/shopspring/decimal"
	"github.com/sjperalta/studio-finance-api/internal/clock"
	"github.com/sjperalta/studio-finance-api/internal/finance"
	"github.com/sjperalta/studio-finance-api/internal/models"
	"github.com/sjperalta/studio-finance-api/internal/repository"
	"github.com/sjperalta/studio-finance-api/pkg/logger"
	"gorm.io/gorm"
)

//go:embed templates/receipts/*.html
var receiptTemplates embed.FS

var receiptTemplate = template.Must(template.ParseFS(receiptTemplates, "templates/receipts/receipt.html"))

// DocumentRenderer converts an HTML document to PDF
type DocumentRenderer interface {
	RenderPDF(html []byte) ([]byte, error)
}

type wkhtmlRenderer struct{}

// NewWkhtmlRenderer renders documents with the wkhtmltopdf binary
func NewWkhtmlRenderer() DocumentRenderer {
	return wkhtmlRenderer{}
}

func (wkhtmlRenderer) RenderPDF(html []byte) ([]byte, error) {
	pdfg, err := wkhtmltopdf.NewPDFGenerator()
	if err != nil {
		return nil, fmt.Errorf("failed to create pdf generator: %w", err)
	}

	pdfg.Dpi.Set(300)
	pdfg.PageSize.Set(wkhtmltopdf.PageSizeA5)
	pdfg.Orientation.Set(wkhtmltopdf.OrientationPortrait)

	page := wkhtmltopdf.NewPageReader(bytes.NewReader(html))
	page.Encoding.Set("utf-8")
	pdfg.AddPage(page)

	if err := pdfg.Create(); err != nil {
		return nil, fmt.Errorf("failed to create pdf: %w", err)
	}
	return pdfg.Bytes(), nil
}

// ReceiptInput describes a receipt to issue. When IncomeID is set, missing
// fields are taken from the income entry.
type ReceiptInput struct {
	IncomeID      *uint
	Amount        decimal.Decimal
	CustomerName  string
	PaymentMethod models.PaymentMethod
	Description   string
}

type ReceiptService struct {
	repo         repository.ReceiptRepository
	incomeRepo   repository.IncomeRepository
	counter      repository.SequenceCounter
	renderer     DocumentRenderer
	auditSvc     *AuditService
	clock        clock.Clock
	maxRetries   int
	businessName string
	taxID        string
}

// ReceiptOptions carries the configurable parts of ReceiptService
type ReceiptOptions struct {
	MaxRetries   int
	BusinessName string
	TaxID        string
}

func NewReceiptService(
	repo repository.ReceiptRepository,
	incomeRepo repository.IncomeRepository,
	counter repository.SequenceCounter,
	renderer DocumentRenderer,
	auditSvc *AuditService,
	clk clock.Clock,
	opts ReceiptOptions,
) *ReceiptService {
	if opts.MaxRetries < 1 {
		opts.MaxRetries = 1
	}
	return &ReceiptService{
		repo:         repo,
		incomeRepo:   incomeRepo,
		counter:      counter,
		renderer:     renderer,
		auditSvc:     auditSvc,
		clock:        clk,
		maxRetries:   opts.MaxRetries,
		businessName: opts.BusinessName,
		taxID:        opts.TaxID,
	}
}

// Allocate hands out the next receipt number of the current business day.
// Numbers are never reused, even when the receipt is not persisted.
func (s *ReceiptService) Allocate(ctx context.Context) (string, error) {
	dayKey := finance.DayKey(s.clock.Now(), clock.Location(s.clock))
	seq, err := s.counter.Next(ctx, dayKey)
	if err != nil {
		return "", internalError("failed to allocate receipt number", err)
	}
	return finance.FormatReceiptNumber(dayKey, seq), nil
}

// Issue allocates a number and stores the receipt. If the unique index
// rejects the number, a fresh one is allocated, up to maxRetries times.
func (s *ReceiptService) Issue(ctx context.Context, input ReceiptInput, actor Actor) (*models.Receipt, error) {
	if input.IncomeID != nil {
		if err := s.fillFromIncome(ctx, &input); err != nil {
			return nil, err
		}
	}
	if input.PaymentMethod == "" {
		input.PaymentMethod = models.PaymentMethodCash
	}
	if !input.Amount.IsPositive() {
		return nil, validationError("receipt amount must be positive")
	}
	if !input.PaymentMethod.Valid() {
		return nil, validationError("invalid payment_method %q", input.PaymentMethod)
	}

	now := s.clock.Now()
	loc := clock.Location(s.clock)
	for attempt := 1; attempt <= s.maxRetries; attempt++ {
		number, err := s.Allocate(ctx)
		if err != nil {
			return nil, err
		}

		receipt := &models.Receipt{
			ReceiptNumber: number,
			IssueDate:     finance.StartOfDay(now, loc),
			IncomeID:      input.IncomeID,
			Amount:        input.Amount,
			CustomerName:  strings.TrimSpace(input.CustomerName),
			PaymentMethod: input.PaymentMethod,
			Description:   strings.TrimSpace(input.Description),
			CreatedByID:   actor.UserID,
		}
		err = s.repo.Create(ctx, receipt)
		if err == nil {
			s.auditSvc.Log(ctx, actor, models.AuditActionIssue, models.AuditEntityReceipt, receipt.ID,
				fmt.Sprintf("Receipt %s issued for %s", number, receipt.Amount.StringFixed(2)))
			return receipt, nil
		}
		if !errors.Is(err, repository.ErrDuplicateReceiptNumber) {
			return nil, classify(err, "failed to save receipt")
		}
		logger.Warn("receipt number already taken, allocating another", "receipt_number", number, "attempt", attempt)
	}

	return nil, &Error{
		Kind:    KindConflict,
		Message: fmt.Sprintf("could not allocate a unique receipt number after %d attempts", s.maxRetries),
		Err:     ErrConflict,
	}
}

func (s *ReceiptService) fillFromIncome(ctx context.Context, input *ReceiptInput) error {
	income, err := s.incomeRepo.FindByID(ctx, *input.IncomeID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return notFoundError("income", *input.IncomeID)
		}
		return classify(err, "failed to load income")
	}
	if income.Status == models.IncomeStatusCancelled {
		return &Error{Kind: KindInvalidState, Message: fmt.Sprintf("income #%d is cancelled", income.ID)}
	}

	if input.Amount.IsZero() {
		input.Amount = income.Amount
	}
	if input.PaymentMethod == "" {
		input.PaymentMethod = income.PaymentMethod
	}
	if strings.TrimSpace(input.Description) == "" {
		input.Description = income.Description
	}
	return nil
}

func (s *ReceiptService) Get(ctx context.Context, id uint) (*models.Receipt, error) {
	receipt, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, notFoundError("receipt", id)
		}
		return nil, classify(err, "failed to load receipt")
	}
	return receipt, nil
}

// GetByNumber looks a receipt up by its printed number
func (s *ReceiptService) GetByNumber(ctx context.Context, number string) (*models.Receipt, error) {
	number = strings.ToUpper(strings.TrimSpace(number))
	if _, _, err := finance.ParseReceiptNumber(number); err != nil {
		return nil, validationError("%s", err.Error())
	}
	receipt, err := s.repo.FindByNumber(ctx, number)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, &Error{Kind: KindNotFound, Message: fmt.Sprintf("receipt %s not found", number), Err: ErrNotFound}
		}
		return nil, classify(err, "failed to load receipt")
	}
	return receipt, nil
}

// ListForIncome returns the receipts issued against an income entry, oldest first
func (s *ReceiptService) ListForIncome(ctx context.Context, incomeID uint) ([]models.Receipt, error) {
	if _, err := s.incomeRepo.FindByID(ctx, incomeID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, notFoundError("income", incomeID)
		}
		return nil, classify(err, "failed to load income")
	}
	receipts, err := s.repo.FindByIncome(ctx, incomeID)
	if err != nil {
		return nil, classify(err, "failed to list receipts")
	}
	return receipts, nil
}

func (s *ReceiptService) List(ctx context.Context, query *repository.ListQuery) ([]models.Receipt, int64, error) {
	receipts, total, err := s.repo.List(ctx, query)
	if err != nil {
		return nil, 0, classify(err, "failed to list receipts")
	}
	return receipts, total, nil
}

// RenderPDF produces the printable receipt document and its file name
func (s *ReceiptService) RenderPDF(ctx context.Context, id uint) ([]byte, string, error) {
	receipt, err := s.Get(ctx, id)
	if err != nil {
		return nil, "", err
	}

	html, err := s.RenderHTML(receipt)
	if err != nil {
		return nil, "", err
	}
	pdf, err := s.renderer.RenderPDF(html)
	if err != nil {
		return nil, "", externalError("failed to render receipt document", err)
	}
	return pdf, receipt.ReceiptNumber + ".pdf", nil
}

// RenderHTML fills the receipt template
func (s *ReceiptService) RenderHTML(receipt *models.Receipt) ([]byte, error) {
	data := struct {
		BusinessName  string
		TaxID         string
		Number        string
		IssueDate     string
		CustomerName  string
		Description   string
		PaymentMethod string
		Amount        string
		AmountInWords string
	}{
		BusinessName:  s.businessName,
		TaxID:         s.taxID,
		Number:        receipt.ReceiptNumber,
		IssueDate:     receipt.IssueDate.Format("2 January 2006"),
		CustomerName:  receipt.CustomerName,
		Description:   receipt.Description,
		PaymentMethod: strings.ReplaceAll(string(receipt.PaymentMethod), "_", " "),
		Amount:        finance.FormatTHB(receipt.Amount),
		AmountInWords: AmountInWords(receipt.Amount),
	}

	var buf bytes.Buffer
	if err := receiptTemplate.Execute(&buf, data); err != nil {
		return nil, internalError("failed to render receipt template", err)
	}
	return buf.Bytes(), nil
}
