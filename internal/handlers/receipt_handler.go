package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/sjperalta/studio-finance-api/internal/models"
	"github.com/sjperalta/studio-finance-api/internal/services"
)

type ReceiptHandler struct {
	receiptService *services.ReceiptService
}

func NewReceiptHandler(receiptService *services.ReceiptService) *ReceiptHandler {
	return &ReceiptHandler{receiptService: receiptService}
}

// ReceiptRequest is the body of POST /finance/receipts. With income_id set,
// amount, payment method and description default to the income entry.
type ReceiptRequest struct {
	IncomeID      *uint           `json:"income_id"`
	Amount        decimal.Decimal `json:"amount"`
	CustomerName  string          `json:"customer_name"`
	PaymentMethod string          `json:"payment_method"`
	Description   string          `json:"description"`
}

// @Summary List Receipts
// @Tags Receipts
// @Produce json
// @Param page query int false "Page number" default(1)
// @Param per_page query int false "Items per page" default(20)
// @Param issue_date query string false "YYYY-MM-DD"
// @Success 200 {object} map[string]interface{}
// @Security BearerAuth
// @Router /finance/receipts [get]
func (h *ReceiptHandler) Index(c *gin.Context) {
	query := listQuery(c, 20)
	if day := c.Query("issue_date"); day != "" {
		query.Filters["issue_date"] = day
	}

	receipts, total, err := h.receiptService.List(c.Request.Context(), query)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"receipts": receipts, "pagination": pagination(query, total)})
}

// @Summary Issue Receipt
// @Description Issues a receipt with the next number of the business day (R<YYYYMMDD>-NNNN)
// @Tags Receipts
// @Accept json
// @Produce json
// @Param request body ReceiptRequest true "Receipt"
// @Success 201 {object} models.Receipt
// @Failure 409 {object} ErrorResponse
// @Security BearerAuth
// @Router /finance/receipts [post]
func (h *ReceiptHandler) Create(c *gin.Context) {
	var req ReceiptRequest
	if err := BindNestedOrFlat(c, "receipt", &req); err != nil {
		bindError(c, err)
		return
	}
	method, err := enumValue(req.PaymentMethod, models.ParsePaymentMethod)
	if err != nil {
		respondError(c, err)
		return
	}

	receipt, err := h.receiptService.Issue(c.Request.Context(), services.ReceiptInput{
		IncomeID:      req.IncomeID,
		Amount:        req.Amount,
		CustomerName:  req.CustomerName,
		PaymentMethod: method,
		Description:   req.Description,
	}, actorFrom(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"receipt": receipt})
}

// @Summary Get Receipt
// @Tags Receipts
// @Produce json
// @Param id path int true "Receipt ID"
// @Success 200 {object} models.Receipt
// @Failure 404 {object} ErrorResponse
// @Security BearerAuth
// @Router /finance/receipts/{id} [get]
func (h *ReceiptHandler) Show(c *gin.Context) {
	id, err := parseID(c, "id")
	if err != nil {
		respondError(c, err)
		return
	}
	receipt, err := h.receiptService.Get(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"receipt": receipt})
}

// @Summary Get Receipt by Number
// @Tags Receipts
// @Produce json
// @Param number path string true "Receipt number, e.g. R20250826-0001"
// @Success 200 {object} models.Receipt
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Security BearerAuth
// @Router /finance/receipt-numbers/{number} [get]
func (h *ReceiptHandler) ShowByNumber(c *gin.Context) {
	receipt, err := h.receiptService.GetByNumber(c.Request.Context(), c.Param("number"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"receipt": receipt})
}

// @Summary List Receipts of an Income
// @Tags Receipts
// @Produce json
// @Param id path int true "Income ID"
// @Success 200 {object} map[string]interface{}
// @Failure 404 {object} ErrorResponse
// @Security BearerAuth
// @Router /finance/incomes/{id}/receipts [get]
func (h *ReceiptHandler) ForIncome(c *gin.Context) {
	id, err := parseID(c, "id")
	if err != nil {
		respondError(c, err)
		return
	}
	receipts, err := h.receiptService.ListForIncome(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"receipts": receipts})
}

// @Summary Receipt PDF
// @Tags Receipts
// @Produce application/pdf
// @Param id path int true "Receipt ID"
// @Success 200 {file} file "receipt.pdf"
// @Failure 502 {object} ErrorResponse
// @Security BearerAuth
// @Router /finance/receipts/{id}/pdf [get]
func (h *ReceiptHandler) PDF(c *gin.Context) {
	id, err := parseID(c, "id")
	if err != nil {
		respondError(c, err)
		return
	}
	data, name, err := h.receiptService.RenderPDF(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	attachment(c, "inline", "application/pdf", name, data)
}
