package handlers

import (
	"context"
	"io"
	"mime"
	"net/http"
	"path/filepath"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/sjperalta/studio-finance-api/internal/models"
	"github.com/sjperalta/studio-finance-api/internal/repository"
	"github.com/sjperalta/studio-finance-api/internal/services"
	"github.com/sjperalta/studio-finance-api/internal/storage"
)

type ExpenseHandler struct {
	expenseService *services.ExpenseService
	loc            *time.Location
}

func NewExpenseHandler(expenseService *services.ExpenseService, loc *time.Location) *ExpenseHandler {
	return &ExpenseHandler{expenseService: expenseService, loc: loc}
}

// ExpenseRequest is the body of POST /finance/expenses
type ExpenseRequest struct {
	Amount          decimal.Decimal `json:"amount"`
	VATAmount       decimal.Decimal `json:"vat_amount"`
	Description     string          `json:"description"`
	Category        string          `json:"category"`
	ExpenseDate     string          `json:"expense_date"`
	PaymentMethod   string          `json:"payment_method"`
	Vendor          *string         `json:"vendor"`
	IsRecurring     bool            `json:"is_recurring"`
	RecurringMonths int             `json:"recurring_months"`
}

func (r ExpenseRequest) toInput(loc *time.Location) (services.ExpenseInput, error) {
	input := services.ExpenseInput{
		Amount:          r.Amount,
		VATAmount:       r.VATAmount,
		Description:     r.Description,
		Vendor:          r.Vendor,
		IsRecurring:     r.IsRecurring,
		RecurringMonths: r.RecurringMonths,
	}
	var err error
	if input.Category, err = enumValue(r.Category, models.ParseExpenseCategory); err != nil {
		return input, err
	}
	if input.PaymentMethod, err = enumValue(r.PaymentMethod, models.ParsePaymentMethod); err != nil {
		return input, err
	}
	if r.ExpenseDate != "" {
		if input.ExpenseDate, err = parseDate("expense_date", r.ExpenseDate, loc); err != nil {
			return input, err
		}
	}
	return input, nil
}

// ExpenseUpdateRequest is the body of PUT /finance/expenses/:id; absent fields are kept
type ExpenseUpdateRequest struct {
	Amount        *decimal.Decimal `json:"amount"`
	VATAmount     *decimal.Decimal `json:"vat_amount"`
	Description   *string          `json:"description"`
	Category      *string          `json:"category"`
	ExpenseDate   *string          `json:"expense_date"`
	PaymentMethod *string          `json:"payment_method"`
	Vendor        *string          `json:"vendor"`
	Status        *string          `json:"status"`
}

func (r ExpenseUpdateRequest) toUpdate(loc *time.Location) (services.ExpenseUpdate, error) {
	if r.Status != nil {
		return services.ExpenseUpdate{}, badRequest("status changes go through approve or reject")
	}
	update := services.ExpenseUpdate{
		Amount:      r.Amount,
		VATAmount:   r.VATAmount,
		Description: r.Description,
		Vendor:      r.Vendor,
	}
	if r.Category != nil {
		cat, err := models.ParseExpenseCategory(*r.Category)
		if err != nil {
			return update, badRequest("%s", err.Error())
		}
		update.Category = &cat
	}
	if r.PaymentMethod != nil {
		m, err := models.ParsePaymentMethod(*r.PaymentMethod)
		if err != nil {
			return update, badRequest("%s", err.Error())
		}
		update.PaymentMethod = &m
	}
	if r.ExpenseDate != nil {
		d, err := parseDate("expense_date", *r.ExpenseDate, loc)
		if err != nil {
			return update, err
		}
		update.ExpenseDate = &d
	}
	return update, nil
}

type RejectRequest struct {
	Reason string `json:"reason"`
}

// @Summary List Expenses
// @Description Paginated expense ledger, filterable by date range, category, status and recurring parent
// @Tags Expenses
// @Produce json
// @Param page query int false "Page number" default(1)
// @Param per_page query int false "Items per page" default(20)
// @Param start_date query string false "YYYY-MM-DD"
// @Param end_date query string false "YYYY-MM-DD"
// @Param category query string false "Expense category"
// @Param status query string false "pending|approved|rejected"
// @Param parent_id query int false "Recurring parent expense"
// @Success 200 {object} map[string]interface{}
// @Security BearerAuth
// @Router /finance/expenses [get]
func (h *ExpenseHandler) Index(c *gin.Context) {
	query := &repository.ExpenseQuery{ListQuery: listQuery(c, 20)}

	rng, err := optionalDateRange(c, h.loc)
	if err != nil {
		respondError(c, err)
		return
	}
	if rng != nil {
		query.From, query.To = &rng.Start, &rng.End
	}
	if query.Category, err = enumValue(c.Query("category"), models.ParseExpenseCategory); err != nil {
		respondError(c, err)
		return
	}
	if query.Status, err = enumValue(c.Query("status"), models.ParseExpenseStatus); err != nil {
		respondError(c, err)
		return
	}
	if raw := c.Query("parent_id"); raw != "" {
		parentID, err := strconv.ParseUint(raw, 10, 32)
		if err != nil {
			respondError(c, badRequest("invalid parent_id %q", raw))
			return
		}
		id := uint(parentID)
		query.ParentID = &id
	}

	expenses, total, err := h.expenseService.List(c.Request.Context(), query)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"expenses": expenses, "pagination": pagination(query.ListQuery, total)})
}

// @Summary Get Expense
// @Tags Expenses
// @Produce json
// @Param id path int true "Expense ID"
// @Success 200 {object} models.ExpenseEntry
// @Failure 404 {object} ErrorResponse
// @Security BearerAuth
// @Router /finance/expenses/{id} [get]
func (h *ExpenseHandler) Show(c *gin.Context) {
	id, err := parseID(c, "id")
	if err != nil {
		respondError(c, err)
		return
	}
	entry, err := h.expenseService.Get(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"expense": entry})
}

// @Summary Create Expense
// @Description Records an expense. A recurring expense is split into monthly installments.
// @Tags Expenses
// @Accept json
// @Produce json
// @Param request body ExpenseRequest true "Expense"
// @Success 201 {object} services.ExpenseCreated
// @Failure 400 {object} ErrorResponse
// @Security BearerAuth
// @Router /finance/expenses [post]
func (h *ExpenseHandler) Create(c *gin.Context) {
	var req ExpenseRequest
	if err := BindNestedOrFlat(c, "expense", &req); err != nil {
		bindError(c, err)
		return
	}
	input, err := req.toInput(h.loc)
	if err != nil {
		respondError(c, err)
		return
	}

	created, err := h.expenseService.Create(c.Request.Context(), input, actorFrom(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, created)
}

// @Summary Update Expense
// @Tags Expenses
// @Accept json
// @Produce json
// @Param id path int true "Expense ID"
// @Param request body ExpenseUpdateRequest true "Fields to change"
// @Success 200 {object} models.ExpenseEntry
// @Security BearerAuth
// @Router /finance/expenses/{id} [put]
func (h *ExpenseHandler) Update(c *gin.Context) {
	id, err := parseID(c, "id")
	if err != nil {
		respondError(c, err)
		return
	}
	var req ExpenseUpdateRequest
	if err := BindNestedOrFlat(c, "expense", &req); err != nil {
		bindError(c, err)
		return
	}
	update, err := req.toUpdate(h.loc)
	if err != nil {
		respondError(c, err)
		return
	}

	entry, err := h.expenseService.Update(c.Request.Context(), id, update, actorFrom(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"expense": entry})
}

// @Summary Delete Expense
// @Description Deleting a recurring parent deletes all of its installments
// @Tags Expenses
// @Param id path int true "Expense ID"
// @Success 204
// @Security BearerAuth
// @Router /finance/expenses/{id} [delete]
func (h *ExpenseHandler) Delete(c *gin.Context) {
	id, err := parseID(c, "id")
	if err != nil {
		respondError(c, err)
		return
	}
	if err := h.expenseService.Delete(c.Request.Context(), id, actorFrom(c)); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// @Summary Approve Expense
// @Tags Expenses
// @Produce json
// @Param id path int true "Expense ID"
// @Success 200 {object} models.ExpenseEntry
// @Failure 422 {object} ErrorResponse
// @Security BearerAuth
// @Router /finance/expenses/{id}/approve [post]
func (h *ExpenseHandler) Approve(c *gin.Context) {
	h.transition(c, h.expenseService.Approve)
}

// @Summary Reject Expense
// @Tags Expenses
// @Accept json
// @Produce json
// @Param id path int true "Expense ID"
// @Param request body RejectRequest false "Rejection reason"
// @Success 200 {object} models.ExpenseEntry
// @Failure 422 {object} ErrorResponse
// @Security BearerAuth
// @Router /finance/expenses/{id}/reject [post]
func (h *ExpenseHandler) Reject(c *gin.Context) {
	var req RejectRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			bindError(c, err)
			return
		}
	}
	h.transition(c, func(ctx context.Context, id uint, actor services.Actor) (*models.ExpenseEntry, error) {
		return h.expenseService.Reject(ctx, id, req.Reason, actor)
	})
}

func (h *ExpenseHandler) transition(c *gin.Context, fn func(ctx context.Context, id uint, actor services.Actor) (*models.ExpenseEntry, error)) {
	id, err := parseID(c, "id")
	if err != nil {
		respondError(c, err)
		return
	}
	entry, err := fn(c.Request.Context(), id, actorFrom(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"expense": entry})
}

// @Summary Upload Expense Receipt
// @Description Attaches a JPEG, PNG or PDF receipt. Images are resized and re-encoded as JPEG.
// @Tags Expenses
// @Accept multipart/form-data
// @Produce json
// @Param id path int true "Expense ID"
// @Param receipt formData file true "Receipt file"
// @Success 200 {object} models.ExpenseEntry
// @Failure 400 {object} ErrorResponse
// @Security BearerAuth
// @Router /finance/expenses/{id}/receipt [post]
func (h *ExpenseHandler) UploadReceipt(c *gin.Context) {
	id, err := parseID(c, "id")
	if err != nil {
		respondError(c, err)
		return
	}

	file, header, err := c.Request.FormFile("receipt")
	if err != nil {
		respondError(c, badRequest("receipt file is required"))
		return
	}
	defer file.Close()

	if header.Size > storage.MaxFileSize() {
		respondError(c, badRequest("receipt file exceeds %d MB", storage.MaxFileSize()>>20))
		return
	}
	data, err := io.ReadAll(io.LimitReader(file, storage.MaxFileSize()+1))
	if err != nil {
		respondError(c, badRequest("failed to read receipt file"))
		return
	}
	if int64(len(data)) > storage.MaxFileSize() {
		respondError(c, badRequest("receipt file exceeds %d MB", storage.MaxFileSize()>>20))
		return
	}

	entry, err := h.expenseService.AttachReceipt(c.Request.Context(), id, data, header.Filename, header.Header.Get("Content-Type"), actorFrom(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"expense": entry})
}

// @Summary Download Expense Receipt
// @Tags Expenses
// @Produce application/octet-stream
// @Param id path int true "Expense ID"
// @Success 200 {file} file "receipt"
// @Failure 404 {object} ErrorResponse
// @Security BearerAuth
// @Router /finance/expenses/{id}/receipt [get]
func (h *ExpenseHandler) DownloadReceipt(c *gin.Context) {
	id, err := parseID(c, "id")
	if err != nil {
		respondError(c, err)
		return
	}
	rc, name, err := h.expenseService.OpenReceipt(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	defer rc.Close()

	contentType := mime.TypeByExtension(filepath.Ext(name))
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	c.Header("Content-Disposition", "inline; filename=\""+filepath.Base(name)+"\"")
	c.DataFromReader(http.StatusOK, -1, contentType, rc, nil)
}
