package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/sjperalta/studio-finance-api/internal/models"
	"github.com/sjperalta/studio-finance-api/internal/repository"
	"github.com/sjperalta/studio-finance-api/internal/services"
)

type IncomeHandler struct {
	incomeService *services.IncomeService
	loc           *time.Location
}

func NewIncomeHandler(incomeService *services.IncomeService, loc *time.Location) *IncomeHandler {
	return &IncomeHandler{incomeService: incomeService, loc: loc}
}

// IncomeRequest is the body of POST /finance/incomes
type IncomeRequest struct {
	Amount        decimal.Decimal `json:"amount"`
	Description   string          `json:"description"`
	IncomeType    string          `json:"income_type"`
	IncomeDate    string          `json:"income_date"`
	Status        string          `json:"status"`
	Category      string          `json:"category"`
	PaymentMethod string          `json:"payment_method"`
	OrderID       *uint           `json:"order_id"`
	ReservationID *uint           `json:"reservation_id"`
	Notes         *string         `json:"notes"`
}

func (r IncomeRequest) toInput(loc *time.Location) (services.IncomeInput, error) {
	input := services.IncomeInput{
		Amount:        r.Amount,
		Description:   r.Description,
		Category:      r.Category,
		OrderID:       r.OrderID,
		ReservationID: r.ReservationID,
		Notes:         r.Notes,
	}
	var err error
	if input.IncomeType, err = enumValue(r.IncomeType, models.ParseIncomeType); err != nil {
		return input, err
	}
	if input.Status, err = enumValue(r.Status, models.ParseIncomeStatus); err != nil {
		return input, err
	}
	if input.PaymentMethod, err = enumValue(r.PaymentMethod, models.ParsePaymentMethod); err != nil {
		return input, err
	}
	if r.IncomeDate != "" {
		if input.IncomeDate, err = parseDate("income_date", r.IncomeDate, loc); err != nil {
			return input, err
		}
	}
	return input, nil
}

// IncomeUpdateRequest is the body of PUT /finance/incomes/:id; absent fields are kept
type IncomeUpdateRequest struct {
	Amount        *decimal.Decimal `json:"amount"`
	Description   *string          `json:"description"`
	IncomeType    *string          `json:"income_type"`
	IncomeDate    *string          `json:"income_date"`
	Status        *string          `json:"status"`
	Category      *string          `json:"category"`
	PaymentMethod *string          `json:"payment_method"`
	Notes         *string          `json:"notes"`
}

func (r IncomeUpdateRequest) toUpdate(loc *time.Location) (services.IncomeUpdate, error) {
	if r.Status != nil {
		return services.IncomeUpdate{}, badRequest("status changes go through confirm or cancel")
	}
	update := services.IncomeUpdate{
		Amount:      r.Amount,
		Description: r.Description,
		Category:    r.Category,
		Notes:       r.Notes,
	}
	if r.IncomeType != nil {
		t, err := models.ParseIncomeType(*r.IncomeType)
		if err != nil {
			return update, badRequest("%s", err.Error())
		}
		update.IncomeType = &t
	}
	if r.PaymentMethod != nil {
		m, err := models.ParsePaymentMethod(*r.PaymentMethod)
		if err != nil {
			return update, badRequest("%s", err.Error())
		}
		update.PaymentMethod = &m
	}
	if r.IncomeDate != nil {
		d, err := parseDate("income_date", *r.IncomeDate, loc)
		if err != nil {
			return update, err
		}
		update.IncomeDate = &d
	}
	return update, nil
}

// @Summary List Incomes
// @Description Paginated income ledger, filterable by date range, type, status, category and payment method
// @Tags Incomes
// @Produce json
// @Param page query int false "Page number" default(1)
// @Param per_page query int false "Items per page" default(20)
// @Param start_date query string false "YYYY-MM-DD"
// @Param end_date query string false "YYYY-MM-DD"
// @Param income_type query string false "package|product|goods|session|manual"
// @Param status query string false "confirmed|pending|cancelled"
// @Success 200 {object} map[string]interface{}
// @Security BearerAuth
// @Router /finance/incomes [get]
func (h *IncomeHandler) Index(c *gin.Context) {
	query := &repository.IncomeQuery{ListQuery: listQuery(c, 20)}
	query.Category = c.Query("category")

	rng, err := optionalDateRange(c, h.loc)
	if err != nil {
		respondError(c, err)
		return
	}
	if rng != nil {
		query.From, query.To = &rng.Start, &rng.End
	}
	if query.IncomeType, err = enumValue(c.Query("income_type"), models.ParseIncomeType); err != nil {
		respondError(c, err)
		return
	}
	if query.Status, err = enumValue(c.Query("status"), models.ParseIncomeStatus); err != nil {
		respondError(c, err)
		return
	}
	if query.PaymentMethod, err = enumValue(c.Query("payment_method"), models.ParsePaymentMethod); err != nil {
		respondError(c, err)
		return
	}

	incomes, total, err := h.incomeService.List(c.Request.Context(), query)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"incomes": incomes, "pagination": pagination(query.ListQuery, total)})
}

// @Summary Get Income
// @Tags Incomes
// @Produce json
// @Param id path int true "Income ID"
// @Success 200 {object} models.IncomeEntry
// @Failure 404 {object} ErrorResponse
// @Security BearerAuth
// @Router /finance/incomes/{id} [get]
func (h *IncomeHandler) Show(c *gin.Context) {
	id, err := parseID(c, "id")
	if err != nil {
		respondError(c, err)
		return
	}
	entry, err := h.incomeService.Get(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"income": entry})
}

// @Summary Create Income
// @Description Records a manual income entry. The body may be flat or nested under "income".
// @Tags Incomes
// @Accept json
// @Produce json
// @Param request body IncomeRequest true "Income"
// @Success 201 {object} models.IncomeEntry
// @Failure 400 {object} ErrorResponse
// @Security BearerAuth
// @Router /finance/incomes [post]
func (h *IncomeHandler) Create(c *gin.Context) {
	var req IncomeRequest
	if err := BindNestedOrFlat(c, "income", &req); err != nil {
		bindError(c, err)
		return
	}
	input, err := req.toInput(h.loc)
	if err != nil {
		respondError(c, err)
		return
	}

	entry, err := h.incomeService.Create(c.Request.Context(), input, actorFrom(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"income": entry})
}

// @Summary Book Order Income
// @Description Books the revenue of an approved order. Repeated calls return the same entry.
// @Tags Incomes
// @Produce json
// @Param order_id path int true "Order ID"
// @Success 201 {object} models.IncomeEntry
// @Failure 422 {object} ErrorResponse
// @Security BearerAuth
// @Router /finance/incomes/from_order/{order_id} [post]
func (h *IncomeHandler) FromOrder(c *gin.Context) {
	orderID, err := parseID(c, "order_id")
	if err != nil {
		respondError(c, err)
		return
	}
	entry, err := h.incomeService.BookOrder(c.Request.Context(), orderID, actorFrom(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"income": entry})
}

// @Summary Update Income
// @Tags Incomes
// @Accept json
// @Produce json
// @Param id path int true "Income ID"
// @Param request body IncomeUpdateRequest true "Fields to change"
// @Success 200 {object} models.IncomeEntry
// @Security BearerAuth
// @Router /finance/incomes/{id} [put]
func (h *IncomeHandler) Update(c *gin.Context) {
	id, err := parseID(c, "id")
	if err != nil {
		respondError(c, err)
		return
	}
	var req IncomeUpdateRequest
	if err := BindNestedOrFlat(c, "income", &req); err != nil {
		bindError(c, err)
		return
	}
	update, err := req.toUpdate(h.loc)
	if err != nil {
		respondError(c, err)
		return
	}

	entry, err := h.incomeService.Update(c.Request.Context(), id, update, actorFrom(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"income": entry})
}

// @Summary Delete Income
// @Description Deletes the entry and reverses the linked order, atomically
// @Tags Incomes
// @Param id path int true "Income ID"
// @Success 204
// @Security BearerAuth
// @Router /finance/incomes/{id} [delete]
func (h *IncomeHandler) Delete(c *gin.Context) {
	id, err := parseID(c, "id")
	if err != nil {
		respondError(c, err)
		return
	}
	if err := h.incomeService.Delete(c.Request.Context(), id, actorFrom(c)); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// @Summary Confirm Income
// @Tags Incomes
// @Produce json
// @Param id path int true "Income ID"
// @Success 200 {object} models.IncomeEntry
// @Failure 422 {object} ErrorResponse
// @Security BearerAuth
// @Router /finance/incomes/{id}/confirm [post]
func (h *IncomeHandler) Confirm(c *gin.Context) {
	h.transition(c, h.incomeService.Confirm)
}

// @Summary Cancel Income
// @Tags Incomes
// @Produce json
// @Param id path int true "Income ID"
// @Success 200 {object} models.IncomeEntry
// @Failure 422 {object} ErrorResponse
// @Security BearerAuth
// @Router /finance/incomes/{id}/cancel [post]
func (h *IncomeHandler) Cancel(c *gin.Context) {
	h.transition(c, h.incomeService.Cancel)
}

func (h *IncomeHandler) transition(c *gin.Context, fn func(ctx context.Context, id uint, actor services.Actor) (*models.IncomeEntry, error)) {
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
	c.JSON(http.StatusOK, gin.H{"income": entry})
}
