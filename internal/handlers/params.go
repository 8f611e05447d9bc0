package handlers

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sjperalta/studio-finance-api/internal/finance"
	"github.com/sjperalta/studio-finance-api/internal/middleware"
	"github.com/sjperalta/studio-finance-api/internal/models"
	"github.com/sjperalta/studio-finance-api/internal/repository"
	"github.com/sjperalta/studio-finance-api/internal/services"
)

const maxPerPage = 100

func badRequest(format string, args ...any) error {
	return &services.Error{Kind: services.KindValidation, Message: fmt.Sprintf(format, args...)}
}

// parseID reads a positive numeric path parameter
func parseID(c *gin.Context, name string) (uint, error) {
	id, err := strconv.ParseUint(c.Param(name), 10, 32)
	if err != nil || id == 0 {
		return 0, badRequest("invalid %s %q", name, c.Param(name))
	}
	return uint(id), nil
}

// listQuery reads page, per_page, search_term, sort_by and sort_dir
func listQuery(c *gin.Context, defaultPerPage int) *repository.ListQuery {
	query := repository.NewListQuery()
	query.Page, _ = strconv.Atoi(c.DefaultQuery("page", "1"))
	query.PerPage, _ = strconv.Atoi(c.DefaultQuery("per_page", strconv.Itoa(defaultPerPage)))
	if query.Page < 1 {
		query.Page = 1
	}
	if query.PerPage < 1 || query.PerPage > maxPerPage {
		query.PerPage = defaultPerPage
	}
	query.Search = strings.TrimSpace(c.Query("search_term"))
	query.SortBy = c.Query("sort_by")
	query.SortDir = strings.ToLower(c.DefaultQuery("sort_dir", "asc"))
	return query
}

func pagination(query *repository.ListQuery, total int64) gin.H {
	return gin.H{"total": total, "page": query.Page, "per_page": query.PerPage}
}

// parseDate accepts YYYY-MM-DD in the business location or a full RFC 3339 timestamp
func parseDate(field, raw string, loc *time.Location) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if t, err := time.ParseInLocation(finance.DayLayout, raw, loc); err == nil {
		return t, nil
	}
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return t.In(loc), nil
	}
	return time.Time{}, badRequest("invalid %s %q, expected YYYY-MM-DD", field, raw)
}

// dateRange reads the required start_date and end_date query parameters
func dateRange(c *gin.Context, loc *time.Location) (finance.DateRange, error) {
	rng, err := finance.ParseDateRange(c.Query("start_date"), c.Query("end_date"), loc)
	if err != nil {
		return finance.DateRange{}, badRequest("%s", err.Error())
	}
	return rng, nil
}

// optionalDateRange is dateRange when both ends are given, nil when neither is
func optionalDateRange(c *gin.Context, loc *time.Location) (*finance.DateRange, error) {
	if c.Query("start_date") == "" && c.Query("end_date") == "" {
		return nil, nil
	}
	rng, err := dateRange(c, loc)
	if err != nil {
		return nil, err
	}
	return &rng, nil
}

// csvParam splits a comma separated query parameter, dropping blanks
func csvParam(c *gin.Context, key string) []string {
	raw := c.Query(key)
	if raw == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// enumList parses every value of a comma separated enum parameter
func enumList[T ~string](c *gin.Context, key string, parse func(string) (T, error)) ([]T, error) {
	var out []T
	for _, raw := range csvParam(c, key) {
		v, err := parse(raw)
		if err != nil {
			return nil, badRequest("%s", err.Error())
		}
		out = append(out, v)
	}
	return out, nil
}

// enumValue parses an optional enum value; blank stays blank
func enumValue[T ~string](raw string, parse func(string) (T, error)) (T, error) {
	if strings.TrimSpace(raw) == "" {
		return "", nil
	}
	v, err := parse(raw)
	if err != nil {
		return "", badRequest("%s", err.Error())
	}
	return v, nil
}

// statusFilter reads income_status and expense_status. A side left out
// falls back to the reporting default.
func statusFilter(c *gin.Context) (services.StatusFilter, error) {
	income, err := enumList(c, "income_status", models.ParseIncomeStatus)
	if err != nil {
		return services.StatusFilter{}, err
	}
	expense, err := enumList(c, "expense_status", models.ParseExpenseStatus)
	if err != nil {
		return services.StatusFilter{}, err
	}
	return services.StatusFilter{Income: income, Expense: expense}, nil
}

// intParam reads an optional integer query parameter; absent means zero
func intParam(c *gin.Context, key string) (int, error) {
	raw := strings.TrimSpace(c.Query(key))
	if raw == "" {
		return 0, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, badRequest("invalid %s %q", key, raw)
	}
	return v, nil
}

func periodParam(c *gin.Context) (models.PeriodType, error) {
	return enumValue(c.Query("period_type"), models.ParsePeriodType)
}

// actorFrom identifies the authenticated caller for the audit trail
func actorFrom(c *gin.Context) services.Actor {
	return services.Actor{
		UserID:    middleware.GetUserID(c),
		IP:        c.ClientIP(),
		UserAgent: c.Request.UserAgent(),
	}
}
