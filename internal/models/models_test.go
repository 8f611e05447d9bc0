package models

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseEnums(t *testing.T) {
	tests := []struct {
		name    string
		parse   func(string) (string, error)
		input   string
		want    string
		wantErr bool
	}{
		{"income type", wrap(ParseIncomeType), " Package ", "package", false},
		{"income type unknown", wrap(ParseIncomeType), "membership", "", true},
		{"income status", wrap(ParseIncomeStatus), "CANCELLED", "cancelled", false},
		{"payment method", wrap(ParsePaymentMethod), "qr_code", "qr_code", false},
		{"payment method unknown", wrap(ParsePaymentMethod), "barter", "", true},
		{"expense category", wrap(ParseExpenseCategory), "rent", "rent", false},
		{"expense status", wrap(ParseExpenseStatus), "approved", "approved", false},
		{"period type", wrap(ParsePeriodType), "monthly", "monthly", false},
		{"period type unknown", wrap(ParsePeriodType), "weekly", "", true},
		{"empty", wrap(ParseExpenseStatus), "", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.parse(tt.input)
			if tt.wantErr {
				var enumErr *EnumError
				require.True(t, errors.As(err, &enumErr))
				assert.NotEmpty(t, enumErr.Allowed)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func wrap[T ~string](parse func(string) (T, error)) func(string) (string, error) {
	return func(s string) (string, error) {
		v, err := parse(s)
		return string(v), err
	}
}

func TestEnumError_Message(t *testing.T) {
	_, err := ParsePeriodType("weekly")
	assert.EqualError(t, err, `invalid period_type "weekly" (allowed: daily, monthly, yearly)`)
}

func TestTaxonomyValid(t *testing.T) {
	for _, c := range AllExpenseCategories() {
		assert.True(t, c.Valid(), c)
	}
	assert.Len(t, AllExpenseCategories(), 11)
	assert.False(t, ExpenseCategory("travel").Valid())
	assert.False(t, IncomeStatus("").Valid())
	assert.True(t, PeriodYearly.Valid())
}

func TestIncomeEntry_CountsTowardRevenue(t *testing.T) {
	tests := []struct {
		name   string
		amount int64
		status IncomeStatus
		want   bool
	}{
		{"confirmed positive", 100, IncomeStatusConfirmed, true},
		{"confirmed zero", 0, IncomeStatusConfirmed, false},
		{"pending", 100, IncomeStatusPending, false},
		{"cancelled", 100, IncomeStatusCancelled, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := IncomeEntry{Amount: decimal.NewFromInt(tt.amount), Status: tt.status}
			assert.Equal(t, tt.want, e.CountsTowardRevenue())
		})
	}
}

func TestExpenseEntry_Helpers(t *testing.T) {
	parentID := uint(1)
	path := "receipts/abc.jpg"

	parent := ExpenseEntry{Amount: decimal.NewFromInt(1070), VATAmount: decimal.NewFromInt(70), IsRecurring: true, RecurringMonths: 3}
	child := ExpenseEntry{IsRecurring: true, RecurringMonths: 3, ParentExpenseID: &parentID, ReceiptPath: &path}

	assert.True(t, parent.NetAmount().Equal(decimal.NewFromInt(1000)))
	assert.True(t, parent.IsRecurringParent())
	assert.False(t, child.IsRecurringParent())
	assert.False(t, parent.HasReceipt())
	assert.True(t, child.HasReceipt())
}

func TestOrder_IncomeType(t *testing.T) {
	assert.Equal(t, IncomeTypePackage, (&Order{OrderType: OrderTypePackage}).IncomeType())
	assert.Equal(t, IncomeTypeSession, (&Order{OrderType: OrderTypeSession}).IncomeType())
	assert.Equal(t, IncomeTypeGoods, (&Order{OrderType: OrderTypeGoods}).IncomeType())
	assert.False(t, (&Order{OrderType: OrderTypeGoods}).GrantsSessions())
}

func TestOrder_AppendNote(t *testing.T) {
	o := &Order{}
	o.AppendNote("first")
	o.AppendNote("cancelled: income #4 deleted")
	require.NotNil(t, o.Notes)
	assert.Equal(t, "first\ncancelled: income #4 deleted", *o.Notes)
}

func TestDecimalMarshalsAsNumber(t *testing.T) {
	data, err := json.Marshal(IncomeEntry{Amount: decimal.RequireFromString("1500.50")})
	require.NoError(t, err)
	assert.Contains(t, string(data), `"amount":1500.5`)
}
