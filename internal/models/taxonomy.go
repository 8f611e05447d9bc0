package models

import (
	"fmt"
	"strings"
)

// IncomeType categorizes the revenue source of an income entry
type IncomeType string

const (
	IncomeTypePackage IncomeType = "package"
	IncomeTypeProduct IncomeType = "product"
	IncomeTypeGoods   IncomeType = "goods"
	IncomeTypeSession IncomeType = "session"
	IncomeTypeManual  IncomeType = "manual"
)

// AllIncomeTypes lists every valid income type
func AllIncomeTypes() []IncomeType {
	return []IncomeType{IncomeTypePackage, IncomeTypeProduct, IncomeTypeGoods, IncomeTypeSession, IncomeTypeManual}
}

func (t IncomeType) Valid() bool {
	switch t {
	case IncomeTypePackage, IncomeTypeProduct, IncomeTypeGoods, IncomeTypeSession, IncomeTypeManual:
		return true
	}
	return false
}

// IncomeStatus is the lifecycle state of an income entry
type IncomeStatus string

const (
	IncomeStatusConfirmed IncomeStatus = "confirmed"
	IncomeStatusPending   IncomeStatus = "pending"
	IncomeStatusCancelled IncomeStatus = "cancelled"
)

func AllIncomeStatuses() []IncomeStatus {
	return []IncomeStatus{IncomeStatusConfirmed, IncomeStatusPending, IncomeStatusCancelled}
}

func (s IncomeStatus) Valid() bool {
	switch s {
	case IncomeStatusConfirmed, IncomeStatusPending, IncomeStatusCancelled:
		return true
	}
	return false
}

// PaymentMethod is how money changed hands
type PaymentMethod string

const (
	PaymentMethodCash       PaymentMethod = "cash"
	PaymentMethodTransfer   PaymentMethod = "transfer"
	PaymentMethodQRCode     PaymentMethod = "qr_code"
	PaymentMethodCreditCard PaymentMethod = "credit_card"
	PaymentMethodOther      PaymentMethod = "other"
)

func AllPaymentMethods() []PaymentMethod {
	return []PaymentMethod{PaymentMethodCash, PaymentMethodTransfer, PaymentMethodQRCode, PaymentMethodCreditCard, PaymentMethodOther}
}

func (m PaymentMethod) Valid() bool {
	switch m {
	case PaymentMethodCash, PaymentMethodTransfer, PaymentMethodQRCode, PaymentMethodCreditCard, PaymentMethodOther:
		return true
	}
	return false
}

// ExpenseCategory is the fixed expense classification
type ExpenseCategory string

const (
	ExpenseCategoryRent           ExpenseCategory = "rent"
	ExpenseCategorySalary         ExpenseCategory = "salary"
	ExpenseCategoryEquipment      ExpenseCategory = "equipment"
	ExpenseCategoryUtilities      ExpenseCategory = "utilities"
	ExpenseCategoryMarketing      ExpenseCategory = "marketing"
	ExpenseCategorySupplies       ExpenseCategory = "supplies"
	ExpenseCategoryMaintenance    ExpenseCategory = "maintenance"
	ExpenseCategoryTraining       ExpenseCategory = "training"
	ExpenseCategoryInsurance      ExpenseCategory = "insurance"
	ExpenseCategoryTransportation ExpenseCategory = "transportation"
	ExpenseCategoryOther          ExpenseCategory = "other"
)

func AllExpenseCategories() []ExpenseCategory {
	return []ExpenseCategory{
		ExpenseCategoryRent, ExpenseCategorySalary, ExpenseCategoryEquipment, ExpenseCategoryUtilities,
		ExpenseCategoryMarketing, ExpenseCategorySupplies, ExpenseCategoryMaintenance, ExpenseCategoryTraining,
		ExpenseCategoryInsurance, ExpenseCategoryTransportation, ExpenseCategoryOther,
	}
}

func (c ExpenseCategory) Valid() bool {
	for _, v := range AllExpenseCategories() {
		if c == v {
			return true
		}
	}
	return false
}

// ExpenseStatus is the approval state of an expense entry
type ExpenseStatus string

const (
	ExpenseStatusPending  ExpenseStatus = "pending"
	ExpenseStatusApproved ExpenseStatus = "approved"
	ExpenseStatusRejected ExpenseStatus = "rejected"
)

func AllExpenseStatuses() []ExpenseStatus {
	return []ExpenseStatus{ExpenseStatusPending, ExpenseStatusApproved, ExpenseStatusRejected}
}

func (s ExpenseStatus) Valid() bool {
	switch s {
	case ExpenseStatusPending, ExpenseStatusApproved, ExpenseStatusRejected:
		return true
	}
	return false
}

// PeriodType selects the time bucket of an aggregation
type PeriodType string

const (
	PeriodDaily   PeriodType = "daily"
	PeriodMonthly PeriodType = "monthly"
	PeriodYearly  PeriodType = "yearly"
)

func (p PeriodType) Valid() bool {
	switch p {
	case PeriodDaily, PeriodMonthly, PeriodYearly:
		return true
	}
	return false
}

// EnumError reports a value outside a closed enumeration
type EnumError struct {
	Field   string
	Value   string
	Allowed []string
}

func (e *EnumError) Error() string {
	return fmt.Sprintf("invalid %s %q (allowed: %s)", e.Field, e.Value, strings.Join(e.Allowed, ", "))
}

func parseEnum[T ~string](field, raw string, all []T) (T, error) {
	v := T(strings.ToLower(strings.TrimSpace(raw)))
	allowed := make([]string, 0, len(all))
	for _, candidate := range all {
		if v == candidate {
			return v, nil
		}
		allowed = append(allowed, string(candidate))
	}
	return "", &EnumError{Field: field, Value: raw, Allowed: allowed}
}

func ParseIncomeType(s string) (IncomeType, error) {
	return parseEnum("income_type", s, AllIncomeTypes())
}

func ParseIncomeStatus(s string) (IncomeStatus, error) {
	return parseEnum("status", s, AllIncomeStatuses())
}

func ParsePaymentMethod(s string) (PaymentMethod, error) {
	return parseEnum("payment_method", s, AllPaymentMethods())
}

func ParseExpenseCategory(s string) (ExpenseCategory, error) {
	return parseEnum("category", s, AllExpenseCategories())
}

func ParseExpenseStatus(s string) (ExpenseStatus, error) {
	return parseEnum("status", s, AllExpenseStatuses())
}

func ParsePeriodType(s string) (PeriodType, error) {
	return parseEnum("period_type", s, []PeriodType{PeriodDaily, PeriodMonthly, PeriodYearly})
}
