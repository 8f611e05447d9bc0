package models

import "github.com/shopspring/decimal"

func init() {
	// Amounts go out as JSON numbers so spreadsheet consumers keep raw values.
	decimal.MarshalJSONWithoutQuotes = true
}
