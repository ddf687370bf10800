package quick_list

import "github.com/shopspring/decimal"

type CreateQuickListItemDTO struct {
	Text  string          `json:"text"`
	Price decimal.Decimal `json:"price"`
}
