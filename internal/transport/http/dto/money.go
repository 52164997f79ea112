package dto

import "github.com/shopspring/decimal"

// Money форматирует сумму строкой с двумя знаками, например "45.00".
func Money(d decimal.Decimal) string { return d.StringFixed(2) }

type PageMeta struct {
	Page     int   `json:"page"`
	PageSize int   `json:"page_size"`
	Total    int64 `json:"total"`
	Pages    int   `json:"pages"`
	HasNext  bool  `json:"has_next"`
	HasPrev  bool  `json:"has_prev"`
}

func NewPageMeta(page, size int, total int64) PageMeta {
	pages := 0
	if size > 0 {
		pages = int((total + int64(size) - 1) / int64(size))
	}
	return PageMeta{
		Page:     page,
		PageSize: size,
		Total:    total,
		Pages:    pages,
		HasNext:  page < pages,
		HasPrev:  page > 1,
	}
}
