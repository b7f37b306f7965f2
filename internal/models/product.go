package models

import "time"

// ProductType определяет режим оформления заказа.
type ProductType string

// Типы товаров.
const (
	ProductOneTime      ProductType = "ONE_TIME"
	ProductSubscription ProductType = "SUBSCRIPTION"
)

// Product — позиция каталога. Slug уникален и не меняется после создания.
// Пустой StripePriceID означает, что товар нельзя купить онлайн.
type Product struct {
	ID              int64       `json:"id"`
	Name            string      `json:"name"`
	Slug            string      `json:"slug"`
	Description     string      `json:"description,omitempty"`
	PriceMinorUnits int64       `json:"price_minor_units"`
	Currency        string      `json:"currency"`
	Type            ProductType `json:"type"`
	StripePriceID   string      `json:"-"`
	Active          bool        `json:"active"`
	CreatedAt       time.Time   `json:"created_at"`
}

// IsSubscription сообщает, продаётся ли товар как подписка.
func (p *Product) IsSubscription() bool {
	return p.Type == ProductSubscription
}

// Purchasable сообщает, можно ли начать оплату товара.
func (p *Product) Purchasable() bool {
	return p.Active && p.StripePriceID != ""
}
