package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

const maxProductNameLength = 200

// Product — позиция каталога. Мягкое удаление скрывает запись из всех выборок,
// листинги дополнительно отфильтровывают неактивные товары.
type Product struct {
	ID        int64
	Name      string
	Price     decimal.Decimal
	IsActive  bool
	IsDeleted bool
	// Version — непрозрачный токен optimistic concurrency, меняется при каждой записи.
	Version    int64
	CreatedAt  time.Time
	CreatedBy  string
	ModifiedAt time.Time
	ModifiedBy string
}

// ValidateInvariants проверяет базовые инварианты товара и возвращает список замечаний.
func (p *Product) ValidateInvariants() []error {
	var errs []error

	if p.Name == "" || len(p.Name) > maxProductNameLength {
		errs = append(errs, ErrProductNameInvalid)
	}
	if !p.Price.IsPositive() {
		errs = append(errs, ErrProductPriceInvalid)
	}

	return errs
}
