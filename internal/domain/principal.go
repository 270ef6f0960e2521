package domain

// Role определяет роль текущего вызывающего.
type Role string

const (
	// RoleAdmin видит и отменяет любые заказы.
	RoleAdmin Role = "admin"
	// RoleCustomer ограничен собственными заказами.
	RoleCustomer Role = "customer"
)

// Principal описывает вызывающего в рамках одного запроса.
// Его поставляет внешний слой аутентификации.
type Principal struct {
	UserID string
	Role   Role
}

// IsAdmin сообщает, обладает ли вызывающий административной ролью.
func (p Principal) IsAdmin() bool {
	return p.Role == RoleAdmin
}
