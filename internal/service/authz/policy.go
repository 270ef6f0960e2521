// Package authz реализует проверку доступа на уровне ресурсов.
// Решение принимается после загрузки ресурса: так "нет доступа"
// отличим от "не существует".
package authz

import (
	"fmt"
	"strings"

	"github.com/vladislavdragonenkov/catalog/internal/domain"
)

// Capability именует действие над ресурсом.
type Capability string

const (
	// CapabilityViewOrder — чтение чужого или своего заказа.
	CapabilityViewOrder Capability = "view_order"
	// CapabilityCancelOrder — отмена заказа.
	CapabilityCancelOrder Capability = "cancel_order"
)

// OwnedResource — ресурс с владельцем.
type OwnedResource interface {
	OwnerID() string
}

// Policy решает, разрешён ли доступ принципала к ресурсу.
type Policy func(principal domain.Principal, resource OwnedResource) bool

// OwnerOrAdmin пропускает администратора либо владельца ресурса.
// Идентификаторы сравниваются без учёта регистра.
func OwnerOrAdmin(principal domain.Principal, resource OwnedResource) bool {
	if principal.IsAdmin() {
		return true
	}
	return strings.EqualFold(principal.UserID, resource.OwnerID())
}

// Authorizer хранит политики по действиям.
type Authorizer struct {
	policies map[Capability]Policy
}

// NewAuthorizer возвращает Authorizer с политиками по умолчанию:
// заказы видит и отменяет владелец или администратор.
func NewAuthorizer() *Authorizer {
	return &Authorizer{
		policies: map[Capability]Policy{
			CapabilityViewOrder:   OwnerOrAdmin,
			CapabilityCancelOrder: OwnerOrAdmin,
		},
	}
}

// Register добавляет или заменяет политику для действия.
func (a *Authorizer) Register(capability Capability, policy Policy) {
	a.policies[capability] = policy
}

// Authorize возвращает nil при разрешённом доступе и ErrForbidden иначе.
// Неизвестное действие запрещено.
func (a *Authorizer) Authorize(capability Capability, principal domain.Principal, resource OwnedResource) error {
	policy, ok := a.policies[capability]
	if !ok {
		return fmt.Errorf("%w: unknown capability %q", domain.ErrForbidden, capability)
	}
	if !policy(principal, resource) {
		return fmt.Errorf("%w: %s denied for user %s", domain.ErrForbidden, capability, principal.UserID)
	}
	return nil
}
