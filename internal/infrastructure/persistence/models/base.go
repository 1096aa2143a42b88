package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/propledger/backend/internal/domain/shared"
)

// BaseModel provides common persistence fields for all models.
// It maps to the domain's BaseEntity.
type BaseModel struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey"`
	CreatedAt time.Time `gorm:"not null"`
	UpdatedAt time.Time `gorm:"not null"`
}

// ToDomain converts BaseModel to domain BaseEntity
func (m *BaseModel) ToDomain() shared.BaseEntity {
	return shared.BaseEntity{
		ID:        m.ID,
		CreatedAt: m.CreatedAt,
		UpdatedAt: m.UpdatedAt,
	}
}

// FromDomainBaseEntity populates BaseModel from domain BaseEntity
func (m *BaseModel) FromDomainBaseEntity(e shared.BaseEntity) {
	m.ID = e.ID
	m.CreatedAt = e.CreatedAt
	m.UpdatedAt = e.UpdatedAt
}

// AccountAggregateModel provides common persistence fields for account-scoped aggregate roots
type AccountAggregateModel struct {
	BaseModel
	AccountID uuid.UUID `gorm:"type:uuid;not null;index"`
	Version   int       `gorm:"not null;default:1"`
}

// FromDomainAccountAggregateRoot populates AccountAggregateModel from the domain root
func (m *AccountAggregateModel) FromDomainAccountAggregateRoot(a shared.AccountAggregateRoot) {
	m.FromDomainBaseEntity(a.BaseEntity)
	m.AccountID = a.AccountID
	m.Version = a.Version
}

// ToDomainAccountAggregateRoot rebuilds the domain root without pending events
func (m *AccountAggregateModel) ToDomainAccountAggregateRoot() shared.AccountAggregateRoot {
	root := shared.NewAccountAggregateRoot(m.AccountID)
	root.BaseEntity = m.BaseModel.ToDomain()
	root.Version = m.Version
	return root
}
