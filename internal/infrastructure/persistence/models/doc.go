// Package models contains GORM persistence models that map to database tables.
// Domain entities carry no ORM tags; each model converts to and from its
// domain type with ToDomain and FromDomain.
//
// Structure:
//   - base.go: BaseModel and AccountAggregateModel
//   - billing.go: bills, expenses, expense categories, payments
//   - metering.go: meters, submeters, meter readings
//   - leasing.go: leases, units, tenants, properties
//   - identity.go: users (existence lookup only)
//   - outbox.go: outbox rows written in the service transaction
package models
