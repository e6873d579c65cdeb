// Package models contains GORM-specific persistence models that map to database tables.
// These models are separate from domain entities to keep the domain layer pure and free
// from ORM concerns.
//
// Structure:
//   - base.go: common columns (ids, timestamps, version, actors) and JSON column helpers
//   - production.go: job orders, internal work orders and their allocation rows, ledger records
//   - packing.go: packing bundles
//   - dispatch.go: dispatches
//
// Nested values that are only ever read with their owner (process steps,
// documents, price lines) are stored as JSON columns. Values that are
// aggregated or locked in SQL get their own columns or tables.
package models
