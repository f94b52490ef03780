// Package mocks provides mock implementations for testing purposes.
package mocks

//go:generate mockgen -destination=mock_persistence.go -package=mocks github.com/PedroCamargo-dev/idempotent-transfers-service/internal/ports/gateway/persistence IdempotencyRepository,TransferRepository,UnitOfWork
//go:generate mockgen -destination=mock_ledger.go -package=mocks github.com/PedroCamargo-dev/idempotent-transfers-service/internal/ports/gateway/ledger Gateway,ResilientLedger
//go:generate mockgen -destination=mock_platform.go -package=mocks github.com/PedroCamargo-dev/idempotent-transfers-service/internal/ports/gateway/platform Clock,IDGenerator
