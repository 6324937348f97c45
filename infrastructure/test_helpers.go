package infrastructure

import (
	"crowdfund/application"
	"crowdfund/database"
	"crowdfund/domain/interfaces"
	"crowdfund/repository"
)

// TestUnitOfWorkFactory is a test factory that creates new unit of work instances
// This is placed in infrastructure package to avoid circular dependencies between
// application and repository packages
type TestUnitOfWorkFactory struct {
	db                     *database.DB
	transactionalPublisher interfaces.TransactionalEventPublisher
}

// NewTestUnitOfWorkFactory creates a new test unit of work factory. When
// transactionalPublisher is nil, events are queued and dropped via a no-op
// publisher so tests that don't care about events need no NATS wiring.
func NewTestUnitOfWorkFactory(db *database.DB, transactionalPublisher interfaces.TransactionalEventPublisher) *TestUnitOfWorkFactory {
	if transactionalPublisher == nil {
		transactionalPublisher = NewNATSTransactionalPublisher(NewNoopEventPublisher())
	}
	return &TestUnitOfWorkFactory{
		db:                     db,
		transactionalPublisher: transactionalPublisher,
	}
}

// Create creates a new UnitOfWork instance for testing
func (f *TestUnitOfWorkFactory) Create() application.UnitOfWork {
	// Create a fresh UoW for each call to avoid transaction state issues
	return repository.CreateTestUnitOfWork(f.db, f.transactionalPublisher)
}
