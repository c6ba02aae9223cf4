package repository

import (
	"context"

	"gorm.io/gorm"
)

type txCtxKey struct{}

// TransactionManager runs a function inside a single database
// transaction. The open *gorm.DB is carried on the context so that
// every repository call made from fn joins the same transaction —
// this is how an approval decision and its audit row, or an event
// envelope and its SUBMIT_EVENT entry, commit or roll back together.
type TransactionManager interface {
	RunInTx(ctx context.Context, fn func(txCtx context.Context) error) error
}

type transactionManager struct {
	db *gorm.DB
}

func NewTransactionManager(db *gorm.DB) TransactionManager {
	return &transactionManager{db: db}
}

func (t *transactionManager) RunInTx(ctx context.Context, fn func(txCtx context.Context) error) error {
	return t.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(context.WithValue(ctx, txCtxKey{}, tx))
	})
}

// GetDB returns the transaction carried on ctx, or rootDB when the
// caller is not inside RunInTx.
func GetDB(ctx context.Context, rootDB *gorm.DB) *gorm.DB {
	if tx, ok := ctx.Value(txCtxKey{}).(*gorm.DB); ok {
		return tx.WithContext(ctx)
	}
	return rootDB.WithContext(ctx)
}
