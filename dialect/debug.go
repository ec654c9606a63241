package dialect

import (
	"context"
	"fmt"
	"log/slog"
)

// DebugDriver wraps any Driver and logs every statement before delegation.
type DebugDriver struct {
	Driver
	log func(context.Context, ...any)
}

// Debug wraps drv with statement logging through slog.
func Debug(drv Driver) *DebugDriver {
	return DebugWithLog(drv, func(_ context.Context, v ...any) {
		slog.Info(fmt.Sprint(v...))
	})
}

// DebugWithLog wraps drv with statement logging through a custom log
// function.
func DebugWithLog(drv Driver, logFunc func(context.Context, ...any)) *DebugDriver {
	return &DebugDriver{Driver: drv, log: logFunc}
}

// Exec logs the statement and delegates to the underlying driver.
func (d *DebugDriver) Exec(ctx context.Context, query string, args, v any) error {
	d.log(ctx, fmt.Sprintf("driver.Exec: query=%v args=%v", query, args))
	return d.Driver.Exec(ctx, query, args, v)
}

// Query logs the statement and delegates to the underlying driver.
func (d *DebugDriver) Query(ctx context.Context, query string, args, v any) error {
	d.log(ctx, fmt.Sprintf("driver.Query: query=%v args=%v", query, args))
	return d.Driver.Query(ctx, query, args, v)
}

// Tx starts a logged transaction.
func (d *DebugDriver) Tx(ctx context.Context) (Tx, error) {
	tx, err := d.Driver.Tx(ctx)
	if err != nil {
		return nil, err
	}
	d.log(ctx, "driver.Tx: started")
	return &debugTx{tx, d.log, ctx}, nil
}

type debugTx struct {
	Tx
	log func(context.Context, ...any)
	ctx context.Context
}

func (tx *debugTx) Exec(ctx context.Context, query string, args, v any) error {
	tx.log(ctx, fmt.Sprintf("tx.Exec: query=%v args=%v", query, args))
	return tx.Tx.Exec(ctx, query, args, v)
}

func (tx *debugTx) Query(ctx context.Context, query string, args, v any) error {
	tx.log(ctx, fmt.Sprintf("tx.Query: query=%v args=%v", query, args))
	return tx.Tx.Query(ctx, query, args, v)
}

func (tx *debugTx) Commit() error {
	tx.log(tx.ctx, "tx.Commit")
	return tx.Tx.Commit()
}

func (tx *debugTx) Rollback() error {
	tx.log(tx.ctx, "tx.Rollback")
	return tx.Tx.Rollback()
}
