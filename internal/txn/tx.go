package txn

import (
	"errors"
	"time"

	"liquidityEngine/internal/model"
)

// ErrClosed is returned when a committed or rolled back transaction is reused.
var ErrClosed = errors.New("transaction closed")

// Tx is the execution context of one top-level operation. Every state change
// made under it registers a compensating action; records are buffered until
// commit so a failed operation leaves nothing observable behind.
type Tx struct {
	id        uint64
	block     uint64
	timestamp uint64

	undo    []func()
	records []model.Record
	closed  bool
}

// Savepoint marks a position in the journal that a nested call can be
// rolled back to without discarding the outer work.
type Savepoint struct {
	undo    int
	records int
}

// New opens a transaction.
func New(id, block uint64, ts time.Time) *Tx {
	var unix uint64
	if !ts.IsZero() && ts.Unix() > 0 {
		unix = uint64(ts.Unix())
	}
	return &Tx{id: id, block: block, timestamp: unix}
}

func (t *Tx) ID() uint64        { return t.id }
func (t *Tx) Block() uint64     { return t.block }
func (t *Tx) Timestamp() uint64 { return t.timestamp }
func (t *Tx) Closed() bool      { return t.closed }

// OnRollback registers fn to run if the transaction, or the savepoint scope
// enclosing this call, is rolled back.
func (t *Tx) OnRollback(fn func()) {
	if t.closed || fn == nil {
		return
	}
	t.undo = append(t.undo, fn)
}

// Emit buffers rec, stamping it with the transaction coordinates.
func (t *Tx) Emit(rec model.Record) {
	if t.closed {
		return
	}
	rec.TxID = t.id
	rec.BlockNumber = t.block
	rec.Timestamp = t.timestamp
	rec.LogIndex = uint64(len(t.records))
	t.records = append(t.records, rec)
}

// Records returns the records buffered so far.
func (t *Tx) Records() []model.Record {
	out := make([]model.Record, len(t.records))
	copy(out, t.records)
	return out
}

func (t *Tx) Savepoint() Savepoint {
	return Savepoint{undo: len(t.undo), records: len(t.records)}
}

// RollbackTo undoes everything registered after sp, newest first.
func (t *Tx) RollbackTo(sp Savepoint) {
	if t.closed {
		return
	}
	if sp.undo > len(t.undo) || sp.records > len(t.records) {
		return
	}
	for i := len(t.undo) - 1; i >= sp.undo; i-- {
		t.undo[i]()
	}
	t.undo = t.undo[:sp.undo]
	t.records = t.records[:sp.records]
}

// Commit closes the transaction and returns its records.
func (t *Tx) Commit() ([]model.Record, error) {
	if t.closed {
		return nil, ErrClosed
	}
	t.closed = true
	t.undo = nil
	out := t.records
	t.records = nil
	return out, nil
}

// Rollback undoes every registered change and drops buffered records.
func (t *Tx) Rollback() {
	if t.closed {
		return
	}
	t.RollbackTo(Savepoint{})
	t.closed = true
}
