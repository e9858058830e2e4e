package stm

import (
	"context"
	"errors"
	"sort"
)

// errConflict aborts a commit whose read versions went stale; Atomic
// reacts by discarding the log and re-executing the body.
var errConflict = errors.New("stm: commit conflict")

type txKey struct{}

func txFrom(ctx context.Context) *txn {
	tx, _ := ctx.Value(txKey{}).(*txn)
	return tx
}

// txn is one transaction log. It lives in the context of the body being
// executed and is owned by a single goroutine.
type txn struct {
	entries map[uint64]*entry
}

type entry struct {
	ref         cell
	readVersion uint64
	value       any
	written     bool
}

// entryFor returns the log entry for c, snapshotting the committed value
// and version on first touch. Write-only touches record a read version
// too, so blind writes still participate in conflict detection.
func (tx *txn) entryFor(c cell) *entry {
	if e, ok := tx.entries[c.refID()]; ok {
		return e
	}
	v, ver := c.snapshot()
	e := &entry{ref: c, readVersion: ver, value: v}
	tx.entries[c.refID()] = e
	return e
}

// commit locks every touched ref in id order, verifies that no committed
// version moved past its recorded read version, validates buffered
// writes, and publishes them all before unlocking. Either every write is
// published or none is.
func (tx *txn) commit() error {
	ordered := make([]*entry, 0, len(tx.entries))
	for _, e := range tx.entries {
		ordered = append(ordered, e)
	}
	sort.Slice(ordered, func(i, j int) bool {
		return ordered[i].ref.refID() < ordered[j].ref.refID()
	})

	for _, e := range ordered {
		e.ref.lock()
	}
	defer func() {
		for i := len(ordered) - 1; i >= 0; i-- {
			ordered[i].ref.unlock()
		}
	}()

	for _, e := range ordered {
		if e.ref.versionLocked() != e.readVersion {
			return errConflict
		}
	}
	for _, e := range ordered {
		if e.written && !e.ref.admits(e.value) {
			return ErrRejected
		}
	}
	for _, e := range ordered {
		if e.written {
			e.ref.publishLocked(e.value)
		}
	}
	return nil
}
