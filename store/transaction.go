package store

import (
	"fmt"
	"sort"
)

// Append assigns the next sequential id to a new transaction record,
// inserts it, and returns the assigned id. It purges any cached scan
// results for customerID.
func (l *TransactionLog) Append(now uint64, amount uint32, txType uint16, customerID uint64) uint32 {
	l.mu.Lock()
	defer l.mu.Unlock()

	id := l.nextID
	l.nextID++

	l.records = append(l.records, Transaction{
		ID:         id,
		DateTime:   now,
		Amount:     amount,
		Type:       txType,
		CustomerID: customerID,
	})
	l.cache.invalidate(customerID)

	return id
}

// Scan iterates records with id >= startID in ascending order, keeping
// only those whose customer-id matches customerID, stopping once maxCount
// have been collected or the log is exhausted. Results are served from the
// query cache when available.
func (l *TransactionLog) Scan(startID uint32, maxCount uint16, customerID uint64) []Transaction {
	l.mu.Lock()
	defer l.mu.Unlock()

	key := cacheKey{customerID: customerID, startID: startID, count: maxCount}
	if cached, ok := l.cache.get(key); ok {
		return cached
	}

	out := make([]Transaction, 0, maxCount)
	for _, rec := range l.records {
		if uint16(len(out)) >= maxCount {
			break
		}
		if rec.ID < startID {
			continue
		}
		if rec.CustomerID != customerID {
			continue
		}
		out = append(out, rec)
	}

	l.cache.put(key, out)
	return out
}

// Snapshot returns a copy of every transaction in the log, in id order,
// used by persistence.
func (l *TransactionLog) Snapshot() []Transaction {
	l.mu.Lock()
	defer l.mu.Unlock()

	out := make([]Transaction, len(l.records))
	copy(out, l.records)
	return out
}

// Restore replaces the log's contents with recs, sorted by id, used when
// loading from disk at startup. The next-id counter is derived as max(loaded ids)+1,
// tolerating a truncated tail in the on-disk file: a missing last record
// only causes an id gap, never a reused id.
func (l *TransactionLog) Restore(recs []Transaction) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.records = make([]Transaction, len(recs))
	copy(l.records, recs)
	sort.Slice(l.records, func(i, j int) bool { return l.records[i].ID < l.records[j].ID })

	var maxID uint32
	for _, rec := range recs {
		if rec.ID > maxID {
			maxID = rec.ID
		}
	}
	l.nextID = maxID + 1
	l.cache = newQueryCache(256)
}

// Inspect prints a tabular dump of every transaction to stdout.
func (l *TransactionLog) Inspect() {
	l.mu.Lock()
	defer l.mu.Unlock()

	fmt.Printf("%-10s %-12s %-10s %-6s %-10s\n", "ID", "DATETIME", "AMOUNT", "TYPE", "CUSTOMER-ID")
	for _, rec := range l.records {
		fmt.Printf("%-10d %-12d %-10d %-6d %-10d\n", rec.ID, rec.DateTime, rec.Amount, rec.Type, rec.CustomerID)
	}
}
