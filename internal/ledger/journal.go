package ledger

import "sync"

// Journal keeps the most recent receipts in memory for inspection.
type Journal struct {
	mu       sync.Mutex
	limit    int
	receipts []Receipt
}

// NewJournal creates an empty journal holding at most capacity receipts.
// A non-positive capacity keeps every receipt.
func NewJournal(capacity int) *Journal {
	if capacity < 0 {
		capacity = 0
	}
	return &Journal{limit: capacity, receipts: make([]Receipt, 0, capacity)}
}

// Record appends a receipt, evicting the oldest once the journal is full.
func (j *Journal) Record(receipt Receipt) {
	j.mu.Lock()
	if j.limit > 0 && len(j.receipts) == j.limit {
		copy(j.receipts, j.receipts[1:])
		j.receipts = j.receipts[:j.limit-1]
	}
	j.receipts = append(j.receipts, receipt)
	j.mu.Unlock()
}

// Snapshot returns a copy of the recorded receipts.
func (j *Journal) Snapshot() []Receipt {
	j.mu.Lock()
	defer j.mu.Unlock()
	out := make([]Receipt, len(j.receipts))
	copy(out, j.receipts)
	return out
}

// Last returns the most recent receipt.
func (j *Journal) Last() (Receipt, bool) {
	j.mu.Lock()
	defer j.mu.Unlock()
	if len(j.receipts) == 0 {
		return Receipt{}, false
	}
	return j.receipts[len(j.receipts)-1], true
}

// Reset clears all stored receipts.
func (j *Journal) Reset() {
	j.mu.Lock()
	j.receipts = j.receipts[:0]
	j.mu.Unlock()
}
