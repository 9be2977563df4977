package accesskit

import (
	"sync"
	"time"
)

// TransactionMetrics summarizes transactions and retried principal loads
// since the last reset.
type TransactionMetrics struct {
	TotalTransactions      int64         `json:"total_transactions"`
	SuccessfulTransactions int64         `json:"successful_transactions"`
	FailedTransactions     int64         `json:"failed_transactions"`
	AverageDuration        time.Duration `json:"average_duration"`
	MaxDuration            time.Duration `json:"max_duration"`
	MinDuration            time.Duration `json:"min_duration"`
	LastReset              time.Time     `json:"last_reset"`
}

// SuccessRate returns the share of successful transactions, or 1 when none ran.
func (m TransactionMetrics) SuccessRate() float64 {
	if m.TotalTransactions == 0 {
		return 1
	}
	return float64(m.SuccessfulTransactions) / float64(m.TotalTransactions)
}

type transactionMonitor struct {
	mu            sync.Mutex
	total         int64
	success       int64
	failure       int64
	totalDuration time.Duration
	maxDuration   time.Duration
	minDuration   time.Duration
	lastReset     time.Time
}

func newTransactionMonitor() *transactionMonitor {
	return &transactionMonitor{lastReset: time.Now()}
}

func (tm *transactionMonitor) recordTransaction(d time.Duration, ok bool) {
	tm.mu.Lock()
	defer tm.mu.Unlock()

	tm.total++
	if ok {
		tm.success++
	} else {
		tm.failure++
	}
	tm.totalDuration += d
	if d > tm.maxDuration {
		tm.maxDuration = d
	}
	if tm.total == 1 || d < tm.minDuration {
		tm.minDuration = d
	}
}

func (tm *transactionMonitor) snapshot() TransactionMetrics {
	tm.mu.Lock()
	defer tm.mu.Unlock()

	m := TransactionMetrics{
		TotalTransactions:      tm.total,
		SuccessfulTransactions: tm.success,
		FailedTransactions:     tm.failure,
		MaxDuration:            tm.maxDuration,
		MinDuration:            tm.minDuration,
		LastReset:              tm.lastReset,
	}
	if tm.total > 0 {
		m.AverageDuration = tm.totalDuration / time.Duration(tm.total)
	}
	return m
}

func (tm *transactionMonitor) reset() {
	tm.mu.Lock()
	defer tm.mu.Unlock()

	tm.total, tm.success, tm.failure = 0, 0, 0
	tm.totalDuration, tm.maxDuration, tm.minDuration = 0, 0, 0
	tm.lastReset = time.Now()
}

// GetTransactionMetrics returns a snapshot of the transaction counters.
func (s *Service) GetTransactionMetrics() TransactionMetrics {
	return s.txMonitor.snapshot()
}

// ResetTransactionMetrics clears the transaction counters.
func (s *Service) ResetTransactionMetrics() {
	s.txMonitor.reset()
}

// IsTransactionHealthy reports whether at least 95% of recent transactions
// succeeded. It needs ten samples before it reports unhealthy.
func (s *Service) IsTransactionHealthy() bool {
	m := s.txMonitor.snapshot()
	if m.TotalTransactions < 10 {
		return true
	}
	return m.SuccessRate() >= 0.95
}
