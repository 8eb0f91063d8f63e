package audit

import (
	"encoding/json"
	"log"
	"strconv"
	"time"
)

type AuditEvent struct {
	Timestamp time.Time `json:"timestamp"`
	EventType string    `json:"event_type"`
	Reference string    `json:"reference"`
	AccountID int64     `json:"account_id,omitempty"`
	Amount    int64     `json:"amount,omitempty"`
	Status    string    `json:"status"`
	Details   any       `json:"details,omitempty"`
}

// AuditLogger writes one JSON line per money-moving event.
type AuditLogger struct {
	logf func(format string, v ...any)
}

func NewAuditLogger() *AuditLogger {
	return &AuditLogger{logf: log.Printf}
}

// NewAuditLoggerFunc sends events to a custom printf-style sink.
func NewAuditLoggerFunc(logf func(format string, v ...any)) *AuditLogger {
	return &AuditLogger{logf: logf}
}

func (a *AuditLogger) LogTransition(dealID int64, from, to string) {
	a.log(AuditEvent{
		Timestamp: time.Now(),
		EventType: "DEAL_TRANSITION",
		Reference: dealRef(dealID),
		Status:    "SUCCESS",
		Details: map[string]string{
			"from": from,
			"to":   to,
		},
	})
}

func (a *AuditLogger) LogCredit(reference string, accountID, amount int64, reason string) {
	a.log(AuditEvent{
		Timestamp: time.Now(),
		EventType: "CREDIT",
		Reference: reference,
		AccountID: accountID,
		Amount:    amount,
		Status:    "SUCCESS",
		Details:   map[string]string{"reason": reason},
	})
}

func (a *AuditLogger) LogDebit(reference string, accountID, amount int64, reason string) {
	a.log(AuditEvent{
		Timestamp: time.Now(),
		EventType: "DEBIT",
		Reference: reference,
		AccountID: accountID,
		Amount:    amount,
		Status:    "SUCCESS",
		Details:   map[string]string{"reason": reason},
	})
}

func (a *AuditLogger) LogVoucher(reference string, accountID int64, outcome string, amount int64) {
	a.log(AuditEvent{
		Timestamp: time.Now(),
		EventType: "VOUCHER",
		Reference: reference,
		AccountID: accountID,
		Amount:    amount,
		Status:    outcome,
	})
}

func (a *AuditLogger) LogError(reference string, accountID int64, err error) {
	a.log(AuditEvent{
		Timestamp: time.Now(),
		EventType: "ERROR",
		Reference: reference,
		AccountID: accountID,
		Status:    "FAILED",
		Details:   map[string]string{"error": err.Error()},
	})
}

func (a *AuditLogger) log(event AuditEvent) {
	data, _ := json.Marshal(event)
	a.logf("AUDIT: %s", string(data))
}

func dealRef(dealID int64) string {
	return "deal:" + strconv.FormatInt(dealID, 10)
}
