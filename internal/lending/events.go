package lending

import (
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"
)

const (
	// TopicLoanCreated carries a LoanEvent for every new pending loan
	TopicLoanCreated = "loan.created"
	// TopicLoanFunded carries a LoanEvent once a lender's funding has committed
	TopicLoanFunded = "loan.funded"
	// TopicLoanRepaid carries a LoanEvent, with the repayment split, once a repayment has committed
	TopicLoanRepaid = "loan.repaid"
	// TopicLoanDefaulted carries a LoanEvent for every loan moved to defaulted by the sweep
	TopicLoanDefaulted = "loan.defaulted"
)

// Publisher delivers a message to a topic. stream.KafkaStream satisfies it.
type Publisher interface {
	ProduceMessage(topic, message string) error
}

type LoanEvent struct {
	LoanID         string           `json:"loan_id"`
	BorrowerID     string           `json:"borrower_id"`
	LenderID       string           `json:"lender_id,omitempty"`
	Amount         decimal.Decimal  `json:"amount"`
	TermMonths     int              `json:"term_months"`
	Status         string           `json:"status"`
	DueDate        *time.Time       `json:"due_date,omitempty"`
	TotalRepayment *decimal.Decimal `json:"total_repayment,omitempty"`
	LenderReturn   *decimal.Decimal `json:"lender_return,omitempty"`
	OccurredAt     time.Time        `json:"occurred_at"`
}

func DecodeLoanEvent(data []byte) (*LoanEvent, error) {
	var ev LoanEvent
	if err := json.Unmarshal(data, &ev); err != nil {
		return nil, err
	}
	return &ev, nil
}

// publish runs after commit. Losing an event never undoes a committed change.
func (e *Engine) publish(topic string, ev LoanEvent) {
	if e.publisher == nil {
		return
	}

	payload, err := json.Marshal(ev)
	if err != nil {
		e.logger.Error("encode loan event", "topic", topic, "loan_id", ev.LoanID, "error", err.Error())
		return
	}

	if err := e.publisher.ProduceMessage(topic, string(payload)); err != nil {
		e.logger.Error("publish loan event", "topic", topic, "loan_id", ev.LoanID, "error", err.Error())
	}
}
