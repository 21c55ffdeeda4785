package worker

import (
	"context"
	"sync"
	"time"

	"github.com/confluentinc/confluent-kafka-go/v2/kafka"
	"github.com/cradoe/quickcred/internal/lending"
	"github.com/cradoe/quickcred/internal/models"
	"github.com/cradoe/quickcred/internal/stream"
	"github.com/pkg/errors"
)

const (
	LoanActivityLogFundedNoticeDescription    = "Loan funded by a lender"
	LoanActivityLogRepaidNoticeDescription    = "Loan repayment received"
	LoanActivityLogDefaultedNoticeDescription = "Loan marked as defaulted"
)

// notificationTopics are the events that concern someone other than the
// caller who triggered them.
var notificationTopics = []string{
	lending.TopicLoanFunded,
	lending.TopicLoanRepaid,
	lending.TopicLoanDefaulted,
}

// NotificationWorker consumes loan events until the worker's context is
// cancelled.
func (wk *Worker) NotificationWorker() error {
	consumer, err := wk.KafkaStream.CreateConsumer(&stream.StreamConsumer{
		GroupId: loanNotificationGroupID,
		Topics:  notificationTopics,
	})
	if err != nil {
		return errors.Wrap(err, "create notification consumer")
	}
	defer consumer.Close()

	for {
		select {
		case <-wk.Ctx.Done():
			return nil
		default:
		}

		event := consumer.Poll(100) // Poll every 100ms
		switch e := event.(type) {
		case *kafka.Message:
			topic := *e.TopicPartition.Topic
			wk.Logger.Debug("loan event received", "topic", topic, "partition", e.TopicPartition.Partition)

			ev, err := lending.DecodeLoanEvent(e.Value)
			if err != nil {
				wk.Logger.Error("decode loan event", "topic", topic, "error", err.Error())
				continue
			}

			if err := wk.HandleLoanEvent(wk.Ctx, topic, ev); err != nil {
				wk.Logger.Error("handle loan event", "topic", topic, "loan_id", ev.LoanID, "error", err.Error())
			}
		case kafka.Error:
			wk.Logger.Error("kafka consumer error", "code", e.Code().String(), "error", e.Error())
		default:
			// Handle other events if needed
		}
	}
}

type recipient struct {
	userID      string
	description string
	template    string
}

// HandleLoanEvent records an activity entry for each party the event
// concerns and emails them. Topics without notifications are ignored.
func (wk *Worker) HandleLoanEvent(ctx context.Context, topic string, ev *lending.LoanEvent) error {
	var recipients []recipient

	switch topic {
	case lending.TopicLoanFunded:
		recipients = []recipient{{ev.BorrowerID, LoanActivityLogFundedNoticeDescription, "loan-funded.tmpl"}}
	case lending.TopicLoanRepaid:
		recipients = []recipient{{ev.LenderID, LoanActivityLogRepaidNoticeDescription, "loan-repaid.tmpl"}}
	case lending.TopicLoanDefaulted:
		recipients = []recipient{
			{ev.BorrowerID, LoanActivityLogDefaultedNoticeDescription, "loan-defaulted.tmpl"},
			{ev.LenderID, LoanActivityLogDefaultedNoticeDescription, "loan-defaulted.tmpl"},
		}
	default:
		return nil
	}

	var firstErr error
	for _, rc := range recipients {
		if err := wk.notify(ctx, rc, ev); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

func (wk *Worker) notify(ctx context.Context, rc recipient, ev *lending.LoanEvent) error {
	if rc.userID == "" {
		return nil
	}

	user, found, err := wk.UserRepo.GetOne(ctx, rc.userID)
	if err != nil {
		return errors.Wrapf(err, "load user %s", rc.userID)
	}
	if !found {
		wk.Logger.Warn("loan event for unknown user", "loan_id", ev.LoanID, "user_id", rc.userID)
		return nil
	}

	_, err = wk.Activity.Insert(ctx, &models.ActivityLog{
		UserID:      user.ID,
		Entity:      models.ActivityLogLoanEntity,
		EntityId:    ev.LoanID,
		Description: rc.description,
	})
	if err != nil {
		return errors.Wrap(err, "record loan activity")
	}

	data := wk.Helper.NewEmailData()
	data["Name"] = user.Name
	data["LoanID"] = ev.LoanID
	data["Amount"] = ev.Amount
	if ev.DueDate != nil {
		data["DueDate"] = *ev.DueDate
	}
	if ev.TotalRepayment != nil {
		data["TotalRepayment"] = *ev.TotalRepayment
	}
	if ev.LenderReturn != nil {
		data["LenderReturn"] = *ev.LenderReturn
	}

	if err := wk.Mailer.Send(ctx, user.Email, data, rc.template); err != nil {
		return errors.Wrapf(err, "email %s", rc.template)
	}
	return nil
}

// ErrPublisherClosed is returned for events produced after Close.
var ErrPublisherClosed = errors.New("publisher closed")

// InlinePublisher hands loan events straight to the worker when no broker is
// configured. Each event is handled on its own goroutine.
type InlinePublisher struct {
	worker *Worker

	mu     sync.Mutex
	closed bool
	wg     sync.WaitGroup
}

func NewInlinePublisher(wk *Worker) *InlinePublisher {
	return &InlinePublisher{worker: wk}
}

func (p *InlinePublisher) ProduceMessage(topic, message string) error {
	ev, err := lending.DecodeLoanEvent([]byte(message))
	if err != nil {
		return err
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return ErrPublisherClosed
	}

	p.wg.Add(1)
	go func() {
		defer p.wg.Done()

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := p.worker.HandleLoanEvent(ctx, topic, ev); err != nil {
			p.worker.Logger.Error("handle loan event", "topic", topic, "loan_id", ev.LoanID, "error", err.Error())
		}
	}()

	return nil
}

// Close stops accepting events and waits for the ones already handed over.
func (p *InlinePublisher) Close() {
	p.mu.Lock()
	p.closed = true
	p.mu.Unlock()

	p.wg.Wait()
}
