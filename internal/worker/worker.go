// Package worker holds the background processes that react to the loan
// lifecycle: the notification consumer fed by loan events and the scheduled
// sweep that defaults overdue loans.
package worker

import (
	"context"
	"log/slog"

	"github.com/cradoe/quickcred/internal/helper"
	"github.com/cradoe/quickcred/internal/repository"
	"github.com/cradoe/quickcred/internal/smtp"
	"github.com/cradoe/quickcred/internal/stream"
)

type Worker struct {
	// KafkaStream is nil when no broker is configured; events then reach the
	// worker through an InlinePublisher.
	KafkaStream *stream.KafkaStream
	UserRepo    repository.UserRepository
	Activity    repository.ActivityRepository
	Mailer      smtp.MailerInterface
	Helper      helper.HelperInterface
	Logger      *slog.Logger
	Ctx         context.Context
}

const (
	// loanNotificationGroupID is used for workers that tell borrowers and lenders about changes to their loans
	loanNotificationGroupID = "loan-notification-group"
)

// Our workers typically need access to the store, the mailer and the event stream.
// worker-specific dependency can be passed as argument to the worker
func New(wk *Worker) *Worker {
	logger := wk.Logger
	if logger == nil {
		logger = slog.Default()
	}
	ctx := wk.Ctx
	if ctx == nil {
		ctx = context.Background()
	}

	return &Worker{
		KafkaStream: wk.KafkaStream,
		UserRepo:    wk.UserRepo,
		Activity:    wk.Activity,
		Mailer:      wk.Mailer,
		Helper:      wk.Helper,
		Logger:      logger,
		Ctx:         ctx,
	}
}
