package service

import (
	"context"
	"fmt"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/enrollease/enrollease-api/internal/models"
	"github.com/enrollease/enrollease-api/pkg/config"
	appErrors "github.com/enrollease/enrollease-api/pkg/errors"
	"github.com/enrollease/enrollease-api/pkg/jobs"
	"github.com/enrollease/enrollease-api/pkg/mailer"
)

// SendEmailRequest asks for an email to a student or guardian address.
type SendEmailRequest struct {
	StudentNumber string `json:"student_number" validate:"required"`
	To            string `json:"to" validate:"required,email"`
	Subject       string `json:"subject" validate:"required"`
	Body          string `json:"body" validate:"required"`
}

type emailJob struct {
	StudentNumber string
	To            string
	Subject       string
	Body          string
}

// NotificationService dispatches outbound email off the caller's goroutine.
// Send returns as soon as the job is queued; completion is reported by
// appending an EMAIL_SENT audit record and logging the outcome.
type NotificationService struct {
	queue     *jobs.Queue
	mail      mailer.Mailer
	records   auditRecorder
	validator *validator.Validate
	logger    *zap.Logger
}

// NewNotificationService constructs the service and its worker queue.
func NewNotificationService(mail mailer.Mailer, records auditRecorder, cfg config.NotificationsConfig, validate *validator.Validate, logger *zap.Logger) *NotificationService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &NotificationService{mail: mail, records: records, validator: validate, logger: logger}
	s.queue = jobs.NewQueue("notifications", s.process, jobs.QueueConfig{
		Workers:    cfg.WorkerConcurrency,
		MaxRetries: cfg.WorkerRetries,
		RetryDelay: cfg.RetryDelay,
		Logger:     logger,
	})
	return s
}

// Start launches the dispatch workers.
func (s *NotificationService) Start(ctx context.Context) {
	s.queue.Start(ctx)
}

// Stop drains the workers.
func (s *NotificationService) Stop() {
	s.queue.Stop()
}

// Send validates and queues an email. The caller is never blocked on the
// transport.
func (s *NotificationService) Send(_ context.Context, req SendEmailRequest) error {
	if err := s.validator.Struct(req); err != nil {
		return appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid email payload")
	}
	job := jobs.Job{
		ID:   uuid.NewString(),
		Type: "email",
		Payload: emailJob{
			StudentNumber: req.StudentNumber,
			To:            req.To,
			Subject:       req.Subject,
			Body:          req.Body,
		},
	}
	if err := s.queue.Enqueue(job); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to queue email")
	}
	return nil
}

func (s *NotificationService) process(ctx context.Context, job jobs.Job) error {
	payload, ok := job.Payload.(emailJob)
	if !ok {
		s.logger.Error("unexpected notification payload", zap.String("job_id", job.ID))
		return nil
	}

	if err := s.mail.Send(ctx, mailer.Message{To: payload.To, Subject: payload.Subject, Body: payload.Body}); err != nil {
		return fmt.Errorf("send email to %s: %w", payload.To, err)
	}

	if s.records != nil {
		record := &models.Record{
			StudentNumber: payload.StudentNumber,
			Type:          models.RecordTypeEmailSent,
			Data:          fmt.Sprintf("Subject: %s", payload.Subject),
		}
		if err := s.records.Append(ctx, record); err != nil {
			s.logger.Warn("audit append failed", zap.String("type", models.RecordTypeEmailSent), zap.Error(err))
		}
	}

	s.logger.Info("email dispatched",
		zap.String("job_id", job.ID),
		zap.String("student_number", payload.StudentNumber),
		zap.String("subject", payload.Subject),
	)
	return nil
}
