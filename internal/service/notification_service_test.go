package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/enrollease/enrollease-api/internal/models"
	"github.com/enrollease/enrollease-api/pkg/config"
	appErrors "github.com/enrollease/enrollease-api/pkg/errors"
	"github.com/enrollease/enrollease-api/pkg/mailer"
)

type captureMailer struct {
	mu       sync.Mutex
	messages []mailer.Message
	failures int
	sent     chan struct{}
}

func newCaptureMailer() *captureMailer {
	return &captureMailer{sent: make(chan struct{}, 16)}
}

func (m *captureMailer) Send(ctx context.Context, msg mailer.Message) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failures > 0 {
		m.failures--
		return errors.New("smtp unavailable")
	}
	m.messages = append(m.messages, msg)
	m.sent <- struct{}{}
	return nil
}

type syncRecorder struct {
	mu      sync.Mutex
	records []models.Record
}

func (r *syncRecorder) Append(ctx context.Context, record *models.Record) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.records = append(r.records, *record)
	return nil
}

func (r *syncRecorder) snapshot() []models.Record {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]models.Record(nil), r.records...)
}

func notificationConfig() config.NotificationsConfig {
	return config.NotificationsConfig{
		Enabled:           true,
		WorkerConcurrency: 2,
		WorkerRetries:     2,
		RetryDelay:        10 * time.Millisecond,
	}
}

func validSendEmailRequest() SendEmailRequest {
	return SendEmailRequest{
		StudentNumber: "26-0001",
		To:            "ana@example.com",
		Subject:       "Enrollment confirmed",
		Body:          "You are enrolled in Mathematics 7.",
	}
}

func TestNotificationServiceSendDispatchesAndAudits(t *testing.T) {
	mail := newCaptureMailer()
	recorder := &syncRecorder{}
	svc := NewNotificationService(mail, recorder, notificationConfig(), validator.New(), zap.NewNop())
	svc.Start(context.Background())
	defer svc.Stop()

	require.NoError(t, svc.Send(context.Background(), validSendEmailRequest()))

	select {
	case <-mail.sent:
	case <-time.After(2 * time.Second):
		t.Fatal("email was not dispatched")
	}

	require.Eventually(t, func() bool {
		return len(recorder.snapshot()) == 1
	}, 2*time.Second, 10*time.Millisecond)

	records := recorder.snapshot()
	assert.Equal(t, models.RecordTypeEmailSent, records[0].Type)
	assert.Equal(t, "26-0001", records[0].StudentNumber)
	assert.Equal(t, "Subject: Enrollment confirmed", records[0].Data)

	mail.mu.Lock()
	defer mail.mu.Unlock()
	require.Len(t, mail.messages, 1)
	assert.Equal(t, "ana@example.com", mail.messages[0].To)
}

func TestNotificationServiceRetriesTransientFailure(t *testing.T) {
	mail := newCaptureMailer()
	mail.failures = 1
	recorder := &syncRecorder{}
	svc := NewNotificationService(mail, recorder, notificationConfig(), validator.New(), zap.NewNop())
	svc.Start(context.Background())
	defer svc.Stop()

	require.NoError(t, svc.Send(context.Background(), validSendEmailRequest()))

	select {
	case <-mail.sent:
	case <-time.After(5 * time.Second):
		t.Fatal("email was not retried after transient failure")
	}
}

func TestNotificationServiceValidation(t *testing.T) {
	svc := NewNotificationService(newCaptureMailer(), &syncRecorder{}, notificationConfig(), validator.New(), zap.NewNop())
	svc.Start(context.Background())
	defer svc.Stop()

	req := validSendEmailRequest()
	req.To = "not-an-email"
	err := svc.Send(context.Background(), req)
	assert.True(t, appErrors.HasCode(err, appErrors.ErrValidation))

	req = validSendEmailRequest()
	req.Subject = ""
	err = svc.Send(context.Background(), req)
	assert.True(t, appErrors.HasCode(err, appErrors.ErrValidation))
}

func TestNotificationServiceSendBeforeStart(t *testing.T) {
	svc := NewNotificationService(newCaptureMailer(), &syncRecorder{}, notificationConfig(), validator.New(), zap.NewNop())

	err := svc.Send(context.Background(), validSendEmailRequest())
	require.Error(t, err)
	assert.True(t, appErrors.HasCode(err, appErrors.ErrInternal))
}
