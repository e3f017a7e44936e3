package email

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sesv2"

	"github.com/codr1/Courtside/internal/models"
	"github.com/codr1/Courtside/internal/reservations"
)

type sentEmail struct {
	recipient string
	message   Message
	ctxErr    error
}

type fakeEmailSender struct {
	mu   sync.Mutex
	sent []sentEmail
	err  error
}

func (f *fakeEmailSender) Send(ctx context.Context, recipient string, message Message) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, sentEmail{recipient: recipient, message: message, ctxErr: ctx.Err()})
	return f.err
}

func (f *fakeEmailSender) Sent() []sentEmail {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]sentEmail(nil), f.sent...)
}

type fakeCourts map[int64]models.Court

func (f fakeCourts) GetCourt(_ context.Context, id int64) (models.Court, error) {
	court, ok := f[id]
	if !ok {
		return models.Court{}, models.ErrNotFound
	}
	return court, nil
}

type fakeSESAPI struct {
	input *sesv2.SendEmailInput
	err   error
}

func (f *fakeSESAPI) SendEmail(_ context.Context, in *sesv2.SendEmailInput, _ ...func(*sesv2.Options)) (*sesv2.SendEmailOutput, error) {
	f.input = in
	return &sesv2.SendEmailOutput{}, f.err
}

func testEvent(kind reservations.EventKind, email string) reservations.Event {
	loc := time.UTC
	return reservations.Event{
		Kind: kind,
		Reservation: models.Reservation{
			ID:           12,
			CourtID:      1,
			ClientName:   "Ana Gomez",
			Start:        time.Date(2025, 3, 7, 18, 0, 0, 0, loc),
			End:          time.Date(2025, 3, 7, 19, 30, 0, 0, loc),
			PriceCents:   150000,
			Status:       models.StatusConfirmed,
			CancelReason: "Weather",
		},
		Client:     &models.Client{ID: 3, Name: "Ana Gomez", Email: email},
		OccurredAt: time.Date(2025, 3, 1, 9, 0, 0, 0, loc),
	}
}

func TestNotifierSendsPerEventKind(t *testing.T) {
	tests := []struct {
		kind    reservations.EventKind
		subject string
		body    string
	}{
		{reservations.EventCreated, "Booking Confirmed - Club Norte", "is confirmed"},
		{reservations.EventUpdated, "Booking Updated - Club Norte", "has changed"},
		{reservations.EventCancelled, "Booking Cancelled - Club Norte", "Reason: Weather"},
	}

	for _, tt := range tests {
		t.Run(string(tt.kind), func(t *testing.T) {
			sender := &fakeEmailSender{}
			notifier := NewNotifier(sender, fakeCourts{1: {ID: 1, Name: "Court 1"}}, "Club Norte", time.UTC)

			notifier.Notify(context.Background(), testEvent(tt.kind, "ana@example.com"))
			notifier.Wait()

			sent := sender.Sent()
			if len(sent) != 1 {
				t.Fatalf("expected 1 email, got %d", len(sent))
			}
			if sent[0].recipient != "ana@example.com" {
				t.Fatalf("unexpected recipient %q", sent[0].recipient)
			}
			if sent[0].message.Subject != tt.subject {
				t.Fatalf("expected subject %q, got %q", tt.subject, sent[0].message.Subject)
			}
			body := sent[0].message.Body
			for _, want := range []string{tt.body, "Court: Court 1", "Time: 18:00 - 19:30", "Price: 1500.00", "Hello Ana Gomez,"} {
				if !strings.Contains(body, want) {
					t.Fatalf("expected body to contain %q, got:\n%s", want, body)
				}
			}
		})
	}
}

func TestNotifierSkipsWithoutEmail(t *testing.T) {
	sender := &fakeEmailSender{}
	notifier := NewNotifier(sender, fakeCourts{}, "Club Norte", time.UTC)

	notifier.Notify(context.Background(), testEvent(reservations.EventCreated, "  "))

	noClient := testEvent(reservations.EventCreated, "ana@example.com")
	noClient.Client = nil
	notifier.Notify(context.Background(), noClient)

	blocked := testEvent(reservations.EventCreated, "ana@example.com")
	blocked.Reservation.Status = models.StatusBlocked
	notifier.Notify(context.Background(), blocked)

	notifier.Wait()
	if sent := sender.Sent(); len(sent) != 0 {
		t.Fatalf("expected no emails, got %d", len(sent))
	}
}

func TestNotifierDetachesFromCancelledContext(t *testing.T) {
	sender := &fakeEmailSender{}
	notifier := NewNotifier(sender, fakeCourts{}, "", time.UTC)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	notifier.Notify(ctx, testEvent(reservations.EventCreated, "ana@example.com"))
	notifier.Wait()

	sent := sender.Sent()
	if len(sent) != 1 {
		t.Fatalf("expected 1 email, got %d", len(sent))
	}
	if sent[0].ctxErr != nil {
		t.Fatalf("expected detached send context, got %v", sent[0].ctxErr)
	}
	if !strings.Contains(sent[0].message.Body, "Court: TBD") {
		t.Fatalf("expected unknown court placeholder, got:\n%s", sent[0].message.Body)
	}
}

func TestNotifierSendFailureIsLogged(t *testing.T) {
	sender := &fakeEmailSender{err: errors.New("ses down")}
	notifier := NewNotifier(sender, fakeCourts{}, "Club Norte", time.UTC)

	notifier.Notify(context.Background(), testEvent(reservations.EventCancelled, "ana@example.com"))
	notifier.Wait()

	if sent := sender.Sent(); len(sent) != 1 {
		t.Fatalf("expected send attempt, got %d", len(sent))
	}
}

func TestFormatPrice(t *testing.T) {
	tests := []struct {
		cents int64
		want  string
	}{
		{0, "0.00"},
		{5, "0.05"},
		{150000, "1500.00"},
		{-250, "-2.50"},
	}
	for _, tt := range tests {
		if got := FormatPrice(tt.cents); got != tt.want {
			t.Errorf("FormatPrice(%d) = %q, want %q", tt.cents, got, tt.want)
		}
	}
}

func TestSESClientSend(t *testing.T) {
	api := &fakeSESAPI{}
	client := &SESClient{client: api, sender: "club@example.com"}

	if err := client.Send(context.Background(), "", Message{Subject: "s", Body: "b"}); err == nil {
		t.Fatal("expected error for empty recipient")
	}

	if err := client.Send(context.Background(), "ana@example.com", Message{Subject: "Hi", Body: "Body"}); err != nil {
		t.Fatalf("Send: %v", err)
	}
	if aws.ToString(api.input.FromEmailAddress) != "club@example.com" {
		t.Fatalf("unexpected sender %q", aws.ToString(api.input.FromEmailAddress))
	}
	if got := api.input.Destination.ToAddresses; len(got) != 1 || got[0] != "ana@example.com" {
		t.Fatalf("unexpected recipients %v", got)
	}
	if aws.ToString(api.input.Content.Simple.Subject.Data) != "Hi" {
		t.Fatalf("unexpected subject %q", aws.ToString(api.input.Content.Simple.Subject.Data))
	}

	api.err = errors.New("throttled")
	if err := client.Send(context.Background(), "ana@example.com", Message{Subject: "Hi", Body: "Body"}); err == nil {
		t.Fatal("expected SES error to be returned")
	}
}

func TestNewSESClientRequiresSender(t *testing.T) {
	if _, err := NewSESClient(context.Background(), "", "", "us-east-1", " "); err == nil {
		t.Fatal("expected error for empty sender")
	}
	if _, err := NewSESClient(context.Background(), "", "", "", "club@example.com"); err == nil {
		t.Fatal("expected error for empty region")
	}
}
