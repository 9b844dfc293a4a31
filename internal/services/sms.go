package services

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/twilio/twilio-go"
	twilioApi "github.com/twilio/twilio-go/rest/api/v2010"
)

// Notifier delivers a plaintext message to a phone number. The OTP engine
// treats delivery as best-effort: a Notifier error never fails issuance.
type Notifier interface {
	Send(ctx context.Context, to, message string) error
}

// smsTimeout bounds a single delivery attempt.
const smsTimeout = 15 * time.Second

// TwilioNotifier sends SMS via the Twilio REST API.
type TwilioNotifier struct {
	client *twilio.RestClient
	from   string
}

// NewTwilioNotifier reads credentials from TWILIO_ACCOUNT_SID,
// TWILIO_AUTH_TOKEN, and TWILIO_PHONE_NUMBER.
func NewTwilioNotifier() (*TwilioNotifier, error) {
	accountSid := os.Getenv("TWILIO_ACCOUNT_SID")
	authToken := os.Getenv("TWILIO_AUTH_TOKEN")
	from := os.Getenv("TWILIO_PHONE_NUMBER")

	if accountSid == "" || authToken == "" || from == "" {
		return nil, fmt.Errorf("missing Twilio credentials in environment variables")
	}

	client := twilio.NewRestClientWithParams(twilio.ClientParams{
		Username: accountSid,
		Password: authToken,
	})

	return &TwilioNotifier{client: client, from: from}, nil
}

// Send delivers a single SMS. The context deadline caps the attempt; the
// caller decides whether failure matters.
func (t *TwilioNotifier) Send(ctx context.Context, to, message string) error {
	params := &twilioApi.CreateMessageParams{}
	params.SetFrom(t.from)
	params.SetTo(to)
	params.SetBody(message)

	done := make(chan error, 1)
	go func() {
		_, err := t.client.Api.CreateMessage(params)
		done <- err
	}()

	select {
	case err := <-done:
		if err != nil {
			return fmt.Errorf("twilio send failed: %w", err)
		}
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// LogNotifier is the fallback when SMS credentials are absent; it logs the
// message instead of delivering it. Not for production.
type LogNotifier struct{}

func (LogNotifier) Send(ctx context.Context, to, message string) error {
	log.Printf("[SMS MOCK] to=%s msg=%s", to, message)
	return nil
}
