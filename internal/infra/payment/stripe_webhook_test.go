package payment

import (
	"errors"
	"testing"
	"time"
)

func newTestVerifier(secret string, at time.Time) *WebhookVerifier {
	v := NewWebhookVerifier(secret, 5*time.Minute)
	v.now = func() time.Time { return at }
	return v
}

func TestVerifySignatureAcceptsValidHeader(t *testing.T) {
	t.Parallel()

	now := time.Unix(1_700_000_000, 0)
	payload := []byte(`{"id":"evt_1","type":"checkout.session.completed"}`)
	header := SignPayload("whsec_test", now, payload)

	v := newTestVerifier("whsec_test", now)
	if err := v.VerifySignature(payload, header); err != nil {
		t.Fatalf("expected valid signature, got %v", err)
	}
}

func TestVerifySignatureRejectsWrongSecret(t *testing.T) {
	t.Parallel()

	now := time.Unix(1_700_000_000, 0)
	payload := []byte(`{"id":"evt_1"}`)
	header := SignPayload("whsec_other", now, payload)

	v := newTestVerifier("whsec_test", now)
	if err := v.VerifySignature(payload, header); !errors.Is(err, ErrInvalidSignature) {
		t.Fatalf("expected ErrInvalidSignature, got %v", err)
	}
}

func TestVerifySignatureRejectsTamperedPayload(t *testing.T) {
	t.Parallel()

	now := time.Unix(1_700_000_000, 0)
	header := SignPayload("whsec_test", now, []byte(`{"amount":100}`))

	v := newTestVerifier("whsec_test", now)
	if err := v.VerifySignature([]byte(`{"amount":999}`), header); !errors.Is(err, ErrInvalidSignature) {
		t.Fatalf("expected ErrInvalidSignature, got %v", err)
	}
}

func TestVerifySignatureRejectsStaleTimestamp(t *testing.T) {
	t.Parallel()

	signedAt := time.Unix(1_700_000_000, 0)
	payload := []byte(`{}`)
	header := SignPayload("whsec_test", signedAt, payload)

	v := newTestVerifier("whsec_test", signedAt.Add(10*time.Minute))
	if err := v.VerifySignature(payload, header); !errors.Is(err, ErrStaleTimestamp) {
		t.Fatalf("expected ErrStaleTimestamp, got %v", err)
	}
}

func TestVerifySignatureRejectsMalformedHeader(t *testing.T) {
	t.Parallel()

	v := newTestVerifier("whsec_test", time.Now())
	for _, header := range []string{"", "t=abc,v1=00", "v1=deadbeef", "t=1700000000"} {
		if err := v.VerifySignature([]byte(`{}`), header); err == nil {
			t.Fatalf("header %q: expected error, got nil", header)
		}
	}
}

func TestParseEventDecodesEnvelope(t *testing.T) {
	t.Parallel()

	now := time.Unix(1_700_000_000, 0)
	payload := []byte(`{"id":"evt_42","type":"checkout.session.completed","data":{"object":{"id":"cs_test_1","payment_intent":"pi_1","amount_total":19900,"currency":"usd","metadata":{"order":"{}"}}}}`)
	header := SignPayload("whsec_test", now, payload)

	v := newTestVerifier("whsec_test", now)
	ev, err := v.ParseEvent(payload, header)
	if err != nil {
		t.Fatalf("ParseEvent: %v", err)
	}
	if ev.ID != "evt_42" || ev.Type != EventCheckoutCompleted {
		t.Fatalf("unexpected envelope: %+v", ev)
	}

	obj, err := DecodeSession(ev)
	if err != nil {
		t.Fatalf("decode session object: %v", err)
	}
	if obj.ID != "cs_test_1" || obj.AmountTotal != 19900 || obj.Metadata["order"] != "{}" {
		t.Fatalf("unexpected session object: %+v", obj)
	}
}
