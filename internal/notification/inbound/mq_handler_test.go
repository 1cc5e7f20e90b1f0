package inbound

import (
	"context"
	"errors"
	"testing"

	"github.com/shandysiswandi/gootp/internal/notification/usecase"
	"github.com/shandysiswandi/gootp/internal/pkg/instrument"
	"github.com/shandysiswandi/gootp/internal/pkg/messaging"
	"github.com/shandysiswandi/gootp/internal/shared/event"
)

type fakeMessage struct {
	body    []byte
	headers []messaging.Header
}

func (m *fakeMessage) Topic() string               { return event.PasscodeIssuedDestination }
func (m *fakeMessage) Key() []byte                 { return []byte("alice@example.com") }
func (m *fakeMessage) Body() []byte                { return m.body }
func (m *fakeMessage) Headers() []messaging.Header { return m.headers }
func (m *fakeMessage) Ack(context.Context) error   { return nil }
func (m *fakeMessage) Nack(context.Context) error  { return nil }

type fakeUsecase struct {
	got *usecase.ConsumePasscodeIssuedInput
	cID string
	err error
}

func (f *fakeUsecase) ConsumePasscodeIssued(ctx context.Context, in usecase.ConsumePasscodeIssuedInput) error {
	f.got = &in
	f.cID = instrument.GetCorrelationID(ctx)
	return f.err
}

type fixedUUID string

func (u fixedUUID) Generate() string { return string(u) }

func TestMQHandler_PasscodeIssuedNotification(t *testing.T) {
	t.Parallel()

	body := []byte(`{"email":"alice@example.com","purpose":"2fa","code":"123456","expires_in":600,"resent":true}`)

	tests := []struct {
		name    string
		msg     *fakeMessage
		ucErr   error
		wantErr bool
		wantCID string
		wantUC  bool
	}{
		{
			name:    "restores correlation id",
			msg:     &fakeMessage{body: body, headers: []messaging.Header{{Key: "CID", Value: []byte("abc")}}},
			wantCID: "abc",
			wantUC:  true,
		},
		{
			name:    "generates correlation id",
			msg:     &fakeMessage{body: body},
			wantCID: "generated",
			wantUC:  true,
		},
		{
			name:   "malformed body is dropped",
			msg:    &fakeMessage{body: []byte("{")},
			wantUC: false,
		},
		{
			name:    "usecase error is returned",
			msg:     &fakeMessage{body: body},
			ucErr:   errors.New("smtp down"),
			wantErr: true,
			wantCID: "generated",
			wantUC:  true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			fu := &fakeUsecase{err: tt.ucErr}
			h := &MQHandler{uc: fu, uuid: fixedUUID("generated"), ins: instrument.NewNoop()}

			err := h.PasscodeIssuedNotification(context.Background(), tt.msg)

			if (err != nil) != tt.wantErr {
				t.Fatalf("error = %v, wantErr %v", err, tt.wantErr)
			}
			if (fu.got != nil) != tt.wantUC {
				t.Fatalf("usecase called = %v, want %v", fu.got != nil, tt.wantUC)
			}
			if !tt.wantUC {
				return
			}
			if fu.cID != tt.wantCID {
				t.Fatalf("correlation id = %q, want %q", fu.cID, tt.wantCID)
			}
			want := usecase.ConsumePasscodeIssuedInput{Email: "alice@example.com", Purpose: "2fa", Code: "123456", ExpiresIn: 600, Resent: true}
			if *fu.got != want {
				t.Fatalf("input = %+v, want %+v", *fu.got, want)
			}
		})
	}
}
