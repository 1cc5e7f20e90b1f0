package mail

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
)

const (
	DriverSMTP = "smtp"
	DriverLog  = "log"
)

var (
	ErrNoRecipients = errors.New("mail: no recipients provided")
	ErrNoSender     = errors.New("mail: no sender provided")
	// ErrHeaderInjection is returned when an address or subject contains a line break.
	ErrHeaderInjection = errors.New("mail: header value contains line break")
	ErrUnknownDriver   = errors.New("mail: unknown driver")
)

// Message is a provider-agnostic email. TextBody is required; HTMLBody adds
// an alternative part.
type Message struct {
	From     string
	To       []string
	Subject  string
	TextBody string
	HTMLBody string
}

// Mail abstracts an email provider.
type Mail interface {
	io.Closer
	Send(ctx context.Context, msg Message) error
}

// NewFromDriver builds a Mail by driver name. An empty driver means log.
func NewFromDriver(driver string, cfg SMTPConfig) (Mail, error) {
	switch strings.TrimSpace(driver) {
	case "", DriverLog:
		return NewLog(cfg.From), nil
	case DriverSMTP:
		return NewSMTP(cfg)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownDriver, driver)
	}
}

func checkHeaders(msg Message) error {
	values := append([]string{msg.From, msg.Subject}, msg.To...)
	for _, v := range values {
		if strings.ContainsAny(v, "\r\n") {
			return ErrHeaderInjection
		}
	}
	return nil
}
