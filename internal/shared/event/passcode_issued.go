package event

const PasscodeIssuedDestination string = "passcode_issued"
const PasscodeIssuedDestinationConsumerNotification string = "passcode_issued_notification"

// HeaderCorrelationID carries the request correlation ID across the broker.
const HeaderCorrelationID string = "cID"

// PasscodeIssuedMessage is published whenever a code is generated or resent.
// It carries the code because the consumer delivers it; it must never be
// logged.
type PasscodeIssuedMessage struct {
	Email     string `json:"email"`
	Purpose   string `json:"purpose"`
	Code      string `json:"code"`
	ExpiresIn int    `json:"expires_in"`
	Resent    bool   `json:"resent"`
}
