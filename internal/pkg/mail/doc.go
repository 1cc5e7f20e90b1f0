// Package mail delivers transactional email such as one-time code notices.
//
// The "smtp" driver sends through net/smtp. The "log" driver only records that
// a message would have been sent and never writes the body, so it is safe in
// development where bodies contain codes.
package mail
