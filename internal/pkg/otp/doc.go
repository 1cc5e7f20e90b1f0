// Package otp manages short-lived numeric one-time passcodes.
//
// A Manager issues 6-digit codes scoped to an identity (usually an email
// address) and a Purpose, keeps at most one live code per (identity, purpose)
// pair, and verifies submissions with a bounded number of attempts. Codes are
// single use: a successful verification removes the record.
//
// Records live in a Store. MemoryStore keeps them in process memory and is the
// default; RedisStore shares them between instances. A Manager can run a
// background sweep that evicts expired records so abandoned codes do not
// accumulate.
package otp
