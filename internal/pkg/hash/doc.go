// Package hash hashes secrets for the service: new passwords set through a
// password reset (bcrypt or argon2id, chosen by hash.driver) and the MAC that
// signs CSRF tokens.
package hash
