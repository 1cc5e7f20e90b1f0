// Package jwt issues and verifies the HS512 bearer tokens that operators use
// on admin routes, and carries verified claims through a request context.
package jwt
