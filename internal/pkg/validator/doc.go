// Package validator checks request structs before they reach the OTP core.
// Besides the stock go-playground rules it registers "otpcode" (exactly six
// ASCII digits) and "password", and reports field names in snake_case.
package validator
