// Package otp implements RFC 6238 time-based one-time passwords for
// two-factor login: secret provisioning, QR rendering and code checks.
package otp

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image/png"
	"time"

	"github.com/pquerna/otp"
	"github.com/pquerna/otp/totp"
)

// OTP is the TOTP surface used by the auth module.
type OTP interface {
	Generate(accountName string) (secret, uri string, err error)
	QRCode(uri string) (string, error)
	Validate(code, secret string, at time.Time) bool
	GenerateCode(secret string, at time.Time) (string, error)
}

const (
	qrSize     = 256
	secretSize = 20
)

// TOTP issues SHA-1 codes as authenticator apps expect.
type TOTP struct {
	issuer string
	opts   totp.ValidateOpts
}

// NewTOTP fills zero values with the usual defaults: a 30 second period, one
// step of skew either side and six digits. Eight digits is the only other
// accepted length.
func NewTOTP(issuer string, period, skew uint, digits otp.Digits) *TOTP {
	if digits != otp.DigitsEight {
		digits = otp.DigitsSix
	}

	return &TOTP{
		issuer: issuer,
		opts: totp.ValidateOpts{
			Period:    cmpOr(period, 30),
			Skew:      cmpOr(skew, 1),
			Digits:    digits,
			Algorithm: otp.AlgorithmSHA1,
		},
	}
}

func cmpOr(v, fallback uint) uint {
	if v == 0 {
		return fallback
	}
	return v
}

func (o *TOTP) Generate(accountName string) (secret, uri string, err error) {
	key, err := totp.Generate(totp.GenerateOpts{
		Issuer:      o.issuer,
		AccountName: accountName,
		Period:      o.opts.Period,
		SecretSize:  secretSize,
		Digits:      o.opts.Digits,
		Algorithm:   o.opts.Algorithm,
	})
	if err != nil {
		return "", "", fmt.Errorf("otp: generate: %w", err)
	}
	return key.Secret(), key.URL(), nil
}

// QRCode renders uri as a data:image/png;base64 URL.
func (o *TOTP) QRCode(uri string) (string, error) {
	key, err := otp.NewKeyFromURL(uri)
	if err != nil {
		return "", fmt.Errorf("otp: parse uri: %w", err)
	}

	img, err := key.Image(qrSize, qrSize)
	if err != nil {
		return "", fmt.Errorf("otp: render qr: %w", err)
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return "", fmt.Errorf("otp: encode png: %w", err)
	}
	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(buf.Bytes()), nil
}

// Validate rejects malformed codes and undecodable secrets as false.
func (o *TOTP) Validate(code, secret string, at time.Time) bool {
	if secret == "" || len(code) != o.opts.Digits.Length() {
		return false
	}
	for i := 0; i < len(code); i++ {
		if code[i] < '0' || code[i] > '9' {
			return false
		}
	}

	ok, err := totp.ValidateCustom(code, secret, at, o.opts)
	return ok && err == nil
}

func (o *TOTP) GenerateCode(secret string, at time.Time) (string, error) {
	return totp.GenerateCodeCustom(secret, at, o.opts)
}
