package auth

import (
	"time"

	"github.com/xlzd/gotp"
)

const (
	totpSecretLength = 32
	totpPeriod       = 30 * time.Second
)

// NewTOTPSecret returns a fresh base32 secret.
func NewTOTPSecret() string {
	return gotp.RandomSecret(totpSecretLength)
}

// TOTPProvisioningURI builds the otpauth:// URI authenticator apps import.
func TOTPProvisioningURI(secret, account, issuer string) string {
	return gotp.NewDefaultTOTP(secret).ProvisioningUri(account, issuer)
}

// VerifyTOTP accepts the code of the current period or the one before it.
func VerifyTOTP(secret, code string, now time.Time) bool {
	if secret == "" || code == "" {
		return false
	}
	totp := gotp.NewDefaultTOTP(secret)
	ts := now.Unix()
	return totp.Verify(code, ts) || totp.Verify(code, ts-int64(totpPeriod/time.Second))
}
