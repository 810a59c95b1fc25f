package security

import (
	"errors"
	"strconv"
	"strings"
	"time"
)

var (
	ErrSignatureHeaderMalformed = errors.New("malformed signature header")
	ErrSignatureExpired         = errors.New("signature timestamp outside tolerance")
	ErrSignatureMismatch        = errors.New("signature mismatch")
)

// WebhookSignature Stripe 风格签名头："t=<unix>,v1=<hex hmac>"
type WebhookSignature struct {
	Timestamp int64
	Signature string
}

func ParseSignatureHeader(header string) (*WebhookSignature, error) {
	parts := map[string]string{}
	for _, item := range strings.Split(header, ",") {
		kv := strings.SplitN(strings.TrimSpace(item), "=", 2)
		if len(kv) != 2 {
			continue
		}
		parts[kv[0]] = kv[1]
	}

	ts, ok := parts["t"]
	sig, okSig := parts["v1"]
	if !ok || !okSig || ts == "" || sig == "" {
		return nil, ErrSignatureHeaderMalformed
	}

	timestamp, err := strconv.ParseInt(ts, 10, 64)
	if err != nil {
		return nil, ErrSignatureHeaderMalformed
	}

	return &WebhookSignature{Timestamp: timestamp, Signature: sig}, nil
}

// VerifyWebhookSignature 校验对 "{timestamp}.{payload}" 的 HMAC-SHA256 签名。
// 超过 tolerance 的时间戳一律拒绝，限制重放窗口。
func VerifyWebhookSignature(payload []byte, header, secret string, tolerance time.Duration, now time.Time) error {
	if secret == "" {
		return ErrSignatureMismatch
	}

	sig, err := ParseSignatureHeader(header)
	if err != nil {
		return err
	}

	age := now.Unix() - sig.Timestamp
	if age > int64(tolerance.Seconds()) {
		return ErrSignatureExpired
	}

	signed := strconv.FormatInt(sig.Timestamp, 10) + "." + string(payload)
	if !VerifyHMAC(signed, secret, sig.Signature) {
		return ErrSignatureMismatch
	}

	return nil
}
