package security

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
)

// SignHMAC 计算 HMAC-SHA256 并返回十六进制编码
func SignHMAC(message, secret string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(message))
	return hex.EncodeToString(mac.Sum(nil))
}

// VerifyHMAC 恒定时间比较，避免时序侧信道
func VerifyHMAC(message, secret, signature string) bool {
	expected := SignHMAC(message, secret)
	return hmac.Equal([]byte(expected), []byte(signature))
}

// UnsubscribeToken 生成退订链接令牌。无过期时间：令牌对单个邮箱稳定，
// 持有者即可退订该邮箱，这是确认链接体验下接受的权衡。
func UnsubscribeToken(email, secret string) string {
	return SignHMAC(email+":unsubscribe", secret)
}
