package util

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"regexp"
	"strings"
)

const DateFormat = "2006-01-02"

// 一次性邮箱域名，注册即拦
var disposableDomains = map[string]bool{
	"10minutemail.com": true, "guerrillamail.com": true, "mailinator.com": true,
	"tempmail.com": true, "throwaway.email": true, "fakeinbox.com": true,
	"trashmail.com": true, "maildrop.cc": true, "yopmail.com": true,
	"temp-mail.org": true, "getnada.com": true, "mohmal.com": true,
}

var (
	emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)
	// course_id 和 lesson_id 共用同一受限 slug 规则
	slugPattern         = regexp.MustCompile(`^[a-z0-9][a-z0-9-]{0,98}[a-z0-9]$`)
	questionHashPattern = regexp.MustCompile(`^[a-f0-9]{8}$`)
)

// NormalizeEmail 截断、折叠大小写并校验格式与一次性域名。
// 返回规范化邮箱，或可直接回给调用方的错误消息。
func NormalizeEmail(raw string) (string, string) {
	if raw == "" {
		return "", "Missing: email"
	}
	email := raw
	if len(email) > 254 {
		email = email[:254]
	}
	email = strings.ToLower(strings.TrimSpace(email))
	if !emailPattern.MatchString(email) {
		return "", "Invalid email format"
	}
	domain := email[strings.LastIndex(email, "@")+1:]
	if disposableDomains[domain] {
		return "", "Disposable email addresses are not allowed"
	}
	return email, ""
}

// EmailHash SHA-256 前 12 个十六进制字符，公开展示用的不可逆短哈希
func EmailHash(email string) string {
	sum := sha256.Sum256([]byte(email))
	return hex.EncodeToString(sum[:])[:12]
}

func ValidSlug(id string) bool {
	return slugPattern.MatchString(id)
}

func ValidQuestionHash(h string) bool {
	return questionHashPattern.MatchString(h)
}

// TruncateID 上游先截断再做格式校验，保持与校验规则一致的长度上限
func TruncateID(id string, max int) string {
	if len(id) > max {
		return id[:max]
	}
	return id
}

// MissingField 字段级错误消息，格式全局统一
func MissingField(name string) string {
	return fmt.Sprintf("Missing: %s", name)
}
