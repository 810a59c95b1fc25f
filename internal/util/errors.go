package util

import "errors"

var (
	ErrUserNotFound = errors.New("user not found")
	// 无权访问与课程不存在返回同一错误，避免探测课程是否存在
	ErrNoAccess         = errors.New("no access to this course")
	ErrInvalidSignature = errors.New("invalid signature")
)
