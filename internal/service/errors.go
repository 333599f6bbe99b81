package service

import (
	"errors"
	"fmt"
)

// 业务层错误类别，handler 可根据类别映射到合适的 HTTP 状态码。
var (
	ErrValidation = errors.New("validation error")
	ErrNotFound   = errors.New("not found")
	ErrStorage    = errors.New("storage error")
)

// 具体业务错误，均归入 ErrValidation。
var (
	ErrEmailTaken         = &Error{Kind: ErrValidation, Msg: "email already registered"}
	ErrUserNotFound       = &Error{Kind: ErrValidation, Msg: "user not found"}
	ErrInvalidCredentials = &Error{Kind: ErrValidation, Msg: "wrong password"}
	ErrChatNotFound       = &Error{Kind: ErrNotFound, Msg: "chat not found"}
)

// Error 携带面向调用方的可读信息，并通过 errors.Is 匹配其类别。
type Error struct {
	Kind error
	Msg  string
}

func (e *Error) Error() string { return e.Msg }

func (e *Error) Unwrap() error { return e.Kind }

func invalid(format string, args ...any) error {
	return &Error{Kind: ErrValidation, Msg: fmt.Sprintf(format, args...)}
}

// storageErr 包装底层存储错误，保留原始错误链便于日志。
func storageErr(op string, err error) error {
	return fmt.Errorf("%s: %w: %w", op, ErrStorage, err)
}

// isBusiness 判断 err 是业务错误而非存储错误。
func isBusiness(err error) bool {
	var e *Error
	return errors.As(err, &e)
}
