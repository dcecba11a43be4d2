package errors

import (
	stderrors "errors"
	"fmt"
)

type AppError struct {
	Code    string
	Message string
	Err     error
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Err
}

func New(code, message string, err error) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

var (
	ErrConfigLoad      = "CONFIG_LOAD_ERROR"
	ErrDatabaseConnect = "DATABASE_CONNECT_ERROR"

	// 业务错误码，对应积分查询与兑换协议的错误分类
	ErrInvalidInput          = "INVALID_INPUT"
	ErrNotEnrolled           = "NOT_ENROLLED"
	ErrChainUnavailable      = "CHAIN_UNAVAILABLE"
	ErrInsufficientPoints    = "INSUFFICIENT_POINTS"
	ErrRedemptionFailed      = "REDEMPTION_FAILED"
	ErrCriticalInconsistency = "CRITICAL_INCONSISTENCY"
	ErrStoreWrite            = "STORE_WRITE_ERROR"
)

// CodeOf 提取错误链中的业务错误码，非AppError返回空字符串
func CodeOf(err error) string {
	var appErr *AppError
	if stderrors.As(err, &appErr) {
		return appErr.Code
	}
	return ""
}

// HasCode 判断错误是否属于指定错误码
func HasCode(err error, code string) bool {
	return CodeOf(err) == code
}
