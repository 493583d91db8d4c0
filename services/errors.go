package services

import (
	"errors"
	"fmt"
)

var (
	// ErrAuthExchangeFailed 外部令牌换取会话被拒绝或网络失败
	ErrAuthExchangeFailed = errors.New("auth exchange failed")
	// ErrSessionExpired 令牌无效或过期，会话已被强制登出
	ErrSessionExpired = errors.New("session expired")
	// ErrSuggestionUnavailable 任务建议失败，本地无法降级
	ErrSuggestionUnavailable = errors.New("task suggestions unavailable")
	// ErrCalendarPermissionMissing 任务已创建，但自动排期因日历权限失败
	ErrCalendarPermissionMissing = errors.New("calendar permission missing")

	ErrInvalidTransition = errors.New("invalid onboarding transition")
	ErrEmptyGoal         = errors.New("goal text is empty")
	ErrUnknownSuggestion = errors.New("suggestion does not belong to the current batch")
	ErrNoSelection       = errors.New("no suggested tasks selected")
	ErrNoToken           = errors.New("no persisted token")
	// ErrEmptyMessage 空白的教练消息不发送
	ErrEmptyMessage = errors.New("coach message is empty")
)

// RequestFailedError 后端返回非 2xx
type RequestFailedError struct {
	Method   string
	Endpoint string
	Status   int
	Detail   string
}

func (e *RequestFailedError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("%s %s failed with status %d: %s", e.Method, e.Endpoint, e.Status, e.Detail)
	}
	return fmt.Sprintf("%s %s failed with status %d", e.Method, e.Endpoint, e.Status)
}

// IsRequestFailed 判断错误链中是否有 RequestFailedError
func IsRequestFailed(err error) (*RequestFailedError, bool) {
	var rf *RequestFailedError
	if errors.As(err, &rf) {
		return rf, true
	}
	return nil, false
}

// PartialDecodeError 列表中有记录无法解码。其余记录照常返回，调用方可以继续使用
type PartialDecodeError struct {
	Endpoint string
	Total    int
	Errs     []error
}

func (e *PartialDecodeError) Error() string {
	return fmt.Sprintf("%s: skipped %d of %d records: %v", e.Endpoint, len(e.Errs), e.Total, errors.Join(e.Errs...))
}

func (e *PartialDecodeError) Unwrap() []error {
	return e.Errs
}

// IsPartialDecode 判断错误链中是否有 PartialDecodeError
func IsPartialDecode(err error) (*PartialDecodeError, bool) {
	var pd *PartialDecodeError
	if errors.As(err, &pd) {
		return pd, true
	}
	return nil, false
}
