package service

import (
	"errors"
	"kids_edu_backend/internal/util"
)

type WriteStatus string

const (
	WriteOK       WriteStatus = "ok"
	WriteFailed   WriteStatus = "failed"
	WriteConflict WriteStatus = "conflict"
	WriteSkipped  WriteStatus = "skipped"
)

type WriteError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// WriteResult 一次进度写入的结果，随新状态一起返回给调用方
type WriteResult struct {
	Status  WriteStatus `json:"status"`
	Version int         `json:"version,omitempty"`
	Error   *WriteError `json:"error,omitempty"`
}

func (r WriteResult) OK() bool {
	return r.Status == WriteOK
}

func failedWrite(err error) WriteResult {
	if errors.Is(err, util.ErrVersionConflict) {
		return conflictWrite(0)
	}
	return WriteResult{
		Status: WriteFailed,
		Error:  &WriteError{Code: "write_failed", Message: err.Error()},
	}
}

func conflictWrite(version int) WriteResult {
	return WriteResult{
		Status:  WriteConflict,
		Version: version,
		Error:   &WriteError{Code: "version_conflict", Message: util.ErrVersionConflict.Error()},
	}
}

func guestWrite() WriteResult {
	return WriteResult{
		Status: WriteSkipped,
		Error:  &WriteError{Code: "guest", Message: util.ErrGuestNotAllowed.Error()},
	}
}
