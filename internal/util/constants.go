package util

const (
	DateFormat = "2006-01-02"
	TimeFormat = "2006-01-02 15:04:05"
)

const (
	StorageLocal = "local"
	StorageMinio = "minio"
	StorageOSS   = "oss"
)

// 默认语言
const DefaultLanguage = "en"

// 分页默认值
const (
	DefaultPageSize = 20
	MaxPageSize     = 100
)
