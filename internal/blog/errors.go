package blog

import "errors"

// 错误分类：由 HTTP 边界通过 errors.Is 映射为客户端/服务端错误。
var (
	ErrValidation         = errors.New("validation failed")
	ErrConflict           = errors.New("slug conflict")
	ErrNotFound           = errors.New("post not found")
	ErrStorageUnavailable = errors.New("blog storage unavailable")
)

// storageHint 附在 ErrStorageUnavailable 上，提示如何配置可写目录。
const storageHint = "configure BLOG_DATA_DIR (BLOG.data_dir in settings.yaml) to point at a writable location"
