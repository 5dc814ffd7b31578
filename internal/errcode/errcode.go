package errcode

// 通知消息中的错误码，与 HTTP 状态码的语义对齐：
// - 0：无错误
// - 4xxx：文档本身的问题，用户修改后可重试
// - 5xxx：系统错误
const (
	OK                = 0
	UnsupportedFormat = 4015 // 颜色等格式无法导出
	InvalidDocument   = 4022
	SystemError       = 5000
	SaveFailed        = 5003 // 自动保存失败，内存中的文档仍然有效
)
