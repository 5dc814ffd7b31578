package storage

import (
	"errors"
	"net/http"
	"strings"

	"github.com/minio/minio-go/v7"
)

var (
	missingObjectCodes = []string{"NoSuchKey", "NotFound"}
	missingBucketCodes = []string{"NoSuchBucket"}
)

// IsNoSuchKey 判断错误是否表示导出文件或缩略图不存在。
// HEAD 请求（StatObject）没有响应体，只能依赖 404 状态码判断。
func IsNoSuchKey(err error) bool {
	if err == nil {
		return false
	}
	if resp, ok := errorResponse(err); ok {
		if hasCode(resp.Code, missingObjectCodes) {
			return true
		}
		if resp.StatusCode == http.StatusNotFound && resp.Code == "" {
			return true
		}
	}
	return messageContains(err, "nosuchkey", "specified key does not exist")
}

// IsNoSuchBucket 判断错误是否表示 Bucket 不存在。
func IsNoSuchBucket(err error) bool {
	if err == nil {
		return false
	}
	if resp, ok := errorResponse(err); ok && hasCode(resp.Code, missingBucketCodes) {
		return true
	}
	return messageContains(err, "nosuchbucket", "specified bucket does not exist")
}

func errorResponse(err error) (minio.ErrorResponse, bool) {
	var resp minio.ErrorResponse
	if errors.As(err, &resp) {
		return resp, true
	}
	return resp, false
}

func hasCode(code string, codes []string) bool {
	code = strings.TrimSpace(code)
	for _, c := range codes {
		if strings.EqualFold(code, c) {
			return true
		}
	}
	return false
}

// 网关或代理有时只留下错误文本。
func messageContains(err error, needles ...string) bool {
	lower := strings.ToLower(err.Error())
	for _, n := range needles {
		if strings.Contains(lower, n) {
			return true
		}
	}
	return false
}
