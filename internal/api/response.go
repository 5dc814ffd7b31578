package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"resumeForge/internal/resume"
)

func Error(c *gin.Context, status int, msg string) {
	c.JSON(status, gin.H{"error": msg})
}

func BadRequest(c *gin.Context, msg string)      { Error(c, http.StatusBadRequest, msg) }
func NotFound(c *gin.Context, msg string)        { Error(c, http.StatusNotFound, msg) }
func Conflict(c *gin.Context, msg string)        { Error(c, http.StatusConflict, msg) }
func Unprocessable(c *gin.Context, msg string)   { Error(c, http.StatusUnprocessableEntity, msg) }
func TooManyRequests(c *gin.Context, msg string) { Error(c, http.StatusTooManyRequests, msg) }
func Internal(c *gin.Context, msg string)        { Error(c, http.StatusInternalServerError, msg) }

// InvalidDocument 返回导入校验失败的字段列表。
func InvalidDocument(c *gin.Context, err *resume.ImportError) {
	fields := err.Fields
	if fields == nil {
		fields = []resume.FieldError{}
	}
	c.JSON(http.StatusUnprocessableEntity, gin.H{
		"error":  err.Message,
		"fields": fields,
	})
}
