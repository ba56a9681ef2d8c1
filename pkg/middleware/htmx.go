package middleware

import "github.com/gin-gonic/gin"

// HXRequestHeader is sent by htmx on requests it issues
const HXRequestHeader = "HX-Request"

// IsPartial reports whether the client asked for a fragment.
// Any non-empty HX-Request value counts.
func IsPartial(c *gin.Context) bool {
	return c.GetHeader(HXRequestHeader) != ""
}

// Vary marks responses that differ by HX-Request so caches keep them apart
func Vary() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Add("Vary", HXRequestHeader)
		c.Next()
	}
}
