package middleware

import (
	"net/http"
	"strings"

	chimid "github.com/go-chi/chi/v5/middleware"
)

// RequestIDHeader 回應中帶回的 request id header
const RequestIDHeader = "X-Request-Id"

// RequestID 產生（或沿用 X-Request-Id 帶入的）request id，並寫回回應 header。
func RequestID(next http.Handler) http.Handler {
	return chimid.RequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if id := GetReqId(r); id != "" {
			w.Header().Set(RequestIDHeader, id)
		}
		next.ServeHTTP(w, r)
	}))
}

func GetReqId(r *http.Request) string {
	return chimid.GetReqID(r.Context())
}

// GetReqIdNumPart 取 request id 的流水號部分（host/prefix-000123 -> 000123）
func GetReqIdNumPart(r *http.Request) string {
	str := chimid.GetReqID(r.Context())
	if len(str) == 0 {
		return ""
	}
	i := strings.LastIndex(str, "-")
	if i < 0 || i+1 >= len(str) {
		return str
	}
	return str[i+1:]
}
