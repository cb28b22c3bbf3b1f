package middleware

import (
	"fmt"
	"log/slog"
	"net/http"
	"runtime/debug"

	chimid "github.com/go-chi/chi/v5/middleware"
)

// Recover 攔截 handler panic：有 logger 時記錄 request id 與 stack 後回 500，否則交給 chi 的 Recoverer。
func Recover(log *slog.Logger) func(http.Handler) http.Handler {
	if log == nil {
		return chimid.Recoverer
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				rec := recover()
				if rec == nil {
					return
				}
				if rec == http.ErrAbortHandler {
					panic(rec)
				}
				log.LogAttrs(r.Context(), slog.LevelError, "http.panic",
					slog.String("req_id", GetReqId(r)),
					slog.String("path", r.URL.Path),
					slog.String("panic", fmt.Sprint(rec)),
					slog.String("stack", string(debug.Stack())),
				)
				if r.Header.Get("Connection") != "Upgrade" {
					http.Error(w, "internal server error", http.StatusInternalServerError)
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}
