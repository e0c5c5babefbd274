package middleware

import (
	"net/http"
	"strconv"
	"time"
)

// ProcessTimeHeader — время обработки запроса в секундах.
const ProcessTimeHeader = "My-Process-Time"

// ProcessTime добавляет в ответ заголовок My-Process-Time. Значение
// фиксируется в момент отправки заголовков: позже их уже не изменить.
func ProcessTime() Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			tw := &timingWriter{ResponseWriter: w, start: time.Now()}
			next.ServeHTTP(tw, r)

			// Хендлер ничего не записал: заголовки ещё не ушли.
			if !tw.stamped {
				tw.stamp()
			}
		})
	}
}

type timingWriter struct {
	http.ResponseWriter
	start   time.Time
	stamped bool
}

func (w *timingWriter) stamp() {
	w.stamped = true
	elapsed := time.Since(w.start).Seconds()
	w.Header().Set(ProcessTimeHeader, strconv.FormatFloat(elapsed, 'f', -1, 64))
}

func (w *timingWriter) WriteHeader(code int) {
	if !w.stamped {
		w.stamp()
	}
	w.ResponseWriter.WriteHeader(code)
}

func (w *timingWriter) Write(p []byte) (int, error) {
	if !w.stamped {
		w.stamp()
	}
	return w.ResponseWriter.Write(p)
}

func (w *timingWriter) Unwrap() http.ResponseWriter {
	return w.ResponseWriter
}
