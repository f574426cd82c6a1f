package middleware

import (
	"compress/gzip"
	"io"
	"net/http"
	"strings"
	"sync"
)

// minGzipSize ответы меньше этого размера не сжимаются
const minGzipSize = 1400

var gzipWriters = sync.Pool{
	New: func() any {
		return gzip.NewWriter(io.Discard)
	},
}

// GzipMiddleware распаковывает gzip-запросы и сжимает JSON и HTML ответы
func GzipMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.Contains(r.Header.Get("Content-Encoding"), "gzip") {
			gz, err := gzip.NewReader(r.Body)
			if err != nil {
				http.Error(w, "Invalid gzip data", http.StatusBadRequest)
				return
			}
			defer gz.Close()
			r.Body = io.NopCloser(gz)
			r.Header.Del("Content-Encoding")
		}

		if !strings.Contains(r.Header.Get("Accept-Encoding"), "gzip") {
			next.ServeHTTP(w, r)
			return
		}

		gw := &gzipResponseWriter{ResponseWriter: w, status: http.StatusOK}
		defer gw.Close()
		next.ServeHTTP(gw, r)
	})
}

// gzipResponseWriter откладывает заголовки до первой записи, чтобы решить, сжимать ли ответ
type gzipResponseWriter struct {
	http.ResponseWriter
	gz          *gzip.Writer
	status      int
	wroteHeader bool
	decided     bool
}

func (w *gzipResponseWriter) WriteHeader(statusCode int) {
	if w.wroteHeader {
		return
	}
	w.status = statusCode
	w.wroteHeader = true
}

func compressible(contentType string) bool {
	return strings.HasPrefix(contentType, "application/json") || strings.HasPrefix(contentType, "text/html")
}

func (w *gzipResponseWriter) decide(size int) {
	w.decided = true
	h := w.Header()
	if compressible(h.Get("Content-Type")) && size >= minGzipSize && h.Get("Content-Encoding") == "" {
		gz := gzipWriters.Get().(*gzip.Writer)
		gz.Reset(w.ResponseWriter)
		w.gz = gz
		h.Set("Content-Encoding", "gzip")
		h.Add("Vary", "Accept-Encoding")
		h.Del("Content-Length")
	}
	w.ResponseWriter.WriteHeader(w.status)
}

func (w *gzipResponseWriter) Write(b []byte) (int, error) {
	if !w.decided {
		w.decide(len(b))
	}
	if w.gz != nil {
		return w.gz.Write(b)
	}
	return w.ResponseWriter.Write(b)
}

// Close дописывает gzip-поток и возвращает writer в пул
func (w *gzipResponseWriter) Close() error {
	if !w.decided {
		// тело пустое, отправляем отложенный статус
		w.decided = true
		w.ResponseWriter.WriteHeader(w.status)
		return nil
	}
	if w.gz == nil {
		return nil
	}
	err := w.gz.Close()
	gzipWriters.Put(w.gz)
	w.gz = nil
	return err
}
