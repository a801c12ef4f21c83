package mockjudge

import (
	"bytes"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
)

// minCompressSize skips tiny bodies where framing outweighs the savings.
const minCompressSize = 256

type bufferedWriter struct {
	gin.ResponseWriter
	buf bytes.Buffer
}

func (w *bufferedWriter) Write(b []byte) (int, error)       { return w.buf.Write(b) }
func (w *bufferedWriter) WriteString(s string) (int, error) { return w.buf.WriteString(s) }

// compressMiddleware buffers the handler's body and re-encodes it with the best
// encoding the client accepts (zstd over gzip).
func compressMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		encoding := pickEncoding(c.GetHeader("Accept-Encoding"))
		if encoding == "" {
			c.Next()
			return
		}
		orig := c.Writer
		bw := &bufferedWriter{ResponseWriter: orig}
		c.Writer = bw
		c.Next()
		c.Writer = orig

		body := bw.buf.Bytes()
		if len(body) < minCompressSize {
			_, _ = orig.Write(body)
			return
		}
		encoded, err := encode(encoding, body)
		if err != nil {
			_, _ = orig.Write(body)
			return
		}
		orig.Header().Set("Content-Encoding", encoding)
		orig.Header().Set("Content-Length", strconv.Itoa(len(encoded)))
		orig.Header().Add("Vary", "Accept-Encoding")
		_, _ = orig.Write(encoded)
	}
}

func pickEncoding(accept string) string {
	accept = strings.ToLower(accept)
	switch {
	case strings.Contains(accept, "zstd"):
		return "zstd"
	case strings.Contains(accept, "gzip"):
		return "gzip"
	}
	return ""
}

func encode(encoding string, body []byte) ([]byte, error) {
	var out bytes.Buffer
	switch encoding {
	case "zstd":
		enc, err := zstd.NewWriter(&out)
		if err != nil {
			return nil, err
		}
		if _, err := enc.Write(body); err != nil {
			_ = enc.Close()
			return nil, err
		}
		if err := enc.Close(); err != nil {
			return nil, err
		}
	default:
		gz := gzip.NewWriter(&out)
		if _, err := gz.Write(body); err != nil {
			return nil, err
		}
		if err := gz.Close(); err != nil {
			return nil, err
		}
	}
	return out.Bytes(), nil
}
