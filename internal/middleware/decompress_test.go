package middleware

import (
	"bytes"
	"compress/gzip"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func echoBody() http.Handler {
	return http.HandlerFunc(func(res http.ResponseWriter, req *http.Request) {
		body, err := io.ReadAll(req.Body)
		if err != nil {
			res.WriteHeader(http.StatusInternalServerError)
			return
		}

		_, _ = res.Write(body)
	})
}

func TestDecompressBodyReader(t *testing.T) {
	t.Run("gzip body", func(t *testing.T) {
		var compressed bytes.Buffer

		writer := gzip.NewWriter(&compressed)
		_, err := writer.Write([]byte(`{"status":"Ready"}`))
		require.NoError(t, err)
		require.NoError(t, writer.Close())

		req := httptest.NewRequest(http.MethodPut, "/updateorder/x", &compressed)
		req.Header.Set("Content-Encoding", "gzip")

		rec := httptest.NewRecorder()
		DecompressBodyReader(echoBody()).ServeHTTP(rec, req)

		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, `{"status":"Ready"}`, rec.Body.String())
	})

	t.Run("plain body", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPut, "/updateorder/x", strings.NewReader(`{"status":"Ready"}`))

		rec := httptest.NewRecorder()
		DecompressBodyReader(echoBody()).ServeHTTP(rec, req)

		assert.Equal(t, `{"status":"Ready"}`, rec.Body.String())
	})

	t.Run("corrupt gzip", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPut, "/updateorder/x", strings.NewReader("not gzip"))
		req.Header.Set("Content-Encoding", "gzip")

		rec := httptest.NewRecorder()
		DecompressBodyReader(echoBody()).ServeHTTP(rec, req)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}
