package httpx

import (
	"bytes"
	"compress/flate"
	"compress/gzip"
	"compress/zlib"
	"fmt"
	"io"
	"strings"

	"github.com/andybalholm/brotli"
	"github.com/klauspost/compress/zstd"
)

// AcceptEncoding lists the encodings DecodeBody understands.
const AcceptEncoding = "gzip, br, zstd, deflate"

type decoder func([]byte) ([]byte, error)

var decoders = map[string]decoder{
	"br":       decodeBrotli,
	"gzip":     decodeGzip,
	"zstd":     decodeZstd,
	"deflate":  decodeDeflate,
	"identity": nil,
	"":         nil,
}

// DecodeBody undoes a Content-Encoding header value. Chained encodings
// ("gzip, br") are removed last to first.
func DecodeBody(contentEncoding string, body []byte) ([]byte, error) {
	if contentEncoding == "" {
		return body, nil
	}
	encodings := strings.Split(contentEncoding, ",")
	for i := len(encodings) - 1; i >= 0; i-- {
		name := strings.ToLower(strings.TrimSpace(encodings[i]))
		dec, ok := decoders[name]
		if !ok {
			return nil, fmt.Errorf("unsupported content-encoding: %q", name)
		}
		if dec == nil {
			continue
		}
		out, err := dec(body)
		if err != nil {
			return nil, fmt.Errorf("failed to decode %s body: %w", name, err)
		}
		body = out
	}
	return body, nil
}

func decodeBrotli(body []byte) ([]byte, error) {
	return io.ReadAll(brotli.NewReader(bytes.NewReader(body)))
}

func decodeGzip(body []byte) ([]byte, error) {
	r, err := gzip.NewReader(bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	defer r.Close()
	return io.ReadAll(r)
}

func decodeZstd(body []byte) ([]byte, error) {
	r, err := zstd.NewReader(bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	defer r.Close()
	return io.ReadAll(r)
}

// decodeDeflate accepts zlib-wrapped data and falls back to raw DEFLATE.
func decodeDeflate(body []byte) ([]byte, error) {
	if r, err := zlib.NewReader(bytes.NewReader(body)); err == nil {
		defer r.Close()
		return io.ReadAll(r)
	}
	r := flate.NewReader(bytes.NewReader(body))
	defer r.Close()
	return io.ReadAll(r)
}
