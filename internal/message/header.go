package message

import (
	"io"
	"mime"
	"strings"

	"golang.org/x/text/encoding/ianaindex"
	"golang.org/x/text/transform"
)

// charsetReader resolves a declared charset through the IANA index. Unknown
// charsets fall back to interpreting the fragment as UTF-8.
func charsetReader(charset string, input io.Reader) (io.Reader, error) {
	enc, err := ianaindex.IANA.Encoding(strings.ToLower(charset))
	if err != nil || enc == nil {
		return input, nil
	}
	return transform.NewReader(input, enc.NewDecoder()), nil
}

// DecodeHeader decodes a header value that may carry charset-tagged encoded
// words. Fragments are decoded with their declared charset, falling back to
// UTF-8; if decoding fails outright the raw value is returned with non-ASCII
// bytes replaced.
func DecodeHeader(raw string) string {
	if raw == "" {
		return ""
	}

	dec := mime.WordDecoder{CharsetReader: charsetReader}
	decoded, err := dec.DecodeHeader(raw)
	if err != nil {
		return asciiWithReplacement(raw)
	}
	return decoded
}

func asciiWithReplacement(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r < 128 {
			b.WriteRune(r)
		} else {
			b.WriteRune('�')
		}
	}
	return b.String()
}
