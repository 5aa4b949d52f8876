package smf

import (
	"fmt"

	"golang.org/x/text/transform"
)

// asciiEscapeDecoder is a transform.Transformer that passes bytes below
// 0x80 through unchanged and rewrites any byte with the high bit set as a
// literal "\xNN" escape, so TEXT-family meta events decode losslessly
// without committing to a particular 8-bit code page.
//
// Grounded on cmd/son-et/main.go's use of golang.org/x/text/transform to
// decode Shift_JIS source files; this composes with the same
// transform.Bytes/transform.String entry points for a pack-specific
// escape codec instead of a stock x/text charmap.
type asciiEscapeDecoder struct{ transform.NopResetter }

func (asciiEscapeDecoder) Transform(dst, src []byte, atEOF bool) (nDst, nSrc int, err error) {
	for nSrc < len(src) {
		b := src[nSrc]
		if b < 0x80 {
			if nDst >= len(dst) {
				return nDst, nSrc, transform.ErrShortDst
			}
			dst[nDst] = b
			nDst++
			nSrc++
			continue
		}
		esc := fmt.Sprintf("\\x%02X", b)
		if nDst+len(esc) > len(dst) {
			return nDst, nSrc, transform.ErrShortDst
		}
		nDst += copy(dst[nDst:], esc)
		nSrc++
	}
	return nDst, nSrc, nil
}

func decodeASCIIEscaped(payload []byte) string {
	out, _, err := transform.Bytes(asciiEscapeDecoder{}, payload)
	if err != nil {
		return string(payload)
	}
	return string(out)
}
