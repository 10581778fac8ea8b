package extract

import (
	"bytes"
	"strings"
)

var utf8BOM = []byte("\xef\xbb\xbf")

func decodeText(data []byte) string {
	return strings.ToValidUTF8(string(bytes.TrimPrefix(data, utf8BOM)), "\uFFFD")
}
