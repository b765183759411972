package files

import (
	"encoding/json"
	"strings"
)

// placeholderScheme marks record content that carries no file bytes, only a
// JSON description of what was uploaded. Retrieval of such a record must
// still succeed; the download surface renders a notice instead of bytes.
const placeholderScheme = "placeholder://"

type placeholderMeta struct {
	Name     string `json:"name"`
	MIMEType string `json:"mimeType"`
	ByteSize int64  `json:"byteSize"`
}

func placeholderContent(name, mimeType string, size int64) string {
	meta, err := json.Marshal(placeholderMeta{Name: name, MIMEType: mimeType, ByteSize: size})
	if err != nil {
		return placeholderScheme + "{}"
	}
	return placeholderScheme + string(meta)
}

// IsPlaceholder reports whether content is a synthetic placeholder rather
// than encoded file bytes.
func IsPlaceholder(content string) bool {
	return strings.HasPrefix(content, placeholderScheme)
}
