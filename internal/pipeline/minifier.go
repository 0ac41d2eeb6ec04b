package pipeline

import (
	"bytes"
	"strings"

	"go.trai.ch/smelt/internal/core/domain"
)

// Minify applies the configured minification passes to a css or js source.
func Minify(src []byte, kind string, settings domain.MinifySettings) []byte {
	out := src
	if settings.RemoveComments {
		out = stripBlockComments(out)
		if kind == "js" {
			out = stripLineComments(out)
		}
	}
	if settings.CollapseWhitespace {
		out = collapseWhitespace(out)
	}
	return out
}

func stripBlockComments(src []byte) []byte {
	var buf bytes.Buffer
	for {
		start := bytes.Index(src, []byte("/*"))
		if start < 0 {
			buf.Write(src)
			break
		}
		end := bytes.Index(src[start+2:], []byte("*/"))
		if end < 0 {
			buf.Write(src[:start])
			break
		}
		buf.Write(src[:start])
		src = src[start+2+end+2:]
	}
	return buf.Bytes()
}

func stripLineComments(src []byte) []byte {
	lines := strings.Split(string(src), "\n")
	out := make([]string, 0, len(lines))
	for _, line := range lines {
		// Naive cut: good enough for comment-only and trailing comments
		// without string literals containing "//".
		if i := strings.Index(line, "//"); i >= 0 && !strings.Contains(line[:i], "\"") && !strings.Contains(line[:i], "'") {
			line = line[:i]
		}
		out = append(out, line)
	}
	return []byte(strings.Join(out, "\n"))
}

func collapseWhitespace(src []byte) []byte {
	return []byte(strings.Join(strings.Fields(string(src)), " "))
}
