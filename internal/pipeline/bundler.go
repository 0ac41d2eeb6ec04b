// Package pipeline holds the units of work executed inside cached sections:
// bundling and minification. The engine never looks inside them; they plug
// into caching through the section callback contract.
package pipeline

import (
	"bytes"
	"os"

	"go.trai.ch/zerr"
)

// Concatenate joins the content of the given files in order, separated by a
// single newline.
func Concatenate(paths []string) ([]byte, error) {
	var buf bytes.Buffer
	for i, path := range paths {
		data, err := os.ReadFile(path) //nolint:gosec // Paths come from the validated config
		if err != nil {
			return nil, zerr.With(zerr.Wrap(err, "failed to read bundle input"), "path", path)
		}
		if i > 0 {
			buf.WriteByte('\n')
		}
		buf.Write(data)
	}
	return buf.Bytes(), nil
}
