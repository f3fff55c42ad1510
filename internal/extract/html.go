package extract

import (
	"errors"
	"io"
	"os"
	"strings"

	"golang.org/x/net/html"
)

// extractHTML keeps every non-blank text node, script and style bodies
// included, one per line.
func extractHTML(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	z := html.NewTokenizer(f)
	var parts []string
	for {
		switch z.Next() {
		case html.ErrorToken:
			if errors.Is(z.Err(), io.EOF) {
				return strings.Join(parts, "\n"), nil
			}
			return "", z.Err()
		case html.TextToken:
			// Token() decodes entities.
			if t := strings.TrimSpace(z.Token().Data); t != "" {
				parts = append(parts, t)
			}
		}
	}
}
