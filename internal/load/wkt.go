package load

import (
	"errors"
	"strings"

	"github.com/paulmach/orb/encoding/wkt"
)

// parseWKT reads one geometry, or several separated by blank lines or
// semicolons.
func parseWKT(s string) (*batch, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, errors.New("wkt: empty input")
	}
	b := &batch{}
	for _, chunk := range splitWKT(s) {
		g, err := wkt.Unmarshal(chunk)
		if err != nil {
			return nil, err
		}
		b.geometry(g, nil)
	}
	return b, nil
}

func splitWKT(s string) []string {
	var out []string
	for _, part := range strings.FieldsFunc(s, func(r rune) bool { return r == ';' }) {
		for _, p := range strings.Split(part, "\n\n") {
			if p = strings.TrimSpace(p); p != "" {
				out = append(out, p)
			}
		}
	}
	return out
}
