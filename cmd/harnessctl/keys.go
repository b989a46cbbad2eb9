package main

import (
	"fmt"
	"strings"

	"github.com/kylejwatson/playwright-harness/harness"
)

// parseKeys turns command-line tokens into a key sequence. A token written
// as {Name} is a named key ({Enter}, {ArrowLeft}, {F5}); anything else is
// typed as text.
func parseKeys(tokens []string) ([]harness.Key, error) {
	keys := make([]harness.Key, 0, len(tokens))
	for _, tok := range tokens {
		if len(tok) > 2 && strings.HasPrefix(tok, "{") && strings.HasSuffix(tok, "}") {
			name := tok[1 : len(tok)-1]
			k, ok := harness.ParseTestKey(name)
			if !ok {
				return nil, fmt.Errorf("unknown key: %s", name)
			}
			keys = append(keys, k)
			continue
		}
		keys = append(keys, harness.Text(tok))
	}
	return keys, nil
}
