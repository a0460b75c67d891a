// Package sanitize cleans free-text user input before it is stored or echoed
// back to clients. All markup is stripped; plain text passes through intact.
package sanitize

import (
	"strings"
	"sync"

	"github.com/microcosm-cc/bluemonday"
)

var (
	policy     *bluemonday.Policy
	policyOnce sync.Once
)

func getPolicy() *bluemonday.Policy {
	policyOnce.Do(func() {
		policy = bluemonday.StrictPolicy()
	})
	return policy
}

// Clean strips all HTML from the input and trims surrounding whitespace.
// Markup-significant characters stay entity-escaped in the output, which
// keeps Clean idempotent: escaped text is never turned back into markup.
func Clean(input string) string {
	if input == "" {
		return ""
	}
	return strings.TrimSpace(getPolicy().Sanitize(input))
}
