package scoring

import "strings"

// synonyms maps capability aliases to one canonical token. Skills and
// domains pass through this table before intersection; regional-language
// aliases collapse to a single canonical form.
var synonyms = map[string]string{
	"golang":     "go",
	"js":         "javascript",
	"ts":         "typescript",
	"node":       "nodejs",
	"node.js":    "nodejs",
	"k8s":        "kubernetes",
	"postgres":   "postgresql",
	"pg":         "postgresql",
	"ml":         "machine-learning",
	"ai":         "machine-learning",
	"fe":         "frontend",
	"front-end":  "frontend",
	"be":         "backend",
	"back-end":   "backend",
	"infra":      "infrastructure",
	"devops":     "infrastructure",
	"qa":         "testing",
	"fintech":    "finance",
	"payments":   "finance",
	"ecommerce":  "commerce",
	"e-commerce": "commerce",
	"普通话":        "mandarin",
	"国语":         "mandarin",
	"中文":         "mandarin",
	"粤语":         "cantonese",
	"广东话":        "cantonese",
	"后端":         "backend",
	"前端":         "frontend",
	"运维":         "infrastructure",
	"测试":         "testing",
}

// Canonical returns the canonical form of a skill or domain token.
func Canonical(token string) string {
	key := strings.ToLower(strings.TrimSpace(token))
	if canon, ok := synonyms[key]; ok {
		return canon
	}
	return key
}

// CanonicalSet canonicalizes a value set, dropping duplicates that
// collapse to the same token. Order of first occurrence is preserved.
func CanonicalSet(values []string) []string {
	if len(values) == 0 {
		return nil
	}
	seen := make(map[string]bool, len(values))
	out := make([]string, 0, len(values))
	for _, v := range values {
		canon := Canonical(v)
		if canon == "" || seen[canon] {
			continue
		}
		seen[canon] = true
		out = append(out, canon)
	}
	return out
}
