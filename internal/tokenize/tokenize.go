// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package tokenize turns prompts and Terraform code into normalized keyword
// tokens and AWS resource type identifiers.
package tokenize

import (
	"regexp"
	"sort"
	"strings"
)

// minTokenLen is the shortest token kept; shorter tokens carry no signal.
const minTokenLen = 3

var (
	tokenPattern    = regexp.MustCompile(`[a-zA-Z0-9]+(?:_[a-zA-Z0-9]+)*`)
	resourcePattern = regexp.MustCompile(`(?i)resource\s+"([^"]+)"`)
	explicitPattern = regexp.MustCompile(`aws_[a-z0-9_]+`)
)

var stopwords = map[string]struct{}{}

func init() {
	for _, w := range []string{
		"a", "an", "and", "are", "as", "at", "be", "by", "for", "from",
		"has", "he", "in", "is", "it", "its", "of", "on", "that", "the",
		"to", "was", "will", "with", "this", "these", "those", "have",
		"can", "could", "should", "would", "may", "might", "must",
		"create", "using", "use", "set", "get", "make", "do", "does",
		"did", "done", "your", "my", "our", "their", "his", "her",
	} {
		stopwords[w] = struct{}{}
	}
}

// Set is an unordered collection of normalized tokens.
type Set map[string]struct{}

// NewSet returns a Set holding items.
func NewSet(items ...string) Set {
	s := make(Set, len(items))
	for _, it := range items {
		s[it] = struct{}{}
	}
	return s
}

// Add inserts item into s.
func (s Set) Add(item string) { s[item] = struct{}{} }

// Has reports whether item is in s.
func (s Set) Has(item string) bool {
	_, ok := s[item]
	return ok
}

// Sorted returns the members of s in ascending order.
func (s Set) Sorted() []string {
	out := make([]string, 0, len(s))
	for it := range s {
		out = append(out, it)
	}
	sort.Strings(out)
	return out
}

// IntersectCount returns |s ∩ other|.
func (s Set) IntersectCount(other Set) int {
	small, large := s, other
	if len(large) < len(small) {
		small, large = large, small
	}
	n := 0
	for it := range small {
		if large.Has(it) {
			n++
		}
	}
	return n
}

// IsStopword reports whether token is in the fixed stopword list.
func IsStopword(token string) bool {
	_, ok := stopwords[token]
	return ok
}

// keep applies the length and stopword filter to a lowercased token.
func keep(token string) bool {
	return len(token) >= minTokenLen && !IsStopword(token)
}

// addComponents adds the filtered underscore-separated parts of token to s.
func addComponents(s Set, token string) {
	if !strings.Contains(token, "_") {
		return
	}
	for _, part := range strings.Split(token, "_") {
		if keep(part) {
			s.Add(part)
		}
	}
}

// Keywords extracts the keyword tokens of free text. Tokens are lowercased
// alphanumeric runs, optionally joined by single underscores; short tokens
// and stopwords are dropped. A compound token like "load_balancer" yields
// the token itself plus "load" and "balancer".
func Keywords(text string) Set {
	out := Set{}
	for _, tok := range tokenPattern.FindAllString(text, -1) {
		tok = strings.ToLower(tok)
		if !keep(tok) {
			continue
		}
		out.Add(tok)
		addComponents(out, tok)
	}
	return out
}

// ExpandKeywords normalizes keywords attached to a knowledge base record.
// Every non-blank keyword is kept as given (lowercased, trimmed) and the
// underscore components of compound keywords are added when they pass the
// token filter.
func ExpandKeywords(raw []string) Set {
	out := Set{}
	for _, kw := range raw {
		kw = strings.ToLower(strings.TrimSpace(kw))
		if kw == "" {
			continue
		}
		out.Add(kw)
		addComponents(out, kw)
	}
	return out
}

// DeclaredResources returns the resource types declared in Terraform code
// with `resource "<type>"` blocks.
func DeclaredResources(code string) Set {
	out := Set{}
	for _, m := range resourcePattern.FindAllStringSubmatch(code, -1) {
		if rt := strings.ToLower(strings.TrimSpace(m[1])); rt != "" {
			out.Add(rt)
		}
	}
	return out
}

// ExplicitResources returns the aws_* identifiers written out in text.
func ExplicitResources(text string) Set {
	return NewSet(explicitPattern.FindAllString(strings.ToLower(text), -1)...)
}

// PromptResources detects the resource types a prompt refers to: explicit
// aws_* identifiers plus the canonical type of every known service name
// that appears in the prompt as a whole word.
func PromptResources(prompt string) Set {
	lower := strings.ToLower(prompt)
	out := ExplicitResources(lower)
	for _, svc := range services {
		if svc.pattern.MatchString(lower) {
			out.Add(svc.resource)
		}
	}
	return out
}
