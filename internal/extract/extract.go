// Package extract implements the deterministic extraction strategies used
// to verify claims: a CSS-selector subset, an XPath subset, and regex
// extraction. HTML handling is a single streaming walk over the document in
// which the text of a matched child propagates into its parent's
// accumulator, so enclosing matches still observe descendant text.
package extract

import (
	"regexp"
	"strings"

	"golang.org/x/net/html"

	"github.com/sentrykit/guardrail-mcp-server/internal/errors"
)

var whitespaceRe = regexp.MustCompile(`\s+`)

// matcher decides whether an element's open tag satisfies a selector.
// Tag names and attribute keys arrive lowercased from the tokenizer.
type matcher func(tag string, attrs map[string]string) bool

type node struct {
	matched bool
	parts   []string
}

// collect walks the document and returns the space-joined text of every
// element the matcher accepts.
func collect(document string, match matcher, mustInclude string) (string, error) {
	tokenizer := html.NewTokenizer(strings.NewReader(document))
	var stack []*node
	var matches []string

	pop := func() {
		if len(stack) == 0 {
			return
		}
		top := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		kept := make([]string, 0, len(top.parts))
		for _, part := range top.parts {
			if trimmed := strings.TrimSpace(part); trimmed != "" {
				kept = append(kept, trimmed)
			}
		}
		text := strings.Join(kept, " ")
		if top.matched && text != "" {
			matches = append(matches, text)
		}
		if len(stack) > 0 && text != "" {
			stack[len(stack)-1].parts = append(stack[len(stack)-1].parts, text)
		}
	}

walk:
	for {
		switch tokenizer.Next() {
		case html.ErrorToken:
			// EOF or malformed input: unclosed elements never record a match.
			break walk
		case html.StartTagToken, html.SelfClosingTagToken:
			token := tokenizer.Token()
			attrs := make(map[string]string, len(token.Attr))
			for _, attr := range token.Attr {
				attrs[attr.Key] = attr.Val
			}
			stack = append(stack, &node{matched: match(token.Data, attrs)})
			if token.Type == html.SelfClosingTagToken {
				pop()
			}
		case html.TextToken:
			if len(stack) > 0 {
				top := stack[len(stack)-1]
				top.parts = append(top.parts, tokenizer.Token().Data)
			}
		case html.EndTagToken:
			pop()
		}
	}

	if len(matches) == 0 {
		return "", errors.NewParseError("No elements matched selector")
	}
	text := strings.TrimSpace(strings.Join(matches, " "))
	if text == "" {
		return "", errors.NewParseError("Matched elements contained no text")
	}
	if mustInclude != "" && !strings.Contains(strings.ToLower(text), strings.ToLower(mustInclude)) {
		return "", errors.NewParseError("Required text missing from extraction result")
	}
	return text, nil
}

var cssTokenRe = regexp.MustCompile(`([#.])?([a-zA-Z0-9_-]+)`)

// cssMatcher parses a selector of the form tag.class#id. Tokens are parsed
// greedily; bare words after the first are treated as additional classes.
func cssMatcher(selector string) matcher {
	tokens := cssTokenRe.FindAllStringSubmatch(strings.TrimSpace(selector), -1)

	var tag, id string
	classes := map[string]bool{}
	for _, token := range tokens {
		prefix, value := token[1], strings.ToLower(token[2])
		switch {
		case prefix == "" && tag == "":
			tag = value
		case prefix == ".":
			classes[value] = true
		case prefix == "#":
			id = value
		case prefix == "":
			classes[value] = true
		}
	}
	if len(tokens) == 0 && selector != "" {
		tag = strings.ToLower(selector)
	}

	return func(tagName string, attrs map[string]string) bool {
		if tag != "" && strings.ToLower(tagName) != tag {
			return false
		}
		if id != "" && strings.ToLower(attrs["id"]) != id {
			return false
		}
		if len(classes) > 0 {
			elementClasses := map[string]bool{}
			for _, class := range strings.Fields(attrs["class"]) {
				elementClasses[strings.ToLower(class)] = true
			}
			for class := range classes {
				if !elementClasses[class] {
					return false
				}
			}
		}
		return true
	}
}

var xpathRe = regexp.MustCompile(`^//([a-zA-Z0-9_-]+)(?:\[@([a-zA-Z0-9_-]+)='([^']*)'\])?$`)

// xpathMatcher parses expressions of the form //tag or //tag[@attr='value'].
func xpathMatcher(expression string) (matcher, error) {
	groups := xpathRe.FindStringSubmatch(strings.TrimSpace(expression))
	if groups == nil {
		return nil, errors.NewParseError("Unsupported XPath expression: " + expression)
	}
	tag := strings.ToLower(groups[1])
	attrName, attrValue := groups[2], groups[3]

	return func(tagName string, attrs map[string]string) bool {
		if strings.ToLower(tagName) != tag {
			return false
		}
		if attrName != "" {
			return attrs[attrName] == attrValue
		}
		return true
	}, nil
}

// CSS extracts text content from HTML using a limited CSS selector.
func CSS(document, selector, mustInclude string) (string, error) {
	return collect(document, cssMatcher(selector), mustInclude)
}

// XPath extracts text content from HTML using a limited XPath expression.
func XPath(document, expression, mustInclude string) (string, error) {
	match, err := xpathMatcher(expression)
	if err != nil {
		return "", err
	}
	return collect(document, match, mustInclude)
}

// Regex extracts the first match of a case-insensitive pattern with internal
// whitespace collapsed to single spaces.
func Regex(text, pattern string) (string, error) {
	compiled, err := regexp.Compile("(?i)" + pattern)
	if err != nil {
		return "", errors.NewParseError("Invalid regular expression '" + pattern + "': " + err.Error())
	}
	loc := compiled.FindStringIndex(text)
	if loc == nil {
		return "", errors.NewParseError("Regex '" + pattern + "' not found in corpus")
	}
	match := text[loc[0]:loc[1]]
	return strings.TrimSpace(whitespaceRe.ReplaceAllString(match, " ")), nil
}
