package assistant

import (
	"context"
	"regexp"
	"strings"

	"github.com/LeEricCH/cohere-slack-starter-app/internal/cohere"
)

// urlPattern matches the first URL in a question; the capture group is the
// host with any leading www. already stripped.
var urlPattern = regexp.MustCompile(`(?i)https?://(?:www\.)?([^/\s]+)`)

// siteRestriction derives a web-search site restriction from the first URL
// found in the question: the last three dot-separated host labels, so
// https://www.docs.example.com/x restricts search to docs.example.com. A
// question with no URL (or a malformed one) yields no restriction — this is
// best-effort UX, not a security boundary.
func siteRestriction(question string) string {
	match := urlPattern.FindStringSubmatch(question)
	if match == nil {
		return ""
	}
	labels := strings.Split(match[1], ".")
	if len(labels) > 3 {
		labels = labels[len(labels)-3:]
	}
	return strings.Join(labels, ".")
}

// generate issues the single backend call for a question. Exactly one
// attempt per user action: failures and empty answers become a
// GenerationError for the caller to render, never a retry.
func generate(ctx context.Context, g Generator, turns []cohere.Turn, question string) (*cohere.ChatResponse, error) {
	req := cohere.ChatRequest{
		History:    turns,
		Message:    question,
		Connectors: []cohere.Connector{cohere.WebSearchConnector(siteRestriction(question))},
	}
	resp, err := g.Chat(ctx, req)
	if err != nil {
		return nil, &GenerationError{Reason: err.Error()}
	}
	if resp.Text == "" {
		return nil, &GenerationError{Reason: "no message returned from Cohere API"}
	}
	return resp, nil
}
