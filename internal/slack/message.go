// Package slack builds block-kit report messages and delivers them to a
// Slack incoming webhook.
package slack

import (
	"fmt"
	"strings"

	"github.com/johnqtcg/reviewstats/internal/report"
)

const (
	blockSection = "section"
	textMarkdown = "mrkdwn"
)

// Message is an incoming-webhook payload.
type Message struct {
	Text   string  `json:"text,omitempty"`
	Blocks []Block `json:"blocks"`
}

// Block is one block-kit layout block.
type Block struct {
	Type string `json:"type"`
	Text *Text  `json:"text,omitempty"`
}

// Text is a block-kit text object.
type Text struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

// NewReportMessage renders r as five markdown sections: the title, the
// reviewer heading and table, the pull request heading and table.
func NewReportMessage(r report.Report) Message {
	title := fmt.Sprintf("*Review stats for last %s*\nTotal %d PRs merged", r.TimeDiff, r.TotalMerged)
	if r.Repository != "" {
		title = fmt.Sprintf("*Review stats for %s for last %s*\nTotal %d PRs merged", r.Repository, r.TimeDiff, r.TotalMerged)
	}

	// Clients that cannot render blocks show only the headline.
	headline, _, _ := strings.Cut(title, "\n")

	return Message{
		Text: headline,
		Blocks: []Block{
			section(title),
			section("Reviewer stats"),
			section(fenced(r.ReviewerTable)),
			section("PR stats"),
			section(fenced(r.PullRequestTable)),
		},
	}
}

func section(text string) Block {
	return Block{
		Type: blockSection,
		Text: &Text{Type: textMarkdown, Text: text},
	}
}

func fenced(table string) string {
	return "```\n" + table + "\n```"
}
