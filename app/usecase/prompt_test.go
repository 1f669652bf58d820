package usecase

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"iacgen/internal/domain/entity"
)

func snippet(id, title, content string) entity.ScoredSnippet {
	return entity.ScoredSnippet{
		Snippet: &entity.Snippet{ID: id, Title: title, Content: content},
		Score:   0.5,
	}
}

func TestRender_InitialAttempt(t *testing.T) {
	pc := PromptContext{
		System:  entity.TerraformPrompt,
		Request: "Create an S3 bucket",
		Snippets: []entity.ScoredSnippet{
			snippet("001", "S3 bucket", `resource "aws_s3_bucket" "b" {}`),
		},
	}
	out := pc.Render()

	require.Contains(t, out, entity.TerraformPrompt.Text)
	require.Contains(t, out, "Create an S3 bucket")
	require.Contains(t, out, "# Reference: S3 bucket")
	require.NotContains(t, out, "failed validation")
}

func TestRender_RetryCarriesDiagnosticsAndPreviousCode(t *testing.T) {
	pc := PromptContext{
		System:       entity.TerraformPrompt,
		Request:      "Create an S3 bucket",
		PreviousCode: `resource "aws_s3_bucket" "b" {}`,
		Diagnostics: []entity.Diagnostic{
			{Severity: entity.SeverityError, Message: "missing bucket name", Location: "main.tf"},
			{Severity: entity.SeverityWarning, Message: "missing tags"},
		},
	}
	out := pc.Render()

	require.Contains(t, out, "missing bucket name")
	require.Contains(t, out, "missing tags")
	require.Contains(t, out, `resource "aws_s3_bucket" "b" {}`)
	require.Contains(t, out, "corrected configuration")
}

func TestRender_SnippetBudgetPrioritizesHighestScored(t *testing.T) {
	long := strings.Repeat("x", 80)
	pc := PromptContext{
		System:        entity.TerraformPrompt,
		Request:       "anything",
		SnippetBudget: 100,
		Snippets: []entity.ScoredSnippet{
			snippet("001", "first", long),
			snippet("002", "second", long),
			snippet("003", "third", long),
		},
	}
	out := pc.Render()

	require.Contains(t, out, "# Reference: first")
	require.Contains(t, out, "# Reference: second") // truncated to the last 20 chars of budget
	require.NotContains(t, out, "# Reference: third")
}

func TestRender_UntitledSnippetFallsBackToID(t *testing.T) {
	pc := PromptContext{
		System:   entity.TerraformPrompt,
		Request:  "anything",
		Snippets: []entity.ScoredSnippet{snippet("007", "", "resource \"aws_vpc\" \"v\" {}")},
	}
	require.Contains(t, pc.Render(), "# Reference: 007")
}

func TestExtractCode(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want string
	}{
		{
			name: "fenced with language tag",
			in:   "Here you go:\n```hcl\nresource \"aws_vpc\" \"v\" {}\n```\nEnjoy!",
			want: `resource "aws_vpc" "v" {}`,
		},
		{
			name: "fenced without tag",
			in:   "```\nresource \"aws_vpc\" \"v\" {}\n```",
			want: `resource "aws_vpc" "v" {}`,
		},
		{
			name: "bare text",
			in:   "  resource \"aws_vpc\" \"v\" {}  ",
			want: `resource "aws_vpc" "v" {}`,
		},
		{
			name: "iac_template tags",
			in:   "<iac_template>\nresource \"aws_vpc\" \"v\" {}\n</iac_template>",
			want: `resource "aws_vpc" "v" {}`,
		},
		{
			name: "empty",
			in:   "",
			want: "",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			require.Equal(t, tc.want, ExtractCode(tc.in))
		})
	}
}
