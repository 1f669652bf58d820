package validator

import (
	"fmt"
	"strings"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/hclparse"

	"iacgen/internal/domain/entity"
)

var topLevelSchema = &hcl.BodySchema{
	Blocks: []hcl.BlockHeaderSchema{
		{Type: "terraform"},
		{Type: "provider", LabelNames: []string{"name"}},
		{Type: "resource", LabelNames: []string{"type", "name"}},
		{Type: "data", LabelNames: []string{"type", "name"}},
		{Type: "variable", LabelNames: []string{"name"}},
		{Type: "output", LabelNames: []string{"name"}},
		{Type: "module", LabelNames: []string{"name"}},
		{Type: "locals"},
	},
}

// CheckStructure runs the cheap structural checks on a candidate config
// without invoking any external tool: the candidate must be non-empty, must
// parse as HCL (which covers balanced braces), and must declare at least
// one resource block. Returned diagnostics are empty when all checks pass.
func CheckStructure(candidateCode string) []entity.Diagnostic {
	if strings.TrimSpace(candidateCode) == "" {
		return []entity.Diagnostic{{
			Severity: entity.SeverityError,
			Message:  "structural check failed: generated configuration is empty",
		}}
	}

	parser := hclparse.NewParser()
	file, parseDiags := parser.ParseHCL([]byte(candidateCode), "main.tf")
	if parseDiags.HasErrors() {
		return fromHCL(parseDiags)
	}

	var diags []entity.Diagnostic
	content, _, contentDiags := file.Body.PartialContent(topLevelSchema)
	diags = append(diags, fromHCL(contentDiags)...)

	if len(content.Blocks.OfType("resource")) == 0 {
		diags = append(diags, entity.Diagnostic{
			Severity: entity.SeverityError,
			Message:  "structural check failed: configuration declares no resource blocks",
		})
	}

	return diags
}

func fromHCL(hclDiags hcl.Diagnostics) []entity.Diagnostic {
	var diags []entity.Diagnostic
	for _, d := range hclDiags {
		diag := entity.Diagnostic{
			Severity: entity.SeverityWarning,
			Message:  d.Summary,
		}
		if d.Severity == hcl.DiagError {
			diag.Severity = entity.SeverityError
		}
		if d.Detail != "" {
			diag.Message = fmt.Sprintf("%s: %s", d.Summary, d.Detail)
		}
		if d.Subject != nil {
			diag.Location = d.Subject.Filename
			diag.Line = d.Subject.Start.Line
			diag.Column = d.Subject.Start.Column
		}
		diags = append(diags, diag)
	}
	return diags
}

func hasErrors(diags []entity.Diagnostic) bool {
	for _, d := range diags {
		if d.Severity == entity.SeverityError {
			return true
		}
	}
	return false
}
