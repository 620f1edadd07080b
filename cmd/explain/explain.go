// Copyright 2025 Raamsri Kumar <raam@tinkershack.in>
// Copyright 2025 The StrataSTOR Authors and Contributors
// SPDX-License-Identifier: Apache-2.0

// Package explain renders a sanitize record JSON file as a human-readable
// Markdown report, the Go counterpart of the original explain.py script.
package explain

import (
	"encoding/json"
	"fmt"
	"os"
	"text/template"
	"time"

	"github.com/spf13/cobra"
	"github.com/stratastor/rodent/pkg/sanitize/types"
)

// reportTemplate mirrors explain.py's markdown_text layout: a header with
// device/serial/result, then one section per step with its duration and
// commands, then the validation result.
const reportTemplate = `# Erasure Details

Device: {{.DeviceInfo.DevPath}}
Serial: {{.DeviceInfo.Serial}}
Result: {{if .Result}}success{{else}}failure{{end}}

## Steps

Total: {{len .Steps}}
{{range .Steps}}
### Step {{if .Step}}{{.Step}}{{end}}

Start: {{formatTime .StartTime}}
Finished: {{formatTime .EndTime}}
Total duration: {{.Duration}}s

#### Commands
{{range $i, $c := .Commands}}
 {{inc $i}}. Command ` + "`{{$c.Command}}`" + `
    Start time: {{formatTime $c.StartTime}}
    End time: {{formatTime $c.EndTime}}
    Return code: {{if $c.ReturnCode}}{{$c.ReturnCode}}{{end}}
    Status: {{if $c.Success}}success{{else}}not success{{end}}.
{{end}}
{{end}}
## Validation

Result: {{.Validation.Result}}
`

var funcs = template.FuncMap{
	"formatTime": func(epoch float64) string {
		return time.Unix(0, int64(epoch*float64(time.Second))).Format(time.RFC3339)
	},
	"inc": func(i int) int { return i + 1 },
}

func NewExplainCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "explain <record.json>",
		Short: "Render a sanitize record as a human-readable report",
		Args:  cobra.ExactArgs(1),
		RunE:  runExplain,
	}
	return cmd
}

func runExplain(cmd *cobra.Command, args []string) error {
	data, err := os.ReadFile(args[0])
	if err != nil {
		return fmt.Errorf("reading record: %w", err)
	}

	var record types.SanitizeRecord
	if err := json.Unmarshal(data, &record); err != nil {
		return fmt.Errorf("parsing record: %w", err)
	}

	tmpl, err := template.New("report").Funcs(funcs).Parse(reportTemplate)
	if err != nil {
		return fmt.Errorf("parsing report template: %w", err)
	}

	return tmpl.Execute(cmd.OutOrStdout(), record)
}
