package main

import (
	"encoding/json"
	"fmt"
	"strings"
	"text/tabwriter"

	"toolchat/internal/agent"
	"toolchat/internal/domain"

	"github.com/spf13/cobra"
)

func toolsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tools",
		Short: "Inspect and run registered tools",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List tools in registration order",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			reg, _ := buildTools(cfg, logger)
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			for _, t := range reg.List() {
				fmt.Fprintf(w, "%s\t%s\n", t.Name, t.Description)
			}
			return w.Flush()
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "run <name> [key=value...]",
		Short: "Invoke one tool directly",
		Long: `Invoke one tool directly. Arguments are key=value pairs; a single argument
without '=' is mapped to the tool's default parameter like a bare directive.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			reg, parser := buildTools(cfg, logger)
			toolArgs := parseToolArgs(parser, args[0], args[1:])

			res := reg.Invoke(cmd.Context(), args[0], toolArgs)
			fmt.Fprintln(cmd.OutOrStdout(), res.Result)
			if res.Err != nil {
				return fmt.Errorf("%s failed (%s)", args[0], res.Err.Kind)
			}
			return nil
		},
	})

	return cmd
}

// parseToolArgs turns CLI words into tool arguments using the same
// decoding as an in-text directive.
func parseToolArgs(parser *agent.Parser, name string, words []string) map[string]string {
	if len(words) == 0 {
		return map[string]string{}
	}
	sep := " "
	for _, w := range words {
		if strings.Contains(w, "=") {
			sep = "|"
			break
		}
	}
	directive := "[TOOL:" + name + "]" + strings.Join(words, sep) + "[/TOOL]"
	calls := parser.Parse(directive)
	if len(calls) == 0 {
		return map[string]string{}
	}
	return calls[0].Args
}

func parseCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "parse <text>",
		Short: "Print the tool calls found in text as JSON",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			calls := agent.NewParser().Parse(strings.Join(args, " "))
			if calls == nil {
				calls = []domain.ToolCall{}
			}
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(calls)
		},
	}
}
