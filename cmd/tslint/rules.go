package main

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"tslint/internal/config"
	"tslint/internal/rule"
	"tslint/internal/rules"
)

var rulesCmd = &cobra.Command{
	Use:   "rules [name]",
	Short: "List builtin rules",
	Long:  "List builtin rules with their codes, default severity and whether they offer fixes. With a name, print the rule's messages.",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runRules,
}

func init() {
	rulesCmd.Flags().String("format", "pretty", "output format (pretty|json)")
}

type ruleInfo struct {
	Name        string            `json:"name"`
	Code        string            `json:"code"`
	Severity    string            `json:"severity"`
	Enabled     bool              `json:"enabled"`
	Recommended bool              `json:"recommended"`
	Fixable     bool              `json:"fixable"`
	Aggregates  bool              `json:"aggregates"`
	Description string            `json:"description"`
	URL         string            `json:"url,omitempty"`
	Messages    map[string]string `json:"messages,omitempty"`
}

func runRules(cmd *cobra.Command, args []string) error {
	format, err := cmd.Flags().GetString("format")
	if err != nil {
		return err
	}
	configPath, err := cmd.Root().PersistentFlags().GetString("config")
	if err != nil {
		return err
	}
	var cfg *config.Config
	if configPath != "" {
		cfg, err = config.Load(configPath)
	} else {
		cfg, err = config.Discover(".")
	}
	if err != nil {
		return err
	}

	reg := rules.Registry()
	selected := reg.All()
	if len(args) == 1 {
		r, ok := reg.Lookup(args[0])
		if !ok {
			return fmt.Errorf("unknown rule %q (known: %s)", args[0], strings.Join(reg.Names(), ", "))
		}
		selected = []rule.Rule{r}
	}

	infos := make([]ruleInfo, 0, len(selected))
	for _, r := range selected {
		docs := r.Docs()
		info := ruleInfo{
			Name:        r.Name(),
			Code:        r.Code().ID(),
			Severity:    strings.ToLower(cfg.RuleSeverity(r.Name(), r.DefaultSeverity()).String()),
			Enabled:     cfg.RuleEnabled(r.Name()),
			Recommended: docs.Recommended,
			Fixable:     docs.Fixable,
			Aggregates:  r.HasAggregate(),
			Description: docs.Description,
			URL:         docs.URL,
		}
		if len(args) == 1 {
			info.Messages = r.Messages()
		}
		infos = append(infos, info)
	}

	switch format {
	case "json":
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(infos)
	case "pretty":
		renderRules(cmd.OutOrStdout(), infos)
		return nil
	default:
		return fmt.Errorf("unsupported format %q (must be pretty or json)", format)
	}
}

func renderRules(w io.Writer, infos []ruleInfo) {
	t := table.New().
		Border(lipgloss.NormalBorder()).
		Headers("RULE", "CODE", "SEVERITY", "FIX", "DESCRIPTION")
	for _, info := range infos {
		severity := info.Severity
		if !info.Enabled {
			severity = "off"
		}
		fixable := ""
		if info.Fixable {
			fixable = "yes"
		}
		t.Row(info.Name, info.Code, severity, fixable, info.Description)
	}
	fmt.Fprintln(w, t.String())

	// подробности одного правила
	if len(infos) == 1 && len(infos[0].Messages) > 0 {
		info := infos[0]
		if info.URL != "" {
			fmt.Fprintf(w, "docs: %s\n", info.URL)
		}
		fmt.Fprintln(w, "messages:")
		for _, id := range sortedKeys(info.Messages) {
			fmt.Fprintf(w, "  %-24s %s\n", id, info.Messages[id])
		}
	}
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
