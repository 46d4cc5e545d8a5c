package cliapp

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/hoyack/gemsieve/internal/domain"
)

// domainOf extracts the lowercased domain half of an email address. It
// does not reduce the host to its organizational root the way the
// metadata stage does for sender_domain.
func domainOf(email string) string {
	_, d, ok := strings.Cut(email, "@")
	if !ok {
		return email
	}
	return strings.ToLower(d)
}

var (
	overrideSender  string
	overrideMessage string
	overrideField   string
	overrideValue   string
)

var overrideCmd = &cobra.Command{
	Use:   "override",
	Short: "Record a manual correction to a classifier field",
	RunE:  runOverrideCmd,
}

func init() {
	overrideCmd.Flags().StringVar(&overrideSender, "sender", "", "sender domain (sender-scoped override)")
	overrideCmd.Flags().StringVar(&overrideMessage, "message", "", "message id (message-scoped override)")
	overrideCmd.Flags().StringVar(&overrideField, "field", "", "classifier field name being corrected")
	overrideCmd.Flags().StringVar(&overrideValue, "value", "", "corrected value")
	overrideCmd.MarkFlagRequired("field")
	overrideCmd.MarkFlagRequired("value")
}

func runOverrideCmd(cmd *cobra.Command, args []string) error {
	if overrideSender == "" && overrideMessage == "" {
		return fmt.Errorf("[cli] override: one of --sender or --message is required")
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	st, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer st.Close()
	ctx := rootContext()

	o := domain.ClassificationOverride{
		FieldName:      overrideField,
		CorrectedValue: overrideValue,
	}
	if overrideMessage != "" {
		o.Scope = domain.ScopeMessage
		o.MessageID = overrideMessage
		msg, err := st.GetMessage(ctx, overrideMessage)
		if err != nil {
			return fmt.Errorf("[cli] override: load message: %w", err)
		}
		o.SenderDomain = domainOf(msg.From.Email)
	} else {
		o.Scope = domain.ScopeSender
		o.SenderDomain = overrideSender
	}

	if err := st.InsertOverride(ctx, o); err != nil {
		return fmt.Errorf("[cli] override: %w", err)
	}
	fmt.Printf("override recorded: %s.%s = %q\n", o.SenderDomain, o.FieldName, o.CorrectedValue)
	return nil
}

var (
	overridesListFlag  bool
	overridesStatsFlag bool
)

var overridesCmd = &cobra.Command{
	Use:   "overrides",
	Short: "List recorded overrides, or summarize which fields get corrected most",
	RunE:  runOverridesCmd,
}

func init() {
	overridesCmd.Flags().BoolVar(&overridesListFlag, "list", false, "list the most recent overrides (default view)")
	overridesCmd.Flags().BoolVar(&overridesStatsFlag, "stats", false, "count overrides per field name")
}

func runOverridesCmd(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	st, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer st.Close()

	overrides, err := st.RecentOverrides(rootContext(), 500)
	if err != nil {
		return fmt.Errorf("[cli] overrides: %w", err)
	}

	if overridesStatsFlag {
		counts := map[string]int{}
		for _, o := range overrides {
			counts[o.FieldName]++
		}
		fields := make([]string, 0, len(counts))
		for f := range counts {
			fields = append(fields, f)
		}
		sort.Strings(fields)
		for _, f := range fields {
			fmt.Printf("%-28s %d\n", f, counts[f])
		}
		return nil
	}

	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{"ID", "Scope", "Sender/Message", "Field", "Original", "Corrected"})
	for _, o := range overrides {
		target := o.SenderDomain
		if o.Scope == domain.ScopeMessage {
			target = o.MessageID
		}
		table.Append([]string{
			fmt.Sprintf("%d", o.ID), string(o.Scope), target, o.FieldName, o.OriginalValue, o.CorrectedValue,
		})
	}
	table.Render()
	return nil
}
