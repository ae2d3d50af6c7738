package cmd

import (
	"encoding/json"
	"fmt"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"adaptplay/internal/bandwidth"
	"adaptplay/internal/device"
)

var flagTierJSON bool

var tierCmd = &cobra.Command{
	Use:   "tier",
	Short: "Show the detected device tier and bandwidth ceiling",
	Args:  cobra.NoArgs,
	RunE:  tierRun,
}

func init() {
	tierCmd.Flags().BoolVarP(&flagTierJSON, "json", "j", false, "Output as JSON")
}

type tierReport struct {
	Signals  device.Signals `json:"signals"`
	Reliable bool           `json:"reliable"`
	Forced   bool           `json:"forced"`
	Tier     device.Tier    `json:"tier"`
	Ceiling  string         `json:"bandwidth"`
}

func tierRun(cmd *cobra.Command, args []string) error {
	signals := device.Probe(cfg.ViewportWidth)
	tier, err := device.Resolve(cfg.ForceTier, signals)
	if err != nil {
		return err
	}

	r := tierReport{
		Signals:  signals,
		Reliable: signals.Reliable(),
		Forced:   cfg.ForceTier != "",
		Tier:     tier,
		Ceiling:  bandwidth.Estimate(tier).String(),
	}

	out := cmd.OutOrStdout()
	if flagTierJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(r)
	}

	label := lipgloss.NewStyle().Faint(true).Width(16)
	value := lipgloss.NewStyle().Bold(true)
	row := func(k, v string) {
		fmt.Fprintln(out, label.Render(k)+value.Render(v))
	}

	row("concurrency", fmt.Sprint(r.Signals.Concurrency))
	row("memory", fmt.Sprintf("%.1f GB", r.Signals.MemoryGB))
	row("viewport width", fmt.Sprint(r.Signals.ViewportWidth))
	row("reliable", fmt.Sprint(r.Reliable))
	if r.Forced {
		row("tier", r.Tier.String()+" (forced)")
	} else {
		row("tier", r.Tier.String())
	}
	row("bandwidth", r.Ceiling)
	return nil
}
