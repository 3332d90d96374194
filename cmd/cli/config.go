package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

var (
	configCmd = &cobra.Command{
		Use:   "config",
		Short: "Inspect and patch the application configuration",
	}

	configShowCmd = &cobra.Command{
		Use:   "show",
		Short: "Show the current application configuration",
		RunE:  runConfigShow,
	}

	configAuditCmd = &cobra.Command{
		Use:   "audit",
		Short: "Show the application configuration audit trail",
		RunE:  runConfigAudit,
	}

	configRefreshCmd = &cobra.Command{
		Use:   "refresh-cache",
		Short: "Force the running bot to invalidate its configuration cache",
		RunE:  runConfigRefresh,
	}

	configSetCmd = &cobra.Command{
		Use:   "set",
		Short: "Patch the application configuration",
		RunE:  runConfigSet,
	}

	auditLimit           int
	setEnabledStrategies string
	setSymbols           string
	setCandlePeriods     string
	setMinConfidence     float64
	setMaxConfidence     float64
	setMaxPositions      int
	setPositionSizes     string
	setValidateOnly      bool
)

func init() {
	configAuditCmd.Flags().IntVar(&auditLimit, "limit", 50, "maximum audit records to return")

	configSetCmd.Flags().StringVar(&setEnabledStrategies, "enabled-strategies", "", "comma-separated strategy ids to enable")
	configSetCmd.Flags().StringVar(&setSymbols, "symbols", "", "comma-separated symbols")
	configSetCmd.Flags().StringVar(&setCandlePeriods, "candle-periods", "", "comma-separated timeframes")
	configSetCmd.Flags().Float64Var(&setMinConfidence, "min-confidence", -1, "minimum confidence (omit to leave unchanged)")
	configSetCmd.Flags().Float64Var(&setMaxConfidence, "max-confidence", -1, "maximum confidence (omit to leave unchanged)")
	configSetCmd.Flags().IntVar(&setMaxPositions, "max-positions", 0, "maximum concurrent positions (omit to leave unchanged)")
	configSetCmd.Flags().StringVar(&setPositionSizes, "position-sizes", "", "comma-separated decimal position sizes")
	configSetCmd.Flags().BoolVar(&setValidateOnly, "validate-only", false, "validate the patch without persisting it")

	configCmd.AddCommand(configShowCmd, configAuditCmd, configRefreshCmd, configSetCmd)
}

func runConfigShow(cmd *cobra.Command, args []string) error {
	data, err := adminGet("/api/v1/config/application")
	if err != nil {
		return err
	}
	return printJSON(data)
}

func runConfigAudit(cmd *cobra.Command, args []string) error {
	data, err := adminGet(fmt.Sprintf("/api/v1/config/application/audit?limit=%d", auditLimit))
	if err != nil {
		return err
	}
	return printJSON(data)
}

func runConfigRefresh(cmd *cobra.Command, args []string) error {
	data, err := adminPost("POST", "/api/v1/config/application/cache/refresh", nil)
	if err != nil {
		return err
	}
	return printJSON(data)
}

func runConfigSet(cmd *cobra.Command, args []string) error {
	if err := requireReason(); err != nil {
		return err
	}

	body := map[string]interface{}{
		"changed_by":    changedBy,
		"reason":        reason,
		"validate_only": setValidateOnly,
	}
	if setEnabledStrategies != "" {
		body["enabled_strategies"] = splitCSV(setEnabledStrategies)
	}
	if setSymbols != "" {
		body["symbols"] = splitCSV(setSymbols)
	}
	if setCandlePeriods != "" {
		body["candle_periods"] = splitCSV(setCandlePeriods)
	}
	if setMinConfidence >= 0 {
		body["min_confidence"] = setMinConfidence
	}
	if setMaxConfidence >= 0 {
		body["max_confidence"] = setMaxConfidence
	}
	if setMaxPositions > 0 {
		body["max_positions"] = setMaxPositions
	}
	if setPositionSizes != "" {
		body["position_sizes"] = splitCSV(setPositionSizes)
	}

	data, err := adminPost("POST", "/api/v1/config/application", body)
	if err != nil {
		return err
	}
	return printJSON(data)
}

func splitCSV(raw string) []string {
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}
