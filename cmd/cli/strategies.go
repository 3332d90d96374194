package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
)

var (
	strategiesCmd = &cobra.Command{
		Use:   "strategies",
		Short: "Inspect and patch per-strategy configuration",
	}

	strategiesListCmd = &cobra.Command{
		Use:   "list",
		Short: "List every known strategy id",
		RunE:  runStrategiesList,
	}

	strategiesConfigCmd = &cobra.Command{
		Use:   "config <strategy-id> [symbol]",
		Short: "Show a strategy's effective parameter bundle",
		Args:  cobra.RangeArgs(1, 2),
		RunE:  runStrategiesConfig,
	}

	strategiesSetCmd = &cobra.Command{
		Use:   "set <strategy-id> [symbol] <key>=<value> [<key>=<value>...]",
		Short: "Patch a strategy's global or per-symbol parameters",
		Args:  cobra.MinimumNArgs(2),
		RunE:  runStrategiesSet,
	}

	strategiesAuditCmd = &cobra.Command{
		Use:   "audit <strategy-id>",
		Short: "Show a strategy's audit trail",
		Args:  cobra.ExactArgs(1),
		RunE:  runStrategiesAudit,
	}
)

func init() {
	strategiesCmd.AddCommand(strategiesListCmd, strategiesConfigCmd, strategiesSetCmd, strategiesAuditCmd)
}

func runStrategiesList(cmd *cobra.Command, args []string) error {
	data, err := adminGet("/api/v1/strategies")
	if err != nil {
		return err
	}
	return printJSON(data)
}

func runStrategiesConfig(cmd *cobra.Command, args []string) error {
	path := fmt.Sprintf("/api/v1/strategies/%s/config", args[0])
	if len(args) == 2 {
		path = fmt.Sprintf("/api/v1/strategies/%s/config/%s", args[0], args[1])
	}
	data, err := adminGet(path)
	if err != nil {
		return err
	}
	return printJSON(data)
}

func runStrategiesSet(cmd *cobra.Command, args []string) error {
	if err := requireReason(); err != nil {
		return err
	}

	strategyID := args[0]
	rest := args[1:]

	symbol := ""
	if len(rest) > 0 && !looksLikeAssignment(rest[0]) {
		symbol = rest[0]
		rest = rest[1:]
	}
	if len(rest) == 0 {
		return fmt.Errorf("at least one key=value parameter assignment is required")
	}

	params, err := parseAssignments(rest)
	if err != nil {
		return err
	}

	path := fmt.Sprintf("/api/v1/strategies/%s/config", strategyID)
	if symbol != "" {
		path = fmt.Sprintf("/api/v1/strategies/%s/config/%s", strategyID, symbol)
	}

	body := map[string]interface{}{
		"params":     params,
		"changed_by": changedBy,
		"reason":     reason,
	}
	data, err := adminPost("POST", path, body)
	if err != nil {
		return err
	}
	return printJSON(data)
}

func runStrategiesAudit(cmd *cobra.Command, args []string) error {
	data, err := adminGet(fmt.Sprintf("/api/v1/strategies/%s/audit", args[0]))
	if err != nil {
		return err
	}
	return printJSON(data)
}

func looksLikeAssignment(s string) bool {
	for _, c := range s {
		if c == '=' {
			return true
		}
	}
	return false
}

func parseAssignments(pairs []string) (map[string]interface{}, error) {
	out := map[string]interface{}{}
	for _, pair := range pairs {
		idx := -1
		for i, c := range pair {
			if c == '=' {
				idx = i
				break
			}
		}
		if idx < 0 {
			return nil, fmt.Errorf("parameter %q must be in key=value form", pair)
		}
		key, raw := pair[:idx], pair[idx+1:]
		out[key] = parseScalar(raw)
	}
	return out, nil
}

// parseScalar guesses a JSON-ish type for a CLI-supplied value: bool, float,
// or string, in that order.
func parseScalar(raw string) interface{} {
	switch raw {
	case "true":
		return true
	case "false":
		return false
	}
	if f, err := strconv.ParseFloat(raw, 64); err == nil {
		return f
	}
	return raw
}
