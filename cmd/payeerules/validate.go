package main

import (
	"encoding/json"
	"errors"

	"payeerules/internal/core/patterns"
	rdom "payeerules/internal/services/rules/domain"

	"github.com/spf13/cobra"
)

var errRejected = errors.New("pattern rejected")

func validateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validate <pattern>",
		Short: "Check a regex pattern without touching the store",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			res := patterns.Validate(args[0])
			out := rdom.ValidateResult{OK: res.Valid(), Kind: res.Kind.String(), Feature: string(res.Feature), Message: res.Message}
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			if err := enc.Encode(out); err != nil {
				return err
			}
			if !out.OK {
				return errRejected
			}
			return nil
		},
	}
}
