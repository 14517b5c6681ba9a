package main

import (
	"errors"
	"fmt"
	"io"
	"os"

	perr "payeerules/internal/platform/errors"
	"payeerules/internal/platform/logger"
	rdom "payeerules/internal/services/rules/domain"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

// ruleFile is the import document
//
//	rules:
//	  - pattern: AMZN Mktp
//	    category: Shopping:Online
//	  - pattern: ^uber\s*(eats)?
//	    regex: true
//	    category: Food
type ruleFile struct {
	Rules []ruleEntry `yaml:"rules"`
}

type ruleEntry struct {
	Pattern  string `yaml:"pattern"`
	Regex    bool   `yaml:"regex"`
	Category string `yaml:"category"`
}

func parseRuleFile(r io.Reader) ([]rdom.CreateInput, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)

	var f ruleFile
	if err := dec.Decode(&f); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, perr.InvalidArgf("rule file is empty")
		}
		return nil, perr.Wrapf(err, perr.ErrorCodeInvalidArgument, "parse rule file")
	}
	out := make([]rdom.CreateInput, 0, len(f.Rules))
	for _, e := range f.Rules {
		out = append(out, rdom.CreateInput{Pattern: e.Pattern, IsRegex: e.Regex, Category: e.Category})
	}
	return out, nil
}

func importCmd() *cobra.Command {
	var tenant, file string
	cmd := &cobra.Command{
		Use:   "import",
		Short: "Create rules for a tenant from a YAML file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			f, err := os.Open(file)
			if err != nil {
				return err
			}
			defer f.Close()

			inputs, err := parseRuleFile(f)
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			svc, done, err := openRules(ctx)
			if err != nil {
				return err
			}
			defer done()

			log := logger.Named("import")
			failed := 0
			for i, in := range inputs {
				rule, err := svc.Create(ctx, tenant, in)
				if err != nil {
					failed++
					fmt.Fprintf(cmd.ErrOrStderr(), "rule %d (%q): %s\n", i+1, in.Pattern, describe(err))
					continue
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\t%s\n", rule.Key, rule.Pattern, rule.Category)
			}
			log.Info().Str("tenant_id", tenant).Int("created", len(inputs)-failed).Int("failed", failed).Msg("import done")
			if failed > 0 {
				return fmt.Errorf("%d of %d rules rejected", failed, len(inputs))
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&tenant, "tenant", "", "tenant id the rules belong to")
	cmd.Flags().StringVarP(&file, "file", "f", "", "YAML rule file")
	_ = cmd.MarkFlagRequired("tenant")
	_ = cmd.MarkFlagRequired("file")
	return cmd
}

// describe flattens field errors onto one line
func describe(err error) string {
	fields := perr.FieldsOf(err)
	if len(fields) == 0 {
		return err.Error()
	}
	s := ""
	for i, fe := range fields {
		if i > 0 {
			s += "; "
		}
		s += fe.Field + ": " + fe.Message
	}
	return s
}
