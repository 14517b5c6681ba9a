package main

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	rdom "payeerules/internal/services/rules/domain"

	"github.com/spf13/cobra"
)

// readPayees returns one transaction per non-empty line
func readPayees(r io.Reader) ([]rdom.Transaction, error) {
	var out []rdom.Transaction
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for sc.Scan() {
		line := strings.TrimRight(sc.Text(), "\r")
		if strings.TrimSpace(line) == "" {
			continue
		}
		out = append(out, rdom.Transaction{Payee: line})
	}
	return out, sc.Err()
}

func applyCmd() *cobra.Command {
	var tenant, file string
	var dryRun bool
	cmd := &cobra.Command{
		Use:   "apply",
		Short: "Categorize payees, one per line, and record rule usage",
		Long: `Categorize payees read from --file (or stdin with "-").
Prints payee<TAB>category, "-" when no rule matched.
--dry-run previews the winning rule without recording usage.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			var in io.Reader = cmd.InOrStdin()
			if file != "-" {
				f, err := os.Open(file)
				if err != nil {
					return err
				}
				defer f.Close()
				in = f
			}
			txs, err := readPayees(in)
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			svc, done, err := openRules(ctx)
			if err != nil {
				return err
			}
			defer done()

			w := cmd.OutOrStdout()
			if dryRun {
				matches, err := svc.Preview(ctx, tenant, txs)
				if err != nil {
					return err
				}
				for i, m := range matches {
					if !m.Matched {
						fmt.Fprintf(w, "%s\t-\n", txs[i].Payee)
						continue
					}
					fmt.Fprintf(w, "%s\t%s\t%s\n", txs[i].Payee, m.Category, m.RuleKey)
				}
				return nil
			}

			res, err := svc.Apply(ctx, tenant, txs)
			if err != nil {
				return err
			}
			for i, c := range res.Categories {
				cat := "-"
				if c != nil {
					cat = *c
				}
				fmt.Fprintf(w, "%s\t%s\n", txs[i].Payee, cat)
			}
			fmt.Fprintf(cmd.ErrOrStderr(), "batch %s: %d rules touched\n", res.BatchID, res.Touched)
			return nil
		},
	}
	cmd.Flags().StringVar(&tenant, "tenant", "", "tenant id whose rules apply")
	cmd.Flags().StringVarP(&file, "file", "f", "-", `payee file, "-" for stdin`)
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "preview matches without recording usage")
	_ = cmd.MarkFlagRequired("tenant")
	return cmd
}
