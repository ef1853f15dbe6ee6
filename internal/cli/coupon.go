package cli

import (
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"microsite-app/internal/domain/coupons"
	couponsvc "microsite-app/internal/services/coupons"

	"github.com/spf13/cobra"
)

func newCouponCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "coupon",
		Short: "Manage coupon codes",
	}
	cmd.AddCommand(newCouponCreateCmd(), newCouponListCmd())
	return cmd
}

func newCouponCreateCmd() *cobra.Command {
	var (
		value       int64
		description string
		scope       string
		expires     string
		maxUses     int
	)
	cmd := &cobra.Command{
		Use:   "create CODE",
		Short: "Create a coupon",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			in := couponsvc.CreateInput{
				Code:        args[0],
				Value:       value,
				Description: description,
				Scope:       coupons.Scope(scope),
			}
			if expires != "" {
				at, err := time.Parse("2006-01-02", expires)
				if err != nil {
					return fmt.Errorf("--expires must be YYYY-MM-DD: %w", err)
				}
				in.ExpiresAt = &at
			}
			if cmd.Flags().Changed("max-uses") {
				in.MaxUses = &maxUses
			}

			_, db, err := setup()
			if err != nil {
				return err
			}
			c, err := couponsvc.NewValidator(db).Create(cmd.Context(), in)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "✅ Created coupon %s (%s, value %d)\n", c.Code, c.Scope, c.Value)
			return nil
		},
	}
	cmd.Flags().Int64Var(&value, "value", 0, "discount value in minor currency units")
	cmd.Flags().StringVar(&description, "description", "", "free-text description")
	cmd.Flags().StringVar(&scope, "scope", string(coupons.ScopeSubscription), "addon, subscription or any")
	cmd.Flags().StringVar(&expires, "expires", "", "expiry date (YYYY-MM-DD, UTC)")
	cmd.Flags().IntVar(&maxUses, "max-uses", 0, "maximum redemptions (unlimited when omitted)")
	return cmd
}

func newCouponListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List coupons",
		RunE: func(cmd *cobra.Command, args []string) error {
			_, db, err := setup()
			if err != nil {
				return err
			}
			list, err := couponsvc.NewValidator(db).List(cmd.Context())
			if err != nil {
				return err
			}
			printCoupons(cmd.OutOrStdout(), list)
			return nil
		},
	}
}

func printCoupons(out io.Writer, list []coupons.Coupon) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "CODE\tSCOPE\tVALUE\tUSED\tMAX\tEXPIRES")
	for _, c := range list {
		limit := "-"
		if c.MaxUses != nil {
			limit = fmt.Sprint(*c.MaxUses)
		}
		expires := "-"
		if c.ExpiresAt != nil {
			expires = c.ExpiresAt.Format("2006-01-02")
		}
		scope := string(c.Scope)
		if scope == "" {
			scope = "(legacy)"
		}
		fmt.Fprintf(w, "%s\t%s\t%d\t%d\t%s\t%s\n", c.Code, scope, c.Value, c.UsedCount, limit, expires)
	}
	w.Flush()
}
