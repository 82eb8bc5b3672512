package cli

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/lashkaryadi/get-me-a-tutor/internal/domain"
)

func newCreditsCommand(rt *runtime) *cobra.Command {
	return &cobra.Command{
		Use:   "credits",
		Short: "Show the credit balance",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if _, err := rt.authorize(cmd.Context(), domain.Roles...); err != nil {
				return err
			}
			if rt.jsonOut {
				return writeJSON(out(cmd), map[string]int{"credits": rt.app.Ledger().Balance()})
			}
			fmt.Fprintf(out(cmd), "Credits: %d\n", rt.app.Ledger().Balance())
			return nil
		},
	}
}

func newBuyCommand(rt *runtime) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "buy",
		Short: "Buy credits",
	}

	plans := &cobra.Command{
		Use:         "plans",
		Short:       "List the credit plans on sale",
		Annotations: noApp(),
		Args:        cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if rt.jsonOut {
				return writeJSON(out(cmd), domain.Plans)
			}
			t := newTable(out(cmd), "credits", "price")
			for _, p := range domain.Plans {
				t.row(p.Credits, "₹"+strconv.Itoa(p.Price))
			}
			return t.flush()
		},
	}

	var credits int
	order := &cobra.Command{
		Use:   "order",
		Short: "Open a checkout order for a plan",
		Long: `Create a payment-gateway order for the plan granting --credits. Complete
the checkout in the browser, then let serve-callback (or buy complete) verify it.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			plan, err := domain.FindPlan(credits)
			if err != nil {
				return err
			}
			o, err := rt.app.Marketplace().CreateOrder(cmd.Context(), plan)
			if err != nil {
				return err
			}
			if rt.jsonOut {
				return writeJSON(out(cmd), o)
			}
			fmt.Fprintf(out(cmd), "Order %s: %d %s for %d credits\n", o.ID, o.Amount, orDash(o.Currency), plan.Credits)
			return nil
		},
	}
	order.Flags().IntVar(&credits, "credits", 0, "credits in the plan (10, 25 or 50)")
	_ = order.MarkFlagRequired("credits")

	var conf domain.PaymentConfirmation
	complete := &cobra.Command{
		Use:   "complete",
		Short: "Verify a finished checkout and refresh the balance",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			res, err := rt.app.Marketplace().CompletePurchase(cmd.Context(), conf)
			if err != nil {
				return err
			}
			return rt.printPurchase(cmd, res)
		},
	}
	complete.Flags().StringVar(&conf.OrderID, "order", "", "razorpay order id")
	complete.Flags().StringVar(&conf.PaymentID, "payment", "", "razorpay payment id")
	complete.Flags().StringVar(&conf.Signature, "signature", "", "razorpay signature")

	cmd.AddCommand(plans, order, complete)
	return cmd
}

func (rt *runtime) printPurchase(cmd *cobra.Command, res *domain.PurchaseResult) error {
	if rt.jsonOut {
		return writeJSON(out(cmd), res)
	}
	fmt.Fprintln(out(cmd), "Payment verified")
	if res.Warning != "" {
		fmt.Fprintf(out(cmd), "Warning: %s\n", res.Warning)
	}
	fmt.Fprintf(out(cmd), "Credits: %d\n", res.Balance)
	fmt.Fprintf(out(cmd), "Next: %s\n", res.Redirect)
	return nil
}

func newServeCallbackCommand(rt *runtime) *cobra.Command {
	var once bool
	cmd := &cobra.Command{
		Use:   "serve-callback",
		Short: "Listen for the checkout's payment callback",
		Long: `Run a local HTTP server that receives POST /payments/callback from the
hosted checkout, verifies the payment and refreshes the balance. Health probes
are served on /health/live and /health/ready, metrics on /metrics.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return rt.app.Serve(cmd.Context(), once)
		},
	}
	cmd.Flags().BoolVar(&once, "once", false, "exit after the first completed purchase")
	return cmd
}
