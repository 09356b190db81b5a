package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/wcpay/narration-service/internal/app"
	"github.com/wcpay/narration-service/internal/dispute"
	"github.com/wcpay/narration-service/internal/domain"
	"github.com/wcpay/narration-service/internal/locale"
	"github.com/wcpay/narration-service/internal/paymentmethod"
)

type renderOptions struct {
	timezone string
	now      int64
	text     bool
}

func (o *renderOptions) service(storeCurrency string) (*app.Service, error) {
	loc, err := time.LoadLocation(o.timezone)
	if err != nil {
		return nil, fmt.Errorf("invalid timezone %q: %w", o.timezone, err)
	}
	cfg := locale.Config{Location: loc}
	if o.now > 0 {
		fixed := time.Unix(o.now, 0)
		cfg.Now = func() time.Time { return fixed }
	}
	return app.NewService(nil, nil, nil, locale.New(cfg), storeCurrency, nil), nil
}

func timelineCmd(opts *renderOptions) *cobra.Command {
	var file, bank string
	cmd := &cobra.Command{
		Use:   "timeline",
		Short: "Render a JSON array of timeline events",
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := readInput(cmd, file)
			if err != nil {
				return err
			}
			events, err := domain.DecodeTimelineEvents(data)
			if err != nil {
				return err
			}
			svc, err := opts.service("")
			if err != nil {
				return err
			}

			items := svc.RenderTimeline(events, bank)
			if !opts.text {
				return writeJSON(cmd.OutOrStdout(), items)
			}
			out := cmd.OutOrStdout()
			for _, item := range items {
				fmt.Fprintf(out, "%s  %s\n", item.Date.Format(time.RFC3339), item.Headline)
				for _, line := range item.Body {
					fmt.Fprintf(out, "    %s\n", line)
				}
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&file, "file", "f", "-", "Path to the events JSON file (- for stdin)")
	cmd.Flags().StringVar(&bank, "bank", "", "Cardholder bank name used in dispute outcomes")
	return cmd
}

func disputeCmd(opts *renderOptions) *cobra.Command {
	var file, chargeFile, bank, view string
	cmd := &cobra.Command{
		Use:   "dispute",
		Short: "Compose the narrative for a JSON dispute record",
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := readInput(cmd, file)
			if err != nil {
				return err
			}
			d, err := domain.DecodeDispute(data)
			if err != nil {
				return err
			}

			in := dispute.Input{Dispute: d, BankName: bank, DetailsView: strings.EqualFold(view, "details")}
			if chargeFile != "" {
				raw, err := os.ReadFile(chargeFile)
				if err != nil {
					return fmt.Errorf("failed to read charge file: %w", err)
				}
				charge, err := domain.DecodeCharge(raw)
				if err != nil {
					return err
				}
				if charge.PaymentMethodDetails != nil {
					in.PaymentMethod = charge.PaymentMethodDetails.Type
				}
				if in.BankName == "" {
					in.BankName = paymentmethod.BankName(charge.PaymentMethodDetails)
				}
			}

			svc, err := opts.service("")
			if err != nil {
				return err
			}
			narrative := dispute.Compose(svc.Formatter(), in)
			if !opts.text {
				return writeJSON(cmd.OutOrStdout(), narrative)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%s: %s\n", narrative.Status, narrative.ReasonDisplay)
			if narrative.NoticeText != "" {
				fmt.Fprintln(out, narrative.NoticeText)
			}
			for i, step := range narrative.Steps {
				fmt.Fprintf(out, "%d. %s\n", i+1, step)
			}
			if narrative.DueBy != "" {
				fmt.Fprintf(out, "Respond by %s %s\n", narrative.DueBy, narrative.Countdown)
			}
			if narrative.FooterText != "" {
				fmt.Fprintln(out, narrative.FooterText)
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&file, "file", "f", "-", "Path to the dispute JSON file (- for stdin)")
	cmd.Flags().StringVar(&chargeFile, "charge", "", "Optional charge JSON file supplying the payment method")
	cmd.Flags().StringVar(&bank, "bank", "", "Cardholder bank name; overrides the charge's issuer")
	cmd.Flags().StringVar(&view, "view", "summary", "Narrative view: summary or details")
	return cmd
}

func feesCmd(opts *renderOptions) *cobra.Command {
	var file, storeCurrency string
	cmd := &cobra.Command{
		Use:   "fees",
		Short: "Render the fee breakdown of a captured timeline event",
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := readInput(cmd, file)
			if err != nil {
				return err
			}
			event, err := domain.DecodeTimelineEvent(data)
			if err != nil {
				return err
			}
			svc, err := opts.service(storeCurrency)
			if err != nil {
				return err
			}

			view := svc.RenderFees(event)
			if !opts.text {
				return writeJSON(cmd.OutOrStdout(), view)
			}
			out := cmd.OutOrStdout()
			fmt.Fprintln(out, view.Fee)
			for _, row := range view.Rows {
				fmt.Fprintln(out, "  "+row.Line())
			}
			if view.Tax != "" {
				fmt.Fprintln(out, view.Tax)
			}
			fmt.Fprintln(out, view.Net)
			return nil
		},
	}
	cmd.Flags().StringVarP(&file, "file", "f", "-", "Path to the event JSON file (- for stdin)")
	cmd.Flags().StringVar(&storeCurrency, "store-currency", "usd", "Currency fixed fees default to when the rates omit one")
	return cmd
}

func readInput(cmd *cobra.Command, path string) ([]byte, error) {
	if path == "" || path == "-" {
		return io.ReadAll(cmd.InOrStdin())
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	return data, nil
}

func writeJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
