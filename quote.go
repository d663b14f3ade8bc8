package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"github.com/tournevent/correios/pkg/shipper/correios"
)

type quoteFlags struct {
	service       string
	origin        string
	destination   string
	weight        string
	height        string
	length        string
	width         string
	format        string
	declaredValue string
	handDelivery  bool
	receiptNotice bool
	verbose       bool
}

func newQuoteCmd() *cobra.Command {
	var f quoteFlags

	cmd := &cobra.Command{
		Use:   "quote",
		Short: "Look up a single Correios price and delivery time",
		Example: "  correios quote --service 41106 --origin 88101-000 --destination 88134-400 \\\n" +
			"    --weight 1 --height 5 --length 20 --width 15",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runQuote(cmd, f)
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&f.service, "service", correios.ServicePAC.String(), "service code (40010, 40045, 40215, 40290, 41106)")
	flags.StringVar(&f.origin, "origin", "", "origin CEP")
	flags.StringVar(&f.destination, "destination", "", "destination CEP")
	flags.StringVar(&f.weight, "weight", "", "weight in kilograms")
	flags.StringVar(&f.height, "height", "", "height in centimetres")
	flags.StringVar(&f.length, "length", "", "length in centimetres")
	flags.StringVar(&f.width, "width", "", "width in centimetres")
	flags.StringVar(&f.format, "format", "caixa", "package format (caixa, rolo, envelope)")
	flags.StringVar(&f.declaredValue, "declared-value", "0", "declared value in BRL")
	flags.BoolVar(&f.handDelivery, "hand-delivery", false, "request hand delivery")
	flags.BoolVar(&f.receiptNotice, "receipt-notice", false, "request a receipt notice")
	flags.BoolVarP(&f.verbose, "verbose", "v", false, "log at LOG_LEVEL instead of errors only")
	_ = cmd.MarkFlagRequired("origin")
	_ = cmd.MarkFlagRequired("destination")
	_ = cmd.MarkFlagRequired("weight")

	return cmd
}

func runQuote(cmd *cobra.Command, f quoteFlags) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if !f.verbose {
		cfg.LogLevel = "error"
	}
	logger, err := initLogger(cfg)
	if err != nil {
		return err
	}
	defer logger.Sync()

	req := correios.NewQuoteRequest().
		SetServiceCode(f.service).
		SetOriginPostalCode(f.origin).
		SetDestinationPostalCode(f.destination).
		SetWeight(f.weight).
		SetHeight(f.height).
		SetLength(f.length).
		SetWidth(f.width).
		SetPackageFormat(f.format).
		SetDeclaredValue(f.declaredValue).
		SetHandDelivery(f.handDelivery).
		SetReceiptNotice(f.receiptNotice)
	if err := req.Err(); err != nil {
		return err
	}

	res, err := newCorreiosClient(cfg, logger).Quote(cmd.Context(), req)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	service, _ := req.ServiceCode()
	if res.HasProviderError() {
		fmt.Fprintf(out, "%s: Correios error %s: %s\n", service.Name(), res.ProviderErrorCode, res.ProviderErrorMessage)
		if res.Price.IsZero() {
			return nil
		}
	}

	estimated := time.Now().AddDate(0, 0, res.DeliveryDays)
	fmt.Fprintf(out, "Service:            %s (%s)\n", service.Name(), res.ServiceCode)
	fmt.Fprintf(out, "Price:              R$ %s\n", res.Price.StringFixed(2))
	fmt.Fprintf(out, "Delivery days:      %d\n", res.DeliveryDays)
	fmt.Fprintf(out, "Estimated delivery: %s\n", estimated.Format("02/01/2006"))
	fmt.Fprintf(out, "Home delivery:      %t\n", res.HomeDelivery)
	fmt.Fprintf(out, "Saturday delivery:  %t\n", res.SaturdayDelivery)
	return nil
}
