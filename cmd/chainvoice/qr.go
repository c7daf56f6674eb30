package main

import (
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/mdp/qrterminal/v3"
	"github.com/spf13/cobra"

	chainvoice "github.com/chainvoice/chainvoice-go"
	"github.com/chainvoice/chainvoice-go/payuri"
	"github.com/chainvoice/chainvoice-go/qr"
)

var (
	qrRecipient string
	qrAmount    string
	qrChain     string
	qrInvoiceID uint64
	qrFormat    string
	qrOutput    string
	qrSize      int
	qrLevel     string
)

func init() {
	qrCmd := &cobra.Command{
		Use:   "qr",
		Short: "Render a payment QR code",
		Long: `Build a payment URI for the given recipient and amount and render it as a
QR code, either in the terminal or as a PNG file.`,
		RunE: runQR,
	}
	qrCmd.Flags().StringVar(&qrRecipient, "recipient", "", "recipient address (required)")
	qrCmd.Flags().StringVar(&qrAmount, "amount", "", "decimal token amount (required)")
	qrCmd.Flags().StringVar(&qrChain, "network", "sepolia", "network name or chain id")
	qrCmd.Flags().Uint64Var(&qrInvoiceID, "invoice", 0, "invoice id to embed")
	qrCmd.Flags().StringVar(&qrFormat, "format", "", "payment format (token-transfer, mobile-deeplink, json, generic); empty tries each in order")
	qrCmd.Flags().StringVarP(&qrOutput, "out", "o", "", "write a PNG to this path instead of rendering in the terminal")
	qrCmd.Flags().IntVar(&qrSize, "size", qr.DefaultSize, "PNG size in pixels")
	qrCmd.Flags().StringVar(&qrLevel, "level", "M", "error-correction level (L, M, Q, H)")
	_ = qrCmd.MarkFlagRequired("recipient")
	_ = qrCmd.MarkFlagRequired("amount")
	rootCmd.AddCommand(qrCmd)
}

func runQR(cmd *cobra.Command, args []string) error {
	network, ok := chainvoice.LookupByName(qrChain)
	if !ok {
		return chainvoice.NewInvoiceError(chainvoice.ErrCodeUnsupportedNetwork,
			fmt.Sprintf("unknown network %q", qrChain), chainvoice.ErrUnsupportedNetwork)
	}

	req := payuri.Request{
		InvoiceID: qrInvoiceID,
		Amount:    qrAmount,
		Recipient: qrRecipient,
		Network:   network,
	}

	var result *payuri.Result
	if qrFormat != "" {
		content, err := req.Build(payuri.Format(qrFormat))
		if err != nil {
			return err
		}
		result = &payuri.Result{Format: payuri.Format(qrFormat), Content: content}
	} else {
		var err error
		result, err = req.BuildPreferred()
		if err != nil {
			return err
		}
	}

	if qrOutput != "" {
		png, err := qr.EncodePNG(result.Content, qr.Options{Size: qrSize, Level: qr.Level(qrLevel)})
		if err != nil {
			return err
		}
		if err := os.WriteFile(qrOutput, png, 0o644); err != nil {
			return fmt.Errorf("failed to write PNG: %w", err)
		}
		color.New(color.FgGreen).Fprintf(os.Stdout, "wrote %s (%s)\n", qrOutput, result.Format)
		return nil
	}

	fmt.Printf("%s %s\n\n", color.New(color.Bold).Sprint("format:"), result.Format)
	qrterminal.Generate(result.Content, qrterminal.M, os.Stdout)
	fmt.Printf("\n%s\n", result.Content)
	return nil
}
