package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/cyberelites/formmailer/internal/qr"
)

var (
	qrText string
	qrOut  string
	qrSize int
)

var qrcodeCmd = &cobra.Command{
	Use:   "qrcode",
	Short: "Generate a PNG QR code for a form link",
	RunE:  runQRCode,
}

func init() {
	qrcodeCmd.Flags().StringVar(&qrText, "text", "", "text or URL to encode")
	qrcodeCmd.Flags().StringVar(&qrOut, "out", "qrcode.png", "output PNG file")
	qrcodeCmd.Flags().IntVar(&qrSize, "size", qr.DefaultSize, "image size in pixels")
	qrcodeCmd.MarkFlagRequired("text")
}

func runQRCode(cmd *cobra.Command, args []string) error {
	if err := qr.WriteFile(qrText, qrOut, qrSize); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "QR code saved to %s\n", qrOut)
	return nil
}
