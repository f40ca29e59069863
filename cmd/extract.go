package cmd

import (
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/spf13/cobra"

	"pdfquery/internal/config"
	"pdfquery/internal/pdftext"
	"pdfquery/internal/service/assistant"
)

var extractCmd = &cobra.Command{
	Use:   "extract <file.pdf>",
	Short: "Print the text the server would extract from a PDF",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path := args[0]
		if !assistant.AllowedFile(path) {
			return errors.New(assistant.MsgInvalidFileType)
		}
		extractor, err := pdftext.NewExtractor(cmd.Context(), config.MaxContentLength)
		if err != nil {
			return err
		}
		text, err := extractor.Extract(cmd.Context(), path)
		if err != nil {
			if errors.Is(err, pdftext.ErrSizeExceeded) {
				return errors.New(assistant.MsgFileTooLarge)
			}
			return err
		}
		if strings.TrimSpace(text) == "" {
			return errors.New(assistant.MsgNoReadableText)
		}
		if n := utf8.RuneCountInString(text); n > config.MaxTextChars {
			return fmt.Errorf("%s (%d characters)", assistant.MsgContentTooLarge, n)
		}
		_, err = fmt.Fprint(cmd.OutOrStdout(), text)
		return err
	},
}
