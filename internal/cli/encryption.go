package cli

import (
	"bytes"
	"errors"
	"fmt"
	"sort"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/dmitrijs2005/timekeeper/internal/common"
	"github.com/dmitrijs2005/timekeeper/internal/models"
	"github.com/dmitrijs2005/timekeeper/internal/services"
)

// ErrPasswordMismatch is returned when the confirmation differs.
var ErrPasswordMismatch = errors.New("passwords do not match")

func NewEncryptionCommand(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "encryption",
		Short: "Enable, disable or inspect encryption at rest",
	}
	cmd.AddCommand(newEncryptionEnableCommand(app))
	cmd.AddCommand(newEncryptionDisableCommand(app))
	cmd.AddCommand(newEncryptionStatusCommand(app))
	return cmd
}

func newEncryptionEnableCommand(app *App) *cobra.Command {
	return &cobra.Command{
		Use:         "enable",
		Short:       "Protect every record with a password",
		Args:        cobra.NoArgs,
		Annotations: map[string]string{skipUnlock: "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			if app.store.Mode() != services.ModePlaintext {
				return common.ErrAlreadyEncrypted
			}

			pw, err := getPassword(app.errOut, "New password: ")
			if err != nil {
				return err
			}
			defer common.WipeByteArray(pw)

			confirm, err := getPassword(app.errOut, "Repeat password: ")
			if err != nil {
				return err
			}
			defer common.WipeByteArray(confirm)

			if !bytes.Equal(pw, confirm) {
				return ErrPasswordMismatch
			}

			stop := app.startSpinner("Encrypting records...")
			report, err := app.store.EnableEncryption(cmd.Context(), pw)
			stop()
			if err != nil {
				return err
			}

			printSweep(app, report)
			if report.FailedCount() > 0 {
				app.warn("Some records are still stored as plain text")
			}
			app.success("Encryption enabled")
			app.hint("Keep the password safe; it cannot be recovered")
			return nil
		},
	}
}

func newEncryptionDisableCommand(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "disable",
		Short: "Decrypt every record and remove the password",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if app.store.Mode() == services.ModePlaintext {
				app.warn("Encryption is not enabled")
				return nil
			}

			stop := app.startSpinner("Decrypting records...")
			report, err := app.store.DisableEncryption(cmd.Context())
			stop()

			if errors.Is(err, common.ErrSweepIncomplete) {
				printSweep(app, report)
				printFailed(app, report)
				return err
			}
			if err != nil {
				return err
			}

			printSweep(app, report)
			app.success("Encryption disabled")
			return nil
		},
	}
}

func newEncryptionStatusCommand(app *App) *cobra.Command {
	return &cobra.Command{
		Use:         "status",
		Short:       "Show whether the store is encrypted",
		Args:        cobra.NoArgs,
		Annotations: map[string]string{skipUnlock: "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			switch app.store.Mode() {
			case services.ModePlaintext:
				fmt.Fprintln(app.out, "Encryption: "+color.YellowString("disabled"))
			default:
				fmt.Fprintln(app.out, "Encryption: "+color.GreenString("enabled"))
			}
			return nil
		},
	}
}

func printSweep(app *App, r services.SweepReport) {
	fmt.Fprintf(app.out, "Converted %d, skipped %d, failed %d record(s)\n",
		r.SucceededCount(), r.SkippedCount(), r.FailedCount())
}

func printFailed(app *App, r services.SweepReport) {
	cols := make([]models.Collection, 0, len(r.Collections))
	for c := range r.Collections {
		cols = append(cols, c)
	}
	sort.Slice(cols, func(i, j int) bool { return cols[i] < cols[j] })

	for _, c := range cols {
		for _, id := range r.Collections[c].Failed {
			fmt.Fprintf(app.out, "  %s %s #%d\n", color.RedString("✗"), c, id)
		}
	}
}
