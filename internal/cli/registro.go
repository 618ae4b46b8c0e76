package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ic-ufrj/alumnic/internal/directory"
	"github.com/ic-ufrj/alumnic/internal/services/name"
)

func newRegistroCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "registro DRE NOME",
		Short: "Check whether an enrollment is already provisioned in the directory",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			n, err := name.Parse(args[1])
			if err != nil {
				return fmt.Errorf("parsing name: %w", err)
			}

			result, err := app.Directory.Lookup(cmd.Context(), args[0], n)
			if err != nil {
				return err
			}

			out := NewOutput(output)
			switch r := result.(type) {
			case directory.SlotAvailable:
				out.Print(map[string]string{
					"registered": "no",
					"username":   r.Username,
				})
			case directory.AlreadyRegistered:
				out.Print(map[string]string{
					"registered": "yes",
					"username":   r.Username,
				})
			default:
				return fmt.Errorf("unexpected lookup result %T", result)
			}
			return nil
		},
	}
}
