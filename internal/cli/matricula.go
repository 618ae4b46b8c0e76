package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ic-ufrj/alumnic/internal/portal"
)

func newMatriculaCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "matricula DRE DATA HORA CODIGO",
		Short: "Verify an enrollment document against the university portal",
		Args:  cobra.ExactArgs(4),
		RunE: func(cmd *cobra.Command, args []string) error {
			result, err := app.Verifier.Verify(cmd.Context(), portal.Document{
				Enrollment:    args[0],
				IssueDate:     args[1],
				IssueTime:     args[2],
				SignatureCode: args[3],
			})
			if err != nil {
				return err
			}

			out := NewOutput(output)
			switch r := result.(type) {
			case portal.EnrolledStudent:
				out.Print(map[string]string{
					"verdict": "enrolled",
					"name":    r.Name,
				})
			case portal.OtherProgram:
				out.Print(map[string]string{
					"verdict": "other-program",
					"name":    r.Name,
					"program": r.Program,
				})
			case portal.Unrecognized:
				out.Print(map[string]string{"verdict": "unrecognized"})
			default:
				return fmt.Errorf("unexpected verification result %T", result)
			}
			return nil
		},
	}
}
