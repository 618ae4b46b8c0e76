package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/ic-ufrj/alumnic/internal/model"
	"github.com/ic-ufrj/alumnic/internal/services/registration"
)

func newNovoAlunoCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "novo-aluno USERNAME DRE NOME EMAIL TELEFONE",
		Short: "Provision an account directly, skipping document verification",
		Long: `Provision a student account under a chosen username without
consulting the verification portal. For operators handling the cases the
self-service flow cannot: transfers, name changes, students whose
documents the portal no longer serves.

The password is prompted for interactively and never taken from the
command line.`,
		Args: cobra.ExactArgs(5),
		RunE: func(cmd *cobra.Command, args []string) error {
			password, err := promptPassword()
			if err != nil {
				return err
			}
			defer password.Zero()

			in := registration.Input{
				Enrollment: args[1],
				FullName:   args[2],
				Email:      args[3],
				Phone:      args[4],
				Password:   *password,
			}

			if err := app.Registration.ProvisionPreverified(cmd.Context(), args[0], in); err != nil {
				return err
			}

			NewOutput(output).PrintMessage("account created: " + args[0])
			return nil
		},
	}
}

// promptPassword reads the password twice from the terminal, echoing
// nothing.
func promptPassword() (*model.Secret, error) {
	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) {
		return nil, fmt.Errorf("password prompt needs a terminal")
	}

	fmt.Fprint(os.Stderr, "Senha: ")
	first, err := term.ReadPassword(fd)
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return nil, fmt.Errorf("reading password: %w", err)
	}

	fmt.Fprint(os.Stderr, "Confirmar senha: ")
	second, err := term.ReadPassword(fd)
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return nil, fmt.Errorf("reading password: %w", err)
	}

	if string(first) != string(second) {
		return nil, fmt.Errorf("senhas diferentes")
	}
	for i := range second {
		second[i] = 0
	}

	secret := model.NewSecret(string(first))
	for i := range first {
		first[i] = 0
	}
	return &secret, nil
}
