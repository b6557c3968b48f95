package cmd

import (
	"fmt"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"

	"github.com/teamdeck/teamdeck/internal/identity"
)

// signupCmd registers a new account. The --admin variant goes through
// the licensed admin signup endpoint instead.
var signupCmd = &cobra.Command{
	Use:   "signup",
	Short: "Register a new account",
	Long: `Register a new account with the identity service.

Regular accounts supply a role code issued by their organization.
Administrator accounts (--admin) supply a license key instead and are
created with the Admin role.

Examples:
  teamdeck signup --email user@example.com --name "Sam Doe" --role-code TEAM42
  teamdeck signup --admin --email boss@example.com --license-key KEY-123`,
	RunE: func(cmd *cobra.Command, args []string) error {
		admin, _ := cmd.Flags().GetBool("admin")

		fields := identity.SignUpFields{}
		fields.Email, _ = cmd.Flags().GetString("email")
		fields.Password, _ = cmd.Flags().GetString("password")
		fields.Name, _ = cmd.Flags().GetString("name")
		fields.RoleCode, _ = cmd.Flags().GetString("role-code")
		fields.LicenseKey, _ = cmd.Flags().GetString("license-key")

		if err := promptSignUp(&fields, admin); err != nil {
			return err
		}

		kind := identity.SignUpUser
		if admin {
			kind = identity.SignUpAdmin
			fields.Role = "Admin"
		}

		client, err := getIdentityClient()
		if err != nil {
			return err
		}
		message, err := client.SignUp(cmd.Context(), kind, fields)
		if err != nil {
			return err
		}

		fmt.Println(message)
		fmt.Println("Run 'teamdeck signin' to sign in.")
		return nil
	},
}

// promptSignUp collects whichever signup inputs are still empty.
func promptSignUp(fields *identity.SignUpFields, admin bool) error {
	var inputs []huh.Field
	if fields.Name == "" {
		inputs = append(inputs, huh.NewInput().Title("Name").Value(&fields.Name))
	}
	if fields.Email == "" {
		inputs = append(inputs, huh.NewInput().
			Title("Email").
			Placeholder("user@example.com").
			Value(&fields.Email))
	}
	if fields.Password == "" {
		inputs = append(inputs, huh.NewInput().
			Title("Password").
			EchoMode(huh.EchoModePassword).
			Value(&fields.Password))
	}
	if admin && fields.LicenseKey == "" {
		inputs = append(inputs, huh.NewInput().Title("License key").Value(&fields.LicenseKey))
	}
	if !admin && fields.RoleCode == "" {
		inputs = append(inputs, huh.NewInput().Title("Role code").Value(&fields.RoleCode))
	}

	if len(inputs) > 0 {
		form := huh.NewForm(huh.NewGroup(inputs...))
		if err := form.Run(); err != nil {
			return fmt.Errorf("prompt failed: %w", err)
		}
	}

	if fields.Email == "" {
		return fmt.Errorf("email is required")
	}
	if fields.Password == "" {
		return fmt.Errorf("password is required")
	}
	if admin && fields.LicenseKey == "" {
		return fmt.Errorf("license key is required for admin signup")
	}
	if !admin && fields.RoleCode == "" {
		return fmt.Errorf("role code is required")
	}
	return nil
}

func init() {
	signupCmd.Flags().String("email", "", "account email")
	signupCmd.Flags().String("password", "", "account password")
	signupCmd.Flags().String("name", "", "display name")
	signupCmd.Flags().String("role-code", "", "organization role code")
	signupCmd.Flags().Bool("admin", false, "register an administrator account")
	signupCmd.Flags().String("license-key", "", "license key (admin signup)")
	rootCmd.AddCommand(signupCmd)
}
