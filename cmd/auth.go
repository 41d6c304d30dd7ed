/*
Copyright © 2026 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/fc-integration/inventory/internal/app"
	"github.com/fc-integration/inventory/internal/apperr"
	"github.com/fc-integration/inventory/types"
)

var (
	loginEmail    string
	loginPassword string
	loginCode     string
)

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Sign in and persist the session",
	Long: `Signs in with email and password. Missing values are prompted for.
When the account has two-factor authentication the emailed code is asked
for until it is accepted, unless --code is given.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp(cmd)
		if err != nil {
			return err
		}
		defer a.Close()
		ctx := cmd.Context()

		var p prompter
		if loginEmail == "" || loginPassword == "" || loginCode == "" {
			src, err := newPrompter()
			if err != nil {
				return err
			}
			defer src.Close()
			p = src
		}

		email := strings.TrimSpace(loginEmail)
		if email == "" {
			if email, err = p.Ask(ctx, "Email: "); err != nil {
				return err
			}
		}
		password := loginPassword
		if password == "" {
			if password, err = p.Secret(ctx, "Mot de passe: "); err != nil {
				return err
			}
		}

		result, err := a.Session.Login(ctx, email, password)
		if err != nil {
			return errors.New(describe(err))
		}
		if !result.TwoFactorRequired {
			printWelcome(cmd, result.Session)
			return nil
		}

		fmt.Fprintln(cmd.OutOrStdout(), result.Message)
		if loginCode != "" {
			return verifyCode(cmd, a, email, loginCode)
		}
		return promptTwoFactor(ctx, cmd, a, p, email)
	},
}

var verifyEmail string

var verifyCmd = &cobra.Command{
	Use:   "verify CODE",
	Short: "Complete a two-factor login with the emailed code",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if strings.TrimSpace(verifyEmail) == "" {
			return &apperr.ValidationError{Field: "email", Message: "--email is required"}
		}
		a, err := openApp(cmd)
		if err != nil {
			return err
		}
		defer a.Close()
		return verifyCode(cmd, a, verifyEmail, args[0])
	},
}

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Sign out and forget the stored session",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp(cmd)
		if err != nil {
			return err
		}
		defer a.Close()
		if err := a.Session.Logout(cmd.Context()); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), "Déconnexion réussie")
		return nil
	},
}

var whoamiCmd = &cobra.Command{
	Use:   "whoami",
	Short: "Show the logged in user",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openSession(cmd)
		if err != nil {
			return err
		}
		defer a.Close()
		sess, _ := a.Session.Current()
		u := sess.User
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "%s <%s>\n", u.Name, u.Email)
		fmt.Fprintf(out, "id:   %s\n", u.ID)
		fmt.Fprintf(out, "role: %s\n", u.Role)
		if u.EmailVerified != nil {
			fmt.Fprintf(out, "email verified: %s\n", u.EmailVerified.Format("2006-01-02"))
		}
		return nil
	},
}

func verifyCode(cmd *cobra.Command, a *app.App, email, code string) error {
	sess, err := a.Session.VerifyTwoFactor(cmd.Context(), email, strings.TrimSpace(code))
	if err != nil {
		return errors.New(describe(err))
	}
	printWelcome(cmd, sess)
	return nil
}

// promptTwoFactor keeps asking until a code is accepted or input ends.
func promptTwoFactor(ctx context.Context, cmd *cobra.Command, a *app.App, p prompter, email string) error {
	for {
		code, err := p.Ask(ctx, "Code: ")
		if err != nil {
			return err
		}
		if code == "" {
			continue
		}
		sess, err := a.Session.VerifyTwoFactor(ctx, email, code)
		if err == nil {
			printWelcome(cmd, sess)
			return nil
		}
		var authErr *apperr.AuthError
		if !errors.As(err, &authErr) {
			return errors.New(describe(err))
		}
		fmt.Fprintln(cmd.ErrOrStderr(), authErr.Message)
	}
}

func printWelcome(cmd *cobra.Command, sess types.Session) {
	fmt.Fprintf(cmd.OutOrStdout(), "Connecté en tant que %s (%s)\n", sess.User.Name, sess.User.Role)
}

func init() {
	rootCmd.AddCommand(loginCmd, verifyCmd, logoutCmd, whoamiCmd)

	loginCmd.Flags().StringVarP(&loginEmail, "email", "e", "", "account email")
	loginCmd.Flags().StringVarP(&loginPassword, "password", "p", "", "account password")
	loginCmd.Flags().StringVar(&loginCode, "code", "", "two-factor code, if already received")

	verifyCmd.Flags().StringVarP(&verifyEmail, "email", "e", "", "email used to log in")
}
