package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/and161185/covered/internal/app"
	"github.com/and161185/covered/internal/auth"
)

type userView struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	Name      string    `json:"name,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// reportAuth prints the signed-in user and any profile sync problem.
func (c *cli) reportAuth(res auth.Result) error {
	if !res.Success {
		return failure(res.Error, res.Err)
	}
	if res.SyncErr != nil {
		fmt.Fprintln(c.errOut, "warning: signed in, but the profile could not be synced:", res.SyncErr)
	}
	if res.User == nil {
		fmt.Fprintln(c.out, "ok")
		return nil
	}
	if res.Session == nil {
		fmt.Fprintf(c.out, "check %s for a confirmation link, then run: covered open-url <link>\n", res.User.Email)
		return nil
	}
	return c.printJSON(userView{
		ID:        res.User.ID,
		Email:     res.User.Email,
		Name:      res.User.UserMetadata.DisplayName,
		CreatedAt: res.User.CreatedAt,
	})
}

func (c *cli) signupCmd() *cobra.Command {
	var email, pass, name string
	cmd := &cobra.Command{
		Use:   "signup",
		Short: "Create an account and sign in",
		RunE: func(cmd *cobra.Command, _ []string) error {
			pw, err := c.password(pass, "Password: ")
			if err != nil {
				return err
			}
			return c.withApp(cmd.Context(), func(a *app.App) error {
				return c.reportAuth(a.Auth.SignUp(cmd.Context(), email, pw, name))
			})
		},
	}
	cmd.Flags().StringVarP(&email, "email", "e", "", "email address (required)")
	cmd.Flags().StringVarP(&pass, "password", "p", "", "password (prompted when omitted)")
	cmd.Flags().StringVarP(&name, "name", "n", "", "full name (required)")
	_ = cmd.MarkFlagRequired("email")
	_ = cmd.MarkFlagRequired("name")
	return cmd
}

func (c *cli) loginCmd() *cobra.Command {
	var email, pass string
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Sign in with email and password",
		RunE: func(cmd *cobra.Command, _ []string) error {
			pw, err := c.password(pass, "Password: ")
			if err != nil {
				return err
			}
			return c.withApp(cmd.Context(), func(a *app.App) error {
				return c.reportAuth(a.Auth.SignIn(cmd.Context(), email, pw))
			})
		},
	}
	cmd.Flags().StringVarP(&email, "email", "e", "", "email address (required)")
	cmd.Flags().StringVarP(&pass, "password", "p", "", "password (prompted when omitted)")
	_ = cmd.MarkFlagRequired("email")
	return cmd
}

func (c *cli) logoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Sign out and forget local data",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return c.withApp(cmd.Context(), func(a *app.App) error {
				res := a.Auth.SignOut(cmd.Context())
				if !res.Success {
					return failure(res.Error, res.Err)
				}
				fmt.Fprintln(c.out, "signed out")
				return nil
			})
		},
	}
}

func (c *cli) whoamiCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the signed-in user",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return c.withApp(cmd.Context(), func(a *app.App) error {
				res := a.Auth.CurrentUser(cmd.Context())
				if !res.Success {
					return failure(res.Error, res.Err)
				}
				if res.User == nil {
					return failure("not signed in", nil)
				}
				return c.printJSON(userView{
					ID:        res.User.ID,
					Email:     res.User.Email,
					Name:      res.User.UserMetadata.DisplayName,
					CreatedAt: res.User.CreatedAt,
				})
			})
		},
	}
}

func (c *cli) profileCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "profile",
		Short: "Sync and show the backend profile",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return c.withApp(cmd.Context(), func(a *app.App) error {
				if !a.Store.IsAuthenticated() {
					return failure("not signed in", nil)
				}
				if err := a.Auth.SyncProfile(cmd.Context()); err != nil {
					return err
				}
				return c.printJSON(a.Store.State().Profile)
			})
		},
	}
}

func (c *cli) openURLCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "open-url URL",
		Short: "Complete sign-in from an email confirmation link",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.withApp(cmd.Context(), func(a *app.App) error {
				return c.reportAuth(a.Auth.HandleDeepLink(cmd.Context(), args[0]))
			})
		},
	}
}
