package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/angelmondragon/saree-storefront/pkg/shopper"
	"github.com/angelmondragon/saree-storefront/pkg/shopper/session"
	"github.com/angelmondragon/saree-storefront/pkg/types"
)

type credentialOptions struct {
	*RootOptions
	Email    string
	Password string
	Name     string
	Phone    string
}

// readPassword falls back to the first line of stdin when --password is empty.
func readPassword(in io.Reader, flag string) (string, error) {
	if flag != "" {
		return flag, nil
	}
	line, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && err != io.EOF {
		return "", err
	}
	line = strings.TrimRight(line, "\r\n")
	if line == "" {
		return "", WrapExitError(ExitCommandError, "password required: pass --password or pipe it on stdin", nil)
	}
	return line, nil
}

func reportText(verb string, r session.Report) string {
	text := fmt.Sprintf("%s as %s; replayed %d cart and %d wishlist items", verb, r.Identity, r.CartReplayed, r.WishlistReplayed)
	if r.Err != nil {
		text += fmt.Sprintf(" (with problems: %v)", r.Err)
	}
	return text
}

func reportData(r session.Report) map[string]any {
	data := map[string]any{
		"identity":         r.Identity.String(),
		"cartReplayed":     r.CartReplayed,
		"wishlistReplayed": r.WishlistReplayed,
	}
	if r.Err != nil {
		data["warnings"] = r.Err.Error()
	}
	return data
}

func NewLoginCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &credentialOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Sign in and merge the guest cart into the account",
		Example: `  shopper login --email meera@example.com --password '...'
  echo "$PASSWORD" | shopper login --email meera@example.com`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			password, err := readPassword(cmd.InOrStdin(), opts.Password)
			if err != nil {
				return err
			}
			return opts.run(cmd, func(ctx context.Context, c *shopper.Client, out *Output) error {
				report, err := c.Login(ctx, opts.Email, password)
				if err != nil {
					return err
				}
				return out.Success(reportData(report), reportText("Signed in", report))
			})
		},
	}
	cmd.Flags().StringVar(&opts.Email, "email", "", "account email")
	cmd.Flags().StringVar(&opts.Password, "password", "", "account password (read from stdin when empty)")
	_ = cmd.MarkFlagRequired("email")
	return cmd
}

func NewRegisterCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &credentialOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "register",
		Short: "Create an account and sign in",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			password, err := readPassword(cmd.InOrStdin(), opts.Password)
			if err != nil {
				return err
			}
			req := types.RegisterRequest{Name: opts.Name, Email: opts.Email, Password: password}
			if opts.Phone != "" {
				req.Phone = &opts.Phone
			}
			return opts.run(cmd, func(ctx context.Context, c *shopper.Client, out *Output) error {
				report, err := c.Register(ctx, req)
				if err != nil {
					return err
				}
				return out.Success(reportData(report), reportText("Registered", report))
			})
		},
	}
	cmd.Flags().StringVar(&opts.Name, "name", "", "display name")
	cmd.Flags().StringVar(&opts.Email, "email", "", "account email")
	cmd.Flags().StringVar(&opts.Password, "password", "", "account password (read from stdin when empty)")
	cmd.Flags().StringVar(&opts.Phone, "phone", "", "optional phone number")
	_ = cmd.MarkFlagRequired("name")
	_ = cmd.MarkFlagRequired("email")
	return cmd
}

func NewLogoutCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Sign out; the account's local cart stays for the next sign-in",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.run(cmd, func(ctx context.Context, c *shopper.Client, out *Output) error {
				if err := c.Logout(ctx); err != nil {
					return err
				}
				return out.Success(map[string]string{"identity": c.Identity(ctx).String()}, "Signed out")
			})
		},
	}
}

func NewRefreshCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "refresh",
		Short: "Exchange the stored refresh token for a new credential",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.run(cmd, func(ctx context.Context, c *shopper.Client, out *Output) error {
				if err := c.Refresh(ctx); err != nil {
					return err
				}
				return out.Success(map[string]string{"identity": c.Identity(ctx).String()}, "Credential refreshed")
			})
		},
	}
}

func NewWhoamiCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show which partition the client is using",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.run(cmd, func(ctx context.Context, c *shopper.Client, out *Output) error {
				id := c.Identity(ctx)
				data := map[string]any{
					"identity":      id.String(),
					"guest":         id.IsGuest(),
					"authenticated": c.Authenticated(ctx),
				}
				return out.Success(data, id.String())
			})
		},
	}
}
