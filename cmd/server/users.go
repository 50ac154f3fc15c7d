package main

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"go-hospital/internal/user"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func userCmd(configPath *string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "user",
		Short: "Manage accounts and their roles",
	}

	createCmd := &cobra.Command{
		Use:   "create",
		Short: "Create an enabled account",
		RunE: func(cmd *cobra.Command, args []string) error {
			username, _ := cmd.Flags().GetString("username")
			password, _ := cmd.Flags().GetString("password")
			roles, _ := cmd.Flags().GetStringSlice("role")
			if username == "" || password == "" {
				return fmt.Errorf("--username and --password are required")
			}
			return withStore(*configPath, func(s *user.Store, log *zap.Logger) error {
				hash, err := user.HashPassword(password)
				if err != nil {
					return err
				}
				u := &user.AppUser{Username: username, Password: hash, Enabled: true}
				if err := s.CreateUser(cmd.Context(), u, roles...); err != nil {
					return err
				}
				log.Info("User created", zap.String("username", username), zap.Strings("roles", roles))
				fmt.Fprintf(cmd.OutOrStdout(), "created %s [%s]\n", username, strings.Join(roles, ","))
				return nil
			})
		},
	}
	createCmd.Flags().String("username", "", "Login name")
	createCmd.Flags().String("password", "", "Initial password")
	createCmd.Flags().StringSlice("role", []string{user.RoleUser}, "Role to grant (repeatable)")
	cmd.AddCommand(createCmd)

	grantCmd := &cobra.Command{
		Use:   "grant USERNAME ROLE",
		Short: "Grant a role to an account",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStore(*configPath, func(s *user.Store, log *zap.Logger) error {
				if err := s.AddRoleToUser(cmd.Context(), args[0], args[1]); err != nil {
					return err
				}
				log.Info("Role granted", zap.String("username", args[0]), zap.String("role", args[1]))
				return nil
			})
		},
	}
	cmd.AddCommand(grantCmd)

	revokeCmd := &cobra.Command{
		Use:   "revoke USERNAME ROLE",
		Short: "Remove a role from an account",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStore(*configPath, func(s *user.Store, log *zap.Logger) error {
				if err := s.RemoveRoleFromUser(cmd.Context(), args[0], args[1]); err != nil {
					return err
				}
				log.Info("Role revoked", zap.String("username", args[0]), zap.String("role", args[1]))
				return nil
			})
		},
	}
	cmd.AddCommand(revokeCmd)

	for _, enabled := range []bool{true, false} {
		use, short := "enable USERNAME", "Allow an account to sign in"
		if !enabled {
			use, short = "disable USERNAME", "Stop an account from signing in"
		}
		cmd.AddCommand(&cobra.Command{
			Use:   use,
			Short: short,
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				return withStore(*configPath, func(s *user.Store, log *zap.Logger) error {
					if err := s.SetEnabled(cmd.Context(), args[0], enabled); err != nil {
						return err
					}
					log.Info("User updated", zap.String("username", args[0]), zap.Bool("enabled", enabled))
					return nil
				})
			},
		})
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List accounts with their roles",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStore(*configPath, func(s *user.Store, _ *zap.Logger) error {
				users, err := s.ListUsers(cmd.Context())
				if err != nil {
					return err
				}
				w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
				fmt.Fprintln(w, "USERNAME\tENABLED\tROLES")
				for _, u := range users {
					fmt.Fprintf(w, "%s\t%t\t%s\n", u.Username, u.Enabled, strings.Join(u.RoleNames(), ","))
				}
				return w.Flush()
			})
		},
	})
	return cmd
}

func withStore(configPath string, fn func(*user.Store, *zap.Logger) error) error {
	env, err := bootstrap(configPath)
	if err != nil {
		return err
	}
	defer env.close()
	return fn(user.NewStore(env.db), env.log)
}
