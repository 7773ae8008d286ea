package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/someoneigna/gitkit/manifest"
	"github.com/someoneigna/gitkit/remotes"
)

func newRemoteCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "remote",
		Short: "Manage the repository's remotes",
	}

	cmd.AddCommand(newRemoteListCmd(a))
	cmd.AddCommand(newRemoteAddCmd(a))
	cmd.AddCommand(newRemoteRemoveCmd(a))
	cmd.AddCommand(newRemoteSetURLCmd(a))
	cmd.AddCommand(newRemoteImportCmd(a))
	cmd.AddCommand(newRemoteCheckNameCmd(a))
	return cmd
}

func newRemoteListCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List configured remotes",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			for remote, err := range a.repo.Remotes().All() {
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\n", remote.Name, remote.URL)
			}
			return nil
		},
	}
}

func newRemoteAddCmd(a *app) *cobra.Command {
	var fetchSpecs []string

	cmd := &cobra.Command{
		Use:   "add <name> <url>",
		Short: "Add a remote",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			remote, err := a.repo.Remotes().Create(args[0], args[1], fetchSpecs...)
			if err != nil {
				return err
			}
			a.logger.Info("remote added",
				zap.String("name", remote.Name),
				zap.String("url", remote.URL))
			return nil
		},
	}

	cmd.Flags().StringArrayVar(&fetchSpecs, "fetch", nil, "Fetch refspec (repeatable)")
	return cmd
}

func newRemoteRemoveCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "remove <name>",
		Short: "Remove a remote",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.repo.Remotes().Remove(args[0]); err != nil {
				return err
			}
			a.logger.Info("remote removed", zap.String("name", args[0]))
			return nil
		},
	}
}

func newRemoteSetURLCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "set-url <name> <url>",
		Short: "Change a remote's URL",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			reg := a.repo.Remotes()
			remote, err := reg.Get(args[0])
			if err != nil {
				return err
			}
			updated, err := reg.Update(*remote, remotes.SetURL(args[1]))
			if err != nil {
				return err
			}
			a.logger.Info("remote updated",
				zap.String("name", updated.Name),
				zap.String("url", updated.URL))
			return nil
		},
	}
}

func newRemoteImportCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "import <url>",
		Short: "Provision remotes from a manifest (local path, http(s):// or s3:// URL)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s3cfg := &manifest.S3Config{
				AccessKey: a.v.GetString("s3.access_key"),
				SecretKey: a.v.GetString("s3.secret_key"),
				Region:    a.v.GetString("s3.region"),
				Endpoint:  a.v.GetString("s3.endpoint"),
			}

			m, err := manifest.Load(cmd.Context(), args[0], s3cfg)
			if err != nil {
				return err
			}

			created, updated, err := manifest.Apply(m, a.repo.Remotes())
			if err != nil {
				return err
			}
			a.logger.Info("manifest applied",
				zap.String("source", args[0]),
				zap.Int("created", created),
				zap.Int("updated", updated))
			return nil
		},
	}
	return cmd
}

func newRemoteCheckNameCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "check-name <name>",
		Short: "Check whether a name is usable as a remote name",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if !remotes.IsValidName(args[0]) {
				return fmt.Errorf("%q is not a valid remote name", args[0])
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s is valid\n", args[0])
			return nil
		},
	}
}
