package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/agridynamic/admin-console/internal/app"
	"github.com/agridynamic/admin-console/internal/core/domain"
	"github.com/agridynamic/admin-console/internal/infrastructure/config"
	"github.com/agridynamic/admin-console/pkg/logger"
)

// cli carries the wired console between PersistentPreRunE and the commands.
type cli struct {
	verbose bool
	app     *app.App
	log     zerolog.Logger
	cleanup []func()
}

// execute runs root with args and releases whatever setup opened, whether the
// command succeeded or not.
func (c *cli) execute(ctx context.Context, root *cobra.Command, args []string) error {
	defer c.close()
	root.SetArgs(args)
	return root.ExecuteContext(ctx)
}

func (c *cli) close() {
	for i := len(c.cleanup) - 1; i >= 0; i-- {
		c.cleanup[i]()
	}
	c.cleanup = nil
}

func (c *cli) rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "adminctl",
		Short:         "Manage AgriDynamic site content from the terminal",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return c.setup(cmd.Context())
		},
	}
	root.PersistentFlags().BoolVarP(&c.verbose, "verbose", "v", false, "log backend calls")

	root.AddCommand(
		c.loginCmd(),
		c.logoutCmd(),
		c.whoamiCmd(),
		c.profileCmd(),
		c.listCmd(),
		c.createCmd(),
		c.updateCmd(),
		c.deleteCmd(),
		c.projectsCmd(),
	)
	return root
}

func (c *cli) setup(ctx context.Context) error {
	cfg, err := config.Load(ctx)
	if err != nil {
		return err
	}
	level := "warn"
	if c.verbose {
		level = "debug"
	}
	c.log = logger.Init(logger.Options{Level: level, Pretty: true, Service: "adminctl"})

	if c.app, err = app.New(ctx, cfg, c.log); err != nil {
		return err
	}
	c.cleanup = append(c.cleanup, c.app.Close)
	return nil
}

// requireSession revalidates the stored token and fails unless it is still
// good.
func (c *cli) requireSession(ctx context.Context) error {
	s := c.app.Sessions.Initialize(ctx)
	if s.Authenticated() {
		return nil
	}
	if s.Demoted != domain.DemotionNone {
		return fmt.Errorf("stored session %s, run adminctl login: %w", s.Demoted, domain.ErrNotAuthenticated)
	}
	return fmt.Errorf("run adminctl login first: %w", domain.ErrNotAuthenticated)
}

// describe turns err into the line shown to the operator.
func describe(err error) error {
	var ve *domain.ValidationError
	if errors.As(err, &ve) {
		return ve
	}
	return errors.New(domain.UserMessage(err, err.Error()))
}
