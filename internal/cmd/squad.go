package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/tuannvm/agentctl/internal/bootstrap"
	"github.com/tuannvm/agentctl/internal/tui"
)

func newSquadCmd() *cobra.Command {
	var root string

	cmd := &cobra.Command{
		Use:   "squad",
		Short: "Manage squads of assistants",
	}
	cmd.PersistentFlags().StringVar(&root, "project-dir", ".", "project root directory")

	cmd.AddCommand(
		newSquadInitCmd(&root),
		newSquadCreateCmd(&root),
		newSquadStatusCmd(&root),
		newSquadDeleteCmd(&root),
		newSquadTemplatesCmd(&root),
		newSquadBootstrapCmd(&root),
		newSquadValidateManifestCmd(&root),
		newSquadRollbackCmd(&root),
		newSquadPromoteCmd(&root),
	)
	return cmd
}

func newSquadInitCmd(root *string) *cobra.Command {
	var (
		templateName string
		members      []string
		description  string
		force        bool
		env          string
	)
	cmd := &cobra.Command{
		Use:   "init <name>",
		Short: "Create a squad directory from a template",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(*root)
			if err != nil {
				return err
			}
			env = a.environment(env)
			path, err := a.squadTemplates.Init(args[0], templateName, members, description, force, env)
			if err != nil {
				return err
			}
			fmt.Println(tui.SuccessStyle().Render(fmt.Sprintf("squad %q created at %s", args[0], path)))
			return nil
		},
	}
	cmd.Flags().StringVar(&templateName, "template", "", "squad template name")
	cmd.Flags().StringSliceVar(&members, "members", nil, "assistant names for the squad")
	cmd.Flags().StringVar(&description, "description", "", "squad description")
	cmd.Flags().BoolVar(&force, "force", false, "overwrite an existing squad")
	cmd.Flags().StringVar(&env, "env", "", "target environment (default from project config)")
	_ = cmd.MarkFlagRequired("template")
	return cmd
}

func newSquadCreateCmd(root *string) *cobra.Command {
	var (
		env        string
		autoDeploy bool
		force      bool
	)
	cmd := &cobra.Command{
		Use:   "create <name>",
		Short: "Create the squad on the platform from deployed members",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(*root)
			if err != nil {
				return err
			}
			if err := a.connect(); err != nil {
				return err
			}
			name := args[0]
			env = a.environment(env)

			ok, err := a.depsResolver().EnsureDependencies(cmd.Context(), name, env, autoDeploy, force)
			if err != nil {
				return err
			}
			if !ok {
				missing, err := a.depsResolver().CheckMissing(name, env)
				if err != nil {
					return err
				}
				fmt.Print(tui.RenderList("Missing member deployments", missing))
				return fmt.Errorf("squad %q has undeployed members in %s; rerun with --auto-deploy", name, env)
			}

			id, err := a.orchestrator().DeploySquad(cmd.Context(), name, env)
			if err != nil {
				return err
			}
			a.log.Info("squad created",
				zap.String("squad", name),
				zap.String("environment", env),
				zap.String("id", id))
			fmt.Println(tui.SuccessStyle().Render(fmt.Sprintf("squad %q deployed to %s as %s", name, env, id)))
			return nil
		},
	}
	cmd.Flags().StringVar(&env, "env", "", "target environment (default from project config)")
	cmd.Flags().BoolVar(&autoDeploy, "auto-deploy", false, "deploy missing members first")
	cmd.Flags().BoolVar(&force, "force", false, "skip the confirmation prompt when auto-deploying")
	return cmd
}

func newSquadStatusCmd(root *string) *cobra.Command {
	return &cobra.Command{
		Use:   "status [name]",
		Short: "Show squad deployment status per environment",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(*root)
			if err != nil {
				return err
			}
			names := args
			if len(names) == 0 {
				names, err = a.squads.List()
				if err != nil {
					return err
				}
			}
			for _, name := range names {
				records, err := a.squadStates.Deployments(name)
				if err != nil {
					return err
				}
				fmt.Print(tui.RenderStatus(name, records))
			}
			return nil
		},
	}
}

func newSquadDeleteCmd(root *string) *cobra.Command {
	var env string
	cmd := &cobra.Command{
		Use:   "delete <name>",
		Short: "Delete the squad from the platform and clear its record",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(*root)
			if err != nil {
				return err
			}
			if err := a.connect(); err != nil {
				return err
			}
			name := args[0]
			env = a.environment(env)
			rec, err := a.squadStates.Get(name, env)
			if err != nil {
				return err
			}
			if !rec.Deployed() {
				return fmt.Errorf("squad %q is not deployed to %s", name, env)
			}
			if err := a.platform.DeleteSquad(cmd.Context(), rec.ID); err != nil {
				return err
			}
			if err := a.squadStates.MarkUndeployed(name, env); err != nil {
				return err
			}
			fmt.Println(tui.SuccessStyle().Render(fmt.Sprintf("squad %q removed from %s", name, env)))
			return nil
		},
	}
	cmd.Flags().StringVar(&env, "env", "", "target environment (default from project config)")
	return cmd
}

func newSquadTemplatesCmd(root *string) *cobra.Command {
	var env string
	cmd := &cobra.Command{
		Use:   "templates",
		Short: "List squad templates and their bootstrap readiness",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(*root)
			if err != nil {
				return err
			}
			statuses, err := a.orchestrator().ListTemplates(a.environment(env))
			if err != nil {
				return err
			}
			fmt.Println(tui.TitleStyle().Render("Squad templates"))
			for _, s := range statuses {
				switch {
				case s.BootstrapReady:
					fmt.Println(tui.SuccessStyle().Render(fmt.Sprintf(
						"  %-20s ready (%d assistants, %d tools) %s",
						s.Name, s.Assistants, s.Tools, s.Description)))
				case s.HasManifest:
					fmt.Println(tui.ErrorStyle().Render(fmt.Sprintf("  %-20s manifest invalid", s.Name)))
				default:
					fmt.Println(tui.MutedStyle().Render(fmt.Sprintf("  %-20s no manifest", s.Name)))
				}
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&env, "env", "", "target environment (default from project config)")
	return cmd
}

func newSquadBootstrapCmd(root *string) *cobra.Command {
	var opts bootstrap.Options
	var templateName string
	cmd := &cobra.Command{
		Use:   "bootstrap <name>",
		Short: "Provision a complete squad system from a template",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(*root)
			if err != nil {
				return err
			}
			if opts.Deploy {
				if err := a.connect(); err != nil {
					return err
				}
			}
			opts.Environment = a.environment(opts.Environment)
			cp, err := a.orchestrator().Bootstrap(cmd.Context(), args[0], templateName, opts)
			if err != nil {
				return err
			}
			if opts.DryRun {
				fmt.Print(cp.Preview)
				return nil
			}
			fmt.Println(tui.SuccessStyle().Render(fmt.Sprintf(
				"squad %q bootstrapped: %d tools, %d assistants",
				args[0], len(cp.CreatedTools), len(cp.CreatedAssistants))))
			if cp.DeployedSquad != "" {
				fmt.Println(tui.SuccessStyle().Render(fmt.Sprintf("deployed to %s", opts.Environment)))
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&templateName, "template", "", "squad template name")
	cmd.Flags().BoolVar(&opts.Deploy, "deploy", false, "deploy after creation")
	cmd.Flags().StringVar(&opts.Environment, "env", "", "target environment (default from project config)")
	cmd.Flags().BoolVar(&opts.DryRun, "dry-run", false, "preview without creating anything")
	cmd.Flags().BoolVar(&opts.Force, "force", false, "overwrite conflicting resources")
	cmd.Flags().BoolVar(&opts.RollbackOnFailure, "rollback-on-failure", true, "roll back created resources on failure")
	_ = cmd.MarkFlagRequired("template")
	return cmd
}

func newSquadValidateManifestCmd(root *string) *cobra.Command {
	var env string
	cmd := &cobra.Command{
		Use:   "validate-manifest <template>",
		Short: "Validate a squad template manifest without bootstrapping",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(*root)
			if err != nil {
				return err
			}
			report := a.orchestrator().ValidateManifest(args[0], a.environment(env))
			if !report.Valid {
				fmt.Println(tui.ErrorStyle().Render(fmt.Sprintf("manifest for %q is invalid:", args[0])))
				for _, issue := range report.Issues {
					fmt.Println("  - " + issue)
				}
				return fmt.Errorf("manifest validation failed")
			}
			fmt.Println(tui.SuccessStyle().Render(fmt.Sprintf(
				"manifest for %q is valid: %s (%d assistants, %d tools)",
				args[0], report.Description, report.Assistants, report.Tools)))
			return nil
		},
	}
	cmd.Flags().StringVar(&env, "env", "", "target environment (default from project config)")
	return cmd
}

func newSquadRollbackCmd(root *string) *cobra.Command {
	var env string
	cmd := &cobra.Command{
		Use:   "rollback <name>",
		Short: "Tear down a previously bootstrapped squad",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(*root)
			if err != nil {
				return err
			}
			if err := a.connect(); err != nil {
				return err
			}
			if err := a.orchestrator().RollbackSquad(cmd.Context(), args[0], a.environment(env)); err != nil {
				return err
			}
			fmt.Println(tui.SuccessStyle().Render(fmt.Sprintf("squad %q rolled back", args[0])))
			return nil
		},
	}
	cmd.Flags().StringVar(&env, "env", "", "target environment (default from project config)")
	return cmd
}

func newSquadPromoteCmd(root *string) *cobra.Command {
	var fromEnv, toEnv string
	cmd := &cobra.Command{
		Use:   "promote <name>",
		Short: "Deploy a verified squad into another environment",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(*root)
			if err != nil {
				return err
			}
			if err := a.connect(); err != nil {
				return err
			}
			fromEnv = a.environment(fromEnv)
			cp, err := a.orchestrator().Promote(cmd.Context(), args[0], fromEnv, toEnv)
			if err != nil {
				return err
			}
			fmt.Println(tui.SuccessStyle().Render(fmt.Sprintf(
				"squad %q promoted %s -> %s (%d assistants deployed)",
				args[0], fromEnv, toEnv, len(cp.DeployedAssistants))))
			return nil
		},
	}
	cmd.Flags().StringVar(&fromEnv, "from", "", "source environment (default from project config)")
	cmd.Flags().StringVar(&toEnv, "to", "staging", "target environment")
	return cmd
}
