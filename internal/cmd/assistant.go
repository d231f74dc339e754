package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/tuannvm/agentctl/internal/assistant"
	"github.com/tuannvm/agentctl/internal/tui"
)

func newAssistantCmd() *cobra.Command {
	var root string

	cmd := &cobra.Command{
		Use:   "assistant",
		Short: "Manage assistant configurations and deployments",
	}
	cmd.PersistentFlags().StringVar(&root, "project-dir", ".", "project root directory")

	cmd.AddCommand(
		newAssistantListCmd(&root),
		newAssistantGetCmd(&root),
		newAssistantInitCmd(&root),
		newAssistantValidateCmd(&root),
		newAssistantCreateCmd(&root),
		newAssistantUpdateCmd(&root),
		newAssistantDeleteCmd(&root),
		newAssistantStatusCmd(&root),
	)
	return cmd
}

func newAssistantListCmd(root *string) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List assistant configurations",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(*root)
			if err != nil {
				return err
			}
			names, err := a.assistants.List()
			if err != nil {
				return err
			}
			fmt.Print(tui.RenderList("Assistants", names))
			return nil
		},
	}
}

func newAssistantGetCmd(root *string) *cobra.Command {
	var env string
	cmd := &cobra.Command{
		Use:   "get <name>",
		Short: "Show the resolved configuration for an assistant",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(*root)
			if err != nil {
				return err
			}
			env = a.environment(env)
			cfg, err := a.assistants.Load(args[0], env)
			if err != nil {
				return err
			}
			fmt.Println(tui.TitleStyle().Render(cfg.Name))
			fmt.Printf("  environment: %s\n", env)
			if model, ok := cfg.Doc["model"].(map[string]any); ok {
				fmt.Printf("  model: %v/%v\n", model["provider"], model["model"])
			}
			if cfg.SystemPrompt != "" {
				fmt.Printf("  system prompt: %d bytes\n", len(cfg.SystemPrompt))
			}
			fmt.Printf("  tools: %d, schemas: %d\n", len(cfg.Tools), len(cfg.Schemas))
			return nil
		},
	}
	cmd.Flags().StringVar(&env, "env", "", "target environment (default from project config)")
	return cmd
}

func newAssistantInitCmd(root *string) *cobra.Command {
	var (
		templateName string
		force        bool
		vars         []string
	)
	cmd := &cobra.Command{
		Use:   "init <name>",
		Short: "Create an assistant directory from a template",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(*root)
			if err != nil {
				return err
			}
			if err := a.assistantTemplates.Init(args[0], templateName, force, parseVars(vars)); err != nil {
				return err
			}
			fmt.Println(tui.SuccessStyle().Render(fmt.Sprintf("assistant %q created from template %q", args[0], templateName)))
			return nil
		},
	}
	cmd.Flags().StringVar(&templateName, "template", "", "assistant template name")
	cmd.Flags().BoolVar(&force, "force", false, "overwrite an existing assistant")
	cmd.Flags().StringArrayVar(&vars, "var", nil, "template variable (key=value, repeatable)")
	_ = cmd.MarkFlagRequired("template")
	return cmd
}

func newAssistantValidateCmd(root *string) *cobra.Command {
	var env string
	cmd := &cobra.Command{
		Use:   "validate <name>",
		Short: "Validate an assistant configuration",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(*root)
			if err != nil {
				return err
			}
			env = a.environment(env)
			cfg, err := a.assistants.Load(args[0], env)
			if err != nil {
				return err
			}
			if err := cfg.Validate(); err != nil {
				return err
			}
			fmt.Println(tui.SuccessStyle().Render(fmt.Sprintf("assistant %q is valid for %s", args[0], env)))
			return nil
		},
	}
	cmd.Flags().StringVar(&env, "env", "", "target environment (default from project config)")
	return cmd
}

func newAssistantCreateCmd(root *string) *cobra.Command {
	var env string
	cmd := &cobra.Command{
		Use:   "create <name>",
		Short: "Create the assistant on the platform and record the deployment",
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
			cfg, err := a.assistants.Load(name, env)
			if err != nil {
				return err
			}
			if err := cfg.Validate(); err != nil {
				return err
			}
			created, err := a.platform.CreateAssistant(cmd.Context(), assistant.BuildCreateRequest(cfg))
			if err != nil {
				return err
			}
			if err := a.assistantStates.MarkDeployed(name, env, created.ID, ""); err != nil {
				return err
			}
			a.log.Info("assistant created",
				zap.String("assistant", name),
				zap.String("environment", env),
				zap.String("id", created.ID))
			fmt.Println(tui.SuccessStyle().Render(fmt.Sprintf("assistant %q deployed to %s as %s", name, env, created.ID)))
			return nil
		},
	}
	cmd.Flags().StringVar(&env, "env", "", "target environment (default from project config)")
	return cmd
}

func newAssistantUpdateCmd(root *string) *cobra.Command {
	var env string
	cmd := &cobra.Command{
		Use:   "update <name>",
		Short: "Push configuration changes to an already-deployed assistant",
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
			rec, err := a.assistantStates.Get(name, env)
			if err != nil {
				return err
			}
			if !rec.Deployed() {
				return fmt.Errorf("assistant %q is not deployed to %s; use create first", name, env)
			}
			cfg, err := a.assistants.Load(name, env)
			if err != nil {
				return err
			}
			if err := cfg.Validate(); err != nil {
				return err
			}
			updated, err := a.platform.UpdateAssistant(cmd.Context(), rec.ID, assistant.BuildCreateRequest(cfg))
			if err != nil {
				return err
			}
			if err := a.assistantStates.MarkUpdated(name, env, ""); err != nil {
				return err
			}
			fmt.Println(tui.SuccessStyle().Render(fmt.Sprintf("assistant %q updated on %s (%s)", name, env, updated.ID)))
			return nil
		},
	}
	cmd.Flags().StringVar(&env, "env", "", "target environment (default from project config)")
	return cmd
}

func newAssistantDeleteCmd(root *string) *cobra.Command {
	var env string
	cmd := &cobra.Command{
		Use:   "delete <name>",
		Short: "Delete the assistant from the platform and clear its record",
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
			rec, err := a.assistantStates.Get(name, env)
			if err != nil {
				return err
			}
			if !rec.Deployed() {
				return fmt.Errorf("assistant %q is not deployed to %s", name, env)
			}
			if err := a.platform.DeleteAssistant(cmd.Context(), rec.ID); err != nil {
				return err
			}
			if err := a.assistantStates.MarkUndeployed(name, env); err != nil {
				return err
			}
			fmt.Println(tui.SuccessStyle().Render(fmt.Sprintf("assistant %q removed from %s", name, env)))
			return nil
		},
	}
	cmd.Flags().StringVar(&env, "env", "", "target environment (default from project config)")
	return cmd
}

func newAssistantStatusCmd(root *string) *cobra.Command {
	return &cobra.Command{
		Use:   "status [name]",
		Short: "Show deployment status per environment",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(*root)
			if err != nil {
				return err
			}
			names := args
			if len(names) == 0 {
				names, err = a.assistants.List()
				if err != nil {
					return err
				}
			}
			for _, name := range names {
				records, err := a.assistantStates.Deployments(name)
				if err != nil {
					return err
				}
				fmt.Print(tui.RenderStatus(name, records))
			}
			return nil
		},
	}
}

// parseVars splits repeated key=value flags into a variable map.
func parseVars(pairs []string) map[string]any {
	if len(pairs) == 0 {
		return nil
	}
	vars := make(map[string]any, len(pairs))
	for _, pair := range pairs {
		if k, v, ok := strings.Cut(pair, "="); ok {
			vars[k] = v
		}
	}
	return vars
}
