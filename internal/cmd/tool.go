package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/tuannvm/agentctl/internal/tui"
)

func newToolCmd() *cobra.Command {
	var root string

	cmd := &cobra.Command{
		Use:   "tool",
		Short: "Manage shared tool definitions",
	}
	cmd.PersistentFlags().StringVar(&root, "project-dir", ".", "project root directory")

	cmd.AddCommand(
		newToolCreateCmd(&root),
		newToolTemplatesCmd(&root),
	)
	return cmd
}

func newToolCreateCmd(root *string) *cobra.Command {
	var (
		templateName string
		force        bool
		dryRun       bool
		vars         []string
	)
	cmd := &cobra.Command{
		Use:   "create <name>",
		Short: "Render a shared tool from a template",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(*root)
			if err != nil {
				return err
			}
			name := args[0]
			if dryRun {
				rendered, err := a.toolTemplates.Preview(name, templateName, parseVars(vars))
				if err != nil {
					return err
				}
				fmt.Print(rendered)
				return nil
			}
			path, err := a.toolTemplates.Create(name, templateName, force, parseVars(vars))
			if err != nil {
				return err
			}
			fmt.Println(tui.SuccessStyle().Render(fmt.Sprintf("tool %q created at %s", name, path)))
			return nil
		},
	}
	cmd.Flags().StringVar(&templateName, "template", "", "tool template name")
	cmd.Flags().BoolVar(&force, "force", false, "overwrite an existing tool")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "print the rendered tool without writing it")
	cmd.Flags().StringArrayVar(&vars, "var", nil, "template variable (key=value, repeatable)")
	_ = cmd.MarkFlagRequired("template")
	return cmd
}

func newToolTemplatesCmd(root *string) *cobra.Command {
	return &cobra.Command{
		Use:   "templates",
		Short: "List tool templates and their variables",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(*root)
			if err != nil {
				return err
			}
			names, err := a.toolTemplates.List()
			if err != nil {
				return err
			}
			fmt.Println(tui.TitleStyle().Render("Tool templates"))
			for _, name := range names {
				info, err := a.toolTemplates.Info(name)
				if err != nil {
					return err
				}
				line := "  " + name
				if info.Description != "" {
					line += " - " + info.Description
				}
				fmt.Println(line)
				if len(info.Variables) > 0 {
					fmt.Println(tui.MutedStyle().Render(fmt.Sprintf("    variables: %v", info.Variables)))
				}
			}
			return nil
		},
	}
}
