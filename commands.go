package main

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/s1natex/todo-GO/internal/tasks"
)

func addCmd(a *app) *cobra.Command {
	var due string
	cmd := &cobra.Command{
		Use:   "add <description...>",
		Short: "Add a task",
		Long: `Add a task with a due date (YYYY-MM-DD).
A blank description or due date adds nothing.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			store, done, err := a.session(cmd.Context())
			if err != nil {
				return err
			}
			defer done()

			if _, _, err := store.Add(cmd.Context(), strings.Join(args, " "), due); err != nil {
				return err
			}
			return tasks.WriteView(cmd.OutOrStdout(), store.View())
		},
	}
	cmd.Flags().StringVarP(&due, "due", "d", "", "due date, YYYY-MM-DD")
	return cmd
}

func listCmd(a *app) *cobra.Command {
	var filter string
	cmd := &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "Show tasks",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			store, done, err := a.session(cmd.Context())
			if err != nil {
				return err
			}
			defer done()

			store.SetFilter(filter)
			return tasks.WriteView(cmd.OutOrStdout(), store.View())
		},
	}
	cmd.Flags().StringVarP(&filter, "filter", "f", string(tasks.FilterAll), "all, pending or completed")
	return cmd
}

func toggleCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:     "toggle <id>",
		Aliases: []string{"done"},
		Short:   "Flip a task between pending and done",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			store, done, err := a.session(cmd.Context())
			if err != nil {
				return err
			}
			defer done()

			if _, err := store.Toggle(cmd.Context(), id); err != nil {
				return err
			}
			return tasks.WriteView(cmd.OutOrStdout(), store.View())
		},
	}
}

func rmCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:     "rm <id>",
		Aliases: []string{"delete"},
		Short:   "Delete a task",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			store, done, err := a.session(cmd.Context())
			if err != nil {
				return err
			}
			defer done()

			if _, err := store.Delete(cmd.Context(), id); err != nil {
				return err
			}
			return tasks.WriteView(cmd.OutOrStdout(), store.View())
		},
	}
}

func clearCmd(a *app) *cobra.Command {
	var yes bool
	cmd := &cobra.Command{
		Use:   "clear",
		Short: "Delete every task",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			store, done, err := a.session(cmd.Context())
			if err != nil {
				return err
			}
			defer done()

			confirm := tasks.Confirmer(promptConfirmer(cmd.InOrStdin(), cmd.OutOrStdout()))
			if yes {
				confirm = tasks.ConfirmFunc(func(string) bool { return true })
			}
			if _, err := store.DeleteAll(cmd.Context(), confirm); err != nil {
				return err
			}
			return tasks.WriteView(cmd.OutOrStdout(), store.View())
		},
	}
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "skip the confirmation prompt")
	return cmd
}

func themeCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:       "theme [toggle]",
		Short:     "Show or toggle the light/dark theme",
		Args:      cobra.MatchAll(cobra.MaximumNArgs(1), cobra.OnlyValidArgs),
		ValidArgs: []string{"toggle"},
		RunE: func(cmd *cobra.Command, args []string) error {
			store, done, err := a.session(cmd.Context())
			if err != nil {
				return err
			}
			defer done()

			theme := store.Theme()
			if len(args) == 1 {
				if theme, err = store.ToggleTheme(cmd.Context()); err != nil {
					return err
				}
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), theme)
			return err
		},
	}
}

// promptConfirmer asks on out and accepts "y" or "yes" from in. Anything
// else, including EOF, declines.
func promptConfirmer(in io.Reader, out io.Writer) tasks.ConfirmFunc {
	return func(prompt string) bool {
		fmt.Fprintf(out, "%s [y/N] ", prompt)
		line, _ := bufio.NewReader(in).ReadString('\n')
		switch strings.ToLower(strings.TrimSpace(line)) {
		case "y", "yes":
			return true
		default:
			return false
		}
	}
}

func parseID(v string) (int64, error) {
	id, err := strconv.ParseInt(strings.TrimSpace(v), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid task id %q", v)
	}
	return id, nil
}
