package cli

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
)

// NewRolloverCmd evaluates the active question for the current period. Selection is
// lazy, so this only forces the rotation ahead of the first request.
func NewRolloverCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "rollover",
		Short: "Rotate the daily question if the period has changed",
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := loadPersistentRuntime(cmd.Context(), *configPath)
			if err != nil {
				return err
			}
			defer rt.Close()

			sel, err := rt.questions.Rollover(cmd.Context())
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			switch {
			case !sel.Found:
				fmt.Fprintf(out, "period %s: question bank is empty\n", sel.Period)
			case sel.Rotated:
				fmt.Fprintf(out, "period %s: activated question %d %q\n", sel.Period, sel.Question.ID, sel.Question.Text)
			default:
				fmt.Fprintf(out, "period %s: question %d already live\n", sel.Period, sel.Question.ID)
			}
			return nil
		},
	}
}

// NewQuestionsCmd manages the question bank directly against the store.
func NewQuestionsCmd(configPath *string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "questions",
		Short: "Manage the question bank",
	}

	var options []string
	add := &cobra.Command{
		Use:   "add <text>",
		Short: "Add a question with 2 to 4 options",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := loadPersistentRuntime(cmd.Context(), *configPath)
			if err != nil {
				return err
			}
			defer rt.Close()
			q, err := rt.questions.CreateQuestion(cmd.Context(), strings.Join(args, " "), options)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "added question %d\n", q.ID)
			return nil
		},
	}
	add.Flags().StringArrayVarP(&options, "option", "o", nil, "answer option (repeat 2 to 4 times)")

	list := &cobra.Command{
		Use:   "list",
		Short: "List the question bank",
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := loadPersistentRuntime(cmd.Context(), *configPath)
			if err != nil {
				return err
			}
			defer rt.Close()
			qs, err := rt.questions.AllQuestions(cmd.Context())
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			for _, q := range qs {
				marker := " "
				if q.IsActive {
					marker = "*"
				}
				fmt.Fprintf(out, "%s %4d  %-10s  %s [%s]\n", marker, q.ID, q.ScheduledFor, q.Text, strings.Join(q.Options, " | "))
			}
			return nil
		},
	}

	del := &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a question and its answers",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid id %q", args[0])
			}
			rt, err := loadPersistentRuntime(cmd.Context(), *configPath)
			if err != nil {
				return err
			}
			defer rt.Close()
			if err := rt.questions.RemoveQuestion(cmd.Context(), id); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "deleted question %d\n", id)
			return nil
		},
	}

	cmd.AddCommand(add, list, del)
	return cmd
}

// NewAdminCmd grants or revokes the admin flag.
func NewAdminCmd(configPath *string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "admin",
		Short: "Manage administrators",
	}
	var revoke bool
	grant := &cobra.Command{
		Use:   "grant <email>",
		Short: "Grant admin rights to a user",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := loadPersistentRuntime(cmd.Context(), *configPath)
			if err != nil {
				return err
			}
			defer rt.Close()
			u, err := rt.auth.GrantAdmin(cmd.Context(), args[0], !revoke)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "user %d (%s) admin=%v\n", u.ID, u.Username, u.IsAdmin)
			return nil
		},
	}
	grant.Flags().BoolVar(&revoke, "revoke", false, "remove admin rights instead")
	cmd.AddCommand(grant)
	return cmd
}
