package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"studio/internal/draft"
	"studio/internal/workspace"
)

const fieldFileName = "fields.json"

type draftFlags struct {
	project string
	fields  string
}

func (f *draftFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&f.project, "project", "p", "", "Project directory")
	cmd.Flags().StringVar(&f.fields, "fields", "", "Field file (defaults to <project>/.draft/fields.json)")
}

func (f *draftFlags) fieldPath() string {
	if strings.TrimSpace(f.fields) != "" {
		return f.fields
	}
	return filepath.Join(strings.TrimSpace(f.project), workspace.DraftDir, fieldFileName)
}

func newDraftCommand(ctx *commandContext) *cobra.Command {
	draftCmd := &cobra.Command{
		Use:   "draft",
		Short: "Save, restore, or clear the project's workspace draft",
		Long: `The field file holds the workspace form as a flat JSON object keyed by
field name. "draft save" snapshots it into the project's draft; "draft
restore" writes the saved draft back into it.`,
	}
	draftCmd.AddCommand(newDraftSaveCommand(ctx))
	draftCmd.AddCommand(newDraftRestoreCommand(ctx))
	draftCmd.AddCommand(newDraftClearCommand(ctx))
	draftCmd.AddCommand(newDraftFieldsCommand())
	return draftCmd
}

func newDraftSaveCommand(ctx *commandContext) *cobra.Command {
	var flags draftFlags
	var automatic bool
	cmd := &cobra.Command{
		Use:   "save",
		Short: "Snapshot the field file into the project's draft",
		RunE: func(cmd *cobra.Command, args []string) error {
			form, err := draft.LoadFieldSet(flags.fieldPath())
			if err != nil {
				return err
			}
			mgr := draft.NewManager(ctx.client(), banner(cmd.OutOrStdout()))
			return mgr.SaveNow(cmd.Context(), flags.project, form, automatic)
		},
	}
	flags.register(cmd)
	cmd.Flags().BoolVar(&automatic, "auto", false, "Behave like an automatic save: never fail, report nothing on success")
	return cmd
}

func newDraftRestoreCommand(ctx *commandContext) *cobra.Command {
	var flags draftFlags
	var automatic bool
	cmd := &cobra.Command{
		Use:   "restore",
		Short: "Write the project's saved draft into the field file",
		RunE: func(cmd *cobra.Command, args []string) error {
			path := flags.fieldPath()
			form, err := draft.LoadFieldSet(path)
			if err != nil {
				return err
			}
			mgr := draft.NewManager(ctx.client(), banner(cmd.OutOrStdout()))
			applied, err := mgr.RestoreLatest(cmd.Context(), flags.project, form, automatic)
			if err != nil {
				if errors.Is(err, draft.ErrNoDraft) {
					return nil
				}
				return err
			}
			if !applied {
				return nil
			}
			return form.Save(path)
		},
	}
	flags.register(cmd)
	cmd.Flags().BoolVar(&automatic, "auto", false, "Behave like the restore on project open: a missing draft is silent")
	return cmd
}

func newDraftClearCommand(ctx *commandContext) *cobra.Command {
	var flags draftFlags
	var yes bool
	cmd := &cobra.Command{
		Use:   "clear",
		Short: "Delete the project's saved draft",
		RunE: func(cmd *cobra.Command, args []string) error {
			confirm := draft.ConfirmFunc(func(prompt string) bool {
				if yes {
					return true
				}
				return promptYesNo(cmd.InOrStdin(), cmd.OutOrStdout(), prompt)
			})
			mgr := draft.NewManager(ctx.client(), banner(cmd.OutOrStdout()))
			err := mgr.Clear(cmd.Context(), flags.project, confirm)
			if errors.Is(err, draft.ErrNotConfirmed) {
				fmt.Fprintln(cmd.OutOrStdout(), "Draft kept")
				return nil
			}
			return err
		},
	}
	flags.register(cmd)
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "Skip the confirmation prompt")
	return cmd
}

func newDraftFieldsCommand() *cobra.Command {
	return &cobra.Command{
		Use:         "fields",
		Short:       "List the field names a draft tracks",
		Annotations: map[string]string{"skipConfigLoad": "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			for _, name := range draft.FieldNames() {
				fmt.Fprintln(cmd.OutOrStdout(), name)
			}
			return nil
		},
	}
}

func promptYesNo(in io.Reader, out io.Writer, prompt string) bool {
	fmt.Fprintf(out, "%s [y/N]: ", prompt)
	line, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && line == "" {
		return false
	}
	switch strings.ToLower(strings.TrimSpace(line)) {
	case "y", "yes":
		return true
	default:
		return false
	}
}
