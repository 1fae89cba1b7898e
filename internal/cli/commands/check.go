package commands

import (
	"errors"
	"fmt"

	"github.com/leapstack-labs/verokit/internal/cli/output"
	"github.com/leapstack-labs/verokit/pkg/catalog"
	"github.com/spf13/cobra"
)

// checkOutput is the JSON shape of a check report.
type checkOutput struct {
	Valid   bool         `json:"valid"`
	Actions int          `json:"actions"`
	Files   []fileReport `json:"files"`
}

type fileReport struct {
	Path    string   `json:"path"`
	Actions int      `json:"actions"`
	Errors  []string `json:"errors,omitempty"`
}

// NewCheckCommand creates the check command.
func NewCheckCommand() *cobra.Command {
	var files []string

	cmd := &cobra.Command{
		Use:   "check",
		Short: "Validate the action catalog",
		Long: `Validate the built-in catalog together with the actions extension files.

Every action must have a unique id, one ‹…› marker and one {slot} hole per slot,
and options for fixed choice slots. At most one action may hand off to the recorder.

Files come from --actions, or from actions_files in verokit.yaml.`,
		Example: `  # Check the configured catalog
  verokit check

  # Check an extension file
  verokit check --actions actions/login.yaml`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runCheck(cmd, files)
		},
	}

	cmd.Flags().StringSliceVar(&files, "actions", nil, "Actions extension files to check")
	bindConfigKey(cmd, "actions", "actions_files")
	return cmd
}

// errCheckFailed is returned when the catalog is invalid. The report has
// already been printed.
var errCheckFailed = errors.New("catalog check failed")

func runCheck(cmd *cobra.Command, files []string) error {
	cmdCtx := NewCommandContext(cmd)
	r := cmdCtx.Renderer
	if len(files) == 0 {
		files = cmdCtx.Cfg.ActionsFiles
	}

	report := checkOutput{Valid: true, Files: []fileReport{}}
	var extra []catalog.ActionDef
	for _, f := range files {
		fr := fileReport{Path: f}
		defs, err := catalog.LoadFile(f)
		if err != nil {
			fr.Errors = []string{err.Error()}
			report.Valid = false
		} else {
			fr.Actions = len(defs)
			if err := catalog.New(defs).Validate(); err != nil {
				fr.Errors = splitJoined(err)
				report.Valid = false
			}
			extra = append(extra, defs...)
		}
		report.Files = append(report.Files, fr)
	}

	var combinedErrs []string
	if report.Valid {
		cat, err := catalog.Default().Extend(extra...)
		if err != nil {
			combinedErrs = splitJoined(err)
			report.Valid = false
		} else {
			report.Actions = cat.Len()
		}
	}

	if r.EffectiveMode() == output.ModeJSON {
		if err := r.JSON(report); err != nil {
			return err
		}
	} else {
		for _, fr := range report.Files {
			if len(fr.Errors) == 0 {
				r.StatusLine(fr.Path, "ok", fmt.Sprintf("(%d actions)", fr.Actions))
				continue
			}
			r.StatusLine(fr.Path, "error", "")
			for _, e := range fr.Errors {
				r.Println("    " + e)
			}
		}
		for _, e := range combinedErrs {
			r.Error(e)
		}
		if report.Valid {
			r.Success(fmt.Sprintf("Catalog is valid (%d actions)", report.Actions))
		}
	}

	if !report.Valid {
		return errCheckFailed
	}
	return nil
}

// splitJoined flattens an errors.Join result into one message per error.
func splitJoined(err error) []string {
	var joined interface{ Unwrap() []error }
	if errors.As(err, &joined) {
		var out []string
		for _, e := range joined.Unwrap() {
			out = append(out, splitJoined(e)...)
		}
		return out
	}
	return []string{err.Error()}
}
