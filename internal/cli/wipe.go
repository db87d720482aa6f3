package cli

import (
	"context"
	"fmt"

	"cage/internal/ui"

	"github.com/spf13/cobra"
)

var wipeYes bool

var wipeCmd = &cobra.Command{
	Use:   "wipe [profile]",
	Short: "Delete a profile's persistent storage",
	Long: `Delete a profile's home and workspace volumes. Everything the
profile accumulated (credentials, installed tools, work in progress) is
gone for good. The session must be stopped first.

Examples:
  cage wipe work            # Prompt, then delete 'work' storage
  cage wipe work -y         # No prompt`,
	Args: cobra.MaximumNArgs(1),
	RunE: runWipe,
}

func init() {
	wipeCmd.Flags().BoolVarP(&wipeYes, "yes", "y", false, "skip confirmation")
}

func runWipe(cmd *cobra.Command, args []string) error {
	mgr, closeStore := newManager()
	defer closeStore()

	var profile string
	if len(args) > 0 {
		profile = args[0]
	} else {
		statuses, err := mgr.List(context.Background())
		if err != nil {
			return err
		}
		var names []string
		for _, s := range statuses {
			if s.HasHome || s.HasWork {
				names = append(names, s.Profile)
			}
		}
		if len(names) == 0 {
			ui.MutedMsg("No profile storage found")
			return nil
		}
		profile, err = ui.SelectProfile(names, "Select profile to wipe")
		if err != nil {
			return ErrAborted
		}
	}

	if !wipeYes {
		ok, err := ui.Confirm(fmt.Sprintf("Permanently delete all storage for profile %q?", profile), false)
		if err != nil {
			return err
		}
		if !ok {
			return ErrAborted
		}
	}

	if err := mgr.Wipe(context.Background(), profile); err != nil {
		return err
	}
	ui.SuccessMsg("Profile %q storage deleted", profile)
	return nil
}
