package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"pathway/internal/bootstrap"
	journeydto "pathway/internal/modules/journey/dto"
	"pathway/internal/platform/config"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		_, _ = fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var stateDir string

	root := &cobra.Command{
		Use:           "pathway",
		Short:         "The Mountain Pathway guided journaling tool",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&stateDir, "state-dir", defaultStateDir(), "state directory")

	root.AddCommand(newTUICmd(&stateDir))
	root.AddCommand(newServeCmd(&stateDir))
	root.AddCommand(newJourneyCmd(&stateDir))
	root.AddCommand(newAuthCmd(&stateDir))
	return root
}

func defaultStateDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return filepath.Join(home, ".pathway")
}

func loadApp(ctx context.Context, stateDir string) (*bootstrap.App, error) {
	if err := os.MkdirAll(stateDir, 0o755); err != nil {
		return nil, fmt.Errorf("create state dir: %w", err)
	}
	cfg, err := config.New(stateDir)
	if err != nil {
		return nil, err
	}
	return bootstrap.New(ctx, cfg)
}

func newTUICmd(stateDir *string) *cobra.Command {
	return &cobra.Command{
		Use:   "tui",
		Short: "Run the pathway terminal UI",
		RunE: func(cmd *cobra.Command, _ []string) error {
			app, err := loadApp(cmd.Context(), *stateDir)
			if err != nil {
				return err
			}
			defer func() { _ = app.Close() }()
			return bootstrap.RunTUI(app)
		},
	}
}

func newServeCmd(stateDir *string) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve the auth callback endpoints",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.New(*stateDir)
			if err != nil {
				return err
			}
			app, err := bootstrap.New(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			defer func() { _ = app.Close() }()
			return bootstrap.RunServer(cfg, app)
		},
	}
}

func newJourneyCmd(stateDir *string) *cobra.Command {
	journey := &cobra.Command{Use: "journey", Short: "Journey lifecycle commands"}

	journey.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Show the current journey position",
		RunE: func(cmd *cobra.Command, _ []string) error {
			app, err := loadApp(cmd.Context(), *stateDir)
			if err != nil {
				return err
			}
			defer func() { _ = app.Close() }()
			out, err := app.JourneyCLI.Current(cmd.Context())
			if err != nil {
				return err
			}
			printCurrent(cmd, out)
			return nil
		},
	})

	journey.AddCommand(&cobra.Command{
		Use:   "begin",
		Short: "Move from the landing screen onto the first step",
		RunE: func(cmd *cobra.Command, _ []string) error {
			app, err := loadApp(cmd.Context(), *stateDir)
			if err != nil {
				return err
			}
			defer func() { _ = app.Close() }()
			out, err := app.JourneyCLI.Begin(cmd.Context())
			if err != nil {
				return err
			}
			printCurrent(cmd, out)
			return nil
		},
	})

	var respondKey string
	respond := &cobra.Command{
		Use:   "respond <text>",
		Short: "Record a response for the current (or a named) step",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := loadApp(cmd.Context(), *stateDir)
			if err != nil {
				return err
			}
			defer func() { _ = app.Close() }()
			out, err := app.JourneyCLI.Respond(cmd.Context(), respondKey, args[0])
			if err != nil {
				return err
			}
			printCurrent(cmd, out)
			return nil
		},
	}
	respond.Flags().StringVar(&respondKey, "key", "", "step key (defaults to the current step)")
	journey.AddCommand(respond)

	journey.AddCommand(&cobra.Command{
		Use:   "next",
		Short: "Advance one step",
		RunE: func(cmd *cobra.Command, _ []string) error {
			app, err := loadApp(cmd.Context(), *stateDir)
			if err != nil {
				return err
			}
			defer func() { _ = app.Close() }()
			out, err := app.JourneyCLI.Advance(cmd.Context())
			if err != nil {
				return err
			}
			printCurrent(cmd, out)
			return nil
		},
	})

	journey.AddCommand(&cobra.Command{
		Use:   "back",
		Short: "Step back one step",
		RunE: func(cmd *cobra.Command, _ []string) error {
			app, err := loadApp(cmd.Context(), *stateDir)
			if err != nil {
				return err
			}
			defer func() { _ = app.Close() }()
			out, err := app.JourneyCLI.Back(cmd.Context())
			if err != nil {
				return err
			}
			printCurrent(cmd, out)
			return nil
		},
	})

	journey.AddCommand(&cobra.Command{
		Use:   "goto <step>",
		Short: "Jump to a step index",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			step, err := strconv.Atoi(args[0])
			if err != nil {
				return fmt.Errorf("step must be an integer: %w", err)
			}
			app, err := loadApp(cmd.Context(), *stateDir)
			if err != nil {
				return err
			}
			defer func() { _ = app.Close() }()
			out, err := app.JourneyCLI.GoTo(cmd.Context(), step)
			if err != nil {
				return err
			}
			printCurrent(cmd, out)
			return nil
		},
	})

	journey.AddCommand(&cobra.Command{
		Use:   "complete",
		Short: "Mark the journey complete and jump to the summary",
		RunE: func(cmd *cobra.Command, _ []string) error {
			app, err := loadApp(cmd.Context(), *stateDir)
			if err != nil {
				return err
			}
			defer func() { _ = app.Close() }()
			out, err := app.JourneyCLI.Complete(cmd.Context())
			if err != nil {
				return err
			}
			printCurrent(cmd, out)
			return nil
		},
	})

	journey.AddCommand(&cobra.Command{
		Use:   "reset",
		Short: "Start a fresh journey (local history is kept)",
		RunE: func(cmd *cobra.Command, _ []string) error {
			app, err := loadApp(cmd.Context(), *stateDir)
			if err != nil {
				return err
			}
			defer func() { _ = app.Close() }()
			out, err := app.JourneyCLI.Reset(cmd.Context())
			if err != nil {
				return err
			}
			printCurrent(cmd, out)
			return nil
		},
	})

	var audioVolume int
	audio := &cobra.Command{
		Use:   "audio on|off",
		Short: "Toggle ambient audio",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			enabled, err := parseOnOff(args[0])
			if err != nil {
				return err
			}
			app, err := loadApp(cmd.Context(), *stateDir)
			if err != nil {
				return err
			}
			defer func() { _ = app.Close() }()
			out, err := app.JourneyCLI.SetAudio(cmd.Context(), enabled, audioVolume)
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "audio enabled=%t volume=%d\n", out.AudioEnabled, out.AudioVolume)
			return nil
		},
	}
	audio.Flags().IntVar(&audioVolume, "volume", 50, "volume 0..100")
	journey.AddCommand(audio)

	journey.AddCommand(&cobra.Command{
		Use:   "save <title>",
		Short: "Save the journey to the signed-in account",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := loadApp(cmd.Context(), *stateDir)
			if err != nil {
				return err
			}
			defer func() { _ = app.Close() }()
			out, err := app.JourneyCLI.Save(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			verb := "saved"
			if out.Updated {
				verb = "updated"
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "%s %q (%s)\n", verb, out.Title, out.JourneyID)
			return nil
		},
	})

	journey.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List saved journeys, newest first",
		RunE: func(cmd *cobra.Command, _ []string) error {
			app, err := loadApp(cmd.Context(), *stateDir)
			if err != nil {
				return err
			}
			defer func() { _ = app.Close() }()
			journeys, err := app.JourneyCLI.List(cmd.Context())
			if err != nil {
				return err
			}
			if len(journeys) == 0 {
				_, _ = fmt.Fprintln(cmd.OutOrStdout(), "no saved journeys")
				return nil
			}
			for _, j := range journeys {
				marker := " "
				if j.IsCompleted {
					marker = "✓"
				}
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "%s %s\t%s\tstep=%d\t%s\n", marker, j.ID, j.Title, j.CurrentStep, j.UpdatedAt.Format(time.RFC3339))
			}
			return nil
		},
	})

	journey.AddCommand(&cobra.Command{
		Use:   "restore <id>",
		Short: "Replace the local draft with a saved journey",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := loadApp(cmd.Context(), *stateDir)
			if err != nil {
				return err
			}
			defer func() { _ = app.Close() }()
			out, err := app.JourneyCLI.Restore(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "restored %q (%s) at step %d\n", out.Title, out.JourneyID, out.Step)
			return nil
		},
	})

	journey.AddCommand(&cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a saved journey",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := loadApp(cmd.Context(), *stateDir)
			if err != nil {
				return err
			}
			defer func() { _ = app.Close() }()
			if err := app.JourneyCLI.Delete(cmd.Context(), args[0]); err != nil {
				return err
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "deleted %s\n", args[0])
			return nil
		},
	})

	journey.AddCommand(&cobra.Command{
		Use:   "export",
		Short: "Export the current journey to a markdown file",
		RunE: func(cmd *cobra.Command, _ []string) error {
			app, err := loadApp(cmd.Context(), *stateDir)
			if err != nil {
				return err
			}
			defer func() { _ = app.Close() }()
			out, err := app.JourneyCLI.Export(cmd.Context())
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintln(cmd.OutOrStdout(), out.Path)
			return nil
		},
	})

	return journey
}

func newAuthCmd(stateDir *string) *cobra.Command {
	auth := &cobra.Command{Use: "auth", Short: "Account and session commands"}

	auth.AddCommand(&cobra.Command{
		Use:   "status",
		Short: "Show the current session",
		RunE: func(cmd *cobra.Command, _ []string) error {
			app, err := loadApp(cmd.Context(), *stateDir)
			if err != nil {
				return err
			}
			defer func() { _ = app.Close() }()
			session, ok, err := app.Auth.CurrentSession(cmd.Context())
			if err != nil {
				return err
			}
			if !ok {
				_, _ = fmt.Fprintln(cmd.OutOrStdout(), "anonymous")
				return nil
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "%s expires=%s\n", session.Email, session.ExpiresAt.Format(time.RFC3339))
			return nil
		},
	})

	var native bool
	url := &cobra.Command{
		Use:   "url",
		Short: "Print the auth callback URL to hand to the identity provider",
		RunE: func(cmd *cobra.Command, _ []string) error {
			app, err := loadApp(cmd.Context(), *stateDir)
			if err != nil {
				return err
			}
			defer func() { _ = app.Close() }()
			out, err := app.Auth.RedirectURL(cmd.Context(), native, "")
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintln(cmd.OutOrStdout(), out.URL)
			return nil
		},
	}
	url.Flags().BoolVar(&native, "native", false, "request the native deep-link variant")
	auth.AddCommand(url)

	auth.AddCommand(&cobra.Command{
		Use:   "signin <code>",
		Short: "Complete a PKCE sign-in with an auth code",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := loadApp(cmd.Context(), *stateDir)
			if err != nil {
				return err
			}
			defer func() { _ = app.Close() }()
			session, err := app.Auth.CompleteSignIn(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "signed in as %s\n", session.Email)
			return nil
		},
	})

	auth.AddCommand(&cobra.Command{
		Use:   "signout",
		Short: "Sign out and clear local journey state",
		RunE: func(cmd *cobra.Command, _ []string) error {
			app, err := loadApp(cmd.Context(), *stateDir)
			if err != nil {
				return err
			}
			defer func() { _ = app.Close() }()
			if err := app.Auth.SignOut(cmd.Context()); err != nil {
				return err
			}
			_, _ = fmt.Fprintln(cmd.OutOrStdout(), "signed out")
			return nil
		},
	})

	auth.AddCommand(&cobra.Command{
		Use:   "reset-password <new> <confirm>",
		Short: "Set a new account password",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := loadApp(cmd.Context(), *stateDir)
			if err != nil {
				return err
			}
			defer func() { _ = app.Close() }()
			if err := app.Auth.ResetPassword(cmd.Context(), args[0], args[1]); err != nil {
				return err
			}
			_, _ = fmt.Fprintln(cmd.OutOrStdout(), "password updated")
			return nil
		},
	})

	return auth
}

func parseOnOff(arg string) (bool, error) {
	switch strings.ToLower(arg) {
	case "on":
		return true, nil
	case "off":
		return false, nil
	default:
		return false, fmt.Errorf("expected on or off, got %q", arg)
	}
}

func printCurrent(cmd *cobra.Command, out journeydto.CurrentOutput) {
	w := cmd.OutOrStdout()
	_, _ = fmt.Fprintf(w, "step %d: %s\n", out.Step, out.StepTitle)
	if out.StepPrompt != "" {
		_, _ = fmt.Fprintln(w, out.StepPrompt)
	}
	if out.Response != "" {
		_, _ = fmt.Fprintf(w, "> %s\n", out.Response)
	}
	flags := []string{"phase=" + out.Phase}
	if out.Completed {
		flags = append(flags, "completed")
	}
	if out.IsDirty {
		flags = append(flags, "unsaved")
	}
	if out.IsSaved {
		flags = append(flags, "saved="+out.SavedJourneyID)
	}
	if out.IsAnonymous {
		flags = append(flags, "anonymous")
	}
	_, _ = fmt.Fprintln(w, strings.Join(flags, " "))
}
