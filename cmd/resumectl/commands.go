package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"resume-portal/internal/bootstrap"
	"resume-portal/internal/dashboard"
)

const balanceWait = 10 * time.Second

var errNoBalance = errors.New("credit balance did not arrive")

// session is one signed-in controller for the life of a command.
type session struct {
	app  *bootstrap.App
	ctrl *dashboard.Controller
}

func openSession(cmd *cobra.Command, signIn bool) (*session, error) {
	app, err := bootstrap.Build(cmd.Context(), loadConfig())
	if err != nil {
		return nil, err
	}
	client, err := app.NewClient()
	if err != nil {
		app.Close()
		return nil, err
	}
	s := &session{app: app, ctrl: app.NewController(client)}
	if !signIn {
		return s, nil
	}
	if emailFlag == "" || passwordFlag == "" {
		s.close()
		return nil, errors.New("--email and --password are required")
	}
	if err := s.ctrl.SignIn(cmd.Context(), emailFlag, passwordFlag); err != nil {
		s.close()
		return nil, err
	}
	return s, nil
}

func (s *session) close() {
	s.ctrl.Close()
	s.app.Close()
}

// waitFor blocks until cond holds for the controller's view.
func (s *session) waitFor(cmd *cobra.Command, timeout time.Duration, cond func(dashboard.View) bool) (dashboard.View, bool) {
	changes, stop := s.ctrl.Watch()
	defer stop()
	deadline := time.NewTimer(timeout)
	defer deadline.Stop()
	for {
		v := s.ctrl.View()
		if cond(v) {
			return v, true
		}
		select {
		case <-cmd.Context().Done():
			return v, false
		case <-deadline.C:
			return v, false
		case <-changes:
		}
	}
}

// report prints the region's status and turns an error status into an error.
func report(out io.Writer, v dashboard.View, region dashboard.Region) error {
	st := v.Status(region)
	if st.Empty() {
		return nil
	}
	if st.Level == dashboard.LevelError {
		return errors.New(st.Text)
	}
	fmt.Fprintln(out, st.Text)
	return nil
}

func formatCredits(v float64) string {
	return strconv.FormatFloat(v, 'f', 2, 64)
}

var signupCmd = &cobra.Command{
	Use:   "signup",
	Short: "Create an account with the initial credit grant",
	RunE: func(cmd *cobra.Command, args []string) error {
		if emailFlag == "" || passwordFlag == "" {
			return errors.New("--email and --password are required")
		}
		s, err := openSession(cmd, false)
		if err != nil {
			return err
		}
		defer s.close()
		if err := s.ctrl.SignUp(cmd.Context(), emailFlag, passwordFlag); err != nil {
			return err
		}
		v, _ := s.waitFor(cmd, balanceWait, func(v dashboard.View) bool { return v.BalanceKnown })
		fmt.Fprintf(cmd.OutOrStdout(), "signed up %s (%s), credits %s\n", v.Email, v.UserID, formatCredits(v.Balance))
		return report(cmd.OutOrStdout(), v, dashboard.RegionCredits)
	},
}

var filesCmd = &cobra.Command{
	Use:   "files",
	Short: "List uploaded files",
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := openSession(cmd, true)
		if err != nil {
			return err
		}
		defer s.close()
		v := s.ctrl.View()
		if err := report(cmd.OutOrStdout(), v, dashboard.RegionFiles); err != nil {
			return err
		}
		if v.FilesMessage != "" {
			fmt.Fprintln(cmd.OutOrStdout(), v.FilesMessage)
			return nil
		}
		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "NAME\tSIZE\tPAGES\tURL")
		for _, e := range v.Files {
			pages := ""
			if e.Pages > 0 {
				pages = strconv.Itoa(e.Pages)
			}
			fmt.Fprintf(w, "%s\t%d\t%s\t%s\n", e.Name, e.SizeBytes, pages, e.URL)
		}
		return w.Flush()
	},
}

var uploadCmd = &cobra.Command{
	Use:   "upload <file>",
	Short: "Upload a file, spending one upload's worth of credits",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		f, err := os.Open(args[0])
		if err != nil {
			return err
		}
		defer f.Close()

		s, err := openSession(cmd, true)
		if err != nil {
			return err
		}
		defer s.close()
		if _, ok := s.waitFor(cmd, balanceWait, func(v dashboard.View) bool { return v.BalanceKnown }); !ok {
			return errNoBalance
		}
		if err := s.ctrl.Upload(cmd.Context(), filepath.Base(args[0]), f); err != nil {
			return err
		}
		v := s.ctrl.View()
		if err := report(cmd.OutOrStdout(), v, dashboard.RegionUpload); err != nil {
			return err
		}
		return report(cmd.OutOrStdout(), v, dashboard.RegionCredits)
	},
}

var deleteYes bool

var deleteCmd = &cobra.Command{
	Use:   "delete <name>",
	Short: "Delete an uploaded file after confirmation",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := openSession(cmd, true)
		if err != nil {
			return err
		}
		defer s.close()

		path := ""
		for _, e := range s.ctrl.View().Files {
			if e.Name == args[0] {
				path = e.Path
				break
			}
		}
		if path == "" {
			return fmt.Errorf("no file named %q", args[0])
		}
		if err := s.ctrl.RequestDelete(path); err != nil {
			return err
		}
		if !deleteYes {
			fmt.Fprint(cmd.OutOrStdout(), s.ctrl.View().DeletePrompt+" [y/N] ")
			answer, _ := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
			if !strings.EqualFold(strings.TrimSpace(answer), "y") {
				s.ctrl.CancelDelete()
				fmt.Fprintln(cmd.OutOrStdout(), "cancelled")
				return nil
			}
		}
		if err := s.ctrl.ConfirmDelete(cmd.Context()); err != nil {
			return err
		}
		return report(cmd.OutOrStdout(), s.ctrl.View(), dashboard.RegionFiles)
	},
}

var (
	processResume string
	processJob    string
)

var processCmd = &cobra.Command{
	Use:   "process",
	Short: "Tailor an uploaded PDF resume to a job description",
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := openSession(cmd, true)
		if err != nil {
			return err
		}
		defer s.close()

		resumeURL := ""
		for _, e := range s.ctrl.View().ResumeOptions {
			if e.Name == processResume {
				resumeURL = e.URL
				break
			}
		}
		if resumeURL == "" {
			return fmt.Errorf("no PDF named %q", processResume)
		}
		if err := s.ctrl.Process(cmd.Context(), resumeURL, processJob); err != nil {
			return err
		}
		v := s.ctrl.View()
		if err := report(cmd.OutOrStdout(), v, dashboard.RegionProcess); err != nil {
			return err
		}
		printArtifacts(cmd.OutOrStdout(), v)
		return nil
	},
}

var processedCmd = &cobra.Command{
	Use:   "processed",
	Short: "List generated resumes grouped by document",
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := openSession(cmd, true)
		if err != nil {
			return err
		}
		defer s.close()
		v := s.ctrl.View()
		if err := report(cmd.OutOrStdout(), v, dashboard.RegionArtifacts); err != nil {
			return err
		}
		printArtifacts(cmd.OutOrStdout(), v)
		return nil
	},
}

func printArtifacts(out io.Writer, v dashboard.View) {
	if len(v.Artifacts) == 0 {
		fmt.Fprintln(out, "No processed resumes yet.")
		return
	}
	for _, g := range v.Artifacts {
		fmt.Fprintln(out, g.Title)
		for _, l := range g.Links {
			fmt.Fprintf(out, "  %s  %s\n", l.Filename, l.DownloadURL)
		}
	}
}

var creditsWatch bool

var creditsCmd = &cobra.Command{
	Use:   "credits",
	Short: "Show the credit balance, optionally following live changes",
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := openSession(cmd, true)
		if err != nil {
			return err
		}
		defer s.close()

		v, ok := s.waitFor(cmd, balanceWait, func(v dashboard.View) bool { return v.BalanceKnown })
		if !ok {
			return errNoBalance
		}
		printBalance(cmd.OutOrStdout(), v)
		if !creditsWatch {
			return nil
		}

		changes, stop := s.ctrl.Watch()
		defer stop()
		last := v.Balance
		for {
			select {
			case <-cmd.Context().Done():
				return nil
			case _, open := <-changes:
				if !open {
					return nil
				}
				v := s.ctrl.View()
				if !v.SignedIn() {
					return errors.New("session ended")
				}
				if v.BalanceKnown && v.Balance != last {
					last = v.Balance
					printBalance(cmd.OutOrStdout(), v)
				}
			}
		}
	},
}

func printBalance(out io.Writer, v dashboard.View) {
	fmt.Fprintf(out, "%s credits\n", formatCredits(v.Balance))
	if v.CreditsMessage != "" {
		fmt.Fprintln(out, v.CreditsMessage)
	}
}

var fetchPublic bool

var fetchCmd = &cobra.Command{
	Use:   "fetch <path>",
	Short: "Call a processing API path and print the response",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := openSession(cmd, !fetchPublic)
		if err != nil {
			return err
		}
		defer s.close()
		if err := s.ctrl.Fetch(cmd.Context(), args[0], !fetchPublic); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), s.ctrl.View().FetchResult)
		return nil
	},
}

func init() {
	deleteCmd.Flags().BoolVarP(&deleteYes, "yes", "y", false, "skip the confirmation prompt")
	processCmd.Flags().StringVar(&processResume, "resume", "", "name of an uploaded PDF")
	processCmd.Flags().StringVar(&processJob, "job", "", "job description URL")
	_ = processCmd.MarkFlagRequired("resume")
	_ = processCmd.MarkFlagRequired("job")
	creditsCmd.Flags().BoolVarP(&creditsWatch, "watch", "w", false, "print every balance change until interrupted")
	fetchCmd.Flags().BoolVar(&fetchPublic, "public", false, "call without a bearer token")
}
