package main

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"github.com/samirrijal/wanderlust/internal/adapters/agentclient"
	"github.com/samirrijal/wanderlust/internal/core/domain"
	"github.com/samirrijal/wanderlust/internal/core/ports"
	"github.com/samirrijal/wanderlust/internal/core/usecases"
	"github.com/samirrijal/wanderlust/internal/pkg/logging"
)

// Version info set via ldflags at build time.
var (
	Version = "dev"
	Commit  = "none"
)

type plannerOptions struct {
	prompt    string
	delay     time.Duration
	timeout   time.Duration
	asJSON    bool
	remoteURL string
	token     string
	logLevel  string
}

func newRootCmd() *cobra.Command {
	var opts plannerOptions
	cmd := &cobra.Command{
		Use:   "planner",
		Short: "Plan a trip by chatting with the roadmap generator",
		Long: "Reads one message per line from stdin and prints each reply with the\n" +
			"updated itinerary. The first message picks the destination; later\n" +
			"messages add days.",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPlanner(cmd.Context(), cmd, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.prompt, "prompt", "p", "", "first message, sent before reading stdin")
	cmd.Flags().DurationVar(&opts.delay, "delay", time.Second, "pause before each reply")
	cmd.Flags().DurationVar(&opts.timeout, "timeout", 30*time.Second, "give up on a reply after this long (0 disables)")
	cmd.Flags().BoolVar(&opts.asJSON, "json", false, "print the full itinerary as JSON after each reply")
	cmd.Flags().StringVar(&opts.remoteURL, "remote", "", "use the agent endpoint at this URL instead of local rules")
	cmd.Flags().StringVar(&opts.token, "token", os.Getenv("WANDERLUST_TOKEN"), "bearer token for --remote")
	cmd.Flags().StringVar(&opts.logLevel, "log-level", "warn", "log level (debug, info, warn, error)")

	cmd.AddCommand(newVersionCmd())
	return cmd
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "planner %s (commit: %s)\n", Version, Commit)
		},
	}
}

func runPlanner(ctx context.Context, cmd *cobra.Command, opts plannerOptions) error {
	if ctx == nil {
		ctx = context.Background()
	}
	logger := logging.New(cmd.ErrOrStderr(), opts.logLevel, "text")

	var generator ports.ResponseGenerator = usecases.NewRuleGenerator()
	if opts.remoteURL != "" {
		generator = agentclient.New(opts.remoteURL, opts.token, opts.timeout)
	}

	session := usecases.NewSession(generator,
		usecases.WithDelay(usecases.TimerDelay{}, opts.delay),
		usecases.WithTimeout(opts.timeout),
		usecases.WithLogger(logger),
	)

	out := cmd.OutOrStdout()
	in := cmd.InOrStdin()
	interactive := isTerminal(in)

	if strings.TrimSpace(opts.prompt) != "" {
		if err := exchange(ctx, session, out, opts.prompt, opts.asJSON); err != nil {
			return err
		}
	}

	scanner := bufio.NewScanner(in)
	for {
		if interactive {
			fmt.Fprint(out, "> ")
		}
		if !scanner.Scan() {
			break
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if err := exchange(ctx, session, out, line, opts.asJSON); err != nil {
			return err
		}
	}
	return scanner.Err()
}

// exchange submits one message and prints the reply once it arrives.
func exchange(ctx context.Context, session *usecases.Session, out io.Writer, text string, asJSON bool) error {
	done, err := session.Submit(ctx, text)
	if err != nil {
		return fmt.Errorf("submit: %w", err)
	}

	var outcome usecases.Outcome
	select {
	case outcome = <-done:
	case <-ctx.Done():
		return ctx.Err()
	}

	fmt.Fprintf(out, "assistant: %s\n", outcome.Reply.Content)
	if outcome.Itinerary == nil {
		return nil
	}
	if asJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(outcome.Itinerary)
	}
	printItinerary(out, outcome.Itinerary)
	return nil
}

func printItinerary(w io.Writer, it *domain.Itinerary) {
	fmt.Fprintf(w, "\n%s (%d days)\n", it.Title, len(it.Days))
	for _, d := range it.Days {
		date := "undated"
		if d.Date != nil {
			date = d.Date.String()
		}
		fmt.Fprintf(w, "  Day %d  %s  %s\n", d.Day, date, d.Summary)
		for _, a := range d.Activities {
			fmt.Fprintf(w, "    %-5s  %s, %s\n", a.Time, a.Title, a.Location)
		}
	}
	fmt.Fprintln(w)
}

func isTerminal(r io.Reader) bool {
	f, ok := r.(*os.File)
	return ok && (isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd()))
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
