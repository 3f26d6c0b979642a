package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"syscall"
	"text/tabwriter"
	"time"

	"golang.org/x/term"

	"github.com/Strob0t/cardsmarket/internal/adapter/marketapi"
	"github.com/Strob0t/cardsmarket/internal/auth"
	"github.com/Strob0t/cardsmarket/internal/config"
	"github.com/Strob0t/cardsmarket/internal/domain/card"
	"github.com/Strob0t/cardsmarket/internal/domain/trade"
	"github.com/Strob0t/cardsmarket/internal/domain/user"
	"github.com/Strob0t/cardsmarket/internal/secrets"
)

// stdout is where CLI output goes; tests replace it.
var stdout io.Writer = os.Stdout

// runCLI dispatches cli subcommands.
func runCLI(args []string) error {
	if len(args) == 0 || args[0] == "help" || args[0] == "--help" {
		printCLIHelp()
		return nil
	}

	switch args[0] {
	case "ping":
		return runPing(args[1:])
	case "cards":
		return runCards(args[1:])
	case "trades":
		return runTrades(args[1:])
	case "login":
		return runLogin(args[1:])
	case "check-email":
		return runCheckEmail(args[1:])
	default:
		printCLIHelp()
		return fmt.Errorf("unknown cli command: %s", args[0])
	}
}

func printCLIHelp() {
	fmt.Fprintf(os.Stderr, `Usage: cardsmarket cli <command> [options]

Commands:
  ping          Send one keep-alive request to the API
  cards         List cards (--search, --page, --rpp)
  trades        List trades (--page, --rpp, --user)
  login         Sign in and show token details (--email, defaults to CARDSMARKET_EMAIL)
  check-email   Report whether an email is registered (--email)
  help          Show this help message

Examples:
  cardsmarket cli cards --search dragon --page 2
  cardsmarket cli login --email ada@example.com
`)
}

func loadCLIApp() (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	return newApp(cfg)
}

func cliContext(a *app) (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), a.cfg.API.Timeout+5*time.Second)
}

func runPing(args []string) error {
	fs := flag.NewFlagSet("ping", flag.ContinueOnError)
	if err := fs.Parse(args); err != nil {
		return err
	}

	a, err := loadCLIApp()
	if err != nil {
		return err
	}
	ctx, cancel := cliContext(a)
	defer cancel()

	start := time.Now()
	if err := a.keepAlive.Ping(ctx); err != nil {
		return fmt.Errorf("ping: %w", err)
	}
	_, _ = fmt.Fprintf(stdout, "ok %s (%s)\n", a.client.BaseURL(), time.Since(start).Round(time.Millisecond))
	return nil
}

func runCards(args []string) error {
	fs := flag.NewFlagSet("cards", flag.ContinueOnError)
	search := fs.String("search", "", "name filter")
	page := fs.Int("page", 0, "page number")
	rpp := fs.Int("rpp", 0, "results per page")
	if err := fs.Parse(args); err != nil {
		return err
	}

	a, err := loadCLIApp()
	if err != nil {
		return err
	}
	ctx, cancel := cliContext(a)
	defer cancel()

	if err := a.cards.FetchAllCards(ctx, card.Filters{Search: *search, Page: *page, RPP: *rpp}); err != nil {
		return err
	}

	w := tabwriter.NewWriter(stdout, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "ID\tNAME\tCREATED")
	for _, c := range a.cards.AllCards() {
		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\n", c.ID, c.Name, c.CreatedAt.Format(time.DateOnly))
	}
	p := a.cards.Pagination()
	_, _ = fmt.Fprintf(w, "\npage %d, %d per page, more: %t\n", p.Page, p.RPP, p.More)
	return w.Flush()
}

func runTrades(args []string) error {
	fs := flag.NewFlagSet("trades", flag.ContinueOnError)
	page := fs.Int("page", 0, "page number")
	rpp := fs.Int("rpp", 0, "results per page")
	userID := fs.String("user", "", "only trades of this user id")
	if err := fs.Parse(args); err != nil {
		return err
	}

	a, err := loadCLIApp()
	if err != nil {
		return err
	}
	ctx, cancel := cliContext(a)
	defer cancel()

	if err := a.trades.FetchAllTrades(ctx, trade.Filters{Page: *page, RPP: *rpp, UserID: *userID}); err != nil {
		return err
	}

	w := tabwriter.NewWriter(stdout, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "ID\tTRADER\tOFFERING\tRECEIVING")
	for _, t := range a.trades.Trades() {
		var offering, receiving int
		for _, tc := range t.TradeCards {
			switch tc.Type {
			case trade.Offering:
				offering++
			case trade.Receiving:
				receiving++
			}
		}
		_, _ = fmt.Fprintf(w, "%s\t%s\t%d\t%d\n", t.ID, t.User.Name, offering, receiving)
	}
	return w.Flush()
}

func runLogin(args []string) error {
	fs := flag.NewFlagSet("login", flag.ContinueOnError)
	email := fs.String("email", "", "account email (required)")
	password := fs.String("password", "", "password (prompted if not provided)") //nolint:gosec // CLI flag
	if err := fs.Parse(args); err != nil {
		return err
	}

	a, err := loadCLIApp()
	if err != nil {
		return err
	}

	pass := *password
	if *email == "" {
		// Fall back to the configured service account.
		var ok bool
		if *email, pass, ok = a.vault.Credentials(); !ok {
			return fmt.Errorf("--email is required when %s is not set", secrets.EmailKey)
		}
	}
	if !auth.ValidEmail(*email) {
		return fmt.Errorf("--email must be a valid email address")
	}
	if pass == "" {
		pass, err = promptPassword("Password: ")
		if err != nil {
			return fmt.Errorf("read password: %w", err)
		}
	}

	ctx, cancel := cliContext(a)
	defer cancel()

	if err := a.auth.Login(ctx, user.LoginRequest{Email: *email, Password: pass}); err != nil {
		if apiErr, ok := marketapi.AsAPIError(err); ok {
			return fmt.Errorf("login: %s", marketapi.MessageForCode(apiErr.Code))
		}
		return err
	}

	_, _ = fmt.Fprintf(stdout, "Signed in as %s (%s)\n", a.auth.DisplayName(), a.auth.Initials())
	_, _ = fmt.Fprintf(stdout, "Token expires in %d minutes\n", a.auth.TokenMinutesRemaining())
	return nil
}

func runCheckEmail(args []string) error {
	fs := flag.NewFlagSet("check-email", flag.ContinueOnError)
	email := fs.String("email", "", "email to check (required)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *email == "" {
		return fmt.Errorf("--email is required")
	}

	a, err := loadCLIApp()
	if err != nil {
		return err
	}
	ctx, cancel := cliContext(a)
	defer cancel()

	if a.authAPI.EmailExists(ctx, *email) {
		_, _ = fmt.Fprintf(stdout, "%s is registered\n", *email)
	} else {
		_, _ = fmt.Fprintf(stdout, "%s is available\n", *email)
	}
	return nil
}

// promptPassword reads a password from the terminal without echoing.
func promptPassword(prompt string) (string, error) {
	fmt.Fprint(os.Stderr, prompt)
	b, err := term.ReadPassword(int(syscall.Stdin)) //nolint:unconvert // int conversion needed on some platforms
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return "", err
	}
	return string(b), nil
}
