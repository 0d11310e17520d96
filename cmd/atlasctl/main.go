package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"log/slog"
	"os"
	"sort"
	"strings"
	"text/tabwriter"

	"github.com/docopt/docopt-go"

	"Atlas/internal/atproto/pds"
	"Atlas/internal/config"
	"Atlas/internal/core/cards"
	"Atlas/internal/core/votes"
)

const AtlasCtlVersion = "0.1.0"

const usage = `Atlas control.

Vote on and save points of interest from the command line.
Credentials default to $ATLAS_HANDLE and $ATLAS_PASSWORD, the PDS to $PDS_URL.

Usage:
    atlasctl cast <subject> [--down] [options]
    atlasctl remove <subject> [options]
    atlasctl save <subject> [options]
    atlasctl unsave <subject> [options]
    atlasctl list [--json] [options]
    atlasctl cards
    atlasctl -h | --help
    atlasctl --version

Options:
    -h --help              Show this screen.
    --version              Show version.
    --down                 Vote down instead of up.
    --json                 Print the vote index as JSON.
    --handle=<handle>      Account handle or DID.
    --password=<password>  App password.
    --pds=<url>            PDS host.`

// loginFunc opens an authenticated PDS client
type loginFunc func(ctx context.Context, host, handle, password string) (pds.Client, error)

func main() {
	opts, err := docopt.ParseArgs(usage, os.Args[1:], AtlasCtlVersion)
	if err != nil {
		log.Fatal(err)
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: cfg.SlogLevel()})))

	if err := run(context.Background(), opts, cfg, pds.NewFromPasswordAuth, os.Stdout); err != nil {
		log.Fatal(err)
	}
}

func run(ctx context.Context, opts docopt.Opts, cfg *config.Config, login loginFunc, out io.Writer) error {
	if cardsCmd, _ := opts.Bool("cards"); cardsCmd {
		return listCards(ctx, cfg, out)
	}

	client, err := login(ctx, stringOpt(opts, "--pds", cfg.PDSURL), stringOpt(opts, "--handle", os.Getenv("ATLAS_HANDLE")), stringOpt(opts, "--password", os.Getenv("ATLAS_PASSWORD")))
	if err != nil {
		return fmt.Errorf("login: %w", err)
	}

	service := votes.NewService(cfg.VoteCollection, nil, slog.Default())
	subject, _ := opts.String("<subject>")

	if cast, _ := opts.Bool("cast"); cast {
		direction := votes.KindUp
		if down, _ := opts.Bool("--down"); down {
			direction = votes.KindDown
		}
		if err := service.CastVote(ctx, client, subject, direction); err != nil {
			return err
		}
		_, err := fmt.Fprintf(out, "voted %s on %s\n", direction, subject)
		return err
	} else if remove, _ := opts.Bool("remove"); remove {
		if err := service.RemoveVote(ctx, client, subject); err != nil {
			return err
		}
		_, err := fmt.Fprintf(out, "removed vote on %s\n", subject)
		return err
	} else if save, _ := opts.Bool("save"); save {
		if err := service.SavePOI(ctx, client, subject); err != nil {
			return err
		}
		_, err := fmt.Fprintf(out, "saved %s\n", subject)
		return err
	} else if unsave, _ := opts.Bool("unsave"); unsave {
		if err := service.UnsavePOI(ctx, client, subject); err != nil {
			return err
		}
		_, err := fmt.Fprintf(out, "unsaved %s\n", subject)
		return err
	} else if list, _ := opts.Bool("list"); list {
		index, err := service.GetUserVotes(ctx, client)
		if err != nil {
			return err
		}
		asJSON, _ := opts.Bool("--json")
		return printIndex(out, index, asJSON)
	}

	return fmt.Errorf("no command given")
}

// stringOpt returns the option's value, or fallback when it was not passed
func stringOpt(opts docopt.Opts, key, fallback string) string {
	if v, err := opts.String(key); err == nil && v != "" {
		return v
	}
	return fallback
}

func printIndex(out io.Writer, index votes.Index, asJSON bool) error {
	if asJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(index)
	}

	keys := make([]string, 0, len(index))
	for key := range index {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	for _, key := range keys {
		record := index[key]
		kind, _, _ := strings.Cut(key, ":")
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", kind, record.Vote, record.Subject, record.CreatedAt)
	}
	return tw.Flush()
}

func listCards(ctx context.Context, cfg *config.Config, out io.Writer) error {
	service := cards.NewService(cards.NewHTTPFeedSource(cfg.CardFeedURL, 0), cfg.CardImageCDN, slog.Default())

	list, err := service.ListCards(ctx)
	if err != nil {
		return err
	}

	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	for _, card := range list {
		fmt.Fprintf(tw, "%s\t%s\n", card.Name, card.URI)
	}
	return tw.Flush()
}
