package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/citypulse/client/internal/config"
	"github.com/citypulse/client/internal/eventloop"
	"github.com/citypulse/client/internal/server"
	"github.com/citypulse/client/internal/storage"
	"github.com/citypulse/client/internal/view"
	"github.com/citypulse/client/pkg/core"
)

// withApp runs fn against a located session and always tears it down.
func withApp(cmd *cobra.Command, fn func(ctx context.Context, a *app) error) error {
	a, err := newApp(cmd)
	if err != nil {
		return err
	}
	ctx := cmd.Context()
	if err := a.begin(ctx); err != nil {
		a.Close()
		return err
	}
	if err := fn(ctx, a); err != nil {
		a.Close()
		return err
	}
	return a.finish()
}

func newDiscoverCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "discover",
		Short: "Show events, restaurants and alerts near the session location",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(cmd, func(ctx context.Context, a *app) error {
				if err := a.do(ctx, "discover"); err != nil {
					return err
				}
				return a.printRecords(cmd.OutOrStdout())
			})
		},
	}
}

func newSearchCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "search <query>",
		Short: "Search near the session location",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, func(ctx context.Context, a *app) error {
				if err := a.do(ctx, "search", strings.Join(args, " ")); err != nil {
					return err
				}
				return a.printRecords(cmd.OutOrStdout())
			})
		},
	}
}

func newSuggestCmd() *cobra.Command {
	var (
		keys  []string
		delay time.Duration
	)
	cmd := &cobra.Command{
		Use:   "suggest <text>",
		Short: "Type text into the search box one character at a time, then press keys",
		Long: "Types text with a delay between characters so the suggestion debounce\n" +
			"applies as it would for a person typing, then presses each key in\n" +
			"--keys (ArrowDown, ArrowUp, Enter, Tab, Escape) once the list settles.",
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			text := strings.Join(args, " ")
			return withApp(cmd, func(ctx context.Context, a *app) error {
				runes := []rune(text)
				for i := range runes {
					if err := a.loop.Dispatch(eventloop.Event{Command: "type", Args: []string{string(runes[:i+1])}}); err != nil {
						return err
					}
					select {
					case <-ctx.Done():
						return ctx.Err()
					case <-time.After(delay):
					}
				}
				if err := a.settle(ctx); err != nil {
					return err
				}
				for _, k := range keys {
					if err := a.do(ctx, "key", k); err != nil {
						return err
					}
				}
				return a.printRecords(cmd.OutOrStdout())
			})
		},
	}
	cmd.Flags().StringSliceVar(&keys, "keys", nil, "keys to press after typing, comma separated")
	cmd.Flags().DurationVar(&delay, "delay", 80*time.Millisecond, "delay between typed characters")
	return cmd
}

func newDetailCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "detail [query]",
		Short: "Open the detail view of one result, fetch insights and print directions",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, func(ctx context.Context, a *app) error {
				id, err := a.pickRecord(ctx, args)
				if err != nil {
					return err
				}
				if err := a.do(ctx, "learn-more", id); err != nil {
					return err
				}
				if err := a.do(ctx, "insights"); err != nil {
					return err
				}

				var d view.Directions
				if cerr := a.onLoop(func() { d, err = a.sess.Directions(view.ParsePlatform(platform)) }); cerr != nil {
					return cerr
				}
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				if d.Native != "" {
					fmt.Fprintf(out, "Directions (app): %s\n", d.Native)
				}
				fmt.Fprintf(out, "Directions (web): %s\n", d.Web)
				return nil
			})
		},
	}
	cmd.Flags().IntVar(&pick, "pick", 0, "index of the result to open")
	cmd.Flags().StringVar(&platform, "platform", "desktop", "directions platform: desktop, ios or android")
	return cmd
}

func newShareCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "share [query]",
		Short: "Create a share link for one result",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, func(ctx context.Context, a *app) error {
				id, err := a.pickRecord(ctx, args)
				if err != nil {
					return err
				}
				if err := a.do(ctx, "learn-more", id); err != nil {
					return err
				}
				return a.do(ctx, "share")
			})
		},
	}
	cmd.Flags().IntVar(&pick, "pick", 0, "index of the result to share")
	return cmd
}

func newSharedCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "shared <id>",
		Short: "Open a location someone shared",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, func(ctx context.Context, a *app) error {
				return a.do(ctx, "open-shared", args[0])
			})
		},
	}
}

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the development backend",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			rt, err := setupRuntime(cmd)
			if err != nil {
				return err
			}
			defer rt.Close()

			sc := config.GetServerConfig()
			fixtures, err := server.LoadFixtures(sc.Fixtures)
			if err != nil {
				return err
			}

			store, err := storage.NewBackend(config.GetDBConfig(), rt.zlog)
			if err != nil {
				return err
			}
			if err := store.Init(); err != nil {
				return err
			}
			defer store.Close()

			srv := server.New(server.NewIndex(fixtures), store, sc.Radius, rt.zlog)
			err = srv.Run(cmd.Context(), sc.Listen)
			if errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		},
	}
}

// pickRecord runs a search (or a discovery without a query) and returns
// the id of the pick-th placed record.
func (a *app) pickRecord(ctx context.Context, args []string) (string, error) {
	var err error
	if len(args) > 0 {
		err = a.do(ctx, "search", strings.Join(args, " "))
	} else {
		err = a.do(ctx, "discover")
	}
	if err != nil {
		return "", err
	}

	var recs []core.DetailRecord
	if err := a.onLoop(func() { recs = a.sess.Registry.Records() }); err != nil {
		return "", err
	}
	if pick < 0 || pick >= len(recs) {
		return "", fmt.Errorf("no result at index %d (%d results)", pick, len(recs))
	}
	return recs[pick].ID, nil
}

func (a *app) printRecords(w io.Writer) error {
	var recs []core.DetailRecord
	if err := a.onLoop(func() { recs = a.sess.Registry.Records() }); err != nil {
		return err
	}
	for i, r := range recs {
		note := ""
		if r.Synthesized {
			note = " (approximate position)"
		}
		fmt.Fprintf(w, "[%d] %s %s: %s%s\n", i, r.Category.Badge(), r.Category.Style().Label, r.Name, note)
	}
	return nil
}
