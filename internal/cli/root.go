package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/oatext/internal/config"
	"github.com/oatext/internal/model"
	"github.com/oatext/internal/repository"
	"github.com/oatext/internal/store"
)

// Opener builds the repository a command works against.
type Opener func(ctx context.Context, opts store.Options) (*repository.Repository, error)

func openRepository(ctx context.Context, opts store.Options) (*repository.Repository, error) {
	engine, err := store.Open(ctx, opts)
	if err != nil {
		return nil, err
	}
	return repository.New(engine, nil), nil
}

// NewRootCommand assembles oatextctl. open may be nil to use the configured
// storage engine.
func NewRootCommand(open Opener) *cobra.Command {
	if open == nil {
		open = openRepository
	}
	cfg := config.Load()
	opts := store.Options{
		Driver:        cfg.StoreDriver,
		DatabasePath:  cfg.DatabasePath,
		MongoURI:      cfg.MongoURI,
		MongoDatabase: cfg.MongoDatabase,
	}

	root := &cobra.Command{
		Use:           "oatextctl",
		Short:         "Inspect and seed an OAText content store",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&opts.Driver, "driver", opts.Driver, "storage driver: sqlite, mongo or memory")
	root.PersistentFlags().StringVar(&opts.DatabasePath, "db", opts.DatabasePath, "Path to the sqlite database")
	root.PersistentFlags().StringVar(&opts.MongoURI, "mongo-uri", opts.MongoURI, "MongoDB connection string")
	root.PersistentFlags().StringVar(&opts.MongoDatabase, "mongo-db", opts.MongoDatabase, "MongoDB database name")

	withRepo := func(run func(cmd *cobra.Command, repo *repository.Repository, args []string) error) func(*cobra.Command, []string) error {
		return func(cmd *cobra.Command, args []string) error {
			repo, err := open(cmd.Context(), opts)
			if err != nil {
				return err
			}
			defer repo.Close()
			return run(cmd, repo, args)
		}
	}

	root.AddCommand(
		newCountCommand(withRepo),
		newGetCommand(withRepo),
		newSearchCommand(withRepo),
		newSeedCommand(withRepo),
	)
	return root
}

type repoRunner func(run func(cmd *cobra.Command, repo *repository.Repository, args []string) error) func(*cobra.Command, []string) error

func newCountCommand(withRepo repoRunner) *cobra.Command {
	return &cobra.Command{
		Use:   "count <kind>",
		Short: "Print the number of stored records of a kind",
		Args:  cobra.ExactArgs(1),
		RunE: withRepo(func(cmd *cobra.Command, repo *repository.Repository, args []string) error {
			kind, err := model.ParseKind(args[0])
			if err != nil {
				return fmt.Errorf("unknown kind %q", args[0])
			}
			n, err := repo.Count(cmd.Context(), kind)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), n)
			return nil
		}),
	}
}

func newGetCommand(withRepo repoRunner) *cobra.Command {
	var fields []string
	cmd := &cobra.Command{
		Use:   "get <kind> <id>",
		Short: "Print one record as JSON",
		Args:  cobra.ExactArgs(2),
		RunE: withRepo(func(cmd *cobra.Command, repo *repository.Repository, args []string) error {
			kind, err := model.ParseKind(args[0])
			if err != nil {
				return fmt.Errorf("unknown kind %q", args[0])
			}
			id, err := strconv.ParseInt(args[1], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid id %q", args[1])
			}

			if len(fields) > 0 {
				partial, err := repo.GetPartial(cmd.Context(), kind, id, fields...)
				if err != nil {
					return err
				}
				return writeJSON(cmd.OutOrStdout(), partial)
			}
			rec, err := repo.Get(cmd.Context(), kind, id)
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), rec)
		}),
	}
	cmd.Flags().StringSliceVar(&fields, "fields", nil, "only print these fields")
	return cmd
}

func newSearchCommand(withRepo repoRunner) *cobra.Command {
	return &cobra.Command{
		Use:   "search <kind> <term>",
		Short: "List ids of records whose text contains term",
		Args:  cobra.ExactArgs(2),
		RunE: withRepo(func(cmd *cobra.Command, repo *repository.Repository, args []string) error {
			kind, err := model.ParseKind(args[0])
			if err != nil {
				return fmt.Errorf("unknown kind %q", args[0])
			}
			records, err := repo.Search(cmd.Context(), kind, args[1])
			if err != nil {
				return err
			}
			for _, rec := range records {
				fmt.Fprintln(cmd.OutOrStdout(), rec.RecordID())
			}
			return nil
		}),
	}
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
