package commands

import (
	"context"
	"fmt"
	"path/filepath"
	"strconv"

	"github.com/ghiro/autoupload/internal/config"
	"github.com/ghiro/autoupload/internal/core"
	"github.com/ghiro/autoupload/internal/host"
	"github.com/ghiro/autoupload/pkg/fsx"
	"github.com/ghiro/autoupload/pkg/logx"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

var (
	flagCaseName  string
	flagCaseOwner string
)

var casesCmd = &cobra.Command{
	Use:   "cases",
	Short: "Manage the cases known to the host database",
}

var casesListCmd = &cobra.Command{
	Use:   "list",
	Short: "List cases with their upload directory",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		store, err := host.Open(cmd.Context(), *cfg.Host)
		if err != nil {
			return err
		}
		defer closeStore(store)

		out, err := listCases(cmd.Context(), store, *cfg.Monitor)
		if err != nil {
			return err
		}

		fmt.Fprintln(cmd.OutOrStdout(), out)
		return nil
	},
}

var casesCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Create a case owned by a user, creating the user if needed",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		store, err := host.Open(cmd.Context(), *cfg.Host)
		if err != nil {
			return err
		}
		defer closeStore(store)

		c, err := createCase(cmd.Context(), store, flagCaseName, flagCaseOwner)
		if err != nil {
			return err
		}

		fmt.Fprintf(cmd.OutOrStdout(), "Created case %d (%s), upload directory %s\n",
			c.ID, c.Name, filepath.Join(cfg.Monitor.WatchRoot, c.DirectoryName()))
		return nil
	},
}

func init() {
	casesCreateCmd.Flags().StringVar(&flagCaseName, "name", "", "case name")
	casesCreateCmd.Flags().StringVar(&flagCaseOwner, "owner", "", "username of the case owner")
	_ = casesCreateCmd.MarkFlagRequired("name")
	_ = casesCreateCmd.MarkFlagRequired("owner")

	casesCmd.AddCommand(casesListCmd)
	casesCmd.AddCommand(casesCreateCmd)
}

func closeStore(store *host.Store) {
	if err := store.Close(); err != nil {
		logx.As().Warn().Err(err).Str("database", store.Path()).Msg("Failed to close host database")
	}
}

func createCase(ctx context.Context, store *host.Store, name string, owner string) (*core.Case, error) {
	if name == "" || owner == "" {
		return nil, errors.New("case name and owner are required")
	}

	user, err := store.GetUserByName(ctx, owner)
	if errors.Is(err, host.ErrUserNotFound) {
		user, err = store.CreateUser(ctx, owner)
	}
	if err != nil {
		return nil, err
	}

	return store.CreateCase(ctx, name, user)
}

// listCases renders the cases of the registry with the number of files waiting in each
// case directory.
func listCases(ctx context.Context, registry core.CaseRegistry, mc config.MonitorConfig) (string, error) {
	cases, err := registry.ListCases(ctx)
	if err != nil {
		return "", err
	}

	ignore, err := fsx.CompilePatterns(mc.IgnorePatterns)
	if err != nil {
		return "", err
	}

	rows := make([][]string, 0, len(cases))
	for _, c := range cases {
		dir := filepath.Join(mc.WatchRoot, c.DirectoryName())
		pending := "-"
		if fsx.DirExists(dir) {
			n, err := countPending(mc.WatchRoot, dir, ignore, mc.BatchSize)
			if err != nil {
				return "", err
			}
			pending = strconv.Itoa(n)
		}

		owner := ""
		if c.Owner != nil {
			owner = c.Owner.Username
		}

		rows = append(rows, []string{strconv.FormatInt(c.ID, 10), c.Name, owner, dir, pending})
	}

	return renderTable(
		[]string{"ID", "Name", "Owner", "Directory", "Pending"},
		rows,
		[]columnAlignment{alignRight, alignLeft, alignLeft, alignLeft, alignRight},
	), nil
}

// countPending counts the files directly inside dir that the monitor would pick up.
// Ignore patterns are matched relative to root, as the monitor does.
func countPending(root string, dir string, ignore *fsx.Patterns, batchSize int) (int, error) {
	files, err := fsx.MatchFilePatterns(dir, []string{"*"}, batchSize)
	if err != nil {
		return 0, err
	}

	n := 0
	for _, f := range files {
		if filepath.Dir(f) != filepath.Clean(dir) {
			continue
		}
		if rel, err := filepath.Rel(root, f); err == nil && ignore.Match(rel) {
			continue
		}
		n++
	}

	return n, nil
}
