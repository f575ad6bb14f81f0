package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/claytonlovin/Botinho"
	"github.com/claytonlovin/Botinho/internal/cli"
	"github.com/claytonlovin/Botinho/internal/presentation/graph"
	"github.com/claytonlovin/Botinho/internal/tree"
	"github.com/claytonlovin/Botinho/pkg/adapters/sqlite"
	"github.com/claytonlovin/Botinho/pkg/registry"
	"github.com/spf13/cobra"
)

var treeCmd = &cobra.Command{
	Use:   "tree",
	Short: "Inspect and manage the dialog tree",
}

var treeValidateCmd = &cobra.Command{
	Use:   "validate [file]",
	Short: "Check a tree document for consistency",
	Long: `Loads a YAML or JSON tree document and reports unknown references,
duplicate ids, repeated choice keys, unknown validators and nodes without
a way forward. Without a file the configured tree is checked.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		t, err := loadTree(cmd, args)
		if err != nil {
			return fmt.Errorf("validation failed: %w", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Tree %q is valid! ✅ (%d nodes)\n", t.Title, t.Len())
		return nil
	},
}

var treeGraphCmd = &cobra.Command{
	Use:   "graph [file]",
	Short: "Print the tree as a Mermaid flowchart",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		t, err := loadTree(cmd, args)
		if err != nil {
			return err
		}
		fmt.Fprint(cmd.OutOrStdout(), graph.GenerateMermaid(t.Nodes(), nil))
		return nil
	},
}

var treeImportCmd = &cobra.Command{
	Use:   "import <file>",
	Short: "Store a tree document in the tree database",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		doc, err := os.ReadFile(args[0])
		if err != nil {
			return err
		}
		repo, err := openTreeDB()
		if err != nil {
			return err
		}
		defer repo.Close()

		if _, err := botinho.SeedTree(cmd.Context(), repo, doc, registry.Default()); err != nil {
			return err
		}
		title, err := repo.Title(cmd.Context())
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Imported %q into %s\n", title, cfg.TreeDB)
		return nil
	},
}

var treeExportCmd = &cobra.Command{
	Use:   "export",
	Short: "Print the tree stored in the tree database",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		repo, err := openTreeDB()
		if err != nil {
			return err
		}
		defer repo.Close()

		raw, err := repo.GetTree(cmd.Context())
		if err != nil {
			return err
		}
		_, err = cmd.OutOrStdout().Write(append(raw, '\n'))
		return err
	},
}

func init() {
	rootCmd.AddCommand(treeCmd)
	treeCmd.AddCommand(treeValidateCmd, treeGraphCmd, treeImportCmd, treeExportCmd)
}

// loadTree reads the file given as argument, or the configured tree.
func loadTree(cmd *cobra.Command, args []string) (*tree.Tree, error) {
	if len(args) == 0 {
		return cli.OpenTree(cmd.Context(), cfg)
	}
	doc, err := os.ReadFile(args[0])
	if err != nil {
		return nil, err
	}
	return tree.Load(doc, registry.Default())
}

func openTreeDB() (*sqlite.TreeRepository, error) {
	if cfg.TreeDB == "" {
		return nil, errors.New("BOTINHO_TREE_DB is not set")
	}
	return sqlite.Open(cfg.TreeDB)
}
