package cmd

import (
	"encoding/json"
	"os"

	"knowhow-editor/pkg/core"
	"knowhow-editor/pkg/services"

	"github.com/spf13/cobra"
)

func TreeCmd() *cobra.Command {
	c := &cobra.Command{
		Use:   "tree",
		Short: "Prints the content tree as JSON",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			app, err := core.NewApp(cfg)
			if err != nil {
				return err
			}

			tree, err := app.Tree.Build(cmd.Context())
			if err != nil {
				return err
			}

			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			if flat, _ := cmd.Flags().GetBool(FlagFlat); flat {
				return enc.Encode(services.Flatten(tree))
			}
			return enc.Encode(tree)
		},
	}
	c.Flags().Bool(FlagFlat, false, "print only the markdown files, in tree order")
	return c
}
