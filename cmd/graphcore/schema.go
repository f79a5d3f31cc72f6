package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	blog "github.com/hanpama/graphcore/internal/blog"
	schema "github.com/hanpama/graphcore/internal/schema"
)

func newSchemaCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "schema",
		Short: "Print the blog schema in SDL",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			s, err := blog.NewSchema(nil)
			if err != nil {
				return err
			}
			sdl := schema.Render(s)
			if out := a.conf.GetString("out"); out != "" {
				if err := os.WriteFile(out, []byte(sdl), 0o644); err != nil {
					return err
				}
				a.logger.Info("schema written", zap.String("path", out))
				return nil
			}
			_, err = fmt.Fprint(cmd.OutOrStdout(), sdl)
			return err
		},
	}
	cmd.Flags().StringP("out", "o", "", "Write the schema to this file instead of stdout")
	return cmd
}
