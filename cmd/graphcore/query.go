package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	blog "github.com/hanpama/graphcore/internal/blog"
	engine "github.com/hanpama/graphcore/internal/engine"
	reqid "github.com/hanpama/graphcore/internal/reqid"
)

func newQueryCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "query [document]",
		Short: "Execute one GraphQL document against the blog and print the result",
		Long: `query executes a single document and prints the JSON response.

The document is taken from the argument, or from --file ("-" reads stdin).
The command exits non-zero when the response carries errors; the response
is printed either way.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			req, err := a.queryRequest(cmd, args)
			if err != nil {
				return err
			}

			store, err := a.openStore()
			if err != nil {
				return err
			}
			defer store.Close()
			s, err := blog.NewSchema(store)
			if err != nil {
				return err
			}
			e := engine.New(s, engine.WithLogger(a.logger), engine.WithTimeout(a.conf.GetDuration("timeout")))

			ctx, _ := reqid.NewContext(cmd.Context())
			result := e.Execute(ctx, req, nil)

			enc := json.NewEncoder(cmd.OutOrStdout())
			if a.conf.GetBool("pretty") {
				enc.SetIndent("", "  ")
			}
			if err := enc.Encode(result); err != nil {
				return err
			}
			if n := len(result.Errors); n > 0 {
				return fmt.Errorf("query returned %d error(s)", n)
			}
			return nil
		},
	}
	flags := cmd.Flags()
	flags.StringP("file", "f", "", "Read the document from this file; \"-\" reads stdin")
	flags.String("variables", "", "Variables as a JSON object")
	flags.String("operation", "", "Operation to run when the document has several")
	flags.Duration("timeout", engine.DefaultTimeout, "Operation timeout")
	flags.Bool("pretty", true, "Indent the JSON output")
	return cmd
}

func (a *app) queryRequest(cmd *cobra.Command, args []string) (engine.Request, error) {
	req := engine.Request{OperationName: a.conf.GetString("operation")}
	file := a.conf.GetString("file")
	switch {
	case len(args) == 1 && file != "":
		return req, errors.New("give the document either as an argument or with --file, not both")
	case len(args) == 1:
		req.Query = args[0]
	case file == "-":
		b, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return req, errors.Wrap(err, "read stdin")
		}
		req.Query = string(b)
	case file != "":
		b, err := os.ReadFile(file)
		if err != nil {
			return req, errors.Wrap(err, "read document")
		}
		req.Query = string(b)
	default:
		return req, errors.New("no document given")
	}
	if vars := a.conf.GetString("variables"); vars != "" {
		if err := json.Unmarshal([]byte(vars), &req.Variables); err != nil {
			return req, errors.Wrap(err, "parse --variables")
		}
	}
	return req, nil
}
