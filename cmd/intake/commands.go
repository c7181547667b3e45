package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/imrishuroy/go-purchase-intake/internal/client"
	"github.com/imrishuroy/go-purchase-intake/internal/validation"
)

// submitTimeout leaves headroom over the server's 30s relay timeout.
const submitTimeout = 40 * time.Second

type rootOptions struct {
	server  string
	timeout time.Duration
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}
	root := &cobra.Command{
		Use:           "intake",
		Short:         "Submit and inspect purchase requests",
		SilenceUsage:  true,
	}
	root.PersistentFlags().StringVar(&opts.server, "server", envOr("INTAKE_SERVER", "http://localhost:8080"), "intake API base URL")
	root.PersistentFlags().DurationVar(&opts.timeout, "timeout", submitTimeout, "request timeout")

	root.AddCommand(newSubmitCmd(opts), newCachedCmd(opts), newStatusCmd(opts))
	return root
}

func newSubmitCmd(opts *rootOptions) *cobra.Command {
	var file string
	cmd := &cobra.Command{
		Use:   "submit",
		Short: "Submit a purchase request read from a JSON file",
		RunE: func(cmd *cobra.Command, _ []string) error {
			req, err := readRequest(cmd.InOrStdin(), file)
			if err != nil {
				return err
			}
			api := client.NewAPIClient(opts.server, opts.timeout)
			return submit(cmd.Context(), api, req, cmd.OutOrStdout())
		},
	}
	cmd.Flags().StringVarP(&file, "file", "f", "-", "request JSON file, - for stdin")
	return cmd
}

func newCachedCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "cached",
		Short: "List requests held in the server's fallback store",
		RunE: func(cmd *cobra.Command, _ []string) error {
			api := client.NewAPIClient(opts.server, opts.timeout)
			resp, err := api.CachedRequests(cmd.Context())
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), resp)
		},
	}
}

func newStatusCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show server status",
		RunE: func(cmd *cobra.Command, _ []string) error {
			api := client.NewAPIClient(opts.server, opts.timeout)
			resp, err := api.Status(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "status: %s\nspreadsheet: %s\ntime: %s\n", resp.Status, resp.GoogleSheets, resp.Timestamp)
			return nil
		},
	}
}

// submit drives a client.Form so the CLI applies the same line item and
// request checks as the web form before anything goes over the wire.
func submit(ctx context.Context, api client.Submitter, req validation.PurchaseRequest, out io.Writer) error {
	session := client.NewMemorySession()
	form := client.NewForm(api,
		client.WithSession(session),
		client.WithNotifier(client.NotifierFunc(func(n client.Notice) {
			fmt.Fprintf(out, "[%s] %s: %s\n", n.Level, n.Title, n.Message)
		})),
		// the process exits right after; no timed reset is wanted
		client.WithResetDelays(time.Hour, time.Hour),
	)

	for _, p := range req.Products {
		if err := form.AddLineItem(p.Name, p.Quantity, p.Specification); err != nil {
			return err
		}
	}

	err := form.Submit(ctx, client.Fields{
		Name:          req.Name,
		Position:      req.Position,
		Department:    req.Department,
		Site:          req.Site,
		RequestType:   req.RequestType,
		Justification: req.Justification,
	})
	if err != nil {
		var apiErr *client.APIError
		if errors.As(err, &apiErr) && apiErr.RecordedLocally() {
			// kept by the server; not a failure from the caller's side
			return nil
		}
		return err
	}

	if conf, ok := client.LoadConfirmation(session); ok {
		fmt.Fprintf(out, "submitted by %s on %s (%d products)\n", conf.Name, conf.Date, len(conf.Products))
	}
	return nil
}

func readRequest(stdin io.Reader, file string) (validation.PurchaseRequest, error) {
	var req validation.PurchaseRequest
	r := stdin
	if file != "-" {
		f, err := os.Open(file)
		if err != nil {
			return req, err
		}
		defer f.Close()
		r = f
	}
	if err := json.NewDecoder(r).Decode(&req); err != nil {
		return req, fmt.Errorf("decode request: %w", err)
	}
	return req, nil
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
