package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/tidwall/pretty"
)

type queryOptions struct {
	url       string
	apiKey    string
	variables string
	operation string
	raw       bool
	color     bool
	timeout   time.Duration
}

func newQueryCmd() *cobra.Command {
	opts := &queryOptions{}

	cmd := &cobra.Command{
		Use:   "query [document]",
		Short: "Send a GraphQL document to a running server",
		Long: `Send a GraphQL query or mutation to the API and print the JSON response.

Examples:
  nuberctl query '{ sayHello { text error } }'

  # Authenticated mutation with variables
  NUBER_API_KEY=nb_live_... nuberctl query \
    -v '{"id":"01HZX..."}' 'mutation($id: ID!) { DeletePlace(placeId: $id) { ok error } }'

  # Read the document from stdin
  cat edit.graphql | nuberctl query`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var document string
			if len(args) == 1 {
				document = args[0]
			} else {
				data, err := io.ReadAll(cmd.InOrStdin())
				if err != nil {
					return fmt.Errorf("reading stdin: %w", err)
				}
				document = strings.TrimSpace(string(data))
			}
			if document == "" {
				return errors.New("no query provided (pass as argument or pipe to stdin)")
			}

			ctx, cancel := context.WithTimeout(cmd.Context(), opts.timeout)
			defer cancel()

			body, err := postQuery(ctx, opts, document)
			if err != nil {
				return err
			}

			if opts.raw {
				_, err = fmt.Fprintln(cmd.OutOrStdout(), string(body))
				return err
			}
			out := pretty.Pretty(body)
			if opts.color {
				out = pretty.Color(out, nil)
			}
			_, err = cmd.OutOrStdout().Write(out)
			return err
		},
	}

	f := cmd.Flags()
	f.StringVar(&opts.url, "url", envOr("NUBER_URL", "http://localhost:8080/graphql"), "GraphQL endpoint (env NUBER_URL)")
	f.StringVar(&opts.apiKey, "api-key", os.Getenv("NUBER_API_KEY"), "API key sent as a bearer token (env NUBER_API_KEY)")
	f.StringVarP(&opts.variables, "variables", "v", "", "Variables as a JSON object")
	f.StringVarP(&opts.operation, "operation", "o", "", "Operation name for multi-operation documents")
	f.BoolVar(&opts.raw, "raw", false, "Print the response without formatting")
	f.BoolVar(&opts.color, "color", false, "Colorize formatted output")
	f.DurationVar(&opts.timeout, "timeout", 15*time.Second, "Request timeout")
	return cmd
}

type graphqlRequest struct {
	Query         string         `json:"query"`
	OperationName string         `json:"operationName,omitempty"`
	Variables     map[string]any `json:"variables,omitempty"`
}

// postQuery returns the raw response body. GraphQL-level errors are part of
// the body; only transport failures and non-2xx statuses are errors.
func postQuery(ctx context.Context, opts *queryOptions, document string) ([]byte, error) {
	payload := graphqlRequest{Query: document, OperationName: opts.operation}
	if opts.variables != "" {
		if err := json.Unmarshal([]byte(opts.variables), &payload.Variables); err != nil {
			return nil, fmt.Errorf("invalid variables JSON: %w", err)
		}
	}

	buf, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, opts.url, bytes.NewReader(buf))
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if opts.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+opts.apiKey)
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("post %s: %w", opts.url, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 10<<20))
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("server returned %s: %s", resp.Status, strings.TrimSpace(string(body)))
	}
	return body, nil
}
