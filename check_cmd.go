package main

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/dgnsrekt/autocast/internal/podcast"
	"github.com/spf13/cobra"
)

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Test the connection to the API endpoint",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		return runCheck(cmd.Context(), cmd.OutOrStdout(), cmd.ErrOrStderr())
	},
}

func runCheck(ctx context.Context, stdout, stderr io.Writer) error {
	e, err := podcast.ResolveEndpoint(settings.Endpoint, settings.EndpointURL)
	if err != nil {
		return localize(err)
	}
	client, err := newClient()
	if err != nil {
		return err
	}

	status(stderr, "common.testingConnection", "endpoint", e.Name)
	models, err := client.TestConnection(ctx)
	if err != nil {
		return localize(err)
	}

	fmt.Fprintln(stdout, keyword(translator.T("common.connected", "endpoint", e.Name)))
	if len(models) > 0 {
		fmt.Fprintf(stdout, "%d models: %s\n", len(models), strings.Join(models, ", "))
	}
	return nil
}
