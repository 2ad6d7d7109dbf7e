package main

import (
	"context"
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/opencomply/integration-core/internal/config"
	"github.com/opencomply/integration-core/internal/integration"
	"github.com/opencomply/integration-core/internal/integrations/generic"
	"github.com/opencomply/integration-core/internal/secrets"
)

var integrationsCmd = &cobra.Command{
	Use:   "integrations",
	Short: "List the integrations compiled into this build.",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return err
		}
		reg, err := buildRegistry(cmd.Context(), cfg)
		if err != nil {
			return err
		}
		defer reg.Drain()

		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tVERSION\tCATEGORY\tCAPABILITIES")
		for _, inst := range reg.All() {
			d := inst.Descriptor()
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", d.ID, d.Version, d.Category, strings.Join(capabilitiesOf(inst), ","))
		}
		return w.Flush()
	},
}

func buildRegistry(ctx context.Context, cfg config.Config) (*integration.Registry, error) {
	reg := integration.NewRegistry()

	secret, err := resolveWebhookSecret(ctx, cfg)
	if err != nil {
		return nil, err
	}
	if err := reg.Register(generic.New(generic.Options{Secret: secret})); err != nil {
		return nil, err
	}
	return reg, nil
}

func resolveWebhookSecret(ctx context.Context, cfg config.Config) ([]byte, error) {
	if cfg.WebhookSecret == "" {
		return nil, nil
	}
	if !secrets.IsRef(cfg.WebhookSecret) {
		return []byte(cfg.WebhookSecret), nil
	}
	source, err := secrets.New(secrets.Options{
		Address:   cfg.VaultAddr,
		Namespace: cfg.VaultNamespace,
		Token:     cfg.VaultToken,
	})
	if err != nil {
		return nil, fmt.Errorf("webhook secret needs vault: %w", err)
	}
	value, err := source.Resolve(ctx, cfg.WebhookSecret)
	if err != nil {
		return nil, err
	}
	return []byte(value), nil
}

func capabilitiesOf(inst integration.Integration) []string {
	all := []integration.Capability{
		integration.CapabilityEvidenceCollector,
		integration.CapabilityCloudProvider,
		integration.CapabilityNotifier,
		integration.CapabilityWebhookReceiver,
	}
	out := make([]string, 0, len(all))
	for _, c := range all {
		if integration.Implements(inst, c) {
			out = append(out, string(c))
		}
	}
	return out
}
