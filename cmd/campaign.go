package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/oduo-labs/responder-cli/internal/campaign"
	"github.com/oduo-labs/responder-cli/internal/importer"
)

var campaignCmd = &cobra.Command{
	Use:   "campaign",
	Short: "Run and inspect bulk reactivation campaigns",
}

var (
	campaignMsg1File string
	campaignMsg2File string
	campaignDryRun   bool
)

var campaignSendCmd = &cobra.Command{
	Use:   "send <file.csv|file.xlsx>",
	Short: "Send the two-message sequence to every contact in a list",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		env, err := initEnv(ctx)
		if err != nil {
			return err
		}
		defer env.Close()

		if env.Sender == nil && !campaignDryRun {
			return eris.New("chatwoot is not configured; set RESPONDER_CHATWOOT_BASE_URL or use --dry-run")
		}

		data, err := os.ReadFile(args[0])
		if err != nil {
			return err
		}
		report, err := importer.ParseFile(args[0], data)
		if err != nil {
			return err
		}

		sendable, recent, err := env.Runner.FilterRecent(ctx, report.Contacts)
		if err != nil {
			return err
		}

		tmpl := campaign.DefaultTemplates(cfg.Responder.BookingLink)
		if campaignMsg1File != "" {
			if tmpl.Msg1, err = readTemplate(campaignMsg1File); err != nil {
				return err
			}
		}
		if campaignMsg2File != "" {
			if tmpl.Msg2, err = readTemplate(campaignMsg2File); err != nil {
				return err
			}
		}

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "Contatos: %d enviaveis, %d recontato recente, %d bloqueados\n",
			len(sendable), len(recent), len(report.Blocked))

		if campaignDryRun {
			for i, c := range sendable {
				if i == 5 {
					fmt.Fprintf(out, "... e mais %d\n", len(sendable)-5)
					break
				}
				fmt.Fprintf(out, "--- %s (%s)\n%s\n\n%s\n",
					c.Name, c.Phone,
					campaign.FormatMessage(tmpl.Msg1, c),
					campaign.FormatMessage(tmpl.Msg2, c),
				)
			}
			return nil
		}
		if len(sendable) == 0 {
			return eris.New("no sendable contacts after filtering")
		}

		campaignID := campaign.NewCampaignID(cfg.Campaign.Tag)
		zap.L().Info("starting campaign",
			zap.String("campaign_id", campaignID),
			zap.Int("recipients", len(sendable)),
		)

		job, err := env.Runner.Run(ctx, campaignID, sendable, tmpl)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "Campanha %s: %d enviados, %d falhas\n", job.ID, job.Sent, job.Failed)
		return nil
	},
}

var campaignStatusCmd = &cobra.Command{
	Use:   "status <campaign-id>",
	Short: "Show live progress for a campaign",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		st, err := openStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close()

		progress, err := campaign.QueryProgress(ctx, st, args[0])
		if err != nil {
			return err
		}
		if !progress.Found {
			return eris.Errorf("campaign %s not found", args[0])
		}

		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(progress)
	},
}

func readTemplate(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", eris.Wrapf(err, "read template %s", path)
	}
	return string(data), nil
}

func init() {
	campaignSendCmd.Flags().StringVar(&campaignMsg1File, "msg1", "", "file with the opening message template")
	campaignSendCmd.Flags().StringVar(&campaignMsg2File, "msg2", "", "file with the value-prop message template")
	campaignSendCmd.Flags().BoolVar(&campaignDryRun, "dry-run", false, "render previews without sending")
	campaignCmd.AddCommand(campaignSendCmd)
	campaignCmd.AddCommand(campaignStatusCmd)
	rootCmd.AddCommand(campaignCmd)
}
