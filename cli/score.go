package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"gopkg.in/yaml.v2"

	"claimguard/claim"
	"claimguard/ml"
	"claimguard/scoring"
)

var (
	inputPath    string
	scoreTimeout time.Duration
	scoreJSON    bool
)

var scoreCmd = &cobra.Command{
	Use:   "score",
	Short: "Score one claim read from a YAML or JSON file",
	Long: `Score reads a single claim from --input, fills omitted fields with their
form defaults and prints the verdict.

Example:
  claimguard score --input claim.yaml
  claimguard score --input claim.json --json`,
	Args: cobra.NoArgs,
	RunE: runScore,
}

func init() {
	rootCmd.AddCommand(scoreCmd)

	scoreCmd.Flags().StringVarP(&inputPath, "input", "i", "", "claim file (YAML or JSON)")
	scoreCmd.Flags().DurationVar(&scoreTimeout, "timeout", 30*time.Second, "overall timeout")
	scoreCmd.Flags().BoolVar(&scoreJSON, "json", false, "print the result as JSON")
	_ = scoreCmd.MarkFlagRequired("input")
}

func runScore(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	log := newLogger(cfg)
	defer log.Sync()

	rec, err := readClaim(inputPath)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), scoreTimeout)
	defer cancel()

	provider := ml.NewProvider(cfg.Model.Path, nil, log)
	if err := provider.Load(ctx); err != nil {
		return err
	}

	res, err := scoring.NewAdapter(provider, log).For("cli").Submit(ctx, rec)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if scoreJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(res)
	}

	tag, err := language.Parse(cfg.UI.Locale)
	if err != nil {
		tag = language.English
	}
	p := message.NewPrinter(tag)
	fmt.Fprintln(out, res.Verdict())
	p.Fprintf(out, "Fraud Probability: %.1f%%\n", res.FraudProbability)
	p.Fprintf(out, "Legitimate Probability: %.1f%%\n", res.LegitimateProbability)
	return nil
}

// readClaim decodes a flat mapping of field values. JSON input is accepted
// because it is valid YAML.
func readClaim(path string) (claim.Record, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return claim.Record{}, err
	}
	var in map[string]interface{}
	if err := yaml.Unmarshal(data, &in); err != nil {
		return claim.Record{}, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return claim.FromMap(in)
}
