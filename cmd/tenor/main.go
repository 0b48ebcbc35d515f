package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/fatih/color"
	"github.com/hashicorp/go-hclog"
	"github.com/spf13/cobra"

	"github.com/riverline-labs/tenor/pkg/config"
	"github.com/riverline-labs/tenor/pkg/core"
	"github.com/riverline-labs/tenor/pkg/elaborate"
	"github.com/riverline-labs/tenor/pkg/eval"
	"github.com/riverline-labs/tenor/pkg/validate"
)

var version = "dev"

// CLI flags
var (
	flagOut            string
	flagSchemaValidate bool
	flagDebug          bool
	flagNoColor        bool
	flagPersona        string
	flagFacts          string
	flagStates         string
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:     "tenor",
	Short:   "Tenor - contract DSL elaborator and evaluator",
	Long:    `Tenor elaborates a contract source tree into a canonical bundle and evaluates it against runtime facts.`,
	Version: version,
}

var elaborateCmd = &cobra.Command{
	Use:   "elaborate <root-file>",
	Short: "Run Pass 0 through Pass 6 over a source tree and emit the canonical bundle",
	Args:  cobra.ExactArgs(1),
	RunE:  runElaborate,
}

var evalCmd = &cobra.Command{
	Use:   "eval",
	Short: "Evaluate an elaborated bundle",
}

var flowCmd = &cobra.Command{
	Use:   "flow <bundle-or-source> <flow-id>",
	Short: "Execute one flow against a fact set and entity state map",
	Args:  cobra.ExactArgs(2),
	RunE:  runFlow,
}

var actionsCmd = &cobra.Command{
	Use:   "actions <bundle-or-source>",
	Short: "Compute the action space available to a persona",
	Args:  cobra.ExactArgs(1),
	RunE:  runActions,
}

func init() {
	elaborateCmd.Flags().StringVarP(&flagOut, "out", "o", "", "write the bundle to this path instead of stdout")
	elaborateCmd.Flags().BoolVar(&flagSchemaValidate, "schema-validate", false, "validate the emitted bundle against the JSON Schema before returning it")
	elaborateCmd.Flags().BoolVar(&flagDebug, "debug", false, "log each pass boundary to stderr")
	elaborateCmd.Flags().BoolVar(&flagNoColor, "no-color", false, "disable colored diagnostics")

	flowCmd.Flags().StringVar(&flagPersona, "persona", "", "persona initiating the flow")
	flowCmd.Flags().StringVar(&flagFacts, "facts", "{}", "inline JSON object of fact values")
	flowCmd.Flags().StringVar(&flagStates, "states", "{}", "inline JSON object of entity id to current state")
	flowCmd.Flags().BoolVar(&flagDebug, "debug", false, "log each rule/operation/step to stderr")
	flowCmd.MarkFlagRequired("persona")

	actionsCmd.Flags().StringVar(&flagPersona, "persona", "", "persona to compute the action space for")
	actionsCmd.Flags().StringVar(&flagFacts, "facts", "{}", "inline JSON object of fact values")
	actionsCmd.Flags().StringVar(&flagStates, "states", "{}", "inline JSON object of entity id to current state")
	actionsCmd.MarkFlagRequired("persona")

	evalCmd.AddCommand(flowCmd)
	evalCmd.AddCommand(actionsCmd)

	rootCmd.AddCommand(elaborateCmd)
	rootCmd.AddCommand(evalCmd)
}

func logger() hclog.Logger {
	if !flagDebug {
		return hclog.NewNullLogger()
	}
	return hclog.New(&hclog.LoggerOptions{Name: "tenor", Level: hclog.Debug})
}

func runElaborate(cmd *cobra.Command, args []string) error {
	if flagNoColor {
		color.NoColor = true
	}

	schemaValidate := flagSchemaValidate
	if !cmd.Flags().Changed("schema-validate") {
		cfg, err := config.LoadConfigWithDefaults(filepath.Dir(args[0]))
		if err != nil {
			return fmt.Errorf("loading .tenor.yaml: %w", err)
		}
		schemaValidate = cfg.ValidateSchema()
	}

	e := elaborate.New(elaborate.WithLogger(logger()), elaborate.WithSchemaValidate(schemaValidate))
	res, err := e.Elaborate(args[0])
	if err != nil {
		printDiagnostic(err)
		os.Exit(1)
	}

	for _, adv := range res.Advisories {
		printAdvisory(adv)
	}

	out := os.Stdout
	if flagOut != "" {
		f, err := os.Create(flagOut)
		if err != nil {
			return fmt.Errorf("cannot write bundle: %w", err)
		}
		defer f.Close()
		out = f
	}
	fmt.Fprintln(out, string(res.BundleJSON))
	return nil
}

// loadContractFromArg elaborates a .tenor source root in-process, or
// loads an already-serialized bundle from a JSON file, telling them
// apart the same way a bundle consumer must: by trying to parse the
// argument as a bundle first, falling back to elaboration.
func loadContractFromArg(path string) (*eval.Contract, error) {
	if data, err := os.ReadFile(path); err == nil {
		if c, cerr := eval.LoadContract(data, eval.WithLogger(logger())); cerr == nil {
			return c, nil
		}
	}

	e := elaborate.New(elaborate.WithLogger(logger()))
	_, contract, err := e.ElaborateToContract(path)
	if err != nil {
		printDiagnostic(err)
		os.Exit(1)
	}
	return contract, nil
}

func runFlow(cmd *cobra.Command, args []string) error {
	contract, err := loadContractFromArg(args[0])
	if err != nil {
		return err
	}
	flowID := args[1]

	facts, err := decodeJSONObject(flagFacts)
	if err != nil {
		return fmt.Errorf("--facts: %w", err)
	}
	states, err := decodeEntityStates(flagStates)
	if err != nil {
		return fmt.Errorf("--states: %w", err)
	}

	result, final, err := eval.ExecuteFlow(contract, flowID, flagPersona, states, facts)
	if err != nil {
		return err
	}

	return printJSON(struct {
		Result eval.FlowResult     `json:"result"`
		States eval.EntityStateMap `json:"final_states"`
	}{result, final})
}

func runActions(cmd *cobra.Command, args []string) error {
	contract, err := loadContractFromArg(args[0])
	if err != nil {
		return err
	}

	facts, err := decodeJSONObject(flagFacts)
	if err != nil {
		return fmt.Errorf("--facts: %w", err)
	}
	states, err := decodeEntityStates(flagStates)
	if err != nil {
		return fmt.Errorf("--states: %w", err)
	}

	space, err := eval.ComputeActionSpace(contract, flagPersona, states, facts)
	if err != nil {
		return err
	}
	return printJSON(space)
}

func decodeJSONObject(s string) (map[string]interface{}, error) {
	var m map[string]interface{}
	if err := json.Unmarshal([]byte(s), &m); err != nil {
		return nil, err
	}
	return m, nil
}

func decodeEntityStates(s string) (eval.EntityStateMap, error) {
	var m eval.EntityStateMap
	if err := json.Unmarshal([]byte(s), &m); err != nil {
		return nil, err
	}
	return m, nil
}

func printJSON(v interface{}) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// printDiagnostic renders an elaborator pass error the way the console
// output renders a violation: red severity tag, location, message.
func printDiagnostic(err error) {
	red := color.New(color.FgRed, color.Bold)
	gray := color.New(color.FgHiBlack)

	d, ok := err.(core.Diagnostic)
	if !ok {
		red.Fprint(os.Stderr, "error: ")
		fmt.Fprintln(os.Stderr, err)
		return
	}

	red.Fprintf(os.Stderr, "[pass %d] ", d.Pass())
	fmt.Fprint(os.Stderr, d.Error())
	gray.Fprintf(os.Stderr, " (%s)\n", d.Provenance().String())
}

func printAdvisory(adv validate.Advisory) {
	yellow := color.New(color.FgYellow)
	yellow.Fprintf(os.Stderr, "warning: %s\n", adv.String())
}
