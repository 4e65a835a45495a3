package commands

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/invopop/jsonschema"
	"github.com/spf13/cobra"

	"github.com/d1j/facebook-stats/internal/data/aggregator"
	"github.com/d1j/facebook-stats/internal/store"
)

// schemaTargets maps each command to the value its JSON output encodes.
var schemaTargets = map[string]any{
	"report":  &aggregator.Snapshot{},
	"series":  &aggregator.BucketSeries{},
	"summary": &aggregator.ActivitySummary{},
	"history": &[]store.RunSummary{},
}

var schemaCmd = &cobra.Command{
	Use:       "schema <report|series|summary|history>",
	Short:     "Print the JSON Schema of a command's --output json",
	Args:      cobra.ExactArgs(1),
	ValidArgs: []string{"report", "series", "summary", "history"},
	RunE:      runSchema,
}

func init() {
	rootCmd.AddCommand(schemaCmd)
}

func generateSchema(target string) ([]byte, error) {
	v, ok := schemaTargets[target]
	if !ok {
		names := make([]string, 0, len(schemaTargets))
		for name := range schemaTargets {
			names = append(names, name)
		}
		sort.Strings(names)
		return nil, fmt.Errorf("unknown schema %q: choose one of %s", target, strings.Join(names, ", "))
	}

	reflector := jsonschema.Reflector{
		AllowAdditionalProperties: false,
		DoNotReference:            true,
	}
	schema := reflector.Reflect(v)

	raw, err := schema.MarshalJSON()
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	if err := json.Indent(&buf, raw, "", "  "); err != nil {
		return nil, err
	}
	buf.WriteByte('\n')
	return buf.Bytes(), nil
}

func runSchema(cmd *cobra.Command, args []string) error {
	data, err := generateSchema(args[0])
	if err != nil {
		return err
	}
	_, err = cmd.OutOrStdout().Write(data)
	return err
}
