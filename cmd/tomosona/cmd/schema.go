package cmd

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jbl2024/tomosona/internal/proptypes"
)

func newSchemaCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "schema",
		Short: "Read or write the property-type schema (property-types.json)",
	}
	cmd.AddCommand(newSchemaGetCmd())
	cmd.AddCommand(newSchemaSetCmd())
	return cmd
}

func newSchemaGetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "get",
		Short: "Print the current property-type schema as JSON",
		RunE:  runSchemaGet,
	}
}

func runSchemaGet(cmd *cobra.Command, _ []string) error {
	root, err := workspaceRoot()
	if err != nil {
		return err
	}
	schema, err := proptypes.Load(root)
	if err != nil {
		return err
	}
	encoder := json.NewEncoder(cmd.OutOrStdout())
	encoder.SetIndent("", "  ")
	return encoder.Encode(schema)
}

func newSchemaSetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "set <key> <kind>",
		Short: "Set one property's type tag (text, list, number, checkbox, date, tags)",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSchemaSet(cmd, args[0], args[1])
		},
	}
}

func runSchemaSet(cmd *cobra.Command, key, kind string) error {
	root, err := workspaceRoot()
	if err != nil {
		return err
	}

	schema, err := proptypes.Load(root)
	if err != nil {
		return err
	}

	k := proptypes.Kind(kind)
	switch k {
	case proptypes.Text, proptypes.List, proptypes.Number, proptypes.Checkbox, proptypes.Date, proptypes.Tags:
	default:
		return fmt.Errorf("unrecognized property kind %q", kind)
	}

	if schema == nil {
		schema = proptypes.Schema{}
	}
	schema[key] = k

	if err := proptypes.Save(root, schema); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "set %s: %s\n", key, kind)
	return nil
}
