package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/teranos/schemagen/cmd/schemagen/commands"
	"github.com/teranos/schemagen/cycle"
	"github.com/teranos/schemagen/errors"
	"github.com/teranos/schemagen/graph"
	"github.com/teranos/schemagen/logger"
	"github.com/teranos/schemagen/pathinfer"
	"github.com/teranos/schemagen/rustgen"
	"github.com/teranos/schemagen/schema"
)

const schemaPath = "./ast.yaml"

var jsonLogs bool

var rootCmd = &cobra.Command{
	Use:   "schemagen",
	Short: "Generate a Rust ADT module from a YAML schema",
	Long: `schemagen reads a schema document describing newtypes, records, and
sum types, boxes every operand slot on a reference cycle so that every
type has a statically known size, and emits a Rust module with the
corresponding structs, enums, runtime reflection, and lossless/lossy
conversion impls between types that embed each other.

It reads a fixed schema path (./ast.yaml) and writes the generated module
to stdout; diagnostics go to stderr.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return logger.InitializeForCLI(jsonLogs)
	},
	RunE: runGenerate,
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&jsonLogs, "json-logs", false, "emit diagnostics as structured JSON instead of human-readable text")
	rootCmd.AddCommand(commands.VersionCmd)
}

func runGenerate(cmd *cobra.Command, args []string) error {
	raw, err := os.ReadFile(schemaPath)
	if err != nil {
		return errors.Wrapf(err, "reading schema %s", schemaPath)
	}

	var doc yaml.Node
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return errors.Wrapf(err, "decoding schema %s", schemaPath)
	}

	model, err := schema.Parse(&doc)
	if err != nil {
		return errors.Wrap(err, "parsing schema")
	}
	logger.ChildLogger(logger.ComponentLogger("schema"), logger.FieldTotalCount, len(model.Order)).
		Info("parsed schema")
	reportWarnings(model.Warnings)

	g := graph.Build(model)

	if err := cycle.Break(g); err != nil {
		return errors.Wrap(err, "breaking sizing cycles")
	}

	paths := pathinfer.Infer(g)
	logger.ChildLogger(logger.ComponentLogger("pathinfer"), logger.FieldCount, len(paths)).
		Info("inferred cast paths")

	fmt.Print(rustgen.Emit(model, paths))
	return nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		reportFatal(err)
		os.Exit(1)
	}
}
