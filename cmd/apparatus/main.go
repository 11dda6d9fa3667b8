// Command apparatus is the CLI tool for working with TEI critical
// apparatus files. It provides commands for validating collations,
// expanding negative apparatuses, merging variation units, transposing
// readings, and reformatting ambiguous readings.
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/alecthomas/kong"
	"github.com/google/uuid"

	"github.com/FocuswithJustin/Apparatus/core/apparatus"
	"github.com/FocuswithJustin/Apparatus/core/errors"
	"github.com/FocuswithJustin/Apparatus/core/expand"
	"github.com/FocuswithJustin/Apparatus/core/merge"
	"github.com/FocuswithJustin/Apparatus/core/reformat"
	"github.com/FocuswithJustin/Apparatus/core/renumber"
	"github.com/FocuswithJustin/Apparatus/core/siglum"
	"github.com/FocuswithJustin/Apparatus/core/validate"
	"github.com/FocuswithJustin/Apparatus/internal/logging"
	"github.com/FocuswithJustin/Apparatus/internal/tei"
)

const version = "0.2.0"

// runCtx carries the per-invocation run ID for context-aware logging.
var runCtx = context.Background()

// CLI defines the command-line interface for apparatus.
var CLI struct {
	// Global flags
	LogLevel  string `name:"log-level" default:"info" enum:"debug,info,warn,error" help:"Log level (debug, info, warn, error)"`
	LogFormat string `name:"log-format" default:"text" enum:"text,json" help:"Log format (text, json)"`

	Validate  ValidateCmd  `cmd:"" help:"Check a collation for inconsistently encoded variation units"`
	Positive  PositiveCmd  `cmd:"" help:"Rewrite a negative apparatus with every witness cited explicitly"`
	Merge     MergeCmd     `cmd:"" help:"Merge variation units into one combined unit"`
	Transpose TransposeCmd `cmd:"" help:"Reorder and renumber the readings of a variation unit"`
	Reformat  ReformatCmd  `cmd:"reformat-ambiguous" help:"Convert ambiguous rdg elements to witDetail elements"`
	Version   VersionCmd   `cmd:"" help:"Print version information"`
}

// SuffixFlags declares the suffix vocabulary used by a collation's witness
// sigla. Each flag is repeatable; registration order within a role sets the
// sorting precedence of that role's suffixes.
type SuffixFlags struct {
	FirstHand []string `name:"firsthand" short:"f" help:"Suffix for the first hand of a witness (e.g., *)"`
	MainText  []string `name:"maintext" short:"t" help:"Suffix for the main text of a witness (e.g., T)"`
	Corrector []string `name:"corrector" short:"c" help:"Suffix for a corrector of a witness (e.g., C, C1, C2)"`
	Alternate []string `name:"alternate" short:"a" help:"Suffix for an alternate, marginal, or commentary reading (e.g., A, K)"`
	Multiple  []string `name:"multiple" short:"m" help:"Suffix for a witness with multiple attestations at a unit (e.g., /1, /2)"`
}

// Table builds the suffix table the resolver and engines work from.
func (s SuffixFlags) Table() *siglum.Table {
	t := siglum.NewTable()
	t.Register(siglum.FirstHand, s.FirstHand...)
	t.Register(siglum.MainText, s.MainText...)
	t.Register(siglum.Corrector, s.Corrector...)
	t.Register(siglum.Alternate, s.Alternate...)
	t.Register(siglum.Multiple, s.Multiple...)
	return t
}

// ValidateCmd checks a collation for inconsistently encoded variation units.
type ValidateCmd struct {
	SuffixFlags
	Input string `arg:"" type:"existingfile" help:"TEI XML collation file to check"`
}

func (c *ValidateCmd) Run() error {
	coll, err := loadCollation(c.Input)
	if err != nil {
		return err
	}

	findings := validate.Collation(coll, c.Table())
	for _, f := range findings {
		fmt.Println(f)
	}
	logging.InfoContext(runCtx, "validation complete",
		"units", len(coll.Units), "findings", len(findings))
	return nil
}

// PositiveCmd rewrites every negative apparatus citation positively.
type PositiveCmd struct {
	SuffixFlags
	Output string `name:"output" short:"o" type:"path" help:"Output file (defaults to stdout)"`
	Input  string `arg:"" type:"existingfile" help:"TEI XML collation file containing negative apparatuses"`
}

func (c *PositiveCmd) Run() error {
	doc, coll, err := loadDocument(c.Input)
	if err != nil {
		return err
	}

	findings := expand.Positive(coll, c.Table())
	reportFindings(findings)
	for _, u := range coll.Units {
		doc.ReplaceUnit(u)
	}
	logging.InfoContext(runCtx, "apparatus expanded",
		"units", len(coll.Units), "findings", len(findings))
	return writeDocument(doc, c.Output)
}

// MergeCmd merges variation units into one combined unit.
type MergeCmd struct {
	SuffixFlags
	Output string   `name:"output" short:"o" type:"path" help:"Output file (defaults to stdout)"`
	Input  string   `arg:"" type:"existingfile" help:"TEI XML collation file"`
	Units  []string `arg:"" name:"unit" help:"IDs of the variation units to merge"`
}

func (c *MergeCmd) Run() error {
	doc, err := tei.LoadFile(c.Input)
	if err != nil {
		return err
	}
	coll, err := doc.Collation(c.Units...)
	if err != nil {
		return err
	}

	merged, findings, err := merge.Combine(c.Table(), coll)
	if err != nil {
		logging.OperationError("merge", err)
		return err
	}
	reportFindings(findings)
	logging.InfoContext(runCtx, "units merged",
		"units", len(coll.Units), "readings", len(merged.Children))

	out := `<?xml version="1.0" encoding="UTF-8"?>` + "\n" + tei.FormatUnit(merged)
	return writeString(out, c.Output)
}

// TransposeCmd reorders and renumbers the readings of one variation unit.
type TransposeCmd struct {
	Output   string `name:"output" short:"o" type:"path" help:"Output file (defaults to stdout)"`
	Input    string `arg:"" type:"existingfile" help:"TEI XML collation file to modify"`
	Unit     string `arg:"" name:"unit" help:"ID of the target variation unit"`
	Sequence string `arg:"" help:"Parenthesized comma-separated reading numbers in the desired order, e.g. (4,1,2,3)"`
}

func (c *TransposeCmd) Run() error {
	order, err := parseSequence(c.Sequence)
	if err != nil {
		return err
	}

	doc, err := tei.LoadFile(c.Input)
	if err != nil {
		return err
	}
	u, err := doc.Unit(c.Unit)
	if err != nil {
		return err
	}

	if err := renumber.Transpose(u, order); err != nil {
		logging.OperationError("transpose", err)
		return err
	}
	doc.ReplaceUnit(u)
	logging.UnitRewritten(u.ID, "transpose")
	return writeDocument(doc, c.Output)
}

// ReformatCmd converts ambiguous rdg elements to witDetail elements.
type ReformatCmd struct {
	Output string `name:"output" short:"o" type:"path" help:"Output file (defaults to stdout)"`
	Input  string `arg:"" type:"existingfile" help:"TEI XML collation file to modify"`
}

func (c *ReformatCmd) Run() error {
	doc, coll, err := loadDocument(c.Input)
	if err != nil {
		return err
	}

	total := 0
	for _, u := range coll.Units {
		n := reformat.AmbiguousUnit(u)
		if n == 0 {
			continue
		}
		doc.ReplaceUnit(u)
		logging.UnitRewritten(u.ID, "reformat-ambiguous", "converted", n)
		total += n
	}
	logging.InfoContext(runCtx, "ambiguous readings reformatted", "converted", total)
	return writeDocument(doc, c.Output)
}

// VersionCmd prints version information.
type VersionCmd struct{}

func (c *VersionCmd) Run() error {
	fmt.Printf("apparatus version %s\n", version)
	return nil
}

// loadDocument parses a TEI file and its full collation.
func loadDocument(path string) (*tei.Document, *apparatus.Collation, error) {
	doc, err := tei.LoadFile(path)
	if err != nil {
		return nil, nil, err
	}
	coll, err := doc.Collation()
	if err != nil {
		return nil, nil, err
	}
	logging.DocumentLoaded(path, len(coll.Witnesses), len(coll.Units))
	return doc, coll, nil
}

func loadCollation(path string) (*apparatus.Collation, error) {
	_, coll, err := loadDocument(path)
	return coll, err
}

// reportFindings logs non-fatal observations collected by an engine.
func reportFindings(findings []apparatus.Finding) {
	for _, f := range findings {
		logging.Finding(f.UnitID, f.Category, f.Message)
	}
}

// writeDocument serializes the document to the given path, or to stdout
// when none is given.
func writeDocument(doc *tei.Document, path string) error {
	if path == "" {
		return doc.Write(os.Stdout)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating %s: %w", path, err)
	}
	defer f.Close()
	return doc.Write(f)
}

func writeString(s, path string) error {
	var w io.Writer = os.Stdout
	if path != "" {
		f, err := os.Create(path)
		if err != nil {
			return fmt.Errorf("creating %s: %w", path, err)
		}
		defer f.Close()
		w = f
	}
	_, err := io.WriteString(w, s)
	return err
}

// parseSequence parses a parenthesized reading sequence like "(4,1,2,3)".
func parseSequence(s string) ([]string, error) {
	trimmed := strings.TrimSpace(s)
	trimmed = strings.TrimPrefix(trimmed, "(")
	trimmed = strings.TrimSuffix(trimmed, ")")
	var order []string
	for _, part := range strings.Split(trimmed, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			return nil, errors.NewConfig("transpose",
				fmt.Sprintf("malformed reading sequence %q", s))
		}
		order = append(order, part)
	}
	if len(order) == 0 {
		return nil, errors.NewConfig("transpose",
			fmt.Sprintf("malformed reading sequence %q", s))
	}
	return order, nil
}

func main() {
	ctx := kong.Parse(&CLI,
		kong.Name("apparatus"),
		kong.Description("Apparatus - TEI critical apparatus toolkit"),
		kong.UsageOnError(),
		kong.ConfigureHelp(kong.HelpOptions{
			Compact: true,
		}),
	)

	logging.InitLogger(parseLevel(CLI.LogLevel), parseFormat(CLI.LogFormat))
	runCtx = logging.WithRunID(context.Background(), uuid.New().String())

	err := ctx.Run(ctx)
	ctx.FatalIfErrorf(err)
}

func parseLevel(s string) logging.Level {
	switch s {
	case "debug":
		return logging.LevelDebug
	case "warn":
		return logging.LevelWarn
	case "error":
		return logging.LevelError
	}
	return logging.LevelInfo
}

func parseFormat(s string) logging.Format {
	if s == "json" {
		return logging.FormatJSON
	}
	return logging.FormatText
}
