package docgen

import (
	"io"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

// RenderCLIMarkdown walks a cobra command tree and writes one section per
// visible command: synopsis, example, local flags and subcommands. The
// root's persistent flags are listed once as global flags.
func RenderCLIMarkdown(w io.Writer, root *cobra.Command) error {
	p := &printer{w: w}
	p.printf("# CLI Reference\n\n")
	p.printf(generatedNote)
	if flags := visibleFlags(root.PersistentFlags()); len(flags) > 0 {
		p.printf("## Global Flags\n\n")
		flagTable(p, flags)
	}
	renderCommand(p, root)
	return p.err
}

// WriteCLIMarkdown renders the tree under root to path.
func WriteCLIMarkdown(path string, root *cobra.Command) error {
	return writeAtomic(path, func(w io.Writer) error { return RenderCLIMarkdown(w, root) })
}

func renderCommand(p *printer, cmd *cobra.Command) {
	p.printf("## %s\n\n", cmd.CommandPath())
	desc := cmd.Long
	if desc == "" {
		desc = cmd.Short
	}
	if desc != "" {
		p.printf("%s\n\n", strings.TrimSpace(desc))
	}
	p.printf("```\n%s\n```\n\n", cmd.UseLine())
	if cmd.Example != "" {
		p.printf("**Example:**\n\n```\n%s\n```\n\n", strings.TrimSpace(cmd.Example))
	}
	if flags := visibleFlags(cmd.LocalNonPersistentFlags()); len(flags) > 0 {
		flagTable(p, flags)
	}

	children := visibleChildren(cmd)
	if len(children) > 0 {
		p.printf("| Subcommand | Description |\n")
		p.printf("|------------|-------------|\n")
		for _, c := range children {
			anchor := strings.ToLower(strings.ReplaceAll(c.CommandPath(), " ", "-"))
			p.printf("| [%s](#%s) | %s |\n", c.CommandPath(), anchor, c.Short)
		}
		p.printf("\n")
	}
	for _, c := range children {
		renderCommand(p, c)
	}
}

func visibleChildren(cmd *cobra.Command) []*cobra.Command {
	var out []*cobra.Command
	for _, c := range cmd.Commands() {
		if !c.Hidden {
			out = append(out, c)
		}
	}
	return out
}

type flagRow struct {
	name, typ, def, usage string
}

func visibleFlags(fs *pflag.FlagSet) []flagRow {
	var rows []flagRow
	fs.VisitAll(func(f *pflag.Flag) {
		if f.Hidden {
			return
		}
		name := "`--" + f.Name + "`"
		if f.Shorthand != "" {
			name = "`-" + f.Shorthand + "`, " + name
		}
		def := ""
		if !zeroDefault(f.DefValue, f.Value.Type()) {
			def = "`" + f.DefValue + "`"
		}
		rows = append(rows, flagRow{
			name:  name,
			typ:   f.Value.Type(),
			def:   def,
			usage: strings.ReplaceAll(f.Usage, "|", "\\|"),
		})
	})
	return rows
}

// zeroDefault reports whether val is the zero value pflag prints for typ.
func zeroDefault(val, typ string) bool {
	switch typ {
	case "bool":
		return val == "false"
	case "int", "int32", "int64", "uint", "uint32", "uint64", "uint64Slice", "float32", "float64":
		return val == "0"
	case "duration":
		return val == "0s"
	case "stringSlice", "stringArray":
		return val == "[]"
	default:
		return val == ""
	}
}

func flagTable(p *printer, rows []flagRow) {
	p.printf("| Flag | Type | Default | Description |\n")
	p.printf("|------|------|---------|-------------|\n")
	for _, r := range rows {
		p.printf("| %s | %s | %s | %s |\n", r.name, r.typ, r.def, r.usage)
	}
	p.printf("\n")
}
