// Package enumgen generates the label enumeration consumed by application
// code: the configured language codes and the sorted set of every known
// label key. The artifact is regenerated from scratch on every run.
//
// Two output formats are supported: a TypeScript module (enum plus union
// types) and a Go file (typed constants plus a sorted label slice).
package enumgen

import (
	"fmt"
	"slices"
	"strconv"
	"strings"

	"mvdan.cc/gofumpt/format"

	"github.com/minios-linux/ctv/store"
)

// Format selects the generated language.
type Format string

const (
	FormatTS Format = "ts"
	FormatGo Format = "go"
)

// ParseFormat resolves a format name. An empty name selects TypeScript.
func ParseFormat(s string) (Format, error) {
	switch Format(strings.ToLower(strings.TrimSpace(s))) {
	case "", FormatTS, "typescript":
		return FormatTS, nil
	case FormatGo, "golang":
		return FormatGo, nil
	default:
		return "", fmt.Errorf("unknown enum format %q (want ts or go)", s)
	}
}

// Options controls the generated artifact.
type Options struct {
	// Name is the base name of the generated types, e.g. "LanguageLabel".
	Name   string
	Format Format
	// Package is the Go package name; defaults to the lowercased Name.
	Package string
	// Command is the command that regenerates the file, mentioned in the
	// header.
	Command string
}

const (
	defaultName    = "LanguageLabel"
	defaultCommand = "ctv label sync"
)

// Emit renders the enumeration of languages and label keys. Keys are sorted
// and deduplicated; the result depends only on its inputs.
func Emit(keys, languages []string, opts Options) ([]byte, error) {
	if opts.Name == "" {
		opts.Name = defaultName
	}
	if opts.Command == "" {
		opts.Command = defaultCommand
	}
	sorted := slices.Clone(keys)
	slices.Sort(sorted)
	sorted = slices.Compact(sorted)

	switch opts.Format {
	case "", FormatTS:
		return emitTS(sorted, languages, opts), nil
	case FormatGo:
		return emitGo(sorted, languages, opts)
	default:
		return nil, fmt.Errorf("unknown enum format %q", opts.Format)
	}
}

// WriteFile replaces the artifact at path, creating parent directories. It
// fails if path exists and is not a regular file.
func WriteFile(path string, data []byte) error {
	return store.WriteFile(path, data)
}

// Identifier converts a language code into an uppercase identifier:
// "pt-BR" becomes "PT_BR". Leading digits are prefixed with "_".
func Identifier(code string) string {
	var b strings.Builder
	for _, r := range strings.ToUpper(code) {
		if (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') || r == '_' {
			b.WriteRune(r)
		} else {
			b.WriteByte('_')
		}
	}
	id := b.String()
	if id == "" || (id[0] >= '0' && id[0] <= '9') {
		id = "_" + id
	}
	return id
}

// ---------------------------------------------------------------------------
// TypeScript
// ---------------------------------------------------------------------------

func emitTS(keys, languages []string, opts Options) []byte {
	var b strings.Builder
	b.WriteString("/* eslint-disable */\n")
	b.WriteString("/**\n * DO NOT EDIT!\n * THIS IS AUTOMATICALLY GENERATED FILE\n")
	fmt.Fprintf(&b, " * run %s\n */\n\n", opts.Command)

	fmt.Fprintf(&b, "export enum E%s {\n", opts.Name)
	for _, lang := range languages {
		fmt.Fprintf(&b, "  %s = %s,\n", Identifier(lang), tsString(lang))
	}
	b.WriteString("}\n\n")

	fmt.Fprintf(&b, "export type T%s = ", opts.Name)
	if len(keys) == 0 {
		b.WriteString("never")
	}
	for i, k := range keys {
		if i > 0 {
			b.WriteString("\n  | ")
		}
		b.WriteString(tsString(k))
	}
	b.WriteString(";\n\n")

	fmt.Fprintf(&b, "export type T%[1]sOrString  = T%[1]s | string;\n", opts.Name)
	fmt.Fprintf(&b, "export type T%[1]sOrNever  = T%[1]s | never;\n", opts.Name)
	return []byte(b.String())
}

// tsString quotes s as a single-quoted TypeScript string literal.
func tsString(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `'`, `\'`, "\n", `\n`, "\r", `\r`)
	return "'" + r.Replace(s) + "'"
}

// ---------------------------------------------------------------------------
// Go
// ---------------------------------------------------------------------------

func emitGo(keys, languages []string, opts Options) ([]byte, error) {
	pkg := opts.Package
	if pkg == "" {
		pkg = strings.ToLower(opts.Name)
	}
	name := opts.Name

	var b strings.Builder
	fmt.Fprintf(&b, "// Code generated by %s. DO NOT EDIT.\n\n", opts.Command)
	fmt.Fprintf(&b, "package %s\n\n", pkg)
	b.WriteString("import \"slices\"\n\n")

	b.WriteString("// Language is a configured language code.\n")
	b.WriteString("type Language string\n\n")
	if len(languages) > 0 {
		b.WriteString("const (\n")
		for _, lang := range languages {
			fmt.Fprintf(&b, "Language%s Language = %s\n", Identifier(lang), strconv.Quote(lang))
		}
		b.WriteString(")\n\n")
	}
	b.WriteString("// Languages lists the configured languages in priority order.\n")
	b.WriteString("var Languages = []Language{")
	for i, lang := range languages {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString("Language" + Identifier(lang))
	}
	b.WriteString("}\n\n")

	fmt.Fprintf(&b, "// %s is a known label key.\n", name)
	fmt.Fprintf(&b, "type %s string\n\n", name)
	fmt.Fprintf(&b, "// %ss lists every known label key in ascending order.\n", name)
	fmt.Fprintf(&b, "var %ss = []%s{\n", name, name)
	for _, k := range keys {
		fmt.Fprintf(&b, "%s,\n", strconv.Quote(k))
	}
	b.WriteString("}\n\n")

	fmt.Fprintf(&b, "// Is%s reports whether s is a known label key.\n", name)
	fmt.Fprintf(&b, "func Is%s(s string) bool {\n", name)
	fmt.Fprintf(&b, "_, found := slices.BinarySearch(%ss, %s(s))\n", name, name)
	b.WriteString("return found\n}\n")

	out, err := format.Source([]byte(b.String()), format.Options{})
	if err != nil {
		return nil, fmt.Errorf("formatting generated Go: %w", err)
	}
	return out, nil
}
