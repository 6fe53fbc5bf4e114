package main

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"

	"sigtrace/internal/reactive"
	"sigtrace/internal/syntax"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var (
	dependencyColor = color.New(color.FgGreen, color.Bold)
	dependentColor  = color.New(color.FgYellow, color.Bold)
	dimColor        = color.New(color.Faint)
)

var signalsCmd = &cobra.Command{
	Use:   "signals <file>",
	Short: "Print the reactive nodes collected from a file as JSON",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		e := initEnv()
		u := parseUnit(cmd.Context(), args[0])
		defer u.Close()

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(e.analyzer.Collect(u)); err != nil {
			log.Fatalf("Failed to encode signals: %v", err)
		}
	},
}

var queryCmd = &cobra.Command{
	Use:   "query <file> <offset|line:col>",
	Short: "Show what the reactive node at a position depends on and what depends on it",
	Args:  cobra.ExactArgs(2),
	Run: func(cmd *cobra.Command, args []string) {
		e := initEnv()
		u := parseUnit(cmd.Context(), args[0])
		defer u.Close()

		pos, err := parsePosition(u, args[1])
		if err != nil {
			log.Fatalf("Invalid position: %v", err)
		}

		res, ok := e.analyzer.Analyze(u, pos, e.services(u))
		if !ok {
			fmt.Println("No reactive relationships at this position.")
			return
		}

		asJSON, _ := cmd.Flags().GetBool("json")
		if asJSON {
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			if err := enc.Encode(res); err != nil {
				log.Fatalf("Failed to encode result: %v", err)
			}
			return
		}
		printResult(u, res)
	},
}

func init() {
	queryCmd.Flags().Bool("json", false, "Print the raw result as JSON")
}

// parsePosition accepts a byte offset or a 1-based line:col pair.
func parsePosition(u *syntax.Unit, arg string) (int, error) {
	if line, col, ok := strings.Cut(arg, ":"); ok {
		l, err := strconv.Atoi(line)
		if err != nil {
			return 0, fmt.Errorf("bad line %q: %w", line, err)
		}
		c, err := strconv.Atoi(col)
		if err != nil {
			return 0, fmt.Errorf("bad column %q: %w", col, err)
		}
		off, ok := u.Offset(l, c)
		if !ok {
			return 0, fmt.Errorf("%s is outside %s", arg, u.Path)
		}
		return off, nil
	}

	off, err := strconv.Atoi(arg)
	if err != nil {
		return 0, fmt.Errorf("bad offset %q: %w", arg, err)
	}
	if off < 0 || off > len(u.Source) {
		return 0, fmt.Errorf("offset %d is outside %s", off, u.Path)
	}
	return off, nil
}

func printResult(u *syntax.Unit, res *reactive.Result) {
	n := res.Node
	name := n.Name
	if name == "" {
		name = n.Callee
	}
	fmt.Printf("%s (%s)\n", name, n.Callee)

	fmt.Printf("Depends on %d range(s):\n", len(res.DependencyRanges))
	for _, r := range res.DependencyRanges {
		printRange(u, r, dependencyColor)
	}
	fmt.Printf("Read by %d range(s):\n", len(res.DependentRanges))
	for _, r := range res.DependentRanges {
		printRange(u, r, dependentColor)
	}
}

// printRange prints the lines a range covers with the range itself colored.
func printRange(u *syntax.Unit, r syntax.Range, c *color.Color) {
	startLine, startCol := u.Position(r.Start)
	endLine, _ := u.Position(r.End)
	fmt.Printf("  %s\n", dimColor.Sprintf("%s:%d:%d", u.Path, startLine, startCol))

	lineStart, _ := u.Offset(startLine, 1)
	lineEnd := len(u.Source)
	if off, ok := u.Offset(endLine+1, 1); ok {
		lineEnd = off
	}
	before := u.Text(syntax.Range{Start: lineStart, End: r.Start})
	body := u.Text(r)
	after := strings.TrimRight(u.Text(syntax.Range{Start: r.End, End: lineEnd}), "\r\n")

	text := before + c.Sprint(body) + after
	for _, line := range strings.Split(text, "\n") {
		fmt.Printf("    %s\n", line)
	}
}
