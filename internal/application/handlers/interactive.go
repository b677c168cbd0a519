package handlers

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/ersonp/tankgraph/internal/domain/services"
	"github.com/ersonp/tankgraph/internal/errors"
	"github.com/ersonp/tankgraph/internal/infrastructure/render"
)

// Interactive session commands.
const (
	commandExit = "exit"
	commandHelp = "help"
)

// maxQueryLine bounds a single input line.
const maxQueryLine = 1 << 20

type inputAction int

const (
	actionQuery inputAction = iota
	actionHelp
	actionExit
)

// HandleInteractive reads queries from in until "exit" or end of input and
// writes results to out. A query ends at a line ending in ';' or at a blank
// line. Query errors are printed and the session continues.
func (h *QueryHandler) HandleInteractive(ctx context.Context, in io.Reader, out io.Writer) error {
	scanner := bufio.NewScanner(in)
	scanner.Buffer(make([]byte, 0, 64*1024), maxQueryLine)

	fmt.Fprintln(out, "Enter a query ('exit' to quit, 'help' for examples).")

	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		fmt.Fprintf(out, "\n%s\n", strings.Repeat(">", bannerWidth))

		text, action, more := readQuery(scanner)
		switch action {
		case actionExit:
			return nil
		case actionHelp:
			printExamples(out)
			continue
		}

		if text != "" {
			if err := h.runInteractive(ctx, text, out); err != nil {
				return err
			}
		}
		if !more {
			if err := scanner.Err(); err != nil {
				return errors.Wrap(err, "reading input")
			}
			return nil
		}
	}
}

// readQuery collects lines up to a query terminator. Commands are only
// recognized before a query has started. more is false once input is
// exhausted.
func readQuery(scanner *bufio.Scanner) (text string, action inputAction, more bool) {
	var lines []string
	for scanner.Scan() {
		line := scanner.Text()
		trimmed := strings.TrimSpace(line)

		if trimmed == "" {
			if len(lines) == 0 {
				continue
			}
			return joinQuery(lines), actionQuery, true
		}
		if len(lines) == 0 {
			switch strings.ToLower(trimmed) {
			case commandExit:
				return "", actionExit, false
			case commandHelp:
				return "", actionHelp, true
			}
		}

		lines = append(lines, line)
		if strings.HasSuffix(trimmed, ";") {
			return joinQuery(lines), actionQuery, true
		}
	}
	return joinQuery(lines), actionQuery, false
}

func joinQuery(lines []string) string {
	text := strings.TrimSpace(strings.Join(lines, "\n"))
	return strings.TrimSpace(strings.TrimSuffix(text, ";"))
}

func (h *QueryHandler) runInteractive(ctx context.Context, text string, out io.Writer) error {
	res, err := h.HandleText(ctx, text)
	if errors.IsQueryError(err) {
		fmt.Fprintln(out, render.FormatError(err))
		return nil
	}
	if err != nil {
		return err
	}
	return PrintResult(out, res)
}

func printExamples(out io.Writer) {
	PrintBanner(out, "QUERY EXAMPLES")
	for _, ex := range services.Examples {
		fmt.Fprintf(out, "\n### %s:\n%s\n", ex.Title, ex.Text)
	}
}
