package git

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"regexp"
	"strconv"
	"strings"

	"sigtrace/internal/syntax"
)

type ChangedFile struct {
	Path         string
	ChangedLines []int
}

// Regex for chunk header: @@ -oldStart,oldLen +newStart,newLen @@
// Only newStart and newLen (the + part) matter.
var chunkHeader = regexp.MustCompile(`^@@ \-\d+(?:,\d+)? \+(\d+)(?:,(\d+))? @@`)

// GetChangedFiles runs git diff in dir and returns the changed script sources
// with their changed line numbers in the new version.
func GetChangedFiles(ctx context.Context, dir, baseRef string) ([]ChangedFile, error) {
	cmd := exec.CommandContext(ctx, "git", "diff", "-U0", baseRef, "--")
	cmd.Dir = dir
	output, err := cmd.Output()
	if err != nil {
		return nil, fmt.Errorf("git diff failed: %w", err)
	}

	changes, err := parseDiff(output)
	if err != nil {
		return nil, err
	}
	return FilterSources(changes), nil
}

// FilterSources keeps the files the analyzer can parse.
func FilterSources(changes []ChangedFile) []ChangedFile {
	out := changes[:0]
	for _, c := range changes {
		if syntax.IsSource(c.Path) {
			out = append(out, c)
		}
	}
	return out
}

func parseDiff(output []byte) ([]ChangedFile, error) {
	scanner := bufio.NewScanner(bytes.NewReader(output))
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	var changes []ChangedFile
	var currentFile *ChangedFile

	for scanner.Scan() {
		line := scanner.Text()

		if strings.HasPrefix(line, "diff --git") {
			// a/path/to/file b/path/to/file: keep the b/ path (new version)
			parts := strings.Fields(line)
			if len(parts) >= 4 {
				if currentFile != nil {
					changes = append(changes, *currentFile)
				}
				currentFile = &ChangedFile{Path: strings.TrimPrefix(parts[3], "b/"), ChangedLines: []int{}}
			}
			continue
		}

		if currentFile == nil {
			continue
		}

		if line == "+++ /dev/null" {
			// Deleted file: nothing left to analyze.
			currentFile = nil
			continue
		}

		if strings.HasPrefix(line, "@@") {
			matches := chunkHeader.FindStringSubmatch(line)
			if len(matches) < 2 {
				continue
			}
			startLine, err := strconv.Atoi(matches[1])
			if err != nil {
				return nil, fmt.Errorf("invalid chunk header %q: %w", line, err)
			}
			count := 1 // Default length is 1 if omitted
			if matches[2] != "" {
				if count, err = strconv.Atoi(matches[2]); err != nil {
					return nil, fmt.Errorf("invalid chunk header %q: %w", line, err)
				}
			}

			// A pure deletion leaves no lines; the line before the hole is
			// what touches the removed code.
			if count == 0 {
				if startLine > 0 {
					currentFile.ChangedLines = append(currentFile.ChangedLines, startLine)
				}
				continue
			}
			for i := 0; i < count; i++ {
				currentFile.ChangedLines = append(currentFile.ChangedLines, startLine+i)
			}
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read git diff: %w", err)
	}

	if currentFile != nil {
		changes = append(changes, *currentFile)
	}

	return changes, nil
}
