package main

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/rotisserie/eris"
)

// pickSource prompts for one of names by number, re-asking until the
// answer is valid.
func pickSource(in io.Reader, out io.Writer, names []string) (string, error) {
	if len(names) == 0 {
		return "", eris.New("no sources to choose from")
	}

	for i, name := range names {
		fmt.Fprintf(out, "%3d. %s\n", i+1, name)
	}

	scanner := bufio.NewScanner(in)
	for {
		fmt.Fprintf(out, "Choose a site to debug [1-%d]: ", len(names))
		if !scanner.Scan() {
			if err := scanner.Err(); err != nil {
				return "", eris.Wrap(err, "failed to read choice")
			}
			return "", eris.New("no site chosen")
		}

		n, err := strconv.Atoi(strings.TrimSpace(scanner.Text()))
		if err != nil || n < 1 || n > len(names) {
			fmt.Fprintln(out, "Not a valid choice.")
			continue
		}
		return names[n-1], nil
	}
}
