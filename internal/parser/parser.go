// Package parser extracts card templates from plain markdown files.
//
// A template is a block of the form:
//
//	Q: front text (may continue on following lines)
//	A: back text
//	C: category label
//
// Blocks are separated by "---" or by the next "Q:" line.
package parser

import (
	"bufio"
	"io"
	"os"
	"strings"

	"github.com/conorfennell/memorank/internal/domain"
)

const (
	frontPrefix    = "Q:"
	backPrefix     = "A:"
	categoryPrefix = "C:"
)

type state int

const (
	seeking state = iota
	readingFront
	readingBack
	readingCategory
)

// ParseFile reads a file from the given path and extracts all templates.
func ParseFile(path string) ([]domain.Template, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	return Parse(file)
}

// Parse reads from an io.Reader and extracts all templates.
func Parse(r io.Reader) ([]domain.Template, error) {
	scanner := bufio.NewScanner(r)
	var templates []domain.Template
	var current domain.Template
	var block []string
	currentState := seeking

	flushBlock := func() {
		if len(block) == 0 {
			return
		}
		content := strings.Join(block, "\n")
		switch currentState {
		case readingFront:
			current.Front = content
		case readingBack:
			current.Back = content
		case readingCategory:
			// A category is a single label; extra lines are noise.
			current.Category = strings.TrimSpace(strings.SplitN(content, "\n", 2)[0])
		}
		block = nil
	}

	finishTemplate := func() {
		flushBlock()
		if current.Front != "" {
			templates = append(templates, current)
		}
		current = domain.Template{}
		currentState = seeking
	}

	stripPrefix := func(line, prefix string) string {
		content := line[len(prefix):]
		return strings.TrimPrefix(content, " ")
	}

	for scanner.Scan() {
		line := scanner.Text()

		isFront := strings.HasPrefix(line, frontPrefix)
		isBack := strings.HasPrefix(line, backPrefix)
		isCategory := strings.HasPrefix(line, categoryPrefix)

		if line == "---" {
			finishTemplate()
			continue
		}

		switch {
		case isFront:
			flushBlock()
			if currentState != seeking { // a new Q: always starts a new template
				finishTemplate()
			}
			currentState = readingFront
			block = append(block, stripPrefix(line, frontPrefix))
		case isBack:
			flushBlock()
			currentState = readingBack
			block = append(block, stripPrefix(line, backPrefix))
		case isCategory:
			flushBlock()
			currentState = readingCategory
			block = append(block, stripPrefix(line, categoryPrefix))
		default:
			if currentState != seeking {
				block = append(block, line)
			}
		}
	}

	finishTemplate() // flush the very last template in the file

	if err := scanner.Err(); err != nil {
		return nil, err
	}

	return templates, nil
}
