// Package wordlist parses markdown word lists used to seed decks.
// An entry is a "W:" word line followed by an "M:" meaning block; entries
// are separated by the next "W:" line or an explicit "---".
package wordlist

import (
	"bufio"
	"io"
	"os"
	"strings"
)

const (
	wordPrefix    = "W:"
	meaningPrefix = "M:"
)

type state int

const (
	seeking state = iota
	readingWord
	readingMeaning
)

// Entry is one parsed word/meaning pair.
type Entry struct {
	Word    string
	Meaning string
}

// ParseFile reads a file from the given path and extracts all entries.
func ParseFile(path string) ([]Entry, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	return Parse(file)
}

// Parse reads from an io.Reader and extracts all entries. Entries missing
// either a word or a meaning are dropped rather than reported as errors.
func Parse(r io.Reader) ([]Entry, error) {
	scanner := bufio.NewScanner(r)
	var entries []Entry
	var current Entry
	var block []string
	currentState := seeking

	flushBlock := func() {
		if len(block) == 0 {
			return
		}
		content := strings.TrimSpace(strings.Join(block, "\n"))
		switch currentState {
		case readingWord:
			current.Word = content
		case readingMeaning:
			current.Meaning = content
		}
		block = nil
	}

	finishEntry := func() {
		flushBlock()
		if current.Word != "" && current.Meaning != "" {
			entries = append(entries, current)
		}
		current = Entry{}
		currentState = seeking
	}

	for scanner.Scan() {
		line := scanner.Text()

		switch {
		case line == "---":
			finishEntry()
		case strings.HasPrefix(line, wordPrefix):
			// A new word always starts a new entry.
			if currentState != seeking {
				finishEntry()
			}
			currentState = readingWord
			block = append(block, strings.TrimPrefix(line, wordPrefix))
		case strings.HasPrefix(line, meaningPrefix):
			flushBlock()
			currentState = readingMeaning
			block = append(block, strings.TrimPrefix(line, meaningPrefix))
		case currentState != seeking:
			block = append(block, line)
		}
	}

	finishEntry()

	if err := scanner.Err(); err != nil {
		return nil, err
	}

	return entries, nil
}
