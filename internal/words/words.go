// Package words supplies secret words for new games.
//
// Words come from a file with one word per line (WORDS_FILE) or, when no file
// is configured, from a small embedded list. Every word is trimmed and
// lower-cased; anything shorter than MinLength or containing characters
// outside a-z is discarded.
package words

import (
	"bufio"
	"context"
	"crypto/rand"
	_ "embed"
	"errors"
	"fmt"
	"io"
	"math/big"
	"os"
	"strings"

	"github.com/samber/lo"
)

//go:embed default_words.txt
var embeddedWords string

// MinLength is the shortest word a game may use.
const MinLength = 4

var ErrEmptyList = errors.New("word list is empty")

// Provider draws random words from a fixed list.
type Provider struct {
	words []string
}

// New builds a provider from an in-memory list after filtering it.
func New(list []string) (*Provider, error) {
	filtered := lo.Uniq(lo.FilterMap(list, func(w string, _ int) (string, bool) {
		w = strings.ToLower(strings.TrimSpace(w))
		return w, valid(w)
	}))
	if len(filtered) == 0 {
		return nil, ErrEmptyList
	}
	return &Provider{words: filtered}, nil
}

// Load reads the list from path, or the embedded default when path is empty.
func Load(path string) (*Provider, error) {
	if path == "" {
		return New(Parse(strings.NewReader(embeddedWords)))
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open word list: %w", err)
	}
	defer f.Close()
	return New(Parse(f))
}

// Parse splits a reader into lines.
func Parse(r io.Reader) []string {
	var out []string
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		out = append(out, sc.Text())
	}
	return out
}

// DrawWord returns a uniformly random word from the list.
func (p *Provider) DrawWord(ctx context.Context) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	n, err := rand.Int(rand.Reader, big.NewInt(int64(len(p.words))))
	if err != nil {
		return "", fmt.Errorf("draw word: %w", err)
	}
	return p.words[n.Int64()], nil
}

// Len returns the number of usable words.
func (p *Provider) Len() int { return len(p.words) }

func valid(w string) bool {
	if len(w) < MinLength {
		return false
	}
	for _, c := range w {
		if c < 'a' || c > 'z' {
			return false
		}
	}
	return true
}
