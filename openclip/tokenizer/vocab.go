// vocab.go - Byte-Unicode-Tabelle und Laden der BPE-Merges
//
// Enthält:
// - bytesToUnicode: reversible Abbildung Byte -> druckbares Zeichen
// - readMerges: liest Merges aus .txt oder .txt.gz
// - buildVocab: baut das Vokabular in CLIP-Reihenfolge

package tokenizer

import (
	"bufio"
	"compress/gzip"
	"fmt"
	"io"
	"os"
	"strings"
)

// Special Tokens des CLIP-Vokabulars
const (
	StartOfText = "<start_of_text>"
	EndOfText   = "<end_of_text>"

	endOfWord = "</w>"
)

// Anzahl der Einträge vor den Merges: 256 Bytes + 256 Bytes mit </w>
const byteVocabSize = 512

// bytesToUnicode bildet jedes Byte auf ein druckbares Zeichen ab.
// Die Reihenfolge der Rückgabe entspricht der Reihenfolge im Vokabular.
func bytesToUnicode() (order [256]byte, table [256]rune) {
	n := 0
	printable := func(b int) bool {
		return (b >= '!' && b <= '~') || (b >= 0xA1 && b <= 0xAC) || (b >= 0xAE && b <= 0xFF)
	}

	i := 0
	for b := 0; b < 256; b++ {
		if printable(b) {
			order[i] = byte(b)
			table[b] = rune(b)
			i++
		}
	}
	for b := 0; b < 256; b++ {
		if !printable(b) {
			order[i] = byte(b)
			table[b] = rune(256 + n)
			n++
			i++
		}
	}
	return order, table
}

// readMerges liest die Merge-Regeln. Die erste Zeile ist ein Versions-Header.
// limit < 0 liest alle Zeilen.
func readMerges(r io.Reader, limit int) ([][2]string, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	var merges [][2]string
	first := true
	for scanner.Scan() {
		if first {
			first = false
			continue
		}
		if limit >= 0 && len(merges) >= limit {
			break
		}

		line := strings.TrimRight(scanner.Text(), "\r")
		if line == "" {
			continue
		}
		a, b, ok := strings.Cut(line, " ")
		if !ok || a == "" || b == "" {
			return nil, fmt.Errorf("invalid merge at line %d: %q", len(merges)+2, line)
		}
		merges = append(merges, [2]string{a, b})
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read merges: %w", err)
	}
	return merges, nil
}

// openMerges öffnet eine Merge-Datei, .gz wird transparent entpackt
func openMerges(path string) (io.ReadCloser, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	if !strings.HasSuffix(path, ".gz") {
		return f, nil
	}

	gz, err := gzip.NewReader(f)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	return &gzipFile{Reader: gz, f: f}, nil
}

type gzipFile struct {
	*gzip.Reader
	f *os.File
}

func (g *gzipFile) Close() error {
	err := g.Reader.Close()
	if ferr := g.f.Close(); err == nil {
		err = ferr
	}
	return err
}

// buildVocab erzeugt Vokabular und Merge-Ränge in CLIP-Reihenfolge:
// Bytes, Bytes mit </w>, Merges, <start_of_text>, <end_of_text>
func buildVocab(merges [][2]string) (tokens []string, ranks map[string]int) {
	order, table := bytesToUnicode()

	tokens = make([]string, 0, byteVocabSize+len(merges)+2)
	for _, b := range order {
		tokens = append(tokens, string(table[b]))
	}
	for _, b := range order {
		tokens = append(tokens, string(table[b])+endOfWord)
	}

	ranks = make(map[string]int, len(merges))
	for i, m := range merges {
		tokens = append(tokens, m[0]+m[1])
		ranks[m[0]+" "+m[1]] = i
	}

	tokens = append(tokens, StartOfText, EndOfText)
	return tokens, ranks
}
