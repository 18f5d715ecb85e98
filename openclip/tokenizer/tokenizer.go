// tokenizer.go - CLIP Byte-Level-BPE Tokenizer
//
// Enthält:
// - Load/New: Tokenizer aus Merge-Datei erzeugen
// - Encode/Tokenize: Text zu Token-IDs (mit SOT/EOT und Padding)
// - Decode: Token-IDs zurück zu Text
//
// Siehe auch: bpe.go für den Merge-Algorithmus, vocab.go für das Vokabular

package tokenizer

import (
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
	"unicode/utf8"

	"github.com/dlclark/regexp2"
)

// DefaultContextLength ist die Sequenzlänge der CLIP-Textencoder
const DefaultContextLength = 77

// DefaultVocabSize ist die Vokabulargröße von bpe_simple_vocab_16e6
const DefaultVocabSize = 49408

// splitPattern zerlegt bereinigten Text in Wörter, Zahlen und Satzzeichen
const splitPattern = `<start_of_text>|<end_of_text>|'s|'t|'re|'ve|'m|'ll|'d|[\p{L}]+|[\p{N}]|[^\s\p{L}\p{N}]+`

// ErrVocabTooSmall wird zurückgegeben wenn die Vokabulargröße keine Merges zulässt
var ErrVocabTooSmall = errors.New("vocab size too small")

// Tokenizer ist sicher für parallele Nutzung
type Tokenizer struct {
	encoder     map[string]int32
	decoder     []string
	ranks       map[string]int
	byteEncoder [256]rune
	byteDecoder map[rune]byte
	pattern     *regexp2.Regexp

	sot int32
	eot int32

	mu    sync.RWMutex
	cache map[string][]string
}

// Load liest die Merges aus einer Datei (.txt oder .txt.gz)
func Load(path string, vocabSize int) (*Tokenizer, error) {
	r, err := openMerges(path)
	if err != nil {
		return nil, fmt.Errorf("open merges: %w", err)
	}
	defer r.Close()

	return New(r, vocabSize)
}

// New erzeugt einen Tokenizer. Es werden vocabSize-514 Merges gelesen,
// vocabSize <= 0 liest alle.
func New(merges io.Reader, vocabSize int) (*Tokenizer, error) {
	limit := -1
	if vocabSize > 0 {
		limit = vocabSize - byteVocabSize - 2
		if limit < 0 {
			return nil, fmt.Errorf("%w: %d", ErrVocabTooSmall, vocabSize)
		}
	}

	m, err := readMerges(merges, limit)
	if err != nil {
		return nil, err
	}

	tokens, ranks := buildVocab(m)
	if vocabSize > 0 && len(tokens) != vocabSize {
		return nil, fmt.Errorf("merges file has %d entries, vocab size %d needs %d", len(m), vocabSize, limit)
	}

	t := &Tokenizer{
		encoder:     make(map[string]int32, len(tokens)),
		decoder:     tokens,
		ranks:       ranks,
		byteDecoder: make(map[rune]byte, 256),
		pattern:     regexp2.MustCompile(splitPattern, regexp2.IgnoreCase),
		cache: map[string][]string{
			StartOfText: {StartOfText},
			EndOfText:   {EndOfText},
		},
	}

	_, t.byteEncoder = bytesToUnicode()
	for b, r := range t.byteEncoder {
		t.byteDecoder[r] = byte(b)
	}
	for i, tok := range tokens {
		t.encoder[tok] = int32(i)
	}
	t.sot = t.encoder[StartOfText]
	t.eot = t.encoder[EndOfText]

	return t, nil
}

// VocabSize gibt die Anzahl der Vokabular-Einträge zurück
func (t *Tokenizer) VocabSize() int { return len(t.decoder) }

// SOT gibt die ID von <start_of_text> zurück
func (t *Tokenizer) SOT() int32 { return t.sot }

// EOT gibt die ID von <end_of_text> zurück
func (t *Tokenizer) EOT() int32 { return t.eot }

// Encode wandelt Text in Token-IDs um (ohne SOT/EOT)
func (t *Tokenizer) Encode(text string) []int32 {
	text = cleanText(text)

	var ids []int32
	m, err := t.pattern.FindStringMatch(text)
	for err == nil && m != nil {
		ids = t.encodeWord(m.String(), ids)
		m, err = t.pattern.FindNextMatch(m)
	}
	return ids
}

// Tokenize erzeugt für jeden Text eine Sequenz der Länge contextLength:
// SOT, Tokens, EOT, mit Nullen aufgefüllt. Zu lange Sequenzen werden
// abgeschnitten und enden mit EOT.
func (t *Tokenizer) Tokenize(texts []string, contextLength int) [][]int32 {
	if contextLength <= 0 {
		contextLength = DefaultContextLength
	}

	out := make([][]int32, len(texts))
	for i, text := range texts {
		row := make([]int32, contextLength)

		seq := make([]int32, 0, contextLength+2)
		seq = append(seq, t.sot)
		seq = append(seq, t.Encode(text)...)
		seq = append(seq, t.eot)

		if len(seq) > contextLength {
			seq = seq[:contextLength]
			seq[contextLength-1] = t.eot
		}
		copy(row, seq)
		out[i] = row
	}
	return out
}

// Decode wandelt Token-IDs in Text um. SOT wird übersprungen, bei EOT wird beendet.
func (t *Tokenizer) Decode(ids []int32) string {
	var sb strings.Builder
	for _, id := range ids {
		if id == t.eot {
			break
		}
		if id == t.sot || id < 0 || int(id) >= len(t.decoder) {
			continue
		}
		sb.WriteString(t.decoder[id])
	}

	var buf []byte
	for _, r := range sb.String() {
		if b, ok := t.byteDecoder[r]; ok {
			buf = append(buf, b)
		}
	}

	text := strings.ToValidUTF8(string(buf), string(utf8.RuneError))
	text = strings.ReplaceAll(text, endOfWord, " ")
	return strings.TrimSpace(text)
}
