// bpe.go - BPE Merge-Algorithmus für CLIP
//
// Enthält:
// - bpe: zerlegt ein Wort in Vokabular-Einträge (letztes Zeichen mit </w>)
// - encodeWord: Byte-Level-Encoding eines Regex-Treffers

package tokenizer

import (
	"strings"
)

// maxCacheEntries begrenzt den Wort-Cache
const maxCacheEntries = 1 << 16

// encodeWord wandelt einen Regex-Treffer in Token-IDs um
func (t *Tokenizer) encodeWord(word string, ids []int32) []int32 {
	var sb strings.Builder
	sb.Grow(len(word) * 2)
	for i := 0; i < len(word); i++ {
		sb.WriteRune(t.byteEncoder[word[i]])
	}

	for _, part := range t.bpe(sb.String()) {
		if id, ok := t.encoder[part]; ok {
			ids = append(ids, id)
		}
	}
	return ids
}

// bpe wendet die Merge-Regeln an. Es wird jeweils das Paar mit dem
// niedrigsten Rang an allen Stellen verschmolzen, bis keine Regel mehr greift.
func (t *Tokenizer) bpe(token string) []string {
	t.mu.RLock()
	cached, ok := t.cache[token]
	t.mu.RUnlock()
	if ok {
		return cached
	}

	if token == "" {
		return nil
	}

	runes := []rune(token)
	parts := make([]string, len(runes))
	for i, r := range runes {
		parts[i] = string(r)
	}
	parts[len(parts)-1] += endOfWord

	for len(parts) > 1 {
		minRank := int(0x7FFFFFFF)
		minIdx := -1

		for i := 0; i < len(parts)-1; i++ {
			if rank, ok := t.ranks[parts[i]+" "+parts[i+1]]; ok && rank < minRank {
				minRank = rank
				minIdx = i
			}
		}

		if minIdx < 0 {
			break
		}

		first, second := parts[minIdx], parts[minIdx+1]
		merged := parts[:0:0]
		for i := 0; i < len(parts); {
			if i < len(parts)-1 && parts[i] == first && parts[i+1] == second {
				merged = append(merged, first+second)
				i += 2
				continue
			}
			merged = append(merged, parts[i])
			i++
		}
		parts = merged
	}

	t.mu.Lock()
	if len(t.cache) < maxCacheEntries {
		t.cache[token] = parts
	}
	t.mu.Unlock()

	return parts
}
