package assembler

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"sol/model"
)

// commonCapitalized words are never name or location candidates.
var commonCapitalized = toSet(
	"i", "i'm", "i'll", "i've", "i'd", "the", "a", "an", "this", "that", "these", "those",
	"it", "we", "you", "he", "she", "they", "my", "our", "your", "his", "her", "their",
	"can", "could", "would", "should", "will", "shall", "may", "might", "must",
	"please", "hi", "hello", "hey", "thanks", "thank", "ok", "okay", "yes", "no",
	"what", "when", "where", "who", "why", "how", "which", "is", "are", "was", "were",
	"do", "does", "did", "let", "let's", "and", "or", "but", "if", "also", "just",
	"monday", "tuesday", "wednesday", "thursday", "friday", "saturday", "sunday",
	"january", "february", "march", "april", "june", "july", "august",
	"september", "october", "november", "december",
	"today", "tomorrow", "tonight", "yesterday", "am", "pm",
)

var stopWords = toSet(
	"the", "and", "for", "are", "but", "not", "you", "all", "any", "can", "had", "her",
	"was", "one", "our", "out", "has", "have", "him", "his", "how", "its", "may", "she",
	"who", "did", "get", "got", "let", "put", "too", "use", "via", "yes",
	"this", "that", "these", "those", "with", "from", "into", "onto", "over", "under",
	"about", "above", "after", "again", "against", "before", "below", "between",
	"during", "through", "until", "upon", "within", "without", "around", "near",
	"could", "would", "should", "will", "shall", "might", "must", "does", "doing",
	"been", "being", "were", "what", "when", "where", "which", "while", "whom", "why",
	"they", "them", "their", "there", "then", "than", "your", "yours", "mine", "ours",
	"some", "such", "very", "just", "also", "only", "more", "most", "other",
	"please", "want", "need", "like", "know", "make", "tell", "give",
)

// dateVocabulary is matched as substrings of the lower-cased utterance.
var dateVocabulary = []string{
	"today", "tomorrow", "tonight", "yesterday",
	"next week", "this week", "next month", "this weekend", "weekend",
	"monday", "tuesday", "wednesday", "thursday", "friday", "saturday", "sunday",
	"morning", "afternoon", "evening", "noon", "lunch",
}

var locationPrepositions = toSet("at", "in", "near", "around")

func toSet(words ...string) map[string]struct{} {
	set := make(map[string]struct{}, len(words))
	for _, w := range words {
		set[w] = struct{}{}
	}
	return set
}

// orderedSet keeps first-seen order and de-duplicates case-insensitively.
type orderedSet struct {
	seen  map[string]struct{}
	items []string
}

func (s *orderedSet) add(v string) {
	if s.seen == nil {
		s.seen = make(map[string]struct{})
	}
	key := strings.ToLower(v)
	if _, ok := s.seen[key]; ok {
		return
	}
	s.seen[key] = struct{}{}
	s.items = append(s.items, v)
}

func (s *orderedSet) slice() []string {
	if s.items == nil {
		return []string{}
	}
	return s.items
}

func trimToken(tok string) string {
	tok = strings.TrimFunc(tok, func(r rune) bool {
		return unicode.IsPunct(r) || unicode.IsSymbol(r)
	})
	tok = strings.TrimSuffix(tok, "'s")
	return strings.TrimSuffix(tok, "’s")
}

func endsSentence(tok string) bool {
	tok = strings.TrimRight(tok, `"')]`)
	return strings.HasSuffix(tok, ".") || strings.HasSuffix(tok, "!") || strings.HasSuffix(tok, "?")
}

func isCapitalized(word string) bool {
	r, _ := utf8.DecodeRuneInString(word)
	return unicode.IsUpper(r)
}

// ExtractEntities tokenizes on whitespace and derives keyword, name, date and
// location sets. It is a pure function of query.
func ExtractEntities(query string) model.ExtractedEntities {
	tokens := strings.Fields(query)

	var keywords, names, dates, locations orderedSet

	for i, raw := range tokens {
		word := trimToken(raw)
		if word == "" {
			continue
		}
		lower := strings.ToLower(word)

		sentenceStart := i == 0 || endsSentence(tokens[i-1])
		if !sentenceStart && isNameCandidate(word) {
			names.add(word)
		}

		if utf8.RuneCountInString(lower) > 2 {
			if _, stop := stopWords[lower]; !stop {
				keywords.add(lower)
			}
		}

		if _, ok := locationPrepositions[lower]; ok && i+1 < len(tokens) {
			next := trimToken(tokens[i+1])
			if isCapitalized(next) && utf8.RuneCountInString(next) > 1 && !isCommon(next) {
				locations.add(next)
			}
		}
	}

	lowerQuery := strings.ToLower(query)
	for _, d := range dateVocabulary {
		if strings.Contains(lowerQuery, d) {
			dates.add(d)
		}
	}

	return model.ExtractedEntities{
		Keywords:  keywords.slice(),
		Names:     names.slice(),
		Dates:     dates.slice(),
		Locations: locations.slice(),
	}
}

func isCommon(word string) bool {
	_, ok := commonCapitalized[strings.ToLower(word)]
	return ok
}

func isNameCandidate(word string) bool {
	return utf8.RuneCountInString(word) > 1 && isCapitalized(word) && !isCommon(word)
}
