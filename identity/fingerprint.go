package identity

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"regexp"
	"strings"

	"dfimoveis_scraper/models"
)

// Common Brazilian address tokens collapsed to their short forms so the
// same unit listed with slightly different wording maps to one property.
var streetReplacements = map[string]string{
	"quadra":      "qd",
	"conjunto":    "cj",
	"bloco":       "bl",
	"lote":        "lt",
	"casa":        "cs",
	"apartamento": "apt",
	"apto":        "apt",
	"edificio":    "ed",
	"avenida":     "av",
	"rua":         "r",
	"setor":       "st",
	"trecho":      "tr",
	"norte":       "n",
	"sul":         "s",
	"leste":       "l",
	"oeste":       "o",
}

var (
	accentReplacer = strings.NewReplacer(
		"á", "a", "à", "a", "â", "a", "ã", "a",
		"é", "e", "ê", "e",
		"í", "i",
		"ó", "o", "ô", "o", "õ", "o",
		"ú", "u", "ü", "u",
		"ç", "c",
	)
	multiSpaceRegex = regexp.MustCompile(`\s+`)
	nonAlnumRegex   = regexp.MustCompile(`[^a-z0-9\s]`)
)

// Fingerprint derives a stable identifier for a listing from its normalized
// address and displayed features. Two runs seeing the same advertisement
// produce the same fingerprint, which is what the Postgres upsert keys on.
func Fingerprint(l *models.Listing) string {
	input := fmt.Sprintf("%s|%s|%s|%s|%s",
		NormalizeAddress(l.Address),
		strings.ToLower(l.Area),
		strings.ToLower(l.Bedrooms),
		strings.ToLower(l.Suites),
		strings.ToLower(l.Parking),
	)
	hash := sha256.Sum256([]byte(input))
	return hex.EncodeToString(hash[:16])
}

func NormalizeAddress(addr string) string {
	s := strings.ToLower(strings.TrimSpace(addr))
	s = accentReplacer.Replace(s)
	s = nonAlnumRegex.ReplaceAllString(s, " ")
	s = multiSpaceRegex.ReplaceAllString(s, " ")

	words := strings.Fields(s)
	for i, w := range words {
		if short, ok := streetReplacements[w]; ok {
			words[i] = short
		}
	}
	return strings.Join(words, " ")
}
