package serviceorder

import (
	"fmt"
	"regexp"
	"strings"
)

// ---------------------------------------------------------------------------
// Free-text address parsing
// ---------------------------------------------------------------------------
//
// Hubsoft cadastral/fiscal/billing blocks carry a single "endereco_completo"
// string shaped roughly like:
//
//	RUA DAS FLORES, 123 - CENTRO, SAO PAULO/SP CEP: 01000-000
//
// ParseFreeTextAddress extracts whatever structured fields it can and leaves
// the rest absent. It never fails: an unrecognizable string yields an empty
// block.

var (
	cepPattern       = regexp.MustCompile(`(?i)(?:cep[:.\s]*)?(\d{5})[-.\s]?(\d{3})`)
	cityStatePattern = regexp.MustCompile(`,\s*([^,/]+?)\s*/\s*(\p{L}{2})`)
	customerCodeRe   = regexp.MustCompile(`^\s*\((\d+)\)`)
)

// streetTypePrefixes are stripped from the start of the street segment.
var streetTypePrefixes = []string{
	"RUA ", "AV. ", "AV.", "AVENIDA ", "TRAVESSA ", "ALAMEDA ", "RODOVIA ",
}

// ParseFreeTextAddress parses a Hubsoft "endereco_completo" string into an
// AddressBlock. Coordinates are never present in free text.
func ParseFreeTextAddress(text string) AddressBlock {
	var block AddressBlock

	rest := strings.TrimSpace(text)
	if rest == "" {
		return block
	}

	// Postal code first, then strip it so it cannot pollute later splits.
	if m := cepPattern.FindStringSubmatch(rest); m != nil {
		block.CEP = fmt.Sprintf("%s-%s", m[1], m[2])
		rest = strings.TrimSpace(cepPattern.ReplaceAllString(rest, ""))
	}

	// "street, number - neighborhood, city/state"
	streetPart := rest
	remainder := ""
	if idx := strings.Index(rest, " - "); idx >= 0 {
		streetPart = strings.TrimSpace(rest[:idx])
		remainder = strings.TrimSpace(rest[idx+len(" - "):])
	}

	if comma := strings.Index(streetPart, ","); comma >= 0 {
		block.Endereco = stripStreetType(strings.TrimSpace(streetPart[:comma]))
		block.Numero = strings.TrimSpace(streetPart[comma+1:])
	} else {
		block.Endereco = stripStreetType(streetPart)
	}

	if remainder != "" {
		bairro, cidade, estado := splitNeighborhoodCityState(remainder)
		block.Bairro = bairro
		block.Cidade = cidade
		block.Estado = estado
	}

	// Last resort for city/state when the remainder had no direct "/" token.
	if block.Cidade == "" {
		if m := cityStatePattern.FindStringSubmatch(text); m != nil {
			block.Cidade = normalizeSpaces(m[1])
			block.Estado = normalizeState(m[2])
		}
	}

	return block
}

// splitNeighborhoodCityState splits "Centro, São Paulo/SP" style remainders.
func splitNeighborhoodCityState(remainder string) (bairro, cidade, estado string) {
	parts := strings.Split(remainder, ",")
	for i, part := range parts {
		if !strings.Contains(part, "/") {
			continue
		}
		bairro = normalizeSpaces(strings.Join(parts[:i], ","))
		cityState := strings.SplitN(part, "/", 2)
		cidade = normalizeSpaces(cityState[0])
		estado = normalizeState(cityState[1])
		return bairro, cidade, estado
	}
	// No city/state token; the whole remainder is the neighborhood.
	return normalizeSpaces(remainder), "", ""
}

func stripStreetType(street string) string {
	upper := strings.ToUpper(street)
	for _, prefix := range streetTypePrefixes {
		if strings.HasPrefix(upper, prefix) {
			return strings.TrimSpace(street[len(prefix):])
		}
	}
	return street
}

func normalizeSpaces(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

func normalizeState(s string) string {
	s = strings.ToUpper(normalizeSpaces(s))
	runes := []rune(s)
	if len(runes) > 2 {
		runes = runes[:2]
	}
	return string(runes)
}

// ExtractCustomerCode pulls the customer code out of a listing label shaped
// like "(1234) FULANO DE TAL". Returns "" when no leading parenthesized
// number is present.
func ExtractCustomerCode(label string) string {
	if m := customerCodeRe.FindStringSubmatch(label); m != nil {
		return m[1]
	}
	return ""
}
