package payload

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

var titleCaser = cases.Title(language.English)

func labelFor(kind Kind) string {
	return titleCaser.String(strings.ReplaceAll(string(kind), "-", " "))
}
