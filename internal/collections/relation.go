package collections

import (
	"regexp"
	"strings"
)

// Canonical rule relations accepted by the Admin API.
const (
	RelationEquals      = "EQUALS"
	RelationContains    = "CONTAINS"
	RelationGreaterThan = "GREATER_THAN"
	RelationLessThan    = "LESS_THAN"
	RelationStartsWith  = "STARTS_WITH"
	RelationEndsWith    = "ENDS_WITH"
	RelationNotEquals   = "NOT_EQUALS"
	RelationNotContains = "NOT_CONTAINS"
	RelationIsSet       = "IS_SET"
	RelationIsNotSet    = "IS_NOT_SET"
)

var (
	canonicalPattern = regexp.MustCompile(`^[A-Z_]+$`)
	spaceRun         = regexp.MustCompile(`\s+`)
)

var relationSynonyms = map[string]string{
	"equals":       RelationEquals,
	"equal":        RelationEquals,
	"eq":           RelationEquals,
	"contains":     RelationContains,
	"include":      RelationContains,
	"includes":     RelationContains,
	"greater than": RelationGreaterThan,
	"greater_than": RelationGreaterThan,
	"gt":           RelationGreaterThan,
	"less than":    RelationLessThan,
	"less_than":    RelationLessThan,
	"lt":           RelationLessThan,
	"starts with":  RelationStartsWith,
	"begins with":  RelationStartsWith,
	"start with":   RelationStartsWith,
	"ends with":    RelationEndsWith,
	"end with":     RelationEndsWith,
	"not equals":   RelationNotEquals,
	"not equal":    RelationNotEquals,
	"not contain":  RelationNotContains,
	"not contains": RelationNotContains,
	"is set":       RelationIsSet,
	"isset":        RelationIsSet,
	"is not set":   RelationIsNotSet,
	"isnotset":     RelationIsNotSet,
}

var canonicalRelations = map[string]bool{
	RelationEquals: true, RelationContains: true, RelationGreaterThan: true, RelationLessThan: true,
	RelationStartsWith: true, RelationEndsWith: true, RelationNotEquals: true, RelationNotContains: true,
	RelationIsSet: true, RelationIsNotSet: true,
}

// NormalizeRelation maps a free-text operator to a rule relation token.
// Upper-case tokens pass through untouched, known synonyms are translated,
// anything else is upper-cased with whitespace runs turned into "_". The
// fallback may yield a token the API rejects.
func NormalizeRelation(input string) string {
	if canonicalPattern.MatchString(input) {
		return input
	}
	if canonical, ok := relationSynonyms[strings.ToLower(input)]; ok {
		return canonical
	}
	return spaceRun.ReplaceAllString(strings.ToUpper(input), "_")
}

// IsCanonicalRelation reports whether token is one of the ten relations.
func IsCanonicalRelation(token string) bool {
	return canonicalRelations[token]
}
