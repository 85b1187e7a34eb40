package model

import (
	"fmt"
	"regexp"

	"github.com/google/uuid"
)

type IDType string

const (
	IDTypeRun      IDType = "run"
	IDTypeNode     IDType = "node"
	IDTypeMutation IDType = "mut"
	IDTypeSnapshot IDType = "snap"
	IDTypeReport   IDType = "rep"
)

var validIDTypes = map[IDType]bool{
	IDTypeRun:      true,
	IDTypeNode:     true,
	IDTypeMutation: true,
	IDTypeSnapshot: true,
	IDTypeReport:   true,
}

var idRegex = regexp.MustCompile(`^(run|node|mut|snap|rep)_[0-9a-f]{8}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{12}$`)

// NewID generates a typed, prefixed identifier. Unknown types panic: every
// call site passes a package constant.
func NewID(idType IDType) string {
	if !validIDTypes[idType] {
		panic(fmt.Sprintf("invalid ID type: %s", idType))
	}
	return fmt.Sprintf("%s_%s", idType, uuid.NewString())
}

func ValidateID(id string) bool {
	return idRegex.MatchString(id)
}
