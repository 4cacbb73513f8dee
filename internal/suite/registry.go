package suite

import (
	"fmt"

	"github.com/feral-file/nft-suite/internal/artifact"
	"github.com/feral-file/nft-suite/internal/domain"
)

// Build returns the suite registered under name, bound to art
func Build(name domain.SuiteName, art *artifact.Artifact) (Suite, error) {
	switch name {
	case domain.SuiteERC721:
		return NewERC721Suite(art), nil
	case domain.SuiteERC998:
		return NewERC998Suite(art), nil
	default:
		return Suite{}, fmt.Errorf("%w: %s", domain.ErrUnknownSuite, name)
	}
}
