package registry

import (
	"unicode/utf16"

	"golang.org/x/exp/slices"
)

// validateSubmission checks the caller-supplied fields in a fixed order and
// reports the first violation.
func validateSubmission(s *Submission) error {
	switch {
	case len(s.ProofHash) != HashSize:
		return ErrInvalidHash
	case len(s.DataHash) != HashSize:
		return ErrInvalidHash
	case !validText(s.Species, MaxSpeciesLength):
		return ErrInvalidSpecies
	case !slices.Contains(patternTypes, s.PatternType):
		return ErrInvalidPattern
	case !validText(s.Region, MaxRegionLength):
		return ErrInvalidRegion
	case s.HerdSize == 0:
		return ErrInvalidHerdSize
	case s.Duration == 0:
		return ErrInvalidDuration
	case len(s.Metadata) > MaxMetadataLength:
		return ErrInvalidMetadata
	case s.Score > MaxScore:
		return ErrInvalidScore
	}
	return nil
}

// validText reports whether s is non-empty and at most max UTF-16 code units long.
func validText(s string, max int) bool {
	return s != "" && len(utf16.Encode([]rune(s))) <= max
}
