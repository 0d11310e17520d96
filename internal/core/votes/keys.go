package votes

import "fmt"

// DeriveSubjectKey returns the record-key segment of a subject AT-URI.
// It fails with ErrInvalidSubject when the URI does not parse or names no record,
// so no storage key is ever built from a malformed subject.
func DeriveSubjectKey(parser URIParser, subjectURI string) (string, error) {
	if subjectURI == "" {
		return "", fmt.Errorf("%w: empty subject", ErrInvalidSubject)
	}

	parsed, err := parser.ParseURI(subjectURI)
	if err != nil {
		return "", fmt.Errorf("%w: %s: %v", ErrInvalidSubject, subjectURI, err)
	}
	if parsed == nil || parsed.RKey == "" {
		return "", fmt.Errorf("%w: %s has no record key", ErrInvalidSubject, subjectURI)
	}

	return parsed.RKey, nil
}

// VoteRKey is the storage key of the up/down record for a subject.
func VoteRKey(subjectRKey string) string {
	return votePrefix + "-" + subjectRKey
}

// SaveRKey is the storage key of the save record for a subject.
func SaveRKey(subjectRKey string) string {
	return savePrefix + "-" + subjectRKey
}
