package votes

// Kind is the value of a vote record's "vote" field.
type Kind string

const (
	KindUp   Kind = "up"
	KindDown Kind = "down"
	KindSave Kind = "save"
)

// IsDirection reports whether k is an up/down reaction (as opposed to a save).
func (k Kind) IsDirection() bool {
	return k == KindUp || k == KindDown
}

// VoteRecord is the record written to the user's repository in the vote collection.
// The JSON shape is a wire contract shared with every other reader of the collection:
//
//	{ "$type": <collection>, "subject": <at-uri>, "vote": "up"|"down"|"save", "createdAt": <iso-8601> }
type VoteRecord struct {
	Type      string `json:"$type"`
	Subject   string `json:"subject"`
	Vote      Kind   `json:"vote"`
	CreatedAt string `json:"createdAt"`
}

// Index maps "vote:<subject>" and "save:<subject>" to the latest record seen for it.
// It is a projection of one full listing and is never patched after a write;
// call GetUserVotes again to observe mutations.
type Index map[string]*VoteRecord

const (
	votePrefix = "vote"
	savePrefix = "save"
)

// IndexKey returns the composite key a record of the given kind occupies in an Index.
// Saves live under "save:", everything else under "vote:".
func IndexKey(kind Kind, subjectURI string) string {
	if kind == KindSave {
		return savePrefix + ":" + subjectURI
	}
	return votePrefix + ":" + subjectURI
}

// Vote returns the up/down record for a subject, or nil.
func (idx Index) Vote(subjectURI string) *VoteRecord {
	return idx[IndexKey(KindUp, subjectURI)]
}

// Saved reports whether the subject has a save record.
func (idx Index) Saved(subjectURI string) bool {
	_, ok := idx[IndexKey(KindSave, subjectURI)]
	return ok
}
