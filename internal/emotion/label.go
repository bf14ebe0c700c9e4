package emotion

// Label is a discrete emotion tag assigned to a span of transcript text.
// The set is closed; free-text labels never enter the system.
type Label string

const (
	Angry     Label = "Angry"
	Fear      Label = "Fear"
	Sad       Label = "Sad"
	Happy     Label = "Happy"
	VeryHappy Label = "VeryHappy"
	VerySad   Label = "VerySad"
	Emotional Label = "Emotional"
	Neutral   Label = "Neutral"

	// NoData marks the dominant emotion of an empty timeline. It is a
	// distinct result state, not a classification output.
	NoData Label = "NoData"
)

// Valid reports whether l is a member of the closed label set.
func (l Label) Valid() bool {
	switch l {
	case Angry, Fear, Sad, Happy, VeryHappy, VerySad, Emotional, Neutral, NoData:
		return true
	}
	return false
}

func (l Label) String() string { return string(l) }
