package model

// Axis selects time or space complexity.
type Axis string

const (
	Time  Axis = "time"
	Space Axis = "space"
)

// Verdict is the asymptotic class assigned to a snippet.
type Verdict struct {
	Order     string `json:"order"`
	Rationale string `json:"rationale"`
}

func (v Verdict) String() string {
	return v.Order + " - " + v.Rationale
}
