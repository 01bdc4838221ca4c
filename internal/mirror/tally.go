package mirror

import "fmt"

// Tally counts the outcome of a mirror run.
type Tally struct {
	Video    int `json:"video"`
	Subtitle int `json:"subtitle"`
	Errors   int `json:"error"`
}

// Add returns the field-wise sum of t and o.
func (t Tally) Add(o Tally) Tally {
	return Tally{
		Video:    t.Video + o.Video,
		Subtitle: t.Subtitle + o.Subtitle,
		Errors:   t.Errors + o.Errors,
	}
}

func (t Tally) String() string {
	return fmt.Sprintf("video=%d subtitle=%d error=%d", t.Video, t.Subtitle, t.Errors)
}
