package lead

// Status represents the qualification state of a Lead.
type Status string

const (
	StatusNew         Status = "new"
	StatusWorking     Status = "working"
	StatusQualified   Status = "qualified"
	StatusUnqualified Status = "unqualified"
	StatusConverted   Status = "converted"
)

// IsValid returns true if the status is one of the defined constants.
func (s Status) IsValid() bool {
	switch s {
	case StatusNew, StatusWorking, StatusQualified, StatusUnqualified, StatusConverted:
		return true
	default:
		return false
	}
}

// String implements fmt.Stringer.
func (s Status) String() string {
	return string(s)
}
