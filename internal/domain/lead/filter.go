package lead

// Filter holds optional filter criteria for listing leads.
// Zero-value fields mean "no filter" for that dimension.
type Filter struct {
	Status   Status
	Source   string
	MinScore *int
	Limit    int
	Offset   int
}
