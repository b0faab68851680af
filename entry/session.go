package entry

// Session accumulates the identifiers entered during one operator shift.
// Empty strings mean "not set yet".
type Session struct {
	OperatorID string
	LotNumber  string
	DUTID      string
}
