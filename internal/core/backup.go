package core

// Backup is the full JSON dump of every persisted table. Missing or empty
// slices in an uploaded backup mean "nothing to restore for this table",
// never "delete everything".
type Backup struct {
	Transactions []Transaction `json:"transactions"`
	Cards        []CreditCard  `json:"cards"`
	Expenses     []CardExpense `json:"expenses"`
	Icons        []CustomIcon  `json:"icons"`
}
