// Package billing holds the rent ledger: bills, the expenses charged through
// them and the payments allocated against them.
//
// A Bill's total is always rent + utilities + linked tenant charges, and its
// payment status is derived from the sum of its payments, never stored
// incrementally. Expenses of type tenant_charge are attributed to at most one
// bill at a time.
package billing
