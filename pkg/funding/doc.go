// Package funding holds the marketplace objects that events refer to:
// funding requests with their borrower and debtors, investments and account
// movements. Each implements event.Content.
package funding
