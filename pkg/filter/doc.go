// Package filter holds the criteria a user sets for promising funding
// requests.
//
// Two configurations are equal when their thresholds are equal; ID and Name
// are ignored. Decimal thresholds compare by value ("1.1" equals "1.10") and
// target credit types compare as a set. Hash and Key agree with Equal, so a
// user's filters can be de-duplicated with Unique.
package filter
