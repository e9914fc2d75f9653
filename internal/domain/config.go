package domain

// KeyPrefix namespaces all matchd keys in the document store.
const KeyPrefix = "matchd:"

// DefaultK is the number of recommendations returned when the caller does
// not ask for a specific count.
const DefaultK = 5
