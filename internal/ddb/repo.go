// Package ddb provides repositories for claim and policy records in DynamoDB.
package ddb

import (
	"errors"
	"fmt"
	"time"
)

// ErrNotFound is returned when a requested record does not exist.
var ErrNotFound = errors.New("record not found")

// ErrAlreadyExists is returned when inserting a record that is already present.
var ErrAlreadyExists = errors.New("record already exists")

// ErrTerminalStatus is returned when a transition would leave a terminal claim status.
var ErrTerminalStatus = errors.New("claim status is terminal")

// awsStr is a helper to get a pointer to a string literal.
func awsStr(s string) *string { return &s }

// NowISO returns the current time in ISO8601 format.
func NowISO() string { return time.Now().UTC().Format(time.RFC3339) }

// MakeClaimKeys constructs the partition key (PK) and sort key (SK) for a claim record.
func MakeClaimKeys(sub, claimID string) (pk, sk string) {
	return fmt.Sprintf("USER#%s", sub), fmt.Sprintf("CLAIM#%s", claimID)
}

// MakePolicyKeys constructs the partition key (PK) and sort key (SK) for a policy record.
func MakePolicyKeys(policyID string) (pk, sk string) {
	return fmt.Sprintf("POLICY#%s", policyID), "META"
}
