package s3io

import (
	"fmt"
	"path"
	"strings"
)

// BuildKey constructs the S3 key for one claim document.
func BuildKey(userID, claimID, docID, ext string) string {
	if ext != "" && !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}
	return fmt.Sprintf("user/%s/%s/%s%s", userID, claimID, docID, ext)
}

// ParseKey extracts userID, claimID and docID from a document key.
func ParseKey(key string) (userID, claimID, docID string, ok bool) {
	parts := strings.Split(key, "/")
	if len(parts) != 4 || parts[0] != "user" {
		return "", "", "", false
	}
	leaf := parts[3]
	docID = strings.TrimSuffix(leaf, path.Ext(leaf))
	if parts[1] == "" || parts[2] == "" || docID == "" {
		return "", "", "", false
	}
	return parts[1], parts[2], docID, true
}

// UploadHeaders builds the required headers for uploading a document to S3.
func UploadHeaders(userID, claimID, docID, contentType string) map[string]string {
	return map[string]string{
		"Content-Type":                 contentType,
		"x-amz-server-side-encryption": "aws:kms",
		"x-amz-meta-claim_id":          claimID,
		"x-amz-meta-user_id":           userID,
		"x-amz-meta-document_id":       docID,
	}
}
