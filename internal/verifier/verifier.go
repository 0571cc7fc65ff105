// Package verifier checks a claim's uploaded documents against the
// required-document checklist for its claim type.
package verifier

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"strings"

	_ "embed"

	"gopkg.in/yaml.v3"

	"github.com/insureco/claims-backend/internal/models"
)

// ErrUnknownClaimType is returned when no requirements are configured for a claim type.
var ErrUnknownClaimType = errors.New("unknown claim type")

// ErrAnalysisUnavailable marks analyzer errors that should degrade to filename
// matching rather than count against the document.
var ErrAnalysisUnavailable = errors.New("document analysis unavailable")

//go:embed requirements.yaml
var requirementsYAML []byte

// requirements describes one claim type's document checklist.
type requirements struct {
	Required []string            `yaml:"required"`
	Keywords map[string][]string `yaml:"keywords"`
}

var requiredDocuments map[models.ClaimType]requirements

func init() {
	if err := yaml.Unmarshal(requirementsYAML, &requiredDocuments); err != nil {
		panic(fmt.Errorf("parse requirements table: %w", err))
	}
}

// Analysis is the content-level judgment of one document, produced either by
// the external analyzer or by the filename fallback.
type Analysis struct {
	IsValid      bool
	Confidence   int // 0-100
	DetectedType string
	Issues       []string
	Note         string
}

// Analyzer judges a document's raw content. Implementations may be
// unavailable; the verifier then falls back to filename matching.
type Analyzer interface {
	AnalyzeDocument(ctx context.Context, data []byte, mimeType string, claimType models.ClaimType) (Analysis, error)
}

// Fetcher loads a document's raw bytes from storage.
type Fetcher interface {
	Fetch(ctx context.Context, key string) ([]byte, error)
}

// Verifier produces VerificationResults for claims.
type Verifier struct {
	analyzer Analyzer
	fetcher  Fetcher
	logger   *slog.Logger
}

// New wires the content analyzer and document fetcher; either may be nil, in
// which case every document is classified by filename only.
func New(analyzer Analyzer, fetcher Fetcher, logger *slog.Logger) *Verifier {
	if logger == nil {
		logger = slog.Default()
	}
	return &Verifier{analyzer: analyzer, fetcher: fetcher, logger: logger}
}

// Verify checks the claim's documents against the checklist for its type.
// A per-document analysis failure degrades that document, never the whole run.
func (v *Verifier) Verify(ctx context.Context, claimType models.ClaimType, docs []models.Document) (models.VerificationResult, error) {
	reqs, ok := requiredDocuments[claimType]
	if !ok {
		return models.VerificationResult{}, fmt.Errorf("%w: %q", ErrUnknownClaimType, claimType)
	}

	// Nothing uploaded: report every required type missing, no analysis needed.
	if len(docs) == 0 {
		missing := make([]models.MissingDocument, 0, len(reqs.Required))
		for _, req := range reqs.Required {
			missing = append(missing, models.MissingDocument{Type: req, Name: formatDocTypeName(req)})
		}
		return models.VerificationResult{
			IsValid:          false,
			Confidence:       0,
			MissingDocuments: missing,
			Issues:           []string{"No documents uploaded"},
			Recommendations:  []string{"Please upload the required documents to proceed with your claim"},
		}, nil
	}

	var (
		checks          []models.DocumentCheck
		issues          []string
		identified      = map[string]bool{}
		identifiedTypes []string // every detected label, in encounter order
		validDocs       int
	)

	for _, doc := range docs {
		analysis, err := v.analyze(ctx, doc, claimType, reqs)
		if err != nil {
			v.logger.Error("document analysis failed", "document", doc.OriginalName, "error", err)
			checks = append(checks, models.DocumentCheck{
				DocumentID: doc.ID,
				Filename:   doc.OriginalName,
				IsValid:    false,
				Error:      err.Error(),
			})
			issues = append(issues, fmt.Sprintf("Could not analyze %s", doc.OriginalName))
			continue
		}

		detected := detectDocumentType(doc.OriginalName, analysis, reqs)
		if detected != "" && !identified[detected] {
			identified[detected] = true
			identifiedTypes = append(identifiedTypes, detected)
		}
		if analysis.IsValid {
			validDocs++
		}
		checks = append(checks, models.DocumentCheck{
			DocumentID:   doc.ID,
			Filename:     doc.OriginalName,
			DetectedType: detected,
			IsValid:      analysis.IsValid,
			Note:         analysis.Note,
		})
		for _, issue := range analysis.Issues {
			issues = append(issues, fmt.Sprintf("%s: %s", doc.OriginalName, issue))
		}
	}

	var missing []models.MissingDocument
	for _, req := range reqs.Required {
		if !identified[req] {
			missing = append(missing, models.MissingDocument{Type: req, Name: formatDocTypeName(req)})
		}
	}

	hasAllRequired := len(missing) == 0
	factor := 0.5
	if hasAllRequired {
		factor = 1
	}
	confidence := int(math.Round(float64(validDocs) / float64(len(docs)) * 100 * factor))

	return models.VerificationResult{
		IsValid:           hasAllRequired && len(issues) == 0,
		Confidence:        confidence,
		DocumentsAnalyzed: len(docs),
		Checks:            checks,
		IdentifiedTypes:   identifiedTypes,
		MissingDocuments:  missing,
		Issues:            issues,
		Recommendations:   recommendations(missing, issues),
	}, nil
}

// analyze runs content analysis against the external capability and falls back
// to filename keyword matching when bytes or the capability are unavailable.
func (v *Verifier) analyze(ctx context.Context, doc models.Document, claimType models.ClaimType, reqs requirements) (Analysis, error) {
	if v.analyzer != nil && v.fetcher != nil && doc.S3Key != "" {
		data, err := v.fetcher.Fetch(ctx, doc.S3Key)
		if err != nil {
			v.logger.Warn("could not read document, using filename analysis", "document", doc.OriginalName, "error", err)
		} else {
			analysis, err := v.analyzer.AnalyzeDocument(ctx, data, doc.MimeType, claimType)
			if err == nil {
				return analysis, nil
			}
			if !errors.Is(err, ErrAnalysisUnavailable) {
				return Analysis{}, err
			}
			v.logger.Warn("content analysis unavailable, using filename analysis", "document", doc.OriginalName, "error", err)
		}
	}
	return analyzeByFilename(doc.OriginalName, reqs), nil
}

// analyzeByFilename classifies a document by keyword matches in its filename.
func analyzeByFilename(filename string, reqs requirements) Analysis {
	lower := strings.ToLower(filename)
	for docType, keywords := range reqs.Keywords {
		for _, kw := range keywords {
			if strings.Contains(lower, kw) {
				return Analysis{
					IsValid:      true,
					Confidence:   60,
					DetectedType: docType,
					Note:         "Identified by filename pattern",
				}
			}
		}
	}
	return Analysis{
		IsValid:      true,
		Confidence:   40,
		DetectedType: "unknown",
		Note:         "Could not identify document type from filename",
	}
}

// detectDocumentType resolves a document's type label: filename keywords win,
// then the analyzer's detected type when it is meaningful.
func detectDocumentType(filename string, analysis Analysis, reqs requirements) string {
	lower := strings.ToLower(filename)
	for docType, keywords := range reqs.Keywords {
		for _, kw := range keywords {
			if strings.Contains(lower, kw) {
				return docType
			}
		}
	}
	if analysis.DetectedType != "" && analysis.DetectedType != "unknown" {
		return analysis.DetectedType
	}
	return ""
}

// formatDocTypeName renders a document type id for display: underscores become
// spaces, words are title-cased.
func formatDocTypeName(docType string) string {
	words := strings.Split(docType, "_")
	for i, w := range words {
		if w == "" {
			continue
		}
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}

func recommendations(missing []models.MissingDocument, issues []string) []string {
	var recs []string
	if len(missing) > 0 {
		names := make([]string, 0, len(missing))
		for _, m := range missing {
			names = append(names, m.Name)
		}
		recs = append(recs, fmt.Sprintf("Please upload the following required documents: %s", strings.Join(names, ", ")))
	}
	if len(issues) > 0 {
		recs = append(recs, "Please review the flagged issues and re-upload clearer documents if needed")
	}
	if len(recs) == 0 {
		recs = append(recs, "All documents look good! Your claim is ready for processing.")
	}
	return recs
}
