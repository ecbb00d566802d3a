package domain

// ResolutionMethod names the cascade step that produced a geocode result.
type ResolutionMethod string

const (
	MethodOriginal            ResolutionMethod = "original"
	MethodCleaned             ResolutionMethod = "cleaned"
	MethodCompletedWithSector ResolutionMethod = "completed_with_sector"
	MethodPartialSearch       ResolutionMethod = "partial_search"
	MethodManualRequired      ResolutionMethod = "manual_required"
)

// ResolutionConfidence grades how much a resolved coordinate should be trusted.
type ResolutionConfidence string

const (
	ConfidenceHigh   ResolutionConfidence = "high"
	ConfidenceMedium ResolutionConfidence = "medium"
	ConfidenceLow    ResolutionConfidence = "low"
	ConfidenceNone   ResolutionConfidence = "none"
)

// GeocodeAttempt is the ephemeral outcome of running the resolution cascade
// on one raw address. It is never persisted.
type GeocodeAttempt struct {
	Success          bool                 `json:"success"`
	Coordinates      *Coordinates         `json:"coordinates,omitempty"`
	FormattedAddress string               `json:"formatted_address,omitempty"`
	OriginalAddress  string               `json:"original_address"`
	Method           ResolutionMethod     `json:"method"`
	Confidence       ResolutionConfidence `json:"confidence"`
	Warnings         []string             `json:"warnings,omitempty"`
}

// BatchResolution aggregates per-method counts for a batch cascade run.
type BatchResolution struct {
	TotalAddresses int              `json:"total_addresses"`
	AutoValidated  int              `json:"auto_validated"`
	CleanedAuto    int              `json:"cleaned_auto"`
	CompletedAuto  int              `json:"completed_auto"`
	PartialFound   int              `json:"partial_found"`
	RequiresManual int              `json:"requires_manual"`
	Attempts       []GeocodeAttempt `json:"attempts"`
	Warnings       []string         `json:"warnings,omitempty"`
}
