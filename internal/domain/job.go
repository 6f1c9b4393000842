package domain

// JobStatus tracks a generation job from request to terminal outcome.
// Terminal state persists only in the caller's result value; there is no
// durable job record.
type JobStatus string

const (
	// JobIdle is the zero state before any work begins.
	JobIdle JobStatus = "idle"

	// JobContentDraft means the narrative draft has been generated.
	JobContentDraft JobStatus = "content_draft"

	// JobDiagramsInFlight means diagram tasks are running.
	JobDiagramsInFlight JobStatus = "diagrams_in_flight"

	// JobContentFinal means the narrative has been regenerated with
	// references to the validated diagrams.
	JobContentFinal JobStatus = "content_final"

	// JobWritten is terminal success: all artifacts persisted.
	JobWritten JobStatus = "written"

	// JobRolledBack is terminal failure after partial persistence:
	// the writer removed everything this job had written.
	JobRolledBack JobStatus = "rolled_back"

	// JobSkipped is terminal: no pattern met the significance threshold,
	// so no provider call was made and nothing was written.
	JobSkipped JobStatus = "skipped"
)

// Terminal reports whether the status ends the job.
func (s JobStatus) Terminal() bool {
	return s == JobWritten || s == JobRolledBack || s == JobSkipped
}

// GenerationRequest describes one documentation generation job.
type GenerationRequest struct {
	// EntityName names the subject of the document (e.g. a component or
	// session under analysis). It also seeds file naming via Slug.
	EntityName string `json:"entity_name" validate:"required"`

	// EntityType categorizes the subject (e.g. "component", "session").
	EntityType string `json:"entity_type" validate:"required"`

	// Patterns is the extracted input the gate and prompts consume.
	Patterns []Pattern `json:"patterns" validate:"required,min=1,dive"`

	// Observations is free-form supporting context for the narrative.
	Observations []string `json:"observations,omitempty"`

	// DiagramTypes overrides the default diagram set when non-empty.
	DiagramTypes []DiagramType `json:"diagram_types,omitempty" validate:"omitempty,dive"`
}

// Validate checks the request and every embedded pattern.
func (r GenerationRequest) Validate() error {
	if err := validate.Struct(r); err != nil {
		return err
	}
	for _, t := range r.DiagramTypes {
		if !t.Valid() {
			return ErrInvalidDiagramType
		}
	}
	return nil
}

// Diagrams returns the diagram set for this request, defaulting to the
// full fixed set when none was specified.
func (r GenerationRequest) Diagrams() []DiagramType {
	if len(r.DiagramTypes) > 0 {
		return r.DiagramTypes
	}
	return AllDiagramTypes()
}

// ArtifactOutcome summarizes one diagram artifact in the job result.
type ArtifactOutcome struct {
	Type          DiagramType    `json:"type"`
	Status        ArtifactStatus `json:"status"`
	SourcePath    string         `json:"source_path,omitempty"`
	ImagePath     string         `json:"image_path,omitempty"`
	RepairCount   int            `json:"repair_count"`
	FailureReason string         `json:"failure_reason,omitempty"`
}

// JobResult is the caller-visible outcome of a generation job.
// Counts are always populated so partial success is a reported outcome,
// never an error.
type JobResult struct {
	Status JobStatus `json:"status"`

	EntityName string `json:"entity_name"`

	// DocumentPath is the persisted narrative location; empty unless the
	// job reached JobWritten.
	DocumentPath string `json:"document_path,omitempty"`

	// DocumentsGenerated is 1 on success, 0 otherwise.
	DocumentsGenerated int `json:"documents_generated"`

	// PatternsAnalyzed and SignificantPatterns report the gate's view of
	// the input, including for skipped jobs.
	PatternsAnalyzed    int `json:"patterns_analyzed"`
	SignificantPatterns int `json:"significant_patterns"`

	// Significance explains a skip decision bucket by bucket.
	Significance SignificanceDistribution `json:"significance"`

	// ArtifactsAttempted / SuccessfulDiagrams / FailedDiagrams count the
	// diagram fan-out.
	ArtifactsAttempted int `json:"artifacts_attempted"`
	SuccessfulDiagrams int `json:"successful_diagrams"`
	FailedDiagrams     int `json:"failed_diagrams"`

	// Artifacts carries per-diagram detail in diagram-set order.
	Artifacts []ArtifactOutcome `json:"artifacts,omitempty"`

	// Error holds the terminal failure description for non-written jobs.
	Error string `json:"error,omitempty"`
}

// Succeeded reports whether the job persisted its document.
func (r *JobResult) Succeeded() bool { return r.Status == JobWritten }

// RecordArtifacts folds terminal artifact states into the result's
// outcome list and counters, in the order given.
func (r *JobResult) RecordArtifacts(artifacts []*DiagramArtifact) {
	r.ArtifactsAttempted = len(artifacts)
	for _, a := range artifacts {
		r.Artifacts = append(r.Artifacts, ArtifactOutcome{
			Type:          a.Type,
			Status:        a.Status,
			SourcePath:    a.SourcePath,
			ImagePath:     a.ImagePath,
			RepairCount:   len(a.Repairs),
			FailureReason: a.FailureReason,
		})
		if a.Status == ArtifactValid {
			r.SuccessfulDiagrams++
		} else {
			r.FailedDiagrams++
		}
	}
}
