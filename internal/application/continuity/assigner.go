package continuity

import (
	"context"
	"strings"

	"github.com/qiyas/continuity/internal/domain/matching"
	"github.com/qiyas/continuity/internal/domain/recommendation"
	"github.com/qiyas/continuity/internal/domain/requirement"
	"github.com/qiyas/continuity/internal/infrastructure/monitoring/logging"
	"github.com/qiyas/continuity/pkg/errors"
	"github.com/qiyas/continuity/pkg/types/common"
)

// Strategy selects the per-field floor rule for one upload batch. The
// choice is made once per batch from the index type, never per row.
type Strategy string

const (
	// StrategyThreeField requires main-area, element, and sub-domain
	// scores to each clear 0.70.
	StrategyThreeField Strategy = "three_field"
	// StrategyTwoField requires main-area and sub-domain scores to each
	// clear 0.85, for index families whose element level is unusable.
	StrategyTwoField Strategy = "two_field"
)

// Row is one parsed sheet row: five ordered data columns, header skipped.
type Row struct {
	Line           int
	MainArea       string
	Element        string
	SubDomain      string
	CurrentStatus  string
	Recommendation string
}

// RowReader yields sheet rows in order with the header already skipped.
// Read reports false when the sheet is exhausted.
type RowReader interface {
	Read() (Row, bool, error)
}

// SheetArchiver stores an audit copy of the raw uploaded sheet.
// Implementations are optional; a nil archiver disables archiving.
type SheetArchiver interface {
	Archive(ctx context.Context, indexID common.ID, fileName string, raw []byte) error
}

// UploadInput carries one upload batch.
type UploadInput struct {
	IndexID   common.ID
	IndexType string
	Strategy  Strategy
	Rows      RowReader
	FileName  string
	Raw       []byte
}

// MatchedRow reports one sheet row that reached at least one requirement.
type MatchedRow struct {
	Row              int    `json:"row"`
	MainArea         string `json:"main_area"`
	Element          string `json:"element,omitempty"`
	SubDomain        string `json:"sub_domain,omitempty"`
	RequirementCount int    `json:"requirement_count"`
}

// UnmatchedRow reports one sheet row that produced no writes.
type UnmatchedRow struct {
	Row            int     `json:"row"`
	MainArea       string  `json:"main_area"`
	Element        string  `json:"element,omitempty"`
	SubDomain      string  `json:"sub_domain,omitempty"`
	Recommendation string  `json:"recommendation,omitempty"`
	BestScore      float64 `json:"best_score,omitempty"`
	Reason         string  `json:"reason"`
}

// UploadResult summarizes one batch for display; it is not persisted.
type UploadResult struct {
	TotalRows           int            `json:"total_rows"`
	Matched             int            `json:"matched"`
	Unmatched           int            `json:"unmatched"`
	Created             int            `json:"created"`
	Updated             int            `json:"updated"`
	MatchedRequirements []MatchedRow   `json:"matched_requirements"`
	UnmatchedRows       []UnmatchedRow `json:"unmatched_rows"`
}

// AssignerConfig carries the batch floors and the index-type strategy table.
type AssignerConfig struct {
	ThreeFieldFloor float64
	TwoFieldFloor   float64
	// TwoFieldTypes lists index types assigned the two-field strategy
	// when the caller does not pick one explicitly.
	TwoFieldTypes []string
}

// DefaultAssignerConfig returns the standard floors.
func DefaultAssignerConfig() AssignerConfig {
	return AssignerConfig{
		ThreeFieldFloor: 0.70,
		TwoFieldFloor:   0.85,
	}
}

// StrategyFor resolves the batch strategy for an index type.
func (c AssignerConfig) StrategyFor(indexType string) Strategy {
	for _, t := range c.TwoFieldTypes {
		if strings.EqualFold(t, indexType) {
			return StrategyTwoField
		}
	}
	return StrategyThreeField
}

// ─────────────────────────────────────────────────────────────────────────────
// Assigner
// ─────────────────────────────────────────────────────────────────────────────

// Assigner applies uploaded recommendation rows to every requirement whose
// taxonomy triple matches. One row may reach many requirements: a single
// recommendation in the source sheet covers the whole group sharing that
// triple. All writes of one batch happen inside one transaction.
type Assigner struct {
	requirementRepo requirement.Repository
	recRepo         recommendation.Repository
	scorer          *matching.Scorer
	archiver        SheetArchiver
	config          AssignerConfig
	logger          logging.Logger
}

// NewAssigner wires an assigner. archiver may be nil.
func NewAssigner(
	requirementRepo requirement.Repository,
	recRepo recommendation.Repository,
	scorer *matching.Scorer,
	archiver SheetArchiver,
	config AssignerConfig,
	logger logging.Logger,
) *Assigner {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	if config.ThreeFieldFloor <= 0 {
		config.ThreeFieldFloor = 0.70
	}
	if config.TwoFieldFloor <= 0 {
		config.TwoFieldFloor = 0.85
	}
	return &Assigner{
		requirementRepo: requirementRepo,
		recRepo:         recRepo,
		scorer:          scorer,
		archiver:        archiver,
		config:          config,
		logger:          logger.Named("continuity.assigner"),
	}
}

// Assign runs one batch. Structural failures (unreadable sheet, empty
// sheet, index without requirements) abort before any writes; once matching
// begins, per-row problems accumulate into UnmatchedRows and never abort
// the batch.
func (a *Assigner) Assign(ctx context.Context, input *UploadInput) (*UploadResult, error) {
	reqs, err := a.requirementRepo.ListByIndex(ctx, input.IndexID)
	if err != nil {
		return nil, err
	}
	if len(reqs) == 0 {
		return nil, errors.New(errors.ErrCodeUploadNoRequirements,
			"index has no requirements to match against")
	}

	if input.Rows == nil {
		return nil, errors.New(errors.ErrCodeUploadSheetMalformed, "no sheet provided")
	}
	rows, err := readAll(input.Rows)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeUploadSheetMalformed,
			"failed to read uploaded sheet")
	}
	if len(rows) == 0 {
		return nil, errors.New(errors.ErrCodeUploadEmptySheet,
			"uploaded sheet contains no data rows")
	}

	if a.archiver != nil && len(input.Raw) > 0 {
		if aerr := a.archiver.Archive(ctx, input.IndexID, input.FileName, input.Raw); aerr != nil {
			// Audit copy only; the batch proceeds.
			a.logger.Warn("sheet archive failed",
				logging.String("index_id", string(input.IndexID)),
				logging.Err(aerr))
		}
	}

	strategy := input.Strategy
	if strategy == "" {
		strategy = a.config.StrategyFor(input.IndexType)
	}

	result := &UploadResult{TotalRows: len(rows)}
	err = a.recRepo.RunInTx(ctx, func(ctx context.Context, txRepo recommendation.Repository) error {
		processed := make(map[common.ID]struct{})
		for _, row := range rows {
			if err := a.assignRow(ctx, txRepo, row, reqs, strategy, processed, result); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	a.logger.Info("recommendation batch processed",
		logging.String("index_id", string(input.IndexID)),
		logging.String("strategy", string(strategy)),
		logging.Int("total_rows", result.TotalRows),
		logging.Int("matched", result.Matched),
		logging.Int("unmatched", result.Unmatched),
		logging.Int("created", result.Created),
		logging.Int("updated", result.Updated))
	return result, nil
}

func (a *Assigner) assignRow(
	ctx context.Context,
	txRepo recommendation.Repository,
	row Row,
	reqs []*requirement.Requirement,
	strategy Strategy,
	processed map[common.ID]struct{},
	result *UploadResult,
) error {
	if strings.TrimSpace(row.Recommendation) == "" {
		result.Unmatched++
		result.UnmatchedRows = append(result.UnmatchedRows, unmatchedRow(row, 0, "empty recommendation text"))
		return nil
	}

	var matched []*requirement.Requirement
	best := 0.0
	for _, req := range reqs {
		mainScore := a.scorer.Ratio(row.MainArea, req.MainAreaAr)
		elementScore := a.scorer.Ratio(row.Element, req.ElementAr)
		subScore := a.scorer.Ratio(row.SubDomain, req.SubDomainAr)

		var combined float64
		if strings.TrimSpace(req.ElementAr) == "" {
			combined = 0.4*mainScore + 0.6*subScore
		} else {
			combined = 0.3*mainScore + 0.35*elementScore + 0.35*subScore
		}
		if combined > best {
			best = combined
		}

		if a.clearsFloor(strategy, mainScore, elementScore, subScore) {
			matched = append(matched, req)
		}
	}

	if len(matched) == 0 {
		result.Unmatched++
		result.UnmatchedRows = append(result.UnmatchedRows, unmatchedRow(row, best, "no requirement cleared the field floors"))
		return nil
	}

	for _, req := range matched {
		if _, done := processed[req.ID]; done {
			continue
		}
		existing, err := txRepo.GetByRequirementAndIndex(ctx, req.ID, req.IndexID)
		if err != nil && !errors.IsNotFound(err) {
			return err
		}
		if existing != nil {
			if err := existing.ApplyText(row.CurrentStatus, row.Recommendation); err != nil {
				return err
			}
			if err := txRepo.Update(ctx, existing); err != nil {
				return err
			}
			result.Updated++
		} else {
			rec, err := recommendation.New(req.ID, req.IndexID, row.CurrentStatus, row.Recommendation)
			if err != nil {
				return err
			}
			if err := txRepo.Create(ctx, rec); err != nil {
				return err
			}
			result.Created++
		}
		processed[req.ID] = struct{}{}
	}

	result.Matched++
	result.MatchedRequirements = append(result.MatchedRequirements, MatchedRow{
		Row:              row.Line,
		MainArea:         row.MainArea,
		Element:          row.Element,
		SubDomain:        row.SubDomain,
		RequirementCount: len(matched),
	})
	return nil
}

func (a *Assigner) clearsFloor(strategy Strategy, mainScore, elementScore, subScore float64) bool {
	switch strategy {
	case StrategyTwoField:
		return mainScore >= a.config.TwoFieldFloor && subScore >= a.config.TwoFieldFloor
	default:
		return mainScore >= a.config.ThreeFieldFloor &&
			elementScore >= a.config.ThreeFieldFloor &&
			subScore >= a.config.ThreeFieldFloor
	}
}

func unmatchedRow(row Row, best float64, reason string) UnmatchedRow {
	text := row.Recommendation
	if runes := []rune(text); len(runes) > 100 {
		text = string(runes[:100]) + "..."
	}
	return UnmatchedRow{
		Row:            row.Line,
		MainArea:       row.MainArea,
		Element:        row.Element,
		SubDomain:      row.SubDomain,
		Recommendation: text,
		BestScore:      best,
		Reason:         reason,
	}
}

func readAll(reader RowReader) ([]Row, error) {
	var rows []Row
	for {
		row, ok, err := reader.Read()
		if err != nil {
			return nil, err
		}
		if !ok {
			return rows, nil
		}
		rows = append(rows, row)
	}
}
