package personalization

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	catalogapp "github.com/printshop/personalizer/internal/application/catalog"
	"github.com/printshop/personalizer/internal/domain/cart"
	"github.com/printshop/personalizer/internal/domain/catalog"
	"github.com/printshop/personalizer/internal/domain/personalization"
	"github.com/printshop/personalizer/internal/domain/shared"
	"github.com/printshop/personalizer/internal/infrastructure/logger"
	"github.com/printshop/personalizer/internal/infrastructure/telemetry"
	"go.uber.org/zap"
)

const (
	spanService = "personalization"

	// DefaultImageBasePath is where the HTTP layer serves record images
	DefaultImageBasePath = "/api/v1/personalizations"
)

// Thumbnailer scales stored images for the ?w= query of the image endpoint
type Thumbnailer interface {
	Thumbnail(data []byte, width int) ([]byte, error)
}

// Service runs the personalization lifecycle: it reads design area
// configuration, attaches designs to new cart lines, replaces them on re-edit
// and serves the stored images.
type Service struct {
	products    catalog.ProductReader
	registry    *catalogapp.DesignAreaRegistry
	records     personalization.Repository
	carts       cart.Repository
	bridge      CartBridge
	drafts      personalization.DraftStore
	locker      personalization.LineLocker
	thumbnailer Thumbnailer
	metrics     *telemetry.PersonalizationMetrics
}

// NewService creates a new personalization Service
func NewService(
	products catalog.ProductReader,
	registry *catalogapp.DesignAreaRegistry,
	records personalization.Repository,
	carts cart.Repository,
	bridge CartBridge,
) *Service {
	return &Service{
		products: products,
		registry: registry,
		records:  records,
		carts:    carts,
		bridge:   bridge,
	}
}

// SetDraftStore enables session drafts as a fallback for empty submissions
func (s *Service) SetDraftStore(drafts personalization.DraftStore) {
	s.drafts = drafts
}

// SetLineLocker serializes concurrent replacement of one line's designs
func (s *Service) SetLineLocker(locker personalization.LineLocker) {
	s.locker = locker
}

// SetThumbnailer enables resized image responses
func (s *Service) SetThumbnailer(t Thumbnailer) {
	s.thumbnailer = t
}

// SetMetrics sets the personalization instruments
func (s *Service) SetMetrics(m *telemetry.PersonalizationMetrics) {
	s.metrics = m
}

// ImageURL returns the URL a record's image is served from
func (s *Service) ImageURL(recordID uuid.UUID) string {
	return fmt.Sprintf("%s/%s/image", DefaultImageBasePath, recordID)
}

// FetchProductMetadata returns the variants of a product and the design areas of
// the selected variant. Without a variant, or with one that is not part of the
// product, the first variant is selected.
func (s *Service) FetchProductMetadata(ctx context.Context, req MetadataRequest) (*MetadataResponse, error) {
	productID, err := parseRequiredID(req.ProductID, "product_id")
	if err != nil {
		return nil, err
	}

	product, err := s.products.FindByID(ctx, productID)
	if err != nil {
		return nil, err
	}

	active := product.FirstVariant()
	if active == nil {
		return nil, shared.ErrNotFound.WithMessage("Product has no variants")
	}
	if variantID, err := uuid.Parse(strings.TrimSpace(req.VariantID)); err == nil {
		if v := product.FindVariant(variantID); v != nil {
			active = v
		}
	}

	resp := &MetadataResponse{
		ProductID:       product.ID,
		Variants:        make([]VariantOption, 0, len(product.Variants)),
		ActiveVariantID: active.ID,
		DesignTypes:     []string{},
		Designs:         make(map[string]DesignAreaConfig),
	}
	for i := range product.Variants {
		v := &product.Variants[i]
		resp.Variants = append(resp.Variants, VariantOption{
			ID:          v.ID,
			DisplayName: v.DisplayName(),
			ImageURL:    optionalString(s.registry.ImageURL(ctx, v.ImageKey)),
		})
	}

	areas, err := s.registry.ResolveForVariant(ctx, active)
	if err != nil {
		return nil, err
	}
	for _, a := range areas {
		if _, dup := resp.Designs[a.Key]; dup {
			continue
		}
		resp.DesignTypes = append(resp.DesignTypes, a.Key)
		resp.Designs[a.Key] = DesignAreaConfig{
			ID:         a.ID,
			DesignType: a.Key,
			Label:      a.Label,
			ImageURL:   optionalString(a.ImageURL),
			Restricted: a.Restricted,
			Bounds:     a.Bounds,
		}
	}
	if len(resp.DesignTypes) > 0 {
		resp.DefaultDesignType = &resp.DesignTypes[0]
	}
	resp.FallbackImageURL = optionalString(s.registry.ImageURL(ctx, active.ImageKey))
	return resp, nil
}

// AddPersonalizedLineToCart adds the variant to the session's cart as a new line
// and stores one personalization per design area configured on the variant.
//
// Areas missing from the submission get a baseline record with the empty scene
// and the area's background image. A record that fails to store is logged and
// skipped; the line stays in the cart.
func (s *Service) AddPersonalizedLineToCart(ctx context.Context, sessionID string, req AddToCartRequest) (*AddToCartResponse, error) {
	variantID, err := uuid.Parse(strings.TrimSpace(req.VariantID))
	if err != nil {
		return nil, shared.ErrInvalidInput.WithMessage("variant_id is required")
	}
	submissions, err := NormalizeDesigns(ctx, req.Designs, req.PersonalizationJSON)
	if err != nil {
		return nil, err
	}
	return s.addLine(ctx, sessionID, variantID, req.AddQty, submissions)
}

// AddLegacyLineToCart accepts the flat form post of older storefront pages.
// product_id carries the variant; the area fields are translated by
// TranslateLegacyForm. The line is added with quantity 1.
func (s *Service) AddLegacyLineToCart(ctx context.Context, sessionID string, form map[string][]string) (*AddToCartResponse, error) {
	var raw string
	for _, key := range []string{"variant_id", "product_id"} {
		if v := form[key]; len(v) > 0 && strings.TrimSpace(v[0]) != "" {
			raw = v[0]
			break
		}
	}
	variantID, err := uuid.Parse(strings.TrimSpace(raw))
	if err != nil {
		return nil, shared.ErrInvalidInput.WithMessage("product_id is required")
	}

	areas, err := s.registry.AreasForVariant(ctx, variantID)
	if err != nil {
		return nil, err
	}
	return s.addLine(ctx, sessionID, variantID, 1, TranslateLegacyForm(areas, form))
}

func (s *Service) addLine(ctx context.Context, sessionID string, variantID uuid.UUID, quantity int, submissions map[string]personalization.Submission) (*AddToCartResponse, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, spanService, "add_line",
		telemetry.SpanAttrVariantID, variantID.String(),
		telemetry.SpanAttrDesigns, len(submissions),
	)
	defer span.End()

	if quantity == 0 {
		quantity = 1
	}

	variant, err := s.products.FindVariant(ctx, variantID)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	areas, err := s.registry.AreasForVariant(ctx, variant.ID)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	if len(submissions) == 0 {
		submissions = s.draftSubmissions(ctx, sessionID, variant.ProductID)
	}

	line, err := s.bridge.AddToCart(ctx, sessionID, variant.ID, quantity)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	s.metrics.RecordLineAdded(ctx)
	telemetry.SetAttributes(span, telemetry.SpanAttrLineID, line.ID.String())

	created := make([]uuid.UUID, 0, len(areas))
	for _, rec := range s.buildRecords(ctx, line, areas, submissions) {
		if err := s.records.Create(ctx, rec); err != nil {
			s.logSaveFailure(ctx, rec, err)
			telemetry.AddEvent(span, "record_skipped", telemetry.SpanAttrAreaKey, rec.AreaKey)
			continue
		}
		s.metrics.RecordSaved(ctx, rec.AreaKey, len(rec.Preview))
		created = append(created, rec.ID)
	}
	telemetry.SetAttributes(span, telemetry.SpanAttrStored, len(created))

	if err := s.clearDrafts(ctx, sessionID, variant.ProductID); err != nil {
		logger.L(ctx).Warn("Failed to clear session drafts",
			zap.String("product_id", variant.ProductID.String()),
			zap.Error(err),
		)
	}

	total, err := s.bridge.CartQuantity(ctx, line.CartID)
	if err != nil {
		logger.L(ctx).Warn("Failed to read cart quantity", zap.Error(err))
		total = line.Quantity
	}

	return &AddToCartResponse{
		LineID:                    line.ID,
		CreatedPersonalizationIDs: created,
		CartQuantity:              total,
	}, nil
}

// PreviewCartLine lists the designs of a line with their image URLs
func (s *Service) PreviewCartLine(ctx context.Context, req LineRequest) (*LinePreviewResponse, error) {
	line, err := s.findLine(ctx, req.LineID)
	if err != nil {
		return nil, err
	}
	records, err := s.records.FindByLine(ctx, line.ID)
	if err != nil {
		return nil, err
	}

	resp := &LinePreviewResponse{
		LineID:      line.ID,
		ProductName: line.ProductName,
		Previews:    make([]LinePreview, 0, len(records)),
	}
	for i := range records {
		rec := &records[i]
		preview := LinePreview{ID: rec.ID, Title: rec.DisplayTitle()}
		if rec.HasImage() {
			preview.PreviewURL = optionalString(s.ImageURL(rec.ID))
		}
		resp.Previews = append(resp.Previews, preview)
	}
	return resp, nil
}

// LoadLineForEditing returns the scenes of a line keyed by area so the editor
// can restore them. Stored scenes that do not parse are logged and replaced by
// the empty scene.
func (s *Service) LoadLineForEditing(ctx context.Context, req LineRequest) (*LineDesignsResponse, error) {
	line, err := s.findLine(ctx, req.LineID)
	if err != nil {
		return nil, err
	}
	records, err := s.records.FindByLine(ctx, line.ID)
	if err != nil {
		return nil, err
	}

	resp := &LineDesignsResponse{
		LineID:  line.ID,
		Designs: make(map[string]EditableDesign, len(records)),
	}
	for i := range records {
		rec := &records[i]
		scene, err := rec.ParsedScene()
		if err != nil {
			logger.L(ctx).Error("Stored scene is malformed, returning empty scene",
				zap.String("personalization_id", rec.ID.String()),
				zap.String("line_id", line.ID.String()),
				zap.Error(err),
			)
		}
		resp.Designs[rec.AreaKey] = EditableDesign{
			ID:         rec.ID,
			Scene:      scene,
			HasContent: scene.HasContent(),
		}
	}
	return resp, nil
}

// ReplaceLinePersonalization updates the line quantity and replaces all of the
// line's designs with a fresh set built from the submission, one per design
// area of the line's variant. The delete and the inserts share one transaction.
// A concurrent replacement of the same line is refused with shared.ErrConflict.
func (s *Service) ReplaceLinePersonalization(ctx context.Context, req UpdateLineRequest) (*UpdateLineResponse, error) {
	start := time.Now()
	lineID, err := parseRequiredID(req.LineID, "line_id")
	if err != nil {
		return nil, err
	}
	submissions, err := NormalizeDesigns(ctx, req.Designs, req.PersonalizationJSON)
	if err != nil {
		return nil, err
	}

	ctx, span := telemetry.StartServiceSpan(ctx, spanService, "replace_line",
		telemetry.SpanAttrLineID, lineID.String(),
		telemetry.SpanAttrDesigns, len(submissions),
	)
	defer span.End()

	resp, err := s.replaceLine(ctx, lineID, req.AddQty, submissions)
	outcome := "ok"
	switch {
	case errors.Is(err, shared.ErrConflict):
		outcome = "conflict"
		s.metrics.RecordReplaceConflict(ctx)
	case err != nil:
		outcome = "error"
	}
	telemetry.RecordError(span, err)
	s.metrics.ObserveReplace(ctx, time.Since(start), outcome)
	return resp, err
}

func (s *Service) replaceLine(ctx context.Context, lineID uuid.UUID, quantity int, submissions map[string]personalization.Submission) (*UpdateLineResponse, error) {
	if s.locker != nil {
		release, ok, err := s.locker.Acquire(ctx, lineID)
		if err != nil {
			return nil, fmt.Errorf("acquire line lock: %w", err)
		}
		if !ok {
			return nil, shared.ErrConflict.WithMessage("The designs of this cart line are being saved by another request")
		}
		defer release()
	}

	line, err := s.carts.FindLine(ctx, lineID)
	if err != nil {
		return nil, err
	}
	if quantity > 0 && quantity != line.Quantity {
		if line, err = s.bridge.UpdateQuantity(ctx, line.ID, quantity); err != nil {
			return nil, err
		}
	}

	areas, err := s.registry.AreasForVariant(ctx, line.VariantID)
	if err != nil {
		return nil, err
	}

	records := s.buildRecords(ctx, line, areas, submissions)
	stored, err := s.records.ReplaceForLine(ctx, line.ID, records, func(rec *personalization.Personalization, err error) {
		s.logSaveFailure(ctx, rec, err)
	})
	if err != nil {
		return nil, err
	}
	storedSet := make(map[uuid.UUID]struct{}, len(stored))
	for _, id := range stored {
		storedSet[id] = struct{}{}
	}
	for _, rec := range records {
		if _, ok := storedSet[rec.ID]; ok {
			s.metrics.RecordSaved(ctx, rec.AreaKey, len(rec.Preview))
		}
	}

	return &UpdateLineResponse{
		LineID:                    line.ID,
		UpdatedPersonalizationIDs: stored,
	}, nil
}

// ServePersonalizationImage returns the final image of a record, else its
// preview. A positive width returns a thumbnail when the image can be decoded.
func (s *Service) ServePersonalizationImage(ctx context.Context, recordID uuid.UUID, width int) ([]byte, error) {
	rec, err := s.records.FindByID(ctx, recordID)
	if err != nil {
		return nil, err
	}
	data, ok := rec.Image()
	if !ok {
		return nil, shared.ErrNotFound.WithMessage("Personalization has no image")
	}
	kind := "preview"
	if len(rec.FinalImage) > 0 {
		kind = "final"
	}

	thumbnail := false
	if width != 0 && s.thumbnailer != nil {
		var resized []byte
		telemetry.WithProfilingLabels(ctx, telemetry.OperationLabels("thumbnail", map[string]string{
			telemetry.ProfilingLabelArea: rec.AreaKey,
		}), func(context.Context) {
			resized, err = s.thumbnailer.Thumbnail(data, width)
		})
		switch {
		case shared.CodeOf(err) == shared.CodeInvalidInput:
			return nil, err
		case err != nil:
			logger.L(ctx).Warn("Cannot resize personalization image, serving original",
				zap.String("personalization_id", rec.ID.String()),
				zap.Error(err),
			)
		default:
			data, thumbnail = resized, true
		}
	}
	s.metrics.RecordImageServed(ctx, kind, thumbnail)
	return data, nil
}

// SaveDraft keeps an in-progress area design for the session until the line is added
func (s *Service) SaveDraft(ctx context.Context, sessionID string, req SaveDraftRequest) error {
	scene := strings.TrimSpace(string(req.CanvasJSON))
	if strings.TrimSpace(req.ProductID) == "" || strings.TrimSpace(req.DesignType) == "" ||
		scene == "" || scene == "null" || strings.TrimSpace(req.PreviewDataURL) == "" {
		return shared.ErrMissingInput.WithMessage("Missing product_id or design_type or canvas_json or preview_dataurl")
	}
	productID, err := parseRequiredID(req.ProductID, "product_id")
	if err != nil {
		return err
	}
	if s.drafts == nil {
		return shared.ErrInvalidInput.WithMessage("Drafts are not enabled")
	}
	if _, err := s.products.FindByID(ctx, productID); err != nil {
		return err
	}

	// canvas_json may arrive as an object or as its serialized string
	parsed, err := personalization.ParseSceneJSON(req.CanvasJSON)
	if err != nil {
		return shared.ErrInvalidInput.WithMessage("canvas_json is not a scene document").Wrap(err)
	}
	return s.drafts.SaveDraft(ctx, sessionID, productID, strings.TrimSpace(req.DesignType), personalization.Draft{
		SceneJSON:  parsed.String(),
		PreviewURL: req.PreviewDataURL,
	})
}

// ListLineRecords returns the stored designs of a line for fulfillment
func (s *Service) ListLineRecords(ctx context.Context, lineID uuid.UUID) ([]RecordResponse, error) {
	if _, err := s.carts.FindLine(ctx, lineID); err != nil {
		return nil, err
	}
	records, err := s.records.FindByLine(ctx, lineID)
	if err != nil {
		return nil, err
	}

	out := make([]RecordResponse, 0, len(records))
	for i := range records {
		rec := &records[i]
		scene, _ := rec.ParsedScene()
		resp := RecordResponse{
			ID:           rec.ID,
			LineID:       rec.LineID,
			OrderID:      rec.OrderID,
			AreaKey:      rec.AreaKey,
			Title:        rec.DisplayTitle(),
			DesignAreaID: rec.DesignAreaID,
			Scene:        scene,
			HasPreview:   len(rec.Preview) > 0,
			HasFinal:     len(rec.FinalImage) > 0,
		}
		if rec.HasImage() {
			resp.ImageURL = optionalString(s.ImageURL(rec.ID))
		}
		out = append(out, resp)
	}
	return out, nil
}

// buildRecords resolves the record of every configured area. Background images
// are only loaded for areas whose submission lacks a preview. When areas share a
// key the first one wins.
func (s *Service) buildRecords(ctx context.Context, line *cart.Line, areas []catalog.DesignArea, submissions map[string]personalization.Submission) []*personalization.Personalization {
	records := make([]*personalization.Personalization, 0, len(areas))
	seen := make(map[string]bool, len(areas))
	for i := range areas {
		area := areas[i]
		if seen[area.AreaKey()] {
			logger.L(ctx).Warn("Duplicate design area key, skipping area",
				zap.String("design_area_id", area.ID.String()),
				zap.String("area_key", area.AreaKey()),
			)
			continue
		}
		seen[area.AreaKey()] = true

		var sub *personalization.Submission
		if v, ok := submissions[area.AreaKey()]; ok {
			sub = &v
		}

		var areaImage []byte
		if personalization.NeedsAreaImage(sub) {
			img, err := s.registry.AreaImage(ctx, &area)
			if err != nil {
				logger.L(ctx).Warn("Cannot load design area image, storing record without preview",
					zap.String("design_area_id", area.ID.String()),
					zap.Error(err),
				)
			}
			areaImage = img
		}

		records = append(records, personalization.New(line.ID, line.CartID, area, personalization.Resolve(sub, areaImage)))
	}
	return records
}

func (s *Service) logSaveFailure(ctx context.Context, rec *personalization.Personalization, err error) {
	s.metrics.RecordSaveFailure(ctx, rec.AreaKey)
	logger.L(ctx).Error("Failed to save personalization, skipping area",
		zap.String("code", shared.CodePersonalizationSaveFailed),
		zap.String("line_id", rec.LineID.String()),
		zap.String("area_key", rec.AreaKey),
		zap.Error(shared.ErrPersonalizationSaveFailed.Wrap(err)),
	)
}

// draftSubmissions converts the session's drafts of a product into submissions
func (s *Service) draftSubmissions(ctx context.Context, sessionID string, productID uuid.UUID) map[string]personalization.Submission {
	if s.drafts == nil || sessionID == "" {
		return nil
	}
	drafts, err := s.drafts.LoadDrafts(ctx, sessionID, productID)
	if err != nil {
		logger.L(ctx).Warn("Failed to load session drafts", zap.Error(err))
		return nil
	}

	out := make(map[string]personalization.Submission, len(drafts))
	for areaKey, d := range drafts {
		var sub personalization.Submission
		if scene, err := personalization.ParseScene(d.SceneJSON); err == nil {
			sub.Scene = &scene
		}
		sub.Preview, _ = personalization.DecodeDataURL(d.PreviewURL)
		out[areaKey] = sub
	}
	return out
}

func (s *Service) clearDrafts(ctx context.Context, sessionID string, productID uuid.UUID) error {
	if s.drafts == nil || sessionID == "" {
		return nil
	}
	return s.drafts.ClearDrafts(ctx, sessionID, productID)
}

func (s *Service) findLine(ctx context.Context, raw string) (*cart.Line, error) {
	lineID, err := parseRequiredID(raw, "line_id")
	if err != nil {
		return nil, err
	}
	return s.carts.FindLine(ctx, lineID)
}

// parseRequiredID treats an absent or unparsable identifier as missing input
func parseRequiredID(raw, field string) (uuid.UUID, error) {
	id, err := uuid.Parse(strings.TrimSpace(raw))
	if err != nil || id == uuid.Nil {
		return uuid.Nil, shared.ErrMissingInput.WithMessage("Missing " + field)
	}
	return id, nil
}
