package personalization

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"

	"github.com/printshop/personalizer/internal/domain/personalization"
	"github.com/printshop/personalizer/internal/domain/shared"
	"github.com/printshop/personalizer/internal/infrastructure/logger"
	"go.uber.org/zap"
)

// Keys the editor has used over time for the same concepts
var (
	sceneKeys   = []string{"json", "fabric_json"}
	previewKeys = []string{"preview", "preview_dataurl"}
)

// NormalizeDesigns turns the loosely-typed designs value of a request into one
// Submission per area key.
//
// designs may be a JSON object or a JSON string holding one. When it is empty,
// fallback (the historical personalization_json field) is tried instead.
// Anything that is not a mapping is InvalidInput. Unparsable scenes and
// previews are logged and treated as not submitted.
func NormalizeDesigns(ctx context.Context, designs json.RawMessage, fallback string) (map[string]personalization.Submission, error) {
	fields, err := decodeDesignMap(designs)
	if err != nil {
		return nil, err
	}
	if len(fields) == 0 && strings.TrimSpace(fallback) != "" {
		fields, err = decodeDesignMap(json.RawMessage(fallback))
		if err != nil {
			// the fallback field is best effort
			logger.L(ctx).Warn("Ignoring unparsable personalization_json", zap.Error(err))
			fields = nil
		}
	}

	out := make(map[string]personalization.Submission, len(fields))
	for areaKey, raw := range fields {
		out[areaKey] = normalizeArea(ctx, areaKey, raw)
	}
	return out, nil
}

// decodeDesignMap accepts an object, a string holding an object, or nothing
func decodeDesignMap(raw json.RawMessage) (map[string]json.RawMessage, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return nil, nil
	}

	if raw[0] == '"' {
		var inner string
		if err := json.Unmarshal(raw, &inner); err != nil {
			return nil, shared.ErrInvalidInput.WithMessage("designs must be a mapping of area key to design").Wrap(err)
		}
		inner = strings.TrimSpace(inner)
		if inner == "" {
			return nil, nil
		}
		raw = json.RawMessage(inner)
	}

	if raw[0] != '{' {
		return nil, shared.ErrInvalidInput.WithMessage("designs must be a mapping of area key to design")
	}
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil {
		return nil, shared.ErrInvalidInput.WithMessage("designs must be a mapping of area key to design").Wrap(err)
	}
	return fields, nil
}

// normalizeArea reads one area entry. An entry is normally an object with a
// scene and a preview; a bare string is taken as the scene.
func normalizeArea(ctx context.Context, areaKey string, raw json.RawMessage) personalization.Submission {
	var sub personalization.Submission
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return sub
	}

	switch raw[0] {
	case '"':
		sub.Scene = parseSubmittedScene(ctx, areaKey, raw)
	case '{':
		var entry map[string]json.RawMessage
		if err := json.Unmarshal(raw, &entry); err != nil {
			logger.L(ctx).Warn("Ignoring unparsable design entry",
				zap.String("area_key", areaKey),
				zap.Error(err),
			)
			return sub
		}
		if sceneRaw, ok := firstPresent(entry, sceneKeys); ok {
			sub.Scene = parseSubmittedScene(ctx, areaKey, sceneRaw)
		}
		if previewRaw, ok := firstPresent(entry, previewKeys); ok {
			sub.Preview = decodePreview(previewRaw)
		}
	}
	return sub
}

// firstPresent returns the first key holding something other than null, false or ""
func firstPresent(entry map[string]json.RawMessage, keys []string) (json.RawMessage, bool) {
	for _, k := range keys {
		v, ok := entry[k]
		if !ok {
			continue
		}
		switch string(bytes.TrimSpace(v)) {
		case "", "null", "false", `""`:
			continue
		}
		return v, true
	}
	return nil, false
}

func parseSubmittedScene(ctx context.Context, areaKey string, raw json.RawMessage) *personalization.Scene {
	scene, err := personalization.ParseSceneJSON(raw)
	if err != nil {
		logger.L(ctx).Warn("Submitted scene is malformed, using empty scene",
			zap.String("area_key", areaKey),
			zap.Error(err),
		)
		return nil
	}
	return &scene
}

// decodePreview accepts a data URL or plain base64. Anything undecodable is no preview.
func decodePreview(raw json.RawMessage) []byte {
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return nil
	}
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "data:") {
		data, _ := personalization.DecodeDataURL(s)
		return data
	}
	data, _ := personalization.DecodeBase64(s)
	return data
}
