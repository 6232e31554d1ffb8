package personalization

import (
	"encoding/json"
	"strings"

	"github.com/printshop/personalizer/internal/domain/catalog"
	"github.com/printshop/personalizer/internal/domain/personalization"
)

// legacyFieldPrefixes are the flat form spellings older storefront pages post,
// followed by the area ID: area_<id>_design, web_to_print_area_<id>_design
var legacyFieldPrefixes = []string{"area_", "web_to_print_area_"}

// TranslateLegacyForm converts a flat per-area form post into submissions keyed
// by area key.
//
// The _design field carries the rendered preview as a data URL; areas without
// one are skipped. _text, _image and _image_name are kept alongside the
// design in the scene document. The literal "False" the old page sent for
// empty inputs counts as absent. The image is a data URL of which only the
// part after the first comma is stored.
func TranslateLegacyForm(areas []catalog.DesignArea, form map[string][]string) map[string]personalization.Submission {
	out := make(map[string]personalization.Submission)
	for i := range areas {
		area := &areas[i]
		design := legacyValue(form, area, "design")
		if design == "" {
			continue
		}

		fields := map[string]any{
			"version":    personalization.CurrentSceneVersion,
			"objects":    []any{},
			"text":       legacyOptional(legacyValue(form, area, "text")),
			"image":      legacyOptional(imagePayload(legacyValue(form, area, "image"))),
			"image_name": legacyOptional(legacyValue(form, area, "image_name")),
			"raw_design": design,
		}
		var sub personalization.Submission
		if data, err := json.Marshal(fields); err == nil {
			if scene, err := personalization.ParseSceneJSON(data); err == nil {
				sub.Scene = &scene
			}
		}
		if strings.HasPrefix(design, "data:") {
			sub.Preview, _ = personalization.DecodeDataURL(design)
		}
		out[area.AreaKey()] = sub
	}
	return out
}

func legacyValue(form map[string][]string, area *catalog.DesignArea, field string) string {
	for _, prefix := range legacyFieldPrefixes {
		values := form[prefix+area.ID.String()+"_"+field]
		if len(values) == 0 {
			continue
		}
		v := strings.TrimSpace(values[0])
		if v != "" && v != "False" {
			return v
		}
	}
	return ""
}

func imagePayload(v string) string {
	if v == "" {
		return ""
	}
	return personalization.StripDataURLPrefix(v)
}

// legacyOptional mirrors the old page's convention of false for absent values
func legacyOptional(v string) any {
	if v == "" {
		return false
	}
	return v
}
